package coap

import "errors"

// Decode and construction errors. Decode failures are ordinary returned
// values; a malformed buffer can never panic the codec.
var (
	ErrMessageTooShort       = errors.New("message shorter than 4-byte header")
	ErrUnsupportedVersion    = errors.New("unsupported protocol version")
	ErrInvalidToken          = errors.New("token longer than 8 bytes")
	ErrTokenUnderflow        = errors.New("message truncated inside token")
	ErrOptionDeltaUnderflow  = errors.New("message truncated inside option delta")
	ErrReservedOptionDelta   = errors.New("reserved option delta nibble 15")
	ErrOptionLengthUnderflow = errors.New("message truncated inside option length")
	ErrReservedOptionLength  = errors.New("reserved option length nibble 15")
	ErrOptionValueUnderflow  = errors.New("message truncated inside option value")
	ErrMissingPayloadMarker  = errors.New("byte after options is not the payload marker")
	ErrOptionTooLong         = errors.New("option delta or length exceeds encodable range")
	ErrInvalidBlockValue     = errors.New("invalid block option value")
)
