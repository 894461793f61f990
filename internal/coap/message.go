// Package coap implements the RFC 7252 message codec used as the
// configuration protocol's envelope: a 4-byte header, token, delta-encoded
// options, and an optional payload behind a 0xFF marker.
//
// The codec is byte-exact and symmetric: Encode produces the canonical wire
// form (options sorted ascending by number) and Decode accepts any
// well-formed buffer. Payload contents are opaque here; CBOR interpretation
// belongs to the caller.
package coap

import (
	"encoding/binary"
	"fmt"
)

const (
	version       = 1
	maxTokenLen   = 8
	payloadMarker = 0xFF
)

// Message is a full protocol message. Payload distinguishes nil (no payload
// section on the wire) from a non-nil empty slice (an explicit 0xFF marker
// with nothing after it).
type Message struct {
	Type      Type
	Code      Code
	MessageID uint16
	Token     []byte
	Options   []Option
	Payload   []byte
}

// Encode serializes m. Options are sorted ascending by number before delta
// encoding; repeated numbers keep their relative order. A token longer than
// 8 bytes cannot be represented in the 4-bit TKL field and is rejected.
func (m *Message) Encode() ([]byte, error) {
	if len(m.Token) > maxTokenLen {
		return nil, fmt.Errorf("%w: %d bytes", ErrInvalidToken, len(m.Token))
	}

	out := make([]byte, 4, 4+len(m.Token)+len(m.Payload)+16)
	out[0] = version<<6 | byte(m.Type)<<4 | byte(len(m.Token))
	out[1] = byte(m.Code)
	binary.BigEndian.PutUint16(out[2:4], m.MessageID)
	out = append(out, m.Token...)

	out, err := encodeOptions(out, sortOptions(m.Options))
	if err != nil {
		return nil, err
	}

	if len(m.Payload) > 0 {
		out = append(out, payloadMarker)
		out = append(out, m.Payload...)
	}
	return out, nil
}

// Decode parses a message from b. All failures are returned as structured
// errors from the taxonomy in errors.go; no input can panic the parser.
func Decode(b []byte) (*Message, error) {
	if len(b) < 4 {
		return nil, fmt.Errorf("%w: %d bytes", ErrMessageTooShort, len(b))
	}
	if v := b[0] >> 6; v != version {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, v)
	}

	m := &Message{
		Type:      Type(b[0] >> 4 & 0x03),
		Code:      Code(b[1]),
		MessageID: binary.BigEndian.Uint16(b[2:4]),
	}

	tkl := int(b[0] & 0x0F)
	rest := b[4:]
	if tkl > 0 {
		if len(rest) < tkl {
			return nil, fmt.Errorf("%w: need %d bytes, have %d", ErrTokenUnderflow, tkl, len(rest))
		}
		m.Token = rest[:tkl:tkl]
		rest = rest[tkl:]
	}

	opts, n, err := decodeOptions(rest)
	if err != nil {
		return nil, err
	}
	m.Options = opts
	rest = rest[n:]

	if len(rest) > 0 {
		if rest[0] != payloadMarker {
			return nil, fmt.Errorf("%w: got 0x%02x", ErrMissingPayloadMarker, rest[0])
		}
		// Marker present: the remainder is the payload, possibly an
		// explicit empty one (non-nil, zero length).
		m.Payload = rest[1:len(rest):len(rest)]
	}
	return m, nil
}

func (m *Message) String() string {
	return fmt.Sprintf("%s %s mid=%#04x tkl=%d opts=%d payload=%d",
		m.Type, m.Code, m.MessageID, len(m.Token), len(m.Options), len(m.Payload))
}
