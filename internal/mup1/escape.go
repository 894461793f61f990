package mup1

import "fmt"

// Bytes with special meaning on the link. SOF/EOF/ESC never appear raw
// inside a payload; 0x00 and 0xFF are reserved by the framing as well.
const (
	SOF byte = 0x3E // '>'
	EOF byte = 0x3C // '<'
	ESC byte = 0x5C // '\'
)

// escaped returns the byte that follows ESC on the wire for b, and whether
// b needs escaping at all.
func escaped(b byte) (byte, bool) {
	switch b {
	case SOF, EOF, ESC:
		return b, true
	case 0x00:
		return '0', true
	case 0xFF:
		return 'F', true
	}
	return 0, false
}

// unescaped is the inverse of escaped: it maps the byte following ESC back
// to the original payload byte.
func unescaped(b byte) (byte, bool) {
	switch b {
	case SOF, EOF, ESC:
		return b, true
	case '0':
		return 0x00, true
	case 'F':
		return 0xFF, true
	}
	return 0, false
}

// Escape rewrites data for transmission, prefixing every reserved byte with
// ESC. Bytes outside the reserved set pass through unchanged.
func Escape(data []byte) []byte {
	out := make([]byte, 0, len(data))
	for _, b := range data {
		if e, ok := escaped(b); ok {
			out = append(out, ESC, e)
		} else {
			out = append(out, b)
		}
	}
	return out
}

// Unescape reverses Escape. An ESC followed by anything outside the escape
// table is malformed and returns ErrInvalidEscapeSequence, as is a trailing
// ESC with no byte after it.
func Unescape(data []byte) ([]byte, error) {
	out := make([]byte, 0, len(data))
	for i := 0; i < len(data); i++ {
		b := data[i]
		if b != ESC {
			out = append(out, b)
			continue
		}
		i++
		if i >= len(data) {
			return nil, fmt.Errorf("%w: dangling escape at end of input", ErrInvalidEscapeSequence)
		}
		u, ok := unescaped(data[i])
		if !ok {
			return nil, fmt.Errorf("%w: 0x%02x", ErrInvalidEscapeSequence, data[i])
		}
		out = append(out, u)
	}
	return out, nil
}
