package coap

import (
	"fmt"
	"sort"
	"strings"
)

// Option numbers of interest to the configuration protocol.
//
//	+-----+----------------+--------+
//	| No. | Name           | Format |
//	+-----+----------------+--------+
//	|  11 | Uri-Path       | string |
//	|  12 | Content-Format | uint   |
//	|  15 | Uri-Query      | string |
//	|  17 | Accept         | uint   |
//	|  23 | Block2         | uint   |
//	|  27 | Block1         | uint   |
//	+-----+----------------+--------+
const (
	OptionUriPath       uint16 = 11
	OptionContentFormat uint16 = 12
	OptionUriQuery      uint16 = 15
	OptionAccept        uint16 = 17
	OptionBlock2        uint16 = 23
	OptionBlock1        uint16 = 27
)

// Option is a single decoded option: the accumulated option number (not the
// raw per-wire delta) and its raw value bytes.
type Option struct {
	Number uint16
	Value  []byte
}

// UintOption builds an option whose value is v in minimal big-endian bytes.
// Zero encodes as a zero-length value, per the CoAP uint convention.
func UintOption(number uint16, v uint32) Option {
	var b []byte
	for v > 0 {
		b = append([]byte{byte(v)}, b...)
		v >>= 8
	}
	return Option{Number: number, Value: b}
}

// StringOption builds an option holding a UTF-8 text value.
func StringOption(number uint16, s string) Option {
	return Option{Number: number, Value: []byte(s)}
}

// Uint decodes the option value as an unsigned integer in minimal
// big-endian bytes. A zero-length value means 0.
func (o Option) Uint() uint32 {
	var v uint32
	for _, b := range o.Value {
		v = v<<8 | uint32(b)
	}
	return v
}

// Nibble values 13 and 14 switch the delta/length fields to 1-byte and
// 2-byte extended encodings; 15 is reserved.
const (
	extByte  = 13
	extWord  = 14
	reserved = 15

	extByteBase = 13  // values 13..268 carry value-13 in one extra byte
	extWordBase = 269 // values 269..65804 carry value-269 in two extra bytes
)

// extend splits v into its header nibble and extension bytes. Delta and
// length use the identical rule.
func extend(v int) (nibble byte, ext []byte, err error) {
	switch {
	case v < extByteBase:
		return byte(v), nil, nil
	case v < extWordBase:
		return extByte, []byte{byte(v - extByteBase)}, nil
	case v-extWordBase <= 0xFFFF:
		d := v - extWordBase
		return extWord, []byte{byte(d >> 8), byte(d)}, nil
	}
	return 0, nil, fmt.Errorf("%w: %d", ErrOptionTooLong, v)
}

// encodeOptions appends the delta/length TLV encoding of opts to out.
// opts must already be sorted ascending by number.
func encodeOptions(out []byte, opts []Option) ([]byte, error) {
	prev := uint16(0)
	for _, o := range opts {
		deltaNibble, deltaExt, err := extend(int(o.Number - prev))
		if err != nil {
			return nil, err
		}
		lenNibble, lenExt, err := extend(len(o.Value))
		if err != nil {
			return nil, err
		}
		out = append(out, deltaNibble<<4|lenNibble)
		out = append(out, deltaExt...)
		out = append(out, lenExt...)
		out = append(out, o.Value...)
		prev = o.Number
	}
	return out, nil
}

// readExtended resolves one delta or length nibble, consuming its extension
// bytes from b. underflow and reservedErr name which field failed.
func readExtended(nibble byte, b []byte, underflow, reservedErr error) (value, consumed int, err error) {
	switch nibble {
	case reserved:
		return 0, 0, reservedErr
	case extByte:
		if len(b) < 1 {
			return 0, 0, underflow
		}
		return int(b[0]) + extByteBase, 1, nil
	case extWord:
		if len(b) < 2 {
			return 0, 0, underflow
		}
		return (int(b[0])<<8 | int(b[1])) + extWordBase, 2, nil
	}
	return int(nibble), 0, nil
}

// decodeOptions parses the option list from b, stopping at the 0xFF payload
// marker or end of input. It returns the options and the number of bytes
// consumed (not including the marker).
func decodeOptions(b []byte) ([]Option, int, error) {
	var opts []Option
	number := uint16(0)
	i := 0
	for i < len(b) && b[i] != payloadMarker {
		header := b[i]
		i++

		delta, n, err := readExtended(header>>4, b[i:], ErrOptionDeltaUnderflow, ErrReservedOptionDelta)
		if err != nil {
			return nil, 0, err
		}
		i += n

		length, n, err := readExtended(header&0x0F, b[i:], ErrOptionLengthUnderflow, ErrReservedOptionLength)
		if err != nil {
			return nil, 0, err
		}
		i += n

		if len(b)-i < length {
			return nil, 0, fmt.Errorf("%w: need %d bytes, have %d", ErrOptionValueUnderflow, length, len(b)-i)
		}
		number += uint16(delta)
		opts = append(opts, Option{Number: number, Value: b[i : i+length : i+length]})
		i += length
	}
	return opts, i, nil
}

// sortOptions orders options ascending by number, preserving the relative
// order of repeated numbers (Uri-Path segments must stay in caller order).
func sortOptions(opts []Option) []Option {
	sorted := make([]Option, len(opts))
	copy(sorted, opts)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Number < sorted[j].Number })
	return sorted
}

// options returns all options with the given number, in wire order.
func (m *Message) options(number uint16) []Option {
	var out []Option
	for _, o := range m.Options {
		if o.Number == number {
			out = append(out, o)
		}
	}
	return out
}

// option returns the first option with the given number, if present.
func (m *Message) option(number uint16) (Option, bool) {
	for _, o := range m.Options {
		if o.Number == number {
			return o, true
		}
	}
	return Option{}, false
}

// Path joins the Uri-Path segments with "/".
func (m *Message) Path() string {
	var segs []string
	for _, o := range m.options(OptionUriPath) {
		segs = append(segs, string(o.Value))
	}
	return strings.Join(segs, "/")
}

// Queries returns the Uri-Query parameters in wire order.
func (m *Message) Queries() []string {
	var qs []string
	for _, o := range m.options(OptionUriQuery) {
		qs = append(qs, string(o.Value))
	}
	return qs
}

// ContentFormat returns the Content-Format option value, if present.
func (m *Message) ContentFormat() (uint16, bool) {
	o, ok := m.option(OptionContentFormat)
	if !ok {
		return 0, false
	}
	return uint16(o.Uint()), true
}

// Accept returns the Accept option value, if present.
func (m *Message) Accept() (uint16, bool) {
	o, ok := m.option(OptionAccept)
	if !ok {
		return 0, false
	}
	return uint16(o.Uint()), true
}

// Block1 decodes the Block1 option, if present.
func (m *Message) Block1() (Block, bool, error) {
	return m.block(OptionBlock1)
}

// Block2 decodes the Block2 option, if present.
func (m *Message) Block2() (Block, bool, error) {
	return m.block(OptionBlock2)
}

func (m *Message) block(number uint16) (Block, bool, error) {
	o, ok := m.option(number)
	if !ok {
		return Block{}, false, nil
	}
	blk, err := ParseBlock(o.Value)
	if err != nil {
		return Block{}, true, err
	}
	return blk, true, nil
}
