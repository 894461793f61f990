package coap

import (
	"bytes"
	"errors"
	"testing"
)

// ---------------------------------------------------------------------------
// Delta/length nibble boundaries
// ---------------------------------------------------------------------------

func TestOptionDeltaBoundaries(t *testing.T) {
	// 12 is the last literal nibble, 13 the first 1-byte extension, 268 the
	// last 1-byte extension, 269 the first 2-byte extension.
	for _, number := range []uint16{1, 12, 13, 268, 269, 700, 65535} {
		opts := []Option{{Number: number, Value: []byte{0x01}}}
		wire, err := encodeOptions(nil, opts)
		if err != nil {
			t.Fatalf("number %d: encode: %v", number, err)
		}
		decoded, n, err := decodeOptions(wire)
		if err != nil {
			t.Fatalf("number %d: decode: %v", number, err)
		}
		if n != len(wire) {
			t.Errorf("number %d: consumed %d of %d bytes", number, n, len(wire))
		}
		if len(decoded) != 1 || decoded[0].Number != number {
			t.Errorf("number %d: decoded %+v", number, decoded)
		}
	}
}

func TestOptionLengthBoundaries(t *testing.T) {
	for _, length := range []int{0, 12, 13, 268, 269, 1024} {
		value := bytes.Repeat([]byte{0xAA}, length)
		wire, err := encodeOptions(nil, []Option{{Number: 11, Value: value}})
		if err != nil {
			t.Fatalf("length %d: encode: %v", length, err)
		}
		decoded, _, err := decodeOptions(wire)
		if err != nil {
			t.Fatalf("length %d: decode: %v", length, err)
		}
		if len(decoded) != 1 || !bytes.Equal(decoded[0].Value, value) {
			t.Errorf("length %d: value did not round trip", length)
		}
	}
}

func TestOptionWireBytes(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
		want []byte
	}{
		{
			"literal nibbles",
			[]Option{{Number: 11, Value: []byte{'c'}}},
			[]byte{0xB1, 'c'},
		},
		{
			"one-byte delta extension",
			[]Option{{Number: 13, Value: nil}},
			[]byte{0xD0, 0x00},
		},
		{
			"two-byte delta extension",
			[]Option{{Number: 269, Value: nil}},
			[]byte{0xE0, 0x00, 0x00},
		},
		{
			"accumulating deltas",
			[]Option{{Number: 11, Value: []byte{'c'}}, {Number: 17, Value: []byte{0x8E}}},
			[]byte{0xB1, 'c', 0x61, 0x8E},
		},
	}
	for _, tt := range tests {
		got, err := encodeOptions(nil, tt.opts)
		if err != nil {
			t.Fatalf("%s: %v", tt.name, err)
		}
		if !bytes.Equal(got, tt.want) {
			t.Errorf("%s: wire = % x, want % x", tt.name, got, tt.want)
		}
	}
}

func TestOptionEncodeTooLong(t *testing.T) {
	// 269 + 0xFFFF is the largest encodable delta.
	_, err := encodeOptions(nil, []Option{{Number: 11, Value: bytes.Repeat([]byte{0}, 269+0xFFFF+1)}})
	if !errors.Is(err, ErrOptionTooLong) {
		t.Errorf("err = %v, want ErrOptionTooLong", err)
	}
}

// ---------------------------------------------------------------------------
// Malformed option streams
// ---------------------------------------------------------------------------

func TestOptionDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want error
	}{
		{"reserved delta nibble", []byte{0xF1, 0x00}, ErrReservedOptionDelta},
		{"reserved length nibble", []byte{0x1F}, ErrReservedOptionLength},
		{"delta extension missing", []byte{0xD1}, ErrOptionDeltaUnderflow},
		{"delta word extension short", []byte{0xE1, 0x00}, ErrOptionDeltaUnderflow},
		{"length extension missing", []byte{0x1D}, ErrOptionLengthUnderflow},
		{"value truncated", []byte{0x15, 'a', 'b'}, ErrOptionValueUnderflow},
	}
	for _, tt := range tests {
		if _, _, err := decodeOptions(tt.in); !errors.Is(err, tt.want) {
			t.Errorf("%s: err = %v, want %v", tt.name, err, tt.want)
		}
	}
}

func TestOptionDecodeStopsAtMarker(t *testing.T) {
	in := []byte{0xB1, 'c', 0xFF, 0xDE, 0xAD}
	opts, n, err := decodeOptions(in)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("consumed %d bytes, want 2", n)
	}
	if len(opts) != 1 || opts[0].Number != OptionUriPath {
		t.Errorf("opts = %+v", opts)
	}
}

// ---------------------------------------------------------------------------
// Typed accessors
// ---------------------------------------------------------------------------

func TestUintOption(t *testing.T) {
	tests := []struct {
		v    uint32
		want []byte
	}{
		{0, nil},
		{1, []byte{0x01}},
		{142, []byte{0x8E}},
		{256, []byte{0x01, 0x00}},
		{70000, []byte{0x01, 0x11, 0x70}},
	}
	for _, tt := range tests {
		o := UintOption(OptionAccept, tt.v)
		if !bytes.Equal(o.Value, tt.want) {
			t.Errorf("UintOption(%d).Value = % x, want % x", tt.v, o.Value, tt.want)
		}
		if got := o.Uint(); got != tt.v {
			t.Errorf("Uint(% x) = %d, want %d", o.Value, got, tt.v)
		}
	}
}

func TestMessagePathAndQueries(t *testing.T) {
	m := &Message{Options: []Option{
		StringOption(OptionUriPath, "c"),
		StringOption(OptionUriPath, "ietf-system:system"),
		StringOption(OptionUriQuery, "d=a"),
		StringOption(OptionUriQuery, "k=v"),
	}}
	if got := m.Path(); got != "c/ietf-system:system" {
		t.Errorf("Path = %q", got)
	}
	if got := m.Queries(); len(got) != 2 || got[0] != "d=a" || got[1] != "k=v" {
		t.Errorf("Queries = %v", got)
	}
}
