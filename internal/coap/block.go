package coap

import "fmt"

// Block is a decoded Block1/Block2 option descriptor.
type Block struct {
	Num  uint32 // block sequence number
	More bool   // further blocks follow
	Size int    // block size in bytes, 2^(szx+4), 16..1024
}

// ParseBlock decodes a Block option value. The value is 1–3 bytes: the last
// byte carries SZX in its low 3 bits and the more flag in bit 3; the block
// number is the preceding bytes (big-endian) shifted left 4, OR'd with the
// last byte's high nibble.
func ParseBlock(value []byte) (Block, error) {
	if len(value) == 0 || len(value) > 3 {
		return Block{}, fmt.Errorf("%w: %d bytes", ErrInvalidBlockValue, len(value))
	}
	last := value[len(value)-1]
	num := uint32(0)
	for _, b := range value[:len(value)-1] {
		num = num<<8 | uint32(b)
	}
	num = num<<4 | uint32(last>>4)

	szx := last & 0x07
	return Block{
		Num:  num,
		More: last&0x08 != 0,
		Size: 1 << (szx + 4),
	}, nil
}
