package mup1

import "fmt"

// Checksum computes the Internet checksum (RFC 1071) of b and renders it as
// four lowercase hex digits, the form carried on the wire after the EOF
// marker. The bytes are summed as big-endian 16-bit words; an odd trailing
// byte is treated as the high byte of a final word with a zero low byte.
func Checksum(b []byte) string {
	var sum uint32
	for i := 0; i+1 < len(b); i += 2 {
		sum += uint32(b[i])<<8 | uint32(b[i+1])
	}
	if len(b)%2 == 1 {
		sum += uint32(b[len(b)-1]) << 8
	}
	// Fold twice so a carry produced by the first fold is absorbed too.
	sum = (sum >> 16) + (sum & 0xFFFF)
	sum = (sum >> 16) + (sum & 0xFFFF)
	return fmt.Sprintf("%04x", ^uint16(sum))
}
