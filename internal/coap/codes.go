package coap

import "fmt"

// Type is the 2-bit message type from the header.
type Type uint8

const (
	Confirmable     Type = 0
	NonConfirmable  Type = 1
	Acknowledgement Type = 2
	Reset           Type = 3
)

func (t Type) String() string {
	switch t {
	case Confirmable:
		return "CON"
	case NonConfirmable:
		return "NON"
	case Acknowledgement:
		return "ACK"
	case Reset:
		return "RST"
	}
	return fmt.Sprintf("type(%d)", uint8(t))
}

// Code is the 8-bit message code: a 3-bit class and a 5-bit detail,
// conventionally written class.detail (e.g. 0.01 = GET, 2.05 = Content).
type Code uint8

// Request method codes (class 0).
const (
	CodeEmpty  Code = 0x00
	CodeGet    Code = 0x01
	CodePost   Code = 0x02
	CodePut    Code = 0x03
	CodeDelete Code = 0x04
	CodeFetch  Code = 0x05
	CodePatch  Code = 0x06
	CodeIPatch Code = 0x07
)

// Response codes used by the configuration protocol.
const (
	CodeCreated  Code = 2<<5 | 1  // 2.01
	CodeDeleted  Code = 2<<5 | 2  // 2.02
	CodeValid    Code = 2<<5 | 3  // 2.03
	CodeChanged  Code = 2<<5 | 4  // 2.04
	CodeContent  Code = 2<<5 | 5  // 2.05
	CodeBadReq   Code = 4<<5 | 0  // 4.00
	CodeNotFound Code = 4<<5 | 4  // 4.04
	CodeInternal Code = 5<<5 | 0  // 5.00
)

// Class returns the 3-bit code class (0 request, 2 success, 4 client
// error, 5 server error).
func (c Code) Class() uint8 { return uint8(c) >> 5 }

// Detail returns the 5-bit code detail.
func (c Code) Detail() uint8 { return uint8(c) & 0x1F }

// IsSuccess reports whether the code is a 2.xx response.
func (c Code) IsSuccess() bool { return c.Class() == 2 }

func (c Code) String() string {
	return fmt.Sprintf("%d.%02d", c.Class(), c.Detail())
}

// Content-Format registry values the configuration protocol uses.
// 140–142 are the CORECONF application/yang-data+cbor variants.
const (
	FormatTextPlain       uint16 = 0
	FormatJSON            uint16 = 50
	FormatCBOR            uint16 = 60
	FormatYangData        uint16 = 140
	FormatYangIdentifiers uint16 = 141
	FormatYangInstances   uint16 = 142
)
