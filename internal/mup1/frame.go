// Package mup1 implements the MUP1 link framing used to carry typed frames
// over a serial byte stream.
//
// Wire format:
//
//	SOF(0x3E) TYPE(1) ESCAPED-PAYLOAD EOF(0x3C, x1 odd / x2 even payload) CHECKSUM(4 hex chars)
//
// The checksum is the Internet checksum of the unescaped frame (SOF, type,
// payload, EOF markers), rendered as lowercase hex ASCII.
package mup1

import (
	"errors"
	"fmt"
)

// Frame type bytes understood by the device.
const (
	TypeAnnounce byte = 'A' // device hello / version banner
	TypeCoAP     byte = 'C' // CoAP message payload
	TypePing     byte = 'p' // host keep-alive request
	TypePong     byte = 'P' // device reply, carries the version banner
	TypeTrace    byte = 'T' // free-form trace text from the device
)

// MaxPayload caps the unescaped payload size the decoder will buffer, so a
// corrupted stream cannot grow the accumulator without bound.
const MaxPayload = 1024

// Frame-layer errors. The decoder reports these as events and resets; none
// of them poison the stream.
var (
	ErrFrameTooLarge         = errors.New("frame payload too large")
	ErrInvalidDataByte       = errors.New("invalid unescaped data byte")
	ErrInvalidEscapeSequence = errors.New("invalid escape sequence")
	ErrUnexpectedSecondEOF   = errors.New("expected second EOF byte")
	ErrChecksumMismatch      = errors.New("checksum mismatch")
)

// Frame is one typed unit carried over the link.
type Frame struct {
	Type    byte
	Payload []byte
}

// EncodeFrame builds the full on-wire representation of a frame. Escaping
// applies only to the payload; SOF, type, EOF markers and checksum are
// emitted raw. The payload length decides the EOF arity: one 0x3C byte when
// odd, two when even (including empty).
func EncodeFrame(typ byte, payload []byte) []byte {
	eofs := 2
	if len(payload)%2 == 1 {
		eofs = 1
	}

	// Checksum is computed over the unescaped frame.
	sumBuf := make([]byte, 0, 2+len(payload)+eofs)
	sumBuf = append(sumBuf, SOF, typ)
	sumBuf = append(sumBuf, payload...)
	for i := 0; i < eofs; i++ {
		sumBuf = append(sumBuf, EOF)
	}
	chk := Checksum(sumBuf)

	out := make([]byte, 0, 2+2*len(payload)+eofs+4)
	out = append(out, SOF, typ)
	out = append(out, Escape(payload)...)
	for i := 0; i < eofs; i++ {
		out = append(out, EOF)
	}
	return append(out, chk...)
}

// EventKind tags the outcomes a Decoder can produce from one Feed call.
type EventKind int

const (
	// EventFrame carries a completed, checksum-verified frame.
	EventFrame EventKind = iota
	// EventError carries a frame-layer diagnostic. The decoder has already
	// reset and remains usable.
	EventError
	// EventNoise carries bytes received outside any frame. Serial links
	// routinely emit boot messages and line noise before the first SOF.
	EventNoise
)

// Event is one tagged outcome of feeding bytes to the Decoder.
type Event struct {
	Kind  EventKind
	Frame *Frame // set when Kind == EventFrame
	Err   error  // set when Kind == EventError
	Noise []byte // set when Kind == EventNoise
}

type decodeState int

const (
	stateInit decodeState = iota
	stateAfterSOF
	stateInData
	stateInEscape
	stateAwaitingSecondEOF
	stateChecksum0
	stateChecksum1
	stateChecksum2
	stateChecksum3
)

// Decoder is an incremental frame parser. Feed it bytes in any chunking —
// one byte at a time, partial frames, or many frames at once — and it emits
// events as frames complete. A Decoder is owned by a single reader; it is
// not safe for concurrent use.
type Decoder struct {
	state decodeState
	typ   byte
	data  []byte
	chk   [4]byte
}

// NewDecoder returns a Decoder in its initial state.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// reset returns the decoder to the hunting-for-SOF state, dropping any
// partial frame.
func (d *Decoder) reset() {
	d.state = stateInit
	d.typ = 0
	d.data = nil
}

// Feed consumes p and returns zero or more events. Every byte yields a
// deterministic transition; the decoder never blocks and never fails
// terminally. After any frame-layer error it resynchronizes on the next SOF.
func (d *Decoder) Feed(p []byte) []Event {
	var events []Event
	var noise []byte

	fail := func(err error) {
		events = append(events, Event{Kind: EventError, Err: err})
		d.reset()
	}

	for _, b := range p {
		switch d.state {
		case stateInit:
			if b != SOF {
				noise = append(noise, b)
				continue
			}
			if len(noise) > 0 {
				events = append(events, Event{Kind: EventNoise, Noise: noise})
				noise = nil
			}
			d.typ = 0
			d.data = nil
			d.state = stateAfterSOF

		case stateAfterSOF:
			d.typ = b
			d.state = stateInData

		case stateInData:
			switch b {
			case ESC:
				d.state = stateInEscape
			case EOF:
				if len(d.data)%2 == 1 {
					d.state = stateChecksum0
				} else {
					d.state = stateAwaitingSecondEOF
				}
			case SOF, 0x00, 0xFF:
				fail(fmt.Errorf("%w: 0x%02x", ErrInvalidDataByte, b))
			default:
				if len(d.data) >= MaxPayload {
					fail(fmt.Errorf("%w: exceeds %d bytes", ErrFrameTooLarge, MaxPayload))
					continue
				}
				d.data = append(d.data, b)
			}

		case stateInEscape:
			u, ok := unescaped(b)
			if !ok {
				fail(fmt.Errorf("%w: 0x%02x", ErrInvalidEscapeSequence, b))
				continue
			}
			if len(d.data) >= MaxPayload {
				fail(fmt.Errorf("%w: exceeds %d bytes", ErrFrameTooLarge, MaxPayload))
				continue
			}
			d.data = append(d.data, u)
			d.state = stateInData

		case stateAwaitingSecondEOF:
			if b != EOF {
				fail(fmt.Errorf("%w: got 0x%02x", ErrUnexpectedSecondEOF, b))
				continue
			}
			d.state = stateChecksum0

		case stateChecksum0, stateChecksum1, stateChecksum2, stateChecksum3:
			d.chk[d.state-stateChecksum0] = b
			if d.state != stateChecksum3 {
				d.state++
				continue
			}
			if ev := d.finish(); ev != nil {
				events = append(events, *ev)
			}
			d.reset()
		}
	}

	if len(noise) > 0 {
		events = append(events, Event{Kind: EventNoise, Noise: noise})
	}
	return events
}

// finish verifies the received checksum against the accumulated frame and
// produces the terminal event for it.
func (d *Decoder) finish() *Event {
	eofs := 2
	if len(d.data)%2 == 1 {
		eofs = 1
	}
	sumBuf := make([]byte, 0, 2+len(d.data)+eofs)
	sumBuf = append(sumBuf, SOF, d.typ)
	sumBuf = append(sumBuf, d.data...)
	for i := 0; i < eofs; i++ {
		sumBuf = append(sumBuf, EOF)
	}

	want := Checksum(sumBuf)
	got := string(d.chk[:])
	if got != want {
		return &Event{Kind: EventError, Err: fmt.Errorf("%w: want %q, got %q", ErrChecksumMismatch, want, got)}
	}

	payload := d.data
	if payload == nil {
		payload = []byte{}
	}
	return &Event{Kind: EventFrame, Frame: &Frame{Type: d.typ, Payload: payload}}
}
