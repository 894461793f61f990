package mup1

import (
	"bytes"
	"errors"
	"testing"
)

// ---------------------------------------------------------------------------
// Encoder wire vectors
// ---------------------------------------------------------------------------

func TestEncodeFrameOddPayload(t *testing.T) {
	got := EncodeFrame(0x43, []byte{0x41})
	want := []byte{0x3E, 0x43, 0x41, 0x3C, 0x38, 0x30, 0x38, 0x30} // >CA< "8080"
	if !bytes.Equal(got, want) {
		t.Errorf("EncodeFrame = % x, want % x", got, want)
	}
}

func TestEncodeFrameEvenPayload(t *testing.T) {
	got := EncodeFrame(0x43, []byte{0x41, 0x42})
	want := []byte{0x3E, 0x43, 0x41, 0x42, 0x3C, 0x3C, 0x34, 0x34, 0x33, 0x65} // >CAB<< "443e"
	if !bytes.Equal(got, want) {
		t.Errorf("EncodeFrame = % x, want % x", got, want)
	}
}

func TestEncodeFramePing(t *testing.T) {
	got := EncodeFrame(TypePing, nil)
	want := []byte(">p<<8553")
	if !bytes.Equal(got, want) {
		t.Errorf("EncodeFrame(ping) = %q, want %q", got, want)
	}
}

func TestEncodeFrameEscapesPayloadOnly(t *testing.T) {
	got := EncodeFrame('T', []byte{0x3E})
	// Escaped payload is two bytes on the wire, but the unescaped length (1,
	// odd) decides EOF arity and the checksum input.
	want := append([]byte{0x3E, 'T', 0x5C, 0x3E, 0x3C}, Checksum([]byte{0x3E, 'T', 0x3E, 0x3C})...)
	if !bytes.Equal(got, want) {
		t.Errorf("EncodeFrame = % x, want % x", got, want)
	}
}

// ---------------------------------------------------------------------------
// Decoder round trips
// ---------------------------------------------------------------------------

func frames(events []Event) []*Frame {
	var out []*Frame
	for _, ev := range events {
		if ev.Kind == EventFrame {
			out = append(out, ev.Frame)
		}
	}
	return out
}

func frameErrors(events []Event) []error {
	var out []error
	for _, ev := range events {
		if ev.Kind == EventError {
			out = append(out, ev.Err)
		}
	}
	return out
}

func TestDecodeRoundTrip(t *testing.T) {
	payloads := [][]byte{
		nil,
		{0x41},
		{0x41, 0x42},
		[]byte("hello device"),
		{0x00, 0x3E, 0x3C, 0x5C, 0xFF}, // every escape-table byte
		bytes.Repeat([]byte{0xAB}, MaxPayload),
	}
	for _, payload := range payloads {
		dec := NewDecoder()
		events := dec.Feed(EncodeFrame(TypeCoAP, payload))
		if errs := frameErrors(events); len(errs) > 0 {
			t.Fatalf("payload % x: unexpected errors %v", payload, errs)
		}
		got := frames(events)
		if len(got) != 1 {
			t.Fatalf("payload % x: got %d frames, want 1", payload, len(got))
		}
		if got[0].Type != TypeCoAP || !bytes.Equal(got[0].Payload, payload) {
			t.Errorf("payload % x: round trip gave type %c payload % x", payload, got[0].Type, got[0].Payload)
		}
	}
}

func TestDecodeByteAtATime(t *testing.T) {
	payload := []byte{0x00, 0x01, 0x3E, 0xFF}
	wire := EncodeFrame(TypeCoAP, payload)

	dec := NewDecoder()
	var got []*Frame
	for _, b := range wire {
		events := dec.Feed([]byte{b})
		if errs := frameErrors(events); len(errs) > 0 {
			t.Fatalf("unexpected errors %v", errs)
		}
		got = append(got, frames(events)...)
	}
	if len(got) != 1 {
		t.Fatalf("got %d frames, want 1", len(got))
	}
	if !bytes.Equal(got[0].Payload, payload) {
		t.Errorf("payload = % x, want % x", got[0].Payload, payload)
	}
}

func TestDecodeMultipleFramesOneChunk(t *testing.T) {
	var wire []byte
	wire = append(wire, EncodeFrame('T', []byte("boot"))...)
	wire = append(wire, EncodeFrame(TypeCoAP, []byte{0x41})...)
	wire = append(wire, EncodeFrame(TypePong, nil)...)

	got := frames(NewDecoder().Feed(wire))
	if len(got) != 3 {
		t.Fatalf("got %d frames, want 3", len(got))
	}
	if got[0].Type != 'T' || got[1].Type != TypeCoAP || got[2].Type != TypePong {
		t.Errorf("frame types = %c %c %c", got[0].Type, got[1].Type, got[2].Type)
	}
}

func TestDecodeNoiseBeforeFrame(t *testing.T) {
	wire := append([]byte("boot log gibberish\r\n"), EncodeFrame(TypeCoAP, []byte{0x41})...)
	events := NewDecoder().Feed(wire)

	if len(events) != 2 {
		t.Fatalf("got %d events, want noise + frame", len(events))
	}
	if events[0].Kind != EventNoise || !bytes.Equal(events[0].Noise, []byte("boot log gibberish\r\n")) {
		t.Errorf("first event = %+v, want the noise bytes", events[0])
	}
	if events[1].Kind != EventFrame {
		t.Errorf("second event kind = %v, want EventFrame", events[1].Kind)
	}
}

// ---------------------------------------------------------------------------
// Error recovery
// ---------------------------------------------------------------------------

func TestDecodeChecksumMismatchRecovers(t *testing.T) {
	bad := EncodeFrame(TypeCoAP, []byte{0x41})
	bad[len(bad)-1] ^= 0x01 // corrupt the checksum text

	dec := NewDecoder()
	events := dec.Feed(bad)
	if len(frames(events)) != 0 {
		t.Fatal("corrupted frame still produced a Frame")
	}
	errs := frameErrors(events)
	if len(errs) != 1 || !errors.Is(errs[0], ErrChecksumMismatch) {
		t.Fatalf("errors = %v, want one ErrChecksumMismatch", errs)
	}

	// The decoder must keep working on the next frame.
	got := frames(dec.Feed(EncodeFrame(TypeCoAP, []byte{0x42})))
	if len(got) != 1 || !bytes.Equal(got[0].Payload, []byte{0x42}) {
		t.Errorf("decoder unusable after checksum mismatch: %v", got)
	}
}

func TestDecodeOversizedFrameRecovers(t *testing.T) {
	dec := NewDecoder()
	events := dec.Feed(EncodeFrame(TypeCoAP, bytes.Repeat([]byte{0x41}, MaxPayload+1)))

	errs := frameErrors(events)
	if len(errs) == 0 || !errors.Is(errs[0], ErrFrameTooLarge) {
		t.Fatalf("errors = %v, want ErrFrameTooLarge first", errs)
	}
	if len(frames(events)) != 0 {
		t.Fatal("oversized frame still produced a Frame")
	}

	got := frames(dec.Feed(EncodeFrame(TypeCoAP, []byte{0x41})))
	if len(got) != 1 {
		t.Errorf("decoder unusable after oversized frame: %v", got)
	}
}

func TestDecodeInvalidDataByte(t *testing.T) {
	for _, raw := range []byte{0x3E, 0x00, 0xFF} {
		dec := NewDecoder()
		events := dec.Feed([]byte{SOF, TypeCoAP, 0x41, raw})
		errs := frameErrors(events)
		if len(errs) != 1 || !errors.Is(errs[0], ErrInvalidDataByte) {
			t.Errorf("raw 0x%02x: errors = %v, want ErrInvalidDataByte", raw, errs)
		}
	}
}

func TestDecodeInvalidEscape(t *testing.T) {
	dec := NewDecoder()
	events := dec.Feed([]byte{SOF, TypeCoAP, ESC, 'x'})
	errs := frameErrors(events)
	if len(errs) != 1 || !errors.Is(errs[0], ErrInvalidEscapeSequence) {
		t.Fatalf("errors = %v, want ErrInvalidEscapeSequence", errs)
	}
}

func TestDecodeUnexpectedSecondEOF(t *testing.T) {
	// Even-length payload (two bytes) ends with a single EOF followed by
	// something that is not the required second EOF.
	dec := NewDecoder()
	events := dec.Feed([]byte{SOF, TypeCoAP, 0x41, 0x42, EOF, 'x'})
	errs := frameErrors(events)
	if len(errs) != 1 || !errors.Is(errs[0], ErrUnexpectedSecondEOF) {
		t.Fatalf("errors = %v, want ErrUnexpectedSecondEOF", errs)
	}

	// Still usable afterwards.
	if got := frames(dec.Feed(EncodeFrame(TypeCoAP, []byte{0x41}))); len(got) != 1 {
		t.Errorf("decoder unusable after EOF mismatch: %v", got)
	}
}
