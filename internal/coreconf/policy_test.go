package coreconf

import (
	"errors"
	"testing"

	"github.com/cfgwire/cfgwire/internal/coap"
)

func TestPolicyTable(t *testing.T) {
	tests := []struct {
		op           Op
		code         coap.Code
		requiresBody bool
		reqFormat    int
		accept       int
	}{
		{OpGet, coap.CodeGet, false, FormatNone, 142},
		{OpDelete, coap.CodeDelete, false, FormatNone, FormatNone},
		{OpFetch, coap.CodeFetch, true, 141, 142},
		{OpIPatch, coap.CodeIPatch, true, 142, 142},
		{OpPost, coap.CodePost, true, 142, 142},
		{OpPut, coap.CodePut, true, 140, 140},
	}
	for _, tt := range tests {
		p, err := PolicyFor(tt.op)
		if err != nil {
			t.Fatalf("%s: %v", tt.op, err)
		}
		if p.Code != tt.code || p.RequiresBody != tt.requiresBody ||
			p.RequestFormat != tt.reqFormat || p.ResponseAccept != tt.accept {
			t.Errorf("%s: policy = %+v", tt.op, p)
		}
	}
}

func TestPolicyForUnknown(t *testing.T) {
	if _, err := PolicyFor(Op("head")); err == nil {
		t.Error("expected error for unknown operation")
	}
}

func TestNewMessageShapeValidation(t *testing.T) {
	// Body where forbidden.
	_, err := NewMessage(Request{Op: OpGet, Body: []byte{0xA0}}, 1, nil)
	if !errors.Is(err, ErrInvalidRequestShape) {
		t.Errorf("GET with body: err = %v, want ErrInvalidRequestShape", err)
	}

	// Body missing where required.
	_, err = NewMessage(Request{Op: OpFetch}, 1, nil)
	if !errors.Is(err, ErrInvalidRequestShape) {
		t.Errorf("FETCH without body: err = %v, want ErrInvalidRequestShape", err)
	}
}

func TestNewMessageGet(t *testing.T) {
	token := []byte{0x11, 0x22, 0x33, 0x44}
	m, err := NewMessage(Request{Op: OpGet, Path: "ietf-system:system/hostname"}, 0x1234, token)
	if err != nil {
		t.Fatal(err)
	}

	if m.Type != coap.Confirmable || m.Code != coap.CodeGet || m.MessageID != 0x1234 {
		t.Errorf("header = %v %v %#04x", m.Type, m.Code, m.MessageID)
	}
	if got := m.Path(); got != "c/ietf-system:system/hostname" {
		t.Errorf("Path = %q", got)
	}
	if _, ok := m.ContentFormat(); ok {
		t.Error("GET must not carry Content-Format")
	}
	if accept, ok := m.Accept(); !ok || accept != coap.FormatYangInstances {
		t.Errorf("Accept = %d, %v; want 142", accept, ok)
	}
	if m.Payload != nil {
		t.Errorf("Payload = % x, want none", m.Payload)
	}
}

func TestNewMessageFetch(t *testing.T) {
	body := []byte{0x81, 0x19, 0x07, 0x5B} // [1883]
	m, err := NewMessage(Request{Op: OpFetch, Queries: []string{"d=a"}, Body: body}, 7, []byte{0x01})
	if err != nil {
		t.Fatal(err)
	}

	if got := m.Path(); got != DatastorePath {
		t.Errorf("Path = %q, want %q", got, DatastorePath)
	}
	if qs := m.Queries(); len(qs) != 1 || qs[0] != "d=a" {
		t.Errorf("Queries = %v", qs)
	}
	if cf, ok := m.ContentFormat(); !ok || cf != coap.FormatYangIdentifiers {
		t.Errorf("ContentFormat = %d, %v; want 141", cf, ok)
	}
	if accept, ok := m.Accept(); !ok || accept != coap.FormatYangInstances {
		t.Errorf("Accept = %d, %v; want 142", accept, ok)
	}

	// The built message must survive the codec.
	wire, err := m.Encode()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := coap.Decode(wire); err != nil {
		t.Fatalf("round trip: %v", err)
	}
}
