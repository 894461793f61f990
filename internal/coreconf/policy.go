// Package coreconf implements the CORECONF operation policy: which CoAP
// method each configuration operation maps to, whether it carries a body,
// and which yang-data+cbor content formats it negotiates.
package coreconf

import (
	"errors"
	"fmt"

	"github.com/cfgwire/cfgwire/internal/coap"
)

// Op is a configuration-protocol operation.
type Op string

const (
	OpGet    Op = "get"
	OpFetch  Op = "fetch"
	OpIPatch Op = "ipatch"
	OpPost   Op = "post"
	OpPut    Op = "put"
	OpDelete Op = "delete"
)

// ErrInvalidRequestShape reports a body supplied where the operation
// forbids one, or missing where it is required. The mismatch is never
// silently corrected.
var ErrInvalidRequestShape = errors.New("invalid request shape")

// FormatNone marks an operation that attaches no Content-Format or Accept
// option.
const FormatNone = -1

// Policy describes one operation's wire requirements. RequestFormat and
// ResponseAccept are Content-Format registry values, or FormatNone.
type Policy struct {
	Code           coap.Code
	RequiresBody   bool
	RequestFormat  int
	ResponseAccept int
}

// The static operation table. GET and DELETE carry no body; FETCH sends
// identifiers and accepts instances; iPATCH/POST exchange instances; PUT
// exchanges whole datastore data.
var policies = map[Op]Policy{
	OpGet:    {Code: coap.CodeGet, RequiresBody: false, RequestFormat: FormatNone, ResponseAccept: int(coap.FormatYangInstances)},
	OpDelete: {Code: coap.CodeDelete, RequiresBody: false, RequestFormat: FormatNone, ResponseAccept: FormatNone},
	OpFetch:  {Code: coap.CodeFetch, RequiresBody: true, RequestFormat: int(coap.FormatYangIdentifiers), ResponseAccept: int(coap.FormatYangInstances)},
	OpIPatch: {Code: coap.CodeIPatch, RequiresBody: true, RequestFormat: int(coap.FormatYangInstances), ResponseAccept: int(coap.FormatYangInstances)},
	OpPost:   {Code: coap.CodePost, RequiresBody: true, RequestFormat: int(coap.FormatYangInstances), ResponseAccept: int(coap.FormatYangInstances)},
	OpPut:    {Code: coap.CodePut, RequiresBody: true, RequestFormat: int(coap.FormatYangData), ResponseAccept: int(coap.FormatYangData)},
}

// PolicyFor returns the policy entry for op.
func PolicyFor(op Op) (Policy, error) {
	p, ok := policies[op]
	if !ok {
		return Policy{}, fmt.Errorf("unknown operation %q", op)
	}
	return p, nil
}

// Ops lists the supported operations in a stable order.
func Ops() []Op {
	return []Op{OpGet, OpFetch, OpIPatch, OpPost, OpPut, OpDelete}
}
