package coreconf

import (
	"fmt"
	"strings"

	"github.com/cfgwire/cfgwire/internal/coap"
)

// DatastorePath is the device's CORECONF datastore resource.
const DatastorePath = "c"

// Request describes one configuration operation before encoding. Path is a
// "/"-joined resource path; empty means the datastore root. Body is the
// CBOR-encoded request body, or nil for body-less operations.
type Request struct {
	Op      Op
	Path    string
	Queries []string
	Body    []byte
}

// NewMessage validates req against the operation policy and builds the
// confirmable CoAP message for it. The caller supplies the message ID and
// token (session concerns, not policy concerns).
func NewMessage(req Request, messageID uint16, token []byte) (*coap.Message, error) {
	p, err := PolicyFor(req.Op)
	if err != nil {
		return nil, err
	}
	if p.RequiresBody && req.Body == nil {
		return nil, fmt.Errorf("%w: %s requires a body", ErrInvalidRequestShape, req.Op)
	}
	if !p.RequiresBody && req.Body != nil {
		return nil, fmt.Errorf("%w: %s does not take a body", ErrInvalidRequestShape, req.Op)
	}

	m := &coap.Message{
		Type:      coap.Confirmable,
		Code:      p.Code,
		MessageID: messageID,
		Token:     token,
		Payload:   req.Body,
	}

	path := DatastorePath
	if req.Path != "" {
		path = path + "/" + strings.Trim(req.Path, "/")
	}
	for _, seg := range strings.Split(path, "/") {
		if seg == "" {
			continue
		}
		m.Options = append(m.Options, coap.StringOption(coap.OptionUriPath, seg))
	}
	for _, q := range req.Queries {
		m.Options = append(m.Options, coap.StringOption(coap.OptionUriQuery, q))
	}
	if p.RequestFormat != FormatNone {
		m.Options = append(m.Options, coap.UintOption(coap.OptionContentFormat, uint32(p.RequestFormat)))
	}
	if p.ResponseAccept != FormatNone {
		m.Options = append(m.Options, coap.UintOption(coap.OptionAccept, uint32(p.ResponseAccept)))
	}
	return m, nil
}
