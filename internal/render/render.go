// Package render converts between the CBOR request/response payloads the
// device speaks and the YAML/JSON text an operator reads and writes. The
// protocol codecs treat payloads as opaque bytes; this is the structural
// layer on top.
package render

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fxamacker/cbor/v2"
	"gopkg.in/yaml.v3"
)

// Decode parses CBOR payload bytes into a generic document.
func Decode(payload []byte) (any, error) {
	var doc any
	if err := cbor.Unmarshal(payload, &doc); err != nil {
		return nil, fmt.Errorf("decoding cbor payload: %w", err)
	}
	return doc, nil
}

// Encode serializes a generic document to CBOR.
func Encode(doc any) ([]byte, error) {
	data, err := cbor.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encoding cbor payload: %w", err)
	}
	return data, nil
}

// ToYAML renders a decoded document as YAML.
func ToYAML(doc any) (string, error) {
	out, err := yaml.Marshal(stringifyKeys(doc))
	if err != nil {
		return "", fmt.Errorf("rendering yaml: %w", err)
	}
	return string(out), nil
}

// ToJSON renders a decoded document as indented JSON.
func ToJSON(doc any) (string, error) {
	out, err := json.MarshalIndent(stringifyKeys(doc), "", "  ")
	if err != nil {
		return "", fmt.Errorf("rendering json: %w", err)
	}
	return string(out), nil
}

// ParseBody turns operator-supplied body text into CBOR payload bytes.
// Accepted formats: "yaml", "json", "cbor-hex" (hex dump of raw CBOR,
// whitespace ignored).
func ParseBody(text []byte, format string) ([]byte, error) {
	switch format {
	case "yaml":
		var doc any
		if err := yaml.Unmarshal(text, &doc); err != nil {
			return nil, fmt.Errorf("parsing yaml body: %w", err)
		}
		return Encode(doc)
	case "json":
		var doc any
		if err := json.Unmarshal(text, &doc); err != nil {
			return nil, fmt.Errorf("parsing json body: %w", err)
		}
		return Encode(doc)
	case "cbor-hex":
		clean := strings.Map(func(r rune) rune {
			if r == ' ' || r == '\n' || r == '\t' || r == '\r' {
				return -1
			}
			return r
		}, string(text))
		raw, err := hex.DecodeString(clean)
		if err != nil {
			return nil, fmt.Errorf("parsing cbor-hex body: %w", err)
		}
		return raw, nil
	}
	return nil, fmt.Errorf("unknown body format %q (want yaml, json or cbor-hex)", format)
}

// stringifyKeys rewrites map keys to strings so the document survives both
// yaml and json marshalling. CBOR decodes maps as map[any]any, and YANG SID
// deltas arrive as integer keys.
func stringifyKeys(doc any) any {
	switch v := doc.(type) {
	case map[any]any:
		out := make(map[string]any, len(v))
		for k, val := range v {
			out[fmt.Sprint(k)] = stringifyKeys(val)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, val := range v {
			out[k] = stringifyKeys(val)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, val := range v {
			out[i] = stringifyKeys(val)
		}
		return out
	}
	return doc
}
