// Package sanitize turns untrusted provider text into either a usable value
// or one of two well-defined errors. It never panics on odd input.
package sanitize

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMalformedOutput marks provider text that could not be parsed at all.
	// Callers may retry or fall back.
	ErrMalformedOutput = errors.New("malformed provider output")
	// ErrInvalidDocument marks a document that parsed but lacks its required
	// opening marker.
	ErrInvalidDocument = errors.New("invalid document")
)

// DefaultDocumentMarker is the opening marker every generated page must carry.
const DefaultDocumentMarker = "<!DOCTYPE"

const (
	fence      = "```"
	closingTag = "</html>"
)

// Enum constrains a field to a legal set. Values outside the set, including
// values that are not strings, are replaced with Fallback.
type Enum struct {
	Allowed  []string
	Fallback any
}

func (e Enum) allows(v any) bool {
	s, ok := v.(string)
	if !ok {
		return false
	}
	for _, a := range e.Allowed {
		if a == s {
			return true
		}
	}
	return false
}

// Schema describes the required fields of a provider object and the fields
// constrained to enumerated values.
type Schema struct {
	Defaults map[string]any
	Enums    map[string]Enum
}

// StripFences removes one optional leading and one optional trailing
// formatting fence, e.g. "```json" ... "```".
func StripFences(raw string) string {
	text := strings.TrimSpace(raw)
	if strings.HasPrefix(text, fence) {
		if idx := strings.IndexByte(text, '\n'); idx >= 0 {
			text = text[idx+1:]
		} else {
			text = strings.TrimLeft(strings.TrimPrefix(text, fence), languageTagChars)
		}
		text = strings.TrimSpace(text)
	}
	if strings.HasSuffix(text, fence) {
		text = strings.TrimSpace(strings.TrimSuffix(text, fence))
	}
	return text
}

const languageTagChars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789_-+"

// Object parses raw as a single JSON object and applies schema to it.
func Object(raw string, schema Schema) (map[string]any, error) {
	text := StripFences(raw)
	if text == "" {
		return nil, fmt.Errorf("%w: empty payload", ErrMalformedOutput)
	}
	var decoded any
	if err := json.Unmarshal([]byte(text), &decoded); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}
	obj, ok := decoded.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: payload is not an object", ErrMalformedOutput)
	}
	return Apply(obj, schema), nil
}

// Apply fills missing required fields with their defaults and replaces
// illegal enum values with the field fallback. obj is modified in place and
// returned; a nil obj yields a new map.
func Apply(obj map[string]any, schema Schema) map[string]any {
	if obj == nil {
		obj = make(map[string]any, len(schema.Defaults))
	}
	for field, def := range schema.Defaults {
		if _, ok := obj[field]; !ok {
			obj[field] = clone(def)
		}
	}
	for field, rule := range schema.Enums {
		if !rule.allows(obj[field]) {
			obj[field] = clone(rule.Fallback)
		}
	}
	return obj
}

// Document validates a generated page. Leading chatter before the marker and
// trailing text after the closing html tag are dropped.
func Document(raw, marker string) (string, error) {
	if marker == "" {
		marker = DefaultDocumentMarker
	}
	text := StripFences(raw)
	if text == "" {
		return "", fmt.Errorf("%w: empty document", ErrMalformedOutput)
	}
	start := indexFold(text, marker)
	if start < 0 {
		return "", fmt.Errorf("%w: missing %s", ErrInvalidDocument, marker)
	}
	text = text[start:]
	if end := lastIndexFold(text, closingTag); end >= 0 {
		text = text[:end+len(closingTag)]
	}
	return text, nil
}

// indexFold is a case-insensitive strings.Index for ASCII needles.
func indexFold(s, substr string) int {
	for i := 0; i+len(substr) <= len(s); i++ {
		if strings.EqualFold(s[i:i+len(substr)], substr) {
			return i
		}
	}
	return -1
}

func lastIndexFold(s, substr string) int {
	for i := len(s) - len(substr); i >= 0; i-- {
		if strings.EqualFold(s[i:i+len(substr)], substr) {
			return i
		}
	}
	return -1
}

func clone(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[k] = clone(item)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = clone(item)
		}
		return out
	default:
		return v
	}
}
