package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// marshalBindings converts bound values to JSON TEXT for storage.
func marshalBindings(bindings []any) (string, error) {
	if len(bindings) == 0 {
		return "[]", nil
	}

	vals := make([]any, len(bindings))
	for i, b := range bindings {
		switch v := b.(type) {
		case []byte:
			vals[i] = string(v)
		case time.Time:
			vals[i] = v.Format(time.RFC3339Nano)
		default:
			vals[i] = v
		}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(vals); err != nil {
		return "", fmt.Errorf("marshal bindings: %w", err)
	}
	// Encoder adds a trailing newline, remove it
	return strings.TrimSpace(buf.String()), nil
}

// unmarshalBindings parses JSON TEXT back into bound values. Numbers are
// decoded as json.Number to avoid float64 precision loss.
func unmarshalBindings(data string) ([]any, error) {
	if data == "" || data == "[]" {
		return []any{}, nil
	}

	dec := json.NewDecoder(strings.NewReader(data))
	dec.UseNumber()

	var vals []any
	if err := dec.Decode(&vals); err != nil {
		return nil, fmt.Errorf("unmarshal bindings: %w", err)
	}
	return vals, nil
}
