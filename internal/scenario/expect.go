package scenario

import (
	"fmt"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/roach88/querymatch/internal/compare"
	"github.com/roach88/querymatch/internal/value"
)

// Custom tags understood in expectations.
const (
	tagRegex = "!regex"
	tagDate  = "!date"

	keyRegex = "$regex"
	keyDate  = "$date"
)

// Expectation is a fixture expectation. It decodes tagged values into
// value shapes.
type Expectation map[string]any

// UnmarshalYAML implements yaml.Unmarshaler.
func (e *Expectation) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: expectation must be a mapping", node.Line)
	}

	out := make(Expectation, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		k, v := node.Content[i], node.Content[i+1]
		val, err := decodeValue(v)
		if err != nil {
			return fmt.Errorf("key %q: %w", k.Value, err)
		}
		out[k.Value] = val
	}
	*e = out
	return nil
}

// Compare converts e for the matchers.
func (e Expectation) Compare() compare.Expectation {
	if e == nil {
		return nil
	}
	return compare.Expectation(e)
}

func decodeValue(n *yaml.Node) (any, error) {
	switch n.Tag {
	case tagRegex:
		re, err := regexp.Compile(n.Value)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid pattern: %w", n.Line, err)
		}
		return value.Pattern{Re: re}, nil
	case tagDate:
		return value.Date, nil
	}

	if n.Kind == yaml.MappingNode && len(n.Content) == 2 {
		switch n.Content[0].Value {
		case keyRegex:
			re, err := regexp.Compile(n.Content[1].Value)
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid pattern: %w", n.Line, err)
			}
			return value.Pattern{Re: re}, nil
		case keyDate:
			var on bool
			if err := n.Content[1].Decode(&on); err != nil || !on {
				return nil, fmt.Errorf("line %d: %s must be true", n.Line, keyDate)
			}
			return value.Date, nil
		}
	}

	var v any
	if err := n.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}
