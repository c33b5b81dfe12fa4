// Package codec is the structured-document codec used for imports and for
// rendering proxy blocks. YAML is a superset of the JSON the documents use.
package codec

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultIndent is the indentation the target format is written with.
const DefaultIndent = 2

// Decode parses YAML or JSON text into plain Go values.
func Decode(text string) (any, error) {
	var out any
	if err := yaml.Unmarshal([]byte(text), &out); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return out, nil
}

// Encode renders v as block-style YAML with the given indentation.
func Encode(v any, indent int) (string, error) {
	if indent <= 0 {
		indent = DefaultIndent
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(indent)
	if err := enc.Encode(v); err != nil {
		return "", fmt.Errorf("encode document: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("encode document: %w", err)
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// Indent prefixes every non-empty line of text with pad.
func Indent(text, pad string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = pad + line
		}
	}
	return strings.Join(lines, "\n")
}
