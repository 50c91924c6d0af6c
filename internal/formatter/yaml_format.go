package formatter

import (
	"bytes"
	"strings"

	"gopkg.in/yaml.v3"
)

// YAMLOptions control YAML rendering.
type YAMLOptions struct {
	Indent int
	// LiteralBlockStrings emits multi-line strings as "|" blocks.
	LiteralBlockStrings bool
}

// FormatYAML renders records as a YAML sequence.
func FormatYAML(records []Record, opts YAMLOptions) (string, error) {
	var doc yaml.Node
	if err := doc.Encode(records); err != nil {
		return "", err
	}
	if opts.LiteralBlockStrings {
		literalStrings(&doc)
	}

	indent := opts.Indent
	if indent <= 0 {
		indent = 2
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(indent)
	if err := enc.Encode(&doc); err != nil {
		return "", err
	}
	if err := enc.Close(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func literalStrings(n *yaml.Node) {
	if n.Kind == yaml.ScalarNode && n.Tag == "!!str" && strings.Contains(n.Value, "\n") {
		n.Style = yaml.LiteralStyle
	}
	for _, c := range n.Content {
		literalStrings(c)
	}
}
