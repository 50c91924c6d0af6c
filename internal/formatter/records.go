package formatter

import (
	"encoding/json"

	"github.com/oakwood-commons/nodetree/internal/cel"
	"github.com/oakwood-commons/nodetree/pkg/node"
)

// Record is the structured form of a node used by yaml and json output.
type Record struct {
	Path  string `json:"path" yaml:"path"`
	Name  string `json:"name,omitempty" yaml:"name,omitempty"`
	Depth int    `json:"depth" yaml:"depth"`
	Index int    `json:"index" yaml:"index"`
	Len   int    `json:"children" yaml:"children"`
	Value any    `json:"value" yaml:"value"`
}

// Records converts nodes to records, normalizing values to plain
// maps, slices and scalars.
func Records(nodes []*node.Node) []Record {
	out := make([]Record, 0, len(nodes))
	for _, n := range nodes {
		v, err := cel.Normalize(n.Value())
		if err != nil {
			v = Stringify(n.Value())
		}
		out = append(out, Record{
			Path:  n.Path(),
			Name:  n.Name(),
			Depth: n.Depth(),
			Index: n.Index(),
			Len:   n.Len(),
			Value: v,
		})
	}
	return out
}

// FormatJSON renders records as indented JSON.
func FormatJSON(records []Record) (string, error) {
	b, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b) + "\n", nil
}
