package formatter

import (
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/oakwood-commons/nodetree/pkg/node"
)

// ListOptions controls list output formatting.
type ListOptions struct {
	NoColor bool
	// NoValues prints paths only.
	NoValues bool
	// MaxStringLen is max display width for values (0 = unlimited).
	MaxStringLen int
}

// FormatList renders one line per node: its path, padded to a common
// width, followed by its value.
func FormatList(nodes []*node.Node, opts ListOptions) string {
	if len(nodes) == 0 {
		return ""
	}
	pathWidth := 0
	for _, n := range nodes {
		if w := runewidth.StringWidth(n.Path()); w > pathWidth {
			pathWidth = w
		}
	}

	var b strings.Builder
	for _, n := range nodes {
		p := n.Path()
		if opts.NoValues {
			b.WriteString(styled(pathStyle.Render, p, opts.NoColor))
			b.WriteByte('\n')
			continue
		}
		padded := runewidth.FillRight(p, pathWidth)
		b.WriteString(styled(pathStyle.Render, padded, opts.NoColor))
		b.WriteString("  ")
		b.WriteString(styled(valueStyle.Render, truncate(Stringify(n.Value()), opts.MaxStringLen), opts.NoColor))
		b.WriteByte('\n')
	}
	return b.String()
}

func styled(render func(...string) string, s string, noColor bool) string {
	if noColor {
		return s
	}
	return render(s)
}
