package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/oakwood-commons/nodetree/pkg/core"
	"github.com/oakwood-commons/nodetree/pkg/settings"
)

// isPiped reports whether r is something other than an interactive terminal.
// Non-file readers (tests, buffers) count as piped.
func isPiped(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return true
	}
	stat, err := f.Stat()
	if err != nil {
		return false
	}
	return stat.Mode()&os.ModeCharDevice == 0
}

// colorEnabled is false when --no-color is set or w is not a terminal.
func colorEnabled(w io.Writer, noColor bool) bool {
	if noColor {
		return false
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func renderOptions(cmd *cobra.Command, run *settings.Run, opts *rootOptions) core.RenderOptions {
	return core.RenderOptions{
		NoColor:      !colorEnabled(cmd.OutOrStdout(), run.NoColor),
		NoValues:     opts.treeNoValues,
		MaxDepth:     opts.treeDepth,
		MaxStringLen: opts.maxString,
	}
}

func parseAttrFlags(flag string, values []string) ([]core.Attr, error) {
	attrs := make([]core.Attr, 0, len(values))
	for _, v := range values {
		a, err := core.ParseAttr(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", flag, err)
		}
		attrs = append(attrs, a)
	}
	return attrs, nil
}

// changedFlags lists the flags set on the command line, for debug logging.
func changedFlags(fs *pflag.FlagSet) []string {
	var out []string
	fs.Visit(func(f *pflag.Flag) {
		out = append(out, f.Name+"="+f.Value.String())
	})
	return out
}
