package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/oakwood-commons/nodetree/internal/cel"
)

func newFunctionsCmd() *cobra.Command {
	var namesOnly bool
	cmd := &cobra.Command{
		Use:   "functions [filter]",
		Short: "List CEL functions available to --where",
		Long: `List the CEL functions and macros available to --where, one usage line per
overload. The optional filter keeps lines containing it.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eval, err := cel.NewEvaluator()
			if err != nil {
				return err
			}
			lines := eval.FunctionDocs()
			if namesOnly {
				lines = eval.FunctionNames()
			}
			filter := ""
			if len(args) == 1 {
				filter = args[0]
			}
			w := cmd.OutOrStdout()
			for _, line := range lines {
				if filter != "" && !strings.Contains(line, filter) {
					continue
				}
				if _, err := fmt.Fprintln(w, line); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&namesOnly, "names", false, "print function names only")
	return cmd
}
