// Package cmd implements the nodetree command line.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/oakwood-commons/nodetree/internal/limiter"
	"github.com/oakwood-commons/nodetree/pkg/core"
	"github.com/oakwood-commons/nodetree/pkg/loader"
	"github.com/oakwood-commons/nodetree/pkg/logger"
	"github.com/oakwood-commons/nodetree/pkg/settings"
)

// errShowHelp is returned by readInput when there is no file and no piped stdin.
var errShowHelp = errors.New("no input provided")

// rootOptions holds the flag values of one invocation.
type rootOptions struct {
	path       string
	name       string
	attrs      []string
	valueAttrs []string
	where      string
	all        bool
	collect    bool
	output     string

	treeDepth    int
	treeNoValues bool
	maxString    int

	limit  int
	offset int
	tail   int

	nodeCap       int
	rootName      string
	decodeStrings bool

	noColor bool
	quiet   bool
	debug   bool
}

// NewRootCmd builds the nodetree command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   settings.CliBinaryName + " [file]",
		Short: "Load structured data as a tree of named nodes and search it",
		Long: `nodetree loads YAML, JSON, NDJSON or TOML into a tree where every map key
and list element is a node. Nodes can be searched by name, by node attributes
(depth, index, len, size, value), by fields of their value, or with a CEL
predicate over "_" = {name, value, depth, index, len, size, path, leaf}.`,
		Example: `  nodetree config.yaml
  nodetree config.yaml --name port --all -o list
  nodetree config.yaml --path services --value-attr kind=http --all
  kubectl get pods -o json | nodetree --where '_.leaf && _.name == "image"' --all
  nodetree config.yaml --collect --tail 5 -o json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			run := settings.NewCliParams()
			if opts.debug {
				run.MinLogLevel = -1
			}
			run.NoColor = opts.noColor
			run.IsQuiet = opts.quiet
			lgr := logger.Get(run.MinLogLevel)
			scoped := lgr.WithValues(logger.CommandKey, cmd.Name())
			ctx := logger.WithLogger(cmd.Context(), &scoped)
			cmd.SetContext(settings.IntoContext(ctx, run))
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			err := runRoot(cmd, args, opts)
			if errors.Is(err, errShowHelp) {
				return cmd.Help()
			}
			return err
		},
	}
	cmd.SetContext(context.Background())

	f := cmd.Flags()
	f.StringVar(&opts.path, "path", "", "start at the node at this slash-delimited path (e.g. services/[0]/env)")
	f.StringVar(&opts.name, "name", "", "search for nodes with this name")
	f.StringArrayVar(&opts.attrs, "attr", nil, "search by node attribute key=value (name, value, depth, index, len, size); repeatable")
	f.StringArrayVar(&opts.valueAttrs, "value-attr", nil, "search by a dotted path into the node value, key=value (e.g. owner.team=core); repeatable")
	f.StringVar(&opts.where, "where", "", "search with a CEL predicate over '_' (see 'nodetree functions')")
	f.BoolVar(&opts.all, "all", false, "return every match instead of the first")
	f.BoolVar(&opts.collect, "collect", false, "list every descendant of the start node")
	f.StringVarP(&opts.output, "output", "o", string(core.OutputTree), "output format: tree|list|yaml|json")
	f.IntVar(&opts.treeDepth, "tree-depth", 0, "limit tree depth (0 = unlimited)")
	f.BoolVar(&opts.treeNoValues, "tree-no-values", false, "show structure only (hide values)")
	f.IntVar(&opts.maxString, "max-string", 0, "truncate displayed values to this width (0 = unlimited)")
	f.IntVar(&opts.limit, "limit", 0, "show only this many results")
	f.IntVar(&opts.offset, "offset", 0, "skip the first N results")
	f.IntVar(&opts.tail, "tail", 0, "show the last N results (mutually exclusive with --limit; ignores --offset)")
	f.IntVar(&opts.nodeCap, "cap", 0, "fail when the loaded tree has more than this many nodes below the root (0 = unlimited)")
	f.StringVar(&opts.rootName, "root-name", "", "name for the root node")
	f.BoolVar(&opts.decodeStrings, "decode-strings", false, "expand string values that hold serialized YAML/JSON/TOML into subtrees")
	f.BoolVar(&opts.noColor, "no-color", false, "disable color output")
	f.BoolVarP(&opts.quiet, "quiet", "q", false, "do not report empty results on stderr")
	cmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "log debug output (JSON) to stderr")

	cmd.Version = cliVersionString()
	cmd.SetVersionTemplate("{{.Version}}\n")
	cmd.AddCommand(newVersionCmd(), newFunctionsCmd())
	return cmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

func runRoot(cmd *cobra.Command, args []string, opts *rootOptions) error {
	lgr := *logger.FromContext(cmd.Context())
	run := settings.FromContextOrDefault(cmd.Context())
	lgr.V(1).Info("flags", "set", changedFlags(cmd.Flags()))

	format, err := core.ParseOutputFormat(opts.output)
	if err != nil {
		return err
	}
	query, err := buildQuery(opts)
	if err != nil {
		return err
	}
	// fail on bad flags before reading input
	if err := query.Limit.Validate(); err != nil {
		return fmt.Errorf("record limiting: %w", err)
	}

	data, source, err := readInput(args, cmd.InOrStdin())
	if err != nil {
		return err
	}
	run.Input = settings.Input{FromStdin: len(args) == 0, Path: source}
	lgr.V(1).Info("read input", "source", source, "stdin", run.Input.FromStdin, "bytes", len(data))

	engine := core.New(
		core.WithLogger(lgr),
		core.WithBuildOptions(buildOptions(opts)...),
	)
	root, err := engine.Load(data)
	if err != nil {
		return fmt.Errorf("%s: %w", source, err)
	}

	res, err := engine.Run(root, query)
	if err != nil {
		return err
	}
	if res.Nodes != nil && len(res.Nodes) == 0 {
		if run.IsQuiet {
			return nil
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "no matching nodes (%d before limiting)\n", res.Total)
		return nil
	}

	out, err := engine.Render(res, format, renderOptions(cmd, run, opts))
	if err != nil {
		return err
	}
	_, err = io.WriteString(cmd.OutOrStdout(), out)
	return err
}

func buildQuery(opts *rootOptions) (core.Query, error) {
	q := core.Query{
		Path:    strings.TrimSpace(opts.path),
		Name:    opts.name,
		Where:   strings.TrimSpace(opts.where),
		All:     opts.all,
		Collect: opts.collect,
		Limit:   limiter.Config{Limit: opts.limit, Offset: opts.offset, Tail: opts.tail},
	}
	var err error
	if q.Attrs, err = parseAttrFlags("--attr", opts.attrs); err != nil {
		return core.Query{}, err
	}
	if q.ValueAttrs, err = parseAttrFlags("--value-attr", opts.valueAttrs); err != nil {
		return core.Query{}, err
	}
	return q, nil
}

func buildOptions(opts *rootOptions) []loader.BuildOption {
	var out []loader.BuildOption
	if opts.rootName != "" {
		out = append(out, loader.WithRootName(opts.rootName))
	}
	if opts.nodeCap > 0 {
		out = append(out, loader.WithNodeCap(opts.nodeCap))
	}
	if opts.decodeStrings {
		out = append(out, loader.WithDecodeStrings())
	}
	return out
}

// readInput returns the file contents, or stdin when no file is given and
// stdin is not a terminal.
func readInput(args []string, stdin io.Reader) ([]byte, string, error) {
	if len(args) == 1 {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return nil, "", err
		}
		return data, args[0], nil
	}
	if stdin == nil || !isPiped(stdin) {
		return nil, "", errShowHelp
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read from stdin: %w", err)
	}
	return data, "stdin", nil
}
