// Package core is the library facade tying loading, searching, limiting and
// rendering of node trees together. The CLI is a thin layer over Engine.
package core

import (
	"fmt"
	"strings"

	"github.com/go-logr/logr"
	"gopkg.in/yaml.v3"

	"github.com/oakwood-commons/nodetree/internal/formatter"
	"github.com/oakwood-commons/nodetree/internal/limiter"
	"github.com/oakwood-commons/nodetree/pkg/loader"
	"github.com/oakwood-commons/nodetree/pkg/node"
	"github.com/oakwood-commons/nodetree/pkg/nodeerrors"
)

// OutputFormat selects how results are rendered.
type OutputFormat string

const (
	OutputTree OutputFormat = "tree"
	OutputList OutputFormat = "list"
	OutputYAML OutputFormat = "yaml"
	OutputJSON OutputFormat = "json"
)

// OutputFormats lists the accepted output formats.
var OutputFormats = []OutputFormat{OutputTree, OutputList, OutputYAML, OutputJSON}

// ParseOutputFormat validates s as an OutputFormat.
func ParseOutputFormat(s string) (OutputFormat, error) {
	for _, f := range OutputFormats {
		if string(f) == strings.ToLower(s) {
			return f, nil
		}
	}
	return "", nodeerrors.New(nodeerrors.KindArgument, "output", "", "unknown output format %q (want tree, list, yaml or json)", s)
}

// RenderOptions controls rendering.
type RenderOptions struct {
	NoColor      bool
	NoValues     bool
	MaxDepth     int
	MaxStringLen int
}

// Formatter renders nodes.
type Formatter interface {
	Tree(n *node.Node, opts RenderOptions) string
	List(nodes []*node.Node, opts RenderOptions) string
	Structured(nodes []*node.Node, format OutputFormat) (string, error)
}

// Engine loads data into trees and runs queries against them.
type Engine struct {
	Logger       logr.Logger
	Formatter    Formatter
	BuildOptions []loader.BuildOption
}

// Option configures the Engine.
type Option func(*Engine)

// WithLogger sets the logger. Engine logs at V(1) only.
func WithLogger(lgr logr.Logger) Option {
	return func(e *Engine) {
		e.Logger = lgr
	}
}

// WithFormatter sets a custom formatter.
func WithFormatter(f Formatter) Option {
	return func(e *Engine) {
		e.Formatter = f
	}
}

// WithBuildOptions sets options passed to loader.BuildTree.
func WithBuildOptions(opts ...loader.BuildOption) Option {
	return func(e *Engine) {
		e.BuildOptions = append(e.BuildOptions, opts...)
	}
}

// New creates an Engine with defaults.
func New(opts ...Option) *Engine {
	engine := &Engine{Logger: logr.Discard()}
	for _, opt := range opts {
		opt(engine)
	}
	if engine.Formatter == nil {
		engine.Formatter = defaultFormatter{}
	}
	return engine
}

// Load parses input (any format loader.LoadData accepts) into a tree.
func (e *Engine) Load(input []byte) (*node.Node, error) {
	data, err := loader.LoadRootWithLogger(string(input), e.Logger)
	if err != nil {
		return nil, err
	}
	return e.build(data)
}

// LoadFile reads and parses a file into a tree.
func (e *Engine) LoadFile(path string) (*node.Node, error) {
	data, err := loader.LoadFileWithLogger(path, e.Logger)
	if err != nil {
		return nil, err
	}
	return e.build(data)
}

func (e *Engine) build(data any) (*node.Node, error) {
	root, err := loader.BuildTree(data, e.BuildOptions...)
	if err != nil {
		return nil, err
	}
	e.Logger.V(1).Info("built tree", "nodes", root.Size()+1, "children", root.Len())
	return root, nil
}

// Attr is one key=value search criterion. Raw keeps the text as given.
type Attr struct {
	Key   string
	Raw   string
	Value any
}

// ParseAttr parses "key=value". The value is read as a YAML scalar so
// "80" is a number and "true" a bool; quote it to force a string.
func ParseAttr(s string) (Attr, error) {
	key, raw, ok := strings.Cut(s, "=")
	key = strings.TrimSpace(key)
	if !ok || key == "" {
		return Attr{}, nodeerrors.New(nodeerrors.KindArgument, "ParseAttr", "", "expected key=value, got %q", s)
	}
	var value any
	if err := yaml.Unmarshal([]byte(raw), &value); err != nil {
		value = raw
	}
	if _, isContainer := value.(map[string]any); isContainer {
		value = raw
	}
	if _, isContainer := value.([]any); isContainer {
		value = raw
	}
	return Attr{Key: key, Raw: raw, Value: value}, nil
}

// Query describes one run against a tree.
type Query struct {
	// Path selects the start node (see node.Lookup). Empty means the root.
	Path       string
	Name       string
	Attrs      []Attr
	ValueAttrs []Attr
	Where      string
	// All returns every match instead of the first.
	All bool
	// Collect returns every descendant of the start node.
	Collect bool
	Limit   limiter.Config
}

// HasCriteria reports whether q searches.
func (q Query) HasCriteria() bool {
	return q.Name != "" || len(q.Attrs) > 0 || len(q.ValueAttrs) > 0 || q.Where != ""
}

// SearchOptions converts the criteria of q to node search options.
func (q Query) SearchOptions() []node.SearchOption {
	var opts []node.SearchOption
	if q.Name != "" {
		opts = append(opts, node.ByName(q.Name))
	}
	for _, a := range q.Attrs {
		v := a.Value
		if a.Key == node.AttrName {
			v = a.Raw
		}
		opts = append(opts, node.ByAttr(a.Key, v))
	}
	for _, a := range q.ValueAttrs {
		opts = append(opts, node.ByValueAttr(a.Key, a.Value))
	}
	if q.Where != "" {
		opts = append(opts, node.ByExpr(q.Where))
	}
	return opts
}

// Result is the outcome of Run.
type Result struct {
	// Start is the node the query ran from.
	Start *node.Node
	// Nodes holds matches or collected nodes. Nil when the query neither
	// searched nor collected.
	Nodes []*node.Node
	// Total is len(Nodes) before limiting.
	Total int
}

// Run executes q against root.
func (e *Engine) Run(root *node.Node, q Query) (Result, error) {
	if err := q.Limit.Validate(); err != nil {
		return Result{}, err
	}
	if q.Collect && q.HasCriteria() {
		return Result{}, nodeerrors.New(nodeerrors.KindArgument, "Run", "", "--collect cannot be combined with search criteria")
	}

	start := root
	if q.Path != "" {
		n, ok := root.Lookup(q.Path)
		if !ok {
			return Result{}, nodeerrors.New(nodeerrors.KindArgument, "Run", root.Path(), "no node at path %q", q.Path)
		}
		start = n
	}
	res := Result{Start: start}

	switch {
	case q.HasCriteria() && q.All:
		matches, err := start.SearchAll(q.SearchOptions()...)
		if err != nil {
			return Result{}, err
		}
		res.Nodes = matches
	case q.HasCriteria():
		match, err := start.SearchFor(q.SearchOptions()...)
		if err != nil {
			return Result{}, err
		}
		res.Nodes = []*node.Node{}
		if match != nil {
			res.Nodes = append(res.Nodes, match)
		}
	case q.Collect:
		res.Nodes = start.Collect()
	default:
		return res, nil
	}

	res.Total = len(res.Nodes)
	res.Nodes = limiter.Apply(q.Limit, res.Nodes)
	e.Logger.V(1).Info("query complete", "start", start.Path(), "matches", res.Total, "shown", len(res.Nodes))
	return res, nil
}

// Render formats res. Without search or collect results the tree below
// Start is rendered; tree output of results renders each node's subtree.
func (e *Engine) Render(res Result, format OutputFormat, opts RenderOptions) (string, error) {
	if res.Start == nil {
		return "", nodeerrors.New(nodeerrors.KindArgument, "Render", "", "result has no start node")
	}
	nodes := res.Nodes
	if nodes == nil {
		nodes = []*node.Node{res.Start}
	}

	switch format {
	case OutputTree, "":
		var sb strings.Builder
		for _, n := range nodes {
			sb.WriteString(e.Formatter.Tree(n, opts))
		}
		return sb.String(), nil
	case OutputList:
		if res.Nodes == nil {
			nodes = append([]*node.Node{res.Start}, res.Start.Collect()...)
		}
		return e.Formatter.List(nodes, opts), nil
	case OutputYAML, OutputJSON:
		return e.Formatter.Structured(nodes, format)
	default:
		return "", fmt.Errorf("render: %w", nodeerrors.New(nodeerrors.KindArgument, "Render", "", "unknown output format %q", format))
	}
}

type defaultFormatter struct{}

func (defaultFormatter) Tree(n *node.Node, opts RenderOptions) string {
	return formatter.FormatTree(n, formatter.TreeOptions{
		NoValues:     opts.NoValues,
		MaxDepth:     opts.MaxDepth,
		MaxStringLen: opts.MaxStringLen,
	})
}

func (defaultFormatter) List(nodes []*node.Node, opts RenderOptions) string {
	return formatter.FormatList(nodes, formatter.ListOptions{
		NoColor:      opts.NoColor,
		NoValues:     opts.NoValues,
		MaxStringLen: opts.MaxStringLen,
	})
}

func (defaultFormatter) Structured(nodes []*node.Node, format OutputFormat) (string, error) {
	records := formatter.Records(nodes)
	if format == OutputJSON {
		return formatter.FormatJSON(records)
	}
	return formatter.FormatYAML(records, formatter.YAMLOptions{LiteralBlockStrings: true})
}
