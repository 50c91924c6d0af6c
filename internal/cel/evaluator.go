// Package cel compiles CEL predicates over node views. Expressions see the
// node under test as "_"; the environment carries the strings, encoders,
// lists and math extensions.
package cel

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	celext "github.com/google/cel-go/ext"
)

// Subject is the variable name a predicate uses for the value it tests.
const Subject = "_"

// Evaluator holds a CEL environment shared by every predicate compiled from it.
type Evaluator struct {
	env *cel.Env
}

// NewEvaluator creates an evaluator. Extra options extend the standard
// environment, e.g. with custom functions.
func NewEvaluator(opts ...cel.EnvOption) (*Evaluator, error) {
	envOpts := append([]cel.EnvOption{
		cel.Variable(Subject, cel.DynType),
		celext.Strings(),
		celext.Encoders(),
		celext.Lists(),
		celext.Math(),
	}, opts...)
	env, err := cel.NewEnv(envOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}
	return &Evaluator{env: env}, nil
}

// Predicate is a boolean CEL expression compiled once and evaluated against
// many inputs.
type Predicate struct {
	expr string
	prg  cel.Program
}

// CompilePredicate parses and type-checks expr and prepares it for repeated
// evaluation. The expression must produce a bool (or dyn, checked per call).
func (e *Evaluator) CompilePredicate(expr string) (*Predicate, error) {
	if strings.TrimSpace(expr) == "" {
		return nil, errors.New("empty expression")
	}
	ast, issues := e.env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compilation error: %w", issues.Err())
	}
	if out := ast.OutputType(); !out.IsExactType(cel.BoolType) && !out.IsExactType(cel.DynType) {
		return nil, fmt.Errorf("expression %q yields %s, want bool", expr, typeLabel(out))
	}
	prg, err := e.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program error: %w", err)
	}
	return &Predicate{expr: expr, prg: prg}, nil
}

// String returns the source expression.
func (p *Predicate) String() string {
	return p.expr
}

// Match evaluates the predicate with data bound to "_". Evaluation errors and
// non-bool results count as no match.
func (p *Predicate) Match(data any) bool {
	result, _, err := p.prg.Eval(map[string]any{Subject: data})
	if err != nil {
		return false
	}
	b, ok := result.(types.Bool)
	return ok && bool(b)
}
