package settings

import (
	"context"
)

type runKey struct{}

// IntoContext attaches per-run settings to ctx.
func IntoContext(ctx context.Context, s *Run) context.Context {
	return context.WithValue(ctx, runKey{}, s)
}

// FromContext returns the run settings stored in ctx, if any.
func FromContext(ctx context.Context) (*Run, bool) {
	s, ok := ctx.Value(runKey{}).(*Run)
	return s, ok && s != nil
}

// FromContextOrDefault returns the stored run settings, or fresh defaults
// when the command was invoked without them (library callers, tests).
func FromContextOrDefault(ctx context.Context) *Run {
	if s, ok := FromContext(ctx); ok {
		return s
	}
	return NewCliParams()
}
