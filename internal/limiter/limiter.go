// Package limiter windows result lists for --limit, --offset and --tail.
package limiter

import (
	"github.com/oakwood-commons/nodetree/pkg/nodeerrors"
)

// Config holds the record-limiting parameters.
type Config struct {
	Limit  int // Show only this many records (0 = unlimited)
	Offset int // Skip the first N records (0 = no skip)
	Tail   int // Show only the last N records (0 = disabled); mutually exclusive with Limit
}

// Validate checks for conflicting flag combinations.
// Limit and Tail are mutually exclusive, Offset is ignored when Tail is set,
// and every value must be non-negative.
func (c Config) Validate() error {
	for _, f := range []struct {
		flag string
		v    int
	}{{"--limit", c.Limit}, {"--offset", c.Offset}, {"--tail", c.Tail}} {
		if f.v < 0 {
			return nodeerrors.New(nodeerrors.KindArgument, "limiter", "", "%s must be non-negative, got %d", f.flag, f.v)
		}
	}
	if c.Limit > 0 && c.Tail > 0 {
		return nodeerrors.New(nodeerrors.KindArgument, "limiter", "", "--limit and --tail are mutually exclusive")
	}
	return nil
}

// IsActive returns true if any limiting is configured.
func (c Config) IsActive() bool {
	return c.Limit > 0 || c.Offset > 0 || c.Tail > 0
}

// Bounds returns the [start, end) window Config selects from n items.
func (c Config) Bounds(n int) (start, end int) {
	if c.Tail > 0 {
		return max(n-c.Tail, 0), n
	}
	start = min(c.Offset, n)
	end = n
	if c.Limit > 0 {
		end = min(start+c.Limit, n)
	}
	return start, end
}

// Apply returns the window of items selected by c. The result shares
// the backing array of items.
func Apply[T any](c Config, items []T) []T {
	if !c.IsActive() {
		return items
	}
	start, end := c.Bounds(len(items))
	return items[start:end]
}
