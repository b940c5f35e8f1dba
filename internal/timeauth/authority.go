// Package timeauth provides remote time authorities: sources of the current
// UTC instant that the local user cannot roll back by adjusting the system
// clock. Every query goes to the network; results are never cached across
// calls, so a stale "already expired" answer cannot be replayed.
package timeauth

import (
	"context"
	"time"
)

// DefaultTimeout bounds a single authority query when the caller's context
// carries no earlier deadline.
const DefaultTimeout = 10 * time.Second

// Authority is an external source of truth for the current time.
//
// Now must return a single absolute UTC instant with at least second
// precision, or an error. Callers treat any error as fatal for the operation
// in progress; falling back to the local clock defeats the whole point.
type Authority interface {
	// Name returns the identifier for this time authority.
	Name() string

	// Now queries the authority for the current time. The query is bounded by
	// the context deadline, or DefaultTimeout when the context has none.
	Now(ctx context.Context) (time.Time, error)
}

// queryTimeout resolves the effective timeout for one query.
func queryTimeout(ctx context.Context) time.Duration {
	if deadline, ok := ctx.Deadline(); ok {
		if d := time.Until(deadline); d < DefaultTimeout {
			return d
		}
	}
	return DefaultTimeout
}
