package timeauth

import (
	"context"
	"time"
)

// TimelockProvider is implemented by authorities that can time-lock key
// material to a future instant, in addition to reporting the current time.
type TimelockProvider interface {
	// Timebox returns the tlock implementation used to wrap and unwrap keys.
	Timebox() TimelockBox

	// RoundAfter maps an instant to the first beacon round at or after it.
	RoundAfter(ctx context.Context, t time.Time) (uint64, error)
}

// FindTimelock locates a timelock-capable authority within a, descending into
// quorum sources. Returns nil when none is available.
func FindTimelock(a Authority) TimelockProvider {
	if tp, ok := a.(TimelockProvider); ok {
		return tp
	}
	if q, ok := a.(*QuorumAuthority); ok {
		for _, src := range q.Sources {
			if tp := FindTimelock(src); tp != nil {
				return tp
			}
		}
	}
	return nil
}
