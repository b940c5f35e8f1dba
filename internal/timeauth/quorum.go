package timeauth

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
)

// QuorumAuthority queries several independent authorities and answers with
// the median of the instants it collects. A single compromised or skewed
// source cannot move the median past the honest majority.
type QuorumAuthority struct {
	Sources []Authority

	// MinOK is the minimum number of successful answers required. Fewer than
	// MinOK successes means the quorum as a whole is unavailable.
	MinOK int
}

// NewQuorumAuthority builds a quorum over the given sources, requiring all of
// them by default.
func NewQuorumAuthority(sources ...Authority) *QuorumAuthority {
	return &QuorumAuthority{Sources: sources, MinOK: len(sources)}
}

func (q *QuorumAuthority) Name() string {
	names := make([]string, len(q.Sources))
	for i, s := range q.Sources {
		names[i] = s.Name()
	}
	return "quorum(" + strings.Join(names, ",") + ")"
}

// Now queries every source in turn and returns the median answer. With an
// even number of answers the earlier of the two middle instants wins, so a
// tie never unlocks earlier than the honest sources would allow.
func (q *QuorumAuthority) Now(ctx context.Context) (time.Time, error) {
	if len(q.Sources) == 0 {
		return time.Time{}, fmt.Errorf("quorum has no sources")
	}

	var (
		answers []time.Time
		errs    []string
	)
	for _, src := range q.Sources {
		t, err := src.Now(ctx)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", src.Name(), err))
			continue
		}
		answers = append(answers, t)
	}

	minOK := q.MinOK
	if minOK <= 0 {
		minOK = len(q.Sources)
	}
	if len(answers) < minOK {
		return time.Time{}, fmt.Errorf("quorum not met: %d of %d sources answered (%s)",
			len(answers), len(q.Sources), strings.Join(errs, "; "))
	}

	sort.Slice(answers, func(i, j int) bool { return answers[i].Before(answers[j]) })
	return answers[(len(answers)-1)/2], nil
}
