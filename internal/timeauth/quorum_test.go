package timeauth

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fakeAt(name string, t time.Time) *FakeAuthority {
	return &FakeAuthority{AuthorityName: name, Current: t}
}

func TestQuorumNow_Median(t *testing.T) {
	base := time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)

	testCases := []struct {
		name    string
		sources []Authority
		want    time.Time
	}{
		{
			"single source",
			[]Authority{fakeAt("a", base)},
			base,
		},
		{
			"odd count takes the middle",
			[]Authority{
				fakeAt("slow", base.Add(-time.Minute)),
				fakeAt("mid", base),
				fakeAt("fast", base.Add(time.Hour)),
			},
			base,
		},
		{
			"even count takes the earlier middle",
			[]Authority{
				fakeAt("a", base),
				fakeAt("b", base.Add(10*time.Second)),
			},
			base,
		},
		{
			"one outlier cannot move the median",
			[]Authority{
				fakeAt("honest1", base),
				fakeAt("attacker", base.Add(1000*time.Hour)),
				fakeAt("honest2", base.Add(time.Second)),
			},
			base.Add(time.Second),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := NewQuorumAuthority(tc.sources...).Now(context.Background())
			if err != nil {
				t.Fatalf("Now failed: %v", err)
			}
			if !got.Equal(tc.want) {
				t.Errorf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestQuorumNow_InsufficientSources(t *testing.T) {
	base := time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)
	down := &FakeAuthority{AuthorityName: "down", Err: errors.New("unreachable")}

	t.Run("all required by default", func(t *testing.T) {
		q := NewQuorumAuthority(fakeAt("up", base), down)
		if _, err := q.Now(context.Background()); err == nil {
			t.Error("expected error when one of two required sources fails")
		}
	})

	t.Run("relaxed minimum tolerates one failure", func(t *testing.T) {
		q := NewQuorumAuthority(fakeAt("up", base), down)
		q.MinOK = 1
		got, err := q.Now(context.Background())
		if err != nil {
			t.Fatalf("Now failed: %v", err)
		}
		if !got.Equal(base) {
			t.Errorf("got %v, want %v", got, base)
		}
	})

	t.Run("no sources", func(t *testing.T) {
		if _, err := (&QuorumAuthority{}).Now(context.Background()); err == nil {
			t.Error("expected error for empty quorum")
		}
	})
}

func TestQuorumName(t *testing.T) {
	q := NewQuorumAuthority(fakeAt("a", time.Time{}), fakeAt("b", time.Time{}))
	if q.Name() != "quorum(a,b)" {
		t.Errorf("got %q, want %q", q.Name(), "quorum(a,b)")
	}
}
