package timeauth

import (
	"context"
	"time"
)

// FakeAuthority is a deterministic time authority for testing. It allows
// control over the reported instant and failure simulation, and counts calls
// so tests can assert whether the time gate was consulted.
type FakeAuthority struct {
	// AuthorityName is the name returned by Name().
	AuthorityName string

	// Current is the instant returned by Now.
	Current time.Time

	// Err simulates query failures.
	Err error

	// Calls counts Now invocations.
	Calls int
}

func (f *FakeAuthority) Name() string {
	if f.AuthorityName == "" {
		return "fake"
	}
	return f.AuthorityName
}

func (f *FakeAuthority) Now(ctx context.Context) (time.Time, error) {
	f.Calls++
	if f.Err != nil {
		return time.Time{}, f.Err
	}
	return f.Current.UTC(), nil
}
