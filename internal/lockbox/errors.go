package lockbox

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrMalformedContainer reports structural corruption detected before any
	// cryptographic step runs: truncated input, bad magic, unknown version,
	// inconsistent field lengths.
	ErrMalformedContainer = errors.New("malformed container")

	// ErrIntegrity reports a failed authenticity check. Tag mismatch, invalid
	// padding, and an undecodable payload all collapse into this one value so
	// that tampering and a wrong password are indistinguishable to the caller.
	ErrIntegrity = errors.New("integrity check failed: file tampered or wrong password")

	// ErrTimeUnavailable reports that the trusted time authority could not be
	// reached or returned an unusable answer. Callers must treat this as fatal
	// and never fall back to the local clock.
	ErrTimeUnavailable = errors.New("trusted time unavailable")

	// ErrStillLocked is the sentinel matched by errors.Is for StillLockedError.
	ErrStillLocked = errors.New("still locked")
)

// StillLockedError is the normal denied-access outcome of opening a container
// before its expiry. It carries the trusted time and the expiry so the front
// end can report how long remains.
type StillLockedError struct {
	Now    time.Time
	Expiry time.Time
}

func (e *StillLockedError) Error() string {
	return fmt.Sprintf("still locked until %s (trusted time is %s)",
		e.Expiry.UTC().Format(time.RFC3339), e.Now.UTC().Format(time.RFC3339))
}

func (e *StillLockedError) Unwrap() error {
	return ErrStillLocked
}
