package lockbox

import (
	"fmt"
	"time"
)

const (
	// MaxInputSize caps the size of a file accepted for sealing.
	MaxInputSize = 10 * 1024 * 1024 // 10MB

	// ContainerExt is the conventional extension for sealed containers.
	ContainerExt = ".lb"
)

// File is the cleartext form of a sealed payload: the original file's base
// name, its extension without the leading dot, and its raw content.
type File struct {
	Name    string
	Ext     string
	Content []byte
}

// SealRequest carries everything Seal needs from the front end.
type SealRequest struct {
	Name     string
	Ext      string
	Content  []byte
	Expiry   time.Time
	Password string

	// Harden additionally time-lock encrypts the content key to the drand
	// round covering Expiry, so decryption before expiry is cryptographically
	// impossible rather than merely refused.
	Harden bool
}

// Info is the structural view of a container available without a password or
// a network round trip.
type Info struct {
	Expiry        time.Time
	Hardened      bool
	CiphertextLen int
}

// ParseExpiry parses and validates an expiry timestamp from the front end.
// Accepts only RFC3339 format. Rejects past timestamps; the container format
// itself carries any instant, but sealing something already expired is almost
// certainly a user mistake. Returns time normalized to UTC.
func ParseExpiry(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time format, expected RFC3339")
	}

	t = t.UTC()
	if !t.After(time.Now().UTC()) {
		return time.Time{}, fmt.Errorf("expiry must be in the future")
	}

	return t, nil
}
