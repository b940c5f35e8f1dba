// Package lockbox implements the time-locked container protocol: a single
// file is encrypted under a password-derived key and cannot be opened before
// its expiry, as judged by a remote time authority rather than the local
// clock. Containers are immutable; Seal and Open are stateless, one-shot
// operations.
package lockbox

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/textandchord/lockbox/internal/timeauth"
)

// Seal encrypts a file into a container that stays locked until req.Expiry.
//
// The expiry need not be in the future here; enforcing that is the front
// end's business. Failures are limited to random-source exhaustion and, in
// hardened mode, the tlock round trip.
func Seal(ctx context.Context, req SealRequest, authority timeauth.Authority) ([]byte, error) {
	payload := EncodePayload(File{Name: req.Name, Ext: req.Ext, Content: req.Content})

	salt, err := randomBytes(SaltSize)
	if err != nil {
		return nil, err
	}
	keys, err := DeriveKeys(req.Password, salt)
	if err != nil {
		return nil, err
	}
	defer keys.Wipe()

	iv, err := randomBytes(IVSize)
	if err != nil {
		return nil, err
	}

	encKey := keys.Enc
	var shroudBlob []byte
	if req.Harden {
		tp := timeauth.FindTimelock(authority)
		if tp == nil {
			return nil, fmt.Errorf("hardened sealing requires the drand time authority")
		}

		round, err := tp.RoundAfter(ctx, req.Expiry)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrTimeUnavailable, err)
		}

		shroud, err := randomBytes(KeySize)
		if err != nil {
			return nil, err
		}
		shroudBlob, err = tp.Timebox().Encrypt(shroud, round)
		if err != nil {
			Wipe(shroud)
			return nil, fmt.Errorf("%w: %v", ErrTimeUnavailable, err)
		}

		encKey, err = MixShroudKey(keys.Enc, shroud)
		Wipe(shroud)
		if err != nil {
			return nil, err
		}
		defer Wipe(encKey)
	}

	ciphertext, err := encryptCBC(payload, encKey, iv)
	if err != nil {
		return nil, err
	}

	c := Container{
		Version:    ContainerVersion,
		Hardened:   req.Harden,
		Expiry:     req.Expiry,
		Salt:       salt,
		IV:         iv,
		Shroud:     shroudBlob,
		Ciphertext: ciphertext,
	}
	c.Tag = computeTag(keys.Mac, c.TagInput())

	return EncodeContainer(c), nil
}

// Open recovers the original file from a sealed container.
//
// The trusted-time gate runs before any key material is derived: a premature
// attempt observes only StillLockedError, never cryptographic work tied to
// the content. An unreachable authority aborts the operation; the local clock
// is never consulted.
//
// Tag mismatch, bad padding, and an undecodable payload are all reported as
// ErrIntegrity so that tampering and a wrong password cannot be told apart.
func Open(ctx context.Context, containerBytes []byte, password string, authority timeauth.Authority) (File, error) {
	c, err := DecodeContainer(containerBytes)
	if err != nil {
		return File{}, err
	}

	now, err := authority.Now(ctx)
	if err != nil {
		return File{}, fmt.Errorf("%w: %v", ErrTimeUnavailable, err)
	}
	if now.Before(c.Expiry) {
		return File{}, &StillLockedError{Now: now, Expiry: c.Expiry}
	}

	keys, err := DeriveKeys(password, c.Salt)
	if err != nil {
		return File{}, err
	}
	defer keys.Wipe()

	if !verifyTag(keys.Mac, c.TagInput(), c.Tag) {
		return File{}, ErrIntegrity
	}

	encKey := keys.Enc
	if c.Hardened {
		encKey, err = unshroudKey(authority, keys.Enc, c, now)
		if err != nil {
			return File{}, err
		}
		defer Wipe(encKey)
	}

	plaintext, err := decryptCBC(c.Ciphertext, encKey, c.IV)
	if err != nil {
		return File{}, ErrIntegrity
	}

	f, err := DecodePayload(plaintext)
	if err != nil {
		return File{}, ErrIntegrity
	}
	return f, nil
}

// unshroudKey recovers the tlock-wrapped shroud key of a hardened container
// and mixes it into the content key. A beacon round that has not been
// published yet means the container is still locked in the cryptographic
// sense, whatever the policy gate concluded.
func unshroudKey(authority timeauth.Authority, encKey []byte, c Container, now time.Time) ([]byte, error) {
	tp := timeauth.FindTimelock(authority)
	if tp == nil {
		return nil, fmt.Errorf("hardened container requires the drand time authority")
	}

	shroud, err := tp.Timebox().Decrypt(c.Shroud)
	if err != nil {
		if errors.Is(err, timeauth.ErrRoundNotReached) {
			return nil, &StillLockedError{Now: now, Expiry: c.Expiry}
		}
		return nil, fmt.Errorf("%w: %v", ErrTimeUnavailable, err)
	}
	defer Wipe(shroud)

	return MixShroudKey(encKey, shroud)
}

// Inspect reports a container's structural metadata without a password or a
// network round trip. The fields are unauthenticated until Open verifies the
// tag; treat them as advisory.
func Inspect(containerBytes []byte) (Info, error) {
	c, err := DecodeContainer(containerBytes)
	if err != nil {
		return Info{}, err
	}
	return Info{
		Expiry:        c.Expiry,
		Hardened:      c.Hardened,
		CiphertextLen: len(c.Ciphertext),
	}, nil
}
