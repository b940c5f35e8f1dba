package lockbox

import (
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/hkdf"
)

const (
	// SaltSize is the per-container random salt for key derivation.
	SaltSize = 16

	// KeySize is the width of both derived keys (AES-256 and HMAC-SHA256).
	KeySize = 32
)

// Argon2id parameters, fixed for container format version 1.
const (
	argonTime    = 1
	argonMemory  = 64 * 1024 // KiB
	argonThreads = 4
)

// DerivedKeys holds the password-derived key pair. Never persisted; callers
// should Wipe it once the operation completes.
type DerivedKeys struct {
	Enc []byte // content encryption key
	Mac []byte // tag authentication key
}

// DeriveKeys stretches the password with argon2id and the per-container salt,
// then expands the result into two role-separated keys. Same password and salt
// always yield the same pair; the two keys are computationally unrelated.
func DeriveKeys(password string, salt []byte) (DerivedKeys, error) {
	if len(salt) != SaltSize {
		return DerivedKeys{}, fmt.Errorf("key derivation: salt must be %d bytes, got %d", SaltSize, len(salt))
	}

	master := argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, KeySize)

	enc, err := expandKey(master, "lockbox/v1/enc")
	if err != nil {
		return DerivedKeys{}, err
	}
	mac, err := expandKey(master, "lockbox/v1/mac")
	if err != nil {
		return DerivedKeys{}, err
	}

	Wipe(master)
	return DerivedKeys{Enc: enc, Mac: mac}, nil
}

// MixShroudKey binds the time-locked shroud key into the content key for
// hardened containers. The result replaces the plain encryption key.
func MixShroudKey(encKey, shroud []byte) ([]byte, error) {
	r := hkdf.New(sha256.New, encKey, shroud, []byte("lockbox/v1/enc+shroud"))
	mixed := make([]byte, KeySize)
	if _, err := io.ReadFull(r, mixed); err != nil {
		return nil, fmt.Errorf("key derivation: %w", err)
	}
	return mixed, nil
}

func expandKey(master []byte, info string) ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(hkdf.Expand(sha256.New, master, []byte(info)), key); err != nil {
		return nil, fmt.Errorf("key derivation: %w", err)
	}
	return key, nil
}

// Wipe overwrites key material in place.
func Wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// Wipe clears both keys.
func (k DerivedKeys) Wipe() {
	Wipe(k.Enc)
	Wipe(k.Mac)
}
