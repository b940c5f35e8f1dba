package lockbox

import (
	"bytes"
	"testing"
)

func testSalt(b byte) []byte {
	salt := make([]byte, SaltSize)
	for i := range salt {
		salt[i] = b
	}
	return salt
}

func TestDeriveKeys_Deterministic(t *testing.T) {
	salt := testSalt(0x01)

	k1, err := DeriveKeys("correct horse battery staple", salt)
	if err != nil {
		t.Fatalf("derive failed: %v", err)
	}
	k2, err := DeriveKeys("correct horse battery staple", salt)
	if err != nil {
		t.Fatalf("derive failed: %v", err)
	}

	if !bytes.Equal(k1.Enc, k2.Enc) || !bytes.Equal(k1.Mac, k2.Mac) {
		t.Error("same password and salt produced different keys")
	}
	if len(k1.Enc) != KeySize || len(k1.Mac) != KeySize {
		t.Errorf("key sizes: enc=%d mac=%d, want %d", len(k1.Enc), len(k1.Mac), KeySize)
	}
}

func TestDeriveKeys_RoleSeparation(t *testing.T) {
	keys, err := DeriveKeys("p", testSalt(0x02))
	if err != nil {
		t.Fatalf("derive failed: %v", err)
	}
	if bytes.Equal(keys.Enc, keys.Mac) {
		t.Error("encryption and MAC keys are identical")
	}
}

func TestDeriveKeys_DifferentInputs(t *testing.T) {
	base, err := DeriveKeys("password", testSalt(0x03))
	if err != nil {
		t.Fatalf("derive failed: %v", err)
	}

	testCases := []struct {
		name     string
		password string
		salt     []byte
	}{
		{"different password", "Password", testSalt(0x03)},
		{"different salt", "password", testSalt(0x04)},
		{"empty password", "", testSalt(0x03)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			other, err := DeriveKeys(tc.password, tc.salt)
			if err != nil {
				t.Fatalf("derive failed: %v", err)
			}
			if bytes.Equal(base.Enc, other.Enc) || bytes.Equal(base.Mac, other.Mac) {
				t.Error("expected unrelated keys, got a collision")
			}
		})
	}
}

func TestDeriveKeys_BadSalt(t *testing.T) {
	if _, err := DeriveKeys("p", []byte("short")); err == nil {
		t.Error("expected error for wrong salt length, got nil")
	}
}

func TestMixShroudKey(t *testing.T) {
	keys, err := DeriveKeys("p", testSalt(0x05))
	if err != nil {
		t.Fatalf("derive failed: %v", err)
	}

	shroud := testSalt(0x06)
	mixed1, err := MixShroudKey(keys.Enc, shroud)
	if err != nil {
		t.Fatalf("mix failed: %v", err)
	}
	mixed2, err := MixShroudKey(keys.Enc, shroud)
	if err != nil {
		t.Fatalf("mix failed: %v", err)
	}

	if !bytes.Equal(mixed1, mixed2) {
		t.Error("mixing is not deterministic")
	}
	if bytes.Equal(mixed1, keys.Enc) {
		t.Error("mixed key equals the base key")
	}

	other, err := MixShroudKey(keys.Enc, testSalt(0x07))
	if err != nil {
		t.Fatalf("mix failed: %v", err)
	}
	if bytes.Equal(mixed1, other) {
		t.Error("different shrouds produced the same key")
	}
}

func TestWipe(t *testing.T) {
	b := []byte{1, 2, 3}
	Wipe(b)
	for i, v := range b {
		if v != 0 {
			t.Errorf("byte %d not wiped: %d", i, v)
		}
	}
}
