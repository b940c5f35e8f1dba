package lockbox

import (
	"bytes"
	"crypto/aes"
	"errors"
	"testing"
)

func TestCBCRoundTrip(t *testing.T) {
	key := testSalt(0x11)
	key = append(key, testSalt(0x12)...) // 32 bytes
	iv := bytes.Repeat([]byte{0x13}, IVSize)

	testCases := []struct {
		name      string
		plaintext []byte
	}{
		{"empty", []byte{}},
		{"one byte", []byte{0x42}},
		{"exactly one block", bytes.Repeat([]byte{0x01}, aes.BlockSize)},
		{"one byte over a block", bytes.Repeat([]byte{0x02}, aes.BlockSize+1)},
		{"several blocks", bytes.Repeat([]byte{0x03}, 10*aes.BlockSize)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ct, err := encryptCBC(tc.plaintext, key, iv)
			if err != nil {
				t.Fatalf("encrypt failed: %v", err)
			}
			if len(ct)%aes.BlockSize != 0 || len(ct) == 0 {
				t.Errorf("ciphertext length %d is not a positive block multiple", len(ct))
			}
			// PKCS#7 always pads, so an exact-block plaintext grows a block.
			if len(ct) != (len(tc.plaintext)/aes.BlockSize+1)*aes.BlockSize {
				t.Errorf("unexpected ciphertext length %d for %d plaintext bytes", len(ct), len(tc.plaintext))
			}

			pt, err := decryptCBC(ct, key, iv)
			if err != nil {
				t.Fatalf("decrypt failed: %v", err)
			}
			if !bytes.Equal(pt, tc.plaintext) {
				t.Error("round trip mismatch")
			}
		})
	}
}

func TestDecryptCBC_WrongKeyIsOpaque(t *testing.T) {
	key := bytes.Repeat([]byte{0x21}, KeySize)
	wrong := bytes.Repeat([]byte{0x22}, KeySize)
	iv := bytes.Repeat([]byte{0x23}, IVSize)

	ct, err := encryptCBC([]byte("attack at dawn"), key, iv)
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}

	pt, err := decryptCBC(ct, wrong, iv)
	if err == nil {
		// Roughly 1 in 256 garbage decryptions end in valid one-byte padding;
		// with a fixed key and iv this case is deterministic either way, and
		// what matters is that no real plaintext comes back.
		if bytes.Equal(pt, []byte("attack at dawn")) {
			t.Error("wrong key recovered the plaintext")
		}
		return
	}
	if !errors.Is(err, ErrIntegrity) {
		t.Errorf("expected ErrIntegrity, got: %v", err)
	}
}

func TestUnpadPKCS7_Invalid(t *testing.T) {
	testCases := []struct {
		name  string
		input []byte
	}{
		{"empty", []byte{}},
		{"not block aligned", bytes.Repeat([]byte{0x01}, 5)},
		{"zero padding byte", append(bytes.Repeat([]byte{0x01}, 15), 0x00)},
		{"padding larger than block", append(bytes.Repeat([]byte{0x01}, 15), 0x20)},
		{"inconsistent padding bytes", append(bytes.Repeat([]byte{0x01}, 13), 0x02, 0x01, 0x03)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := unpadPKCS7(tc.input, aes.BlockSize); !errors.Is(err, ErrIntegrity) {
				t.Errorf("expected ErrIntegrity, got: %v", err)
			}
		})
	}
}

func TestVerifyTag(t *testing.T) {
	macKey := bytes.Repeat([]byte{0x31}, KeySize)
	msg := []byte("authenticated bytes")

	tag := computeTag(macKey, msg)
	if len(tag) != TagSize {
		t.Fatalf("tag size: got %d, want %d", len(tag), TagSize)
	}
	if !verifyTag(macKey, msg, tag) {
		t.Error("valid tag rejected")
	}

	flipped := bytes.Clone(tag)
	flipped[0] ^= 0x01
	if verifyTag(macKey, msg, flipped) {
		t.Error("corrupted tag accepted")
	}
	if verifyTag(macKey, append(msg, 'x'), tag) {
		t.Error("tag accepted for different message")
	}
	if verifyTag(bytes.Repeat([]byte{0x32}, KeySize), msg, tag) {
		t.Error("tag accepted under different key")
	}
}

func TestRandomBytes(t *testing.T) {
	a, err := randomBytes(IVSize)
	if err != nil {
		t.Fatalf("randomBytes failed: %v", err)
	}
	b, err := randomBytes(IVSize)
	if err != nil {
		t.Fatalf("randomBytes failed: %v", err)
	}
	if bytes.Equal(a, b) {
		t.Error("two random draws were identical")
	}
}
