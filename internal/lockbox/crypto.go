package lockbox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"
)

// encryptCBC encrypts the payload with AES-256-CBC and PKCS#7 padding.
func encryptCBC(plaintext, key, iv []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("cipher init: %w", err)
	}
	padded := padPKCS7(plaintext, aes.BlockSize)
	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out, padded)
	return out, nil
}

// decryptCBC reverses encryptCBC. Invalid padding comes back as ErrIntegrity;
// padding-specific detail is never surfaced.
func decryptCBC(ciphertext, key, iv []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("cipher init: %w", err)
	}
	if len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return nil, ErrIntegrity
	}
	padded := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(padded, ciphertext)
	return unpadPKCS7(padded, aes.BlockSize)
}

func padPKCS7(b []byte, blockSize int) []byte {
	n := blockSize - len(b)%blockSize
	padded := make([]byte, len(b)+n)
	copy(padded, b)
	for i := len(b); i < len(padded); i++ {
		padded[i] = byte(n)
	}
	return padded
}

func unpadPKCS7(b []byte, blockSize int) ([]byte, error) {
	if len(b) == 0 || len(b)%blockSize != 0 {
		return nil, ErrIntegrity
	}
	n := int(b[len(b)-1])
	if n == 0 || n > blockSize || n > len(b) {
		return nil, ErrIntegrity
	}
	for _, p := range b[len(b)-n:] {
		if int(p) != n {
			return nil, ErrIntegrity
		}
	}
	return b[:len(b)-n], nil
}

// computeTag produces the HMAC-SHA256 tag over the authenticated bytes.
func computeTag(macKey, msg []byte) []byte {
	h := hmac.New(sha256.New, macKey)
	h.Write(msg)
	return h.Sum(nil)
}

// verifyTag compares tags in constant time.
func verifyTag(macKey, msg, tag []byte) bool {
	return hmac.Equal(computeTag(macKey, msg), tag)
}

// randomBytes fills a fresh buffer from the system CSPRNG. Exhaustion of the
// random source is fatal to the sealing operation.
func randomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return nil, fmt.Errorf("random source: %w", err)
	}
	return b, nil
}
