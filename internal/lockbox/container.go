package lockbox

import (
	"crypto/aes"
	"encoding/binary"
	"fmt"
	"time"
)

// On-disk container layout, format version 1. All integers big-endian.
//
//	offset  size  field
//	0       4     magic "LBOX"
//	4       1     version
//	5       1     flags (bit0: hardened)
//	6       8     expiry, int64 unix seconds, UTC
//	14      16    salt
//	30      16    iv
//	46      4     shroud blob length L (0 unless hardened)
//	50      L     tlock-encrypted shroud key
//	50+L    32    tag, HMAC-SHA256 over bytes [0, 50+L) || ciphertext
//	82+L    ...   ciphertext (AES-256-CBC, PKCS#7 padded)
//
// The tag deliberately covers the whole header so that the version, flags,
// expiry, salt, iv and shroud blob are all authenticated, not just the
// ciphertext.

const (
	containerMagic = "LBOX"

	// ContainerVersion is the current on-disk format version.
	ContainerVersion = 1

	// IVSize matches the AES block size.
	IVSize = aes.BlockSize

	// TagSize is the HMAC-SHA256 output width.
	TagSize = 32

	flagHardened = 1 << 0

	headerFixedSize  = 4 + 1 + 1 + 8 + SaltSize + IVSize + 4
	minContainerSize = headerFixedSize + TagSize + aes.BlockSize
)

// Container is the parsed on-disk artifact. Immutable once sealed; Open never
// mutates it.
type Container struct {
	Version    byte
	Hardened   bool
	Expiry     time.Time
	Salt       []byte
	IV         []byte
	Shroud     []byte // tlock-encrypted shroud key, empty unless hardened
	Tag        []byte
	Ciphertext []byte
}

// EncodeContainer serializes a container to its on-disk form:
// header || tag || ciphertext.
func EncodeContainer(c Container) []byte {
	header := c.header()
	out := make([]byte, 0, len(header)+TagSize+len(c.Ciphertext))
	out = append(out, header...)
	out = append(out, c.Tag...)
	return append(out, c.Ciphertext...)
}

// header serializes the byte range [0, 50+L) of the layout above: the fixed
// fields followed by the shroud blob.
func (c Container) header() []byte {
	buf := make([]byte, 0, headerFixedSize+len(c.Shroud))
	buf = append(buf, containerMagic...)
	buf = append(buf, c.Version)
	var flags byte
	if c.Hardened {
		flags |= flagHardened
	}
	buf = append(buf, flags)
	buf = binary.BigEndian.AppendUint64(buf, uint64(c.Expiry.UTC().Unix()))
	buf = append(buf, c.Salt...)
	buf = append(buf, c.IV...)
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(c.Shroud)))
	return append(buf, c.Shroud...)
}

// TagInput returns the bytes the authentication tag must cover: the full
// header followed by the ciphertext, skipping the tag's own slot.
func (c Container) TagInput() []byte {
	header := c.header()
	msg := make([]byte, 0, len(header)+len(c.Ciphertext))
	msg = append(msg, header...)
	return append(msg, c.Ciphertext...)
}

// DecodeContainer parses and structurally validates a serialized container.
// It fails fast with ErrMalformedContainer before any cryptographic step and
// never acts on the expiry it parses.
func DecodeContainer(b []byte) (Container, error) {
	if len(b) < minContainerSize {
		return Container{}, fmt.Errorf("%w: %d bytes is too short", ErrMalformedContainer, len(b))
	}
	if string(b[0:4]) != containerMagic {
		return Container{}, fmt.Errorf("%w: bad magic", ErrMalformedContainer)
	}
	version := b[4]
	if version != ContainerVersion {
		return Container{}, fmt.Errorf("%w: unsupported version %d", ErrMalformedContainer, version)
	}
	flags := b[5]
	if flags&^flagHardened != 0 {
		return Container{}, fmt.Errorf("%w: unknown flag bits 0x%02x", ErrMalformedContainer, flags)
	}
	hardened := flags&flagHardened != 0

	expiry := time.Unix(int64(binary.BigEndian.Uint64(b[6:14])), 0).UTC()
	salt := b[14 : 14+SaltSize]
	iv := b[14+SaltSize : 14+SaltSize+IVSize]

	shroudLen := binary.BigEndian.Uint32(b[headerFixedSize-4 : headerFixedSize])
	rest := b[headerFixedSize:]
	if hardened == (shroudLen == 0) {
		return Container{}, fmt.Errorf("%w: hardened flag inconsistent with shroud length %d", ErrMalformedContainer, shroudLen)
	}
	if uint64(shroudLen) > uint64(len(rest)) {
		return Container{}, fmt.Errorf("%w: shroud length %d exceeds input", ErrMalformedContainer, shroudLen)
	}
	shroud := rest[:shroudLen]
	rest = rest[shroudLen:]

	if len(rest) < TagSize+aes.BlockSize {
		return Container{}, fmt.Errorf("%w: truncated after header", ErrMalformedContainer)
	}
	tag := rest[:TagSize]
	ciphertext := rest[TagSize:]
	if len(ciphertext)%aes.BlockSize != 0 {
		return Container{}, fmt.Errorf("%w: ciphertext length %d is not block aligned", ErrMalformedContainer, len(ciphertext))
	}

	return Container{
		Version:    version,
		Hardened:   hardened,
		Expiry:     expiry,
		Salt:       salt,
		IV:         iv,
		Shroud:     shroud,
		Tag:        tag,
		Ciphertext: ciphertext,
	}, nil
}
