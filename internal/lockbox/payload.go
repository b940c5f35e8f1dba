package lockbox

import (
	"encoding/binary"
	"fmt"
)

// The payload is the cleartext that gets encrypted: the original file's base
// name and extension, each uvarint-length-prefixed, followed by the raw
// content. Length prefixes keep the encoding injective for every input,
// including empty files and names containing any separator byte.

// EncodePayload serializes a File into the pre-encryption payload.
func EncodePayload(f File) []byte {
	buf := make([]byte, 0, 2*binary.MaxVarintLen64+len(f.Name)+len(f.Ext)+len(f.Content))
	buf = binary.AppendUvarint(buf, uint64(len(f.Name)))
	buf = append(buf, f.Name...)
	buf = binary.AppendUvarint(buf, uint64(len(f.Ext)))
	buf = append(buf, f.Ext...)
	buf = append(buf, f.Content...)
	return buf
}

// DecodePayload reverses EncodePayload. Any structural inconsistency means the
// plaintext is not a lockbox payload at all, which after a verified tag can
// only be an internal error; callers map it to ErrIntegrity regardless.
func DecodePayload(b []byte) (File, error) {
	name, rest, err := readString(b)
	if err != nil {
		return File{}, fmt.Errorf("payload: name: %w", err)
	}
	ext, content, err := readString(rest)
	if err != nil {
		return File{}, fmt.Errorf("payload: extension: %w", err)
	}
	return File{Name: name, Ext: ext, Content: content}, nil
}

func readString(b []byte) (string, []byte, error) {
	n, width := binary.Uvarint(b)
	if width <= 0 {
		return "", nil, fmt.Errorf("invalid length prefix")
	}
	b = b[width:]
	if n > uint64(len(b)) {
		return "", nil, fmt.Errorf("length %d exceeds remaining %d bytes", n, len(b))
	}
	return string(b[:n]), b[n:], nil
}
