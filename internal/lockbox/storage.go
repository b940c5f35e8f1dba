package lockbox

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ReadInput reads the file to be sealed, enforcing the size cap. Empty files
// are legal; a sealed zero-byte file round-trips like any other.
func ReadInput(path string) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("cannot stat file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	if info.Size() > MaxInputSize {
		return nil, fmt.Errorf("input exceeds maximum size of %d bytes", MaxInputSize)
	}

	data, err := io.ReadAll(io.LimitReader(file, MaxInputSize+1))
	if err != nil {
		return nil, fmt.Errorf("cannot read file: %w", err)
	}
	if len(data) > MaxInputSize {
		return nil, fmt.Errorf("input exceeds maximum size of %d bytes", MaxInputSize)
	}
	return data, nil
}

// WriteFileAtomic writes data through a uniquely named temp file in the
// destination directory and renames it into place, so a crash mid-write never
// leaves a partial file that could pass for a valid container. The temp file
// is removed on every failure path.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	tmpPath := filepath.Join(filepath.Dir(path), "."+filepath.Base(path)+"."+uuid.NewString()+".tmp")

	f, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
	if err != nil {
		return fmt.Errorf("cannot create temp file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("cannot write %s: %w", path, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("cannot sync %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("cannot close %s: %w", path, err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("cannot finalize %s: %w", path, err)
	}
	return nil
}

// SplitSourceName breaks a source path into the (name, ext) pair stored in
// the payload: base name without extension, extension without the dot.
func SplitSourceName(path string) (name, ext string) {
	base := filepath.Base(path)
	e := filepath.Ext(base)
	return strings.TrimSuffix(base, e), strings.TrimPrefix(e, ".")
}

// ContainerName derives the default output path for a sealed container:
// the source base name with the .lb extension, in dir.
func ContainerName(dir, sourcePath string) string {
	name, _ := SplitSourceName(sourcePath)
	return filepath.Join(dir, name+ContainerExt)
}

// DecryptedName derives the default output path for an opened file:
// <name>_decrypted.<ext>, dropping the dot when the extension is empty.
func DecryptedName(dir string, f File) string {
	if f.Ext == "" {
		return filepath.Join(dir, f.Name+"_decrypted")
	}
	return filepath.Join(dir, f.Name+"_decrypted."+f.Ext)
}

// ResolveContainerPath appends the .lb extension unless the path already
// carries it, matching how sealed files are named.
func ResolveContainerPath(path string) (string, error) {
	if path == "" {
		return "", errors.New("container path cannot be empty")
	}
	if strings.EqualFold(filepath.Ext(path), ContainerExt) {
		return path, nil
	}
	return path + ContainerExt, nil
}
