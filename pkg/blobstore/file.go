package blobstore

import (
	"context"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/go-faster/errors"
)

var _ Store = (*File)(nil)
var _ Pinger = (*File)(nil)

// File is a Store backed by a directory, one file per key. Writes go through
// a temp file followed by rename so readers never observe a partial value.
type File struct {
	dir string

	// mu serializes writes to the same directory. Reads go straight to the
	// filesystem; rename makes them atomic with respect to writers.
	mu sync.Mutex
}

// NewFile returns a file-backed store rooted at dir, creating it if needed.
func NewFile(dir string) (*File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "create blob dir")
	}
	return &File{dir: dir}, nil
}

// Get returns the value stored under key, or ErrNotFound.
func (f *File) Get(_ context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(f.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrapf(err, "read blob %q", key)
	}
	return data, nil
}

// Set stores value under key.
func (f *File) Set(_ context.Context, key string, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	tmp, err := os.CreateTemp(f.dir, ".blob-*")
	if err != nil {
		return errors.Wrap(err, "create temp blob")
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(value); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return errors.Wrapf(err, "write blob %q", key)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return errors.Wrapf(err, "close blob %q", key)
	}

	if err := os.Rename(tmpName, f.path(key)); err != nil {
		_ = os.Remove(tmpName)
		return errors.Wrapf(err, "rename blob %q", key)
	}
	return nil
}

// Delete removes the value under key.
func (f *File) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(f.path(key)); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "delete blob %q", key)
	}
	return nil
}

// Ping verifies the backing directory still exists and is a directory.
func (f *File) Ping(_ context.Context) error {
	info, err := os.Stat(f.dir)
	if err != nil {
		return errors.Wrap(err, "stat blob dir")
	}
	if !info.IsDir() {
		return errors.Errorf("%s is not a directory", f.dir)
	}
	return nil
}

// path maps a key to a filename. Keys contain characters that are unsafe in
// filenames (":" separators), so anything outside [a-zA-Z0-9._-] is
// hex-escaped. The mapping is injective: escaped keys never collide.
func (f *File) path(key string) string {
	var b strings.Builder
	for i := 0; i < len(key); i++ {
		c := key[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9',
			c == '.', c == '_', c == '-':
			b.WriteByte(c)
		default:
			b.WriteByte('%')
			b.WriteString(hex.EncodeToString([]byte{c}))
		}
	}
	return filepath.Join(f.dir, b.String()+".json")
}
