package publish

import (
	"context"
	"io"
	"os"
	"path/filepath"
)

// DiskStore publishes assets to a local directory, typically the static
// files root of the serving process.
type DiskStore struct {
	dir string
}

// NewDiskStore creates a DiskStore rooted at dir.
func NewDiskStore(dir string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &DiskStore{dir: dir}, nil
}

// Put implements Store. Content types are ignored; the serving process
// derives them from file extensions.
func (s *DiskStore) Put(ctx context.Context, key, contentType string, r io.Reader) error {
	dest := filepath.Join(s.dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return err
	}

	f, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
