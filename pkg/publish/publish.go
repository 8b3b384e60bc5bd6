// Package publish pushes built assets (fingerprinted stylesheets, the routes
// manifest) to the origin they are served from.
//
// Two stores are provided: DiskStore for serving from a local static
// directory, and S3Store for a CDN-backed origin.
package publish

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"os"
	"path"
	"path/filepath"
)

// Store is the interface for asset publication backends.
type Store interface {
	// Put writes one asset under the given key.
	Put(ctx context.Context, key, contentType string, r io.Reader) error
}

// Dir publishes every regular file under dir to the store, keyed by its
// path relative to dir. Content types are derived from file extensions.
func Dir(ctx context.Context, store Store, dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)

		f, err := os.Open(p)
		if err != nil {
			return err
		}
		defer f.Close()

		contentType := mime.TypeByExtension(path.Ext(key))
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		if err := store.Put(ctx, key, contentType, f); err != nil {
			return fmt.Errorf("publish: %s: %w", key, err)
		}
		return nil
	})
}
