// Package assets provides resolution and prefetching of fingerprinted
// stylesheet assets.
//
// The build step fingerprints every stylesheet a route module imports and
// writes an assets.json mapping source names to their hashed versions:
//
//	{
//	  "dashboard.css": "dashboard.a1b2c3d4.css",
//	  "app.css": "app.e5f6g7h8.css"
//	}
//
// At navigation time the engine's style prefetcher resolves a module's
// imports through this manifest and warms the resolved URLs so the styles
// are in the HTTP cache before the view renders.
package assets

import (
	"encoding/json"
	"os"
	"sync"
)

// Manifest holds the mapping from source stylesheet names to fingerprinted
// names. It is safe for concurrent use.
type Manifest struct {
	entries map[string]string
	mu      sync.RWMutex
}

// NewManifest creates an empty manifest.
// Use Load to create a manifest from an assets.json file.
func NewManifest() *Manifest {
	return &Manifest{
		entries: make(map[string]string),
	}
}

// Load reads an assets.json file and returns a Manifest.
//
// In development, where fingerprinting is disabled, ignore the error and use
// NewPassthroughResolver instead.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var entries map[string]string
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}

	return &Manifest{entries: entries}, nil
}

// Resolve returns the fingerprinted name for the given source name.
// If not found, returns the source name unchanged.
func (m *Manifest) Resolve(source string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if resolved, ok := m.entries[source]; ok {
		return resolved
	}
	return source
}

// Has returns true if the manifest contains the given source name.
func (m *Manifest) Has(source string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.entries[source]
	return ok
}

// Set adds or updates an entry. Used by the build step while fingerprinting.
func (m *Manifest) Set(source, resolved string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[source] = resolved
}

// Len returns the number of entries in the manifest.
func (m *Manifest) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.entries)
}

// All returns a copy of all manifest entries.
func (m *Manifest) All() map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make(map[string]string, len(m.entries))
	for k, v := range m.entries {
		result[k] = v
	}
	return result
}

// Write saves the manifest as assets.json.
func (m *Manifest) Write(path string) error {
	m.mu.RLock()
	data, err := json.MarshalIndent(m.entries, "", "  ")
	m.mu.RUnlock()
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
