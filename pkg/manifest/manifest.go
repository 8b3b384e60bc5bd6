// Package manifest defines the flat build-time route manifest.
//
// The manifest is produced once by the build step (see internal/build) and is
// never mutated at runtime. It maps route ids to route records while keeping
// the document order of the underlying routes.json file, which downstream
// consumers (notably pkg/routetree) depend on for deterministic output.
package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Record describes a single route as emitted by the build step.
//
// ParentID references another record's ID; an empty ParentID marks a root
// route. Path is the URL segment pattern this route contributes, and may be
// empty for pathless layout routes and index routes.
type Record struct {
	ID               string   `json:"id"`
	Path             string   `json:"path,omitempty"`
	ParentID         string   `json:"parentId,omitempty"`
	Index            bool     `json:"index,omitempty"`
	CaseSensitive    bool     `json:"caseSensitive,omitempty"`
	HasLoader        bool     `json:"hasLoader"`
	HasAction        bool     `json:"hasAction"`
	HasCatchBoundary bool     `json:"hasCatchBoundary"`
	HasErrorBoundary bool     `json:"hasErrorBoundary"`
	Module           string   `json:"module"`
	Imports          []string `json:"imports,omitempty"`
}

// Manifest is an ordered mapping of route id to Record.
//
// Records iterate in insertion order, which for a loaded manifest is the
// document order of routes.json. The zero value is not usable; call New.
type Manifest struct {
	order []string
	index map[string]*Record
}

// New creates an empty manifest.
func New() *Manifest {
	return &Manifest{
		index: make(map[string]*Record),
	}
}

// Add appends a record to the manifest.
// A record whose ID is already present is rejected.
func (m *Manifest) Add(rec Record) error {
	if rec.ID == "" {
		return fmt.Errorf("manifest: record with empty id")
	}
	if _, ok := m.index[rec.ID]; ok {
		return fmt.Errorf("manifest: duplicate route id %q", rec.ID)
	}
	r := rec
	m.order = append(m.order, rec.ID)
	m.index[rec.ID] = &r
	return nil
}

// Get returns the record for the given id.
func (m *Manifest) Get(id string) (*Record, bool) {
	rec, ok := m.index[id]
	return rec, ok
}

// Len returns the number of records.
func (m *Manifest) Len() int {
	return len(m.order)
}

// Records returns all records in insertion order.
// The returned slice is freshly allocated; the records are shared.
func (m *Manifest) Records() []*Record {
	recs := make([]*Record, 0, len(m.order))
	for _, id := range m.order {
		recs = append(recs, m.index[id])
	}
	return recs
}

// IDs returns all route ids in insertion order.
func (m *Manifest) IDs() []string {
	ids := make([]string, len(m.order))
	copy(ids, m.order)
	return ids
}

// Validate checks structural invariants beyond id uniqueness (which Add and
// Parse already enforce): every non-empty ParentID must reference an existing
// record, and the ParentID relation must be acyclic.
func (m *Manifest) Validate() error {
	for _, id := range m.order {
		rec := m.index[id]
		if rec.ParentID == "" {
			continue
		}
		if _, ok := m.index[rec.ParentID]; !ok {
			return fmt.Errorf("manifest: route %q references unknown parent %q", id, rec.ParentID)
		}
	}

	// Walk each parent chain; a chain longer than the manifest is a cycle.
	for _, id := range m.order {
		seen := 0
		for cur := m.index[id]; cur.ParentID != ""; cur = m.index[cur.ParentID] {
			seen++
			if seen > len(m.order) {
				return fmt.Errorf("manifest: cycle in parent chain of route %q", id)
			}
		}
	}
	return nil
}

// Parse decodes a routes.json document.
//
// The document is a JSON object keyed by route id. Go's map decoding would
// discard key order, so Parse walks the token stream instead and preserves
// the document order of the entries. A key that disagrees with the record's
// own id, or a repeated key, is rejected.
func Parse(data []byte) (*Manifest, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("manifest: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("manifest: expected top-level object, got %v", tok)
	}

	m := New()
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("manifest: %w", err)
		}
		key := keyTok.(string)

		var rec Record
		if err := dec.Decode(&rec); err != nil {
			return nil, fmt.Errorf("manifest: route %q: %w", key, err)
		}
		if rec.ID == "" {
			rec.ID = key
		} else if rec.ID != key {
			return nil, fmt.Errorf("manifest: key %q does not match record id %q", key, rec.ID)
		}
		if err := m.Add(rec); err != nil {
			return nil, err
		}
	}

	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("manifest: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// Load reads and parses a routes.json file.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("manifest: reading %s: %w", path, err)
	}
	return Parse(data)
}

// WriteTo serializes the manifest as a routes.json document, preserving
// insertion order so that repeated builds of the same routes are
// byte-for-byte identical.
func (m *Manifest) WriteTo(w io.Writer) (int64, error) {
	var buf bytes.Buffer
	buf.WriteString("{\n")
	for i, id := range m.order {
		keyJSON, err := json.Marshal(id)
		if err != nil {
			return 0, err
		}
		recJSON, err := json.Marshal(m.index[id])
		if err != nil {
			return 0, err
		}
		buf.WriteString("  ")
		buf.Write(keyJSON)
		buf.WriteString(": ")
		buf.Write(recJSON)
		if i < len(m.order)-1 {
			buf.WriteByte(',')
		}
		buf.WriteByte('\n')
	}
	buf.WriteString("}\n")
	n, err := w.Write(buf.Bytes())
	return int64(n), err
}

// Write saves the manifest to a file.
func (m *Manifest) Write(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("manifest: writing %s: %w", path, err)
	}
	defer f.Close()
	if _, err := m.WriteTo(f); err != nil {
		return fmt.Errorf("manifest: writing %s: %w", path, err)
	}
	return f.Close()
}
