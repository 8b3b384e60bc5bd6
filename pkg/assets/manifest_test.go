package assets

import (
	"os"
	"path/filepath"
	"testing"
)

func TestManifestResolve(t *testing.T) {
	m := NewManifest()
	m.Set("app.css", "app.abc123ef.css")
	m.Set("dashboard.css", "dashboard.def456ab.css")

	tests := []struct {
		name     string
		source   string
		expected string
	}{
		{"found entry", "app.css", "app.abc123ef.css"},
		{"found second entry", "dashboard.css", "dashboard.def456ab.css"},
		{"missing entry returns original", "unknown.css", "unknown.css"},
		{"empty string returns empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := m.Resolve(tt.source)
			if got != tt.expected {
				t.Errorf("Resolve(%q) = %q, want %q", tt.source, got, tt.expected)
			}
		})
	}
}

func TestManifestHas(t *testing.T) {
	m := NewManifest()
	m.Set("app.css", "app.abc123ef.css")

	if !m.Has("app.css") {
		t.Error("Has(app.css) = false, want true")
	}
	if m.Has("unknown.css") {
		t.Error("Has(unknown.css) = true, want false")
	}
}

func TestManifestLoadWriteRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "assets.json")

	m := NewManifest()
	m.Set("app.css", "app.abc123ef.css")
	m.Set("dashboard.css", "dashboard.def456ab.css")
	if err := m.Write(path); err != nil {
		t.Fatalf("Write() error: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if loaded.Len() != 2 {
		t.Errorf("Len() = %d, want 2", loaded.Len())
	}
	if got := loaded.Resolve("app.css"); got != "app.abc123ef.css" {
		t.Errorf("Resolve(app.css) = %q, want %q", got, "app.abc123ef.css")
	}
}

func TestManifestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if !os.IsNotExist(err) {
		t.Errorf("Load() error = %v, want not-exist", err)
	}
}

func TestResolverStylesheet(t *testing.T) {
	m := NewManifest()
	m.Set("app.css", "app.abc123ef.css")

	r := NewResolver(m, "/styles/")
	if got := r.Stylesheet("app.css"); got != "/styles/app.abc123ef.css" {
		t.Errorf("Stylesheet(app.css) = %q, want %q", got, "/styles/app.abc123ef.css")
	}
	if got := r.Stylesheet("other.css"); got != "/styles/other.css" {
		t.Errorf("Stylesheet(other.css) = %q, want %q", got, "/styles/other.css")
	}
}

func TestPassthroughResolver(t *testing.T) {
	r := NewPassthroughResolver("/styles/")
	if got := r.Stylesheet("app.css"); got != "/styles/app.css" {
		t.Errorf("Stylesheet(app.css) = %q, want %q", got, "/styles/app.css")
	}
}
