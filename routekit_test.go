package routekit

import (
	"context"
	"testing"

	"github.com/routekit-dev/routekit/pkg/manifest"
	"github.com/routekit-dev/routekit/pkg/routedata"
)

func testManifest(t *testing.T) *Manifest {
	t.Helper()
	m := manifest.New()
	records := []manifest.Record{
		{ID: "routes/root", Path: ""},
		{ID: "routes/root.index", ParentID: "routes/root", Index: true},
		{ID: "routes/root.about", ParentID: "routes/root", Path: "about"},
	}
	for _, rec := range records {
		if err := m.Add(rec); err != nil {
			t.Fatal(err)
		}
	}
	return m
}

func noopLoader() routedata.ModuleLoader {
	return routedata.ModuleLoaderFunc(func(ctx context.Context, rec *manifest.Record) (*routedata.Module, error) {
		return &routedata.Module{}, nil
	})
}

func TestNewRequiresOriginAndLoader(t *testing.T) {
	m := testManifest(t)

	if _, err := New(m, WithModuleLoader(noopLoader())); err == nil {
		t.Error("New() without origin succeeded, want error")
	}
	if _, err := New(m, WithOrigin("https://app.example.com")); err == nil {
		t.Error("New() without module loader succeeded, want error")
	}
	if _, err := New(m, WithOrigin("not a url"), WithModuleLoader(noopLoader())); err == nil {
		t.Error("New() with malformed origin succeeded, want error")
	}
}

func TestNewBuildsRouteTree(t *testing.T) {
	m := testManifest(t)
	app, err := New(m,
		WithOrigin("https://app.example.com"),
		WithModuleLoader(noopLoader()),
	)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	routes := app.Routes()
	if len(routes) != 1 {
		t.Fatalf("len(routes) = %d, want 1", len(routes))
	}
	root := routes[0]
	if root.ID != "routes/root" {
		t.Errorf("root.ID = %q, want routes/root", root.ID)
	}
	if len(root.Children) != 2 {
		t.Errorf("len(root.Children) = %d, want 2", len(root.Children))
	}
	if app.Manifest() != m {
		t.Error("Manifest() did not return the source manifest")
	}
	if app.Engine() == nil {
		t.Error("Engine() = nil")
	}
}
