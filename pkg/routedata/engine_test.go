package routedata

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/routekit-dev/routekit/pkg/manifest"
)

// fakeFetcher returns canned responses and records its calls.
type fakeFetcher struct {
	mu      sync.Mutex
	calls   []string
	resp    *http.Response
	err     error
	started chan struct{} // closed when Fetch begins, if set
	block   chan struct{} // Fetch waits on this, if set
}

func (f *fakeFetcher) Fetch(ctx context.Context, target *url.URL, routeID string, submission *Submission) (*http.Response, error) {
	if f.started != nil {
		close(f.started)
	}
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	f.calls = append(f.calls, routeID)
	f.mu.Unlock()
	return f.resp, f.err
}

// fakeLoader counts module loads.
type fakeLoader struct {
	loads atomic.Int32
	mod   *Module
	err   error
}

func (l *fakeLoader) Load(ctx context.Context, rec *manifest.Record) (*Module, error) {
	l.loads.Add(1)
	if l.mod != nil || l.err != nil {
		return l.mod, l.err
	}
	return &Module{}, nil
}

// fakePrefetcher records prefetched modules.
type fakePrefetcher struct {
	mu    sync.Mutex
	count int
	err   error
}

func (p *fakePrefetcher) Prefetch(ctx context.Context, mod *Module) error {
	p.mu.Lock()
	p.count++
	p.mu.Unlock()
	return p.err
}

func response(status int, headers map[string]string, body string) *http.Response {
	h := make(http.Header)
	for k, v := range headers {
		h.Set(k, v)
	}
	return &http.Response{
		StatusCode: status,
		Header:     h,
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func testOrigin(t *testing.T) *url.URL {
	t.Helper()
	origin, err := url.Parse("https://app.example.com")
	if err != nil {
		t.Fatal(err)
	}
	return origin
}

func testManifest(t *testing.T, recs ...manifest.Record) *manifest.Manifest {
	t.Helper()
	m := manifest.New()
	for _, rec := range recs {
		if err := m.Add(rec); err != nil {
			t.Fatal(err)
		}
	}
	return m
}

func findRoute(t *testing.T, roots []*Route, id string) *Route {
	t.Helper()
	var walk func(nodes []*Route) *Route
	walk = func(nodes []*Route) *Route {
		for _, n := range nodes {
			if n.ID == id {
				return n
			}
			if found := walk(n.Children); found != nil {
				return found
			}
		}
		return nil
	}
	r := walk(roots)
	if r == nil {
		t.Fatalf("route %q not in tree", id)
	}
	return r
}

func loaderArgs(t *testing.T) Args {
	t.Helper()
	u, err := url.Parse("https://app.example.com/projects/1")
	if err != nil {
		t.Fatal(err)
	}
	return Args{URL: u, Params: map[string]string{"id": "1"}}
}

func TestLoaderReturnsData(t *testing.T) {
	fetcher := &fakeFetcher{resp: response(200, nil, `{"name":"p1"}`)}
	loader := &fakeLoader{}
	engine := NewEngine(testOrigin(t), fetcher, loader)

	routes := engine.Routes(testManifest(t,
		manifest.Record{ID: "routes/projects.$id", Path: ":id", HasLoader: true},
	))
	route := findRoute(t, routes, "routes/projects.$id")

	res, err := route.Loader(context.Background(), loaderArgs(t))
	if err != nil {
		t.Fatalf("Loader() error: %v", err)
	}
	data, ok := res.Data.(map[string]any)
	if !ok || data["name"] != "p1" {
		t.Errorf("Data = %#v, want map with name=p1", res.Data)
	}
}

func TestLoaderAlwaysLoadsModuleEvenOnRedirect(t *testing.T) {
	fetcher := &fakeFetcher{resp: response(204, map[string]string{
		RedirectHeader: "/login",
	}, "")}
	loader := &fakeLoader{}
	engine := NewEngine(testOrigin(t), fetcher, loader)

	routes := engine.Routes(testManifest(t,
		manifest.Record{ID: "routes/secret", Path: "secret", HasLoader: true},
	))
	route := findRoute(t, routes, "routes/secret")

	res, err := route.Loader(context.Background(), loaderArgs(t))
	if err != nil {
		t.Fatalf("Loader() error: %v", err)
	}
	if res.Redirect == nil || res.Redirect.Location != "/login" {
		t.Fatalf("Redirect = %+v, want /login", res.Redirect)
	}
	if got := loader.loads.Load(); got != 1 {
		t.Errorf("module loads = %d, want 1; redirects must not skip the module load", got)
	}
}

func TestLoaderJoinsModuleLoadBeforeBranching(t *testing.T) {
	// The fetch settles immediately with a redirect; the module load is
	// slow. The loader must still wait for it.
	released := make(chan struct{})
	loader := &fakeLoader{}
	slowLoader := ModuleLoaderFunc(func(ctx context.Context, rec *manifest.Record) (*Module, error) {
		<-released
		return loader.Load(ctx, rec)
	})
	fetcher := &fakeFetcher{resp: response(204, map[string]string{
		RedirectHeader: "/elsewhere",
	}, "")}
	engine := NewEngine(testOrigin(t), fetcher, slowLoader)

	routes := engine.Routes(testManifest(t,
		manifest.Record{ID: "routes/slow", Path: "slow", HasLoader: true},
	))
	route := findRoute(t, routes, "routes/slow")

	done := make(chan struct{})
	go func() {
		route.Loader(context.Background(), loaderArgs(t))
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("loader returned before the module load settled")
	case <-time.After(50 * time.Millisecond):
	}

	close(released)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("loader did not return after the module load settled")
	}
	if got := loader.loads.Load(); got != 1 {
		t.Errorf("module loads = %d, want 1", got)
	}
}

func TestLoaderWithoutLoaderStillLoadsModule(t *testing.T) {
	fetcher := &fakeFetcher{}
	loader := &fakeLoader{}
	prefetcher := &fakePrefetcher{}
	engine := NewEngine(testOrigin(t), fetcher, loader,
		WithStylePrefetcher(prefetcher))

	routes := engine.Routes(testManifest(t,
		manifest.Record{ID: "routes/layout"},
	))
	route := findRoute(t, routes, "routes/layout")

	res, err := route.Loader(context.Background(), loaderArgs(t))
	if err != nil {
		t.Fatalf("Loader() error: %v", err)
	}
	if res.Data != nil || res.Redirect != nil || res.External != nil {
		t.Errorf("Result = %+v, want empty", res)
	}
	if len(fetcher.calls) != 0 {
		t.Error("fetch called for a route without a loader")
	}
	if got := loader.loads.Load(); got != 1 {
		t.Errorf("module loads = %d, want 1", got)
	}
	if prefetcher.count != 1 {
		t.Errorf("prefetches = %d, want 1", prefetcher.count)
	}
}

func TestLoaderPropagatesFetchFault(t *testing.T) {
	boom := errors.New("connection refused")
	fetcher := &fakeFetcher{err: boom}
	engine := NewEngine(testOrigin(t), fetcher, &fakeLoader{})

	routes := engine.Routes(testManifest(t,
		manifest.Record{ID: "routes/broken", Path: "broken", HasLoader: true},
	))
	route := findRoute(t, routes, "routes/broken")

	_, err := route.Loader(context.Background(), loaderArgs(t))
	if !errors.Is(err, boom) {
		t.Fatalf("Loader() error = %v, want the fetch fault unchanged", err)
	}
	var catch *CatchError
	if errors.As(err, &catch) {
		t.Error("a structural fault must never classify as a CatchError")
	}
}

func TestLoaderClassifiesCatchResponse(t *testing.T) {
	fetcher := &fakeFetcher{resp: response(404, map[string]string{
		CatchHeader: "1",
	}, `"not found"`)}
	engine := NewEngine(testOrigin(t), fetcher, &fakeLoader{})

	routes := engine.Routes(testManifest(t,
		manifest.Record{ID: "routes/missing", Path: "missing", HasLoader: true},
	))
	route := findRoute(t, routes, "routes/missing")

	_, err := route.Loader(context.Background(), loaderArgs(t))
	var catch *CatchError
	if !errors.As(err, &catch) {
		t.Fatalf("Loader() error = %v, want *CatchError", err)
	}
	if catch.Status != 404 {
		t.Errorf("Status = %d, want 404", catch.Status)
	}
	if catch.StatusText != http.StatusText(404) {
		t.Errorf("StatusText = %q, want %q", catch.StatusText, http.StatusText(404))
	}
	if catch.Data != "not found" {
		t.Errorf("Data = %#v, want %q", catch.Data, "not found")
	}
}

func TestActionSkipsModuleLoadOnRedirect(t *testing.T) {
	fetcher := &fakeFetcher{resp: response(204, map[string]string{
		RedirectHeader: "/done",
	}, "")}
	loader := &fakeLoader{}
	engine := NewEngine(testOrigin(t), fetcher, loader)

	routes := engine.Routes(testManifest(t,
		manifest.Record{ID: "routes/new", Path: "new", HasAction: true},
	))
	route := findRoute(t, routes, "routes/new")

	args := loaderArgs(t)
	args.Submission = &Submission{Method: http.MethodPost, Data: url.Values{"name": {"x"}}}

	res, err := route.Action(context.Background(), args)
	if err != nil {
		t.Fatalf("Action() error: %v", err)
	}
	if res.Redirect == nil || res.Redirect.Location != "/done" {
		t.Fatalf("Redirect = %+v, want /done", res.Redirect)
	}
	if got := loader.loads.Load(); got != 0 {
		t.Errorf("module loads = %d, want 0; action redirects skip the module load", got)
	}
}

func TestActionLoadsModuleAfterNonRedirectFetch(t *testing.T) {
	fetcher := &fakeFetcher{resp: response(200, nil, `{"ok":true}`)}
	loader := &fakeLoader{}
	engine := NewEngine(testOrigin(t), fetcher, loader)

	routes := engine.Routes(testManifest(t,
		manifest.Record{ID: "routes/new", Path: "new", HasAction: true},
	))
	route := findRoute(t, routes, "routes/new")

	args := loaderArgs(t)
	args.Submission = &Submission{Method: http.MethodPost, Data: url.Values{}}

	res, err := route.Action(context.Background(), args)
	if err != nil {
		t.Fatalf("Action() error: %v", err)
	}
	data, ok := res.Data.(map[string]any)
	if !ok || data["ok"] != true {
		t.Errorf("Data = %#v, want map with ok=true", res.Data)
	}
	if got := loader.loads.Load(); got != 1 {
		t.Errorf("module loads = %d, want 1", got)
	}
}

func TestActionWithoutHandlerStillSubmits(t *testing.T) {
	var logged strings.Builder
	logger := slog.New(slog.NewTextHandler(&logged, nil))

	fetcher := &fakeFetcher{resp: response(200, nil, "")}
	engine := NewEngine(testOrigin(t), fetcher, &fakeLoader{}, WithLogger(logger))

	routes := engine.Routes(testManifest(t,
		manifest.Record{ID: "routes/readonly", Path: "readonly"},
	))
	route := findRoute(t, routes, "routes/readonly")

	args := loaderArgs(t)
	args.Submission = &Submission{Method: http.MethodPost, Data: url.Values{}}

	if _, err := route.Action(context.Background(), args); err != nil {
		t.Fatalf("Action() error: %v; a missing action handler is not fatal", err)
	}
	if len(fetcher.calls) != 1 {
		t.Errorf("fetch calls = %d, want 1; the submission must proceed", len(fetcher.calls))
	}
	if !strings.Contains(logged.String(), "without an action handler") {
		t.Error("expected a diagnostic about the missing action handler")
	}
}

func TestActionCrossOriginRedirectIsExternal(t *testing.T) {
	fetcher := &fakeFetcher{resp: response(204, map[string]string{
		RedirectHeader: "https://other.example.org/welcome",
	}, "")}
	loader := &fakeLoader{}
	engine := NewEngine(testOrigin(t), fetcher, loader)

	routes := engine.Routes(testManifest(t,
		manifest.Record{ID: "routes/out", Path: "out", HasAction: true},
	))
	route := findRoute(t, routes, "routes/out")

	args := loaderArgs(t)
	args.Submission = &Submission{Method: http.MethodPost, Data: url.Values{}}

	res, err := route.Action(context.Background(), args)
	if err != nil {
		t.Fatalf("Action() error: %v", err)
	}
	if res.External == nil || res.External.URL != "https://other.example.org/welcome" {
		t.Fatalf("External = %+v, want other origin URL", res.External)
	}
	if res.Redirect != nil || res.Data != nil {
		t.Error("an external navigation must not carry a redirect or data")
	}
	if got := loader.loads.Load(); got != 0 {
		t.Errorf("module loads = %d, want 0", got)
	}
}

func TestShouldReloadDefaultsToTrue(t *testing.T) {
	fetcher := &fakeFetcher{}
	engine := NewEngine(testOrigin(t), fetcher, &fakeLoader{})

	routes := engine.Routes(testManifest(t,
		manifest.Record{ID: "routes/page", Path: "page"},
	))
	route := findRoute(t, routes, "routes/page")

	// Populate the cache first.
	if _, err := route.Loader(context.Background(), loaderArgs(t)); err != nil {
		t.Fatal(err)
	}

	if !route.ShouldReload(ReloadArgs{URL: "/page"}) {
		t.Error("ShouldReload() = false, want true with no module override")
	}
}

func TestShouldReloadDelegatesToModuleOverride(t *testing.T) {
	var got ReloadArgs
	loader := &fakeLoader{mod: &Module{
		ShouldReload: func(args ReloadArgs) bool {
			got = args
			return false
		},
	}}
	engine := NewEngine(testOrigin(t), &fakeFetcher{}, loader)

	routes := engine.Routes(testManifest(t,
		manifest.Record{ID: "routes/pinned", Path: "pinned"},
	))
	route := findRoute(t, routes, "routes/pinned")

	if _, err := route.Loader(context.Background(), loaderArgs(t)); err != nil {
		t.Fatal(err)
	}

	args := ReloadArgs{URL: "/pinned", Params: map[string]string{"k": "v"}}
	if route.ShouldReload(args) {
		t.Error("ShouldReload() = true, want the override's false")
	}
	if got.URL != args.URL || got.Params["k"] != "v" {
		t.Errorf("override received %+v, want %+v", got, args)
	}
}

func TestShouldReloadPanicsBeforeModuleLoad(t *testing.T) {
	engine := NewEngine(testOrigin(t), &fakeFetcher{}, &fakeLoader{})

	routes := engine.Routes(testManifest(t,
		manifest.Record{ID: "routes/early", Path: "early"},
	))
	route := findRoute(t, routes, "routes/early")

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("ShouldReload before module load did not panic")
		}
		if _, ok := r.(*InvariantError); !ok {
			t.Errorf("panic value = %#v, want *InvariantError", r)
		}
	}()
	route.ShouldReload(ReloadArgs{})
}

func TestTreeAttachesOperationsToEveryRecord(t *testing.T) {
	engine := NewEngine(testOrigin(t), &fakeFetcher{}, &fakeLoader{})

	routes := engine.Routes(testManifest(t,
		manifest.Record{ID: "a", Path: "x"},
		manifest.Record{ID: "b", Path: "x"},
	))

	// Both collided routes live under the folder; the folder itself has
	// no operations.
	if len(routes) != 1 {
		t.Fatalf("len(routes) = %d, want 1", len(routes))
	}
	folder := routes[0]
	if folder.ID != "folder:routes/x" {
		t.Fatalf("folder.ID = %q", folder.ID)
	}
	if folder.Loader != nil || folder.Action != nil {
		t.Error("synthetic folder nodes must not carry data operations")
	}
	for _, child := range folder.Children {
		if child.Loader == nil || child.Action == nil || child.ShouldReload == nil {
			t.Errorf("route %q is missing attached operations", child.ID)
		}
		if child.Path != "" {
			t.Errorf("route %q kept path %q inside folder", child.ID, child.Path)
		}
	}
}

// closingBody wraps a response body and records whether it was closed.
type closingBody struct {
	io.Reader
	closed atomic.Bool
}

func (b *closingBody) Close() error {
	b.closed.Store(true)
	return nil
}

func trackedResponse(status int, body string) (*http.Response, *closingBody) {
	b := &closingBody{Reader: strings.NewReader(body)}
	return &http.Response{StatusCode: status, Header: make(http.Header), Body: b}, b
}

func TestLoaderClosesBodyWhenModuleLoadFails(t *testing.T) {
	resp, body := trackedResponse(200, `{"name":"p1"}`)
	fetcher := &fakeFetcher{resp: resp}
	loader := &fakeLoader{err: errors.New("module fetch failed")}
	engine := NewEngine(testOrigin(t), fetcher, loader)

	routes := engine.Routes(testManifest(t,
		manifest.Record{ID: "routes/projects", Path: "projects", HasLoader: true},
	))
	route := findRoute(t, routes, "routes/projects")

	if _, err := route.Loader(context.Background(), loaderArgs(t)); err == nil {
		t.Fatal("Loader() succeeded, want module load error")
	}
	if !body.closed.Load() {
		t.Error("response body not closed after a failed module load")
	}
}

func TestActionClosesBodyWhenModuleLoadFails(t *testing.T) {
	resp, body := trackedResponse(200, `{}`)
	fetcher := &fakeFetcher{resp: resp}
	loader := &fakeLoader{err: errors.New("module fetch failed")}
	engine := NewEngine(testOrigin(t), fetcher, loader)

	routes := engine.Routes(testManifest(t,
		manifest.Record{ID: "routes/projects", Path: "projects", HasAction: true},
	))
	route := findRoute(t, routes, "routes/projects")

	args := loaderArgs(t)
	args.Submission = &Submission{Method: "POST"}
	if _, err := route.Action(context.Background(), args); err == nil {
		t.Fatal("Action() succeeded, want module load error")
	}
	if !body.closed.Load() {
		t.Error("response body not closed after a failed module load")
	}
}
