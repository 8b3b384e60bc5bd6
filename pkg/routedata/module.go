package routedata

import (
	"context"
	"sync"

	"github.com/routekit-dev/routekit/pkg/manifest"
)

// ReloadArgs are the arguments passed to a route's ShouldReload predicate.
type ReloadArgs struct {
	// URL is the navigation target.
	URL string

	// Params are the resolved route parameters for the navigation.
	Params map[string]string

	// Submission is the pending submission, if the revalidation was caused
	// by an action.
	Submission *Submission
}

// Module is a loaded route module descriptor.
//
// ShouldReload is the route's optional revalidation override; a nil field
// means the route revalidates on every navigation. Styles lists the
// stylesheet assets the module imports, prefetched after each load.
type Module struct {
	ShouldReload func(args ReloadArgs) bool
	Styles       []string

	// ErrorBoundary and CatchBoundary are the module's boundary
	// components, opaque to this package.
	ErrorBoundary any
	CatchBoundary any
}

// ModuleLoader loads the code module for a route.
// Whether the context is honored mid-load is the loader's own contract;
// the engine passes it through without inspecting it.
type ModuleLoader interface {
	Load(ctx context.Context, rec *manifest.Record) (*Module, error)
}

// ModuleLoaderFunc adapts a function to the ModuleLoader interface.
type ModuleLoaderFunc func(ctx context.Context, rec *manifest.Record) (*Module, error)

// Load implements ModuleLoader.
func (f ModuleLoaderFunc) Load(ctx context.Context, rec *manifest.Record) (*Module, error) {
	return f(ctx, rec)
}

// ModuleCache is the shared route id → module mapping.
//
// It is append-only: a module is loaded at most once per id for the lifetime
// of the cache and never evicted here. Concurrent GetOrLoad calls for the
// same id coalesce onto a single load.
type ModuleCache struct {
	mu      sync.Mutex
	modules map[string]*Module
	loading map[string]*loadCall
}

type loadCall struct {
	done chan struct{}
	mod  *Module
	err  error
}

// NewModuleCache creates an empty module cache.
func NewModuleCache() *ModuleCache {
	return &ModuleCache{
		modules: make(map[string]*Module),
		loading: make(map[string]*loadCall),
	}
}

// Get returns the cached module for a route id, if present.
func (c *ModuleCache) Get(id string) (*Module, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	mod, ok := c.modules[id]
	return mod, ok
}

// Len returns the number of cached modules.
func (c *ModuleCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.modules)
}

// GetOrLoad returns the cached module for id, loading it with load on first
// use. A failed load is not cached, so a later call may retry.
func (c *ModuleCache) GetOrLoad(ctx context.Context, id string, load func(ctx context.Context) (*Module, error)) (*Module, error) {
	c.mu.Lock()
	if mod, ok := c.modules[id]; ok {
		c.mu.Unlock()
		return mod, nil
	}
	if call, ok := c.loading[id]; ok {
		c.mu.Unlock()
		select {
		case <-call.done:
			return call.mod, call.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	call := &loadCall{done: make(chan struct{})}
	c.loading[id] = call
	c.mu.Unlock()

	call.mod, call.err = load(ctx)

	c.mu.Lock()
	delete(c.loading, id)
	if call.err == nil {
		c.modules[id] = call.mod
	}
	c.mu.Unlock()
	close(call.done)

	return call.mod, call.err
}
