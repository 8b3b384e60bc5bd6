// Package routekit assembles the route data layer: a flat build-time route
// manifest, the hierarchical tree built from it, and the per-route data
// operations that run during navigation.
//
// This is the recommended import for most applications:
//
//	m, _ := routekit.LoadManifest("dist/routes.json")
//	app, _ := routekit.New(m,
//	    routekit.WithOrigin("https://app.example.com"),
//	    routekit.WithModuleLoader(loader),
//	)
//	routes := app.Routes()
//
// The heavy lifting lives in the subpackages: pkg/manifest (the flat
// manifest), pkg/routetree (the generic tree transform), pkg/routedata (the
// execution engine), pkg/fetch (the HTTP data fetcher) and pkg/assets
// (stylesheet resolution and prefetching).
package routekit

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/routekit-dev/routekit/pkg/fetch"
	"github.com/routekit-dev/routekit/pkg/manifest"
	"github.com/routekit-dev/routekit/pkg/routedata"
)

// Re-exported core types, so simple applications only import routekit.
type (
	// Manifest is the flat build-time route manifest.
	Manifest = manifest.Manifest

	// Route is a hierarchical route node with data operations attached.
	Route = routedata.Route

	// Submission is the payload of a data-mutating navigation.
	Submission = routedata.Submission

	// Redirect is a resolved same-origin redirect descriptor.
	Redirect = routedata.Redirect

	// CatchError is a deliberate boundary response from a route handler.
	CatchError = routedata.CatchError
)

// LoadManifest reads a routes.json file.
func LoadManifest(path string) (*Manifest, error) {
	return manifest.Load(path)
}

// App is an assembled route data layer for one application origin.
type App struct {
	manifest *Manifest
	engine   *routedata.Engine
	routes   []*routedata.Route
}

// Option configures an App.
type Option func(*appConfig)

type appConfig struct {
	origin     string
	fetcher    routedata.Fetcher
	loader     routedata.ModuleLoader
	engineOpts []routedata.Option
}

// WithOrigin sets the application origin. Required.
func WithOrigin(origin string) Option {
	return func(c *appConfig) { c.origin = origin }
}

// WithFetcher replaces the default HTTP data fetcher.
func WithFetcher(f routedata.Fetcher) Option {
	return func(c *appConfig) { c.fetcher = f }
}

// WithModuleLoader sets the route module loader. Required.
func WithModuleLoader(l routedata.ModuleLoader) Option {
	return func(c *appConfig) { c.loader = l }
}

// WithHTTPClient sets the HTTP client used by the default fetcher.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *appConfig) { c.fetcher = fetch.New(fetch.WithHTTPClient(hc)) }
}

// WithEngineOptions forwards options to the underlying engine (cache,
// prefetcher, observer, logger, catch predicate).
func WithEngineOptions(opts ...routedata.Option) Option {
	return func(c *appConfig) { c.engineOpts = append(c.engineOpts, opts...) }
}

// New assembles the route data layer for a manifest.
func New(m *Manifest, opts ...Option) (*App, error) {
	cfg := &appConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.origin == "" {
		return nil, fmt.Errorf("routekit: WithOrigin is required")
	}
	if cfg.loader == nil {
		return nil, fmt.Errorf("routekit: WithModuleLoader is required")
	}
	origin, err := url.Parse(cfg.origin)
	if err != nil || origin.Scheme == "" || origin.Host == "" {
		return nil, fmt.Errorf("routekit: invalid origin %q", cfg.origin)
	}
	if cfg.fetcher == nil {
		cfg.fetcher = fetch.New()
	}

	engine := routedata.NewEngine(origin, cfg.fetcher, cfg.loader, cfg.engineOpts...)
	return &App{
		manifest: m,
		engine:   engine,
		routes:   engine.Routes(m),
	}, nil
}

// Routes returns the navigable route tree.
func (a *App) Routes() []*Route {
	return a.routes
}

// Manifest returns the manifest the tree was built from.
func (a *App) Manifest() *Manifest {
	return a.manifest
}

// Engine returns the underlying execution engine.
func (a *App) Engine() *routedata.Engine {
	return a.engine
}
