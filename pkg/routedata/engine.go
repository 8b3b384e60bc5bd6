// Package routedata builds the per-route data operations of a navigable
// route tree.
//
// The engine turns a flat route manifest into a tree of Route nodes (via
// pkg/routetree) and attaches to each node the Loader, Action and
// ShouldReload closures that run during navigation. The closures orchestrate
// the external collaborators: the data Fetcher, the ModuleLoader behind the
// shared ModuleCache, and the StylePrefetcher.
package routedata

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/routekit-dev/routekit/pkg/manifest"
	"github.com/routekit-dev/routekit/pkg/routetree"
)

// Fetcher performs the external data fetch for a route.
//
// A returned error is a structural failure and is surfaced unchanged to the
// nearest error boundary. Deliberate non-success responses travel as normal
// *http.Response values and are classified by the engine's catch predicate.
type Fetcher interface {
	Fetch(ctx context.Context, target *url.URL, routeID string, submission *Submission) (*http.Response, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, target *url.URL, routeID string, submission *Submission) (*http.Response, error)

// Fetch implements Fetcher.
func (f FetcherFunc) Fetch(ctx context.Context, target *url.URL, routeID string, submission *Submission) (*http.Response, error) {
	return f(ctx, target, routeID, submission)
}

// StylePrefetcher warms the stylesheet assets of a loaded module.
// Prefetch failures are non-fatal; the engine logs and continues.
type StylePrefetcher interface {
	Prefetch(ctx context.Context, mod *Module) error
}

// Observer receives engine telemetry. See pkg/metrics for the Prometheus
// implementation.
type Observer interface {
	// ObserveCall records a finished loader or action call.
	// kind is "loader" or "action"; outcome is one of "data", "redirect",
	// "external", "catch", "fault".
	ObserveCall(kind, routeID, outcome string, duration time.Duration)

	// ObserveModuleLoad records a module cache lookup.
	ObserveModuleLoad(routeID string, hit bool)
}

// Engine builds route trees with data operations attached.
type Engine struct {
	origin     *url.URL
	fetcher    Fetcher
	loader     ModuleLoader
	prefetcher StylePrefetcher
	cache      *ModuleCache
	isCatch    func(*http.Response) bool
	logger     *slog.Logger
	observer   Observer
}

// Option configures an Engine.
type Option func(*Engine)

// WithCache sets the shared module cache. Multiple engines over the same
// manifest may share one cache.
func WithCache(cache *ModuleCache) Option {
	return func(e *Engine) { e.cache = cache }
}

// WithStylePrefetcher sets the stylesheet prefetcher.
func WithStylePrefetcher(p StylePrefetcher) Option {
	return func(e *Engine) { e.prefetcher = p }
}

// WithCatchPredicate replaces the default catch-response predicate.
func WithCatchPredicate(pred func(*http.Response) bool) Option {
	return func(e *Engine) { e.isCatch = pred }
}

// WithLogger sets the engine logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithObserver sets the telemetry observer.
func WithObserver(obs Observer) Option {
	return func(e *Engine) { e.observer = obs }
}

// NewEngine creates an engine for the given application origin and
// collaborators.
func NewEngine(origin *url.URL, fetcher Fetcher, loader ModuleLoader, opts ...Option) *Engine {
	e := &Engine{
		origin:  origin,
		fetcher: fetcher,
		loader:  loader,
		isCatch: IsCatchResponse,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.cache == nil {
		e.cache = NewModuleCache()
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

// Cache returns the engine's module cache.
func (e *Engine) Cache() *ModuleCache {
	return e.cache
}

// Routes builds the navigable route tree for the manifest, attaching Loader,
// Action and ShouldReload to every non-synthetic node.
func (e *Engine) Routes(m *manifest.Manifest) []*Route {
	return routetree.Build(m,
		func(rec *manifest.Record) *Route {
			return &Route{
				ID:               rec.ID,
				Path:             rec.Path,
				Index:            rec.Index,
				CaseSensitive:    rec.CaseSensitive,
				HasLoader:        rec.HasLoader,
				HasAction:        rec.HasAction,
				HasErrorBoundary: rec.HasErrorBoundary,
				HasCatchBoundary: rec.HasCatchBoundary,
				Module:           rec.Module,
				Loader:           e.loaderFor(rec),
				Action:           e.actionFor(rec),
				ShouldReload:     e.shouldReloadFor(rec),
			}
		},
		func(path string) *Route {
			return &Route{ID: routetree.FolderID(path), Path: path}
		},
	)
}

// loaderFor builds the loader closure for a record.
//
// The data fetch and the module load start together and both must settle
// before the response is inspected: a redirect outcome never skips the
// module load on this path.
func (e *Engine) loaderFor(rec *manifest.Record) LoaderFunc {
	return func(ctx context.Context, args Args) (*Result, error) {
		start := time.Now()
		res, err := e.runLoader(ctx, rec, args)
		e.observe("loader", rec.ID, outcome(res, err), time.Since(start))
		return res, err
	}
}

func (e *Engine) runLoader(ctx context.Context, rec *manifest.Record, args Args) (*Result, error) {
	if !rec.HasLoader {
		// No data to fetch, but the module and its styles are still
		// needed before the navigation can complete.
		if err := e.loadModule(ctx, rec); err != nil {
			return nil, err
		}
		return &Result{}, nil
	}

	type fetchResult struct {
		resp *http.Response
		err  error
	}
	fetchCh := make(chan fetchResult, 1)
	moduleCh := make(chan error, 1)

	go func() {
		resp, err := e.fetcher.Fetch(ctx, args.URL, rec.ID, args.Submission)
		fetchCh <- fetchResult{resp, err}
	}()
	go func() {
		moduleCh <- e.loadModule(ctx, rec)
	}()

	// Join barrier: both the fetch and the module load settle before any
	// branching on the result.
	fetched := <-fetchCh
	moduleErr := <-moduleCh

	if fetched.err != nil {
		return nil, fetched.err
	}
	if moduleErr != nil {
		fetched.resp.Body.Close()
		return nil, moduleErr
	}
	return e.classify(fetched.resp)
}

// actionFor builds the action closure for a record.
//
// Unlike the loader path, the module load starts only after the fetch
// settles, and is skipped entirely when the response is a redirect.
func (e *Engine) actionFor(rec *manifest.Record) ActionFunc {
	return func(ctx context.Context, args Args) (*Result, error) {
		start := time.Now()
		res, err := e.runAction(ctx, rec, args)
		e.observe("action", rec.ID, outcome(res, err), time.Since(start))
		return res, err
	}
}

func (e *Engine) runAction(ctx context.Context, rec *manifest.Record, args Args) (*Result, error) {
	if !rec.HasAction {
		// Permissive mismatch: the submission proceeds anyway.
		e.logger.Warn("submission to route without an action handler",
			"route", rec.ID)
	}

	resp, err := e.fetcher.Fetch(ctx, args.URL, rec.ID, args.Submission)
	if err != nil {
		return nil, err
	}

	if res, err := interceptRedirect(e.origin, resp); err != nil || res != nil {
		resp.Body.Close()
		return res, err
	}

	if err := e.loadModule(ctx, rec); err != nil {
		resp.Body.Close()
		return nil, err
	}

	if e.isCatch(resp) {
		return nil, catchError(resp)
	}
	data, err := extractData(resp)
	if err != nil {
		return nil, err
	}
	return &Result{Data: data}, nil
}

// shouldReloadFor builds the revalidation predicate for a record. With no
// module override the route revalidates on every navigation.
func (e *Engine) shouldReloadFor(rec *manifest.Record) ShouldReloadFunc {
	return func(args ReloadArgs) bool {
		mod, ok := e.cache.Get(rec.ID)
		if !ok {
			panic(&InvariantError{
				Op:     "routedata.ShouldReload",
				Route:  rec.ID,
				Reason: "predicate invoked before the route module was loaded",
			})
		}
		if mod.ShouldReload != nil {
			return mod.ShouldReload(args)
		}
		return true
	}
}

// classify turns a successful fetch response into a Result or an error,
// checking redirect first, then catch, then extracting the payload.
func (e *Engine) classify(resp *http.Response) (*Result, error) {
	if res, err := interceptRedirect(e.origin, resp); err != nil || res != nil {
		resp.Body.Close()
		return res, err
	}
	if e.isCatch(resp) {
		return nil, catchError(resp)
	}
	data, err := extractData(resp)
	if err != nil {
		return nil, err
	}
	return &Result{Data: data}, nil
}

// loadModule performs the idempotent get-or-load for a route's module and
// prefetches its styles. A prefetch failure is logged, not propagated.
func (e *Engine) loadModule(ctx context.Context, rec *manifest.Record) error {
	hit := true
	mod, err := e.cache.GetOrLoad(ctx, rec.ID, func(ctx context.Context) (*Module, error) {
		hit = false
		return e.loader.Load(ctx, rec)
	})
	if e.observer != nil {
		e.observer.ObserveModuleLoad(rec.ID, hit)
	}
	if err != nil {
		return err
	}
	if e.prefetcher != nil {
		if err := e.prefetcher.Prefetch(ctx, mod); err != nil {
			e.logger.Warn("style prefetch failed", "route", rec.ID, "error", err)
		}
	}
	return nil
}

func (e *Engine) observe(kind, routeID, outcome string, d time.Duration) {
	if e.observer != nil {
		e.observer.ObserveCall(kind, routeID, outcome, d)
	}
}

// catchError builds the CatchSignal for a deliberate boundary response.
func catchError(resp *http.Response) error {
	data, err := extractData(resp)
	if err != nil {
		data = nil
	}
	statusText := http.StatusText(resp.StatusCode)
	return &CatchError{
		Status:     resp.StatusCode,
		StatusText: statusText,
		Data:       data,
	}
}

// extractData decodes the response payload. An empty body yields nil data.
func extractData(resp *http.Response) (any, error) {
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, nil
	}
	var data any
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, err
	}
	return data, nil
}

func outcome(res *Result, err error) string {
	switch {
	case err != nil:
		var catch *CatchError
		if errors.As(err, &catch) {
			return "catch"
		}
		return "fault"
	case res != nil && res.Redirect != nil:
		return "redirect"
	case res != nil && res.External != nil:
		return "external"
	default:
		return "data"
	}
}
