package assets

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/routekit-dev/routekit/pkg/routedata"
)

// Prefetcher warms the stylesheet assets of loaded route modules. It
// implements routedata.StylePrefetcher.
//
// Prefetching issues a GET for each resolved stylesheet URL and discards the
// body; the point is to populate the HTTP cache, not to use the content.
type Prefetcher struct {
	resolver Resolver
	base     string
	http     *http.Client
}

// NewPrefetcher creates a style prefetcher. base is the absolute URL prefix
// the resolved stylesheet paths are served under, e.g. "https://app.example.com".
func NewPrefetcher(resolver Resolver, base string, client *http.Client) *Prefetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &Prefetcher{
		resolver: resolver,
		base:     base,
		http:     client,
	}
}

// Prefetch implements routedata.StylePrefetcher. The first failed stylesheet
// aborts the pass and is reported; the engine treats the error as non-fatal.
func (p *Prefetcher) Prefetch(ctx context.Context, mod *routedata.Module) error {
	for _, source := range mod.Styles {
		target := p.base + p.resolver.Stylesheet(source)
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return fmt.Errorf("assets: prefetch %s: %w", source, err)
		}
		resp, err := p.http.Do(req)
		if err != nil {
			return fmt.Errorf("assets: prefetch %s: %w", source, err)
		}
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		if resp.StatusCode >= 400 {
			return fmt.Errorf("assets: prefetch %s: status %d", source, resp.StatusCode)
		}
	}
	return nil
}
