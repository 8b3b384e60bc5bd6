// Package fetch provides the production data Fetcher used by the route data
// engine.
//
// The fetcher speaks the routekit data convention: a navigation URL becomes a
// data request by appending the `_data=<routeID>` query parameter. Plain
// loads are GETs; submissions use the submission's own method with a
// form-encoded body. Every fetch is wrapped in an OpenTelemetry span.
package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/routekit-dev/routekit/pkg/routedata"
)

// DataParam is the query parameter that addresses a data request to a route.
const DataParam = "_data"

const tracerName = "routekit/fetch"

// Client is an HTTP implementation of routedata.Fetcher.
type Client struct {
	http   *http.Client
	tracer trace.Tracer
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client. The client must not follow
// redirects itself: loader and action redirects travel as marker headers, and
// any real 30x from the data endpoint is a protocol error to be surfaced,
// not transparently followed.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTracerProvider sets the tracer provider for fetch spans.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Client) { c.tracer = tp.Tracer(tracerName) }
}

// New creates a data fetch client.
func New(opts ...Option) *Client {
	c := &Client{}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = &http.Client{
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		}
	}
	if c.tracer == nil {
		c.tracer = otel.Tracer(tracerName)
	}
	return c
}

// Fetch implements routedata.Fetcher.
func (c *Client) Fetch(ctx context.Context, target *url.URL, routeID string, submission *routedata.Submission) (*http.Response, error) {
	dataURL := DataURL(target, routeID)

	method := http.MethodGet
	var body *strings.Reader
	if submission != nil {
		method = submission.Method
		if method == "" {
			method = http.MethodPost
		}
		body = strings.NewReader(submission.Data.Encode())
	}

	ctx, span := c.tracer.Start(ctx, "routedata.fetch",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("route.id", routeID),
			attribute.String("http.method", method),
			attribute.String("url.path", dataURL.Path),
		))
	defer span.End()

	var req *http.Request
	var err error
	if body != nil {
		req, err = http.NewRequestWithContext(ctx, method, dataURL.String(), body)
		if err == nil {
			enc := "application/x-www-form-urlencoded"
			if submission.Encoding != "" {
				enc = submission.Encoding
			}
			req.Header.Set("Content-Type", enc)
		}
	} else {
		req, err = http.NewRequestWithContext(ctx, method, dataURL.String(), nil)
	}
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("fetch: building request for route %q: %w", routeID, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	return resp, nil
}

// DataURL derives the data-request URL for a navigation target and route id.
// The original URL is not modified.
func DataURL(target *url.URL, routeID string) *url.URL {
	u := *target
	q := u.Query()
	q.Set(DataParam, routeID)
	u.RawQuery = q.Encode()
	return &u
}
