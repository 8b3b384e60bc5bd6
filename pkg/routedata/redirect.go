package routedata

import (
	"fmt"
	"net/http"
	"net/url"
)

// Wire markers for the redirect and catch conventions. The data endpoint
// converts real 30x responses into 204s carrying these headers so that the
// transport layer never follows the redirect itself.
const (
	// RedirectHeader carries the redirect target of a loader or action
	// response.
	RedirectHeader = "X-Routekit-Redirect"

	// RevalidateHeader, when present (any value), asks for loaders to
	// re-run after the redirect.
	RevalidateHeader = "X-Routekit-Revalidate"

	// CatchHeader marks a deliberate boundary response. Used by the
	// default catch predicate.
	CatchHeader = "X-Routekit-Catch"
)

// IsCatchResponse is the default catch predicate: a response is a deliberate
// boundary response when it carries the catch marker header.
func IsCatchResponse(resp *http.Response) bool {
	return len(resp.Header.Values(CatchHeader)) > 0
}

// interceptRedirect inspects a response for the redirect marker and resolves
// it against the application origin.
//
// A same-origin target yields a Redirect result; a target on a different
// origin yields an ExternalNavigation result, which is terminal for the
// calling operation. A response without the marker yields (nil, nil).
func interceptRedirect(origin *url.URL, resp *http.Response) (*Result, error) {
	loc := resp.Header.Get(RedirectHeader)
	if loc == "" {
		return nil, nil
	}

	target, err := origin.Parse(loc)
	if err != nil {
		return nil, fmt.Errorf("routedata: invalid redirect target %q: %w", loc, err)
	}

	if target.Scheme != origin.Scheme || target.Host != origin.Host {
		return &Result{External: &ExternalNavigation{URL: target.String()}}, nil
	}

	location := target.Path
	if target.RawQuery != "" {
		location += "?" + target.RawQuery
	}
	if target.Fragment != "" {
		location += "#" + target.Fragment
	}
	revalidate := len(resp.Header.Values(RevalidateHeader)) > 0

	return &Result{Redirect: &Redirect{Location: location, Revalidate: revalidate}}, nil
}
