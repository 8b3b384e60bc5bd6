package routedata

import (
	"context"
	"net/url"
)

// Submission is the payload accompanying a data-mutating navigation.
type Submission struct {
	// Method is the submission method (POST, PUT, PATCH, DELETE).
	Method string

	// Action is the form action the submission targets.
	Action string

	// Encoding is the body encoding, normally
	// "application/x-www-form-urlencoded".
	Encoding string

	// Data is the submitted form data.
	Data url.Values
}

// Args carries the per-navigation inputs to a loader or action call.
type Args struct {
	// URL is the navigation target.
	URL *url.URL

	// Params are the resolved route parameters.
	Params map[string]string

	// Submission is the pending submission; nil for plain loads.
	Submission *Submission
}

// Redirect is a resolved same-origin redirect target.
type Redirect struct {
	// Location is the path, query and fragment of the target.
	Location string

	// Revalidate is true when the response asked for loaders to re-run
	// after the redirect.
	Revalidate bool
}

// ExternalNavigation is a redirect out of the application's origin. It is a
// terminal result: the caller must hand the URL to the host navigation layer
// and must not treat the operation as having produced data.
type ExternalNavigation struct {
	URL string
}

// Result is the outcome of a loader or action call. At most one field is
// set; a Result with all fields nil means the route produced no data.
type Result struct {
	Data     any
	Redirect *Redirect
	External *ExternalNavigation
}

// LoaderFunc loads route data for a navigation.
type LoaderFunc func(ctx context.Context, args Args) (*Result, error)

// ActionFunc submits route data for a mutating navigation.
type ActionFunc func(ctx context.Context, args Args) (*Result, error)

// ShouldReloadFunc decides whether the route's loader re-runs on
// revalidation.
type ShouldReloadFunc func(args ReloadArgs) bool

// Route is a hierarchical route node with its data operations attached.
// It is produced by Engine.Routes via the routetree builder; synthetic folder
// nodes carry only ID, Path and Children.
type Route struct {
	ID            string
	Path          string
	Index         bool
	CaseSensitive bool
	Children      []*Route

	HasLoader        bool
	HasAction        bool
	HasErrorBoundary bool
	HasCatchBoundary bool
	Module           string

	Loader       LoaderFunc
	Action       ActionFunc
	ShouldReload ShouldReloadFunc
}

// RoutePath implements the routetree node contract.
func (r *Route) RoutePath() string { return r.Path }

// SetRoutePath implements the routetree node contract.
func (r *Route) SetRoutePath(path string) { r.Path = path }

// SetChildren implements the routetree node contract.
func (r *Route) SetChildren(children []*Route) { r.Children = children }
