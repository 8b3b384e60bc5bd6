package routedata

import "fmt"

// CatchError is a deliberate non-success response produced by a route
// handler. It is routed to the nearest catch boundary and is never confused
// with a structural fetch failure, which travels as an ordinary error.
//
// Callers distinguish the two with errors.As:
//
//	var catch *routedata.CatchError
//	if errors.As(err, &catch) {
//	    // render catch boundary with catch.Status / catch.Data
//	}
type CatchError struct {
	Status     int
	StatusText string
	Data       any
}

// Error implements the error interface.
func (e *CatchError) Error() string {
	return fmt.Sprintf("route responded with %d %s", e.Status, e.StatusText)
}

// InvariantError reports internal misuse of the engine, such as invoking a
// route's ShouldReload predicate before its module has been loaded. It is
// delivered by panic: invariant violations are programmer faults and are not
// meant to be caught by application-level boundaries.
type InvariantError struct {
	Op     string
	Route  string
	Reason string
}

// Error implements the error interface.
func (e *InvariantError) Error() string {
	return fmt.Sprintf("%s: route %q: %s", e.Op, e.Route, e.Reason)
}
