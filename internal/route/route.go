// Package route compiles route declarations into echo stages.
//
// A Route is one of a closed set of variants built with Handler, Validated,
// Callback, Sequence, Legacy and Stages. Compiling a route yields an ordered
// list of stages; every handler stage runs its handler under a failure
// capturing envelope, classifies failures, and writes exactly one JSON
// response unless the handler deferred to the next stage or an inner stage
// already responded.
package route

import (
	"github.com/deppfellow/routekit/internal/validation"
	"github.com/labstack/echo/v4"
)

// Next defers to the following stage. A nil error continues the chain; a
// non-nil error is handed to the transport error handler instead.
type Next func(err error)

// HandlerFunc is the application handler calling convention. It returns a
// value to send, returns or panics with a failure, or calls next to defer.
type HandlerFunc func(c echo.Context, next Next) (any, error)

// Factory produces the route to run for one request.
type Factory func(c echo.Context) (Route, error)

// Route is a route declaration.
type Route interface {
	route()
}

type handlerRoute struct {
	fn HandlerFunc
}

type validatedRoute struct {
	fn  HandlerFunc
	set validation.Set
}

type callbackRoute struct {
	factory Factory
}

type sequenceRoute struct {
	routes []Route
}

type legacyRoute struct {
	fn    HandlerFunc
	rules []validation.Rule
}

type stagesRoute struct {
	stages []Stage
}

func (handlerRoute) route()   {}
func (validatedRoute) route() {}
func (callbackRoute) route()  {}
func (sequenceRoute) route()  {}
func (legacyRoute) route()    {}
func (stagesRoute) route()    {}

// Handler declares a bare handler.
func Handler(fn HandlerFunc) Route {
	return handlerRoute{fn: fn}
}

// Validated declares a handler preceded by validation of the parts in set.
func Validated(fn HandlerFunc, set validation.Set) Route {
	return validatedRoute{fn: fn, set: set}
}

// Callback declares a route produced per request by factory.
func Callback(factory Factory) Route {
	return callbackRoute{factory: factory}
}

// Sequence declares routes run in order. Later routes observe request data
// normalized by earlier validation stages.
func Sequence(routes ...Route) Route {
	return sequenceRoute{routes: routes}
}

// Legacy declares a handler preceded by rule based validation.
//
// Deprecated: use Validated.
func Legacy(fn HandlerFunc, rules ...validation.Rule) Route {
	return legacyRoute{fn: fn, rules: rules}
}

// Stages wraps already compiled stages. Compiling it returns them untouched.
func Stages(stages ...Stage) Route {
	return stagesRoute{stages: stages}
}
