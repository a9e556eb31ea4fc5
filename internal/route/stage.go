package route

import "github.com/labstack/echo/v4"

// Stage kinds.
const (
	KindHandler    = "handler"
	KindValidation = "validation"
	KindCallback   = "callback"
	KindRule       = "rule"
)

// Stage is one transport callable unit produced by compilation.
type Stage struct {
	run      func(c echo.Context, next echo.HandlerFunc) error
	kind     string
	callback bool
}

// Serve runs the stage; next is the continuation to the following stage.
func (s Stage) Serve(c echo.Context, next echo.HandlerFunc) error {
	return s.run(c, next)
}

// Kind reports what the stage was compiled from.
func (s Stage) Kind() string {
	return s.kind
}

// IsCallback reports whether the stage invokes a per-request route factory.
// Test doubles use it to call the stage directly.
func (s Stage) IsCallback() bool {
	return s.callback
}

// Middleware adapts the stage to echo middleware.
func (s Stage) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			return s.Serve(c, next)
		}
	}
}

// Chain joins stages into one handler; final runs after the last stage.
func Chain(stages []Stage, final echo.HandlerFunc) echo.HandlerFunc {
	h := final
	for i := len(stages) - 1; i >= 0; i-- {
		stage, next := stages[i], h
		h = func(c echo.Context) error {
			return stage.Serve(c, next)
		}
	}
	return h
}

func endOfChain(echo.Context) error {
	return echo.ErrNotFound
}
