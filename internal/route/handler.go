package route

import (
	"github.com/deppfellow/routekit/internal/response"
	"github.com/labstack/echo/v4"
)

type outcomeKind int

const (
	respond outcomeKind = iota
	proceed
	fail
)

// outcome is what a handler stage resolved to before the terminal step.
type outcome struct {
	kind   outcomeKind
	code   int
	body   any
	signal error
}

// stage builds the base handler stage.
func (c *Compiler) stage(kind string, fn HandlerFunc, o overrides) Stage {
	success := c.checkOverride("success", o.success)
	failure := c.checkOverride("failure", o.failure)

	return Stage{
		kind: kind,
		run: func(ctx echo.Context, next echo.HandlerFunc) (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = c.degrade(ctx, r)
				}
			}()

			return c.finish(ctx, c.invoke(ctx, fn, success, failure), next)
		},
	}
}

// checkOverride discards codes that are not HTTP statuses.
func (c *Compiler) checkOverride(name string, code int) int {
	if code == 0 || response.IsValidStatus(code) {
		return code
	}

	c.logger.Warn().
		Int("code", code).
		Str("override", name).
		Msg(name + " code override must be a valid HTTP status, ignoring")
	return 0
}

func (c *Compiler) invoke(ctx echo.Context, fn HandlerFunc, success, failure int) outcome {
	var (
		signalled bool
		signal    error
	)
	next := func(err error) {
		signalled = true
		signal = err
	}

	value, failed := call(ctx, fn, next)

	var out outcome
	if failed != nil {
		env, _ := c.builder.Failure(ctx, failed, failure)
		out = outcome{kind: fail, code: env.Code, body: env.Data}
	} else {
		env := c.builder.Success(value, success)
		out = outcome{kind: respond, code: env.Code}
		if response.Meaningful(env.Data) {
			out.body = env.Data
		}
	}

	if signalled {
		return outcome{kind: proceed, signal: signal}
	}
	return out
}

// call runs fn, funnelling returned errors, returned error values and panics
// into one failure channel.
func call(ctx echo.Context, fn HandlerFunc, next Next) (value any, failure any) {
	defer func() {
		if r := recover(); r != nil {
			value, failure = nil, capture(r)
		}
	}()

	v, err := fn(ctx, next)
	if err != nil {
		return nil, capture(err)
	}
	if verr, ok := v.(error); ok {
		return nil, capture(verr)
	}
	return v, nil
}

// finish performs the terminal step. Nothing is written once the response is
// committed.
func (c *Compiler) finish(ctx echo.Context, out outcome, next echo.HandlerFunc) error {
	if ctx.Response().Committed {
		return nil
	}

	switch out.kind {
	case proceed:
		if out.signal != nil {
			return out.signal
		}
		return next(ctx)
	default:
		var err error
		if out.body == nil {
			err = ctx.NoContent(out.code)
		} else {
			err = ctx.JSON(out.code, out.body)
		}
		if err != nil {
			return c.degrade(ctx, err)
		}
		return nil
	}
}
