package route

import (
	"fmt"

	"github.com/deppfellow/routekit/internal/exception"
	"github.com/deppfellow/routekit/internal/request"
	"github.com/deppfellow/routekit/internal/response"
	"github.com/deppfellow/routekit/internal/validation"
	"github.com/labstack/echo/v4"
	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Compiler turns routes into stages.
type Compiler struct {
	logger   *zerolog.Logger
	registry *validation.Registry
	builder  *response.Builder
}

// CompilerOption configures a Compiler.
type CompilerOption func(*Compiler)

// WithBuilder replaces the envelope builder.
func WithBuilder(b *response.Builder) CompilerOption {
	return func(c *Compiler) {
		c.builder = b
	}
}

// NewCompiler creates a Compiler. registry may be nil, in which case
// validation stages validate without freezing a registry.
func NewCompiler(logger *zerolog.Logger, registry *validation.Registry, opts ...CompilerOption) *Compiler {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	c := &Compiler{
		logger:   logger,
		registry: registry,
		builder:  response.NewBuilder(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Option sets a per-route status override.
type Option func(*overrides)

type overrides struct {
	success int
	failure int
}

// WithSuccessCode overrides the status of successful responses.
func WithSuccessCode(code int) Option {
	return func(o *overrides) {
		o.success = code
	}
}

// WithFailureCode overrides the status of failure responses.
func WithFailureCode(code int) Option {
	return func(o *overrides) {
		o.failure = code
	}
}

// Compile expands r into stages. Overrides apply to handler stages only.
func (c *Compiler) Compile(r Route, opts ...Option) []Stage {
	var o overrides
	for _, opt := range opts {
		opt(&o)
	}
	return c.compile(r, o)
}

// Handler compiles r into a single echo handler. The continuation after the
// last stage answers 404.
func (c *Compiler) Handler(r Route, opts ...Option) echo.HandlerFunc {
	return Chain(c.Compile(r, opts...), endOfChain)
}

// Mounter is implemented by *echo.Echo and *echo.Group.
type Mounter interface {
	Add(method, path string, handler echo.HandlerFunc, middleware ...echo.MiddlewareFunc) *echo.Route
}

// Mount compiles r and registers it on target.
func (c *Compiler) Mount(target Mounter, method, path string, r Route, opts ...Option) *echo.Route {
	return target.Add(method, path, c.Handler(r, opts...))
}

func (c *Compiler) compile(r Route, o overrides) []Stage {
	switch r := r.(type) {
	case stagesRoute:
		return r.stages

	case validatedRoute:
		return []Stage{
			c.stage(KindValidation, c.validator(r.set), overrides{}),
			c.stage(KindHandler, r.fn, o),
		}

	case legacyRoute:
		stages := make([]Stage, 0, len(r.rules)+2)
		for _, rule := range r.rules {
			stages = append(stages, c.stage(KindRule, applyRule(rule), overrides{}))
		}
		stages = append(stages,
			c.stage(KindRule, checkRules, overrides{}),
			c.stage(KindHandler, r.fn, o),
		)
		return stages

	case callbackRoute:
		return []Stage{c.callback(r.factory)}

	case sequenceRoute:
		var stages []Stage
		for _, inner := range r.routes {
			stages = append(stages, c.compile(inner, o)...)
		}
		return stages

	case handlerRoute:
		return []Stage{c.stage(KindHandler, r.fn, o)}

	case nil:
		return nil

	default:
		panic(fmt.Sprintf("route: unknown route type %T", r))
	}
}

func (c *Compiler) validator(set validation.Set) HandlerFunc {
	return func(ctx echo.Context, next Next) (any, error) {
		var err error
		if c.registry != nil {
			err = c.registry.Validate(ctx, set)
		} else {
			err = validation.Validate(ctx, set)
		}
		if err != nil {
			return nil, err
		}

		next(nil)
		return nil, nil
	}
}

func applyRule(rule validation.Rule) HandlerFunc {
	return func(ctx echo.Context, next Next) (any, error) {
		if err := rule.Apply(ctx); err != nil {
			return nil, err
		}
		next(nil)
		return nil, nil
	}
}

func checkRules(ctx echo.Context, next Next) (any, error) {
	if err := validation.Check(ctx); err != nil {
		return nil, err
	}
	next(nil)
	return nil, nil
}

// callback compiles the factory's route per request and runs it with the
// same continuation. Factory failures are answered like handler failures.
func (c *Compiler) callback(factory Factory) Stage {
	return Stage{
		kind:     KindCallback,
		callback: true,
		run: func(ctx echo.Context, next echo.HandlerFunc) (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = c.degrade(ctx, r)
				}
			}()

			produced, failure := c.produce(ctx, factory)
			if failure != nil {
				produced = Handler(func(echo.Context, Next) (any, error) {
					panic(failure)
				})
			}

			return Chain(c.Compile(produced), next)(ctx)
		},
	}
}

func (c *Compiler) produce(ctx echo.Context, factory Factory) (r Route, failure any) {
	defer func() {
		if rec := recover(); rec != nil {
			r, failure = nil, rec
		}
	}()

	r, err := factory(ctx)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// capture normalizes a failure and records where it was captured.
func capture(v any) any {
	normalized := exception.Normalize(v)
	if err, ok := normalized.(error); ok {
		return pkgerrors.WithStack(err)
	}
	return normalized
}

// degrade answers with the minimal failure body when nothing was written yet.
func (c *Compiler) degrade(ctx echo.Context, cause any) error {
	event := request.Logger(ctx).Error().Stack()
	err, ok := cause.(error)
	if ok {
		err = pkgerrors.WithStack(err)
		event = event.Err(err)
	} else {
		err = pkgerrors.Errorf("%v", cause)
		event = event.Interface("cause", cause)
	}
	event.Msg("failed to write response")
	response.NoticeError(ctx, err)

	if ctx.Response().Committed {
		return nil
	}
	if err := ctx.JSON(exception.DefaultStatus, exception.Fallback()); err != nil {
		c.logger.Error().Err(err).Msg("failed to write fallback response")
	}
	return nil
}
