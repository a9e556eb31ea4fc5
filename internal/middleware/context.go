package middleware

import (
	"github.com/deppfellow/routekit/internal/request"
	"github.com/deppfellow/routekit/internal/server"
	"github.com/labstack/echo/v4"
)

// ContextEnhancer builds the request-scoped logger.
type ContextEnhancer struct {
	server *server.Server
}

// NewContextEnhancer creates a new ContextEnhancer using the app Server container.
func NewContextEnhancer(s *server.Server) *ContextEnhancer {
	return &ContextEnhancer{server: s}
}

// EnhanceContext returns an Echo middleware that derives a logger carrying the
// request id, method, path and ip, and stores it on both the echo context and
// the request's context.Context. Verify later adds the caller id.
func (ce *ContextEnhancer) EnhanceContext() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			contextLogger := ce.server.Logger.With().
				Str("request_id", request.RequestID(c)).
				Str("method", c.Request().Method).
				Str("path", c.Path()). // route template, e.g. "/schemas/:id"
				Str("ip", c.RealIP()).
				Logger()

			c.Set(request.LoggerKey, &contextLogger)

			// zerolog.Ctx(ctx) returns it for code that only sees context.Context.
			c.SetRequest(c.Request().WithContext(contextLogger.WithContext(c.Request().Context())))

			return next(c)
		}
	}
}
