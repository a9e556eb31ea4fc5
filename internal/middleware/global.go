package middleware

import (
	"fmt"

	"github.com/deppfellow/routekit/internal/errs"
	"github.com/deppfellow/routekit/internal/exception"
	"github.com/deppfellow/routekit/internal/request"
	"github.com/deppfellow/routekit/internal/server"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// GlobalMiddlewares groups "global" middleware and the global error handler.
type GlobalMiddlewares struct {
	server *server.Server
}

// NewGlobalMiddlewares constructs the middleware bundle.
func NewGlobalMiddlewares(s *server.Server) *GlobalMiddlewares {
	return &GlobalMiddlewares{
		server: s,
	}
}

// CORS returns Echo's CORS middleware configured by the server config.
func (global *GlobalMiddlewares) CORS() echo.MiddlewareFunc {
	return middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: global.server.Config.Server.CORSAllowedOrigins,
	})
}

// RequestLogger writes one "API" line per request with severity based on the
// final status.
func (global *GlobalMiddlewares) RequestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:     true,
		LogStatus:  true,
		LogError:   true,
		LogLatency: true,
		LogHost:    true,
		LogMethod:  true,
		LogURIPath: true,

		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			statusCode := v.Status

			// The error handler has not written yet when a stage returned an error.
			// Reference: https://github.com/labstack/echo/issues/2310#issuecomment-1288196898
			if v.Error != nil {
				statusCode = exception.Classify(v.Error).StatusCode
			}

			logger := request.Logger(c)

			var e *zerolog.Event
			switch {
			case statusCode >= 500:
				e = logger.Error().Err(v.Error)
			case statusCode >= 400:
				e = logger.Warn()
			default:
				e = logger.Info()
			}

			if requestID := request.RequestID(c); requestID != "" {
				e = e.Str("request_id", requestID)
			}

			if userID := request.UserID(c); userID != "" {
				e = e.Str("user_id", userID)
			}

			e.
				Dur("latency", v.Latency).
				Int("status", statusCode).
				Str("method", v.Method).
				Str("uri", v.URI).
				Str("host", v.Host).
				Str("ip", c.RealIP()).
				Str("user_agent", c.Request().UserAgent()).
				Msg("API")

			return nil
		},
	})
}

// Recover turns panics that escape a handler into errors for GlobalErrorHandler.
// Compiled routes recover their own panics; this covers plain echo handlers.
func (global *GlobalMiddlewares) Recover() echo.MiddlewareFunc {
	return middleware.RecoverWithConfig(middleware.RecoverConfig{
		DisableErrorHandler: true,
	})
}

// Secure returns Echo's secure headers middleware.
func (global *GlobalMiddlewares) Secure() echo.MiddlewareFunc {
	return middleware.Secure()
}

// GlobalErrorHandler is the final error funnel for the entire HTTP server.
//
// Errors reach it from next(err), from stages that returned an error to echo,
// and from the router itself. The failure is classified, logged, and written
// as {code, name, message, details, requestID} unless a response already went
// out.
func (global *GlobalMiddlewares) GlobalErrorHandler(err error, c echo.Context) {
	logger := request.Logger(c)
	originalErr := err

	// The router and the end of a compiled chain both report a missing handler
	// with echo.ErrNotFound.
	if errors.Is(err, echo.ErrNotFound) {
		req := c.Request()
		err = errs.NewNotFoundError(
			fmt.Sprintf("URL: %s with method: %s is not a valid path", req.URL.String(), req.Method),
			nil,
		)
	}

	logger.Debug().Err(originalErr).Msg("error received by global error handler")

	classified := exception.Classify(err)
	requestID := request.RequestID(c)

	event := logger.Warn()
	if classified.StatusCode >= 500 {
		event = logger.Error().Stack()
	}
	event.
		Err(originalErr).
		Int("status", classified.StatusCode).
		Str("error_name", classified.Name).
		Str("error_kind", classified.Kind.String()).
		Msg(classified.Message)

	if c.Response().Committed {
		return
	}

	if writeErr := c.JSON(classified.StatusCode, exception.NewBody(classified, requestID)); writeErr != nil {
		logger.Error().Err(writeErr).Msg("failed to write error response")

		if !c.Response().Committed {
			_ = c.JSON(exception.DefaultStatus, map[string]any{"error": originalErr.Error()})
		}
	}
}
