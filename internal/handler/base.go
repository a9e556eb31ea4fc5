package handler

import (
	"time"

	"github.com/deppfellow/routekit/internal/errs"
	"github.com/deppfellow/routekit/internal/request"
	"github.com/deppfellow/routekit/internal/route"
	"github.com/deppfellow/routekit/internal/server"
	"github.com/deppfellow/routekit/internal/validation"
	"github.com/labstack/echo/v4"
)

// Handler is embedded by every handler group to reach the app container.
type Handler struct {
	server *server.Server
}

func NewHandler(s *server.Server) Handler {
	return Handler{server: s}
}

// HandlerFunc is a typed handler receiving a decoded request.
type HandlerFunc[Req any, Res any] func(c echo.Context, req *Req) (Res, error)

// Handle adapts fn into a route stage.
//
// A fresh Req is decoded from parts in order (later parts overwrite earlier
// ones), reading the data left by any preceding schema validation stage, and
// validated when *Req implements validation.Validatable.
func Handle[Req any, Res any](h Handler, fn HandlerFunc[Req, Res], parts ...request.Part) route.HandlerFunc {
	return func(c echo.Context, _ route.Next) (any, error) {
		start := time.Now()

		logger := request.Logger(c).With().
			Str("operation", "handler").
			Str("method", c.Request().Method).
			Str("path", c.Path()).
			Logger()

		logger.Debug().Msg("handling request")

		req := new(Req)
		for _, part := range parts {
			if err := request.Decode(c, part, req); err != nil {
				logger.Error().Err(err).Str("part", part.Var()).Msg("request decoding failed")
				return nil, errs.NewBadRequestError("Invalid request payload", nil, nil, nil).WithCause(err)
			}
		}

		if v, ok := any(req).(validation.Validatable); ok {
			if err := validation.ValidatePayload(v); err != nil {
				logger.Warn().Err(err).Msg("request validation failed")
				return nil, err
			}
		}

		handlerStart := time.Now()
		result, err := fn(c, req)
		handlerDuration := time.Since(handlerStart)

		if err != nil {
			logger.Error().
				Err(err).
				Dur("handler_duration", handlerDuration).
				Dur("total_duration", time.Since(start)).
				Msg("handler execution failed")
			return nil, err
		}

		logger.Debug().
			Dur("handler_duration", handlerDuration).
			Dur("total_duration", time.Since(start)).
			Msg("request completed successfully")

		return result, nil
	}
}
