package handler

import (
	"context"
	"time"

	"github.com/deppfellow/routekit/internal/errs"
	"github.com/deppfellow/routekit/internal/request"
	"github.com/deppfellow/routekit/internal/route"
	"github.com/deppfellow/routekit/internal/server"
	"github.com/labstack/echo/v4"
)

// UnhealthyMessage is the message of the 503 raised when a check fails.
const UnhealthyMessage = "Service unhealthy"

type HealthHandler struct {
	Handler
}

func NewHealthHandler(s *server.Server) *HealthHandler {
	return &HealthHandler{
		Handler: NewHandler(s),
	}
}

// CheckHealth reports the state of the service and its Redis connection.
//
// An unhealthy service fails with 503 and the health report as the response body.
func (h *HealthHandler) CheckHealth(c echo.Context, _ route.Next) (any, error) {
	start := time.Now()

	logger := request.Logger(c).With().
		Str("operation", "health_check").
		Logger()

	checks := make(map[string]any)
	response := map[string]any{
		"status":      "healthy",
		"timestamp":   time.Now().UTC(),
		"environment": h.server.Config.Primary.Env,
		"checks":      checks,
	}

	isHealthy := true

	if h.server.Redis != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()

		redisStart := time.Now()

		if err := h.server.Redis.Ping(ctx).Err(); err != nil {
			checks["redis"] = map[string]any{
				"status":        "unhealthy",
				"response_time": time.Since(redisStart).String(),
				"error":         err.Error(),
			}
			isHealthy = false

			logger.Error().
				Err(err).
				Dur("response_time", time.Since(redisStart)).
				Msg("redis health check failed")
		} else {
			checks["redis"] = map[string]any{
				"status":        "healthy",
				"response_time": time.Since(redisStart).String(),
			}

			logger.Debug().
				Dur("response_time", time.Since(redisStart)).
				Msg("redis health check passed")
		}
	} else {
		checks["redis"] = map[string]any{
			"status": "disabled",
		}
	}

	if !isHealthy {
		response["status"] = "unhealthy"

		logger.Warn().
			Dur("total_duration", time.Since(start)).
			Msg("health check failed")

		return nil, errs.NewServiceUnavailableError(UnhealthyMessage, response)
	}

	logger.Debug().
		Dur("total_duration", time.Since(start)).
		Msg("health check passed")

	return response, nil
}
