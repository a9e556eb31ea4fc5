// Package router builds the echo instance: global middleware, the error
// funnel, shared schemas and every route, compiled through the server's
// route compiler.
package router

import (
	"fmt"

	"github.com/deppfellow/routekit/internal/handler"
	"github.com/deppfellow/routekit/internal/middleware"
	"github.com/deppfellow/routekit/internal/server"
	"github.com/labstack/echo/v4"
)

func NewRouter(s *server.Server, h *handler.Handlers) (*echo.Echo, error) {
	middlewares := middleware.NewMiddlewares(s)

	router := echo.New()
	router.HideBanner = true
	router.HidePort = true

	router.HTTPErrorHandler = middlewares.Global.GlobalErrorHandler

	// Order matters: the request logger reads the id and logger set before it.
	router.Use(
		middlewares.Global.CORS(),
		middlewares.Global.Secure(),
		middleware.RequestID(),
		middlewares.Tracing.NewRelicMiddleware(),
		middlewares.Tracing.EnhanceTracing(),
		middlewares.ContextEnhancer.EnhanceContext(),
		middlewares.Global.RequestLogger(),
		middlewares.Global.Recover(),
	)

	if err := registerSharedSchemas(s.Schemas); err != nil {
		return nil, err
	}

	if err := registerSystemRoutes(router, s, h, middlewares); err != nil {
		return nil, fmt.Errorf("failed to register system routes: %w", err)
	}

	return router, nil
}
