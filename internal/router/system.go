package router

import (
	"net/http"

	"github.com/deppfellow/routekit/internal/handler"
	"github.com/deppfellow/routekit/internal/middleware"
	"github.com/deppfellow/routekit/internal/request"
	"github.com/deppfellow/routekit/internal/route"
	"github.com/deppfellow/routekit/internal/server"
	"github.com/deppfellow/routekit/internal/validation"
	"github.com/labstack/echo/v4"
)

func registerSystemRoutes(r *echo.Echo, s *server.Server, h *handler.Handlers, m *middleware.Middlewares) error {
	routes := s.Routes

	routes.Mount(r, http.MethodGet, "/status", route.Handler(h.Health.CheckHealth))

	listQuery, err := s.Schemas.Schema(handler.ListSchemasQuery)
	if err != nil {
		return err
	}

	getParams, err := s.Schemas.Schema(handler.GetSchemaParams)
	if err != nil {
		return err
	}

	if err := h.Schemas.Prepare(); err != nil {
		return err
	}

	schemas := r.Group("/schemas")

	routes.Mount(schemas, http.MethodGet, "", route.Sequence(
		route.Handler(m.RateLimit.Consume),
		route.Validated(
			handler.Handle(h.Schemas.Handler, h.Schemas.ListSchemas, request.Query),
			validation.Set{request.Query: listQuery},
		),
	))

	routes.Mount(schemas, http.MethodGet, "/:id", route.Sequence(
		route.Handler(m.RateLimit.Consume),
		route.Validated(
			handler.Handle(h.Schemas.Handler, h.Schemas.GetSchema, request.Params),
			validation.Set{request.Params: getParams},
		),
	))

	routes.Mount(schemas, http.MethodPost, "/:id/validate", route.Sequence(
		route.Handler(m.Auth.Verify),
		route.Handler(m.RateLimit.Consume),
		route.Callback(h.Schemas.ValidateDocument),
	))

	return nil
}
