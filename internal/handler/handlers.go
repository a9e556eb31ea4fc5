package handler

import (
	"github.com/deppfellow/routekit/internal/server"
)

type Handlers struct {
	Health  *HealthHandler // Health serves the service health endpoint.
	Schemas *SchemaHandler // Schemas serves the registered shared schemas.
}

func NewHandlers(s *server.Server) *Handlers {
	return &Handlers{
		Health:  NewHealthHandler(s),
		Schemas: NewSchemaHandler(s),
	}
}
