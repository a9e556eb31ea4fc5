package handler

import (
	"fmt"
	"slices"

	"github.com/deppfellow/routekit/internal/errs"
	"github.com/deppfellow/routekit/internal/request"
	"github.com/deppfellow/routekit/internal/route"
	"github.com/deppfellow/routekit/internal/server"
	"github.com/deppfellow/routekit/internal/validation"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// SchemaNotFoundCode is the machine code of the 404 raised for unknown ids.
const SchemaNotFoundCode = "SCHEMA_NOT_FOUND"

// GetSchemaParams validates the path of GET /schemas/:id.
var GetSchemaParams = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"id": map[string]any{
			"type":    "string",
			"pattern": `^[A-Za-z0-9._/-]+$`,
		},
	},
	"required": []string{"id"},
}

// ListSchemasQuery validates the query of GET /schemas against the shared
// pagination schema.
var ListSchemasQuery = map[string]any{
	"$ref": "pagination.json",
}

type SchemaHandler struct {
	Handler

	bodies map[string]validation.Schema
}

func NewSchemaHandler(s *server.Server) *SchemaHandler {
	return &SchemaHandler{
		Handler: NewHandler(s),
	}
}

type GetSchemaRequest struct {
	ID string `json:"id" validate:"required"`
}

func (r *GetSchemaRequest) Validate() error {
	validate := validator.New()

	return validate.Struct(r)
}

type ListSchemasRequest struct {
	Page int `json:"page" validate:"min=1,max=10000"`
	Size int `json:"size" validate:"min=1,max=100"`
}

func (r *ListSchemasRequest) Validate() error {
	validate := validator.New()

	return validate.Struct(r)
}

type ListSchemasResponse struct {
	IDs   []string `json:"ids"`
	Page  int      `json:"page"`
	Size  int      `json:"size"`
	Total int      `json:"total"`
}

// GetSchema returns the shared schema document registered under req.ID.
func (h *SchemaHandler) GetSchema(_ echo.Context, req *GetSchemaRequest) (any, error) {
	doc, ok := h.server.Schemas.Lookup(req.ID)
	if !ok {
		code := SchemaNotFoundCode
		return nil, errs.NewNotFoundError("Schema "+req.ID+" not found", &code)
	}

	return doc, nil
}

// ListSchemas returns one page of the registered schema ids, sorted.
func (h *SchemaHandler) ListSchemas(_ echo.Context, req *ListSchemasRequest) (*ListSchemasResponse, error) {
	ids := h.server.Schemas.IDs()
	slices.Sort(ids)

	// Pages past the end are empty; the bound keeps (page-1)*size from overflowing.
	size := max(req.Size, 0)
	from := len(ids)
	if size > 0 && req.Page > 0 && req.Page-1 <= len(ids)/size {
		from = (req.Page - 1) * size
	}
	to := from + min(size, len(ids)-from)

	return &ListSchemasResponse{
		IDs:   ids[from:to],
		Page:  req.Page,
		Size:  req.Size,
		Total: len(ids),
	}, nil
}

// ValidateDocumentResponse is returned by the validate endpoint once the body
// passed the requested schema.
type ValidateDocumentResponse struct {
	ID       string `json:"id"`
	Valid    bool   `json:"valid"`
	Document any    `json:"document"`
}

// Prepare compiles a body schema for every registered shared schema. It must
// run at wiring time, before the registry freezes.
func (h *SchemaHandler) Prepare() error {
	ids := h.server.Schemas.IDs()
	h.bodies = make(map[string]validation.Schema, len(ids))

	for _, id := range ids {
		schema, err := h.server.Schemas.Schema(map[string]any{"$ref": id})
		if err != nil {
			return fmt.Errorf("failed to prepare schema %s: %w", id, err)
		}
		h.bodies[id] = schema
	}

	return nil
}

// ValidateDocument resolves the route for POST /schemas/:id/validate: the
// body is validated against the shared schema named by the path, and the
// normalized document is echoed back.
func (h *SchemaHandler) ValidateDocument(c echo.Context) (route.Route, error) {
	id := c.Param("id")

	schema, ok := h.bodies[id]
	if !ok {
		code := SchemaNotFoundCode
		return nil, errs.NewNotFoundError("Schema "+id+" not found", &code)
	}

	return route.Validated(func(c echo.Context, _ route.Next) (any, error) {
		document, err := request.Get(c, request.Body)
		if err != nil {
			return nil, err
		}

		return &ValidateDocumentResponse{
			ID:       id,
			Valid:    true,
			Document: document,
		}, nil
	}, validation.Set{request.Body: schema}), nil
}
