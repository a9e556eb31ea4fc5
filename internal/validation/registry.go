package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/labstack/echo/v4"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

// ErrRegistryFrozen is returned when schemas are added after the first
// request was validated.
var ErrRegistryFrozen = errors.New("schema registry is frozen")

// BaseURL is the location shared schemas and route schemas are resolved
// against, so a route schema can "$ref" a shared one by its id.
const BaseURL = "https://routekit.local/schemas/"

// Registry compiles and holds the schemas used by validation stages.
//
// Registration and compilation happen at wiring time; the registry freezes on
// the first validated request and the compiled schemas are read-only from then
// on, which makes them safe to share between concurrent requests.
type Registry struct {
	mu       sync.Mutex
	compiler *jsonschema.Compiler
	shared   map[string]any
	seq      int
	frozen   atomic.Bool
}

func NewRegistry() *Registry {
	compiler := jsonschema.NewCompiler()
	compiler.DefaultDraft(jsonschema.Draft2020)
	compiler.AssertFormat()

	return &Registry{
		compiler: compiler,
		shared:   make(map[string]any),
	}
}

// Register adds a shared schema document under id (e.g. "user.json").
// doc may be raw JSON ([]byte, string, json.RawMessage) or any value that
// marshals to a JSON schema.
func (r *Registry) Register(id string, doc any) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen.Load() {
		return ErrRegistryFrozen
	}
	if _, ok := r.shared[id]; ok {
		return fmt.Errorf("schema %q already registered", id)
	}

	parsed, err := decodeDocument(doc)
	if err != nil {
		return fmt.Errorf("schema %q: %w", id, err)
	}
	if err := r.compiler.AddResource(resolve(id), parsed); err != nil {
		return fmt.Errorf("schema %q: %w", id, err)
	}

	r.shared[id] = parsed
	return nil
}

// Compile compiles a route schema document.
func (r *Registry) Compile(doc any) (*jsonschema.Schema, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen.Load() {
		return nil, ErrRegistryFrozen
	}

	parsed, err := decodeDocument(doc)
	if err != nil {
		return nil, err
	}

	r.seq++
	location := fmt.Sprintf("%sroute-%d.json", BaseURL, r.seq)
	if err := r.compiler.AddResource(location, parsed); err != nil {
		return nil, err
	}

	schema, err := r.compiler.Compile(location)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}
	return schema, nil
}

// MustCompile is like Compile but panics on error. Meant for wiring code.
func (r *Registry) MustCompile(doc any) *jsonschema.Schema {
	schema, err := r.Compile(doc)
	if err != nil {
		panic(err)
	}
	return schema
}

// Schema builds a Schema from doc, see Compile.
func (r *Registry) Schema(doc any) (Schema, error) {
	compiled, err := r.Compile(doc)
	if err != nil {
		return Schema{}, err
	}
	return NewSchema(compiled), nil
}

// Lookup returns the document registered under id.
func (r *Registry) Lookup(id string) (any, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, ok := r.shared[id]
	return doc, ok
}

// IDs returns the registered shared schema ids.
func (r *Registry) IDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]string, 0, len(r.shared))
	for id := range r.shared {
		ids = append(ids, id)
	}
	return ids
}

// Freeze forbids further registration.
func (r *Registry) Freeze() {
	r.frozen.Store(true)
}

func (r *Registry) Frozen() bool {
	return r.frozen.Load()
}

// Validate freezes the registry and validates the request against set.
func (r *Registry) Validate(c echo.Context, set Set) error {
	if !r.frozen.Load() {
		r.Freeze()
	}
	return Validate(c, set)
}

func resolve(id string) string {
	if strings.Contains(id, "://") {
		return id
	}
	return BaseURL + strings.TrimPrefix(id, "/")
}

func decodeDocument(doc any) (any, error) {
	var raw []byte
	switch d := doc.(type) {
	case []byte:
		raw = d
	case json.RawMessage:
		raw = d
	case string:
		raw = []byte(d)
	default:
		b, err := json.Marshal(d)
		if err != nil {
			return nil, fmt.Errorf("invalid schema document: %w", err)
		}
		raw = b
	}

	parsed, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("invalid schema document: %w", err)
	}
	return parsed, nil
}
