package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/deppfellow/routekit/internal/errs"
	"github.com/deppfellow/routekit/internal/request"
	"github.com/labstack/echo/v4"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// TransformFunc normalizes part data before validation.
type TransformFunc func(data any) (any, error)

// Schema is a compiled schema for one request part, optionally preceded by a
// transform.
type Schema struct {
	compiled  *jsonschema.Schema
	transform TransformFunc
}

func NewSchema(compiled *jsonschema.Schema) Schema {
	return Schema{compiled: compiled}
}

// WithTransform returns a copy of s running fn before validation.
func (s Schema) WithTransform(fn TransformFunc) Schema {
	s.transform = fn
	return s
}

// Set maps request parts to their schemas. RESPONSE_BODY entries document the
// response and are never checked.
type Set map[request.Part]Schema

var printer = message.NewPrinter(language.English)

// Validate validates the parts declared in set in the order params, query,
// headers, body and stops at the first invalid part. Normalized data of each
// valid part is stored back on the request.
func Validate(c echo.Context, set Set) error {
	for _, part := range request.Order {
		schema, ok := set[part]
		if !ok || schema.compiled == nil {
			continue
		}

		data, err := request.Get(c, part)
		if err != nil {
			return err
		}

		data = schema.apply(data)
		data = normalize(schema.compiled, data, part == request.Query)

		if err := schema.compiled.Validate(data); err != nil {
			text := describe(part, err)
			return errs.ValidationError(part.Var(), text, map[string]any{"errors": text})
		}

		request.Set(c, part, data)
	}

	return nil
}

// apply runs the transform. Failures keep the untransformed data so that bad
// input surfaces as an ordinary validation failure.
func (s Schema) apply(data any) (out any) {
	if s.transform == nil {
		return data
	}

	defer func() {
		if recover() != nil {
			out = data
		}
	}()

	transformed, err := s.transform(data)
	if err != nil {
		return data
	}
	return transformed
}

// describe renders every violation, e.g. "body: missing property 'name'".
func describe(part request.Part, err error) string {
	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return fmt.Sprintf("%s: %s", part.Var(), err)
	}

	var messages []string
	collect(verr, func(leaf *jsonschema.ValidationError) {
		location := part.Var()
		if len(leaf.InstanceLocation) > 0 {
			location += "/" + strings.Join(leaf.InstanceLocation, "/")
		}
		messages = append(messages, fmt.Sprintf("%s: %s", location, leaf.ErrorKind.LocalizedString(printer)))
	})

	return strings.Join(messages, ", ")
}

func collect(verr *jsonschema.ValidationError, leaf func(*jsonschema.ValidationError)) {
	if len(verr.Causes) == 0 {
		leaf(verr)
		return
	}
	for _, cause := range verr.Causes {
		collect(cause, leaf)
	}
}
