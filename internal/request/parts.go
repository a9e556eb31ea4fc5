package request

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/labstack/echo/v4"
)

// Part names one independently addressable section of a request.
type Part string

const (
	Params       Part = "PARAMS"
	Query        Part = "QUERY"
	Headers      Part = "HEADERS"
	Body         Part = "BODY"
	ResponseBody Part = "RESPONSE_BODY" // documentation only, never read from a request
)

// Order is the order in which parts are validated.
var Order = []Part{Params, Query, Headers, Body}

// Var is the lower-case name used in messages, e.g. "body".
func (p Part) Var() string {
	switch p {
	case Params:
		return "params"
	case Query:
		return "query"
	case Headers:
		return "headers"
	case Body:
		return "body"
	case ResponseBody:
		return "response_body"
	default:
		return strings.ToLower(string(p))
	}
}

// Valid reports whether p is a known part.
func (p Part) Valid() bool {
	switch p {
	case Params, Query, Headers, Body, ResponseBody:
		return true
	}
	return false
}

const (
	normalizedKeyPrefix = "routekit.part."
	bodyCacheKey        = "routekit.body"
)

type parsedBody struct {
	data any
	err  error
}

// Get returns the data of part p.
//
// Params, query and headers are returned as map[string]any. Query values
// repeated in the URL become []any. Header names are lower-cased and repeated
// values joined with ", ". The body is decoded once per request: JSON bodies
// as generic JSON values, form bodies like the query. Malformed JSON yields the
// decoder's *json.SyntaxError untouched.
func Get(c echo.Context, p Part) (any, error) {
	if data, ok := normalized(c, p); ok {
		return data, nil
	}

	switch p {
	case Params:
		names, values := c.ParamNames(), c.ParamValues()
		params := make(map[string]any, len(names))
		for i, name := range names {
			if i < len(values) {
				params[name] = values[i]
			}
		}
		return params, nil
	case Query:
		return fromValues(c.QueryParams()), nil
	case Headers:
		header := c.Request().Header
		headers := make(map[string]any, len(header))
		for name, values := range header {
			headers[strings.ToLower(name)] = strings.Join(values, ", ")
		}
		return headers, nil
	case Body:
		return body(c)
	default:
		return nil, fmt.Errorf("request part %q cannot be read", p)
	}
}

// Set stores normalized data for part p. Subsequent Get calls return it.
func Set(c echo.Context, p Part, data any) {
	c.Set(normalizedKeyPrefix+string(p), data)
}

// Decode decodes part p into out, converting loosely typed values (numeric
// strings, single values into slices) the way query and header data needs.
// Field names are taken from `json` tags.
func Decode(c echo.Context, p Part, out any) error {
	data, err := Get(c, p)
	if err != nil {
		return err
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		TagName:          "json",
		Result:           out,
	})
	if err != nil {
		return fmt.Errorf("failed to create %s decoder: %w", p.Var(), err)
	}

	if err := decoder.Decode(data); err != nil {
		return fmt.Errorf("failed to decode %s: %w", p.Var(), err)
	}

	return nil
}

func normalized(c echo.Context, p Part) (any, bool) {
	data := c.Get(normalizedKeyPrefix + string(p))
	return data, data != nil
}

func fromValues(values map[string][]string) map[string]any {
	out := make(map[string]any, len(values))
	for key, vs := range values {
		if len(vs) == 1 {
			out[key] = vs[0]
			continue
		}
		list := make([]any, len(vs))
		for i, v := range vs {
			list[i] = v
		}
		out[key] = list
	}
	return out
}

func body(c echo.Context) (any, error) {
	if cached, ok := c.Get(bodyCacheKey).(*parsedBody); ok {
		return cached.data, cached.err
	}

	parsed := &parsedBody{}
	parsed.data, parsed.err = readBody(c)
	c.Set(bodyCacheKey, parsed)

	return parsed.data, parsed.err
}

func readBody(c echo.Context) (any, error) {
	req := c.Request()
	contentType := req.Header.Get(echo.HeaderContentType)

	if strings.HasPrefix(contentType, echo.MIMEApplicationForm) || strings.HasPrefix(contentType, echo.MIMEMultipartForm) {
		form, err := c.FormParams()
		if err != nil {
			return nil, err
		}
		return fromValues(form), nil
	}

	if req.Body == nil {
		return map[string]any{}, nil
	}

	raw, err := io.ReadAll(req.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read request body: %w", err)
	}
	// Leave the body readable for c.Bind.
	req.Body = io.NopCloser(bytes.NewReader(raw))

	if len(bytes.TrimSpace(raw)) == 0 {
		return map[string]any{}, nil
	}

	var data any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, err
	}
	return data, nil
}
