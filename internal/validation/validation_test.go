package validation

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/deppfellow/routekit/internal/errs"
	"github.com/deppfellow/routekit/internal/request"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newContext(method, target, body string) echo.Context {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	return echo.New().NewContext(req, httptest.NewRecorder())
}

func mustSchema(t *testing.T, r *Registry, doc string) Schema {
	t.Helper()
	s, err := r.Schema(doc)
	require.NoError(t, err)
	return s
}

func TestValidate_BodyMissingProperty(t *testing.T) {
	r := NewRegistry()
	set := Set{request.Body: mustSchema(t, r, `{"type":"object","required":["name"],"properties":{"name":{"type":"string"}}}`)}

	err := r.Validate(newContext(http.MethodPost, "/", `{}`), set)

	var httpErr *errs.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.Status)
	assert.Equal(t, "ValidationError", httpErr.Name)
	assert.True(t, strings.HasPrefix(httpErr.Message, "body"))
	assert.Contains(t, httpErr.Message, "name")
	assert.Equal(t, map[string]any{"errors": httpErr.Message}, httpErr.Data)
	require.Len(t, httpErr.Errors, 1)
	assert.Equal(t, "body", httpErr.Errors[0].Field)
}

func TestValidate_CoercesAndDefaults(t *testing.T) {
	r := NewRegistry()
	set := Set{
		request.Query: mustSchema(t, r, `{
			"type":"object",
			"properties":{
				"page":{"type":"integer","default":1},
				"size":{"type":"integer","default":20},
				"active":{"type":"boolean"},
				"tags":{"type":"array","items":{"type":"string"}}
			}
		}`),
	}
	c := newContext(http.MethodGet, "/?page=3&active=true&tags=a", "")

	require.NoError(t, r.Validate(c, set))

	query, err := request.Get(c, request.Query)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"page":   float64(3),
		"size":   float64(20),
		"active": true,
		"tags":   []any{"a"},
	}, query)
}

func TestValidate_OrderStopsAtFirstInvalidPart(t *testing.T) {
	r := NewRegistry()
	set := Set{
		request.Params:       mustSchema(t, r, `{"type":"object","properties":{"id":{"type":"integer"}}}`),
		request.Body:         mustSchema(t, r, `{"type":"object","required":["name"]}`),
		request.ResponseBody: mustSchema(t, r, `{"type":"string"}`),
	}
	c := newContext(http.MethodPost, "/things/abc", `{}`)
	c.SetParamNames("id")
	c.SetParamValues("abc")

	err := r.Validate(c, set)

	var httpErr *errs.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.True(t, strings.HasPrefix(httpErr.Message, "params/id"), httpErr.Message)
	assert.Equal(t, "params", httpErr.Errors[0].Field)
}

func TestValidate_PartFailuresAre400(t *testing.T) {
	tests := []struct {
		name       string
		part       request.Part
		schema     string
		target     string
		header     http.Header
		wantPrefix string
		wantData   any
	}{
		{
			name:       "missing required header",
			part:       request.Headers,
			schema:     `{"type":"object","required":["x-version"],"properties":{"x-version":{"type":"integer"}}}`,
			target:     "/",
			wantPrefix: "headers: missing property 'x-version'",
		},
		{
			name:       "non numeric header",
			part:       request.Headers,
			schema:     `{"type":"object","required":["x-version"],"properties":{"x-version":{"type":"integer"}}}`,
			target:     "/",
			header:     http.Header{"X-Version": {"abc"}},
			wantPrefix: "headers/x-version",
		},
		{
			name:       "header coerced to integer",
			part:       request.Headers,
			schema:     `{"type":"object","required":["x-version"],"properties":{"x-version":{"type":"integer"}}}`,
			target:     "/",
			header:     http.Header{"X-Version": {"2"}},
			wantData:   float64(2),
		},
		{
			name:       "query below minimum",
			part:       request.Query,
			schema:     `{"type":"object","properties":{"size":{"type":"integer","minimum":1}}}`,
			target:     "/?size=0",
			wantPrefix: "query/size",
		},
		{
			name:       "missing required query value",
			part:       request.Query,
			schema:     `{"type":"object","required":["q"]}`,
			target:     "/?page=1",
			wantPrefix: "query: missing property 'q'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRegistry()
			set := Set{tt.part: mustSchema(t, r, tt.schema)}
			c := newContext(http.MethodGet, tt.target, "")
			for k, v := range tt.header {
				c.Request().Header[k] = v
			}

			err := r.Validate(c, set)

			if tt.wantPrefix == "" {
				require.NoError(t, err)
				headers, getErr := request.Get(c, request.Headers)
				require.NoError(t, getErr)
				assert.Equal(t, tt.wantData, headers.(map[string]any)["x-version"])
				return
			}

			var httpErr *errs.HTTPError
			require.ErrorAs(t, err, &httpErr)
			assert.Equal(t, http.StatusBadRequest, httpErr.Status)
			assert.True(t, strings.HasPrefix(httpErr.Message, tt.wantPrefix), httpErr.Message)
			assert.Equal(t, tt.part.Var(), httpErr.Errors[0].Field)
		})
	}
}

func TestValidate_MalformedBody(t *testing.T) {
	r := NewRegistry()
	set := Set{request.Body: mustSchema(t, r, `{"type":"object"}`)}

	err := r.Validate(newContext(http.MethodPost, "/", `{"name":`), set)

	var httpErr *errs.HTTPError
	assert.False(t, errors.As(err, &httpErr))
	assert.Error(t, err)
}

func TestValidate_Transform(t *testing.T) {
	r := NewRegistry()
	base := mustSchema(t, r, `{"type":"object","properties":{"name":{"type":"string","minLength":1}}}`)

	t.Run("applied", func(t *testing.T) {
		trim := base.WithTransform(func(data any) (any, error) {
			m := data.(map[string]any)
			m["name"] = strings.TrimSpace(m["name"].(string))
			return m, nil
		})
		c := newContext(http.MethodPost, "/", `{"name":"  ada  "}`)

		require.NoError(t, r.Validate(c, Set{request.Body: trim}))

		body, _ := request.Get(c, request.Body)
		assert.Equal(t, "ada", body.(map[string]any)["name"])
	})

	t.Run("failure is swallowed", func(t *testing.T) {
		broken := base.WithTransform(func(data any) (any, error) {
			return nil, errors.New("bad input")
		})
		require.NoError(t, r.Validate(newContext(http.MethodPost, "/", `{"name":"ada"}`), Set{request.Body: broken}))
	})

	t.Run("panic is swallowed", func(t *testing.T) {
		panicky := base.WithTransform(func(data any) (any, error) {
			panic("boom")
		})

		err := r.Validate(newContext(http.MethodPost, "/", `{"name":""}`), Set{request.Body: panicky})

		var httpErr *errs.HTTPError
		require.ErrorAs(t, err, &httpErr)
		assert.Equal(t, http.StatusBadRequest, httpErr.Status)
	})
}

func TestRegistry_SharedSchemaRef(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("user.json", `{"type":"object","required":["email"],"properties":{"email":{"type":"string"}}}`))

	set := Set{request.Body: mustSchema(t, r, `{"$ref":"user.json"}`)}

	require.NoError(t, r.Validate(newContext(http.MethodPost, "/", `{"email":"a@b.c"}`), set))
	assert.Error(t, Validate(newContext(http.MethodPost, "/", `{}`), set))

	doc, ok := r.Lookup("user.json")
	assert.True(t, ok)
	assert.NotNil(t, doc)
	assert.Equal(t, []string{"user.json"}, r.IDs())
}

func TestRegistry_Frozen(t *testing.T) {
	r := NewRegistry()
	set := Set{request.Query: mustSchema(t, r, `{"type":"object"}`)}

	assert.False(t, r.Frozen())
	require.NoError(t, r.Validate(newContext(http.MethodGet, "/", ""), set))
	assert.True(t, r.Frozen())

	assert.ErrorIs(t, r.Register("late.json", `{}`), ErrRegistryFrozen)
	_, err := r.Compile(`{}`)
	assert.ErrorIs(t, err, ErrRegistryFrozen)
}

func TestRegistry_ConcurrentValidation(t *testing.T) {
	r := NewRegistry()
	set := Set{request.Query: mustSchema(t, r, `{"type":"object","properties":{"n":{"type":"integer"}}}`)}

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, r.Validate(newContext(http.MethodGet, "/?n=4", ""), set))
		}()
	}
	wg.Wait()
}

func TestRegistry_Errors(t *testing.T) {
	r := NewRegistry()

	require.NoError(t, r.Register("a.json", `{}`))
	assert.Error(t, r.Register("a.json", `{}`))
	assert.Error(t, r.Register("b.json", `{not json`))
	assert.Panics(t, func() { r.MustCompile(`{"type":12}`) })
}
