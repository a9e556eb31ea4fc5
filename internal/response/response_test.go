package response

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/deppfellow/routekit/internal/errs"
	"github.com/deppfellow/routekit/internal/request"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixed = time.Date(2024, 3, 1, 12, 30, 45, 123_000_000, time.UTC)

func newBuilder() *Builder {
	return NewBuilder(WithClock(func() time.Time { return fixed }))
}

func newContext(buf *bytes.Buffer) echo.Context {
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/things?x=1", nil), httptest.NewRecorder())
	logger := zerolog.New(buf)
	c.Set(request.LoggerKey, &logger)
	return c
}

func TestBuilder_Success(t *testing.T) {
	b := newBuilder()

	env := b.Success(map[string]string{"foo": "bar"}, 0)

	assert.Equal(t, http.StatusOK, env.Code)
	assert.Equal(t, "OK", env.Status)
	assert.Equal(t, "2024-03-01T12:30:45.123Z", env.DateTime)
	assert.Equal(t, fixed.UnixMilli(), env.Timestamp)
	assert.Equal(t, map[string]string{"foo": "bar"}, env.Data)
}

func TestBuilder_Success_OmitsEmptyData(t *testing.T) {
	b := newBuilder()

	for _, v := range []any{nil, "", false, 0, 0.0, (*int)(nil), map[string]any(nil)} {
		env := b.Success(v, http.StatusNoContent)

		raw, err := json.Marshal(env)
		require.NoError(t, err)
		assert.NotContains(t, string(raw), `"data"`)
		assert.Equal(t, http.StatusNoContent, env.Code)
	}
}

func TestBuilder_Failure(t *testing.T) {
	t.Run("generated block carries the message", func(t *testing.T) {
		var logs bytes.Buffer
		env, classified := newBuilder().Failure(newContext(&logs), errs.New("boom", http.StatusServiceUnavailable, nil), 0)

		assert.Equal(t, http.StatusServiceUnavailable, env.Code)
		assert.Equal(t, "boom", classified.Message)

		block, ok := env.Data.(Envelope)
		require.True(t, ok)
		assert.Equal(t, "boom", block.Data)
		assert.Equal(t, "Service Unavailable", block.Status)
		assert.Equal(t, http.StatusServiceUnavailable, block.Code)

		assert.Contains(t, logs.String(), "500+ error: boom")
		assert.Contains(t, logs.String(), "/things?x=1")
	})

	t.Run("custom payload is the whole data", func(t *testing.T) {
		var logs bytes.Buffer
		c := newContext(&logs)
		c.Set(request.UserIDKey, "user-7")

		env, _ := newBuilder().Failure(c, errs.New("boom", 0, map[string]any{"foo": "bar"}), 0)

		assert.Equal(t, http.StatusInternalServerError, env.Code)
		assert.Equal(t, map[string]any{"foo": "bar"}, env.Data)
		assert.Contains(t, logs.String(), "user-7")
		assert.Contains(t, logs.String(), `"data":{"foo":"bar"}`)
	})

	t.Run("client errors are not logged", func(t *testing.T) {
		var logs bytes.Buffer
		env, _ := newBuilder().Failure(newContext(&logs), errs.NewBadRequestError("nope", nil, nil, nil), 0)

		assert.Equal(t, http.StatusBadRequest, env.Code)
		assert.Empty(t, logs.String())
	})

	t.Run("override replaces the status", func(t *testing.T) {
		var logs bytes.Buffer
		env, _ := newBuilder().Failure(newContext(&logs), errors.New("kaput"), http.StatusTeapot)

		assert.Equal(t, http.StatusTeapot, env.Code)
		assert.Equal(t, "kaput", env.Data.(Envelope).Data)
	})
}

func TestMeaningful(t *testing.T) {
	assert.True(t, Meaningful(map[string]any{}))
	assert.True(t, Meaningful([]int{}))
	assert.True(t, Meaningful("x"))
	assert.True(t, Meaningful(1))
	assert.True(t, Meaningful(true))
	assert.True(t, Meaningful(struct{}{}))

	assert.False(t, Meaningful(nil))
	assert.False(t, Meaningful(""))
	assert.False(t, Meaningful(0))
	assert.False(t, Meaningful(false))
	assert.False(t, Meaningful([]int(nil)))
}

func TestIsValidStatus(t *testing.T) {
	assert.True(t, IsValidStatus(http.StatusCreated))
	assert.False(t, IsValidStatus(999))
	assert.False(t, IsValidStatus(0))
}

func TestNoticeError_WithoutTransaction(t *testing.T) {
	var logs bytes.Buffer
	assert.NotPanics(t, func() {
		NoticeError(newContext(&logs), errors.New("kaput"))
	})
}
