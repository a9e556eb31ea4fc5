// Package response builds the JSON envelopes written for successful and
// failed handler outcomes.
package response

import (
	"errors"
	"net/http"
	"reflect"
	"time"

	"github.com/deppfellow/routekit/internal/errs"
	"github.com/deppfellow/routekit/internal/exception"
	"github.com/deppfellow/routekit/internal/request"
	"github.com/labstack/echo/v4"
	"github.com/newrelic/go-agent/v3/integrations/nrpkgerrors"
	"github.com/newrelic/go-agent/v3/newrelic"
)

// Envelope is the success shape, also used for the generated error block.
type Envelope struct {
	Code      int    `json:"code"`
	Status    string `json:"status"`
	DateTime  string `json:"dateTime"`
	Timestamp int64  `json:"timestamp"`
	Data      any    `json:"data,omitempty"`
}

// ErrorEnvelope is the failure shape. Data is either the custom payload of a
// domain error or a generated Envelope carrying the message.
type ErrorEnvelope struct {
	Code int `json:"code"`
	Data any `json:"data"`
}

// Builder creates envelopes. The zero value is not usable; use NewBuilder.
type Builder struct {
	now func() time.Time
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithClock replaces the time source.
func WithClock(now func() time.Time) BuilderOption {
	return func(b *Builder) {
		b.now = now
	}
}

func NewBuilder(opts ...BuilderOption) *Builder {
	b := &Builder{now: time.Now}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Success wraps data. A zero code means 200. Data is dropped when it is not
// meaningful (see Meaningful).
func (b *Builder) Success(data any, code int) Envelope {
	if code == 0 {
		code = http.StatusOK
	}

	env := b.envelope(code)
	if Meaningful(data) {
		env.Data = data
	}
	return env
}

// Failure classifies failure and wraps it. A non-zero codeOverride replaces
// the classified status. Failures resolving to 500 or above are logged on the
// request logger.
func (b *Builder) Failure(c echo.Context, failure any, codeOverride int) (ErrorEnvelope, exception.Classified) {
	classified := exception.Classify(failure)

	code := classified.StatusCode
	if codeOverride != 0 {
		code = codeOverride
	}

	var payload any
	err, _ := exception.Normalize(failure).(error)
	var httpErr *errs.HTTPError
	if err != nil && errors.As(err, &httpErr) && httpErr.HasData() {
		payload = httpErr.Data
	}

	out := ErrorEnvelope{Code: code, Data: payload}
	if payload == nil {
		block := b.envelope(code)
		block.Data = classified.Message
		out.Data = block
	}

	if code >= http.StatusInternalServerError {
		logFailure(c, err, classified, code, payload)
	}

	return out, classified
}

func (b *Builder) envelope(code int) Envelope {
	now := b.now().UTC()

	return Envelope{
		Code:      code,
		Status:    http.StatusText(code),
		DateTime:  now.Format("2006-01-02T15:04:05.000Z07:00"),
		Timestamp: now.UnixMilli(),
	}
}

func logFailure(c echo.Context, err error, classified exception.Classified, code int, payload any) {
	if c == nil {
		return
	}

	event := request.Logger(c).Error().
		Str("url", c.Request().URL.String()).
		Int("status", code).
		Str("error_name", classified.Name)

	if userID := request.UserID(c); userID != "" {
		event = event.Str("user_id", userID)
	}
	if err != nil {
		event = event.Stack().Err(err)
	}
	if payload != nil {
		event = event.Interface("data", payload)
	}

	event.Msg("500+ error: " + classified.Message)

	if err == nil {
		err = newrelic.Error{Message: classified.Message, Class: classified.Name}
	}
	NoticeError(c, err)
}

// NoticeError records err on the request's New Relic transaction, if any.
func NoticeError(c echo.Context, err error) {
	if txn := newrelic.FromContext(c.Request().Context()); txn != nil {
		txn.NoticeError(nrpkgerrors.Wrap(err))
	}
}

// IsValidStatus reports whether code is a recognized HTTP status.
func IsValidStatus(code int) bool {
	return http.StatusText(code) != ""
}

// Meaningful reports whether v is worth sending: nil, nil pointers, maps,
// slices and interfaces, the empty string, false and numeric zero are not.
// Empty but non-nil maps and slices are.
func Meaningful(v any) bool {
	if v == nil {
		return false
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return !rv.IsNil()
	case reflect.String:
		return rv.Len() > 0
	case reflect.Bool:
		return rv.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return !rv.IsZero()
	default:
		return true
	}
}
