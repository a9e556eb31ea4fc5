// Package exception classifies any failure value into one kind of a closed
// taxonomy and projects it to a Classified value.
//
// Classification walks an ordered list of (predicate, projector) pairs; the
// first match wins and its projection is merged over the Unknown default, so
// every classification has a status, a name and a message.
package exception

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/deppfellow/routekit/internal/errs"
	"github.com/deppfellow/routekit/internal/lib/remote"
	"github.com/deppfellow/routekit/internal/sqlerr"
	"github.com/labstack/echo/v4"
)

// Kind identifies which classifier matched.
type Kind int

const (
	KindUnknown Kind = iota
	KindDomain
	KindTransport
	KindRemote
	KindSyntax
	KindRuntime
)

func (k Kind) String() string {
	switch k {
	case KindDomain:
		return "domain"
	case KindTransport:
		return "transport"
	case KindRemote:
		return "remote"
	case KindSyntax:
		return "syntax"
	case KindRuntime:
		return "runtime"
	default:
		return "unknown"
	}
}

// Defaults of the Unknown classification.
const (
	DefaultStatus  = http.StatusInternalServerError
	DefaultName    = "UnknownError"
	DefaultMessage = "Unknown error"

	// UnexpectedMessage replaces the text of bare string failures.
	UnexpectedMessage = "Unexpected error"
)

// Classified is the normalized projection of a failure.
type Classified struct {
	StatusCode int
	Name       string
	Message    string
	Details    map[string]any
	Kind       Kind
}

// Default returns the Unknown classification.
func Default() Classified {
	return Classified{
		StatusCode: DefaultStatus,
		Name:       DefaultName,
		Message:    DefaultMessage,
		Kind:       KindUnknown,
	}
}

// merge overlays the non-zero fields of p.
func (c Classified) merge(p Classified) Classified {
	if p.StatusCode != 0 {
		c.StatusCode = p.StatusCode
	}
	if p.Name != "" {
		c.Name = p.Name
	}
	if p.Message != "" {
		c.Message = p.Message
	}
	if p.Details != nil {
		c.Details = p.Details
	}
	c.Kind = p.Kind
	return c
}

type classifier struct {
	kind    Kind
	project func(err error) (Classified, bool)
}

var classifiers = []classifier{
	{kind: KindDomain, project: domain},
	{kind: KindTransport, project: transport},
	{kind: KindRemote, project: remoteCall},
	{kind: KindSyntax, project: syntax},
	{kind: KindRuntime, project: runtime},
}

// Normalize applies the pre-classification steps: a bare string (or a pointer
// to one) becomes a domain error with the "Unexpected error" message, and
// database driver errors are translated into domain errors. Other values are
// returned unchanged.
func Normalize(v any) any {
	if v == nil {
		return nil
	}

	if err, ok := v.(error); ok {
		if sqlerr.IsDriverError(err) {
			return sqlerr.Translate(err)
		}
		return err
	}

	if text, ok := bareString(v); ok {
		return errs.New(UnexpectedMessage, 0, nil).WithCause(errors.New(text))
	}

	return v
}

// Classify resolves v to exactly one Classified.
func Classify(v any) Classified {
	err, ok := Normalize(v).(error)
	if !ok || err == nil {
		return Default()
	}

	for _, cl := range classifiers {
		if p, matched := cl.project(err); matched {
			p.Kind = cl.kind
			return Default().merge(p)
		}
	}

	return Default()
}

func bareString(v any) (string, bool) {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return "", false
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.String {
		return "", false
	}
	return rv.String(), true
}

func domain(err error) (Classified, bool) {
	var httpErr *errs.HTTPError
	if !errors.As(err, &httpErr) {
		return Classified{}, false
	}

	return Classified{
		StatusCode: httpErr.Status,
		Name:       httpErr.ErrorName(),
		Message:    httpErr.Message,
	}, true
}

func transport(err error) (Classified, bool) {
	var echoErr *echo.HTTPError
	if !errors.As(err, &echoErr) {
		return Classified{}, false
	}

	message := http.StatusText(echoErr.Code)
	switch msg := echoErr.Message.(type) {
	case string:
		message = msg
	case error:
		message = msg.Error()
	}

	return Classified{
		StatusCode: echoErr.Code,
		Name:       StatusName(echoErr.Code),
		Message:    message,
	}, true
}

func remoteCall(err error) (Classified, bool) {
	var remoteErr *remote.Error
	if !errors.As(err, &remoteErr) {
		return Classified{}, false
	}

	details := map[string]any{"code": remoteErr.Code}
	p := Classified{
		Name:    "RemoteError",
		Message: remoteErr.Message,
		Details: details,
	}
	if status, ok := remoteErr.Status(); ok {
		p.StatusCode = status
		details["statusText"] = remoteErr.Response.StatusText
	}

	return p, true
}

// syntax keeps parse failures at 500.
func syntax(err error) (Classified, bool) {
	var syntaxErr *json.SyntaxError
	if !errors.As(err, &syntaxErr) {
		return Classified{}, false
	}

	return Classified{
		StatusCode: http.StatusInternalServerError,
		Name:       "SyntaxError",
		Message:    syntaxErr.Error(),
	}, true
}

func runtime(err error) (Classified, bool) {
	name := "Error"
	var named interface{ Name() string }
	if errors.As(err, &named) && named.Name() != "" {
		name = named.Name()
	}

	return Classified{
		Name:    name,
		Message: err.Error(),
	}, true
}

// StatusName derives an error name from a status, e.g. 404 -> "NotFoundError".
func StatusName(status int) string {
	text := http.StatusText(status)
	if text == "" {
		return errs.DefaultName
	}

	var b strings.Builder
	for _, word := range strings.FieldsFunc(text, func(r rune) bool { return r == ' ' || r == '-' || r == '\'' }) {
		b.WriteString(word)
	}
	name := b.String()
	if !strings.HasSuffix(name, "Error") {
		name += "Error"
	}
	return name
}
