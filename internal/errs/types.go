package errs

import (
	"net/http"
	"strings"
)

// FieldError represents a field-level validation error.
// Example:
//
//	{ "field": "body", "error": "body: missing property 'name'" }
type FieldError struct {
	// Field is the field name/key the error relates to (e.g. "email" or a request part).
	Field string `json:"field"`

	// Error is the human-readable error message.
	Error string `json:"error"`
}

// ActionType is a string-based enum describing what the client should do.
type ActionType string

const (
	// ActionTypeRedirect tells the client it should redirect somewhere.
	// Usually "Value" holds the URL or route.
	ActionTypeRedirect ActionType = "redirect"
)

// Action describes an optional "what the client should do next" instruction.
type Action struct {
	Type    ActionType `json:"type"`
	Message string     `json:"message"`
	Value   string     `json:"value"`
}

// DefaultName is reported for domain errors that were not given a name.
const DefaultName = "HTTPError"

// HTTPError is the domain error raised by application code.
//
// Fields:
//   - Code: machine-friendly error code (e.g. "BAD_REQUEST").
//   - Message: human-friendly message.
//   - Status: HTTP status code, never zero once built by a constructor.
//   - Name: classification name reported to logs and the global error handler.
//   - Errors: list of per-field errors (validation).
//   - Action: client instruction (optional).
//   - Data: custom payload. When set it is written as the whole response body.
type HTTPError struct {
	Code    string       `json:"code"`
	Message string       `json:"message"`
	Status  int          `json:"status"`
	Name    string       `json:"name,omitempty"`
	Errors  []FieldError `json:"errors,omitempty"`
	Action  *Action      `json:"action,omitempty"`
	Data    any          `json:"-"`

	cause error
}

// Error makes *HTTPError satisfy the built-in error interface.
func (e *HTTPError) Error() string {
	return e.Message
}

// Is reports whether target is also a *HTTPError.
//
// It does NOT compare Code/Status, only the type.
func (e *HTTPError) Is(target error) bool {
	_, ok := target.(*HTTPError)

	return ok
}

// Unwrap returns the error this domain error was built from, if any.
func (e *HTTPError) Unwrap() error {
	return e.cause
}

// ErrorName returns the classification name, falling back to DefaultName.
func (e *HTTPError) ErrorName() string {
	if e.Name == "" {
		return DefaultName
	}
	return e.Name
}

// HasData reports whether a custom payload is attached.
func (e *HTTPError) HasData() bool {
	return e.Data != nil
}

// WithMessage returns a *copy* of this HTTPError with Message replaced.
func (e *HTTPError) WithMessage(message string) *HTTPError {
	clone := *e
	clone.Message = message

	return &clone
}

// WithData returns a copy of this HTTPError carrying data as its custom payload.
func (e *HTTPError) WithData(data any) *HTTPError {
	clone := *e
	clone.Data = data

	return &clone
}

// WithCause returns a copy of this HTTPError wrapping cause.
func (e *HTTPError) WithCause(cause error) *HTTPError {
	clone := *e
	clone.cause = cause

	return &clone
}

// MakeUpperCaseWithUnderscores converts a string into an UPPER_CASE_WITH_UNDERSCORES format.
//
// Example:
//
//	"Bad Request" -> "BAD_REQUEST"
func MakeUpperCaseWithUnderscores(str string) string {
	return strings.ToUpper(strings.ReplaceAll(str, " ", "_"))
}

// codeFor builds the default machine code for a status.
func codeFor(status int) string {
	text := http.StatusText(status)
	if text == "" {
		return "ERROR"
	}
	return MakeUpperCaseWithUnderscores(text)
}
