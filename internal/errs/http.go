package errs

import (
	"net/http"
)

// New creates a domain error with an explicit status and optional custom payload.
//
// A zero status means "not specified" and resolves to 500, so
//
//	errs.New("boom", 0, map[string]any{"foo": "bar"})
//
// answers 500 with {"foo":"bar"} as the whole body.
func New(message string, status int, data any) *HTTPError {
	if status == 0 {
		status = http.StatusInternalServerError
	}

	return &HTTPError{
		Code:    codeFor(status),
		Message: message,
		Status:  status,
		Data:    data,
	}
}

// Wrap builds a domain error from err, keeping err as the cause.
func Wrap(err error, status int) *HTTPError {
	return New(err.Error(), status, nil).WithCause(err)
}

// NewUnauthorizedError creates a 401 Unauthorized HTTPError.
func NewUnauthorizedError(message string) *HTTPError {
	return New(message, http.StatusUnauthorized, nil)
}

// NewForbiddenError creates a 403 Forbidden HTTPError.
func NewForbiddenError(message string) *HTTPError {
	return New(message, http.StatusForbidden, nil)
}

// NewBadRequestError creates a 400 Bad Request HTTPError.
//
// This supports extra payload:
//   - code: optional custom code string (if nil, defaults to "BAD_REQUEST")
//   - errors: optional slice of field errors (validation errors)
//   - action: optional client instruction (e.g. redirect)
func NewBadRequestError(message string, code *string, errors []FieldError, action *Action) *HTTPError {
	err := New(message, http.StatusBadRequest, nil)

	// Note: this assumes the caller already formatted the code the way they want.
	if code != nil {
		err.Code = *code
	}
	err.Errors = errors
	err.Action = action

	return err
}

// NewNotFoundError creates a 404 Not Found HTTPError.
func NewNotFoundError(message string, code *string) *HTTPError {
	err := New(message, http.StatusNotFound, nil)
	if code != nil {
		err.Code = *code
	}

	return err
}

// NewTooManyRequestsError creates a 429 Too Many Requests HTTPError.
func NewTooManyRequestsError(message string) *HTTPError {
	return New(message, http.StatusTooManyRequests, nil)
}

// NewServiceUnavailableError creates a 503 HTTPError carrying data as its body.
func NewServiceUnavailableError(message string, data any) *HTTPError {
	return New(message, http.StatusServiceUnavailable, data)
}

// NewInternalServerError creates a 500 Internal Server Error HTTPError.
//
// The message is the generic status text, not the real internal error message.
func NewInternalServerError() *HTTPError {
	return New(http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError, nil)
}

// ValidationError converts a validation failure into a 400 Bad Request HTTPError.
//
// The message is the combined human-readable text; part names the request
// part (or parameter) the failure is keyed by.
func ValidationError(part, message string, data any) *HTTPError {
	err := NewBadRequestError(message, nil, []FieldError{{Field: part, Error: message}}, nil)
	err.Name = "ValidationError"
	err.Data = data

	return err
}
