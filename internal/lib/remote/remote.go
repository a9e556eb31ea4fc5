// Package remote is a small JSON client for calling other HTTP services.
//
// Every failure it returns is a *Error so the exception taxonomy can report
// the remote status and a machine-readable code instead of a generic 500.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

// Error codes reported when no response was received.
const (
	CodeTimeout      = "ETIMEDOUT"
	CodeConnection   = "ECONNREFUSED"
	CodeBadResponse  = "ERR_BAD_RESPONSE"
	CodeBadRequest   = "ERR_BAD_REQUEST"
	CodeCanceled     = "ERR_CANCELED"
	CodeInvalidInput = "ERR_INVALID_INPUT"
)

// Response is the part of a remote response kept on an Error.
type Response struct {
	Status     int
	StatusText string
	Body       []byte
}

// Error is a failed call to another service.
// Response is nil when the request never produced a response.
type Error struct {
	Code     string
	Message  string
	Method   string
	URL      string
	Response *Response

	cause error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Status returns the remote status code and whether a response was received.
func (e *Error) Status() (int, bool) {
	if e.Response == nil {
		return 0, false
	}
	return e.Response.Status, true
}

// Client performs JSON requests against a base URL.
type Client struct {
	baseURL    string
	httpClient *http.Client
	header     http.Header
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout of the underlying http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithHeader adds a header sent with every request.
func WithHeader(key, value string) Option {
	return func(c *Client) {
		c.header.Add(key, value)
	}
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a Client for baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		header:     http.Header{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do sends in (JSON encoded, may be nil) and decodes a 2xx response into out (may be nil).
func (c *Client) Do(ctx context.Context, method, path string, in, out any) error {
	url := c.baseURL + path

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return &Error{Code: CodeInvalidInput, Message: err.Error(), Method: method, URL: url, cause: err}
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return &Error{Code: CodeInvalidInput, Message: err.Error(), Method: method, URL: url, cause: err}
	}
	for key, values := range c.header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &Error{Code: transportCode(err), Message: err.Error(), Method: method, URL: url, cause: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Code: CodeBadResponse, Message: err.Error(), Method: method, URL: url, cause: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		code := CodeBadResponse
		if resp.StatusCode < 500 {
			code = CodeBadRequest
		}
		return &Error{
			Code:    code,
			Message: fmt.Sprintf("request failed with status code %d", resp.StatusCode),
			Method:  method,
			URL:     url,
			Response: &Response{
				Status:     resp.StatusCode,
				StatusText: http.StatusText(resp.StatusCode),
				Body:       raw,
			},
		}
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &Error{
			Code:     CodeBadResponse,
			Message:  err.Error(),
			Method:   method,
			URL:      url,
			Response: &Response{Status: resp.StatusCode, StatusText: http.StatusText(resp.StatusCode), Body: raw},
			cause:    err,
		}
	}

	return nil
}

func transportCode(err error) string {
	if errors.Is(err, context.Canceled) {
		return CodeCanceled
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return CodeTimeout
	}
	return CodeConnection
}
