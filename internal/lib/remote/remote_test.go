package remote

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Do_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"foo":"bar"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, WithHeader("Authorization", "secret"))

	var out map[string]string
	require.NoError(t, c.Do(context.Background(), http.MethodGet, "/thing", nil, &out))
	assert.Equal(t, "bar", out["foo"])
}

func TestClient_Do_RemoteStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	err := NewClient(srv.URL).Do(context.Background(), http.MethodPost, "/thing", map[string]int{"a": 1}, nil)

	var remoteErr *Error
	require.True(t, errors.As(err, &remoteErr))
	status, ok := remoteErr.Status()
	assert.True(t, ok)
	assert.Equal(t, http.StatusBadGateway, status)
	assert.Equal(t, CodeBadResponse, remoteErr.Code)
	assert.Equal(t, "Bad Gateway", remoteErr.Response.StatusText)
}

func TestClient_Do_NoResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	err := NewClient(url).Do(context.Background(), http.MethodGet, "/", nil, nil)

	var remoteErr *Error
	require.True(t, errors.As(err, &remoteErr))
	_, ok := remoteErr.Status()
	assert.False(t, ok)
	assert.Equal(t, CodeConnection, remoteErr.Code)
}
