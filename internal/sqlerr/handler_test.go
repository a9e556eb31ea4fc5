package sqlerr

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/deppfellow/routekit/internal/errs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslate_PgErrors(t *testing.T) {
	tests := []struct {
		name       string
		pgErr      *pgconn.PgError
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{
			name:       "unique violation names the column",
			pgErr:      &pgconn.PgError{Code: "23505", TableName: "users", ConstraintName: "users_email_key"},
			wantStatus: http.StatusBadRequest,
			wantCode:   "USER_ALREADY_EXISTS",
			wantMsg:    "A User with this Email already exists",
		},
		{
			name:       "foreign key violation",
			pgErr:      &pgconn.PgError{Code: "23503", TableName: "posts", ColumnName: "author_id"},
			wantStatus: http.StatusBadRequest,
			wantCode:   "POST_NOT_FOUND",
			wantMsg:    "The referenced Author does not exist",
		},
		{
			name:       "not null violation",
			pgErr:      &pgconn.PgError{Code: "23502", TableName: "users", ColumnName: "first_name"},
			wantStatus: http.StatusBadRequest,
			wantCode:   "USER_REQUIRED",
			wantMsg:    "The First Name is required",
		},
		{
			name:       "other driver error",
			pgErr:      &pgconn.PgError{Code: "57014"},
			wantStatus: http.StatusInternalServerError,
			wantCode:   "INTERNAL_SERVER_ERROR",
			wantMsg:    "Internal Server Error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Translate(fmt.Errorf("insert: %w", tt.pgErr))

			var httpErr *errs.HTTPError
			require.True(t, errors.As(err, &httpErr))
			assert.Equal(t, tt.wantStatus, httpErr.Status)
			assert.Equal(t, tt.wantCode, httpErr.Code)
			assert.Equal(t, tt.wantMsg, httpErr.Message)
		})
	}
}

func TestTranslate_NoRows(t *testing.T) {
	err := Translate(fmt.Errorf("table:users: %w", pgx.ErrNoRows))

	var httpErr *errs.HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusNotFound, httpErr.Status)
	assert.Equal(t, "User not found", httpErr.Message)

	err = Translate(sql.ErrNoRows)
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, "Resource not found", httpErr.Message)
}

func TestTranslate_PassThrough(t *testing.T) {
	plain := errors.New("plain")
	assert.Same(t, plain, Translate(plain))
	assert.False(t, IsDriverError(plain))
	assert.True(t, IsDriverError(sql.ErrNoRows))
}
