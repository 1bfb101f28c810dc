package apperror

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want int
	}{
		{"conflict maps to 400", NewConflictError("dup", nil), http.StatusBadRequest},
		{"validation maps to 422", NewValidationError("bad", nil), http.StatusUnprocessableEntity},
		{"not found maps to 404", NewNotFoundError("missing", nil), http.StatusNotFound},
		{"bad request maps to 400", NewBadRequestError("bad", nil), http.StatusBadRequest},
		{"database maps to 500", NewDatabaseError("db", nil), http.StatusInternalServerError},
		{"internal maps to 500", NewInternalError("oops", nil), http.StatusInternalServerError},
		{"config maps to 500", NewConfigError("cfg", nil), http.StatusInternalServerError},
		{"unknown maps to 500", NewAppError(UnknownError, "?", nil), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.StatusCode())
		})
	}
}

func TestError_IncludesUnderlyingCause(t *testing.T) {
	plain := NewNotFoundError("User not found", nil)
	assert.Equal(t, "User not found", plain.Error())

	wrapped := NewDatabaseError("query failed", errors.New("connection reset"))
	assert.Equal(t, "query failed: connection reset", wrapped.Error())
}

func TestUnwrap_SupportsErrorsChain(t *testing.T) {
	cause := errors.New("root cause")
	appErr := NewDatabaseError("query failed", cause)
	assert.True(t, errors.Is(appErr, cause))

	// Type checks survive further wrapping with %w.
	rewrapped := fmt.Errorf("handler: %w", NewConflictError("dup", nil))
	assert.True(t, IsConflictError(rewrapped))
	assert.False(t, IsNotFound(rewrapped))
}

func TestToResponse_HidesUnderlyingError(t *testing.T) {
	appErr := NewDatabaseError("Failed to fetch users", errors.New("password=hunter2"))
	resp := appErr.ToResponse()
	assert.Equal(t, "Failed to fetch users", resp.Error)
}

func TestFromError(t *testing.T) {
	_, ok := FromError(nil)
	assert.False(t, ok)

	_, ok = FromError(errors.New("plain"))
	assert.False(t, ok)

	appErr, ok := FromError(fmt.Errorf("wrap: %w", NewValidationError("bad", nil)))
	require.True(t, ok)
	assert.Equal(t, ValidationError, appErr.Type)
}

func TestWriteError_AppError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, NewConflictError("Email already registered", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Email already registered", resp.Error)
}

func TestWriteError_PlainErrorBecomesInternal(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, errors.New("secret diagnostic"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	// The raw cause never leaks to the client.
	assert.Equal(t, "internal server error", resp.Error)
}

func TestTypePredicates(t *testing.T) {
	assert.True(t, IsNotFound(NewNotFoundError("x", nil)))
	assert.True(t, IsValidationError(NewValidationError("x", nil)))
	assert.True(t, IsConflictError(NewConflictError("x", nil)))

	assert.False(t, IsNotFound(NewConflictError("x", nil)))
	assert.False(t, IsValidationError(nil))
	assert.False(t, IsConflictError(errors.New("plain")))
}
