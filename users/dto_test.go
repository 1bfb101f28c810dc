package users

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/userinfo-go/apperror"
)

func TestValidate_AcceptsValidPayload(t *testing.T) {
	req := CreateUserRequest{Email: "alice@example.com", Username: "alice_99"}
	require.NoError(t, req.Validate())
	assert.Equal(t, "alice_99", req.Username)
	assert.Equal(t, "alice@example.com", req.Email)
}

func TestValidate_LowercasesUsername(t *testing.T) {
	req := CreateUserRequest{Email: "alice@example.com", Username: "Alice"}
	require.NoError(t, req.Validate())
	assert.Equal(t, "alice", req.Username)
}

func TestValidate_AllowsHyphenAndUnderscore(t *testing.T) {
	req := CreateUserRequest{Email: "bob@example.com", Username: "a-b_c9"}
	require.NoError(t, req.Validate())
	assert.Equal(t, "a-b_c9", req.Username)
}

func TestValidate_RejectsBadUsernames(t *testing.T) {
	tests := []struct {
		name     string
		username string
		wantMsg  string
	}{
		{"space", "bad name", "letters, numbers, hyphens, and underscores"},
		{"symbol", "bad!name", "letters, numbers, hyphens, and underscores"},
		{"dot", "bad.name", "letters, numbers, hyphens, and underscores"},
		{"too short", "ab", "at least 3"},
		{"too long", strings.Repeat("a", 51), "at most 50"},
		{"empty", "", "required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := CreateUserRequest{Email: "alice@example.com", Username: tt.username}
			err := req.Validate()
			require.Error(t, err)
			assert.True(t, apperror.IsValidationError(err))
			appErr, ok := apperror.FromError(err)
			require.True(t, ok)
			assert.Contains(t, appErr.Message, tt.wantMsg)
			assert.Contains(t, appErr.Message, "username")
		})
	}
}

func TestValidate_RejectsBadEmails(t *testing.T) {
	tests := []struct {
		name  string
		email string
	}{
		{"no at sign", "not-an-email"},
		{"no domain", "alice@"},
		{"empty", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := CreateUserRequest{Email: tt.email, Username: "alice"}
			err := req.Validate()
			require.Error(t, err)
			assert.True(t, apperror.IsValidationError(err))
			appErr, ok := apperror.FromError(err)
			require.True(t, ok)
			assert.Contains(t, appErr.Message, "email")
		})
	}
}

// Validation failures must not rewrite the username; only a fully valid
// payload is canonicalized.
func TestValidate_DoesNotNormalizeOnFailure(t *testing.T) {
	req := CreateUserRequest{Email: "not-an-email", Username: "Alice"}
	require.Error(t, req.Validate())
	assert.Equal(t, "Alice", req.Username)
}

func TestToResponse_CopiesAllFields(t *testing.T) {
	now := time.Date(2023, 1, 15, 10, 30, 0, 0, time.UTC)
	u := &User{ID: 7, Email: "a@x.com", Username: "alice", CreatedAt: now, UpdatedAt: now}

	resp := toResponse(u)
	assert.Equal(t, u.ID, resp.ID)
	assert.Equal(t, u.Email, resp.Email)
	assert.Equal(t, u.Username, resp.Username)
	assert.Equal(t, u.CreatedAt, resp.CreatedAt)
	assert.Equal(t, u.UpdatedAt, resp.UpdatedAt)
}
