// Package users encapsulates user directory functionality: the record
// schema with its validation rules, the business logic for creating,
// listing, fetching and deleting users, and the HTTP handlers that expose
// those operations.
//
// This file defines the three payload shapes of a user record. They are
// deliberately three distinct plain structs with explicit conversion rather
// than a shared base: the creation input carries only client-supplied
// fields, the stored record adds the server-assigned ones, and the response
// view is what leaves the API.
package users

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/user/userinfo-go/apperror"
)

// usernamePattern restricts usernames to alphanumeric characters plus
// hyphen and underscore.
var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// validate is the shared validator instance for request payloads, with the
// custom username charset rule registered.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.RegisterValidation("username_chars", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	}); err != nil {
		panic(fmt.Sprintf("failed to register username validation: %v", err))
	}
	return v
}

// CreateUserRequest is the creation payload: the only fields a client may
// supply when registering a user.
type CreateUserRequest struct {
	// The email address of the user
	// example: "johndoe@example.com"
	Email string `json:"email" validate:"required,email"`
	// The desired username, 3-50 characters of letters, digits, hyphens
	// and underscores
	// example: "johndoe"
	Username string `json:"username" validate:"required,min=3,max=50,username_chars"`
}

// Validate checks the payload against the record schema and, on success,
// rewrites Username to its lowercased canonical form. Usernames are
// case-insensitive: "Alice" and "alice" name the same user.
func (r *CreateUserRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		var verrs validator.ValidationErrors
		if ok := asValidationErrors(err, &verrs); ok {
			return apperror.NewValidationError(describeFieldError(verrs[0]), err)
		}
		return apperror.NewValidationError("invalid user payload", err)
	}
	r.Username = strings.ToLower(r.Username)
	return nil
}

// asValidationErrors is a small wrapper so Validate reads linearly.
func asValidationErrors(err error, target *validator.ValidationErrors) bool {
	verrs, ok := err.(validator.ValidationErrors)
	if ok {
		*target = verrs
	}
	return ok
}

// describeFieldError turns the first field violation into a human-readable,
// field-level message.
func describeFieldError(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "username_chars":
		return fmt.Sprintf("%s can only contain letters, numbers, hyphens, and underscores", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

// User is the stored record: the creation fields plus everything the server
// assigns at insert time. The id is immutable once assigned, and updated_at
// is written once alongside created_at (there is no update operation).
type User struct {
	ID        int
	Email     string
	Username  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// UserResponse is the response view of a stored record.
// Timestamps serialize as ISO-8601 via the standard time.Time encoding.
type UserResponse struct {
	// The ID of the user
	// example: 1
	ID int `json:"id"`
	// The email address of the user
	// example: "johndoe@example.com"
	Email string `json:"email"`
	// The canonical (lowercased) username
	// example: "johndoe"
	Username string `json:"username"`
	// The time the user was created
	// example: "2023-01-15T10:30:00Z"
	CreatedAt time.Time `json:"created_at"`
	// The time the user was last updated; always equals created_at
	// example: "2023-01-15T10:30:00Z"
	UpdatedAt time.Time `json:"updated_at"`
}

// toResponse converts a stored record into its response view.
func toResponse(u *User) *UserResponse {
	return &UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Username:  u.Username,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// MessageResponse is a plain confirmation payload, used by the delete
// operation.
type MessageResponse struct {
	// example: "User deleted successfully"
	Message string `json:"message"`
}
