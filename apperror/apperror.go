// Package apperror defines a centralized system for application-specific
// errors. Service-layer code returns typed errors from this package and the
// HTTP layer maps them to status codes and a uniform JSON error body, so
// every endpoint reports failures the same way.
package apperror

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// ErrorType defines the type of application error.
type ErrorType int

const (
	// UnknownError is for unspecified errors
	UnknownError ErrorType = iota
	// DatabaseError represents an error originating from the database
	DatabaseError
	// ConfigError represents an error related to application configuration
	ConfigError
	// NotFoundError represents a resource not found error
	NotFoundError
	// ValidationError represents an input validation error
	ValidationError
	// BadRequestError represents a generic bad request
	BadRequestError
	// InternalError represents a generic internal server error
	InternalError
	// ConflictError represents a uniqueness conflict, e.g. an email or
	// username that is already registered
	ConflictError
)

// AppError is a custom error type for the application.
// It allows wrapping an underlying error (Err) for more detailed debugging
// while keeping the client-facing Message free of internals.
type AppError struct {
	Type    ErrorType
	Message string
	Err     error // Underlying error
}

// Error returns the string representation of the error, satisfying the
// standard error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error, allowing errors.Is and errors.As to
// inspect the chain of wrapped errors.
func (e *AppError) Unwrap() error {
	return e.Err
}

// StatusCode returns the HTTP status code appropriate for the error type.
//
// Conflicts map to 400 and validation failures to 422, matching the
// reference API behavior: a duplicate email is reported as a plain bad
// request with a human-readable reason, while a payload that fails schema
// validation is unprocessable.
func (e *AppError) StatusCode() int {
	switch e.Type {
	case DatabaseError:
		return http.StatusInternalServerError
	case ConfigError:
		return http.StatusInternalServerError
	case NotFoundError:
		return http.StatusNotFound
	case ValidationError:
		return http.StatusUnprocessableEntity
	case BadRequestError:
		return http.StatusBadRequest
	case InternalError:
		return http.StatusInternalServerError
	case ConflictError:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// NewAppError creates a new AppError. This is a generic constructor, useful
// when the error type is determined dynamically.
func NewAppError(errType ErrorType, message string, underlyingError error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Err:     underlyingError,
	}
}

// Constructor functions for specific error types. These provide a more
// readable and type-safe way to create common AppError values.

// NewDatabaseError creates a new DatabaseError
func NewDatabaseError(message string, underlyingError error) *AppError {
	return NewAppError(DatabaseError, message, underlyingError)
}

// NewConfigError creates a new ConfigError
func NewConfigError(message string, underlyingError error) *AppError {
	return NewAppError(ConfigError, message, underlyingError)
}

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(message string, underlyingError error) *AppError {
	return NewAppError(NotFoundError, message, underlyingError)
}

// NewValidationError creates a new ValidationError
func NewValidationError(message string, underlyingError error) *AppError {
	return NewAppError(ValidationError, message, underlyingError)
}

// NewBadRequestError creates a new BadRequestError
func NewBadRequestError(message string, underlyingError error) *AppError {
	return NewAppError(BadRequestError, message, underlyingError)
}

// NewInternalError creates a new InternalError
func NewInternalError(message string, underlyingError error) *AppError {
	return NewAppError(InternalError, message, underlyingError)
}

// NewConflictError creates a new ConflictError
func NewConflictError(message string, underlyingError error) *AppError {
	return NewAppError(ConflictError, message, underlyingError)
}

// ErrorResponse represents a generic error response payload for API clients.
type ErrorResponse struct {
	Error string `json:"error" example:"A description of the error"`
}

// ToResponse converts an AppError to an ErrorResponse suitable for API
// responses. Only the user-facing Message is included, never the underlying
// Err details.
func (e *AppError) ToResponse() ErrorResponse {
	return ErrorResponse{Error: e.Message}
}

// FromError attempts to convert a generic error to an *AppError.
// It returns the *AppError and true if successful, otherwise nil and false.
func FromError(err error) (*AppError, bool) {
	if err == nil {
		return nil, false
	}
	var ae *AppError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// WriteError writes err to w as a JSON error response with the status code
// appropriate for its type. Errors that are not AppError values are treated
// as internal errors so that unexpected failures never leak details beyond
// a generic message.
func WriteError(w http.ResponseWriter, err error) {
	appErr, ok := FromError(err)
	if !ok {
		appErr = NewInternalError("internal server error", err)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.StatusCode())
	if encErr := json.NewEncoder(w).Encode(appErr.ToResponse()); encErr != nil {
		http.Error(w, `{"error":"Failed to encode error response"}`, http.StatusInternalServerError)
	}
}

// Helper functions to check error types. These use errors.As so they remain
// robust when errors are wrapped.

// IsNotFound checks if an error is a NotFound error
func IsNotFound(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Type == NotFoundError
}

// IsValidationError checks if an error is a Validation error
func IsValidationError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Type == ValidationError
}

// IsConflictError checks if an error is a Conflict error
func IsConflictError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Type == ConflictError
}
