// Package users, handler layer. This file maps HTTP requests onto the
// UserService operations: it decodes payloads, parses path and query
// parameters, and writes JSON responses or typed error bodies. No business
// logic lives here.
package users

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/user/userinfo-go/apperror"
)

// Pagination defaults for the list operation.
const (
	defaultSkip  = 0
	defaultLimit = 100
)

// UserHandlers provides HTTP handlers for the user directory. It holds the
// UserService interface, injected at construction.
type UserHandlers struct {
	service UserService
}

// NewUserHandlers creates new UserHandlers.
func NewUserHandlers(service UserService) *UserHandlers {
	return &UserHandlers{service: service}
}

// RegisterRoutes registers the user API routes with a chi.Router. Mounted
// under /users, this yields POST /users/, GET /users/, GET /users/{id},
// GET /users/email/{email} and DELETE /users/{id}.
func (h *UserHandlers) RegisterRoutes(router chi.Router) {
	router.Post("/", h.HandleCreateUser())
	router.Get("/", h.HandleListUsers())
	router.Get("/{id}", h.HandleGetUser())
	router.Get("/email/{email}", h.HandleGetUserByEmail())
	router.Delete("/{id}", h.HandleDeleteUser())
}

// HandleCreateUser godoc
// @Summary Create a new user
// @Description Registers a new user with a unique email and username.
// @Tags users
// @Accept json
// @Produce json
// @Param user body CreateUserRequest true "User to create"
// @Success 201 {object} UserResponse "User created"
// @Failure 400 {object} apperror.ErrorResponse "Duplicate email or username"
// @Failure 422 {object} apperror.ErrorResponse "Schema validation failure"
// @Failure 500 {object} apperror.ErrorResponse "Internal Server Error"
// @Router /users/ [post]
func (h *UserHandlers) HandleCreateUser() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateUserRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			apperror.WriteError(w, apperror.NewValidationError("invalid request body: "+err.Error(), err))
			return
		}
		defer r.Body.Close()

		created, err := h.service.CreateUser(r.Context(), req)
		if err != nil {
			apperror.WriteError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, created)
	}
}

// HandleListUsers godoc
// @Summary List users
// @Description Returns users in insertion order with skip/limit pagination.
// @Tags users
// @Produce json
// @Param skip query int false "Number of records to skip" default(0)
// @Param limit query int false "Maximum number of records to return" default(100)
// @Success 200 {array} UserResponse "Users"
// @Failure 422 {object} apperror.ErrorResponse "Malformed pagination parameters"
// @Failure 500 {object} apperror.ErrorResponse "Internal Server Error"
// @Router /users/ [get]
func (h *UserHandlers) HandleListUsers() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		skip, err := queryInt(r, "skip", defaultSkip)
		if err != nil {
			apperror.WriteError(w, err)
			return
		}
		limit, err := queryInt(r, "limit", defaultLimit)
		if err != nil {
			apperror.WriteError(w, err)
			return
		}

		users, err := h.service.ListUsers(r.Context(), skip, limit)
		if err != nil {
			apperror.WriteError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, users)
	}
}

// HandleGetUser godoc
// @Summary Get a user by ID
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} UserResponse "User"
// @Failure 404 {object} apperror.ErrorResponse "User not found"
// @Failure 422 {object} apperror.ErrorResponse "Malformed user ID"
// @Failure 500 {object} apperror.ErrorResponse "Internal Server Error"
// @Router /users/{id} [get]
func (h *UserHandlers) HandleGetUser() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			apperror.WriteError(w, err)
			return
		}

		user, err := h.service.GetUser(r.Context(), id)
		if err != nil {
			apperror.WriteError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, user)
	}
}

// HandleGetUserByEmail godoc
// @Summary Get a user by email address
// @Tags users
// @Produce json
// @Param email path string true "Email address"
// @Success 200 {object} UserResponse "User"
// @Failure 404 {object} apperror.ErrorResponse "User not found"
// @Failure 500 {object} apperror.ErrorResponse "Internal Server Error"
// @Router /users/email/{email} [get]
func (h *UserHandlers) HandleGetUserByEmail() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// The email path segment is used exactly as provided; lookup by a
		// malformed email simply finds nothing.
		email := chi.URLParam(r, "email")

		user, err := h.service.GetUserByEmail(r.Context(), email)
		if err != nil {
			apperror.WriteError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, user)
	}
}

// HandleDeleteUser godoc
// @Summary Delete a user by ID
// @Description Permanently removes the user record.
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} MessageResponse "Deletion confirmation"
// @Failure 404 {object} apperror.ErrorResponse "User not found"
// @Failure 422 {object} apperror.ErrorResponse "Malformed user ID"
// @Failure 500 {object} apperror.ErrorResponse "Internal Server Error"
// @Router /users/{id} [delete]
func (h *UserHandlers) HandleDeleteUser() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			apperror.WriteError(w, err)
			return
		}

		msg, err := h.service.DeleteUser(r.Context(), id)
		if err != nil {
			apperror.WriteError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, msg)
	}
}

// pathID parses the {id} path parameter as an integer.
func pathID(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperror.NewValidationError("user ID must be an integer", err)
	}
	return id, nil
}

// queryInt parses an optional non-negative integer query parameter, falling
// back to the default when the parameter is absent or empty.
func queryInt(r *http.Request, name string, defaultValue int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return defaultValue, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperror.NewValidationError(name+" must be an integer", err)
	}
	if value < 0 {
		return 0, apperror.NewValidationError(name+" must be non-negative", nil)
	}
	return value, nil
}

// writeJSON writes v as a JSON response body with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
