// Package users, service layer. Contains the business logic for user
// directory operations. Each mutating operation runs inside one scoped
// transactional session acquired from the persistence gateway; reads go
// straight through the pool.
package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/user/userinfo-go/apperror"
	"github.com/user/userinfo-go/db"
)

// pgUniqueViolation is the PostgreSQL error code for unique constraint
// violations.
const pgUniqueViolation = "23505"

// Client-facing messages for the anticipated failure modes.
const (
	msgEmailRegistered = "Email already registered"
	msgUsernameTaken   = "Username already taken"
	msgUserNotFound    = "User not found"
	msgUserDeleted     = "User deleted successfully"
)

// UserService defines the user directory operations. Handlers depend on
// this interface rather than the concrete implementation, which keeps them
// testable without a database.
type UserService interface {
	CreateUser(ctx context.Context, req CreateUserRequest) (*UserResponse, error)
	ListUsers(ctx context.Context, skip, limit int) ([]UserResponse, error)
	GetUser(ctx context.Context, id int) (*UserResponse, error)
	GetUserByEmail(ctx context.Context, email string) (*UserResponse, error)
	DeleteUser(ctx context.Context, id int) (*MessageResponse, error)
}

// userService is the pgx-backed implementation of UserService.
type userService struct {
	db *pgxpool.Pool
}

// NewUserService creates a UserService backed by the given connection pool.
func NewUserService(pool *pgxpool.Pool) UserService {
	return &userService{db: pool}
}

// CreateUser validates the payload, enforces email and username uniqueness,
// and persists a new record. The duplicate pre-checks and the insert share
// one transaction; the storage-level UNIQUE constraints remain the
// authoritative backstop, so a concurrent duplicate that slips past the
// pre-checks surfaces as the same Conflict error.
func (s *userService) CreateUser(ctx context.Context, req CreateUserRequest) (*UserResponse, error) {
	// Validation rejects malformed payloads before any persistence access
	// and canonicalizes the username to lowercase.
	if err := req.Validate(); err != nil {
		return nil, err
	}

	user := &User{
		Email:    req.Email,
		Username: req.Username,
	}

	err := db.WithTx(ctx, s.db, func(tx pgx.Tx) error {
		// Pre-checks exist for a better error message on the common path;
		// the unique indexes catch whatever races past them.
		var existingID int

		err := tx.QueryRow(ctx, `SELECT id FROM users WHERE email = $1`, user.Email).Scan(&existingID)
		if err == nil {
			return apperror.NewConflictError(msgEmailRegistered, nil)
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return apperror.NewDatabaseError(fmt.Sprintf("Failed to create user: %v", err), err)
		}

		err = tx.QueryRow(ctx, `SELECT id FROM users WHERE username = $1`, user.Username).Scan(&existingID)
		if err == nil {
			return apperror.NewConflictError(msgUsernameTaken, nil)
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return apperror.NewDatabaseError(fmt.Sprintf("Failed to create user: %v", err), err)
		}

		// A single now() per statement keeps created_at and updated_at
		// identical on the stored record.
		query := `INSERT INTO users (email, username, created_at, updated_at)
		          VALUES ($1, $2, now(), now())
		          RETURNING id, created_at, updated_at`
		err = tx.QueryRow(ctx, query, user.Email, user.Username).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
				if strings.Contains(pgErr.ConstraintName, "email") {
					return apperror.NewConflictError(msgEmailRegistered, nil)
				}
				if strings.Contains(pgErr.ConstraintName, "username") {
					return apperror.NewConflictError(msgUsernameTaken, nil)
				}
			}
			return apperror.NewDatabaseError(fmt.Sprintf("Failed to create user: %v", err), err)
		}
		return nil
	})
	if err != nil {
		if _, known := apperror.FromError(err); !known {
			err = apperror.NewDatabaseError(fmt.Sprintf("Failed to create user: %v", err), err)
		}
		if !apperror.IsConflictError(err) {
			logrus.Errorf("CreateUser failed: %v", err)
		}
		return nil, err
	}

	return toResponse(user), nil
}

// ListUsers returns records in insertion order, skipping the first skip
// records and returning at most limit. An empty result set is valid.
func (s *userService) ListUsers(ctx context.Context, skip, limit int) ([]UserResponse, error) {
	query := `
		SELECT id, email, username, created_at, updated_at
		FROM users
		ORDER BY id
		OFFSET $1 LIMIT $2
	`
	rows, err := s.db.Query(ctx, query, skip, limit)
	if err != nil {
		return nil, apperror.NewDatabaseError(fmt.Sprintf("Failed to fetch users: %v", err), err)
	}
	defer rows.Close()

	// Initialized non-nil so an empty result serializes as [] rather than
	// null.
	responses := make([]UserResponse, 0)
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Email, &u.Username, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, apperror.NewDatabaseError(fmt.Sprintf("Failed to fetch users: %v", err), err)
		}
		responses = append(responses, *toResponse(&u))
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDatabaseError(fmt.Sprintf("Failed to fetch users: %v", err), err)
	}

	return responses, nil
}

// GetUser retrieves a single record by its id.
func (s *userService) GetUser(ctx context.Context, id int) (*UserResponse, error) {
	query := `SELECT id, email, username, created_at, updated_at FROM users WHERE id = $1`

	var u User
	err := s.db.QueryRow(ctx, query, id).Scan(&u.ID, &u.Email, &u.Username, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFoundError(msgUserNotFound, nil)
		}
		return nil, apperror.NewDatabaseError(fmt.Sprintf("Failed to fetch user: %v", err), err)
	}

	return toResponse(&u), nil
}

// GetUserByEmail retrieves a single record by email address. The email is
// matched exactly as provided; no normalization or format check is applied
// on the lookup path.
func (s *userService) GetUserByEmail(ctx context.Context, email string) (*UserResponse, error) {
	query := `SELECT id, email, username, created_at, updated_at FROM users WHERE email = $1`

	var u User
	err := s.db.QueryRow(ctx, query, email).Scan(&u.ID, &u.Email, &u.Username, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFoundError(msgUserNotFound, nil)
		}
		return nil, apperror.NewDatabaseError(fmt.Sprintf("Failed to fetch user: %v", err), err)
	}

	return toResponse(&u), nil
}

// DeleteUser permanently removes the record with the given id. Hard delete,
// no tombstone; deleting an id that does not exist reports NotFound.
func (s *userService) DeleteUser(ctx context.Context, id int) (*MessageResponse, error) {
	err := db.WithTx(ctx, s.db, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
		if err != nil {
			return apperror.NewDatabaseError(fmt.Sprintf("Failed to delete user: %v", err), err)
		}
		if tag.RowsAffected() == 0 {
			return apperror.NewNotFoundError(msgUserNotFound, nil)
		}
		return nil
	})
	if err != nil {
		if _, known := apperror.FromError(err); !known {
			err = apperror.NewDatabaseError(fmt.Sprintf("Failed to delete user: %v", err), err)
		}
		if !apperror.IsNotFound(err) {
			logrus.Errorf("DeleteUser failed: %v", err)
		}
		return nil, err
	}

	return &MessageResponse{Message: msgUserDeleted}, nil
}
