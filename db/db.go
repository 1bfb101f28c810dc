// Package db is the persistence gateway for the user directory service.
// It owns database connectivity: the database-existence bootstrap, the
// bounded pgx connection pool, idempotent schema creation, and scoped
// transactional sessions. The rest of the application never touches
// connection strings or transaction lifecycles directly.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/user/userinfo-go/apperror"
	"github.com/user/userinfo-go/config"
)

// usersSchema is the full stored-record shape of a user. The UNIQUE
// constraints on email and username are the authoritative backstop for the
// duplicate pre-checks performed by the create operation.
const usersSchema = `
CREATE TABLE IF NOT EXISTS users (
	id         SERIAL PRIMARY KEY,
	email      TEXT        NOT NULL UNIQUE,
	username   TEXT        NOT NULL UNIQUE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`

// EnsureDatabase connects to the PostgreSQL server using the administrative
// connection string, checks the catalog for the target database name, and
// creates the database if it is absent. It is called once at startup, before
// the application pool is created; any failure here is fatal to startup.
func EnsureDatabase(cfg *config.DatabaseConfig) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	conn, err := pgx.Connect(ctx, cfg.AdminURL)
	if err != nil {
		return apperror.NewDatabaseError("failed to connect to database server", err)
	}
	defer conn.Close(ctx)

	var exists bool
	err = conn.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM pg_catalog.pg_database WHERE datname = $1)",
		cfg.DBName,
	).Scan(&exists)
	if err != nil {
		return apperror.NewDatabaseError("failed to check database existence", err)
	}

	if exists {
		logrus.Infof("Database %q already exists", cfg.DBName)
		return nil
	}

	// CREATE DATABASE cannot be parameterized and cannot run inside a
	// transaction; pgx executes it in autocommit mode. The name is quoted to
	// survive mixed case.
	if _, err := conn.Exec(ctx, fmt.Sprintf(`CREATE DATABASE %q`, cfg.DBName)); err != nil {
		return apperror.NewDatabaseError(fmt.Sprintf("failed to create database %q", cfg.DBName), err)
	}
	logrus.Infof("Database %q created", cfg.DBName)
	return nil
}

// NewPool establishes a bounded pgxpool connection pool against the target
// database and verifies connectivity with a ping. The pool size comes from
// configuration and never overflows; requests beyond the ceiling wait for a
// free connection.
func NewPool(cfg *config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL())
	if err != nil {
		return nil, apperror.NewDatabaseError(fmt.Sprintf("error parsing DSN for database %s", cfg.DBName), err)
	}

	poolConfig.MaxConns = int32(cfg.PoolSize)
	poolConfig.MaxConnIdleTime = 10 * time.Minute
	poolConfig.MaxConnLifetime = 30 * time.Minute

	// Bound pool creation so an unreachable database fails startup promptly
	// instead of blocking indefinitely.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, apperror.NewDatabaseError(fmt.Sprintf("error creating pgxpool for database %s", cfg.DBName), err)
	}

	// Verify the connection by pinging.
	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer pingCancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close() // Clean up on connection failure
		return nil, apperror.NewDatabaseError(fmt.Sprintf("error connecting to the database %s", cfg.DBName), err)
	}

	return pool, nil
}

// EnsureSchema creates the users table if it is not already present.
// Idempotent; safe to run on every startup.
func EnsureSchema(pool *pgxpool.Pool) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := pool.Exec(ctx, usersSchema); err != nil {
		return apperror.NewDatabaseError("failed to create users table", err)
	}
	logrus.Info("Database schema is up to date")
	return nil
}

// WithTx runs fn inside a scoped transactional session. The transaction is
// committed when fn returns nil and rolled back on every other exit path,
// including panics unwinding through the deferred rollback. Rollback after a
// successful commit is a no-op.
func WithTx(ctx context.Context, pool *pgxpool.Pool, fn func(tx pgx.Tx) error) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return apperror.NewDatabaseError("failed to begin transaction", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return apperror.NewDatabaseError("failed to commit transaction", err)
	}
	return nil
}
