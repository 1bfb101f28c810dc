// Package config provides configuration management for the user directory
// service. It handles loading and validation of configuration values from
// environment variables, with support for default values and collective
// error reporting. Every variable has a documented default so the service
// can start against a local PostgreSQL instance with no configuration at all.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// DatabaseConfig holds the connection settings for the user database.
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	// AdminURL is a full connection string used only for the
	// database-existence bootstrap. It must point at a database that
	// already exists (typically the server's default "postgres" database)
	// and carry credentials allowed to run CREATE DATABASE.
	AdminURL string
	// PoolSize bounds the number of concurrent connections held by the
	// application pool. The pool never grows beyond this ceiling; requests
	// beyond it wait for a free connection.
	PoolSize int
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Port string // Port for the HTTP server
}

// AppConfig is the top-level configuration structure for the application.
type AppConfig struct {
	Database *DatabaseConfig
	Server   *ServerConfig
}

// Helper function to get an optional environment variable with a default
// string value. Provides sensible defaults if an optional configuration is
// not explicitly set.
func getOptionalEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// Helper function to get an optional environment variable parsed as an int.
// Uses defaultValue if not set. Appends an error if parsing fails.
func getOptionalEnvInt(key string, defaultValue int, errors *[]string) int {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	valueInt, err := strconv.Atoi(valueStr)
	if err != nil {
		*errors = append(*errors, fmt.Sprintf("invalid value for %s: expected integer, got '%s': %v", key, valueStr, err))
		return defaultValue // Return default, error is collected
	}
	return valueInt
}

// clampPoolSize validates and clamps a pool size to the supported range.
// Appends an error to the errors slice when clamping occurs so that
// misconfiguration is visible at startup.
func clampPoolSize(size int, varName string, errors *[]string) int {
	if size < 1 {
		*errors = append(*errors, fmt.Sprintf("pool size for %s (%d) is less than minimum 1, clamping to 1", varName, size))
		return 1
	}
	if size > 100 {
		*errors = append(*errors, fmt.Sprintf("pool size for %s (%d) is greater than maximum 100, clamping to 100", varName, size))
		return 100
	}
	return size
}

// URL builds the pgx connection string for the target user database.
func (c *DatabaseConfig) URL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.User, c.Password, c.Host, c.Port, c.DBName,
	)
}

// LoadConfig creates and returns an AppConfig by reading and validating
// environment variables. It collects all errors encountered during loading
// and returns a single aggregated error if any exist.
func LoadConfig() (*AppConfig, error) {
	var errors []string

	// Database configuration. Defaults match the reference deployment:
	// a local PostgreSQL with a "userinfo" database.
	dbUser := getOptionalEnv("POSTGRES_USER", "postgres")
	dbPassword := getOptionalEnv("POSTGRES_PASSWORD", "password")
	dbHost := getOptionalEnv("POSTGRES_HOST", "localhost")
	dbPort := getOptionalEnvInt("POSTGRES_PORT", 5432, &errors)
	dbName := getOptionalEnv("POSTGRES_DB", "userinfo")

	// The admin URL defaults to the server's maintenance database with the
	// same credentials; it is only used by the existence-check bootstrap.
	adminURL := getOptionalEnv("DATABASE_URL", fmt.Sprintf(
		"postgres://%s:%s@%s:%d/postgres?sslmode=disable",
		dbUser, dbPassword, dbHost, dbPort,
	))

	poolSize := getOptionalEnvInt("DB_POOL_SIZE", 20, &errors)
	poolSize = clampPoolSize(poolSize, "DB_POOL_SIZE", &errors)

	dbConfig := &DatabaseConfig{
		Host:     dbHost,
		Port:     dbPort,
		User:     dbUser,
		Password: dbPassword,
		DBName:   dbName,
		AdminURL: adminURL,
		PoolSize: poolSize,
	}

	// Server configuration. The port is kept as a string because it is used
	// directly when building the listen address (e.g., ":8000").
	serverConfig := &ServerConfig{
		Port: getOptionalEnv("PORT", "8000"),
	}

	// If any errors were collected during loading, return a single
	// aggregated error message.
	if len(errors) > 0 {
		return nil, fmt.Errorf("configuration errors:\n- %s", strings.Join(errors, "\n- "))
	}

	return &AppConfig{
		Database: dbConfig,
		Server:   serverConfig,
	}, nil
}
