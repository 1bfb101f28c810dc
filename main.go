// Main entry point of the user directory service. It loads configuration,
// bootstraps the database (existence check, then schema), wires the user
// service and handlers into the HTTP router, and runs the server with
// graceful shutdown.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/user/userinfo-go/config"
	"github.com/user/userinfo-go/db"
	"github.com/user/userinfo-go/users"
)

const serviceVersion = "1.0.0"

func main() {
	// Load a .env file if present. In production, variables are usually set
	// directly in the environment.
	if err := godotenv.Load(); err != nil {
		logrus.Warnf(".env file not found or error loading it: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	// Bootstrap: create the target database if it does not exist, then make
	// sure the users table is in place. Both run before any traffic is
	// accepted, and both failures abort startup.
	if err := db.EnsureDatabase(cfg.Database); err != nil {
		logrus.Fatalf("Failed to ensure database exists: %v", err)
	}

	pool, err := db.NewPool(cfg.Database)
	if err != nil {
		logrus.Fatalf("Failed to create database pool: %v", err)
	}
	defer pool.Close()

	if err := db.EnsureSchema(pool); err != nil {
		logrus.Fatalf("Failed to ensure schema: %v", err)
	}

	// Manual dependency injection: the service owns the pool, the handlers
	// own the service.
	userService := users.NewUserService(pool)
	userHandlers := users.NewUserHandlers(userService)

	r := chi.NewRouter()

	// Global middleware. Chi requires all middleware to be registered
	// before any routes.
	r.Use(middleware.Logger)    // Log all requests
	r.Use(middleware.Recoverer) // Recover from panics
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(60 * time.Second))

	// Permissive CORS, matching the reference deployment.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/", handleRoot())

	r.Route("/users", func(r chi.Router) {
		userHandlers.RegisterRoutes(r)
	})

	addr := fmt.Sprintf(":%s", cfg.Server.Port)

	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start the server in a goroutine so the main goroutine can wait for
	// shutdown signals.
	go func() {
		logrus.Infof("Server starting on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logrus.Fatalf("Server shutdown failed: %v", err)
	}
	logrus.Info("Server stopped gracefully")
}

// handleRoot serves service metadata: name, version, and the endpoint map.
func handleRoot() http.HandlerFunc {
	info := map[string]interface{}{
		"message": "Welcome to User Management API",
		"version": serviceVersion,
		"endpoints": map[string]string{
			"create_user":       "POST /users/",
			"get_users":         "GET /users/",
			"get_user":          "GET /users/{id}",
			"get_user_by_email": "GET /users/email/{email}",
			"delete_user":       "DELETE /users/{id}",
		},
	}
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if err := json.NewEncoder(w).Encode(info); err != nil {
			logrus.Errorf("Failed to encode root response: %v", err)
		}
	}
}
