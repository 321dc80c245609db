// Package routes declares the HTTP surface and the capability of each route.
package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/altostack/account-service/app"
	"github.com/altostack/account-service/handlers"
	"github.com/altostack/account-service/middleware"
)

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()

	// Core middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))

	// CORS middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "https://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check endpoints
	r.Get("/healthz", handlers.HealthCheck())
	r.Get("/readyz", handlers.ReadinessCheck(deps.DB, deps.Logger))

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Authentication. Login, refresh, and reset-password are public
		// because they carry their own token material; logout demands an
		// authenticated caller. The latter three answer 501 for now.
		r.Route("/auth", func(r chi.Router) {
			r.With(deps.Guard.Protect(middleware.RouteCapability{Public: true})).
				Post("/login", deps.AuthHandler.HandleLogin)
			r.With(deps.Guard.RequireAuth).
				Post("/logout", deps.AuthHandler.HandleLogout)
			r.With(deps.Guard.Protect(middleware.RouteCapability{Public: true})).
				Post("/refresh", deps.AuthHandler.HandleRefreshToken)
			r.With(deps.Guard.Protect(middleware.RouteCapability{Public: true})).
				Post("/reset-password", deps.AuthHandler.HandleResetPassword)
		})

		// User management
		r.Route("/users", func(r chi.Router) {
			r.With(deps.Guard.RequireAuth).
				Get("/me", deps.UserHandler.HandleGetCurrentUser)

			r.With(deps.Guard.Protect(middleware.RouteCapability{RequiredRoles: []string{"users:read"}})).
				Get("/", deps.UserHandler.HandleListUsers)
			r.With(deps.Guard.Protect(middleware.RouteCapability{RequiredRoles: []string{"users:create"}})).
				Post("/", deps.UserHandler.HandleCreateUser)
			r.With(deps.Guard.Protect(middleware.RouteCapability{RequiredRoles: []string{"users:read"}})).
				Get("/{id}", deps.UserHandler.HandleGetUser)
			r.With(deps.Guard.Protect(middleware.RouteCapability{RequiredRoles: []string{"users:update"}})).
				Put("/{id}", deps.UserHandler.HandleUpdateUser)
			r.With(deps.Guard.Protect(middleware.RouteCapability{RequiredRoles: []string{"users:delete"}})).
				Delete("/{id}", deps.UserHandler.HandleDeleteUser)
		})

		// Role management
		r.Route("/roles", func(r chi.Router) {
			r.With(deps.Guard.Protect(middleware.RouteCapability{RequiredRoles: []string{"roles:read"}})).
				Get("/", deps.RoleHandler.HandleListRoles)
			r.With(deps.Guard.Protect(middleware.RouteCapability{RequiredRoles: []string{"roles:create"}})).
				Post("/", deps.RoleHandler.HandleCreateRole)
			r.With(deps.Guard.Protect(middleware.RouteCapability{RequiredRoles: []string{"roles:read"}})).
				Get("/{id}", deps.RoleHandler.HandleGetRole)
			r.With(deps.Guard.Protect(middleware.RouteCapability{RequiredRoles: []string{"roles:update"}})).
				Put("/{id}", deps.RoleHandler.HandleUpdateRole)
			r.With(deps.Guard.Protect(middleware.RouteCapability{RequiredRoles: []string{"roles:delete"}})).
				Delete("/{id}", deps.RoleHandler.HandleDeleteRole)
		})
	})

	// 404 handler
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"not_found","message":"Resource not found"}`))
	})

	return r
}
