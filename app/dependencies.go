// Package app wires the application together: configuration, database,
// permission catalog, repositories, services, handlers, and the
// authorization guard.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/altostack/account-service/auth"
	"github.com/altostack/account-service/config"
	"github.com/altostack/account-service/handlers"
	"github.com/altostack/account-service/middleware"
	"github.com/altostack/account-service/permissions"
	"github.com/altostack/account-service/repositories"
	"github.com/altostack/account-service/repositories/postgres"
	"github.com/altostack/account-service/services"
)

// Dependencies holds all application dependencies. This is the central
// wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config  *config.Config
	DB      *postgres.DB
	Logger  *zap.Logger
	Catalog *permissions.Catalog

	// Repositories
	Users repositories.UserRepository
	Roles repositories.RoleRepository

	// Auth primitives
	Hasher *auth.PasswordHasher
	Tokens *auth.TokenService

	// Services
	AuthService *services.AuthService
	UserService *services.UserService
	RoleService *services.RoleService

	// HTTP boundary
	Guard       *middleware.AuthorizationGuard
	AuthHandler *handlers.AuthHandler
	UserHandler *handlers.UserHandler
	RoleHandler *handlers.RoleHandler
}

// NewDependencies creates and wires up all application dependencies
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	catalog, err := permissions.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load permission catalog: %w", err)
	}
	deps.Catalog = catalog
	logger.Info("permission catalog loaded",
		zap.Int("version", catalog.Version()))

	if err := deps.initDatabase(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	deps.Users = postgres.NewUserRepository(deps.DB, logger)
	deps.Roles = postgres.NewRoleRepository(deps.DB, logger)

	deps.Hasher = auth.NewPasswordHasher()
	deps.Tokens = auth.NewTokenService(cfg.JWT)

	deps.AuthService = services.NewAuthService(deps.Users, deps.Hasher, deps.Tokens, logger)
	deps.UserService = services.NewUserService(deps.Users, deps.Hasher, logger)
	deps.RoleService = services.NewRoleService(deps.Roles, catalog, logger)

	deps.Guard = middleware.NewAuthorizationGuard(deps.Tokens, deps.Users, deps.Roles, catalog, logger)
	deps.AuthHandler = handlers.NewAuthHandler(deps.AuthService, logger)
	deps.UserHandler = handlers.NewUserHandler(deps.UserService, logger)
	deps.RoleHandler = handlers.NewRoleHandler(deps.RoleService, logger)

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// initDatabase initializes the PostgreSQL connection and schema
func (d *Dependencies) initDatabase(ctx context.Context, cfg *config.Config) error {
	db, err := postgres.NewDB(cfg.Database, d.Logger)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	d.DB = db

	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	if err := db.InitSchema(ctx); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	d.Logger.Info("database connection established",
		zap.String("connection", cfg.Database.LogString()))
	return nil
}

// Close releases held resources
func (d *Dependencies) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}
