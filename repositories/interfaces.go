package repositories

import (
	"context"

	"github.com/google/uuid"

	"github.com/altostack/account-service/models"
)

// UserRepository handles user data operations. Lookups return (nil, nil) when
// no row matches; an error always means the lookup itself failed.
type UserRepository interface {
	// Create creates a new user
	Create(ctx context.Context, user *models.User) error

	// GetByID retrieves a user by ID, nil when absent
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)

	// GetByEmail retrieves a user by email, nil when absent
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	// GetByUsername retrieves a user by username, nil when absent
	GetByUsername(ctx context.Context, username string) (*models.User, error)

	// List retrieves users with pagination and the total count
	List(ctx context.Context, limit, offset int) ([]*models.User, int, error)

	// Update updates a user
	Update(ctx context.Context, user *models.User) error

	// Delete deletes a user
	Delete(ctx context.Context, id uuid.UUID) error
}

// RoleRepository handles role data operations. Lookups return (nil, nil) when
// no row matches.
type RoleRepository interface {
	// Create creates a new role
	Create(ctx context.Context, role *models.Role) error

	// GetByID retrieves a role by ID, nil when absent
	GetByID(ctx context.Context, id uuid.UUID) (*models.Role, error)

	// GetByName retrieves a role by its unique name, nil when absent
	GetByName(ctx context.Context, name string) (*models.Role, error)

	// List retrieves roles with pagination and the total count
	List(ctx context.Context, limit, offset int) ([]*models.Role, int, error)

	// Update updates a role
	Update(ctx context.Context, role *models.Role) error

	// Delete deletes a role
	Delete(ctx context.Context, id uuid.UUID) error
}
