package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/altostack/account-service/models"
	"github.com/altostack/account-service/permissions"
	"github.com/altostack/account-service/repositories"
)

// CreateRoleInput holds the fields for creating a role
type CreateRoleInput struct {
	Name        string   `json:"name" validate:"required"`
	Description string   `json:"description"`
	Access      []string `json:"access"`
}

// UpdateRoleInput holds the optional fields for updating a role
type UpdateRoleInput struct {
	Name        *string  `json:"name,omitempty"`
	Description *string  `json:"description,omitempty"`
	Access      []string `json:"access,omitempty"`
	IsActive    *bool    `json:"is_active,omitempty"`
}

// RoleService manages roles and enforces the permission catalog: a role
// referencing a permission outside the catalog is rejected before any
// persistence side effect.
type RoleService struct {
	roles   repositories.RoleRepository
	catalog *permissions.Catalog
	logger  *zap.Logger
}

// NewRoleService creates a new RoleService
func NewRoleService(roles repositories.RoleRepository, catalog *permissions.Catalog, logger *zap.Logger) *RoleService {
	return &RoleService{
		roles:   roles,
		catalog: catalog,
		logger:  logger,
	}
}

// GetByID fetches a role by its unique ID
func (s *RoleService) GetByID(ctx context.Context, id uuid.UUID) (*models.Role, error) {
	role, err := s.roles.GetByID(ctx, id)
	if err != nil {
		return nil, WrapInternal("role lookup failed", err)
	}
	if role == nil {
		return nil, ErrRoleNotFound
	}
	return role, nil
}

// List fetches roles with pagination
func (s *RoleService) List(ctx context.Context, opts PageOptions) (*Paginated[*models.Role], error) {
	opts.Normalize()

	roles, total, err := s.roles.List(ctx, opts.Limit, opts.Offset())
	if err != nil {
		return nil, WrapInternal("role list failed", err)
	}

	return &Paginated[*models.Role]{
		Items:      roles,
		TotalCount: total,
		Page:       opts.Page,
		Limit:      opts.Limit,
	}, nil
}

// Create creates a new role after validating its permissions against the
// catalog. Unknown entries are reported back to the caller; this is an
// authoring-time error, not a security-sensitive one.
func (s *RoleService) Create(ctx context.Context, input CreateRoleInput) (*models.Role, error) {
	role, err := models.NewRole(input.Name, input.Description, input.Access)
	if err != nil {
		return nil, WrapError(ErrorTypeValidation, "invalid role access", err)
	}

	if err := s.validateAccess(role); err != nil {
		return nil, err
	}

	if err := s.roles.Create(ctx, role); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, ErrDuplicateRoleName
		}
		s.logger.Error("unable to create role",
			zap.String("name", input.Name),
			zap.Error(err))
		return nil, WrapInternal("role creation failed", err)
	}

	s.logger.Info("role created",
		zap.String("role_id", role.ID.String()),
		zap.String("name", role.Name))
	return role, nil
}

// Update applies partial changes to an existing role. When access is
// supplied, it is re-validated against the catalog before persisting.
func (s *RoleService) Update(ctx context.Context, id uuid.UUID, input UpdateRoleInput) error {
	role, err := s.roles.GetByID(ctx, id)
	if err != nil {
		return WrapInternal("role lookup failed", err)
	}
	if role == nil {
		return ErrRoleNotFound
	}

	if input.Name != nil {
		role.Name = *input.Name
	}
	if input.Description != nil {
		role.Description = *input.Description
	}
	if input.IsActive != nil {
		role.IsActive = *input.IsActive
	}
	if input.Access != nil {
		if err := role.SetAccess(input.Access); err != nil {
			return WrapError(ErrorTypeValidation, "invalid role access", err)
		}
		if err := s.validateAccess(role); err != nil {
			return err
		}
	}
	role.UpdatedAt = time.Now()

	if err := s.roles.Update(ctx, role); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return ErrDuplicateRoleName
		}
		s.logger.Error("unable to update role",
			zap.String("role_id", id.String()),
			zap.Error(err))
		return WrapInternal("role update failed", err)
	}

	s.logger.Info("role updated", zap.String("role_id", id.String()))
	return nil
}

// Delete removes a role by ID
func (s *RoleService) Delete(ctx context.Context, id uuid.UUID) error {
	role, err := s.roles.GetByID(ctx, id)
	if err != nil {
		return WrapInternal("role lookup failed", err)
	}
	if role == nil {
		return ErrRoleNotFound
	}

	if err := s.roles.Delete(ctx, id); err != nil {
		s.logger.Error("unable to delete role",
			zap.String("role_id", id.String()),
			zap.Error(err))
		return WrapInternal("role deletion failed", err)
	}

	s.logger.Info("role deleted", zap.String("role_id", id.String()))
	return nil
}

func (s *RoleService) validateAccess(role *models.Role) error {
	invalid, err := role.InvalidPermissions(s.catalog)
	if err != nil {
		return WrapError(ErrorTypeValidation, "invalid role access", err)
	}
	if len(invalid) > 0 {
		return ErrUnknownPermissions.WithDetail("invalid_permissions", invalid)
	}
	return nil
}
