package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/altostack/account-service/auth"
	"github.com/altostack/account-service/models"
	"github.com/altostack/account-service/repositories"
)

// CreateUserInput holds the fields for creating a user
type CreateUserInput struct {
	Name     string `json:"name" validate:"required"`
	FullName string `json:"fullname" validate:"required"`
	Username string `json:"username" validate:"required,min=3"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// UpdateUserInput holds the optional fields for updating a user
type UpdateUserInput struct {
	Name     *string    `json:"name,omitempty"`
	FullName *string    `json:"fullname,omitempty"`
	Email    *string    `json:"email,omitempty" validate:"omitempty,email"`
	Password *string    `json:"password,omitempty" validate:"omitempty,min=6"`
	RoleID   *uuid.UUID `json:"role_id,omitempty"`
	IsActive *bool      `json:"is_active,omitempty"`
}

// UserService manages user accounts. It owns password hash computation on
// create and update; the hash itself never leaves the models.User field.
type UserService struct {
	users  repositories.UserRepository
	hasher *auth.PasswordHasher
	logger *zap.Logger
}

// NewUserService creates a new UserService
func NewUserService(users repositories.UserRepository, hasher *auth.PasswordHasher, logger *zap.Logger) *UserService {
	return &UserService{
		users:  users,
		hasher: hasher,
		logger: logger,
	}
}

// GetByID fetches a user by its unique ID
func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, WrapInternal("user lookup failed", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// List fetches users with pagination
func (s *UserService) List(ctx context.Context, opts PageOptions) (*Paginated[*models.User], error) {
	opts.Normalize()

	users, total, err := s.users.List(ctx, opts.Limit, opts.Offset())
	if err != nil {
		return nil, WrapInternal("user list failed", err)
	}

	return &Paginated[*models.User]{
		Items:      users,
		TotalCount: total,
		Page:       opts.Page,
		Limit:      opts.Limit,
	}, nil
}

// Create creates a new user with a hashed password
func (s *UserService) Create(ctx context.Context, input CreateUserInput) (*models.User, error) {
	user := models.NewUser(input.Name, input.FullName, input.Username, input.Email)

	hashed, err := s.hasher.Hash(input.Password)
	if err != nil {
		// Hashing failures are fatal to the operation
		s.logger.Error("unable to create user: password hashing failed",
			zap.String("email", input.Email),
			zap.Error(err))
		return nil, WrapInternal("password hashing failed", err)
	}
	user.PasswordHash = hashed

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			s.logger.Warn("unable to create user: identifier already exists",
				zap.String("email", input.Email),
				zap.String("username", input.Username))
			return nil, ErrDuplicateIdentifier
		}
		s.logger.Error("unable to create user",
			zap.String("email", input.Email),
			zap.Error(err))
		return nil, WrapInternal("user creation failed", err)
	}

	s.logger.Info("user created", zap.String("user_id", user.ID.String()))
	return user, nil
}

// Update applies partial changes to an existing user. A supplied password is
// re-hashed; other fields are overwritten as given.
func (s *UserService) Update(ctx context.Context, id uuid.UUID, input UpdateUserInput) error {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return WrapInternal("user lookup failed", err)
	}
	if user == nil {
		return ErrUserNotFound
	}

	if input.Name != nil {
		user.Name = *input.Name
	}
	if input.FullName != nil {
		user.FullName = *input.FullName
	}
	if input.Email != nil {
		user.Email = *input.Email
	}
	if input.RoleID != nil {
		user.RoleID = input.RoleID
	}
	if input.IsActive != nil {
		user.IsActive = *input.IsActive
	}
	if input.Password != nil {
		hashed, err := s.hasher.Hash(*input.Password)
		if err != nil {
			s.logger.Error("unable to update user: password hashing failed",
				zap.String("user_id", id.String()),
				zap.Error(err))
			return WrapInternal("password hashing failed", err)
		}
		user.PasswordHash = hashed
	}
	user.UpdatedAt = time.Now()

	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return ErrDuplicateIdentifier
		}
		s.logger.Error("unable to update user",
			zap.String("user_id", id.String()),
			zap.Error(err))
		return WrapInternal("user update failed", err)
	}

	s.logger.Info("user updated", zap.String("user_id", id.String()))
	return nil
}

// Delete removes a user by ID
func (s *UserService) Delete(ctx context.Context, id uuid.UUID) error {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return WrapInternal("user lookup failed", err)
	}
	if user == nil {
		return ErrUserNotFound
	}

	if err := s.users.Delete(ctx, id); err != nil {
		s.logger.Error("unable to delete user",
			zap.String("user_id", id.String()),
			zap.Error(err))
		return WrapInternal("user deletion failed", err)
	}

	s.logger.Info("user deleted", zap.String("user_id", id.String()))
	return nil
}
