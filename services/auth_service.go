package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/altostack/account-service/auth"
	"github.com/altostack/account-service/models"
	"github.com/altostack/account-service/repositories"
	"github.com/altostack/account-service/utils"
)

// Credential is the transient login input. Password is plaintext and exists
// only for the duration of the login call; it is never persisted or logged.
type Credential struct {
	Identifier string `json:"identifier" validate:"required"`
	Password   string `json:"password" validate:"required"`
}

// Normalize trims surrounding whitespace from the identifier
func (c *Credential) Normalize() {
	c.Identifier = strings.TrimSpace(c.Identifier)
}

// IsEmailIdentifier reports whether the identifier is email-shaped, which
// selects the lookup strategy (email vs username)
func (c *Credential) IsEmailIdentifier() bool {
	return utils.IsEmailShaped(c.Identifier)
}

// LoginResult is returned on successful authentication
type LoginResult struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	ID           uuid.UUID `json:"id"`
}

// AuthService authenticates credential pairs into signed token pairs.
type AuthService struct {
	users  repositories.UserRepository
	hasher *auth.PasswordHasher
	tokens *auth.TokenService
	logger *zap.Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(users repositories.UserRepository, hasher *auth.PasswordHasher, tokens *auth.TokenService, logger *zap.Logger) *AuthService {
	return &AuthService{
		users:  users,
		hasher: hasher,
		tokens: tokens,
		logger: logger,
	}
}

// Login resolves the credential to a principal, verifies the password hash,
// and issues a token pair. Every rejection — unknown identifier or wrong
// password — surfaces as the same ErrInvalidCredential so callers cannot
// probe which identifiers exist. The cause is logged here with the attempted
// identifier, never the password.
func (s *AuthService) Login(ctx context.Context, credential Credential) (*LoginResult, error) {
	credential.Normalize()
	if credential.Identifier == "" || credential.Password == "" {
		s.logger.Warn("login rejected: empty credential fields",
			zap.String("identifier", credential.Identifier))
		return nil, ErrInvalidCredential
	}

	user, err := s.lookup(ctx, credential)
	if err != nil {
		s.logger.Error("login failed: user lookup error",
			zap.String("identifier", credential.Identifier),
			zap.Error(err))
		return nil, WrapInternal("user lookup failed", err)
	}
	if user == nil {
		s.logger.Warn("login rejected: unknown identifier",
			zap.String("identifier", credential.Identifier))
		return nil, ErrInvalidCredential
	}

	if !s.hasher.Verify(credential.Password, user.PasswordHash) {
		s.logger.Warn("login rejected: password mismatch",
			zap.String("identifier", credential.Identifier),
			zap.String("user_id", user.ID.String()))
		return nil, ErrInvalidCredential
	}

	pair, err := s.tokens.Issue(user.ID)
	if err != nil {
		// Signing failures are fatal to the operation, never retried
		s.logger.Error("login failed: token issuance error",
			zap.String("user_id", user.ID.String()),
			zap.Error(err))
		return nil, WrapInternal("token issuance failed", err)
	}

	s.logger.Info("user logged in", zap.String("user_id", user.ID.String()))

	return &LoginResult{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ID:           user.ID,
	}, nil
}

func (s *AuthService) lookup(ctx context.Context, credential Credential) (*models.User, error) {
	if credential.IsEmailIdentifier() {
		return s.users.GetByEmail(ctx, credential.Identifier)
	}
	return s.users.GetByUsername(ctx, credential.Identifier)
}

// Logout is part of the contract but deliberately unimplemented: tokens are
// stateless and there is no server-side session to end.
func (s *AuthService) Logout(ctx context.Context) error {
	return ErrNotImplemented.WithDetail("operation", "logout")
}

// RefreshToken is part of the contract but deliberately unimplemented.
func (s *AuthService) RefreshToken(ctx context.Context, userID uuid.UUID, refreshToken string) (*LoginResult, error) {
	return nil, ErrNotImplemented.WithDetail("operation", "refresh_token")
}

// ResetPassword is part of the contract but deliberately unimplemented.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	return ErrNotImplemented.WithDetail("operation", "reset_password")
}
