package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/altostack/account-service/config"
)

var (
	// ErrTokenInvalid is returned when the signature does not match or the
	// token is otherwise malformed
	ErrTokenInvalid = errors.New("invalid token")

	// ErrTokenExpired is returned when the token has expired
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenNotYetValid is returned when the token is used before its
	// not-before timestamp (a refresh token inside the access window)
	ErrTokenNotYetValid = errors.New("token not yet valid")
)

// Claims is the decoded payload of a token. Subject carries the principal id.
type Claims struct {
	jwt.RegisteredClaims
}

// PrincipalID parses the subject claim into a principal id
func (c *Claims) PrincipalID() (uuid.UUID, error) {
	id, err := uuid.Parse(c.Subject)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid principal id in token subject: %w", err)
	}
	return id, nil
}

// TokenPair is the result of a successful login: an access token and a
// refresh token whose validity window opens when the access token's closes.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// TokenService issues and verifies signed, time-bounded tokens. Tokens are
// integrity-protected with a shared HS256 secret but not encrypted; claims
// are visible to any holder. Verification is stateless: validity is fully
// determined by signature and timestamps, so there is no way to revoke a
// token before it expires.
type TokenService struct {
	secret           []byte
	expiresIn        time.Duration
	refreshExpiresIn time.Duration
	now              func() time.Time
}

// NewTokenService creates a TokenService from JWT configuration
func NewTokenService(cfg config.JWTConfig) *TokenService {
	return &TokenService{
		secret:           []byte(cfg.Secret),
		expiresIn:        cfg.ExpiresIn,
		refreshExpiresIn: cfg.RefreshExpiresIn,
		now:              time.Now,
	}
}

// Issue builds a signed token pair for the principal. The refresh token's
// not-before equals the access token's expiry, so the two validity windows
// never overlap.
func (s *TokenService) Issue(principalID uuid.UUID) (*TokenPair, error) {
	now := s.now()
	accessExpiry := now.Add(s.expiresIn)

	accessToken, err := s.sign(Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   principalID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(accessExpiry),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	refreshToken, err := s.sign(Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   principalID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(accessExpiry),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.refreshExpiresIn)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to sign refresh token: %w", err)
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// Verify checks the token's signature and time bounds and returns the
// decoded claims. Expired, not-yet-valid, and invalid tokens are
// distinguished here; callers at the boundary collapse them into one signal.
func (s *TokenService) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))

	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenNotValidYet):
			return nil, ErrTokenNotYetValid
		default:
			return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
		}
	}

	if !token.Valid {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}

func (s *TokenService) sign(claims Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}
