package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/altostack/account-service/models"
)

// Context key type to avoid collisions
type contextKey string

const (
	// PrincipalKey is the context key for the authenticated principal
	PrincipalKey contextKey = "principal"
)

// Principal is the authenticated caller attached to the request context by
// the authorization guard: the resolved user record plus the permission set
// in effect for this request.
type Principal struct {
	User        *models.User
	Permissions []string
}

// ID returns the principal's user ID
func (p *Principal) ID() uuid.UUID {
	return p.User.ID
}

// HasPermission reports whether the principal holds the given permission
func (p *Principal) HasPermission(permission string) bool {
	for _, held := range p.Permissions {
		if held == permission {
			return true
		}
	}
	return false
}

// WithPrincipal adds the authenticated principal to the context
func WithPrincipal(ctx context.Context, principal *Principal) context.Context {
	return context.WithValue(ctx, PrincipalKey, principal)
}

// GetPrincipalFromContext retrieves the authenticated principal from context.
// Returns nil on routes the guard did not protect.
func GetPrincipalFromContext(ctx context.Context) *Principal {
	if val := ctx.Value(PrincipalKey); val != nil {
		if principal, ok := val.(*Principal); ok {
			return principal
		}
	}
	return nil
}
