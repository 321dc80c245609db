// Package middleware implements the per-request authorization guard and the
// request context plumbing it relies on.
package middleware

import (
	"context"
	"net/http"
	"strings"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/altostack/account-service/auth"
	"github.com/altostack/account-service/models"
	"github.com/altostack/account-service/permissions"
	"github.com/altostack/account-service/repositories"
	"github.com/altostack/account-service/utils"
)

// unauthenticatedMessage is the single outward message for every
// authentication failure: missing header, malformed token, bad signature,
// expired or not-yet-valid token, vanished principal. The real cause goes to
// the logs only, so callers cannot distinguish the failure modes.
const unauthenticatedMessage = "invalid or expired token"

// forbiddenMessage is returned when an authenticated principal lacks the
// permissions a route requires.
const forbiddenMessage = "user does not have required roles"

// TokenVerifier checks a token's signature and time bounds and returns its
// decoded claims. Satisfied by auth.TokenService.
type TokenVerifier interface {
	Verify(tokenString string) (*auth.Claims, error)
}

// RouteCapability declares what a route demands from its callers. The zero
// value is the strictest form: authentication required, no permission check.
type RouteCapability struct {
	// Public skips authentication entirely. A route that is marked public
	// but also requires permissions overlapping the catalog defaults is
	// treated as protected; the stricter reading wins over a descriptor
	// that contradicts itself.
	Public bool

	// RequiredRoles is the set of permission names the route accepts. The
	// principal passes when it holds at least one of them. Empty means
	// authentication alone is enough.
	RequiredRoles []string
}

// effective resolves the descriptor against the catalog defaults and returns
// whether the route is genuinely public.
func (c RouteCapability) effective(defaults []string) bool {
	if !c.Public {
		return false
	}
	for _, required := range c.RequiredRoles {
		for _, def := range defaults {
			if required == def {
				return false
			}
		}
	}
	return true
}

// AuthorizationGuard gates protected routes: it verifies the bearer token,
// resolves the principal and its effective permission set, checks that set
// against the route's capability, and attaches the principal to the request
// context for handlers downstream.
type AuthorizationGuard struct {
	tokens  TokenVerifier
	users   repositories.UserRepository
	roles   repositories.RoleRepository
	catalog *permissions.Catalog
	logger  *zap.Logger
}

// NewAuthorizationGuard creates a new AuthorizationGuard
func NewAuthorizationGuard(
	tokens TokenVerifier,
	users repositories.UserRepository,
	roles repositories.RoleRepository,
	catalog *permissions.Catalog,
	logger *zap.Logger,
) *AuthorizationGuard {
	return &AuthorizationGuard{
		tokens:  tokens,
		users:   users,
		roles:   roles,
		catalog: catalog,
		logger:  logger,
	}
}

// Protect builds the middleware for a route with the given capability.
func (g *AuthorizationGuard) Protect(capability RouteCapability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if capability.effective(g.catalog.DefaultPermissions()) {
				next.ServeHTTP(w, r)
				return
			}

			principal, ok := g.authenticate(ctx, w, r)
			if !ok {
				return
			}

			if len(capability.RequiredRoles) > 0 && !overlaps(capability.RequiredRoles, principal.Permissions) {
				g.logger.Warn("authorization denied: missing required permissions",
					zap.String("request_id", chimiddleware.GetReqID(ctx)),
					zap.String("user_id", principal.ID().String()),
					zap.Strings("required", capability.RequiredRoles))
				_ = utils.WriteForbidden(w, forbiddenMessage)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(ctx, principal)))
		})
	}
}

// RequireAuth is shorthand for a protected route with no permission check.
func (g *AuthorizationGuard) RequireAuth(next http.Handler) http.Handler {
	return g.Protect(RouteCapability{})(next)
}

// authenticate runs the token-to-principal pipeline. On failure it writes
// the uniform 401 response and returns ok=false; the branch taken is visible
// in the logs but never in the response.
func (g *AuthorizationGuard) authenticate(ctx context.Context, w http.ResponseWriter, r *http.Request) (*Principal, bool) {
	requestID := chimiddleware.GetReqID(ctx)

	token := extractBearerToken(r)
	if token == "" {
		g.logger.Warn("authentication failed: missing bearer token",
			zap.String("request_id", requestID))
		_ = utils.WriteUnauthorized(w, unauthenticatedMessage)
		return nil, false
	}

	claims, err := g.tokens.Verify(token)
	if err != nil {
		g.logger.Warn("authentication failed: token verification",
			zap.String("request_id", requestID),
			zap.Error(err))
		_ = utils.WriteUnauthorized(w, unauthenticatedMessage)
		return nil, false
	}

	principalID, err := claims.PrincipalID()
	if err != nil {
		g.logger.Warn("authentication failed: malformed subject claim",
			zap.String("request_id", requestID),
			zap.Error(err))
		_ = utils.WriteUnauthorized(w, unauthenticatedMessage)
		return nil, false
	}

	user, err := g.users.GetByID(ctx, principalID)
	if err != nil {
		g.logger.Error("authentication failed: principal lookup error",
			zap.String("request_id", requestID),
			zap.String("user_id", principalID.String()),
			zap.Error(err))
		_ = utils.WriteInternalServerError(w, "internal server error")
		return nil, false
	}
	if user == nil {
		// Token is valid but the principal is gone; same signal as a bad token
		g.logger.Warn("authentication failed: principal no longer exists",
			zap.String("request_id", requestID),
			zap.String("user_id", principalID.String()))
		_ = utils.WriteUnauthorized(w, unauthenticatedMessage)
		return nil, false
	}

	perms, err := g.effectivePermissions(ctx, user)
	if err != nil {
		g.logger.Error("authentication failed: permission resolution error",
			zap.String("request_id", requestID),
			zap.String("user_id", user.ID.String()),
			zap.Error(err))
		_ = utils.WriteInternalServerError(w, "internal server error")
		return nil, false
	}

	return &Principal{User: user, Permissions: perms}, true
}

// effectivePermissions resolves the permission set in effect for the user:
// the access list of the assigned role, or the catalog defaults when the
// user has no role, the role record is gone, or the role never had an access
// list configured. A role whose configured list is empty grants nothing.
func (g *AuthorizationGuard) effectivePermissions(ctx context.Context, user *models.User) ([]string, error) {
	if !user.HasRole() {
		return g.catalog.DefaultPermissions(), nil
	}

	role, err := g.roles.GetByID(ctx, *user.RoleID)
	if err != nil {
		return nil, err
	}
	if role == nil || !role.HasAccess() {
		return g.catalog.DefaultPermissions(), nil
	}

	return role.Permissions()
}

func overlaps(required, held []string) bool {
	for _, r := range required {
		for _, h := range held {
			if r == h {
				return true
			}
		}
	}
	return false
}

// extractBearerToken extracts the Bearer token from the Authorization header
func extractBearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}
