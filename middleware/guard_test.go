package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/altostack/account-service/auth"
	"github.com/altostack/account-service/config"
	"github.com/altostack/account-service/models"
	"github.com/altostack/account-service/permissions"
)

// MockUserRepository is a mock implementation of repositories.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) List(ctx context.Context, limit, offset int) ([]*models.User, int, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]*models.User), args.Int(1), args.Error(2)
}

func (m *MockUserRepository) Update(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockRoleRepository is a mock implementation of repositories.RoleRepository
type MockRoleRepository struct {
	mock.Mock
}

func (m *MockRoleRepository) Create(ctx context.Context, role *models.Role) error {
	args := m.Called(ctx, role)
	return args.Error(0)
}

func (m *MockRoleRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Role, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Role), args.Error(1)
}

func (m *MockRoleRepository) GetByName(ctx context.Context, name string) (*models.Role, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Role), args.Error(1)
}

func (m *MockRoleRepository) List(ctx context.Context, limit, offset int) ([]*models.Role, int, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]*models.Role), args.Int(1), args.Error(2)
}

func (m *MockRoleRepository) Update(ctx context.Context, role *models.Role) error {
	args := m.Called(ctx, role)
	return args.Error(0)
}

func (m *MockRoleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type guardFixture struct {
	guard  *AuthorizationGuard
	tokens *auth.TokenService
	users  *MockUserRepository
	roles  *MockRoleRepository
}

func newGuardFixture(t *testing.T) *guardFixture {
	t.Helper()
	catalog, err := permissions.Load()
	require.NoError(t, err)

	tokens := auth.NewTokenService(config.JWTConfig{
		Secret:           "test-secret-key",
		ExpiresIn:        15 * time.Minute,
		RefreshExpiresIn: 168 * time.Hour,
	})
	users := new(MockUserRepository)
	roles := new(MockRoleRepository)

	return &guardFixture{
		guard:  NewAuthorizationGuard(tokens, users, roles, catalog, zap.NewNop()),
		tokens: tokens,
		users:  users,
		roles:  roles,
	}
}

// okHandler records whether it ran and what principal it saw
func okHandler(ran *bool, principal **Principal) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*ran = true
		*principal = GetPrincipalFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func (f *guardFixture) accessTokenFor(t *testing.T, userID uuid.UUID) string {
	t.Helper()
	pair, err := f.tokens.Issue(userID)
	require.NoError(t, err)
	return pair.AccessToken
}

func serve(handler http.Handler, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func responseMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Message
}

func TestAuthorizationGuard_PublicRoute(t *testing.T) {
	f := newGuardFixture(t)

	var ran bool
	var principal *Principal
	handler := f.guard.Protect(RouteCapability{Public: true})(okHandler(&ran, &principal))

	w := serve(handler, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, ran)
	assert.Nil(t, principal)
	f.users.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

// A descriptor that says "public" but also requires permissions every
// principal would hold by default contradicts itself; the guard resolves it
// as protected.
func TestAuthorizationGuard_PublicWithDefaultOverlapIsProtected(t *testing.T) {
	f := newGuardFixture(t)

	var ran bool
	var principal *Principal
	// users:read is in the catalog defaults
	handler := f.guard.Protect(RouteCapability{
		Public:        true,
		RequiredRoles: []string{"users:read"},
	})(okHandler(&ran, &principal))

	w := serve(handler, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, ran)
}

func TestAuthorizationGuard_ValidToken(t *testing.T) {
	f := newGuardFixture(t)

	user := models.NewUser("alice", "Alice Doe", "alice", "alice@example.com")
	f.users.On("GetByID", mock.Anything, user.ID).Return(user, nil)

	var ran bool
	var principal *Principal
	handler := f.guard.RequireAuth(okHandler(&ran, &principal))

	w := serve(handler, "Bearer "+f.accessTokenFor(t, user.ID))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, ran)
	require.NotNil(t, principal)
	assert.Equal(t, user.ID, principal.ID())
	// No role assigned: defaults apply
	assert.ElementsMatch(t, []string{"users:read", "roles:read"}, principal.Permissions)
}

// Expired, malformed, wrongly signed, and missing tokens must all produce
// the same status and body so the response never reveals which check failed.
func TestAuthorizationGuard_UniformUnauthenticated(t *testing.T) {
	f := newGuardFixture(t)

	user := models.NewUser("alice", "Alice Doe", "alice", "alice@example.com")

	otherSigner := auth.NewTokenService(config.JWTConfig{
		Secret:           "a-different-secret",
		ExpiresIn:        15 * time.Minute,
		RefreshExpiresIn: 168 * time.Hour,
	})
	foreignPair, err := otherSigner.Issue(user.ID)
	require.NoError(t, err)

	// A refresh token inside the access window is not yet valid
	pair, err := f.tokens.Issue(user.ID)
	require.NoError(t, err)

	tests := []struct {
		name          string
		authorization string
	}{
		{"missing header", ""},
		{"not a bearer scheme", "Basic dXNlcjpwYXNz"},
		{"malformed token", "Bearer not.a.token"},
		{"wrong signature", "Bearer " + foreignPair.AccessToken},
		{"refresh token before its window", "Bearer " + pair.RefreshToken},
	}

	var messages []string
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ran bool
			var principal *Principal
			handler := f.guard.RequireAuth(okHandler(&ran, &principal))

			w := serve(handler, tt.authorization)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.False(t, ran)
			messages = append(messages, responseMessage(t, w))
		})
	}

	for _, msg := range messages {
		assert.Equal(t, messages[0], msg)
	}
}

func TestAuthorizationGuard_VanishedPrincipal(t *testing.T) {
	f := newGuardFixture(t)

	deletedID := uuid.New()
	f.users.On("GetByID", mock.Anything, deletedID).Return(nil, nil)

	var ran bool
	var principal *Principal
	handler := f.guard.RequireAuth(okHandler(&ran, &principal))

	w := serve(handler, "Bearer "+f.accessTokenFor(t, deletedID))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, ran)
	// Same outward message as a bad token
	assert.Equal(t, "invalid or expired token", responseMessage(t, w))
}

func TestAuthorizationGuard_RolePermissions(t *testing.T) {
	f := newGuardFixture(t)

	role, err := models.NewRole("editor", "", []string{"users:create", "users:update"})
	require.NoError(t, err)

	user := models.NewUser("alice", "Alice Doe", "alice", "alice@example.com")
	user.RoleID = &role.ID

	f.users.On("GetByID", mock.Anything, user.ID).Return(user, nil)
	f.roles.On("GetByID", mock.Anything, role.ID).Return(role, nil)

	t.Run("overlapping permission grants access", func(t *testing.T) {
		var ran bool
		var principal *Principal
		handler := f.guard.Protect(RouteCapability{
			RequiredRoles: []string{"users:create"},
		})(okHandler(&ran, &principal))

		w := serve(handler, "Bearer "+f.accessTokenFor(t, user.ID))
		assert.Equal(t, http.StatusOK, w.Code)
		require.NotNil(t, principal)
		assert.ElementsMatch(t, []string{"users:create", "users:update"}, principal.Permissions)
	})

	t.Run("disjoint permissions are forbidden", func(t *testing.T) {
		var ran bool
		var principal *Principal
		handler := f.guard.Protect(RouteCapability{
			RequiredRoles: []string{"roles:delete"},
		})(okHandler(&ran, &principal))

		w := serve(handler, "Bearer "+f.accessTokenFor(t, user.ID))
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.False(t, ran)
	})
}

// A role whose access list was never configured behaves like no role at all;
// a role with an explicitly empty list grants nothing.
func TestAuthorizationGuard_RoleAccessEdgeCases(t *testing.T) {
	t.Run("unconfigured access falls back to defaults", func(t *testing.T) {
		f := newGuardFixture(t)

		role := &models.Role{ID: uuid.New(), Name: "legacy", IsActive: true}

		user := models.NewUser("alice", "Alice Doe", "alice", "alice@example.com")
		user.RoleID = &role.ID

		f.users.On("GetByID", mock.Anything, user.ID).Return(user, nil)
		f.roles.On("GetByID", mock.Anything, role.ID).Return(role, nil)

		var ran bool
		var principal *Principal
		handler := f.guard.Protect(RouteCapability{
			RequiredRoles: []string{"users:read"},
		})(okHandler(&ran, &principal))

		w := serve(handler, "Bearer "+f.accessTokenFor(t, user.ID))
		assert.Equal(t, http.StatusOK, w.Code)
		require.NotNil(t, principal)
		assert.ElementsMatch(t, []string{"users:read", "roles:read"}, principal.Permissions)
	})

	t.Run("explicitly empty access grants nothing", func(t *testing.T) {
		f := newGuardFixture(t)

		role, err := models.NewRole("none", "", []string{})
		require.NoError(t, err)

		user := models.NewUser("alice", "Alice Doe", "alice", "alice@example.com")
		user.RoleID = &role.ID

		f.users.On("GetByID", mock.Anything, user.ID).Return(user, nil)
		f.roles.On("GetByID", mock.Anything, role.ID).Return(role, nil)

		var ran bool
		var principal *Principal
		handler := f.guard.Protect(RouteCapability{
			RequiredRoles: []string{"users:read"},
		})(okHandler(&ran, &principal))

		w := serve(handler, "Bearer "+f.accessTokenFor(t, user.ID))
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.False(t, ran)
	})
}

func TestAuthorizationGuard_VanishedRoleFallsBackToDefaults(t *testing.T) {
	f := newGuardFixture(t)

	roleID := uuid.New()
	user := models.NewUser("alice", "Alice Doe", "alice", "alice@example.com")
	user.RoleID = &roleID

	f.users.On("GetByID", mock.Anything, user.ID).Return(user, nil)
	f.roles.On("GetByID", mock.Anything, roleID).Return(nil, nil)

	var ran bool
	var principal *Principal
	handler := f.guard.RequireAuth(okHandler(&ran, &principal))

	w := serve(handler, "Bearer "+f.accessTokenFor(t, user.ID))
	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, principal)
	assert.ElementsMatch(t, []string{"users:read", "roles:read"}, principal.Permissions)
}

func TestAuthorizationGuard_LookupError(t *testing.T) {
	f := newGuardFixture(t)

	id := uuid.New()
	f.users.On("GetByID", mock.Anything, id).Return(nil, errors.New("connection refused"))

	var ran bool
	var principal *Principal
	handler := f.guard.RequireAuth(okHandler(&ran, &principal))

	w := serve(handler, "Bearer "+f.accessTokenFor(t, id))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.False(t, ran)
}
