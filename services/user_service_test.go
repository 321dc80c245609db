package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/altostack/account-service/auth"
	"github.com/altostack/account-service/models"
	"github.com/altostack/account-service/repositories"
)

func newUserService(repo *MockUserRepository) *UserService {
	return NewUserService(repo, auth.NewPasswordHasher(), zap.NewNop())
}

func TestUserService_Create(t *testing.T) {
	mockRepo := new(MockUserRepository)
	service := newUserService(mockRepo)

	var created *models.User
	mockRepo.On("Create", mock.Anything, mock.AnythingOfType("*models.User")).
		Run(func(args mock.Arguments) {
			created = args.Get(1).(*models.User)
		}).
		Return(nil)

	user, err := service.Create(context.Background(), CreateUserInput{
		Name:     "alice",
		FullName: "Alice Doe",
		Username: "alice",
		Email:    "alice@example.com",
		Password: "secret123",
	})

	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.True(t, user.IsActive)
	assert.NotEqual(t, uuid.Nil, user.ID)

	// The stored record carries a hash, never the plaintext
	require.NotNil(t, created)
	assert.NotEmpty(t, created.PasswordHash)
	assert.NotEqual(t, "secret123", created.PasswordHash)
	assert.True(t, auth.NewPasswordHasher().Verify("secret123", created.PasswordHash))

	mockRepo.AssertExpectations(t)
}

func TestUserService_Create_DuplicateIdentifier(t *testing.T) {
	mockRepo := new(MockUserRepository)
	service := newUserService(mockRepo)

	mockRepo.On("Create", mock.Anything, mock.AnythingOfType("*models.User")).
		Return(repositories.ErrDuplicate)

	user, err := service.Create(context.Background(), CreateUserInput{
		Name:     "alice",
		FullName: "Alice Doe",
		Username: "alice",
		Email:    "alice@example.com",
		Password: "secret123",
	})

	assert.Nil(t, user)
	assert.ErrorIs(t, err, ErrDuplicateIdentifier)
}

func TestUserService_GetByID(t *testing.T) {
	mockRepo := new(MockUserRepository)
	service := newUserService(mockRepo)

	user := models.NewUser("alice", "Alice Doe", "alice", "alice@example.com")
	mockRepo.On("GetByID", mock.Anything, user.ID).Return(user, nil)

	found, err := service.GetByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)
}

func TestUserService_GetByID_NotFound(t *testing.T) {
	mockRepo := new(MockUserRepository)
	service := newUserService(mockRepo)

	id := uuid.New()
	mockRepo.On("GetByID", mock.Anything, id).Return(nil, nil)

	found, err := service.GetByID(context.Background(), id)
	assert.Nil(t, found)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserService_List(t *testing.T) {
	mockRepo := new(MockUserRepository)
	service := newUserService(mockRepo)

	users := []*models.User{
		models.NewUser("alice", "Alice Doe", "alice", "alice@example.com"),
		models.NewUser("bob", "Bob Doe", "bob", "bob@example.com"),
	}
	// Zero options normalize to page 1, limit 20
	mockRepo.On("List", mock.Anything, 20, 0).Return(users, 42, nil)

	page, err := service.List(context.Background(), PageOptions{})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.Equal(t, 42, page.TotalCount)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 20, page.Limit)
}

func TestUserService_Update(t *testing.T) {
	mockRepo := new(MockUserRepository)
	service := newUserService(mockRepo)

	user := models.NewUser("alice", "Alice Doe", "alice", "alice@example.com")
	hashed, err := auth.NewPasswordHasher().Hash("oldpass")
	require.NoError(t, err)
	user.PasswordHash = hashed

	mockRepo.On("GetByID", mock.Anything, user.ID).Return(user, nil)

	var updated *models.User
	mockRepo.On("Update", mock.Anything, mock.AnythingOfType("*models.User")).
		Run(func(args mock.Arguments) {
			updated = args.Get(1).(*models.User)
		}).
		Return(nil)

	newEmail := "alice@corp.example.com"
	newPassword := "newpass123"
	roleID := uuid.New()
	err = service.Update(context.Background(), user.ID, UpdateUserInput{
		Email:    &newEmail,
		Password: &newPassword,
		RoleID:   &roleID,
	})

	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, newEmail, updated.Email)
	assert.Equal(t, "alice", updated.Name) // untouched fields stay
	require.NotNil(t, updated.RoleID)
	assert.Equal(t, roleID, *updated.RoleID)
	assert.True(t, auth.NewPasswordHasher().Verify(newPassword, updated.PasswordHash))
}

func TestUserService_Update_NotFound(t *testing.T) {
	mockRepo := new(MockUserRepository)
	service := newUserService(mockRepo)

	id := uuid.New()
	mockRepo.On("GetByID", mock.Anything, id).Return(nil, nil)

	err := service.Update(context.Background(), id, UpdateUserInput{})
	assert.ErrorIs(t, err, ErrUserNotFound)
	mockRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestUserService_Delete(t *testing.T) {
	mockRepo := new(MockUserRepository)
	service := newUserService(mockRepo)

	user := models.NewUser("alice", "Alice Doe", "alice", "alice@example.com")
	mockRepo.On("GetByID", mock.Anything, user.ID).Return(user, nil)
	mockRepo.On("Delete", mock.Anything, user.ID).Return(nil)

	err := service.Delete(context.Background(), user.ID)
	require.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

func TestUserService_Delete_NotFound(t *testing.T) {
	mockRepo := new(MockUserRepository)
	service := newUserService(mockRepo)

	id := uuid.New()
	mockRepo.On("GetByID", mock.Anything, id).Return(nil, nil)

	err := service.Delete(context.Background(), id)
	assert.ErrorIs(t, err, ErrUserNotFound)
	mockRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestUserService_List_RepositoryError(t *testing.T) {
	mockRepo := new(MockUserRepository)
	service := newUserService(mockRepo)

	mockRepo.On("List", mock.Anything, 20, 0).Return(nil, 0, errors.New("connection refused"))

	page, err := service.List(context.Background(), PageOptions{})
	assert.Nil(t, page)
	assert.True(t, IsInternalError(err))
}
