package user

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"foodgram-api/domain"
	"foodgram-api/entities"
	"foodgram-api/pkg/jwt"
)

type memoryUserRepository struct {
	users map[string]*entities.User
}

func newMemoryUserRepository() *memoryUserRepository {
	return &memoryUserRepository{users: make(map[string]*entities.User)}
}

func (m *memoryUserRepository) CreateUser(ctx context.Context, user *entities.User) error {
	user.ID = uuid.New()
	m.users[user.ID.String()] = user
	return nil
}

func (m *memoryUserRepository) GetUserByID(ctx context.Context, id string) (*entities.User, error) {
	user, ok := m.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (m *memoryUserRepository) GetUserByEmail(ctx context.Context, email string) (*entities.User, error) {
	for _, user := range m.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memoryUserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	_, err := m.GetUserByEmail(ctx, email)
	return err == nil, nil
}

func (m *memoryUserRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	for _, user := range m.users {
		if user.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (m *memoryUserRepository) UpdatePassword(ctx context.Context, userID, hashedPassword string) error {
	user, ok := m.users[userID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	user.Password = hashedPassword
	return nil
}

func registerRequest() domain.RegisterRequest {
	return domain.RegisterRequest{
		Email:     "ann@example.com",
		Username:  "ann",
		FirstName: "Ann",
		LastName:  "Cook",
		Password:  "correct-horse",
	}
}

func newUserService() (UserService, *memoryUserRepository) {
	repo := newMemoryUserRepository()
	return NewUserService(repo, jwt.NewJWTService()), repo
}

func TestRegister(t *testing.T) {
	svc, repo := newUserService()
	ctx := context.Background()

	res, err := svc.Register(ctx, registerRequest())
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", res.Email)
	assert.Equal(t, "ann", res.Username)
	assert.False(t, res.IsSubscribed)

	stored := repo.users[res.ID]
	require.NotNil(t, stored)
	assert.NotEqual(t, "correct-horse", stored.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("correct-horse")))
}

func TestRegisterDuplicates(t *testing.T) {
	svc, _ := newUserService()
	ctx := context.Background()

	_, err := svc.Register(ctx, registerRequest())
	require.NoError(t, err)

	req := registerRequest()
	req.Username = "other"
	_, err = svc.Register(ctx, req)
	assert.ErrorIs(t, err, domain.ErrEmailTaken)

	req = registerRequest()
	req.Email = "other@example.com"
	_, err = svc.Register(ctx, req)
	assert.ErrorIs(t, err, domain.ErrUsernameTaken)
}

func TestLogin(t *testing.T) {
	svc, _ := newUserService()
	ctx := context.Background()

	_, err := svc.Register(ctx, registerRequest())
	require.NoError(t, err)

	res, err := svc.Login(ctx, domain.LoginRequest{Email: "ann@example.com", Password: "correct-horse"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)

	_, err = svc.Login(ctx, domain.LoginRequest{Email: "ann@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, domain.ErrWrongCredentials)

	_, err = svc.Login(ctx, domain.LoginRequest{Email: "nobody@example.com", Password: "x"})
	assert.ErrorIs(t, err, domain.ErrWrongCredentials)
}

func TestUpdatePassword(t *testing.T) {
	svc, _ := newUserService()
	ctx := context.Background()

	registered, err := svc.Register(ctx, registerRequest())
	require.NoError(t, err)

	err = svc.UpdatePassword(ctx, domain.UpdatePasswordRequest{
		CurrentPassword: "wrong",
		NewPassword:     "new-password-1",
	}, registered.ID)
	assert.ErrorIs(t, err, domain.ErrWrongPassword)

	err = svc.UpdatePassword(ctx, domain.UpdatePasswordRequest{
		CurrentPassword: "correct-horse",
		NewPassword:     "new-password-1",
	}, registered.ID)
	require.NoError(t, err)

	_, err = svc.Login(ctx, domain.LoginRequest{Email: "ann@example.com", Password: "new-password-1"})
	assert.NoError(t, err)
}

func TestMe(t *testing.T) {
	svc, _ := newUserService()
	ctx := context.Background()

	registered, err := svc.Register(ctx, registerRequest())
	require.NoError(t, err)

	res, err := svc.Me(ctx, registered.ID)
	require.NoError(t, err)
	assert.Equal(t, registered, res)

	_, err = svc.Me(ctx, uuid.New().String())
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}
