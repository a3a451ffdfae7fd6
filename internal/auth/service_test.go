package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/doughjo-app/doughjo/internal/shared"
)

type stubRepo struct {
	user    *User
	created *User
}

func (s *stubRepo) FindByEmail(ctx context.Context, email string) (*User, error) {
	if s.user == nil || s.user.Email != email {
		return nil, shared.ErrNotFound
	}
	return s.user, nil
}

func (s *stubRepo) CreateUser(ctx context.Context, user User) (*User, error) {
	if s.user != nil && s.user.Email == user.Email {
		return nil, ErrEmailTaken
	}
	user.IsActive = true
	s.created = &user
	return &user, nil
}

func activeUser(t *testing.T, password string) *User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &User{
		ID:           "user-1",
		Email:        "casey@example.com",
		PasswordHash: string(hash),
		FirstName:    "Casey",
		LastName:     "Morgan",
		IsActive:     true,
	}
}

func TestAuthenticateSuccess(t *testing.T) {
	svc := NewService(&stubRepo{user: activeUser(t, "hunter2hunter2")})

	user, err := svc.Authenticate(context.Background(), "casey@example.com", "hunter2hunter2")
	require.NoError(t, err)
	assert.Equal(t, "user-1", user.ID)
	assert.Equal(t, "Casey Morgan", user.FullName())
}

func TestAuthenticateWrongPassword(t *testing.T) {
	svc := NewService(&stubRepo{user: activeUser(t, "hunter2hunter2")})

	_, err := svc.Authenticate(context.Background(), "casey@example.com", "wrong-password")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestAuthenticateUnknownEmail(t *testing.T) {
	svc := NewService(&stubRepo{})

	_, err := svc.Authenticate(context.Background(), "nobody@example.com", "whatever123")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestAuthenticateInactiveUser(t *testing.T) {
	user := activeUser(t, "hunter2hunter2")
	user.IsActive = false
	svc := NewService(&stubRepo{user: user})

	_, err := svc.Authenticate(context.Background(), "casey@example.com", "hunter2hunter2")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestAuthenticateWithoutStore(t *testing.T) {
	svc := NewService(nil)

	_, err := svc.Authenticate(context.Background(), "casey@example.com", "hunter2hunter2")
	require.ErrorIs(t, err, shared.ErrStoreNotConfigured)
}

func TestRegisterHashesPassword(t *testing.T) {
	repo := &stubRepo{}
	svc := NewService(repo)

	user, err := svc.Register(context.Background(), "new@example.com", "hunter2hunter2", "Jamie", "Lee")
	require.NoError(t, err)

	assert.NotEmpty(t, user.ID)
	assert.NotEqual(t, "hunter2hunter2", user.PasswordHash)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("hunter2hunter2")))
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := NewService(&stubRepo{user: activeUser(t, "hunter2hunter2")})

	_, err := svc.Register(context.Background(), "casey@example.com", "hunter2hunter2", "Casey", "Morgan")
	require.ErrorIs(t, err, ErrEmailTaken)
}
