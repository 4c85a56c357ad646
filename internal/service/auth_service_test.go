package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/umnlabs/checkoff/internal/models"
	"github.com/umnlabs/checkoff/internal/service/integration"
)

type MockIdentityClient struct {
	mock.Mock
}

func (m *MockIdentityClient) Resolve(ctx context.Context, token string) (*integration.Identity, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.Identity), args.Error(1)
}

type MockUserRepo struct {
	mock.Mock
}

func (m *MockUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepo) GetByAuthUserID(ctx context.Context, authUserID string) (*models.User, error) {
	args := m.Called(ctx, authUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepo) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func TestResolveUser_EmptyToken(t *testing.T) {
	svc := NewAuthService(new(MockIdentityClient), new(MockUserRepo), "@umn.edu", zerolog.Nop())

	_, err := svc.ResolveUser(context.Background(), "")
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestResolveUser_InvalidToken(t *testing.T) {
	identityClient := new(MockIdentityClient)
	identityClient.On("Resolve", mock.Anything, "garbage").Return(nil, integration.ErrInvalidToken)

	svc := NewAuthService(identityClient, new(MockUserRepo), "@umn.edu", zerolog.Nop())

	_, err := svc.ResolveUser(context.Background(), "garbage")
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestResolveUser_DisallowedDomain(t *testing.T) {
	identityClient := new(MockIdentityClient)
	identityClient.On("Resolve", mock.Anything, "token").Return(&integration.Identity{
		AuthUserID: "auth-1",
		Email:      "someone@gmail.com",
	}, nil)

	userRepo := new(MockUserRepo)
	svc := NewAuthService(identityClient, userRepo, "@umn.edu", zerolog.Nop())

	_, err := svc.ResolveUser(context.Background(), "token")
	assert.ErrorIs(t, err, ErrUnauthenticated)
	userRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestResolveUser_ExistingUser(t *testing.T) {
	identityClient := new(MockIdentityClient)
	identityClient.On("Resolve", mock.Anything, "token").Return(&integration.Identity{
		AuthUserID: "auth-1",
		Email:      "swan0042@umn.edu",
	}, nil)

	existing := &models.User{ID: "user-1", AuthUserID: "auth-1", Role: models.RoleTA}
	userRepo := new(MockUserRepo)
	userRepo.On("GetByAuthUserID", mock.Anything, "auth-1").Return(existing, nil)

	svc := NewAuthService(identityClient, userRepo, "@umn.edu", zerolog.Nop())

	user, err := svc.ResolveUser(context.Background(), "token")
	require.NoError(t, err)
	assert.Equal(t, "user-1", user.ID)
	assert.Equal(t, models.RoleTA, user.Role)
	userRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestResolveUser_FirstSignInCreatesStudent(t *testing.T) {
	identityClient := new(MockIdentityClient)
	identityClient.On("Resolve", mock.Anything, "token").Return(&integration.Identity{
		AuthUserID: "auth-1",
		Email:      "swan0042@umn.edu",
		FirstName:  "Ada",
		LastName:   "Swanson",
	}, nil)

	userRepo := new(MockUserRepo)
	userRepo.On("GetByAuthUserID", mock.Anything, "auth-1").Return(nil, nil)
	userRepo.On("Create", mock.Anything, mock.MatchedBy(func(u *models.User) bool {
		return u.Role == models.RoleStudent && u.Email == "swan0042@umn.edu"
	})).Return(nil)

	svc := NewAuthService(identityClient, userRepo, "@umn.edu", zerolog.Nop())

	user, err := svc.ResolveUser(context.Background(), "token")
	require.NoError(t, err)
	assert.Equal(t, models.RoleStudent, user.Role)
	assert.Equal(t, "Ada", user.FirstName)
	userRepo.AssertExpectations(t)
}

func TestResolveUser_CreateRaceFallsBackToExisting(t *testing.T) {
	identityClient := new(MockIdentityClient)
	identityClient.On("Resolve", mock.Anything, "token").Return(&integration.Identity{
		AuthUserID: "auth-1",
		Email:      "swan0042@umn.edu",
	}, nil)

	winner := &models.User{ID: "user-1", AuthUserID: "auth-1", Role: models.RoleStudent}
	userRepo := new(MockUserRepo)
	userRepo.On("GetByAuthUserID", mock.Anything, "auth-1").Return(nil, nil).Once()
	userRepo.On("Create", mock.Anything, mock.Anything).Return(errors.New("duplicate key"))
	userRepo.On("GetByAuthUserID", mock.Anything, "auth-1").Return(winner, nil).Once()

	svc := NewAuthService(identityClient, userRepo, "@umn.edu", zerolog.Nop())

	user, err := svc.ResolveUser(context.Background(), "token")
	require.NoError(t, err)
	assert.Equal(t, "user-1", user.ID)
}

func TestEmailAllowed(t *testing.T) {
	svc := NewAuthService(new(MockIdentityClient), new(MockUserRepo), "@umn.edu", zerolog.Nop())

	assert.True(t, svc.EmailAllowed("swan0042@umn.edu"))
	assert.False(t, svc.EmailAllowed("swan0042@gmail.com"))
	assert.False(t, svc.EmailAllowed("swan0042@umn.edu.evil.com"))
}
