package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/umnlabs/checkoff/internal/models"
	"github.com/umnlabs/checkoff/internal/repository"
	"github.com/umnlabs/checkoff/internal/service/integration"
)

type AuthService interface {
	// ResolveUser maps a bearer session token to a local user record,
	// creating the record on first sign-in. Accounts outside the allowed
	// email domain are treated as unauthenticated.
	ResolveUser(ctx context.Context, token string) (*models.User, error)
	EmailAllowed(email string) bool
	AllowedSuffix() string
}

type authService struct {
	identityClient integration.IdentityClient
	userRepo       repository.UserRepository
	allowedSuffix  string
	logger         zerolog.Logger
}

func NewAuthService(
	identityClient integration.IdentityClient,
	userRepo repository.UserRepository,
	allowedSuffix string,
	logger zerolog.Logger,
) AuthService {
	return &authService{
		identityClient: identityClient,
		userRepo:       userRepo,
		allowedSuffix:  allowedSuffix,
		logger:         logger,
	}
}

func (s *authService) ResolveUser(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, ErrUnauthenticated
	}

	identity, err := s.identityClient.Resolve(ctx, token)
	if err != nil {
		if errors.Is(err, integration.ErrInvalidToken) {
			return nil, ErrUnauthenticated
		}
		return nil, fmt.Errorf("failed to resolve identity: %w", err)
	}

	if !s.EmailAllowed(identity.Email) {
		s.logger.Warn().Str("email", identity.Email).Msg("Sign-in from disallowed email domain")
		return nil, ErrUnauthenticated
	}

	user, err := s.userRepo.GetByAuthUserID(ctx, identity.AuthUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if user != nil {
		return user, nil
	}

	// First sign-in: create the record with the default student role.
	// Role elevation happens out-of-band.
	now := time.Now()
	user = &models.User{
		ID:         uuid.New().String(),
		AuthUserID: identity.AuthUserID,
		Email:      identity.Email,
		FirstName:  identity.FirstName,
		LastName:   identity.LastName,
		Role:       models.RoleStudent,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		// A concurrent first sign-in may have raced us; re-read before failing.
		existing, lookupErr := s.userRepo.GetByAuthUserID(ctx, identity.AuthUserID)
		if lookupErr == nil && existing != nil {
			return existing, nil
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info().
		Str("user_id", user.ID).
		Str("email", user.Email).
		Msg("User created on first sign-in")

	return user, nil
}

func (s *authService) EmailAllowed(email string) bool {
	return strings.HasSuffix(email, s.allowedSuffix)
}

func (s *authService) AllowedSuffix() string {
	return s.allowedSuffix
}
