package service

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/dom/writing-assistant/internal/domain"
	"github.com/dom/writing-assistant/internal/repository"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type AuthService struct {
	userRepo       repository.UserRepository
	hasher         PasswordHasher
	startingTokens int

	dummyOnce   sync.Once
	dummyDigest string
}

func NewAuthService(userRepo repository.UserRepository, hasher PasswordHasher, startingTokens int) *AuthService {
	return &AuthService{
		userRepo:       userRepo,
		hasher:         hasher,
		startingTokens: startingTokens,
	}
}

type Credentials struct {
	Email    string
	Password string
	Remember bool
}

func (s *AuthService) Signup(ctx context.Context, input Credentials) (*Result, error) {
	if errs := domain.ValidateCredentials(input.Email, input.Password); !errs.Empty() {
		return invalid(http.StatusBadRequest, errs), nil
	}

	_, err := s.userRepo.GetByEmail(ctx, input.Email)
	if err == nil {
		return emailTaken(), nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}

	hashedPassword, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		ID:           uuid.New(),
		Email:        input.Email,
		PasswordHash: hashedPassword,
		Tokens:       s.startingTokens,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		// Lost a race with a concurrent signup for the same email.
		if errors.Is(err, domain.ErrEmailTaken) {
			return emailTaken(), nil
		}
		return nil, err
	}

	log.Ctx(ctx).Info().Str("user_id", user.ID.String()).Msg("user signed up")
	return sessionFor(user.ID, input.Remember), nil
}

// Login reports the same result for an unknown email and a wrong password.
func (s *AuthService) Login(ctx context.Context, input Credentials) (*Result, error) {
	if errs := domain.ValidateCredentials(input.Email, input.Password); !errs.Empty() {
		return invalid(http.StatusBadRequest, errs), nil
	}

	user, err := s.userRepo.GetByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			// Spend the same bcrypt time as a real check.
			s.hasher.Verify(input.Password, s.fallbackDigest())
			return badCredentials(), nil
		}
		return nil, err
	}

	if !s.hasher.Verify(input.Password, user.PasswordHash) {
		return badCredentials(), nil
	}

	return sessionFor(user.ID, input.Remember), nil
}

// CurrentUser loads the principal for an authenticated user id.
func (s *AuthService) CurrentUser(ctx context.Context, id uuid.UUID) (*domain.Principal, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return user.Principal(), nil
}

func (s *AuthService) fallbackDigest() string {
	s.dummyOnce.Do(func() {
		s.dummyDigest, _ = s.hasher.Hash(uuid.NewString())
	})
	return s.dummyDigest
}

func emailTaken() *Result {
	return invalid(http.StatusUnprocessableEntity, domain.FieldErrors{"credentials": MsgEmailTaken})
}

func badCredentials() *Result {
	return invalid(http.StatusUnauthorized, domain.FieldErrors{"credentials": MsgBadCredentials})
}
