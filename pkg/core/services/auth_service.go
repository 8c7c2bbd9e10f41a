package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/wadjakorntonsri/triptree/pkg/core/domain"
	"github.com/wadjakorntonsri/triptree/pkg/ports"
	"golang.org/x/crypto/bcrypt"
)

const passwordCost = 10

type AuthService struct {
	users ports.UserRepository
	now   clock

	dummyOnce sync.Once
	dummyHash []byte
}

func NewAuthService(users ports.UserRepository) *AuthService {
	return &AuthService{users: users, now: systemClock}
}

func (s *AuthService) Signup(ctx context.Context, in domain.SignupInput) (*domain.User, error) {
	in.Email = normalizeEmail(in.Email)
	if err := domain.Validate(in); err != nil {
		return nil, err
	}

	taken, err := s.users.ExistsByEmailOrUsername(ctx, in.Email, in.Username)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, domain.ErrConflict
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), passwordCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now()
	user := &domain.User{
		ID:             uuid.NewString(),
		Email:          in.Email,
		Username:       in.Username,
		PasswordHash:   string(hash),
		DisplayName:    in.DisplayName,
		Theme:          domain.DefaultTheme,
		AccentHue:      domain.DefaultAccentHue,
		OverlayOpacity: domain.DefaultOverlayOpacity,
		OverlayBlur:    domain.DefaultOverlayBlur,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	// The unique indexes still catch a concurrent signup that won the race.
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, in domain.LoginInput) (*domain.User, error) {
	in.Email = normalizeEmail(in.Email)
	if err := domain.Validate(in); err != nil {
		return nil, err
	}

	user, err := s.users.GetByEmail(ctx, in.Email)
	if errors.Is(err, domain.ErrNotFound) {
		// Same bcrypt work as a real mismatch, so timing does not reveal the account.
		_ = bcrypt.CompareHashAndPassword(s.dummy(), []byte(in.Password))
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	return user, nil
}

func (s *AuthService) LoginWithEmail(ctx context.Context, email string) (*domain.User, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrInvalidCredentials
	}
	return user, err
}

func (s *AuthService) dummy() []byte {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("triptree-dummy-password"), passwordCost)
	})
	return s.dummyHash
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
