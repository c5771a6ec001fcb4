package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/dogdaycare/daycare-api/internal/core/domain"
	"github.com/dogdaycare/daycare-api/internal/core/ports"
)

// AuthService implements local registration, login and password rotation.
type AuthService struct {
	repo   ports.AccountRepository
	hasher *PasswordHasher
	log    zerolog.Logger
}

func NewAuthService(repo ports.AccountRepository, hasher *PasswordHasher, log zerolog.Logger) *AuthService {
	if hasher == nil {
		hasher = NewPasswordHasher(0)
	}
	return &AuthService{repo: repo, hasher: hasher, log: log}
}

// Authenticate looks the account up by case-folded username and verifies the
// password. Unknown users, external accounts and wrong passwords all yield
// domain.ErrAuthenticationFailed.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (*domain.Account, error) {
	name := domain.FoldUsername(username)
	if name == "" || password == "" {
		return nil, fmt.Errorf("authenticate: %w: username and password are required", domain.ErrValidation)
	}

	account, err := s.repo.FindByUsername(ctx, name)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			s.log.Debug().Str("username", name).Msg("login for unknown username")
			return nil, domain.ErrAuthenticationFailed
		}
		return nil, storageError("authenticate", err)
	}

	if account.AuthKind != domain.AuthKindLocal {
		s.log.Debug().Str("username", name).Str("auth_kind", string(account.AuthKind)).Msg("password login for external account")
		return nil, domain.ErrAuthenticationFailed
	}
	if !s.hasher.Verify(password, account.PasswordHash) {
		s.log.Debug().Str("username", name).Msg("password mismatch")
		return nil, domain.ErrAuthenticationFailed
	}

	return account, nil
}

// Register creates a local account. The existence check is only an early
// exit; the store's unique index decides concurrent registrations.
func (s *AuthService) Register(ctx context.Context, username, password string) (*domain.Account, error) {
	name := domain.FoldUsername(username)
	if name == "" {
		return nil, fmt.Errorf("register: %w: username is required", domain.ErrValidation)
	}
	if err := validatePassword(password); err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	_, err := s.repo.FindByUsername(ctx, name)
	switch {
	case err == nil:
		return nil, domain.ErrUsernameTaken
	case !errors.Is(err, domain.ErrAccountNotFound):
		return nil, storageError("register", err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	now := time.Now().UTC()
	account := &domain.Account{
		Username:     name,
		PasswordHash: hash,
		AuthKind:     domain.AuthKindLocal,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := account.Validate(); err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	created, err := s.repo.Insert(ctx, account)
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateKey) {
			return nil, domain.ErrUsernameTaken
		}
		return nil, storageError("register", err)
	}

	s.log.Info().Str("account_id", created.ID).Str("username", created.Username).Msg("account registered")
	return created, nil
}

// ChangePassword rotates the hash of a local account after checking the
// current password.
func (s *AuthService) ChangePassword(ctx context.Context, accountID, current, next string) error {
	account, err := s.repo.FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return fmt.Errorf("change password: %w", err)
		}
		return storageError("change password", err)
	}

	if account.IsExternal() {
		return fmt.Errorf("change password: %w: account has no local password", domain.ErrValidation)
	}
	if !s.hasher.Verify(current, account.PasswordHash) {
		return domain.ErrAuthenticationFailed
	}
	if err := validatePassword(next); err != nil {
		return fmt.Errorf("change password: %w", err)
	}

	hash, err := s.hasher.Hash(next)
	if err != nil {
		return fmt.Errorf("change password: %w", err)
	}
	if err := s.repo.UpdatePasswordHash(ctx, account.ID, hash); err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return fmt.Errorf("change password: %w", err)
		}
		return storageError("change password", err)
	}

	s.log.Info().Str("account_id", account.ID).Msg("password changed")
	return nil
}
