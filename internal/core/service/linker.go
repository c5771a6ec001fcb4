package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/dogdaycare/daycare-api/internal/core/domain"
	"github.com/dogdaycare/daycare-api/internal/core/ports"
)

// IdentityLinker resolves external OAuth profiles to accounts. At most one
// account exists per external id; the store's sparse unique index enforces it.
type IdentityLinker struct {
	repo ports.AccountRepository
	log  zerolog.Logger
}

func NewIdentityLinker(repo ports.AccountRepository, log zerolog.Logger) *IdentityLinker {
	return &IdentityLinker{repo: repo, log: log}
}

// Link returns the account bound to profile.ExternalID, creating it on first
// login. If the suggested username already belongs to a different account the
// link fails with domain.ErrUsernameCollision. created is true only when this
// call inserted the account.
func (l *IdentityLinker) Link(ctx context.Context, profile domain.ExternalProfile) (*domain.Account, bool, error) {
	externalID := strings.TrimSpace(profile.ExternalID)
	name := domain.FoldUsername(profile.SuggestedUsername)
	if externalID == "" || name == "" {
		return nil, false, fmt.Errorf("link identity: %w: external id and username are required", domain.ErrValidation)
	}

	existing, err := l.findLinked(ctx, externalID)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	now := time.Now().UTC()
	account := &domain.Account{
		Username:   name,
		ExternalID: externalID,
		AuthKind:   domain.AuthKindGitHub,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := account.Validate(); err != nil {
		return nil, false, fmt.Errorf("link identity: %w", err)
	}

	inserted, err := l.repo.Insert(ctx, account)
	if err == nil {
		l.log.Info().
			Str("account_id", inserted.ID).
			Str("username", inserted.Username).
			Str("external_id", externalID).
			Msg("external account created")
		return inserted, true, nil
	}
	if !errors.Is(err, domain.ErrDuplicateKey) {
		return nil, false, storageError("link identity", err)
	}

	// A concurrent first login for the same identity may have won the insert.
	existing, err = l.findLinked(ctx, externalID)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	l.log.Warn().Str("username", name).Str("external_id", externalID).Msg("external login collides with existing username")
	return nil, false, fmt.Errorf("link identity %q: %w", name, domain.ErrUsernameCollision)
}

// findLinked returns (nil, nil) when no account carries externalID.
func (l *IdentityLinker) findLinked(ctx context.Context, externalID string) (*domain.Account, error) {
	account, err := l.repo.FindByExternalID(ctx, externalID)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil, nil
		}
		return nil, storageError("link identity", err)
	}
	return account, nil
}
