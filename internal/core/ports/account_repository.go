package ports

import (
	"context"

	"github.com/dogdaycare/daycare-api/internal/core/domain"
)

// AccountRepository is the credential store. It exclusively owns account
// records. Lookups return domain.ErrAccountNotFound when nothing matches and
// domain.ErrStorageTimeout when the store did not answer in time.
type AccountRepository interface {
	FindByUsername(ctx context.Context, username string) (*domain.Account, error)
	FindByExternalID(ctx context.Context, externalID string) (*domain.Account, error)
	FindByID(ctx context.Context, id string) (*domain.Account, error)
	// Insert persists a new account and returns it with its assigned ID.
	// A uniqueness violation is reported as domain.ErrDuplicateKey.
	Insert(ctx context.Context, account *domain.Account) (*domain.Account, error)
	UpdatePasswordHash(ctx context.Context, id, hash string) error
}
