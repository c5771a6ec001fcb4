package ports

import (
	"context"

	"github.com/dogdaycare/daycare-api/internal/core/domain"
)

// Authenticator verifies local username/password pairs.
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (*domain.Account, error)
}

// Registrar creates local accounts and rotates their password hashes.
type Registrar interface {
	Register(ctx context.Context, username, password string) (*domain.Account, error)
	ChangePassword(ctx context.Context, accountID, current, next string) error
}

// IdentityLinker maps an external OAuth profile to a local account,
// creating one on first login. created reports whether this call inserted it.
type IdentityLinker interface {
	Link(ctx context.Context, profile domain.ExternalProfile) (account *domain.Account, created bool, err error)
}

// SessionManager binds accounts to session tokens.
type SessionManager interface {
	Serialize(account *domain.Account) domain.SessionReference
	Resolve(ctx context.Context, ref domain.SessionReference) (*domain.Account, error)
	Start(ctx context.Context, account *domain.Account) (string, error)
	Load(ctx context.Context, token string) (*domain.Account, error)
	End(ctx context.Context, token string) error
	// Rolling reports whether Load extends the session window.
	Rolling() bool
}
