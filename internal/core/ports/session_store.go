package ports

import (
	"context"
	"time"

	"github.com/dogdaycare/daycare-api/internal/core/domain"
)

// SessionStore persists session references keyed by a client-presented token.
type SessionStore interface {
	Save(ctx context.Context, token string, ref domain.SessionReference, ttl time.Duration) error
	// Load returns domain.ErrSessionNotFound for unknown or expired tokens.
	// A positive renew resets the expiry window.
	Load(ctx context.Context, token string, renew time.Duration) (domain.SessionReference, error)
	Delete(ctx context.Context, token string) error
}
