package ports

import (
	"context"

	"github.com/dogdaycare/daycare-api/internal/core/domain"
)

// OAuthProvider runs the authorization-code exchange with an external identity
// provider. The profile it returns is trusted as-is.
type OAuthProvider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*domain.ExternalProfile, error)
}
