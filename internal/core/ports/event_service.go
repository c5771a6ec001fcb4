package ports

import (
	"context"
	"time"

	"github.com/dogdaycare/daycare-api/internal/core/domain"
)

// AuthEventInput is the DTO passed from the transport layer to AuditService.
type AuthEventInput struct {
	Type      domain.AuthEventType
	AccountID string
	Username  string
	Method    string
	Reason    string
	IP        string
	UserAgent string
	Timestamp time.Time
}

// AuditService records authentication events.
type AuditService interface {
	Record(ctx context.Context, event AuthEventInput) error
}
