package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/dogdaycare/daycare-api/internal/core/domain"
	"github.com/dogdaycare/daycare-api/internal/core/ports"
)

type auditService struct {
	repo ports.AuthEventRepository
	log  zerolog.Logger
}

// NewAuditService returns an AuditService implementation.
func NewAuditService(repo ports.AuthEventRepository, log zerolog.Logger) ports.AuditService {
	return &auditService{repo: repo, log: log}
}

// Record normalises and persists a single authentication event.
func (s *auditService) Record(ctx context.Context, in ports.AuthEventInput) error {
	if in.Type == "" {
		return fmt.Errorf("record auth event: %w: event type is required", domain.ErrValidation)
	}

	ts := in.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	event := &domain.AuthEvent{
		Type:      in.Type,
		AccountID: in.AccountID,
		Username:  domain.FoldUsername(in.Username),
		Method:    in.Method,
		Reason:    in.Reason,
		IP:        in.IP,
		UserAgent: in.UserAgent,
		Timestamp: ts.UTC(),
	}

	if err := s.repo.InsertEvent(ctx, event); err != nil {
		return fmt.Errorf("record auth event: %w", err)
	}

	s.log.Debug().
		Str("type", string(event.Type)).
		Str("account_id", event.AccountID).
		Str("method", event.Method).
		Msg("auth event recorded")

	return nil
}
