package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/dogdaycare/daycare-api/internal/core/domain"
	"github.com/dogdaycare/daycare-api/internal/core/ports"
)

type stubEventRepo struct {
	insertErr error
	inserted  []*domain.AuthEvent
}

func (r *stubEventRepo) InsertEvent(_ context.Context, e *domain.AuthEvent) error {
	if r.insertErr != nil {
		return r.insertErr
	}
	r.inserted = append(r.inserted, e)
	return nil
}

func TestAuditService_Record(t *testing.T) {
	repo := &stubEventRepo{}
	svc := NewAuditService(repo, zerolog.Nop())

	before := time.Now().UTC()
	err := svc.Record(context.Background(), ports.AuthEventInput{
		Type:     domain.EventLoginFailed,
		Username: " Alice ",
		Method:   "local",
		Reason:   "invalid_credentials",
		IP:       "10.0.0.1",
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if len(repo.inserted) != 1 {
		t.Fatalf("expected one event, got %d", len(repo.inserted))
	}

	got := repo.inserted[0]
	if got.Username != "alice" {
		t.Fatalf("expected folded username, got %q", got.Username)
	}
	if got.Timestamp.Before(before) {
		t.Fatalf("expected timestamp to default to now, got %s", got.Timestamp)
	}
	if got.Type != domain.EventLoginFailed || got.Reason != "invalid_credentials" || got.IP != "10.0.0.1" {
		t.Fatalf("unexpected event: %+v", got)
	}
}

func TestAuditService_Record_KeepsTimestamp(t *testing.T) {
	repo := &stubEventRepo{}
	svc := NewAuditService(repo, zerolog.Nop())

	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.FixedZone("CST", -6*3600))
	if err := svc.Record(context.Background(), ports.AuthEventInput{Type: domain.EventLogout, AccountID: "acc-1", Timestamp: ts}); err != nil {
		t.Fatalf("record: %v", err)
	}
	if !repo.inserted[0].Timestamp.Equal(ts) || repo.inserted[0].Timestamp.Location() != time.UTC {
		t.Fatalf("expected the given instant in UTC, got %s", repo.inserted[0].Timestamp)
	}
}

func TestAuditService_Record_Errors(t *testing.T) {
	repo := &stubEventRepo{}
	svc := NewAuditService(repo, zerolog.Nop())

	if err := svc.Record(context.Background(), ports.AuthEventInput{}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}

	repo.insertErr = domain.ErrStorage
	if err := svc.Record(context.Background(), ports.AuthEventInput{Type: domain.EventLogout}); !errors.Is(err, domain.ErrStorage) {
		t.Fatalf("expected ErrStorage, got %v", err)
	}
}
