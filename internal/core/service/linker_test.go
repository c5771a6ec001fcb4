package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/dogdaycare/daycare-api/internal/core/domain"
)

func TestIdentityLinker_CreatesOnFirstLogin(t *testing.T) {
	repo := newStubAccountRepo()
	linker := NewIdentityLinker(repo, zerolog.Nop())

	profile := domain.ExternalProfile{ExternalID: "583231", SuggestedUsername: "OctoCat"}

	first, created, err := linker.Link(context.Background(), profile)
	if err != nil {
		t.Fatalf("first link failed: %v", err)
	}
	if !created {
		t.Fatalf("first link should report the account as created")
	}
	if first.Username != "octocat" {
		t.Fatalf("expected case-folded username, got %q", first.Username)
	}
	if first.AuthKind != domain.AuthKindGitHub || first.ExternalID != "583231" {
		t.Fatalf("unexpected account: %+v", first)
	}
	if first.PasswordHash != "" {
		t.Fatalf("external account must not carry a password hash")
	}

	second, created, err := linker.Link(context.Background(), profile)
	if err != nil {
		t.Fatalf("second link failed: %v", err)
	}
	if created {
		t.Fatalf("second link must not report a new account")
	}
	if second.ID != first.ID {
		t.Fatalf("expected the same account, got %s and %s", first.ID, second.ID)
	}
	if repo.inserts != 1 {
		t.Fatalf("expected exactly one insert, got %d", repo.inserts)
	}
}

func TestIdentityLinker_UsernameCollision(t *testing.T) {
	repo := newStubAccountRepo()
	repo.seed(&domain.Account{Username: "octocat", PasswordHash: "x", AuthKind: domain.AuthKindLocal})
	linker := NewIdentityLinker(repo, zerolog.Nop())

	_, created, err := linker.Link(context.Background(), domain.ExternalProfile{ExternalID: "583231", SuggestedUsername: "octocat"})
	if !errors.Is(err, domain.ErrUsernameCollision) {
		t.Fatalf("expected ErrUsernameCollision, got %v", err)
	}
	if created || repo.inserts != 0 {
		t.Fatalf("no account should be created, got %d inserts", repo.inserts)
	}
}

func TestIdentityLinker_ConcurrentFirstLoginRetriesLookup(t *testing.T) {
	repo := newStubAccountRepo()
	var winner *domain.Account
	repo.beforeInsert = func(r *stubAccountRepo) {
		r.beforeInsert = nil
		winner = r.seed(&domain.Account{Username: "octocat", ExternalID: "583231", AuthKind: domain.AuthKindGitHub})
	}
	linker := NewIdentityLinker(repo, zerolog.Nop())

	account, created, err := linker.Link(context.Background(), domain.ExternalProfile{ExternalID: "583231", SuggestedUsername: "octocat"})
	if err != nil {
		t.Fatalf("link failed: %v", err)
	}
	if created {
		t.Fatalf("the request that lost the insert must not report the account as created")
	}
	if account.ID != winner.ID {
		t.Fatalf("expected the concurrently created account %s, got %s", winner.ID, account.ID)
	}
	if len(repo.byID) != 1 {
		t.Fatalf("expected one stored account, got %d", len(repo.byID))
	}
}

func TestIdentityLinker_Validation(t *testing.T) {
	linker := NewIdentityLinker(newStubAccountRepo(), zerolog.Nop())

	for _, p := range []domain.ExternalProfile{
		{ExternalID: "", SuggestedUsername: "octocat"},
		{ExternalID: "1", SuggestedUsername: "  "},
	} {
		if _, _, err := linker.Link(context.Background(), p); !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("expected ErrValidation for %+v, got %v", p, err)
		}
	}
}

func TestIdentityLinker_StorageErrors(t *testing.T) {
	repo := newStubAccountRepo()
	repo.findErr = domain.ErrStorageTimeout
	linker := NewIdentityLinker(repo, zerolog.Nop())

	if _, _, err := linker.Link(context.Background(), domain.ExternalProfile{ExternalID: "1", SuggestedUsername: "octo"}); !errors.Is(err, domain.ErrStorageTimeout) {
		t.Fatalf("expected ErrStorageTimeout, got %v", err)
	}

	repo.findErr = nil
	repo.insertErr = errors.New("socket closed")
	if _, _, err := linker.Link(context.Background(), domain.ExternalProfile{ExternalID: "1", SuggestedUsername: "octo"}); !errors.Is(err, domain.ErrStorage) {
		t.Fatalf("expected ErrStorage, got %v", err)
	}
}
