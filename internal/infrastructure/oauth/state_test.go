package oauth

import (
	"errors"
	"testing"
	"time"

	"github.com/dogdaycare/daycare-api/internal/core/domain"
)

func TestStateSigner_RoundTrip(t *testing.T) {
	s := NewStateSigner("secret", time.Minute)

	state, err := s.Issue()
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if err := s.Verify(state); err != nil {
		t.Fatalf("verify: %v", err)
	}
}

func TestStateSigner_Unique(t *testing.T) {
	s := NewStateSigner("secret", time.Minute)

	a, _ := s.Issue()
	b, _ := s.Issue()
	if a == b {
		t.Fatalf("expected distinct states")
	}
}

func TestStateSigner_Rejects(t *testing.T) {
	s := NewStateSigner("secret", time.Minute)
	other := NewStateSigner("other-secret", time.Minute)

	foreign, err := other.Issue()
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	cases := map[string]string{
		"empty":        "",
		"garbage":      "not-a-token",
		"wrong secret": foreign,
	}
	for name, state := range cases {
		t.Run(name, func(t *testing.T) {
			if err := s.Verify(state); !errors.Is(err, domain.ErrOAuthState) {
				t.Fatalf("expected ErrOAuthState, got %v", err)
			}
		})
	}
}

func TestStateSigner_Expired(t *testing.T) {
	s := NewStateSigner("secret", time.Minute)
	issued := time.Now()
	s.now = func() time.Time { return issued }

	state, err := s.Issue()
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	s.now = func() time.Time { return issued.Add(2 * time.Minute) }
	if err := s.Verify(state); !errors.Is(err, domain.ErrOAuthState) {
		t.Fatalf("expected ErrOAuthState for expired state, got %v", err)
	}
}
