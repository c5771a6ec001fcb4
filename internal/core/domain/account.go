package domain

import (
	"fmt"
	"strings"
	"time"
)

// AuthKind tells how an account proves its identity. It is fixed at creation.
type AuthKind string

const (
	AuthKindLocal  AuthKind = "local"
	AuthKindGitHub AuthKind = "github"
)

// Account is a stored identity record, either password based or linked to an
// external OAuth identity.
type Account struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	ExternalID   string    `json:"-"`
	AuthKind     AuthKind  `json:"auth_kind"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IsExternal reports whether the account was created from an OAuth profile.
func (a *Account) IsExternal() bool {
	return a.AuthKind == AuthKindGitHub
}

// Validate checks the record-level invariants before the account is persisted:
// a non-empty case-folded username and exactly one credential matching AuthKind.
func (a *Account) Validate() error {
	if a.Username == "" {
		return fmt.Errorf("%w: username is required", ErrValidation)
	}
	if a.Username != FoldUsername(a.Username) {
		return fmt.Errorf("%w: username must be case-folded", ErrValidation)
	}

	switch a.AuthKind {
	case AuthKindLocal:
		if a.PasswordHash == "" {
			return fmt.Errorf("%w: local account requires a password", ErrValidation)
		}
		if a.ExternalID != "" {
			return fmt.Errorf("%w: local account cannot carry an external id", ErrValidation)
		}
	case AuthKindGitHub:
		if a.ExternalID == "" {
			return fmt.Errorf("%w: external account requires an external id", ErrValidation)
		}
		if a.PasswordHash != "" {
			return fmt.Errorf("%w: external account cannot carry a password", ErrValidation)
		}
	default:
		return fmt.Errorf("%w: unknown auth kind %q", ErrValidation, a.AuthKind)
	}
	return nil
}

// FoldUsername trims and lower-cases a username. Every comparison and every
// stored username goes through it.
func FoldUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// ExternalProfile is the verified identity handed over by an OAuth provider
// after a successful callback exchange.
type ExternalProfile struct {
	ExternalID        string
	SuggestedUsername string
}

// SessionReference is the only value kept in a session. It is a weak pointer
// and must be resolved against the account store on every request.
type SessionReference struct {
	AccountID string `json:"account_id"`
}
