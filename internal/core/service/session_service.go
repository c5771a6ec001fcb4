package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/dogdaycare/daycare-api/internal/core/domain"
	"github.com/dogdaycare/daycare-api/internal/core/ports"
)

const (
	defaultSessionTTL = 24 * time.Hour
	sessionTokenBytes = 32
)

// SessionConfig controls session lifetime. With Rolling set, every resolved
// request pushes the expiry TTL into the future again.
type SessionConfig struct {
	TTL     time.Duration
	Rolling bool
}

// SessionService stores a SessionReference per token and resolves it back to
// the account on each request.
type SessionService struct {
	store    ports.SessionStore
	accounts ports.AccountRepository
	cfg      SessionConfig
	log      zerolog.Logger
}

func NewSessionService(store ports.SessionStore, accounts ports.AccountRepository, cfg SessionConfig, log zerolog.Logger) *SessionService {
	if cfg.TTL <= 0 {
		cfg.TTL = defaultSessionTTL
	}
	return &SessionService{store: store, accounts: accounts, cfg: cfg, log: log}
}

// TTL is the configured session window.
func (s *SessionService) TTL() time.Duration {
	return s.cfg.TTL
}

func (s *SessionService) Rolling() bool {
	return s.cfg.Rolling
}

// Serialize reduces an account to the reference kept in the session.
func (s *SessionService) Serialize(account *domain.Account) domain.SessionReference {
	return domain.SessionReference{AccountID: account.ID}
}

// Resolve loads the account a reference points to. A dangling reference
// yields domain.ErrAccountNotFound.
func (s *SessionService) Resolve(ctx context.Context, ref domain.SessionReference) (*domain.Account, error) {
	if ref.AccountID == "" {
		return nil, domain.ErrAccountNotFound
	}
	account, err := s.accounts.FindByID(ctx, ref.AccountID)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, storageError("resolve session", err)
	}
	return account, nil
}

// Start opens a session for account and returns the token the client presents
// on later requests.
func (s *SessionService) Start(ctx context.Context, account *domain.Account) (string, error) {
	token, err := newSessionToken()
	if err != nil {
		return "", fmt.Errorf("start session: %w", err)
	}
	if err := s.store.Save(ctx, token, s.Serialize(account), s.cfg.TTL); err != nil {
		return "", storageError("start session", err)
	}

	s.log.Debug().Str("account_id", account.ID).Msg("session started")
	return token, nil
}

// Load resolves a token to its account. Unknown tokens and sessions whose
// account is gone both return domain.ErrSessionNotFound; the latter are also
// removed from the store.
func (s *SessionService) Load(ctx context.Context, token string) (*domain.Account, error) {
	if token == "" {
		return nil, domain.ErrSessionNotFound
	}

	var renew time.Duration
	if s.cfg.Rolling {
		renew = s.cfg.TTL
	}

	ref, err := s.store.Load(ctx, token, renew)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, storageError("load session", err)
	}

	account, err := s.Resolve(ctx, ref)
	if err != nil {
		if !errors.Is(err, domain.ErrAccountNotFound) {
			return nil, err
		}
		if delErr := s.store.Delete(ctx, token); delErr != nil {
			s.log.Warn().Err(delErr).Str("account_id", ref.AccountID).Msg("failed to clear dangling session")
		}
		return nil, domain.ErrSessionNotFound
	}
	return account, nil
}

// End deletes the session. Ending an unknown token is not an error.
func (s *SessionService) End(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.store.Delete(ctx, token); err != nil {
		return storageError("end session", err)
	}
	return nil
}

func newSessionToken() (string, error) {
	b := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
