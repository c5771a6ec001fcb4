package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dogdaycare/daycare-api/internal/core/domain"
)

// SessionStore keeps session references in Redis with a TTL.
// Key format: session:<sha256(token)>, so raw tokens never reach the server.
type SessionStore struct {
	client  *redis.Client
	timeout time.Duration
}

// NewSessionStore creates a SessionStore wrapping the given Redis client.
func NewSessionStore(client *redis.Client, timeout time.Duration) *SessionStore {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &SessionStore{client: client, timeout: timeout}
}

// Save stores ref under token; it expires after ttl.
func (s *SessionStore) Save(ctx context.Context, token string, ref domain.SessionReference, ttl time.Duration) error {
	payload, err := json.Marshal(ref)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.client.Set(ctx, sessionKey(token), payload, ttl).Err(); err != nil {
		return translateError("save session", err)
	}
	return nil
}

// Load fetches the reference for token. With a positive renew the expiry is
// reset in the same round trip (GETEX). Undecodable payloads are treated as
// missing sessions.
func (s *SessionStore) Load(ctx context.Context, token string, renew time.Duration) (domain.SessionReference, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var cmd *redis.StringCmd
	if renew > 0 {
		cmd = s.client.GetEx(ctx, sessionKey(token), renew)
	} else {
		cmd = s.client.Get(ctx, sessionKey(token))
	}

	raw, err := cmd.Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.SessionReference{}, domain.ErrSessionNotFound
		}
		return domain.SessionReference{}, translateError("load session", err)
	}

	var ref domain.SessionReference
	if err := json.Unmarshal(raw, &ref); err != nil || ref.AccountID == "" {
		return domain.SessionReference{}, domain.ErrSessionNotFound
	}
	return ref, nil
}

// Delete removes the session. Missing keys are not an error.
func (s *SessionStore) Delete(ctx context.Context, token string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.client.Del(ctx, sessionKey(token)).Err(); err != nil {
		return translateError("delete session", err)
	}
	return nil
}

func sessionKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return "session:" + hex.EncodeToString(sum[:])
}

func translateError(op string, err error) error {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		return fmt.Errorf("%s: %w", op, domain.ErrStorageTimeout)
	default:
		return fmt.Errorf("%s: %w: %v", op, domain.ErrStorage, err)
	}
}
