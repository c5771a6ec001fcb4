package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/dogdaycare/daycare-api/internal/core/domain"
)

func newTestStore(t *testing.T) (*SessionStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	return NewSessionStore(client, time.Second), mr
}

func TestSessionStore_SaveSetsTTL(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	if err := store.Save(ctx, "tok", domain.SessionReference{AccountID: "a1"}, time.Hour); err != nil {
		t.Fatalf("save: %v", err)
	}

	key := sessionKey("tok")
	if !mr.Exists(key) {
		t.Fatalf("expected %s to exist", key)
	}
	if mr.Exists("tok") {
		t.Fatalf("raw token must not be used as key")
	}
	if got := mr.TTL(key); got != time.Hour {
		t.Fatalf("expected ttl of one hour, got %v", got)
	}
	raw, err := mr.Get(key)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !strings.Contains(raw, `"a1"`) {
		t.Fatalf("unexpected payload: %s", raw)
	}
}

func TestSessionStore_LoadRenewsTTL(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	if err := store.Save(ctx, "tok", domain.SessionReference{AccountID: "a1"}, time.Hour); err != nil {
		t.Fatalf("save: %v", err)
	}
	mr.FastForward(40 * time.Minute)

	ref, err := store.Load(ctx, "tok", time.Hour)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if ref.AccountID != "a1" {
		t.Fatalf("unexpected reference: %+v", ref)
	}
	if got := mr.TTL(sessionKey("tok")); got != time.Hour {
		t.Fatalf("expected ttl reset to one hour, got %v", got)
	}

	// Still alive past the original expiry.
	mr.FastForward(40 * time.Minute)
	if _, err := store.Load(ctx, "tok", 0); err != nil {
		t.Fatalf("renewed session should still load: %v", err)
	}
}

func TestSessionStore_LoadWithoutRenewKeepsTTL(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	if err := store.Save(ctx, "tok", domain.SessionReference{AccountID: "a1"}, time.Hour); err != nil {
		t.Fatalf("save: %v", err)
	}
	mr.FastForward(40 * time.Minute)

	if _, err := store.Load(ctx, "tok", 0); err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := mr.TTL(sessionKey("tok")); got != 20*time.Minute {
		t.Fatalf("expected remaining ttl of 20m, got %v", got)
	}

	mr.FastForward(21 * time.Minute)
	if _, err := store.Load(ctx, "tok", 0); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected expired session, got %v", err)
	}
}

func TestSessionStore_LoadMissing(t *testing.T) {
	store, _ := newTestStore(t)

	for _, renew := range []time.Duration{0, time.Hour} {
		if _, err := store.Load(context.Background(), "nope", renew); !errors.Is(err, domain.ErrSessionNotFound) {
			t.Fatalf("renew=%v: expected ErrSessionNotFound, got %v", renew, err)
		}
	}
}

func TestSessionStore_LoadUnusablePayload(t *testing.T) {
	store, mr := newTestStore(t)

	for token, payload := range map[string]string{
		"garbled":  "not-json",
		"no-owner": `{"account_id":""}`,
		"empty":    `{}`,
	} {
		if err := mr.Set(sessionKey(token), payload); err != nil {
			t.Fatalf("seed %s: %v", token, err)
		}
		if _, err := store.Load(context.Background(), token, 0); !errors.Is(err, domain.ErrSessionNotFound) {
			t.Fatalf("%s: expected ErrSessionNotFound, got %v", token, err)
		}
	}
}

func TestSessionStore_Delete(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	if err := store.Save(ctx, "tok", domain.SessionReference{AccountID: "a1"}, time.Hour); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Delete(ctx, "tok"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if mr.Exists(sessionKey("tok")) {
		t.Fatalf("session key still present")
	}
	if err := store.Delete(ctx, "tok"); err != nil {
		t.Fatalf("deleting a missing session should succeed, got %v", err)
	}
}

func TestSessionStore_ServerDown(t *testing.T) {
	store, mr := newTestStore(t)
	mr.Close()

	err := store.Save(context.Background(), "tok", domain.SessionReference{AccountID: "a1"}, time.Hour)
	if !domain.IsStorageFailure(err) {
		t.Fatalf("expected storage failure, got %v", err)
	}
	if _, err := store.Load(context.Background(), "tok", 0); errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("an unreachable server must not look like a missing session")
	}
}

func TestSessionKey(t *testing.T) {
	k1 := sessionKey("token-a")
	k2 := sessionKey("token-b")

	if !strings.HasPrefix(k1, "session:") {
		t.Fatalf("unexpected key prefix: %s", k1)
	}
	if strings.Contains(k1, "token-a") {
		t.Fatalf("raw token leaked into key: %s", k1)
	}
	if k1 == k2 {
		t.Fatalf("different tokens produced the same key")
	}
	if k1 != sessionKey("token-a") {
		t.Fatalf("key derivation is not deterministic")
	}
	if len(k1) != len("session:")+64 {
		t.Fatalf("expected hex sha256 suffix, got %s", k1)
	}
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestTranslateError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want error
	}{
		{"deadline", fmt.Errorf("wrapped: %w", context.DeadlineExceeded), domain.ErrStorageTimeout},
		{"net timeout", timeoutErr{}, domain.ErrStorageTimeout},
		{"other", errors.New("READONLY You can't write against a read only replica."), domain.ErrStorage},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := translateError("op", tc.err)
			if !errors.Is(got, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}
