package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/dogdaycare/daycare-api/internal/core/domain"
	"github.com/dogdaycare/daycare-api/internal/core/ports"
)

type recordingAudit struct {
	mu     sync.Mutex
	events []ports.AuthEventInput
	err    error
	done   chan struct{}
	want   int
}

func newRecordingAudit(want int) *recordingAudit {
	return &recordingAudit{done: make(chan struct{}), want: want}
}

func (r *recordingAudit) Record(_ context.Context, event ports.AuthEventInput) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	if len(r.events) == r.want {
		close(r.done)
	}
	return r.err
}

func (r *recordingAudit) wait(t *testing.T) {
	t.Helper()
	select {
	case <-r.done:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for %d events", r.want)
	}
}

func TestDispatcher_PreservesPerAccountOrder(t *testing.T) {
	audit := newRecordingAudit(20)
	d := NewDispatcher(4, audit, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	types := []domain.AuthEventType{domain.EventLoginSucceeded, domain.EventPasswordChanged}
	for i := 0; i < 10; i++ {
		d.Enqueue(ports.AuthEventInput{Type: types[i%2], AccountID: "acc-1", Reason: string(rune('a' + i))})
		d.Enqueue(ports.AuthEventInput{Type: domain.EventLoginFailed, Username: "rex", Reason: string(rune('a' + i))})
	}
	audit.wait(t)

	audit.mu.Lock()
	defer audit.mu.Unlock()
	var acc, rex []string
	for _, e := range audit.events {
		if e.Timestamp.IsZero() {
			t.Fatalf("timestamp not defaulted")
		}
		if e.AccountID == "acc-1" {
			acc = append(acc, e.Reason)
		} else {
			rex = append(rex, e.Reason)
		}
	}
	for i := range acc {
		if acc[i] != string(rune('a'+i)) || rex[i] != string(rune('a'+i)) {
			t.Fatalf("events out of order: %v %v", acc, rex)
		}
	}
}

func TestDispatcher_WriteFailureDoesNotStopWorker(t *testing.T) {
	audit := newRecordingAudit(2)
	audit.err = errors.New("mongo down")
	d := NewDispatcher(1, audit, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	d.Enqueue(ports.AuthEventInput{Type: domain.EventLogout, AccountID: "a"})
	d.Enqueue(ports.AuthEventInput{Type: domain.EventLogout, AccountID: "a"})
	audit.wait(t)
}

func TestDispatcher_EnqueueDropsWhenFull(t *testing.T) {
	audit := newRecordingAudit(-1)
	d := NewDispatcher(1, audit, zerolog.Nop())

	// Workers are not started, so the buffer fills up.
	for i := 0; i < channelBuffer+10; i++ {
		d.Enqueue(ports.AuthEventInput{Type: domain.EventLoginFailed, Username: "rex"})
	}
	if got := len(d.workers[0]); got != channelBuffer {
		t.Fatalf("expected %d buffered events, got %d", channelBuffer, got)
	}
}

func TestDispatcher_StopsOnCancel(t *testing.T) {
	d := NewDispatcher(2, newRecordingAudit(-1), zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)
	cancel()

	done := make(chan struct{})
	go func() {
		d.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("workers did not stop")
	}
}

func TestShardIndex_Deterministic(t *testing.T) {
	d := NewDispatcher(8, newRecordingAudit(-1), zerolog.Nop())
	first := d.shardIndex("acc-1")
	for i := 0; i < 5; i++ {
		if d.shardIndex("acc-1") != first {
			t.Fatalf("shard index changed")
		}
	}
	if first < 0 || first >= 8 {
		t.Fatalf("shard index out of range: %d", first)
	}
}
