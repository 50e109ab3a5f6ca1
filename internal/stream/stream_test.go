package stream

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rankforge/rankforge/internal/pkg/errors"
	"github.com/rankforge/rankforge/internal/pkg/logger"
)

func TestQueueDropsOldestWhenFull(t *testing.T) {
	q := NewQueue(3)
	for i := 0; i < 5; i++ {
		q.Append(NewEvent(TypeEpoch, "run", i+1, nil))
	}
	if q.Len() != 3 {
		t.Fatalf("queue length = %d, want 3", q.Len())
	}
	if q.Dropped() != 2 {
		t.Errorf("dropped = %d, want 2", q.Dropped())
	}
	events := q.Snapshot()
	if events[0].Epoch != 3 || events[2].Epoch != 5 {
		t.Errorf("oldest events should be evicted, got epochs %d..%d", events[0].Epoch, events[2].Epoch)
	}
}

func TestQueueDrain(t *testing.T) {
	q := NewQueue(10)
	q.Append(NewEvent(TypeEpoch, "run", 1, nil))
	q.Append(NewEvent(TypeComplete, "run", 0, nil))
	drained := q.Drain()
	if len(drained) != 2 {
		t.Fatalf("drained %d events, want 2", len(drained))
	}
	if q.Len() != 0 {
		t.Errorf("queue should be empty after drain, len = %d", q.Len())
	}
}

func TestNewEventFields(t *testing.T) {
	e := NewEvent(TypeEpoch, "run-1", 3, map[string]float64{"loss": 0.5})
	if e.ID == "" {
		t.Error("missing event id")
	}
	if e.Type != TypeEpoch || e.RunID != "run-1" || e.Epoch != 3 {
		t.Errorf("unexpected event fields: %+v", e)
	}
	if e.Timestamp == 0 {
		t.Error("missing timestamp")
	}
}

func TestWebhookPublisher(t *testing.T) {
	var received atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var e Event
		if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
			t.Errorf("bad payload: %v", err)
		}
		if e.RunID != "run-9" {
			t.Errorf("run id = %q", e.RunID)
		}
		received.Add(1)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	p, err := NewWebhookPublisher(WebhookConfig{URL: srv.URL})
	if err != nil {
		t.Fatalf("NewWebhookPublisher: %v", err)
	}
	if err := p.Publish(context.Background(), NewEvent(TypeEpoch, "run-9", 1, nil)); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if received.Load() != 1 {
		t.Errorf("server received %d events, want 1", received.Load())
	}
}

func TestWebhookPublisherErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	p, err := NewWebhookPublisher(WebhookConfig{URL: srv.URL})
	if err != nil {
		t.Fatalf("NewWebhookPublisher: %v", err)
	}
	err = p.Publish(context.Background(), NewEvent(TypeEpoch, "run", 1, nil))
	if !errors.IsCode(err, errors.CodeUnavailable) {
		t.Errorf("expected unavailable error, got %v", err)
	}
}

func TestWebhookPublisherRequiresURL(t *testing.T) {
	if _, err := NewWebhookPublisher(WebhookConfig{}); err == nil {
		t.Fatal("expected validation error for empty url")
	}
}

// failingPublisher always errors, for downgrade testing.
type failingPublisher struct{ calls atomic.Int64 }

func (p *failingPublisher) Publish(context.Context, Event) error {
	p.calls.Add(1)
	return errors.New(errors.CodeUnavailable, "sink down")
}
func (p *failingPublisher) Close() error { return nil }

func TestEmitterSwallowsPushFailures(t *testing.T) {
	cfg := DefaultEmitterConfig()
	cfg.RatePerSecond = 0 // no throttling in test
	cfg.MaxFailures = 3
	sink := &failingPublisher{}
	e := NewEmitter(cfg, sink, logger.Default())

	for i := 0; i < 10; i++ {
		e.Emit(NewEvent(TypeEpoch, "run", i+1, map[string]float64{"loss": 1.0}))
	}

	// Every event reaches the queue regardless of push failures.
	if e.Queue().Len() != 10 {
		t.Errorf("queue holds %d events, want 10", e.Queue().Len())
	}
	if !e.Downgraded() {
		t.Error("emitter should downgrade after repeated failures")
	}
	// After the downgrade, the publisher is no longer called.
	if sink.calls.Load() != 3 {
		t.Errorf("publisher called %d times, want 3", sink.calls.Load())
	}
}

func TestEmitterQueueOnly(t *testing.T) {
	e := NewEmitter(DefaultEmitterConfig(), nil, logger.Default())
	e.Emit(NewEvent(TypeOnline, "run", 0, nil))
	if e.Queue().Len() != 1 {
		t.Errorf("queue holds %d events, want 1", e.Queue().Len())
	}
	if err := e.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestEmitterRateLimitKeepsQueueReliable(t *testing.T) {
	cfg := DefaultEmitterConfig()
	cfg.RatePerSecond = 1 // one push per second: burst of 1
	sink := &countingPublisher{}
	e := NewEmitter(cfg, sink, logger.Default())

	for i := 0; i < 5; i++ {
		e.Emit(NewEvent(TypeEpoch, "run", i+1, nil))
	}
	if e.Queue().Len() != 5 {
		t.Errorf("queue holds %d events, want 5", e.Queue().Len())
	}
	if got := sink.calls.Load(); got > 2 {
		t.Errorf("rate limiter allowed %d pushes in a burst", got)
	}
}

type countingPublisher struct{ calls atomic.Int64 }

func (p *countingPublisher) Publish(context.Context, Event) error {
	p.calls.Add(1)
	return nil
}
func (p *countingPublisher) Close() error { return nil }

func TestEmitterPushTimeoutBounded(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer slow.Close()

	p, err := NewWebhookPublisher(WebhookConfig{URL: slow.URL, Timeout: 10 * time.Second})
	if err != nil {
		t.Fatalf("NewWebhookPublisher: %v", err)
	}
	cfg := DefaultEmitterConfig()
	cfg.PushTimeout = 50 * time.Millisecond
	cfg.RatePerSecond = 0
	e := NewEmitter(cfg, p, logger.Default())

	start := time.Now()
	e.Emit(NewEvent(TypeEpoch, "run", 1, nil))
	if elapsed := time.Since(start); elapsed > 300*time.Millisecond {
		t.Errorf("emit blocked for %v despite 50ms push timeout", elapsed)
	}
	if e.Queue().Len() != 1 {
		t.Error("event must still land in the queue")
	}
}
