package stream

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/rankforge/rankforge/internal/pkg/logger"
)

// EmitterConfig controls push behavior. The queue path is unconditional.
type EmitterConfig struct {
	// QueueSize bounds the local event buffer.
	QueueSize int `json:"queue_size" yaml:"queue_size"`

	// PushTimeout bounds each external publish attempt.
	PushTimeout time.Duration `json:"push_timeout" yaml:"push_timeout"`

	// RatePerSecond caps push frequency; excess events stay queue-only.
	RatePerSecond float64 `json:"rate_per_second" yaml:"rate_per_second"`

	// MaxFailures downgrades the emitter to queue-only after this many
	// consecutive publish failures. 0 disables the downgrade.
	MaxFailures int `json:"max_failures" yaml:"max_failures"`
}

// DefaultEmitterConfig returns conservative push defaults.
func DefaultEmitterConfig() EmitterConfig {
	return EmitterConfig{
		QueueSize:     2048,
		PushTimeout:   2 * time.Second,
		RatePerSecond: 20,
		MaxFailures:   5,
	}
}

// Emitter records every event in the local queue and additionally pushes it
// to an optional external publisher. Push failures are logged and swallowed;
// they never propagate to the training loop.
type Emitter struct {
	cfg       EmitterConfig
	queue     *Queue
	publisher Publisher
	limiter   *rate.Limiter
	log       *logger.Logger

	mu         sync.Mutex
	failures   int
	downgraded bool
}

// NewEmitter wires a queue and an optional publisher. A nil publisher means
// queue-only operation.
func NewEmitter(cfg EmitterConfig, publisher Publisher, log *logger.Logger) *Emitter {
	var limiter *rate.Limiter
	if cfg.RatePerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), 1)
	}
	return &Emitter{
		cfg:       cfg,
		queue:     NewQueue(cfg.QueueSize),
		publisher: publisher,
		limiter:   limiter,
		log:       log,
	}
}

// Emit records the event and attempts a best-effort push.
func (e *Emitter) Emit(event Event) {
	e.queue.Append(event)

	if e.publisher == nil {
		return
	}
	e.mu.Lock()
	downgraded := e.downgraded
	e.mu.Unlock()
	if downgraded {
		return
	}
	if e.limiter != nil && !e.limiter.Allow() {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), e.cfg.PushTimeout)
	defer cancel()
	if err := e.publisher.Publish(ctx, event); err != nil {
		e.recordFailure(err)
		return
	}

	e.mu.Lock()
	e.failures = 0
	e.mu.Unlock()
}

func (e *Emitter) recordFailure(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.failures++
	e.log.Warn("metric push failed", "error", err, "consecutive_failures", e.failures)
	if e.cfg.MaxFailures > 0 && e.failures >= e.cfg.MaxFailures && !e.downgraded {
		e.downgraded = true
		e.log.Warn("metric stream downgraded to queue-only", "failures", e.failures)
	}
}

// Queue exposes the reliable local buffer.
func (e *Emitter) Queue() *Queue { return e.queue }

// Downgraded reports whether external pushes have been disabled.
func (e *Emitter) Downgraded() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.downgraded
}

// Close shuts down the publisher, if any.
func (e *Emitter) Close() error {
	if e.publisher == nil {
		return nil
	}
	return e.publisher.Close()
}
