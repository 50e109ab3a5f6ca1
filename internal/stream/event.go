// Package stream delivers live training metrics to external consumers. The
// local queue is the reliable path; pushes to Kafka or a webhook are
// best-effort and never block or fail a training run.
package stream

import (
	"time"

	"github.com/google/uuid"
)

// Event types emitted during training sessions.
const (
	TypeEpoch       = "training.epoch"
	TypeComplete    = "training.complete"
	TypeIncremental = "update.incremental"
	TypeOnline      = "update.online"
)

// DefaultTopic is the Kafka topic for training metric events.
const DefaultTopic = "rankforge.training.metrics"

// Event is one live metric observation.
type Event struct {
	// ID is the unique event identifier.
	ID string `json:"id"`

	// Type is the event type (e.g., "training.epoch").
	Type string `json:"type"`

	// RunID ties events of one training session together.
	RunID string `json:"run_id"`

	// Epoch is the 1-based epoch number, 0 for non-epoch events.
	Epoch int `json:"epoch,omitempty"`

	// Metrics holds the metric values for this observation.
	Metrics map[string]float64 `json:"metrics"`

	// Timestamp is when the event was created.
	Timestamp int64 `json:"timestamp"`
}

// NewEvent creates an event with a fresh ID and current timestamp.
func NewEvent(eventType, runID string, epoch int, metrics map[string]float64) Event {
	return Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		RunID:     runID,
		Epoch:     epoch,
		Metrics:   metrics,
		Timestamp: time.Now().UnixMilli(),
	}
}
