// Package metrics keeps per-run training metric series for later inspection
// and charting, with optional Redis persistence.
package metrics

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Point is a single metric observation within a training run.
type Point struct {
	Epoch     int       `json:"epoch"`
	Value     float64   `json:"value"`
	Timestamp time.Time `json:"timestamp"`
}

// History stores metric series keyed by run ID and metric name. Safe for
// concurrent use. Series are bounded; old points are evicted oldest-first.
type History struct {
	mu        sync.RWMutex
	series    map[string]map[string][]Point // run -> metric -> points
	maxPoints int
	storage   *RedisStorage // optional
}

// NewHistory creates an in-memory history keeping at most maxPoints per series.
func NewHistory(maxPoints int) *History {
	if maxPoints <= 0 {
		maxPoints = 1000
	}
	return &History{
		series:    make(map[string]map[string][]Point),
		maxPoints: maxPoints,
	}
}

// NewHistoryWithRedis creates a history that also persists every point to
// Redis. Persistence failures are silent; the in-memory series is the
// source of truth for the current process.
func NewHistoryWithRedis(maxPoints int, storage *RedisStorage) *History {
	h := NewHistory(maxPoints)
	h.storage = storage
	return h
}

// Record appends one observation to the named series.
func (h *History) Record(runID, metric string, epoch int, value float64) {
	p := Point{Epoch: epoch, Value: value, Timestamp: time.Now()}

	h.mu.Lock()
	run, ok := h.series[runID]
	if !ok {
		run = make(map[string][]Point)
		h.series[runID] = run
	}
	pts := append(run[metric], p)
	if len(pts) > h.maxPoints {
		pts = pts[len(pts)-h.maxPoints:]
	}
	run[metric] = pts
	h.mu.Unlock()

	if h.storage != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = h.storage.SavePoint(ctx, runID, metric, p)
	}
}

// RecordAll appends one observation per metric for the same epoch.
func (h *History) RecordAll(runID string, epoch int, values map[string]float64) {
	for metric, v := range values {
		h.Record(runID, metric, epoch, v)
	}
}

// Series returns a copy of one metric series, in insertion order.
func (h *History) Series(runID, metric string) []Point {
	h.mu.RLock()
	defer h.mu.RUnlock()
	pts := h.series[runID][metric]
	out := make([]Point, len(pts))
	copy(out, pts)
	return out
}

// Metrics lists the metric names recorded for a run, sorted.
func (h *History) Metrics(runID string) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	var names []string
	for name := range h.series[runID] {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Runs lists the known run IDs, sorted.
func (h *History) Runs() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	var runs []string
	for id := range h.series {
		runs = append(runs, id)
	}
	sort.Strings(runs)
	return runs
}

// Latest returns the most recent point of a series, if any.
func (h *History) Latest(runID, metric string) (Point, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	pts := h.series[runID][metric]
	if len(pts) == 0 {
		return Point{}, false
	}
	return pts[len(pts)-1], true
}
