package dashboard

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrUnknownMetric is returned by Ingest for readings whose metric name is
// not in the recognized set. The reading is discarded.
var ErrUnknownMetric = errors.New("unknown metric")

// DefaultHistoryCapacity bounds the per-metric rolling history when no
// capacity is configured.
const DefaultHistoryCapacity = 60

// MetricState holds the latest reading and rolling history of one metric
type MetricState struct {
	Current   Reading   `json:"current"`
	History   []Reading `json:"history"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Snapshot is an immutable copy of the aggregated state, safe for
// concurrent reading
type Snapshot struct {
	TakenAt time.Time              `json:"taken_at"`
	Metrics map[Metric]MetricState `json:"metrics"`
}

// VehicleState aggregates telemetry readings into the latest value and a
// bounded history per metric. Writes go through Ingest, readers take a
// Snapshot. The mutex is held only for the duration of an update or copy.
type VehicleState struct {
	mu       sync.Mutex
	capacity int
	metrics  map[Metric]*MetricState
	logger   *zap.SugaredLogger
}

// Ingest validates and records a single reading. The current value is
// replaced and the reading appended to the history, evicting the oldest
// entry at capacity.
func (s *VehicleState) Ingest(reading Reading) error {
	if !reading.Metric.Known() {
		return fmt.Errorf("VehicleState: %w: %q", ErrUnknownMetric, reading.Metric)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.metrics[reading.Metric]
	if !ok {
		state = &MetricState{
			History: make([]Reading, 0, s.capacity),
		}
		s.metrics[reading.Metric] = state
	}

	// Timestamp monotonicity is a source obligation, not an invariant
	// enforced here. A regression is logged and the reading kept.
	if reading.MeasuredAt.Before(state.Current.MeasuredAt) {
		s.logger.Warnf("VehicleState: timestamp regression for %q: %s < %s",
			reading.Metric, reading.MeasuredAt.Format(time.RFC3339Nano), state.Current.MeasuredAt.Format(time.RFC3339Nano))
	}

	state.Current = reading
	state.UpdatedAt = time.Now()

	state.History = append(state.History, reading)
	if len(state.History) > s.capacity {
		state.History = state.History[len(state.History)-s.capacity:]
	}

	return nil
}

// Snapshot returns a deep copy of the current values and histories. A
// caller never observes a partially applied update.
func (s *VehicleState) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := Snapshot{
		TakenAt: time.Now(),
		Metrics: make(map[Metric]MetricState, len(s.metrics)),
	}

	for metric, state := range s.metrics {
		history := make([]Reading, len(state.History))
		copy(history, state.History)

		snapshot.Metrics[metric] = MetricState{
			Current:   state.Current,
			History:   history,
			UpdatedAt: state.UpdatedAt,
		}
	}

	return snapshot
}

// NewVehicleState creates an empty aggregate with the given history
// capacity per metric
func NewVehicleState(capacity int, logger *zap.SugaredLogger) *VehicleState {
	if capacity <= 0 {
		capacity = DefaultHistoryCapacity
	}

	return &VehicleState{
		capacity: capacity,
		metrics:  make(map[Metric]*MetricState),
		logger:   logger,
	}
}
