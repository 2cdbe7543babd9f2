package dashboard

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type recordingSink struct {
	mu     sync.Mutex
	frames []Frame
	err    error
}

func (s *recordingSink) Render(frame Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.frames = append(s.frames, frame)

	return s.err
}

func (s *recordingSink) last() (Frame, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.frames) == 0 {
		return Frame{}, false
	}

	return s.frames[len(s.frames)-1], true
}

func TestLoop_TickRendersSnapshotAndAlerts(t *testing.T) {
	state := NewVehicleState(10, testLogger())
	assert.NoError(t, state.Ingest(reading(MetricSpeed, 120, 0)))

	sink := &recordingSink{}
	loop := NewLoop(state, DefaultThresholds(), []Sink{sink}, time.Second, testLogger())

	loop.tick()

	frame, ok := sink.last()
	assert.True(t, ok)
	assert.False(t, frame.Stale)
	assert.Equal(t, 120.0, frame.Snapshot.Metrics[MetricSpeed].Current.Value)
	assert.Len(t, frame.Alerts, 1)
	assert.Equal(t, MetricSpeed, frame.Alerts[0].Metric)
}

func TestLoop_AlertsNotCarriedOver(t *testing.T) {
	state := NewVehicleState(10, testLogger())
	assert.NoError(t, state.Ingest(reading(MetricSpeed, 120, 0)))

	sink := &recordingSink{}
	loop := NewLoop(state, DefaultThresholds(), []Sink{sink}, time.Second, testLogger())

	loop.tick()
	assert.NoError(t, state.Ingest(reading(MetricSpeed, 80, 1)))
	loop.tick()

	frame, _ := sink.last()
	assert.Empty(t, frame.Alerts)
}

func TestLoop_EmptyStateRendersStale(t *testing.T) {
	state := NewVehicleState(10, testLogger())
	sink := &recordingSink{}
	loop := NewLoop(state, DefaultThresholds(), []Sink{sink}, time.Second, testLogger())

	loop.tick()

	frame, ok := sink.last()
	assert.True(t, ok)
	assert.True(t, frame.Stale)
}

func TestLoop_DegradedSourceRendersStale(t *testing.T) {
	state := NewVehicleState(10, testLogger())
	assert.NoError(t, state.Ingest(reading(MetricSpeed, 60, 0)))

	sink := &recordingSink{}
	loop := NewLoop(state, DefaultThresholds(), []Sink{sink}, time.Second, testLogger())

	loop.SetDegraded(true)
	loop.tick()
	frame, _ := sink.last()
	assert.True(t, frame.Stale)

	loop.SetDegraded(false)
	loop.tick()
	frame, _ = sink.last()
	assert.False(t, frame.Stale)
}

func TestLoop_RenderFailureDoesNotStopOtherSinks(t *testing.T) {
	state := NewVehicleState(10, testLogger())
	assert.NoError(t, state.Ingest(reading(MetricSpeed, 60, 0)))

	failing := &recordingSink{err: errors.New("render failed")}
	healthy := &recordingSink{}
	loop := NewLoop(state, DefaultThresholds(), []Sink{failing, healthy}, time.Second, testLogger())

	loop.tick()
	loop.tick()

	assert.Len(t, failing.frames, 2)
	assert.Len(t, healthy.frames, 2)
}

func TestLoop_RunStopsCleanly(t *testing.T) {
	state := NewVehicleState(10, testLogger())
	sink := &recordingSink{}
	loop := NewLoop(state, DefaultThresholds(), []Sink{sink}, 5*time.Millisecond, testLogger())

	done := make(chan struct{})
	go func() {
		loop.Run()
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	loop.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("loop did not stop")
	}

	_, rendered := sink.last()
	assert.True(t, rendered)

	// Stop is idempotent.
	loop.Stop()
}
