package dashboard

import (
	"time"

	"go.uber.org/atomic"
	"go.uber.org/zap"
)

// Loop drives the presentation cycle: on each tick it takes a snapshot of
// the vehicle state, evaluates the alert thresholds and renders the frame
// to every configured sink. It never touches the telemetry source, so a
// slow source cannot stall rendering.
type Loop struct {
	state      *VehicleState
	thresholds Thresholds
	sinks      []Sink
	interval   time.Duration
	degraded   *atomic.Bool
	done       chan struct{}
	logger     *zap.SugaredLogger
}

// SetDegraded marks the telemetry path as unavailable or restored. A
// degraded loop renders a stale-data frame instead of failing.
func (l *Loop) SetDegraded(degraded bool) {
	l.degraded.Store(degraded)
}

// Run the Loop until Stop is called. Cancellation is checked between
// ticks, never mid-render.
func (l *Loop) Run() {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-l.done:
			l.logger.Infof("Loop: stopped")

			return
		case <-ticker.C:
			l.tick()
		}
	}
}

// Stop requests a clean termination of the Loop
func (l *Loop) Stop() {
	select {
	case <-l.done:
	default:
		close(l.done)
	}
}

// One presentation cycle. Alerts are recomputed from scratch; a failing
// sink is logged and the remaining sinks still render.
func (l *Loop) tick() {
	snapshot := l.state.Snapshot()
	alerts := EvaluateAlerts(snapshot, l.thresholds)

	frame := Frame{
		Snapshot: snapshot,
		Alerts:   alerts,
		Stale:    l.degraded.Load() || len(snapshot.Metrics) == 0,
	}

	l.logCycle(&frame)

	for _, sink := range l.sinks {
		if err := sink.Render(frame); err != nil {
			l.logger.Errorf("Loop: render failed, retrying next tick: %s", err)
		}
	}
}

// Log one line per cycle with the current values, plus a warning per alert
func (l *Loop) logCycle(frame *Frame) {
	fields := make([]interface{}, 0, 2*len(frame.Snapshot.Metrics)+2)
	fields = append(fields, "stale", frame.Stale)

	for _, metric := range Metrics {
		if state, ok := frame.Snapshot.Metrics[metric]; ok {
			fields = append(fields, string(metric), state.Current.Value)
		}
	}

	l.logger.Infow("Loop: cycle", fields...)

	for _, alert := range frame.Alerts {
		l.logger.Warnf("Loop: %s", alert)
	}
}

// NewLoop creates a new Loop
func NewLoop(state *VehicleState, thresholds Thresholds, sinks []Sink, interval time.Duration, logger *zap.SugaredLogger) *Loop {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}

	return &Loop{
		state:      state,
		thresholds: thresholds,
		sinks:      sinks,
		interval:   interval,
		degraded:   atomic.NewBool(false),
		done:       make(chan struct{}),
		logger:     logger,
	}
}
