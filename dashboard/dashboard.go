package dashboard

import (
	"database/sql"
	"errors"
	"sync"

	"go.uber.org/zap"
)

// ErrTelemetryUnavailable is reported by a Source whose underlying data
// path cannot be reached. The dashboard renders stale data instead of
// crashing.
var ErrTelemetryUnavailable = errors.New("telemetry unavailable")

// Source delivers telemetry readings until shut down. The returned channel
// is closed when no further readings will arrive. Timestamps per metric
// must be monotonically non-decreasing.
type Source interface {
	Subscribe() (<-chan Reading, error)
	Shutdown() error
}

// Dashboard wires a telemetry Source, the VehicleState aggregate and the
// presentation Loop together
type Dashboard struct {
	config Config
	source Source
	state  *VehicleState
	writer *Writer
	loop   *Loop
	logger *zap.SugaredLogger
}

// Run the Dashboard until the WaitGroup is released
func (d *Dashboard) Run(wg *sync.WaitGroup) {
	readings, err := d.source.Subscribe()
	if err != nil {
		if !errors.Is(err, ErrTelemetryUnavailable) {
			d.logger.Fatalf("dashboard: %s", err)
		}

		// Degraded, not fatal: keep rendering a stale frame.
		d.logger.Errorf("dashboard: %s", err)
		d.loop.SetDegraded(true)
	} else {
		defer d.source.Shutdown()

		go d.consume(readings)
	}

	go d.loop.Run()
	defer d.loop.Stop()

	wg.Wait()
}

// Drain the source, serializing all ingest calls through this goroutine
func (d *Dashboard) consume(readings <-chan Reading) {
	for reading := range readings {
		d.handleReading(&reading)
	}

	d.logger.Warnf("dashboard: telemetry source closed")
	d.loop.SetDegraded(true)
}

// Handles a single reading
func (d *Dashboard) handleReading(reading *Reading) {
	if err := d.state.Ingest(*reading); err != nil {
		d.logger.Warnf("dashboard: discarding reading: %s", err)

		return
	}

	d.loop.SetDegraded(false)

	if d.writer != nil {
		if err := d.writer.Write(reading); err != nil {
			d.logger.Errorf("dashboard: %s", err)
		}
	}
}

// NewDashboard creates a new Dashboard. The db handle is optional; when
// present every accepted reading is persisted through a Writer.
func NewDashboard(config Config, source Source, sinks []Sink, db *sql.DB, logger *zap.SugaredLogger) *Dashboard {
	state := NewVehicleState(config.HistoryCapacity, logger)

	var writer *Writer
	if db != nil {
		writer = NewWriter(config.Writer, db, logger)
	}

	return &Dashboard{
		config: config,
		source: source,
		state:  state,
		writer: writer,
		loop:   NewLoop(state, config.Thresholds, sinks, config.RefreshInterval(), logger),
		logger: logger,
	}
}
