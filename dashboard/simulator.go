package dashboard

import (
	"math"
	"math/rand"
	"time"

	"go.uber.org/zap"
)

// SimulatorConfig represents the config of the Simulator
type SimulatorConfig struct {
	IntervalSeconds float64 `yaml:"interval_seconds"`
	InitialSpeed    float64 `yaml:"initial_speed"`
}

// Simulator produces synthetic telemetry readings: a random-walk speed, an
// RPM value derived from it and a battery level draining with engine load.
// It is the default Source when no AMQP broker is configured.
type Simulator struct {
	config   SimulatorConfig
	rng      *rand.Rand
	speed    float64
	rpm      float64
	battery  float64
	readings chan Reading
	done     chan struct{}
	logger   *zap.SugaredLogger
}

// Advance the simulated vehicle by one step and return the resulting
// readings, one per simulated metric, sharing a timestamp
func (s *Simulator) step(now time.Time) []Reading {
	s.speed = math.Max(0, s.speed+float64(s.rng.Intn(31)-15))

	rpm := s.speed*30 + float64(s.rng.Intn(801)-400)
	s.rpm = math.Max(800, math.Min(6500, rpm))

	drain := 0.01 + s.rpm/1500000
	s.battery = math.Round(math.Max(0, s.battery-drain)*100) / 100

	return []Reading{
		{Metric: MetricSpeed, Value: s.speed, MeasuredAt: now},
		{Metric: MetricRPM, Value: s.rpm, MeasuredAt: now},
		{Metric: MetricBattery, Value: s.battery, MeasuredAt: now},
	}
}

// Subscribe starts the simulation loop
func (s *Simulator) Subscribe() (<-chan Reading, error) {
	interval := time.Duration(s.config.IntervalSeconds * float64(time.Second))
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}

	s.logger.Infof("Simulator: producing readings every %s", interval)

	go func() {
		defer close(s.readings)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-s.done:
				return
			case now := <-ticker.C:
				for _, reading := range s.step(now) {
					select {
					case s.readings <- reading:
					case <-s.done:
						return
					}
				}
			}
		}
	}()

	return s.readings, nil
}

// Shutdown the Simulator
func (s *Simulator) Shutdown() error {
	s.logger.Infof("Simulator: shutting down")

	close(s.done)

	return nil
}

// NewSimulator creates a new Simulator
func NewSimulator(config SimulatorConfig, logger *zap.SugaredLogger) *Simulator {
	return &Simulator{
		config:   config,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		speed:    config.InitialSpeed,
		battery:  100.0,
		readings: make(chan Reading),
		done:     make(chan struct{}),
		logger:   logger,
	}
}
