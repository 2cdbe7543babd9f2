package dashboard

import (
	"fmt"
	"strings"
	"time"
)

// Metric identifies a tracked telemetry channel
type Metric string

// Recognized metrics
const (
	MetricSpeed      Metric = "speed"
	MetricRPM        Metric = "rpm"
	MetricBattery    Metric = "battery"
	MetricEngineTemp Metric = "engine_temp"
	MetricFuel       Metric = "fuel"
)

// Metrics lists every recognized metric in display order
var Metrics = []Metric{
	MetricSpeed,
	MetricRPM,
	MetricBattery,
	MetricEngineTemp,
	MetricFuel,
}

// Known reports whether the metric is in the recognized set
func (m Metric) Known() bool {
	for _, known := range Metrics {
		if m == known {
			return true
		}
	}

	return false
}

// Unit returns the display unit of the metric
func (m Metric) Unit() string {
	switch m {
	case MetricSpeed:
		return "km/h"
	case MetricRPM:
		return "rpm"
	case MetricBattery, MetricFuel:
		return "%"
	case MetricEngineTemp:
		return "C"
	}

	return ""
}

// Reading represents a single telemetry sample for one metric
type Reading struct {
	Metric     Metric    `json:"metric"`
	Value      float64   `json:"value"`
	MeasuredAt time.Time `json:"measured_at"`
}

// TelemetryMessage represents the wire payload of a single telemetry update
type TelemetryMessage struct {
	Value      float64   `json:"value"`
	MeasuredAt time.Time `json:"measured_at"`
}

// Range bounds the acceptable values of a metric
type Range struct {
	Min float64 `yaml:"min" json:"min"`
	Max float64 `yaml:"max" json:"max"`
}

// Thresholds maps each metric to its acceptable range
type Thresholds map[Metric]Range

// Alert flags a metric whose current value is outside its acceptable range
type Alert struct {
	Metric Metric  `json:"metric"`
	Value  float64 `json:"value"`
	Limits Range   `json:"limits"`
}

func (a Alert) String() string {
	name := strings.ToUpper(string(a.Metric))

	if a.Value > a.Limits.Max {
		return fmt.Sprintf("HIGH %s ALERT! %.2f %s (limit: %.2f)", name, a.Value, a.Metric.Unit(), a.Limits.Max)
	}

	return fmt.Sprintf("LOW %s ALERT! %.2f %s (limit: %.2f)", name, a.Value, a.Metric.Unit(), a.Limits.Min)
}
