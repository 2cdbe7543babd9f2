package dashboard

import (
	"fmt"
	"io"
	"strings"
)

// Frame is everything a display surface needs for one refresh cycle
type Frame struct {
	Snapshot Snapshot `json:"snapshot"`
	Alerts   []Alert  `json:"alerts"`
	Stale    bool     `json:"stale"`
}

// Sink renders one Frame per presentation cycle. A failed render is
// reported to the caller and retried on the next cycle.
type Sink interface {
	Render(frame Frame) error
}

// ConsoleRenderer writes a text dashboard with bar gauges to an io.Writer
type ConsoleRenderer struct {
	out io.Writer
}

const consoleRule = "-------------------------------------------"

// Render writes the current vehicle status. A stale frame, or one without
// any readings yet, renders a degraded-state banner instead of gauges.
func (r *ConsoleRenderer) Render(frame Frame) error {
	var b strings.Builder

	b.WriteString("\n" + consoleRule + "\n")
	b.WriteString("      *** Real-Time Vehicle Status ***\n")
	b.WriteString(consoleRule + "\n")

	if frame.Stale || len(frame.Snapshot.Metrics) == 0 {
		b.WriteString("  STALE DATA - telemetry unavailable\n")
		b.WriteString(consoleRule + "\n")

		_, err := io.WriteString(r.out, b.String())

		return err
	}

	for _, metric := range Metrics {
		state, ok := frame.Snapshot.Metrics[metric]
		if !ok {
			continue
		}

		b.WriteString(r.gaugeLine(metric, state.Current.Value))
	}

	b.WriteString(consoleRule + "\n")

	if len(frame.Alerts) > 0 {
		b.WriteString("\n*** SYSTEM ALERTS ***\n")
		for _, alert := range frame.Alerts {
			b.WriteString(alert.String() + "\n")
		}
		b.WriteString("*********************\n")
	}

	_, err := io.WriteString(r.out, b.String())

	return err
}

func (r *ConsoleRenderer) gaugeLine(metric Metric, value float64) string {
	switch metric {
	case MetricSpeed:
		return fmt.Sprintf("  Speed:   %-4.0f km/h\n", value)
	case MetricRPM:
		return fmt.Sprintf("  RPM:     %-4.0f (%s)\n", value, bar(int(value/1000), -1))
	case MetricBattery:
		return fmt.Sprintf("  Battery: %-5.2f %% [%s]\n", value, bar(int(value/10), 10))
	case MetricFuel:
		return fmt.Sprintf("  Fuel:    %-5.2f %% [%s]\n", value, bar(int(value/10), 10))
	case MetricEngineTemp:
		return fmt.Sprintf("  Temp:    %-5.1f C\n", value)
	}

	return fmt.Sprintf("  %-8s %.2f %s\n", string(metric)+":", value, metric.Unit())
}

// Render a bar gauge of filled cells, padded to width when width >= 0
func bar(filled int, width int) string {
	if filled < 0 {
		filled = 0
	}
	if width >= 0 && filled > width {
		filled = width
	}

	b := strings.Repeat("█", filled)
	if width >= 0 {
		b += strings.Repeat("░", width-filled)
	}

	return b
}

// NewConsoleRenderer creates a new ConsoleRenderer
func NewConsoleRenderer(out io.Writer) *ConsoleRenderer {
	return &ConsoleRenderer{out: out}
}
