package dashboard

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// DefaultRefreshIntervalSeconds is the presentation cadence used when the
// config leaves it unset.
const DefaultRefreshIntervalSeconds = 0.5

// Config is the main configuration
type Config struct {
	Env                    string          `yaml:"env"`
	AMQP                   AMQPConfig      `yaml:"amqp"`
	MySQL                  MySQLConfig     `yaml:"mysql"`
	Writer                 WriterConfig    `yaml:"writer"`
	HTTP                   HTTPConfig      `yaml:"http"`
	Simulator              SimulatorConfig `yaml:"simulator"`
	Topics                 []string        `yaml:"topics"`
	RefreshIntervalSeconds float64         `yaml:"refresh_interval_seconds"`
	HistoryCapacity        int             `yaml:"history_capacity"`
	Thresholds             Thresholds      `yaml:"thresholds"`
}

// RefreshInterval returns the presentation tick period
func (c *Config) RefreshInterval() time.Duration {
	seconds := c.RefreshIntervalSeconds
	if seconds <= 0 {
		seconds = DefaultRefreshIntervalSeconds
	}

	return time.Duration(seconds * float64(time.Second))
}

// Validate rejects configs that cannot produce a working process
func (c *Config) Validate() error {
	if c.RefreshIntervalSeconds < 0 {
		return fmt.Errorf("config: refresh_interval_seconds must not be negative")
	}

	if c.HistoryCapacity < 0 {
		return fmt.Errorf("config: history_capacity must not be negative")
	}

	for metric, limits := range c.Thresholds {
		if !metric.Known() {
			return fmt.Errorf("config: threshold for unknown metric %q", metric)
		}

		if limits.Min > limits.Max {
			return fmt.Errorf("config: threshold for %q has min > max", metric)
		}
	}

	if c.AMQP.DSN != "" && len(c.Topics) == 0 {
		return fmt.Errorf("config: amqp source configured without topics")
	}

	return nil
}

// DefaultThresholds returns the built-in acceptable ranges, used when the
// config file is absent or defines none
func DefaultThresholds() Thresholds {
	return Thresholds{
		MetricSpeed:   {Min: 0, Max: 110},
		MetricRPM:     {Min: 0, Max: 6000},
		MetricBattery: {Min: 10, Max: 100},
	}
}

// LoadConfig reads and parses the YAML config file
func LoadConfig(path string) (*Config, error) {
	f, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %s", err)
	}

	c := &Config{}
	err = yaml.Unmarshal(f, c)
	if err != nil {
		return nil, fmt.Errorf("config: %s", err)
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}

	if c.Thresholds == nil {
		c.Thresholds = DefaultThresholds()
	}

	return c, nil
}
