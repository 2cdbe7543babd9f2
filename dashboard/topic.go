package dashboard

import (
	"fmt"
	"regexp"
)

// Topic represents an AMQP routing key carrying a metric name in its last
// segment, e.g. "vehicle.telemetry.speed"
type Topic struct {
	metricRegex *regexp.Regexp

	Value string
}

// GetMetric returns the Metric from the Topic value
func (t *Topic) GetMetric() (Metric, error) {
	matches := t.metricRegex.FindStringSubmatch(t.Value)

	if matches == nil {
		return "", fmt.Errorf("Topic: '%s' does not match topic regex", t.Value)
	}

	if len(matches) < 2 {
		return "", fmt.Errorf("Topic: metric not found in topic")
	}

	return Metric(matches[1]), nil
}

// NewTopic constructs a new Topic
func NewTopic(value string) *Topic {
	return &Topic{
		metricRegex: regexp.MustCompile(`^\w+(?:\.\w+)*\.(\w+)$`),
		Value:       value,
	}
}
