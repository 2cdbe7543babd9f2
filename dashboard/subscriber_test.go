package dashboard

import (
	"testing"
	"time"

	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
)

func TestSubscriber_DecodeDelivery(t *testing.T) {
	s := NewSubscriber(AMQPConfig{Tag: "test"}, nil, testLogger())

	measuredAt := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	reading, err := s.decodeDelivery(&amqp.Delivery{
		RoutingKey: "vehicle.telemetry.speed",
		Body:       []byte(`{"value": 72.5, "measured_at": "2026-08-30T12:00:00Z"}`),
	})

	assert.NoError(t, err)
	assert.Equal(t, MetricSpeed, reading.Metric)
	assert.Equal(t, 72.5, reading.Value)
	assert.Equal(t, measuredAt, reading.MeasuredAt)
}

func TestSubscriber_DecodeDeliveryDefaultsTimestamp(t *testing.T) {
	s := NewSubscriber(AMQPConfig{Tag: "test"}, nil, testLogger())

	before := time.Now()
	reading, err := s.decodeDelivery(&amqp.Delivery{
		RoutingKey: "vehicle.telemetry.rpm",
		Body:       []byte(`{"value": 2100}`),
	})

	assert.NoError(t, err)
	assert.False(t, reading.MeasuredAt.Before(before))
}

func TestSubscriber_DecodeDeliveryInvalid(t *testing.T) {
	s := NewSubscriber(AMQPConfig{Tag: "test"}, nil, testLogger())

	tests := []struct {
		name     string
		delivery amqp.Delivery
	}{
		{
			name: "bad routing key",
			delivery: amqp.Delivery{
				RoutingKey: "speed",
				Body:       []byte(`{"value": 1}`),
			},
		},
		{
			name: "bad payload",
			delivery: amqp.Delivery{
				RoutingKey: "vehicle.telemetry.speed",
				Body:       []byte(`not json`),
			},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := s.decodeDelivery(&test.delivery)
			assert.Error(t, err)
		})
	}
}
