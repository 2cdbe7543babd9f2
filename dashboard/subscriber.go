package dashboard

import (
	"fmt"
	"time"

	"github.com/avast/retry-go"
	"github.com/segmentio/encoding/json"
	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

// AMQPConfig represents the config of the Subscriber
type AMQPConfig struct {
	Tag      string `yaml:"tag"`
	Exchange string `yaml:"exchange"`
	DSN      string `yaml:"dsn"`
	TLS      bool   `yaml:"tls"`
}

// Subscriber receives telemetry readings from an AMQP broker. The routing
// key of a delivery carries the metric name, the body a TelemetryMessage.
type Subscriber struct {
	config     AMQPConfig
	topics     []string
	tag        string
	connection *amqp.Connection
	channel    *amqp.Channel
	queue      *amqp.Queue
	readings   chan Reading
	logger     *zap.SugaredLogger
}

// Connect with the configured AMQP broker
func (s *Subscriber) dial() error {
	var err error

	if s.config.TLS == true {
		s.connection, err = amqp.DialTLS(s.config.DSN, nil)
	} else {
		s.connection, err = amqp.Dial(s.config.DSN)
	}
	if err != nil {
		return fmt.Errorf("Subscriber: %w: %v", ErrTelemetryUnavailable, err)
	}

	s.logger.Infof("Subscriber: connection established")

	return nil
}

// Get a Channel for the deliveries
func (s *Subscriber) getChannel() error {
	var err error

	s.channel, err = s.connection.Channel()
	if err != nil {
		s.logger.Errorf("Subscriber: %s", err)

		return fmt.Errorf("Subscriber: failed to get Channel")
	}

	s.logger.Infof("Subscriber: got Channel")

	return nil
}

// Declare a non-durable Queue for the deliveries
func (s *Subscriber) declareQueue() (*amqp.Queue, error) {
	var queue amqp.Queue
	var err error

	queueName := fmt.Sprintf("vehicle-dashboard-%s", s.tag)
	s.logger.Infof("Subscriber: declaring Queue %v", queueName)

	queue, err = s.channel.QueueDeclare(
		queueName,
		false, // durable
		true,  // autoDelete
		false, // exclusive
		false, // noWait
		nil,   // arguments
	)
	if err != nil {
		s.logger.Errorf("Subscriber: %s", err)

		return nil, fmt.Errorf("Subscriber: failed to declare Queue")
	}

	s.logger.Infof("Subscriber: declared Queue")

	return &queue, nil
}

// Bind the Queue to the configured topics
func (s *Subscriber) bindQueue() error {
	var err error

	if s.queue == nil {
		return fmt.Errorf("Subscriber: Queue not declared")
	}

	for _, topic := range s.topics {
		s.logger.Infof("Subscriber: binding topic to Exchange (key: %q)", topic)

		err = s.channel.QueueBind(
			s.queue.Name,      // name
			topic,             // key
			s.config.Exchange, // exchange
			false,             // noWait
			nil,               // arguments
		)
		if err != nil {
			s.logger.Errorf("Subscriber: %s", err)

			return fmt.Errorf("Subscriber: failed to bind Queue")
		}
	}

	return nil
}

// Delete the declared Queue if there a no more consumers
func (s *Subscriber) deleteQueue() error {
	name := s.queue.Name

	_, err := s.channel.QueueDelete(name, true, false, false)

	if err != nil {
		s.logger.Errorf("Subscriber: %s", err)

		return fmt.Errorf("Subscriber: failed to delete Queue")
	}

	return nil
}

// Consume deliveries from the declared Queue and forward decoded readings.
// Malformed deliveries are logged and dropped, never silently.
func (s *Subscriber) consume() error {
	deliveries, err := s.channel.Consume(
		s.queue.Name,
		s.tag,
		true,  // autoAck
		false, // exclusive
		false, // noLocal
		false, // noWait
		nil,   // arguments
	)
	if err != nil {
		s.logger.Errorf("Subscriber: %s", err)

		return fmt.Errorf("Subscriber: failed to consume from Queue")
	}

	go func() {
		defer close(s.readings)

		for delivery := range deliveries {
			reading, err := s.decodeDelivery(&delivery)
			if err != nil {
				s.logger.Warnf("Subscriber: discarding delivery: %s", err)

				continue
			}

			s.readings <- *reading
		}

		s.logger.Infof("Subscriber: deliveries channel closed")
	}()

	return nil
}

// Decode a single delivery into a Reading
func (s *Subscriber) decodeDelivery(delivery *amqp.Delivery) (*Reading, error) {
	topic := NewTopic(delivery.RoutingKey)

	metric, err := topic.GetMetric()
	if err != nil {
		return nil, err
	}

	var message TelemetryMessage
	err = json.Unmarshal(delivery.Body, &message)
	if err != nil {
		return nil, fmt.Errorf("Subscriber: unable to decode payload: %s", err)
	}

	measuredAt := message.MeasuredAt
	if measuredAt.IsZero() {
		measuredAt = time.Now()
	}

	return &Reading{
		Metric:     metric,
		Value:      message.Value,
		MeasuredAt: measuredAt,
	}, nil
}

// Subscribe to the topics defined in the AMQPConfig
func (s *Subscriber) Subscribe() (<-chan Reading, error) {
	err := s.dial()
	if err != nil {
		return nil, err
	}

	err = retry.Do(
		func() error {
			err = s.getChannel()
			if err != nil {
				return err
			}

			s.queue, err = s.declareQueue()
			if err != nil {
				return err
			}

			err = s.bindQueue()
			if err != nil {
				return err
			}

			return s.consume()
		},
	)
	if err != nil {
		return nil, err
	}

	return s.readings, nil
}

// Shutdown the Subscriber
func (s *Subscriber) Shutdown() error {
	s.logger.Infof("Subscriber: shutting down")

	if s.connection == nil {
		s.logger.Infof("Subscriber: shutdown OK")

		return nil
	}

	err := s.deleteQueue()
	if err != nil {
		return err
	}

	if err := s.connection.Close(); err != nil {
		return fmt.Errorf("AMQP connection close error: %s", err)
	}

	s.logger.Infof("Subscriber: shutdown OK")

	return nil
}

// NewSubscriber creates a new Subscriber
func NewSubscriber(config AMQPConfig, topics []string, logger *zap.SugaredLogger) *Subscriber {
	return &Subscriber{
		config:   config,
		topics:   topics,
		tag:      config.Tag,
		readings: make(chan Reading),
		logger:   logger,
	}
}
