// Package kafka carries queue messages over Kafka. Each routing key maps to a
// topic of the same name.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/CyberwizD/Distributed-Notification-System/services/dispatcher/internal/models"
	k "github.com/segmentio/kafka-go"
	"github.com/sony/gobreaker"
)

const defaultWriteTimeout = 5 * time.Second

// messageWriter is the part of *kafka.Writer used by Producer.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...k.Message) error
	Close() error
}

// ProducerSettings bound how long a publish may block on unreachable brokers.
type ProducerSettings struct {
	WriteTimeout    time.Duration
	BreakerFailures uint32
	BreakerTimeout  time.Duration
}

// Producer publishes queue messages to Kafka.
type Producer struct {
	writer  messageWriter
	breaker *gobreaker.CircuitBreaker
	logger  *slog.Logger
}

// NewProducer creates a producer writing to brokers. Topics are created on
// first use. Writes are attempted once; retries are left to the caller's
// fallback.
func NewProducer(brokers []string, settings ProducerSettings, logger *slog.Logger) *Producer {
	if settings.WriteTimeout <= 0 {
		settings.WriteTimeout = defaultWriteTimeout
	}
	return newProducer(&k.Writer{
		Addr:                   k.TCP(brokers...),
		Balancer:               &k.LeastBytes{},
		BatchTimeout:           5 * time.Millisecond,
		RequiredAcks:           k.RequireAll,
		AllowAutoTopicCreation: true,
		MaxAttempts:            1,
		WriteTimeout:           settings.WriteTimeout,
	}, settings, logger)
}

func newProducer(w messageWriter, settings ProducerSettings, logger *slog.Logger) *Producer {
	if settings.BreakerFailures == 0 {
		settings.BreakerFailures = 3
	}
	if logger == nil {
		logger = slog.Default()
	}
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "kafka-publish",
		Timeout: settings.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= settings.BreakerFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("broker breaker state changed",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()))
		},
	})
	return &Producer{writer: w, breaker: breaker, logger: logger}
}

// Publish writes msg to the topic named routingKey, keyed by message id.
// Every failure wraps models.ErrBrokerUnavailable.
func (p *Producer) Publish(ctx context.Context, routingKey string, msg *models.QueueMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode queue message: %w", err)
	}
	_, err = p.breaker.Execute(func() (interface{}, error) {
		return nil, p.writer.WriteMessages(ctx, k.Message{
			Topic: routingKey,
			Key:   []byte(msg.MessageID),
			Value: body,
			Time:  msg.CreatedAt,
		})
	})
	if err != nil {
		return fmt.Errorf("%w: write to %s: %w", models.ErrBrokerUnavailable, routingKey, err)
	}
	p.logger.Debug("kafka message written",
		slog.String("topic", routingKey),
		slog.String("message_id", msg.MessageID))
	return nil
}

// Close flushes pending writes.
func (p *Producer) Close() error {
	return p.writer.Close()
}

// NewReader creates a consumer-group reader for topic.
func NewReader(brokers []string, topic, groupID string) *k.Reader {
	return k.NewReader(k.ReaderConfig{
		Brokers:  brokers,
		GroupID:  groupID,
		Topic:    topic,
		MinBytes: 1,
		MaxBytes: 10e6,
		MaxWait:  100 * time.Millisecond,
	})
}
