package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/CyberwizD/Distributed-Notification-System/services/dispatcher/internal/models"
	"github.com/sony/gobreaker"
	"github.com/streadway/amqp"
)

// publishChannel is the part of *amqp.Channel used for publishing.
type publishChannel interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// BreakerSettings tune the breaker in front of the broker.
type BreakerSettings struct {
	// Failures is the number of consecutive failures that opens the breaker.
	Failures uint32
	// Timeout is how long the breaker stays open before probing again.
	Timeout time.Duration
}

// Publisher publishes queue messages to a RabbitMQ topic exchange.
type Publisher struct {
	open     func() (publishChannel, error)
	exchange string
	breaker  *gobreaker.CircuitBreaker
	logger   *slog.Logger
}

// NewPublisher creates a new Publisher on conn.
func NewPublisher(conn *amqp.Connection, exchange string, settings BreakerSettings, logger *slog.Logger) *Publisher {
	return newPublisher(func() (publishChannel, error) {
		if conn == nil || conn.IsClosed() {
			return nil, amqp.ErrClosed
		}
		ch, err := conn.Channel()
		if err != nil {
			return nil, err
		}
		return ch, nil
	}, exchange, settings, logger)
}

func newPublisher(open func() (publishChannel, error), exchange string, settings BreakerSettings, logger *slog.Logger) *Publisher {
	if settings.Failures == 0 {
		settings.Failures = 3
	}
	if logger == nil {
		logger = slog.Default()
	}
	p := &Publisher{open: open, exchange: exchange, logger: logger}
	p.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "rabbitmq-publish",
		Timeout: settings.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= settings.Failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("broker breaker state changed",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()))
		},
	})
	return p
}

// Publish publishes msg as a persistent JSON message. Every failure wraps
// models.ErrBrokerUnavailable.
func (p *Publisher) Publish(ctx context.Context, routingKey string, msg *models.QueueMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode queue message: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", models.ErrBrokerUnavailable, err)
	}

	_, err = p.breaker.Execute(func() (interface{}, error) {
		ch, err := p.open()
		if err != nil {
			return nil, err
		}
		defer ch.Close()

		return nil, ch.Publish(
			p.exchange, // exchange
			routingKey, // routing key
			false,      // mandatory
			false,      // immediate
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent,
				MessageId:    msg.MessageID,
				Timestamp:    msg.CreatedAt,
				Body:         body,
			})
	})
	if err != nil {
		return fmt.Errorf("%w: publish to %s: %w", models.ErrBrokerUnavailable, routingKey, err)
	}
	return nil
}
