package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/CyberwizD/Distributed-Notification-System/services/dispatcher/internal/models"
	"github.com/CyberwizD/Distributed-Notification-System/services/dispatcher/internal/services"
	k "github.com/segmentio/kafka-go"
	"github.com/streadway/amqp"
	"golang.org/x/sync/errgroup"
)

// Outcome is how a consumed message was handled.
type Outcome string

const (
	OutcomeDelivered Outcome = "delivered"
	OutcomeFailed    Outcome = "failed"
	OutcomeMalformed Outcome = "malformed"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomePanic     Outcome = "panic"
)

// Router picks the service for a channel.
type Router interface {
	ServiceFor(channel models.Channel) (services.ChannelService, error)
}

// Guard detects redelivered messages.
type Guard interface {
	IsDuplicate(ctx context.Context, messageID string) (bool, error)
}

// Metrics receives one event per handled message.
type Metrics interface {
	Consumed(queue, outcome string, took time.Duration)
}

// MessageReader is the part of *kafka.Reader used by ServeKafka.
type MessageReader interface {
	FetchMessage(ctx context.Context) (k.Message, error)
	CommitMessages(ctx context.Context, msgs ...k.Message) error
}

// Consumer delivers queued notifications synchronously.
type Consumer struct {
	router  Router
	guard   Guard
	metrics Metrics
	logger  *slog.Logger
}

// NewConsumer creates a new Consumer. guard and metrics may be nil.
func NewConsumer(router Router, guard Guard, metrics Metrics, logger *slog.Logger) *Consumer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Consumer{router: router, guard: guard, metrics: metrics, logger: logger}
}

// Run runs every worker concurrently until ctx ends or one of them fails.
func (c *Consumer) Run(ctx context.Context, workers ...func(context.Context) error) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, w := range workers {
		g.Go(func() error { return w(ctx) })
	}
	return g.Wait()
}

// Handle delivers one message body read from queue. It never panics.
func (c *Consumer) Handle(ctx context.Context, queue string, body []byte) (out Outcome) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("panic while handling message",
				slog.String("queue", queue),
				slog.Any("panic", r))
			out = OutcomePanic
		}
		if c.metrics != nil {
			c.metrics.Consumed(queue, string(out), time.Since(start))
		}
	}()

	msg, err := models.DecodeQueueMessage(body)
	if err != nil {
		c.logger.Warn("dropping malformed message",
			slog.String("queue", queue),
			slog.Any("error", err))
		return OutcomeMalformed
	}
	logger := c.logger.With(
		slog.String("queue", queue),
		slog.String("message_id", msg.MessageID),
		slog.String("channel", string(msg.Channel)))

	if c.guard != nil {
		dup, err := c.guard.IsDuplicate(ctx, msg.MessageID)
		if err != nil {
			logger.Warn("redelivery check failed, delivering anyway", slog.Any("error", err))
		} else if dup {
			logger.Info("skipping redelivered message")
			return OutcomeDuplicate
		}
	}

	svc, err := c.router.ServiceFor(msg.Channel)
	if err != nil {
		logger.Error("no service for channel", slog.Any("error", err))
		return OutcomeFailed
	}
	resp, err := svc.SendSync(ctx, msg.Request())
	if err != nil {
		logger.Error("queued delivery failed", slog.Any("error", err))
		return OutcomeFailed
	}

	logger.Info("queued delivery succeeded", slog.String("request_id", resp.RequestID))
	return OutcomeDelivered
}

// ServeAMQP handles deliveries one at a time. Malformed messages are
// rejected without requeue; everything else is acked.
func (c *Consumer) ServeAMQP(queue string, deliveries <-chan amqp.Delivery) func(context.Context) error {
	return func(ctx context.Context) error {
		c.logger.Info("consumer started", slog.String("queue", queue))
		for {
			select {
			case <-ctx.Done():
				return nil
			case d, ok := <-deliveries:
				if !ok {
					return fmt.Errorf("deliveries for %s closed", queue)
				}
				var ackErr error
				if c.Handle(ctx, queue, d.Body) == OutcomeMalformed {
					ackErr = d.Nack(false, false)
				} else {
					ackErr = d.Ack(false)
				}
				if ackErr != nil {
					c.logger.Error("failed to settle delivery",
						slog.String("queue", queue),
						slog.Any("error", ackErr))
				}
			}
		}
	}
}

// ServeKafka handles messages one at a time and commits each after it was
// handled, including malformed ones.
func (c *Consumer) ServeKafka(queue string, reader MessageReader) func(context.Context) error {
	return func(ctx context.Context) error {
		c.logger.Info("consumer started", slog.String("queue", queue))
		for {
			m, err := reader.FetchMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("fetch from %s: %w", queue, err)
			}
			c.Handle(ctx, queue, m.Value)
			if err := reader.CommitMessages(ctx, m); err != nil && ctx.Err() == nil {
				c.logger.Error("failed to commit message",
					slog.String("queue", queue),
					slog.Any("error", err))
			}
		}
	}
}
