package main

import (
	"context"
	"log/slog"

	"github.com/CyberwizD/Distributed-Notification-System/services/dispatcher/internal/config"
	"github.com/CyberwizD/Distributed-Notification-System/services/dispatcher/internal/services"
	"github.com/CyberwizD/Distributed-Notification-System/services/dispatcher/internal/worker"
	"github.com/CyberwizD/Distributed-Notification-System/services/dispatcher/pkg/kafka"
	"github.com/CyberwizD/Distributed-Notification-System/services/dispatcher/pkg/rabbitmq"
)

// brokerRuntime is the connected broker, if any. A nil producer sends every
// asynchronous request down the inline path.
type brokerRuntime struct {
	producer services.Producer
	workers  []func(c *worker.Consumer) func(context.Context) error
	closers  []func() error
}

func (b *brokerRuntime) serve(c *worker.Consumer) []func(context.Context) error {
	out := make([]func(context.Context) error, 0, len(b.workers))
	for _, w := range b.workers {
		out = append(out, w(c))
	}
	return out
}

func (b *brokerRuntime) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		_ = b.closers[i]()
	}
}

func bindings(cfg config.BrokerConfig) []rabbitmq.Binding {
	return []rabbitmq.Binding{
		{Queue: cfg.EmailQueue, RoutingKey: cfg.EmailRoutingKey},
		{Queue: cfg.NotificationQueue, RoutingKey: cfg.NotificationRoutingKey},
		{Queue: cfg.KakaoQueue, RoutingKey: cfg.KakaoRoutingKey},
	}
}

// connectBroker connects the configured broker. Failures are logged and leave
// the dispatcher running without a broker.
func connectBroker(cfg config.BrokerConfig, logr *slog.Logger) *brokerRuntime {
	rt := &brokerRuntime{}
	if !cfg.Enabled() {
		logr.Warn("no broker configured, notifications will be delivered synchronously")
		return rt
	}
	if cfg.Kind == "kafka" {
		connectKafka(rt, cfg, logr)
		return rt
	}
	connectRabbitMQ(rt, cfg, logr)
	return rt
}

func connectRabbitMQ(rt *brokerRuntime, cfg config.BrokerConfig, logr *slog.Logger) {
	mqManager, err := rabbitmq.NewManager(cfg.RabbitMQURL, logr)
	if err != nil {
		logr.Error("failed to connect to RabbitMQ, falling back to synchronous delivery", slog.Any("error", err))
		return
	}
	rt.closers = append(rt.closers, mqManager.Close)

	if err := mqManager.DeclareTopology(cfg.Exchange, bindings(cfg)); err != nil {
		logr.Error("failed to declare rabbitmq topology", slog.Any("error", err))
		return
	}
	rt.producer = services.NewPublisher(mqManager.Connection(), cfg.Exchange, services.BreakerSettings{
		Failures: cfg.BreakerFailures,
		Timeout:  cfg.BreakerTimeout,
	}, logr)

	for _, b := range bindings(cfg) {
		deliveries, err := mqManager.Consume(b.Queue, cfg.Prefetch)
		if err != nil {
			logr.Error("failed to consume queue", slog.String("queue", b.Queue), slog.Any("error", err))
			continue
		}
		queue := b.Queue
		rt.workers = append(rt.workers, func(c *worker.Consumer) func(context.Context) error {
			return c.ServeAMQP(queue, deliveries)
		})
	}
}

func connectKafka(rt *brokerRuntime, cfg config.BrokerConfig, logr *slog.Logger) {
	producer := kafka.NewProducer(cfg.KafkaBrokers, kafka.ProducerSettings{
		WriteTimeout:    cfg.KafkaWriteTimeout,
		BreakerFailures: cfg.BreakerFailures,
		BreakerTimeout:  cfg.BreakerTimeout,
	}, logr)
	rt.producer = producer
	rt.closers = append(rt.closers, producer.Close)

	for _, b := range bindings(cfg) {
		reader := kafka.NewReader(cfg.KafkaBrokers, b.RoutingKey, cfg.KafkaGroupID)
		rt.closers = append(rt.closers, reader.Close)
		queue := b.Queue
		rt.workers = append(rt.workers, func(c *worker.Consumer) func(context.Context) error {
			return c.ServeKafka(queue, reader)
		})
	}
}
