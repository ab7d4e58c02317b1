package rabbitmq

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/streadway/amqp"
)

// Binding routes one durable queue from the exchange.
type Binding struct {
	Queue      string
	RoutingKey string
}

// Manager maintains a single AMQP connection and helps declare topology.
type Manager struct {
	url    string
	conn   *amqp.Connection
	logger *slog.Logger
	mu     sync.RWMutex
	chans  []*amqp.Channel
}

func NewManager(url string, logger *slog.Logger) (*Manager, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	return &Manager{
		url:    url,
		conn:   conn,
		logger: logger,
	}, nil
}

func (m *Manager) Connection() *amqp.Connection {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.conn
}

func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ch := range m.chans {
		_ = ch.Close()
	}
	m.chans = nil
	if m.conn == nil {
		return nil
	}
	err := m.conn.Close()
	m.conn = nil
	return err
}

// DeclareTopology ensures the topic exchange and its bound queues exist.
func (m *Manager) DeclareTopology(exchange string, bindings []Binding) error {
	conn := m.Connection()
	if conn == nil {
		return amqp.ErrClosed
	}
	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	if err := ch.ExchangeDeclare(
		exchange,
		amqp.ExchangeTopic,
		true,
		false,
		false,
		false,
		nil,
	); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	for _, b := range bindings {
		if _, err := ch.QueueDeclare(
			b.Queue,
			true,
			false,
			false,
			false,
			nil,
		); err != nil {
			return fmt.Errorf("declare queue %s: %w", b.Queue, err)
		}

		if err := ch.QueueBind(
			b.Queue,
			b.RoutingKey,
			exchange,
			false,
			nil,
		); err != nil {
			return fmt.Errorf("bind queue %s: %w", b.Queue, err)
		}
		m.logger.Info("queue bound",
			slog.String("exchange", exchange),
			slog.String("queue", b.Queue),
			slog.String("routing_key", b.RoutingKey))
	}

	return nil
}

// Consume opens a dedicated channel on queue with manual acks. The channel
// is closed with the manager.
func (m *Manager) Consume(queue string, prefetch int) (<-chan amqp.Delivery, error) {
	conn := m.Connection()
	if conn == nil {
		return nil, amqp.ErrClosed
	}
	ch, err := conn.Channel()
	if err != nil {
		return nil, err
	}
	if prefetch > 0 {
		if err := ch.Qos(prefetch, 0, false); err != nil {
			ch.Close()
			return nil, fmt.Errorf("set qos on %s: %w", queue, err)
		}
	}
	deliveries, err := ch.Consume(
		queue,
		"",    // consumer tag
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		ch.Close()
		return nil, fmt.Errorf("consume %s: %w", queue, err)
	}

	m.mu.Lock()
	m.chans = append(m.chans, ch)
	m.mu.Unlock()
	return deliveries, nil
}
