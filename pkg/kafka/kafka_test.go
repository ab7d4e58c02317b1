package kafka

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/CyberwizD/Distributed-Notification-System/services/dispatcher/internal/models"
	k "github.com/segmentio/kafka-go"
)

type fakeWriter struct {
	msgs  []k.Message
	err   error
	calls int
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...k.Message) error {
	w.calls++
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

func testMessage() *models.QueueMessage {
	return models.NewQueueMessage(&models.NotificationRequest{
		Channel:   models.ChannelEmail,
		Recipient: "kim@example.com",
		Subject:   "hi",
		Content:   "body",
	})
}

func TestPublishWritesToRoutingKeyTopic(t *testing.T) {
	w := &fakeWriter{}
	p := newProducer(w, ProducerSettings{}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	msg := testMessage()
	if err := p.Publish(context.Background(), "notification.email", msg); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(w.msgs) != 1 {
		t.Fatalf("expected one message, got %d", len(w.msgs))
	}
	got := w.msgs[0]
	if got.Topic != "notification.email" || string(got.Key) != msg.MessageID {
		t.Fatalf("unexpected message topic=%s key=%s", got.Topic, got.Key)
	}
	decoded, err := models.DecodeQueueMessage(got.Value)
	if err != nil || decoded.Recipient != "kim@example.com" {
		t.Fatalf("unexpected value %s (%v)", got.Value, err)
	}
}

func TestPublishFailureIsBrokerUnavailable(t *testing.T) {
	p := newProducer(&fakeWriter{err: errors.New("no brokers")}, ProducerSettings{}, nil)
	err := p.Publish(context.Background(), "notification.email", testMessage())
	if !errors.Is(err, models.ErrBrokerUnavailable) {
		t.Fatalf("expected broker unavailable, got %v", err)
	}
}

func TestPublishStopsWritingOnceBreakerOpens(t *testing.T) {
	w := &fakeWriter{err: errors.New("no brokers")}
	p := newProducer(w, ProducerSettings{BreakerFailures: 2, BreakerTimeout: time.Minute}, nil)

	for i := 0; i < 5; i++ {
		err := p.Publish(context.Background(), "notification.email", testMessage())
		if !errors.Is(err, models.ErrBrokerUnavailable) {
			t.Fatalf("publish %d: expected broker unavailable, got %v", i, err)
		}
	}
	if w.calls != 2 {
		t.Fatalf("expected writes to stop after 2 failures, got %d", w.calls)
	}
}
