package worker

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/CyberwizD/Distributed-Notification-System/services/dispatcher/internal/models"
	"github.com/CyberwizD/Distributed-Notification-System/services/dispatcher/internal/services"
	k "github.com/segmentio/kafka-go"
	"github.com/streadway/amqp"
)

type fakeService struct {
	mu    sync.Mutex
	calls []*models.NotificationRequest
	err   error
	panic bool
}

func (s *fakeService) Validate(*models.NotificationRequest) error { return nil }

func (s *fakeService) SendSync(_ context.Context, req *models.NotificationRequest) (*models.ProviderResponse, error) {
	s.mu.Lock()
	s.calls = append(s.calls, req)
	s.mu.Unlock()
	if s.panic {
		panic("provider exploded")
	}
	if s.err != nil {
		return nil, s.err
	}
	return &models.ProviderResponse{RequestID: "req-1"}, nil
}

func (s *fakeService) SendAsync(context.Context, *models.NotificationRequest) error {
	panic("consumer must never send asynchronously")
}

func (s *fakeService) sent() []*models.NotificationRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*models.NotificationRequest(nil), s.calls...)
}

type fakeRouter struct {
	email *fakeService
	kakao *fakeService
}

func (r fakeRouter) ServiceFor(ch models.Channel) (services.ChannelService, error) {
	switch ch {
	case models.ChannelEmail:
		return r.email, nil
	case models.ChannelAlimtalk, models.ChannelFriendtalk:
		return r.kakao, nil
	}
	return nil, &models.ValidationError{Field: "channel", Reason: "unknown"}
}

type fakeGuard struct {
	mu   sync.Mutex
	seen map[string]bool
}

func (g *fakeGuard) IsDuplicate(_ context.Context, id string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.seen == nil {
		g.seen = map[string]bool{}
	}
	dup := g.seen[id]
	g.seen[id] = true
	return dup, nil
}

type settle struct {
	tag     uint64
	ack     bool
	requeue bool
}

// fakeAcknowledger records how deliveries were settled.
type fakeAcknowledger struct {
	mu      sync.Mutex
	settled []settle
	notify  chan struct{}
}

func newAcknowledger() *fakeAcknowledger {
	return &fakeAcknowledger{notify: make(chan struct{}, 16)}
}

func (a *fakeAcknowledger) add(s settle) error {
	a.mu.Lock()
	a.settled = append(a.settled, s)
	a.mu.Unlock()
	a.notify <- struct{}{}
	return nil
}

func (a *fakeAcknowledger) Ack(tag uint64, _ bool) error { return a.add(settle{tag: tag, ack: true}) }

func (a *fakeAcknowledger) Nack(tag uint64, _ bool, requeue bool) error {
	return a.add(settle{tag: tag, requeue: requeue})
}

func (a *fakeAcknowledger) Reject(tag uint64, requeue bool) error {
	return a.add(settle{tag: tag, requeue: requeue})
}

func (a *fakeAcknowledger) wait(t *testing.T, n int) []settle {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-a.notify:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for %d settlements", n)
		}
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]settle(nil), a.settled...)
}

type fakeMetrics struct {
	mu       sync.Mutex
	outcomes []string
}

func (m *fakeMetrics) Consumed(_, outcome string, _ time.Duration) {
	m.mu.Lock()
	m.outcomes = append(m.outcomes, outcome)
	m.mu.Unlock()
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func kakaoBody(t *testing.T) []byte {
	t.Helper()
	msg := models.NewQueueMessage(&models.NotificationRequest{
		Channel:      models.ChannelAlimtalk,
		Recipient:    "01012345678",
		TemplateCode: "WELCOME_TEMPLATE",
		Variables:    map[string]string{"name": "Kim"},
	})
	body, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return body
}

func TestServeAMQPDropsMalformedAndContinues(t *testing.T) {
	router := fakeRouter{email: &fakeService{}, kakao: &fakeService{}}
	c := NewConsumer(router, nil, nil, discardLogger())
	ack := newAcknowledger()

	deliveries := make(chan amqp.Delivery, 2)
	deliveries <- amqp.Delivery{Acknowledger: ack, DeliveryTag: 1, Body: []byte("{not json")}
	deliveries <- amqp.Delivery{Acknowledger: ack, DeliveryTag: 2, Body: kakaoBody(t)}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.ServeAMQP("kakao", deliveries)(ctx) }()

	settled := ack.wait(t, 2)
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("worker stopped with %v", err)
	}

	if settled[0].tag != 1 || settled[0].ack || settled[0].requeue {
		t.Fatalf("malformed message must be nacked without requeue, got %+v", settled[0])
	}
	if settled[1].tag != 2 || !settled[1].ack {
		t.Fatalf("valid message must be acked, got %+v", settled[1])
	}
	sent := router.kakao.sent()
	if len(sent) != 1 || sent[0].Recipient != "01012345678" || sent[0].Variables["name"] != "Kim" {
		t.Fatalf("unexpected deliveries %+v", sent)
	}
}

func TestServeAMQPAcksFailuresAndPanics(t *testing.T) {
	tests := []struct {
		name    string
		service *fakeService
		outcome string
	}{
		{"provider error", &fakeService{err: &models.ProviderError{Provider: "alimtalk", StatusCode: 500}}, string(OutcomeFailed)},
		{"panic", &fakeService{panic: true}, string(OutcomePanic)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			metrics := &fakeMetrics{}
			c := NewConsumer(fakeRouter{kakao: tt.service}, nil, metrics, discardLogger())
			ack := newAcknowledger()

			deliveries := make(chan amqp.Delivery, 2)
			deliveries <- amqp.Delivery{Acknowledger: ack, DeliveryTag: 1, Body: kakaoBody(t)}
			deliveries <- amqp.Delivery{Acknowledger: ack, DeliveryTag: 2, Body: kakaoBody(t)}

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			go c.ServeAMQP("kakao", deliveries)(ctx)

			for _, s := range ack.wait(t, 2) {
				if !s.ack {
					t.Fatalf("expected ack, got %+v", s)
				}
			}
			metrics.mu.Lock()
			defer metrics.mu.Unlock()
			if len(metrics.outcomes) != 2 || metrics.outcomes[0] != tt.outcome {
				t.Fatalf("unexpected outcomes %v", metrics.outcomes)
			}
		})
	}
}

func TestHandleSkipsRedelivery(t *testing.T) {
	router := fakeRouter{kakao: &fakeService{}}
	c := NewConsumer(router, &fakeGuard{}, nil, discardLogger())
	body := kakaoBody(t)

	if out := c.Handle(context.Background(), "kakao", body); out != OutcomeDelivered {
		t.Fatalf("first delivery: %s", out)
	}
	if out := c.Handle(context.Background(), "kakao", body); out != OutcomeDuplicate {
		t.Fatalf("redelivery: %s", out)
	}
	if n := len(router.kakao.sent()); n != 1 {
		t.Fatalf("expected one send, got %d", n)
	}
}

func TestHandleRoutesGenericQueueByChannel(t *testing.T) {
	router := fakeRouter{email: &fakeService{}, kakao: &fakeService{}}
	c := NewConsumer(router, nil, nil, discardLogger())

	body, _ := json.Marshal(models.NewQueueMessage(&models.NotificationRequest{
		Channel: models.ChannelEmail, Recipient: "kim@example.com", Subject: "s", Content: "c",
	}))
	if out := c.Handle(context.Background(), "notification", body); out != OutcomeDelivered {
		t.Fatalf("unexpected outcome %s", out)
	}
	if len(router.email.sent()) != 1 || len(router.kakao.sent()) != 0 {
		t.Fatal("email message must reach the email service")
	}

	unknown := []byte(`{"message_id":"m-1","channel":"SMS","recipient":"010"}`)
	if out := c.Handle(context.Background(), "notification", unknown); out != OutcomeMalformed {
		t.Fatalf("unknown channel must be dropped, got %s", out)
	}
}

type fakeReader struct {
	mu        sync.Mutex
	pending   []k.Message
	committed []k.Message
}

func (r *fakeReader) FetchMessage(ctx context.Context) (k.Message, error) {
	r.mu.Lock()
	if len(r.pending) > 0 {
		m := r.pending[0]
		r.pending = r.pending[1:]
		r.mu.Unlock()
		return m, nil
	}
	r.mu.Unlock()
	<-ctx.Done()
	return k.Message{}, ctx.Err()
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...k.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.committed = append(r.committed, msgs...)
	return nil
}

func (r *fakeReader) commits() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.committed)
}

func TestServeKafkaCommitsEveryMessage(t *testing.T) {
	router := fakeRouter{kakao: &fakeService{}}
	c := NewConsumer(router, nil, nil, discardLogger())
	reader := &fakeReader{pending: []k.Message{
		{Offset: 1, Value: []byte("garbage")},
		{Offset: 2, Value: kakaoBody(t)},
	}}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx, c.ServeKafka("kakao", reader)) }()

	deadline := time.Now().Add(2 * time.Second)
	for reader.commits() < 2 {
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for commits")
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(router.kakao.sent()) != 1 {
		t.Fatal("expected the valid message to be delivered")
	}
}

func TestRunStopsOnWorkerError(t *testing.T) {
	c := NewConsumer(fakeRouter{}, nil, nil, discardLogger())
	closed := make(chan amqp.Delivery)
	close(closed)

	blocking := func(ctx context.Context) error {
		<-ctx.Done()
		return nil
	}
	err := c.Run(context.Background(), c.ServeAMQP("email", closed), blocking)
	if err == nil || errors.Is(err, context.Canceled) {
		t.Fatalf("expected closed deliveries error, got %v", err)
	}
}
