package services

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/CyberwizD/Distributed-Notification-System/services/dispatcher/internal/clients"
	"github.com/CyberwizD/Distributed-Notification-System/services/dispatcher/internal/models"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeProducer struct {
	mu   sync.Mutex
	err  error
	sent []*models.QueueMessage
	keys []string
}

func (p *fakeProducer) Publish(_ context.Context, routingKey string, msg *models.QueueMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.sent = append(p.sent, msg)
	p.keys = append(p.keys, routingKey)
	return nil
}

func (p *fakeProducer) published() ([]*models.QueueMessage, []string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*models.QueueMessage(nil), p.sent...), append([]string(nil), p.keys...)
}

type fakeLog struct {
	mu      sync.Mutex
	entries []models.DeliveryLogEntry
}

func (l *fakeLog) Record(_ context.Context, entry models.DeliveryLogEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, entry)
	return nil
}

func (l *fakeLog) all() []models.DeliveryLogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]models.DeliveryLogEntry(nil), l.entries...)
}

// fakeKakao answers both Kakao calls with resp/err after an optional gate.
type fakeKakao struct {
	mu         sync.Mutex
	resp       *models.ProviderResponse
	err        error
	gate       chan struct{}
	alimtalk   []*clients.AlimtalkRequest
	friendtalk []*clients.FriendtalkRequest
}

func (k *fakeKakao) wait(ctx context.Context) error {
	if k.gate == nil {
		return nil
	}
	select {
	case <-k.gate:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (k *fakeKakao) SendAlimtalk(ctx context.Context, req *clients.AlimtalkRequest) (*models.ProviderResponse, error) {
	k.mu.Lock()
	k.alimtalk = append(k.alimtalk, req)
	k.mu.Unlock()
	if err := k.wait(ctx); err != nil {
		return nil, &models.ProviderError{Provider: clients.ProviderAlimtalk, Err: err}
	}
	return k.resp, k.err
}

func (k *fakeKakao) SendFriendtalk(ctx context.Context, req *clients.FriendtalkRequest) (*models.ProviderResponse, error) {
	k.mu.Lock()
	k.friendtalk = append(k.friendtalk, req)
	k.mu.Unlock()
	if err := k.wait(ctx); err != nil {
		return nil, &models.ProviderError{Provider: clients.ProviderFriendtalk, Err: err}
	}
	return k.resp, k.err
}

func (k *fakeKakao) alimtalkCalls() []*clients.AlimtalkRequest {
	k.mu.Lock()
	defer k.mu.Unlock()
	return append([]*clients.AlimtalkRequest(nil), k.alimtalk...)
}

type fakeMail struct {
	mu   sync.Mutex
	err  error
	sent []clients.Mail
}

func (m *fakeMail) SendMail(_ context.Context, mail clients.Mail) (*models.ProviderResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, mail)
	if m.err != nil {
		return nil, m.err
	}
	return &models.ProviderResponse{RequestID: "mail-1", Count: 1, SuccessfulRecipients: []string{mail.To}}, nil
}

func (m *fakeMail) mails() []clients.Mail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]clients.Mail(nil), m.sent...)
}

type fakeMetrics struct {
	mu        sync.Mutex
	published int
	fallbacks int
}

func (m *fakeMetrics) Published(string) {
	m.mu.Lock()
	m.published++
	m.mu.Unlock()
}

func (m *fakeMetrics) Fallback(models.Channel) {
	m.mu.Lock()
	m.fallbacks++
	m.mu.Unlock()
}

func (m *fakeMetrics) Delivery(models.Channel, models.DeliveryStatus) {}

func (m *fakeMetrics) counts() (int, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.published, m.fallbacks
}

func providerOK(id string) *models.ProviderResponse {
	return &models.ProviderResponse{RequestID: id, StatusCode: "2000", Count: 1}
}

func welcomeRequest() *models.NotificationRequest {
	return &models.NotificationRequest{
		Channel:      models.ChannelAlimtalk,
		Recipient:    "01012345678",
		TemplateCode: "WELCOME_TEMPLATE",
		Variables:    map[string]string{"name": "Kim"},
	}
}

func newKakaoForTest(kakao *fakeKakao, opts Options) *KakaoService {
	if opts.Logger == nil {
		opts.Logger = discardLogger()
	}
	if opts.RoutingKey == "" {
		opts.RoutingKey = "notification.kakao"
	}
	svc := NewKakaoService(kakao, kakao, nil, KakaoSettings{SenderKey: "pf-1", SenderPhone: "0212345678"}, opts)
	svc.now = func() time.Time { return time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC) }
	return svc
}
