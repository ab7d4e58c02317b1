package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/CyberwizD/Distributed-Notification-System/services/dispatcher/internal/clients"
	"github.com/CyberwizD/Distributed-Notification-System/services/dispatcher/internal/models"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// AlimtalkSender is the provider call used for Alimtalk.
type AlimtalkSender interface {
	SendAlimtalk(ctx context.Context, req *clients.AlimtalkRequest) (*models.ProviderResponse, error)
}

// FriendtalkSender is the provider call used for Friendtalk.
type FriendtalkSender interface {
	SendFriendtalk(ctx context.Context, req *clients.FriendtalkRequest) (*models.ProviderResponse, error)
}

// KakaoSettings identifies the sending Kakao channel.
type KakaoSettings struct {
	SenderKey   string
	SenderPhone string
}

// KakaoService delivers Alimtalk and Friendtalk messages.
type KakaoService struct {
	alimtalk    AlimtalkSender
	friendtalk  FriendtalkSender
	templates   *TemplateCatalog
	settings    KakaoSettings
	queue       asyncQueue
	rec         recorder
	logger      *slog.Logger
	sendTimeout time.Duration
	now         func() time.Time
}

// NewKakaoService creates a new KakaoService.
func NewKakaoService(alimtalk AlimtalkSender, friendtalk FriendtalkSender, templates *TemplateCatalog, settings KakaoSettings, opts Options) *KakaoService {
	opts = opts.withDefaults()
	if templates == nil {
		templates = DefaultTemplates()
	}
	return &KakaoService{
		alimtalk:    alimtalk,
		friendtalk:  friendtalk,
		templates:   templates,
		settings:    settings,
		queue:       asyncQueue{producer: opts.Producer, routingKey: opts.RoutingKey, metrics: opts.Metrics, logger: opts.Logger},
		rec:         recorder{log: opts.DeliveryLog, metrics: opts.Metrics, logger: opts.Logger},
		logger:      opts.Logger,
		sendTimeout: opts.SendTimeout,
		now:         time.Now,
	}
}

// Validate rejects requests that could never be delivered.
func (s *KakaoService) Validate(req *models.NotificationRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	switch req.Channel {
	case models.ChannelAlimtalk:
		tpl, err := s.templates.Lookup(req.TemplateCode)
		if err != nil {
			return err
		}
		return CheckVariables("variables", tpl.Body, req.Variables)
	case models.ChannelFriendtalk:
		return CheckVariables("content", req.Content, req.Variables)
	}
	return &models.ValidationError{Field: "channel", Reason: "is not a kakao channel"}
}

// SendSync delivers req and waits for the provider.
func (s *KakaoService) SendSync(ctx context.Context, req *models.NotificationRequest) (*models.ProviderResponse, error) {
	if err := s.Validate(req); err != nil {
		return nil, err
	}
	if req.Channel == models.ChannelFriendtalk {
		return s.sendFriendtalk(ctx, req)
	}
	return s.sendAlimtalk(ctx, req)
}

// SendAsync queues req for delivery, or delivers it inline when the broker is
// not available.
func (s *KakaoService) SendAsync(ctx context.Context, req *models.NotificationRequest) error {
	if err := s.Validate(req); err != nil {
		return err
	}
	return s.queue.submit(ctx, req, func(ctx context.Context) error {
		_, err := s.SendSync(ctx, req)
		return err
	})
}

func (s *KakaoService) sendAlimtalk(ctx context.Context, req *models.NotificationRequest) (*models.ProviderResponse, error) {
	tpl, err := s.templates.Lookup(req.TemplateCode)
	if err != nil {
		return nil, err
	}

	payload := &clients.AlimtalkRequest{
		To:   req.Recipient,
		From: s.settings.SenderPhone,
		KakaoOptions: clients.KakaoOptions{
			PfID:       s.settings.SenderKey,
			TemplateID: tpl.ProviderID,
			Variables:  providerVariables(req.Variables),
			Buttons:    alimtalkButtons(req.Buttons),
		},
	}

	pending := []models.DeliveryLogEntry{models.NewDeliveryLogEntry(req.Recipient, models.ChannelAlimtalk, tpl.Code)}
	resp, err := awaitProvider(ctx, s.logger, clients.ProviderAlimtalk, s.sendTimeout, func(ctx context.Context) (*models.ProviderResponse, error) {
		return s.alimtalk.SendAlimtalk(ctx, payload)
	})
	s.rec.complete(ctx, pending, resp, err)
	if err != nil {
		s.logger.Error("failed to send alimtalk",
			slog.String("recipient", req.Recipient),
			slog.String("template", tpl.Code),
			slog.Any("error", err))
		return nil, err
	}

	s.logger.Info("alimtalk sent",
		slog.String("recipient", req.Recipient),
		slog.String("template", tpl.Code),
		slog.String("request_id", resp.RequestID))
	return resp, nil
}

func (s *KakaoService) sendFriendtalk(ctx context.Context, req *models.NotificationRequest) (*models.ProviderResponse, error) {
	text, err := Render("content", req.Content, req.Variables)
	if err != nil {
		return nil, err
	}

	payload := &clients.FriendtalkRequest{
		ReceiverUUIDs: req.ReceiverUUIDs,
		TemplateObject: clients.TemplateObject{
			ObjectType:  "text",
			Text:        text,
			Link:        clients.FriendtalkLink{WebURL: req.WebURL, MobileWebURL: req.WebURL},
			ButtonTitle: req.ButtonTitle,
			Buttons:     friendtalkButtons(req.Buttons),
		},
	}

	pending := make([]models.DeliveryLogEntry, 0, len(req.ReceiverUUIDs))
	for _, id := range req.Recipients() {
		pending = append(pending, models.NewDeliveryLogEntry(id, models.ChannelFriendtalk, ""))
	}
	resp, err := awaitProvider(ctx, s.logger, clients.ProviderFriendtalk, s.sendTimeout, func(ctx context.Context) (*models.ProviderResponse, error) {
		return s.friendtalk.SendFriendtalk(ctx, payload)
	})
	s.rec.complete(ctx, pending, resp, err)
	if err != nil {
		s.logger.Error("failed to send friendtalk",
			slog.Int("receivers", len(req.ReceiverUUIDs)),
			slog.Any("error", err))
		return nil, err
	}

	s.logger.Info("friendtalk sent",
		slog.Int("receivers", len(req.ReceiverUUIDs)),
		slog.String("request_id", resp.RequestID))
	return resp, nil
}

// SendWelcomeAlimtalk queues the sign-up welcome message.
func (s *KakaoService) SendWelcomeAlimtalk(ctx context.Context, phone, name string) error {
	return s.SendAsync(ctx, &models.NotificationRequest{
		Channel:      models.ChannelAlimtalk,
		Recipient:    phone,
		TemplateCode: "WELCOME_TEMPLATE",
		Variables: map[string]string{
			"name": name,
			"date": s.now().Format("2006년 01월 02일"),
		},
		Buttons: []models.Button{{
			Type:       models.ButtonWebLink,
			Name:       "서비스 시작하기",
			LinkMobile: "https://example.com/app",
			LinkPC:     "https://example.com/web",
		}},
	})
}

// SendOrderConfirmationAlimtalk queues the order confirmation message.
func (s *KakaoService) SendOrderConfirmationAlimtalk(ctx context.Context, phone, orderNumber, productName string, amount int) error {
	orderURL := "https://example.com/order/" + orderNumber
	return s.SendAsync(ctx, &models.NotificationRequest{
		Channel:      models.ChannelAlimtalk,
		Recipient:    phone,
		TemplateCode: "ORDER_CONFIRMATION_TEMPLATE",
		Variables: map[string]string{
			"orderNumber": orderNumber,
			"productName": productName,
			"amount":      message.NewPrinter(language.Korean).Sprintf("%d", amount),
		},
		Buttons: []models.Button{
			{Type: models.ButtonWebLink, Name: "주문 상세보기", LinkMobile: orderURL, LinkPC: orderURL},
			{Type: models.ButtonDeliveryTrack, Name: "배송 조회"},
		},
	})
}

func alimtalkButtons(buttons []models.Button) []clients.AlimtalkButton {
	if len(buttons) == 0 {
		return nil
	}
	out := make([]clients.AlimtalkButton, 0, len(buttons))
	for _, b := range buttons {
		out = append(out, clients.AlimtalkButton{
			ButtonType: string(b.Type),
			ButtonName: b.Name,
			LinkMo:     b.LinkMobile,
			LinkPc:     b.LinkPC,
			LinkAnd:    b.LinkAndroid,
			LinkIos:    b.LinkIOS,
		})
	}
	return out
}

func friendtalkButtons(buttons []models.Button) []clients.FriendtalkButton {
	if len(buttons) == 0 {
		return nil
	}
	out := make([]clients.FriendtalkButton, 0, len(buttons))
	for _, b := range buttons {
		out = append(out, clients.FriendtalkButton{
			Title: b.Name,
			Link:  clients.FriendtalkLink{WebURL: b.LinkPC, MobileWebURL: b.LinkMobile},
		})
	}
	return out
}
