package services

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"time"

	"github.com/CyberwizD/Distributed-Notification-System/services/dispatcher/internal/clients"
	"github.com/CyberwizD/Distributed-Notification-System/services/dispatcher/internal/models"
)

// MailSender is the provider call used for e-mail.
type MailSender interface {
	SendMail(ctx context.Context, m clients.Mail) (*models.ProviderResponse, error)
}

// EmailService delivers e-mail notifications.
type EmailService struct {
	mail        MailSender
	queue       asyncQueue
	rec         recorder
	logger      *slog.Logger
	sendTimeout time.Duration
}

// NewEmailService creates a new EmailService.
func NewEmailService(mail MailSender, opts Options) *EmailService {
	opts = opts.withDefaults()
	return &EmailService{
		mail:        mail,
		queue:       asyncQueue{producer: opts.Producer, routingKey: opts.RoutingKey, metrics: opts.Metrics, logger: opts.Logger},
		rec:         recorder{log: opts.DeliveryLog, metrics: opts.Metrics, logger: opts.Logger},
		logger:      opts.Logger,
		sendTimeout: opts.SendTimeout,
	}
}

// Validate rejects requests that could never be delivered.
func (s *EmailService) Validate(req *models.NotificationRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	if req.Channel != models.ChannelEmail {
		return &models.ValidationError{Field: "channel", Reason: "is not EMAIL"}
	}
	if err := CheckVariables("subject", req.Subject, req.Variables); err != nil {
		return err
	}
	return CheckVariables("content", req.Content, req.Variables)
}

// SendSync delivers req and waits for the mail server.
func (s *EmailService) SendSync(ctx context.Context, req *models.NotificationRequest) (*models.ProviderResponse, error) {
	if err := s.Validate(req); err != nil {
		return nil, err
	}
	subject, err := Render("subject", req.Subject, req.Variables)
	if err != nil {
		return nil, err
	}
	body, err := Render("content", req.Content, req.Variables)
	if err != nil {
		return nil, err
	}

	m := clients.Mail{To: req.Recipient, Subject: subject, Body: body, HTML: req.HTML}
	pending := []models.DeliveryLogEntry{models.NewDeliveryLogEntry(req.Recipient, models.ChannelEmail, req.TemplateCode)}
	resp, err := awaitProvider(ctx, s.logger, clients.ProviderMail, s.sendTimeout, func(ctx context.Context) (*models.ProviderResponse, error) {
		return s.mail.SendMail(ctx, m)
	})
	s.rec.complete(ctx, pending, resp, err)
	if err != nil {
		s.logger.Error("failed to send email",
			slog.String("to", req.Recipient),
			slog.Any("error", err))
		return nil, err
	}

	s.logger.Info("email sent",
		slog.String("to", req.Recipient),
		slog.String("request_id", resp.RequestID))
	return resp, nil
}

// SendAsync queues req for delivery, or delivers it inline when the broker is
// not available.
func (s *EmailService) SendAsync(ctx context.Context, req *models.NotificationRequest) error {
	if err := s.Validate(req); err != nil {
		return err
	}
	return s.queue.submit(ctx, req, func(ctx context.Context) error {
		_, err := s.SendSync(ctx, req)
		return err
	})
}

// SendWelcomeEmail queues the sign-up welcome mail.
func (s *EmailService) SendWelcomeEmail(ctx context.Context, to, name string) error {
	return s.SendAsync(ctx, &models.NotificationRequest{
		Channel:   models.ChannelEmail,
		Recipient: to,
		Subject:   "회원가입을 환영합니다!",
		Content: fmt.Sprintf(`<html><body>
<h2>안녕하세요, %s님!</h2>
<p>회원가입을 진심으로 환영합니다.</p>
<p>저희 서비스를 이용해 주셔서 감사합니다.</p>
</body></html>`, html.EscapeString(name)),
		HTML: true,
	})
}

// SendPasswordResetEmail queues a mail carrying the reset link for token.
func (s *EmailService) SendPasswordResetEmail(ctx context.Context, to, token string) error {
	link := "https://example.com/reset-password?token=" + token
	return s.SendAsync(ctx, &models.NotificationRequest{
		Channel:   models.ChannelEmail,
		Recipient: to,
		Subject:   "비밀번호 재설정 안내",
		Content: fmt.Sprintf(`<html><body>
<h2>비밀번호 재설정</h2>
<p>아래 링크를 클릭하여 비밀번호를 재설정하세요.</p>
<p><a href="%s">비밀번호 재설정하기</a></p>
<p>이 링크는 24시간 동안 유효합니다.</p>
</body></html>`, html.EscapeString(link)),
		HTML: true,
	})
}
