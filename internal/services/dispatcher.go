package services

import (
	"context"
	"log/slog"

	"github.com/CyberwizD/Distributed-Notification-System/services/dispatcher/internal/models"
	"golang.org/x/sync/errgroup"
)

// Dispatcher routes notifications to the channel services.
type Dispatcher struct {
	email   ChannelService
	kakao   ChannelService
	generic asyncQueue
	logger  *slog.Logger
}

// NewDispatcher creates a new Dispatcher. opts.RoutingKey is used for
// channel-tagged sends through Send.
func NewDispatcher(email, kakao ChannelService, opts Options) *Dispatcher {
	opts = opts.withDefaults()
	return &Dispatcher{
		email:   email,
		kakao:   kakao,
		generic: asyncQueue{producer: opts.Producer, routingKey: opts.RoutingKey, metrics: opts.Metrics, logger: opts.Logger},
		logger:  opts.Logger,
	}
}

// ServiceFor returns the service that delivers channel.
func (d *Dispatcher) ServiceFor(channel models.Channel) (ChannelService, error) {
	switch channel {
	case models.ChannelEmail:
		return d.email, nil
	case models.ChannelAlimtalk, models.ChannelFriendtalk:
		return d.kakao, nil
	}
	return nil, &models.ValidationError{Field: "channel", Reason: "must be one of EMAIL, ALIMTALK, FRIENDTALK"}
}

// Send queues req on the generic notification route, or delivers it inline
// when the broker is not available.
func (d *Dispatcher) Send(ctx context.Context, req *models.NotificationRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	svc, err := d.ServiceFor(req.Channel)
	if err != nil {
		return err
	}
	if err := svc.Validate(req); err != nil {
		return err
	}
	return d.generic.submit(ctx, req, func(ctx context.Context) error {
		_, err := svc.SendSync(ctx, req)
		return err
	})
}

// NotifyUser sends the same notice by e-mail and Alimtalk. Both channels are
// attempted concurrently and one failing never stops the other.
func (d *Dispatcher) NotifyUser(ctx context.Context, req models.MultiChannelRequest) []models.ChannelResult {
	requests := []*models.NotificationRequest{
		{
			Channel:   models.ChannelEmail,
			Recipient: req.Email,
			Subject:   req.Subject,
			Content:   req.Content,
		},
		{
			Channel:      models.ChannelAlimtalk,
			Recipient:    req.Phone,
			TemplateCode: "NOTIFICATION_TEMPLATE",
			Variables: map[string]string{
				"name":    req.Name,
				"content": req.Content,
			},
		},
	}

	results := make([]models.ChannelResult, len(requests))
	var g errgroup.Group
	for i, r := range requests {
		g.Go(func() error {
			res := models.ChannelResult{Channel: r.Channel, Accepted: true}
			svc, err := d.ServiceFor(r.Channel)
			if err == nil {
				err = svc.SendAsync(ctx, r)
			}
			if err != nil {
				d.logger.Error("multi-channel send failed",
					slog.String("channel", string(r.Channel)),
					slog.Any("error", err))
				res.Accepted = false
				res.Error = err.Error()
			}
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()
	return results
}
