package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/CyberwizD/Distributed-Notification-System/services/dispatcher/internal/clients"
	"github.com/CyberwizD/Distributed-Notification-System/services/dispatcher/internal/models"
)

const defaultSendTimeout = 15 * time.Second

// Producer hands a message to the broker. Any error means the message was not
// accepted and the caller must deliver it some other way.
type Producer interface {
	Publish(ctx context.Context, routingKey string, msg *models.QueueMessage) error
}

// DeliveryLog stores one entry per delivery attempt.
type DeliveryLog interface {
	Record(ctx context.Context, entry models.DeliveryLogEntry) error
}

// Metrics receives dispatcher events.
type Metrics interface {
	Published(routingKey string)
	Fallback(channel models.Channel)
	Delivery(channel models.Channel, status models.DeliveryStatus)
}

type noopMetrics struct{}

func (noopMetrics) Published(string) {}
func (noopMetrics) Fallback(models.Channel) {}
func (noopMetrics) Delivery(models.Channel, models.DeliveryStatus) {}

// ChannelService delivers notifications for one family of channels.
type ChannelService interface {
	Validate(req *models.NotificationRequest) error
	SendSync(ctx context.Context, req *models.NotificationRequest) (*models.ProviderResponse, error)
	SendAsync(ctx context.Context, req *models.NotificationRequest) error
}

// Options are the collaborators shared by the channel services. Producer may
// be nil, in which case every asynchronous send is delivered inline.
type Options struct {
	Producer    Producer
	RoutingKey  string
	DeliveryLog DeliveryLog
	Metrics     Metrics
	Logger      *slog.Logger
	SendTimeout time.Duration
}

func (o Options) withDefaults() Options {
	if o.Metrics == nil {
		o.Metrics = noopMetrics{}
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.SendTimeout <= 0 {
		o.SendTimeout = defaultSendTimeout
	}
	return o
}

// asyncQueue publishes validated requests and falls back to inline delivery
// when the broker cannot take them.
type asyncQueue struct {
	producer   Producer
	routingKey string
	metrics    Metrics
	logger     *slog.Logger
}

// submit publishes req or runs deliver. On the inline path provider failures
// are logged and dropped so the caller sees the same result as when the
// message was queued.
func (q asyncQueue) submit(ctx context.Context, req *models.NotificationRequest, deliver func(context.Context) error) error {
	if q.producer == nil {
		q.logger.Warn("no broker configured, delivering synchronously",
			slog.String("channel", string(req.Channel)))
		return q.fallback(ctx, req.Channel, deliver)
	}

	msg := models.NewQueueMessage(req)
	if err := q.producer.Publish(ctx, q.routingKey, msg); err != nil {
		q.logger.Warn("broker publish failed, delivering synchronously",
			slog.String("channel", string(req.Channel)),
			slog.String("routing_key", q.routingKey),
			slog.Any("error", err))
		return q.fallback(ctx, req.Channel, deliver)
	}

	q.metrics.Published(q.routingKey)
	q.logger.Info("notification queued",
		slog.String("message_id", msg.MessageID),
		slog.String("channel", string(msg.Channel)),
		slog.String("routing_key", q.routingKey))
	return nil
}

func (q asyncQueue) fallback(ctx context.Context, channel models.Channel, deliver func(context.Context) error) error {
	q.metrics.Fallback(channel)
	err := deliver(ctx)
	if err != nil && models.IsProvider(err) {
		q.logger.Error("fallback delivery failed",
			slog.String("channel", string(channel)),
			slog.Any("error", err))
		return nil
	}
	return err
}

// recorder writes delivery log entries. A failing store is logged and never
// changes the outcome of the send.
type recorder struct {
	log     DeliveryLog
	metrics Metrics
	logger  *slog.Logger
}

func (r recorder) record(ctx context.Context, entry models.DeliveryLogEntry) {
	r.metrics.Delivery(entry.Channel, entry.Status)
	if r.log == nil {
		return
	}
	// The log write must happen even if the caller has gone away.
	ctx = context.WithoutCancel(ctx)
	if err := r.log.Record(ctx, entry); err != nil {
		r.logger.Error("failed to save delivery log",
			slog.String("recipient", entry.Recipient),
			slog.String("channel", string(entry.Channel)),
			slog.Any("error", err))
		return
	}
	r.logger.Info("saved delivery log",
		slog.String("recipient", entry.Recipient),
		slog.String("channel", string(entry.Channel)),
		slog.String("status", string(entry.Status)))
}

// complete finishes pending entries for every recipient with the outcome of
// one provider call. When the provider lists the recipients it accepted, any
// recipient missing from that list is recorded as failed.
func (r recorder) complete(ctx context.Context, pending []models.DeliveryLogEntry, resp *models.ProviderResponse, err error) {
	now := time.Now().UTC()
	var accepted map[string]struct{}
	if err == nil && resp.SuccessfulRecipients != nil {
		accepted = make(map[string]struct{}, len(resp.SuccessfulRecipients))
		for _, id := range resp.SuccessfulRecipients {
			accepted[id] = struct{}{}
		}
	}

	for _, entry := range pending {
		if err != nil {
			code, message := errorDetails(err)
			r.record(ctx, entry.Failed(code, message))
			continue
		}
		if accepted != nil {
			if _, ok := accepted[entry.Recipient]; !ok {
				failed := entry.Failed(codeNotDelivered, "provider did not accept the receiver")
				failed.RequestID = resp.RequestID
				r.record(ctx, failed)
				continue
			}
		}
		r.record(ctx, entry.Succeeded(resp.RequestID, now))
	}
}

const codeNotDelivered = "NOT_DELIVERED"

func errorDetails(err error) (string, string) {
	var (
		perr *models.ProviderError
		serr *models.SigningError
		verr *models.ValidationError
	)
	switch {
	case errors.As(err, &perr):
		return perr.Code(), perr.Error()
	case errors.As(err, &serr):
		return "SIGNING_ERROR", serr.Error()
	case errors.As(err, &verr):
		return "VALIDATION_ERROR", verr.Error()
	}
	return "INTERNAL_ERROR", err.Error()
}

// awaitProvider bounds the wait for a provider call by timeout. The call is
// detached from ctx cancellation; a result that arrives after the caller gave
// up is only logged.
func awaitProvider(ctx context.Context, logger *slog.Logger, provider string, timeout time.Duration, call func(context.Context) (*models.ProviderResponse, error)) (*models.ProviderResponse, error) {
	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout+time.Second)
	future := clients.Async(callCtx, provider, call)
	future.Then(func(*models.ProviderResponse, error) { cancel() })

	waitCtx, stop := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer stop()
	resp, err := future.Await(waitCtx)
	if err != nil && waitCtx.Err() != nil {
		future.Then(func(_ *models.ProviderResponse, lateErr error) {
			logger.Warn("provider answered after send timeout",
				slog.String("provider", provider),
				slog.Bool("succeeded", lateErr == nil))
		})
	}
	return resp, err
}
