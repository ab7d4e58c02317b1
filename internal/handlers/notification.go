package handlers

import (
	"context"
	"net/http"

	"github.com/CyberwizD/Distributed-Notification-System/services/dispatcher/internal/models"
	"github.com/CyberwizD/Distributed-Notification-System/services/dispatcher/internal/services"
	"github.com/gin-gonic/gin"
)

// Dispatcher is the multi-channel entry point used by the handler.
type Dispatcher interface {
	Send(ctx context.Context, req *models.NotificationRequest) error
	NotifyUser(ctx context.Context, req models.MultiChannelRequest) []models.ChannelResult
}

// NotificationHandler handles notification-related requests.
type NotificationHandler struct {
	kakao      services.ChannelService
	email      services.ChannelService
	dispatcher Dispatcher
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(kakao, email services.ChannelService, dispatcher Dispatcher) *NotificationHandler {
	return &NotificationHandler{
		kakao:      kakao,
		email:      email,
		dispatcher: dispatcher,
	}
}

// SendAlimtalk sends an Alimtalk and waits for the provider.
func (h *NotificationHandler) SendAlimtalk(c *gin.Context) {
	var body models.AlimtalkSendRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		respondValidationError(c, err)
		return
	}
	h.sendSync(c, h.kakao, body.NotificationRequest())
}

// SendAlimtalkAsync queues an Alimtalk.
func (h *NotificationHandler) SendAlimtalkAsync(c *gin.Context) {
	var body models.AlimtalkSendRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		respondValidationError(c, err)
		return
	}
	h.sendAsync(c, h.kakao, body.NotificationRequest())
}

// SendFriendtalk sends a Friendtalk and waits for the provider.
func (h *NotificationHandler) SendFriendtalk(c *gin.Context) {
	var body models.FriendtalkSendRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		respondValidationError(c, err)
		return
	}
	h.sendSync(c, h.kakao, body.NotificationRequest())
}

// SendFriendtalkAsync queues a Friendtalk.
func (h *NotificationHandler) SendFriendtalkAsync(c *gin.Context) {
	var body models.FriendtalkSendRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		respondValidationError(c, err)
		return
	}
	h.sendAsync(c, h.kakao, body.NotificationRequest())
}

// SendEmail sends an e-mail and waits for the mail server.
func (h *NotificationHandler) SendEmail(c *gin.Context) {
	var body models.EmailSendRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		respondValidationError(c, err)
		return
	}
	h.sendSync(c, h.email, body.NotificationRequest())
}

// SendEmailAsync queues an e-mail.
func (h *NotificationHandler) SendEmailAsync(c *gin.Context) {
	var body models.EmailSendRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		respondValidationError(c, err)
		return
	}
	h.sendAsync(c, h.email, body.NotificationRequest())
}

// SendMultiChannel sends the same notice by e-mail and Alimtalk.
func (h *NotificationHandler) SendMultiChannel(c *gin.Context) {
	var req models.MultiChannelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}

	results := h.dispatcher.NotifyUser(c.Request.Context(), req)
	accepted := 0
	for _, r := range results {
		if r.Accepted {
			accepted++
		}
	}
	switch accepted {
	case len(results):
		respondSuccess(c, http.StatusAccepted, "notification queued on all channels", results)
	case 0:
		c.JSON(http.StatusBadRequest, models.ResponseEnvelope{
			Success: false,
			Message: "no channel accepted the notification",
			Data:    results,
		})
	default:
		respondSuccess(c, http.StatusMultiStatus, "notification queued on some channels", results)
	}
}

// SendNotification queues a channel-tagged notification on the generic route.
func (h *NotificationHandler) SendNotification(c *gin.Context) {
	var req models.NotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}
	req.Channel = models.ParseChannel(string(req.Channel))

	if err := h.dispatcher.Send(c.Request.Context(), &req); err != nil {
		respondSendError(c, err)
		return
	}
	respondSuccess(c, http.StatusAccepted, "notification queued", gin.H{
		"channel": req.Channel,
		"status":  "queued",
	})
}

func (h *NotificationHandler) sendSync(c *gin.Context, svc services.ChannelService, req *models.NotificationRequest) {
	resp, err := svc.SendSync(c.Request.Context(), req)
	if err != nil {
		respondSendError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.ResponseEnvelope{
		Success:   true,
		Message:   "notification sent",
		RequestID: resp.RequestID,
		Data:      resp,
	})
}

func (h *NotificationHandler) sendAsync(c *gin.Context, svc services.ChannelService, req *models.NotificationRequest) {
	if err := svc.SendAsync(c.Request.Context(), req); err != nil {
		respondSendError(c, err)
		return
	}
	respondSuccess(c, http.StatusAccepted, "notification queued", gin.H{
		"channel": req.Channel,
		"status":  "queued",
	})
}
