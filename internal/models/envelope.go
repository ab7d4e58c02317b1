package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// QueueMessage is the message placed on the broker. It carries everything the
// consumer needs to send the notification without further lookups.
type QueueMessage struct {
	MessageID     string            `json:"message_id"`
	CreatedAt     time.Time         `json:"created_at"`
	Channel       Channel           `json:"channel"`
	Recipient     string            `json:"recipient,omitempty"`
	ReceiverUUIDs []string          `json:"receiver_uuids,omitempty"`
	TemplateCode  string            `json:"template_code,omitempty"`
	Subject       string            `json:"subject,omitempty"`
	Variables     map[string]string `json:"variables,omitempty"`
	Buttons       []Button          `json:"buttons,omitempty"`
	Content       string            `json:"content,omitempty"`
	ButtonTitle   string            `json:"button_title,omitempty"`
	WebURL        string            `json:"web_url,omitempty"`
	HTML          bool              `json:"html,omitempty"`
}

// NewQueueMessage copies req into a new message. Slices and maps are copied
// so later changes to req do not leak into a published message.
func NewQueueMessage(req *NotificationRequest) *QueueMessage {
	msg := &QueueMessage{
		MessageID:    uuid.NewString(),
		CreatedAt:    time.Now().UTC(),
		Channel:      req.Channel,
		Recipient:    req.Recipient,
		TemplateCode: req.TemplateCode,
		Subject:      req.Subject,
		Content:      req.Content,
		ButtonTitle:  req.ButtonTitle,
		WebURL:       req.WebURL,
		HTML:         req.HTML,
	}
	if len(req.ReceiverUUIDs) > 0 {
		msg.ReceiverUUIDs = append([]string(nil), req.ReceiverUUIDs...)
	}
	if len(req.Buttons) > 0 {
		msg.Buttons = append([]Button(nil), req.Buttons...)
	}
	if len(req.Variables) > 0 {
		msg.Variables = make(map[string]string, len(req.Variables))
		for k, v := range req.Variables {
			msg.Variables[k] = v
		}
	}
	return msg
}

// Request rebuilds the notification request carried by the message.
func (m *QueueMessage) Request() *NotificationRequest {
	return &NotificationRequest{
		Channel:       m.Channel,
		Recipient:     m.Recipient,
		ReceiverUUIDs: m.ReceiverUUIDs,
		TemplateCode:  m.TemplateCode,
		Subject:       m.Subject,
		Variables:     m.Variables,
		Buttons:       m.Buttons,
		Content:       m.Content,
		ButtonTitle:   m.ButtonTitle,
		WebURL:        m.WebURL,
		HTML:          m.HTML,
	}
}

// DecodeQueueMessage parses a broker payload and checks that it names a
// known channel.
func DecodeQueueMessage(body []byte) (*QueueMessage, error) {
	var msg QueueMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return nil, fmt.Errorf("decode queue message: %w", err)
	}
	if !msg.Channel.Valid() {
		return nil, fmt.Errorf("decode queue message: unknown channel %q", msg.Channel)
	}
	return &msg, nil
}
