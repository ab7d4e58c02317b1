package models

import (
	"fmt"
	"net/mail"
	"strings"
)

// Channel identifies the delivery channel of a notification.
type Channel string

const (
	ChannelEmail      Channel = "EMAIL"
	ChannelAlimtalk   Channel = "ALIMTALK"
	ChannelFriendtalk Channel = "FRIENDTALK"
)

// Valid reports whether c is a known channel.
func (c Channel) Valid() bool {
	switch c {
	case ChannelEmail, ChannelAlimtalk, ChannelFriendtalk:
		return true
	}
	return false
}

// ParseChannel accepts the channel name in any case.
func ParseChannel(v string) Channel {
	return Channel(strings.ToUpper(strings.TrimSpace(v)))
}

// ButtonType is the Kakao button kind.
type ButtonType string

const (
	ButtonWebLink        ButtonType = "WL"
	ButtonAppLink        ButtonType = "AL"
	ButtonDeliveryTrack  ButtonType = "DS"
	ButtonBotKeyword     ButtonType = "BK"
	ButtonMessageForward ButtonType = "MD"
)

func (t ButtonType) valid() bool {
	switch t {
	case ButtonWebLink, ButtonAppLink, ButtonDeliveryTrack, ButtonBotKeyword, ButtonMessageForward:
		return true
	}
	return false
}

// Button is a message button. Links are passed to the provider as given.
type Button struct {
	Type        ButtonType `json:"type"`
	Name        string     `json:"name"`
	LinkMobile  string     `json:"link_mobile,omitempty"`
	LinkPC      string     `json:"link_pc,omitempty"`
	LinkAndroid string     `json:"link_android,omitempty"`
	LinkIOS     string     `json:"link_ios,omitempty"`
}

// NotificationRequest is a single-channel notification as accepted by the
// channel services.
type NotificationRequest struct {
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

// Recipients returns every address the request is delivered to.
func (r *NotificationRequest) Recipients() []string {
	if r.Channel == ChannelFriendtalk {
		return r.ReceiverUUIDs
	}
	if r.Recipient == "" {
		return nil
	}
	return []string{r.Recipient}
}

// Validate checks the channel specific required fields. Template placeholders
// are checked later, when the template is rendered.
func (r *NotificationRequest) Validate() error {
	if r == nil {
		return &ValidationError{Field: "request", Reason: "is required"}
	}
	if !r.Channel.Valid() {
		return &ValidationError{Field: "channel", Reason: "must be one of EMAIL, ALIMTALK, FRIENDTALK"}
	}

	switch r.Channel {
	case ChannelEmail:
		if strings.TrimSpace(r.Recipient) == "" {
			return &ValidationError{Field: "recipient", Reason: "is required"}
		}
		if _, err := mail.ParseAddress(r.Recipient); err != nil {
			return &ValidationError{Field: "recipient", Reason: "is not a valid e-mail address"}
		}
		if strings.TrimSpace(r.Subject) == "" {
			return &ValidationError{Field: "subject", Reason: "is required"}
		}
		if strings.TrimSpace(r.Content) == "" {
			return &ValidationError{Field: "content", Reason: "is required"}
		}
	case ChannelAlimtalk:
		if strings.TrimSpace(r.Recipient) == "" {
			return &ValidationError{Field: "recipient", Reason: "is required"}
		}
		if strings.TrimSpace(r.TemplateCode) == "" {
			return &ValidationError{Field: "template_code", Reason: "is required"}
		}
	case ChannelFriendtalk:
		if len(r.ReceiverUUIDs) == 0 {
			return &ValidationError{Field: "receiver_uuids", Reason: "is required"}
		}
		for _, id := range r.ReceiverUUIDs {
			if strings.TrimSpace(id) == "" {
				return &ValidationError{Field: "receiver_uuids", Reason: "must not contain empty values"}
			}
		}
		if strings.TrimSpace(r.Content) == "" {
			return &ValidationError{Field: "content", Reason: "is required"}
		}
	}

	for i, b := range r.Buttons {
		if !b.Type.valid() {
			return &ValidationError{Field: "buttons", Reason: fmt.Sprintf("unknown button type %q at index %d", b.Type, i)}
		}
		if strings.TrimSpace(b.Name) == "" {
			return &ValidationError{Field: "buttons", Reason: fmt.Sprintf("name is required at index %d", i)}
		}
	}
	return nil
}

// MultiChannelRequest asks for the same notice to go out by e-mail and Kakao.
type MultiChannelRequest struct {
	Email   string `json:"email" form:"email" binding:"required,email"`
	Phone   string `json:"phone" form:"phone" binding:"required"`
	Name    string `json:"name" form:"name" binding:"required"`
	Subject string `json:"subject" form:"subject" binding:"required"`
	Content string `json:"content" form:"content" binding:"required"`
}
