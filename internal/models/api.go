package models

// AlimtalkSendRequest is the HTTP body for an Alimtalk send.
type AlimtalkSendRequest struct {
	PhoneNumber  string            `json:"phone_number" binding:"required"`
	TemplateCode string            `json:"template_code" binding:"required"`
	Variables    map[string]string `json:"variables"`
	Buttons      []Button          `json:"buttons"`
}

// NotificationRequest converts the body to a channel request.
func (r AlimtalkSendRequest) NotificationRequest() *NotificationRequest {
	return &NotificationRequest{
		Channel:      ChannelAlimtalk,
		Recipient:    r.PhoneNumber,
		TemplateCode: r.TemplateCode,
		Variables:    r.Variables,
		Buttons:      r.Buttons,
	}
}

// FriendtalkSendRequest is the HTTP body for a Friendtalk send.
type FriendtalkSendRequest struct {
	ReceiverUUIDs []string          `json:"receiver_uuids" binding:"required,min=1"`
	Content       string            `json:"content" binding:"required"`
	Variables     map[string]string `json:"variables"`
	ButtonTitle   string            `json:"button_title"`
	WebURL        string            `json:"web_url"`
	Buttons       []Button          `json:"buttons"`
}

// NotificationRequest converts the body to a channel request.
func (r FriendtalkSendRequest) NotificationRequest() *NotificationRequest {
	return &NotificationRequest{
		Channel:       ChannelFriendtalk,
		ReceiverUUIDs: r.ReceiverUUIDs,
		Content:       r.Content,
		Variables:     r.Variables,
		ButtonTitle:   r.ButtonTitle,
		WebURL:        r.WebURL,
		Buttons:       r.Buttons,
	}
}

// EmailSendRequest is the HTTP body for an e-mail send.
type EmailSendRequest struct {
	To           string            `json:"to" binding:"required,email"`
	Subject      string            `json:"subject" binding:"required"`
	Content      string            `json:"content" binding:"required"`
	TemplateCode string            `json:"template_code"`
	Variables    map[string]string `json:"variables"`
	HTML         bool              `json:"html"`
}

// NotificationRequest converts the body to a channel request.
func (r EmailSendRequest) NotificationRequest() *NotificationRequest {
	return &NotificationRequest{
		Channel:      ChannelEmail,
		Recipient:    r.To,
		Subject:      r.Subject,
		Content:      r.Content,
		TemplateCode: r.TemplateCode,
		Variables:    r.Variables,
		HTML:         r.HTML,
	}
}
