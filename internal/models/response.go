package models

// ResponseEnvelope is the canonical response shape for the HTTP API.
type ResponseEnvelope struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message,omitempty"`
	RequestID string      `json:"requestId,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Error     string      `json:"error,omitempty"`
}

// ProviderResponse is the normalized answer of a messaging provider.
type ProviderResponse struct {
	RequestID            string   `json:"requestId"`
	GroupID              string   `json:"groupId,omitempty"`
	StatusCode           string   `json:"statusCode,omitempty"`
	StatusMessage        string   `json:"statusMessage,omitempty"`
	Count                int      `json:"count,omitempty"`
	SuccessfulRecipients []string `json:"successfulRecipients,omitempty"`
}

// ChannelResult is the outcome of one channel of a multi-channel dispatch.
type ChannelResult struct {
	Channel  Channel `json:"channel"`
	Accepted bool    `json:"accepted"`
	Error    string  `json:"error,omitempty"`
}
