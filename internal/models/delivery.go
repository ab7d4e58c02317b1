package models

import "time"

// DeliveryStatus is the outcome of one send attempt.
type DeliveryStatus string

const (
	DeliveryPending DeliveryStatus = "PENDING"
	DeliverySuccess DeliveryStatus = "SUCCESS"
	DeliveryFailed  DeliveryStatus = "FAILED"
)

// CanTransition reports whether a log entry may move from s to next.
func (s DeliveryStatus) CanTransition(next DeliveryStatus) bool {
	return s == DeliveryPending && (next == DeliverySuccess || next == DeliveryFailed)
}

// DeliveryLogEntry records one attempt to deliver to one recipient.
type DeliveryLogEntry struct {
	ID           uint           `json:"id" gorm:"primaryKey"`
	Recipient    string         `json:"recipient" gorm:"size:255;not null;index"`
	Channel      Channel        `json:"channel" gorm:"size:20;not null"`
	TemplateCode string         `json:"template_code,omitempty" gorm:"size:64"`
	Status       DeliveryStatus `json:"status" gorm:"size:16;not null;index"`
	RequestID    string         `json:"request_id,omitempty" gorm:"size:128;index"`
	ErrorCode    string         `json:"error_code,omitempty" gorm:"size:64"`
	ErrorMessage string         `json:"error_message,omitempty" gorm:"type:text"`
	SentAt       *time.Time     `json:"sent_at,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

// TableName pins the gorm table name.
func (DeliveryLogEntry) TableName() string { return "delivery_logs" }

// NewDeliveryLogEntry starts a pending entry.
func NewDeliveryLogEntry(recipient string, channel Channel, templateCode string) DeliveryLogEntry {
	return DeliveryLogEntry{
		Recipient:    recipient,
		Channel:      channel,
		TemplateCode: templateCode,
		Status:       DeliveryPending,
		CreatedAt:    time.Now().UTC(),
	}
}

// Succeeded completes a pending entry with the provider request id.
func (e DeliveryLogEntry) Succeeded(requestID string, at time.Time) DeliveryLogEntry {
	if !e.Status.CanTransition(DeliverySuccess) {
		return e
	}
	e.Status = DeliverySuccess
	e.RequestID = requestID
	e.SentAt = &at
	return e
}

// Failed completes a pending entry with the error that stopped it.
func (e DeliveryLogEntry) Failed(code, message string) DeliveryLogEntry {
	if !e.Status.CanTransition(DeliveryFailed) {
		return e
	}
	e.Status = DeliveryFailed
	e.ErrorCode = code
	e.ErrorMessage = message
	return e
}
