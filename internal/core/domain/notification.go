package domain

import (
	"time"

	"github.com/google/uuid"
)

// NotificationChannel identifies the outbound medium of a notification.
type NotificationChannel string

const (
	ChannelEmail    NotificationChannel = "email"
	ChannelWhatsApp NotificationChannel = "whatsapp"
	ChannelPush     NotificationChannel = "push"
)

// NotificationStatus represents the delivery state of a notification.
type NotificationStatus string

const (
	NotificationStatusPending NotificationStatus = "pending"
	NotificationStatusSent    NotificationStatus = "sent"
	NotificationStatusFailed  NotificationStatus = "failed"
)

// NotificationPayload is the channel-agnostic content of a notification.
type NotificationPayload struct {
	Subject string            `json:"subject,omitempty"`
	Body    string            `json:"body"`
	Data    map[string]string `json:"data,omitempty"`
}

// NotificationRecord is one unit of outbound communication.
type NotificationRecord struct {
	ID            uuid.UUID           `json:"id"`
	TenantID      uuid.UUID           `json:"tenant_id"`
	Recipient     string              `json:"recipient"` // email address, phone number or device token
	Channel       NotificationChannel `json:"channel"`
	Payload       NotificationPayload `json:"payload"`
	Status        NotificationStatus  `json:"status"`
	ScheduledAt   time.Time           `json:"scheduled_at"`
	ProcessedAt   *time.Time          `json:"processed_at,omitempty"`
	FailureReason *string             `json:"failure_reason,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
}

// IsDue returns true if the record is pending and scheduled at or before now.
func (n *NotificationRecord) IsDue(now time.Time) bool {
	return n.Status == NotificationStatusPending && !n.ScheduledAt.After(now)
}
