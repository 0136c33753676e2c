package domain

import (
	"time"

	"github.com/google/uuid"
)

// Channel is a notification delivery channel.
type Channel string

const (
	ChannelSMS   Channel = "sms"
	ChannelEmail Channel = "email"
)

// Valid reports whether the channel is one of the supported values.
func (c Channel) Valid() bool {
	return c == ChannelSMS || c == ChannelEmail
}

// NotificationStatus is the delivery state of a notification.
type NotificationStatus string

const (
	StatusPending NotificationStatus = "pending"
	StatusSent    NotificationStatus = "sent"
	StatusFailed  NotificationStatus = "failed"
)

// Notification is one outbound message to a lead, with the provider outcome
// captured alongside it.
type Notification struct {
	ID           uuid.UUID          `db:"id" json:"id"`
	LeadID       int64              `db:"lead_id" json:"lead_id"`
	Channel      Channel            `db:"channel" json:"channel"`
	Sender       string             `db:"sender" json:"sender"`
	Recipient    string             `db:"recipient" json:"recipient"`
	Body         string             `db:"body" json:"body"`
	Status       NotificationStatus `db:"status" json:"status"`
	ProviderID   *string            `db:"provider_id" json:"provider_id,omitempty"`
	ErrorCode    *int               `db:"error_code" json:"error_code,omitempty"`
	ErrorMessage *string            `db:"error_message" json:"error_message,omitempty"`
	Attempts     int                `db:"attempts" json:"attempts"`
	SendDate     time.Time          `db:"send_date" json:"send_date"`
	CreatedAt    time.Time          `db:"created_at" json:"created_at"`
}
