package models

import "time"

// MessageStatus is the provider-reported state of a sent message
type MessageStatus string

const (
	MessageStatusAccepted    MessageStatus = "accepted"
	MessageStatusQueued      MessageStatus = "queued"
	MessageStatusSending     MessageStatus = "sending"
	MessageStatusSent        MessageStatus = "sent"
	MessageStatusDelivered   MessageStatus = "delivered"
	MessageStatusRead        MessageStatus = "read"
	MessageStatusFailed      MessageStatus = "failed"
	MessageStatusUndelivered MessageStatus = "undelivered"
)

// rank orders statuses along the one-way progression; unknown values rank with terminal states
func (s MessageStatus) rank() int {
	switch s {
	case MessageStatusAccepted, MessageStatusQueued, MessageStatusSending:
		return 0
	case MessageStatusSent:
		return 1
	default:
		return 2
	}
}

// IsTerminal reports whether the provider will not move the message further
func (s MessageStatus) IsTerminal() bool {
	return s.rank() == 2
}

// CanTransitionTo reports whether an update from s to next keeps the progression one-way.
// Terminal states may replace each other (last write wins) but never fall back to sent.
func (s MessageStatus) CanTransitionTo(next MessageStatus) bool {
	return next.rank() >= s.rank()
}

var knownMessageStatuses = []MessageStatus{
	MessageStatusAccepted,
	MessageStatusQueued,
	MessageStatusSending,
	MessageStatusSent,
	MessageStatusDelivered,
	MessageStatusRead,
	MessageStatusFailed,
	MessageStatusUndelivered,
}

// ReplaceableBy lists the stored statuses next may overwrite.
// A nil result means any stored status, which is the case for terminal next values.
func (s MessageStatus) ReplaceableBy() []MessageStatus {
	if s.IsTerminal() {
		return nil
	}
	var out []MessageStatus
	for _, current := range knownMessageStatuses {
		if current.CanTransitionTo(s) {
			out = append(out, current)
		}
	}
	return out
}

// SentMessage is the delivery log row written for one successful per-recipient send
type SentMessage struct {
	ID                      uint          `gorm:"primaryKey" json:"id"`
	EventID                 uint          `gorm:"not null;index:idx_sent_messages_event_id" json:"event_id"`
	RecipientID             uint          `gorm:"not null;index:idx_sent_messages_recipient_id" json:"recipient_id"`
	FromAccountID           uint          `gorm:"not null;index:idx_sent_messages_from_account_id" json:"from_account_id"`
	ToPhone                 string        `gorm:"size:20;not null;index:idx_sent_messages_to_phone_sent_at,priority:1" json:"to_phone"`
	MessageBody             string        `gorm:"type:text;not null" json:"message_body"`
	Channel                 Channel       `gorm:"size:16;not null" json:"channel"`
	ProviderMessageID       *string       `gorm:"size:64;index:idx_sent_messages_provider_message_id" json:"provider_message_id,omitempty"`
	Status                  MessageStatus `gorm:"size:32;not null;default:'sent';index:idx_sent_messages_status" json:"status"`
	ErrorCode               *string       `gorm:"size:32" json:"error_code,omitempty"`
	ErrorMessage            *string       `gorm:"type:text" json:"error_message,omitempty"`
	SentAt                  time.Time     `gorm:"not null;index:idx_sent_messages_to_phone_sent_at,priority:2" json:"sent_at"`
	DeliveryStatusUpdatedAt *time.Time    `json:"delivery_status_updated_at,omitempty"`
}

func (SentMessage) TableName() string { return "sent_messages" }

// SentMessageFilter provides filter fields for repository queries
type SentMessageFilter struct {
	ID                *uint
	EventID           *uint
	RecipientID       *uint
	FromAccountID     *uint
	ToPhone           *string
	ProviderMessageID *string
	Channel           *Channel
	Status            *MessageStatus
	SentAfter         *time.Time
	SentBefore        *time.Time
}

// DeliveryStatusUpdate carries the fields a provider status callback may change
type DeliveryStatusUpdate struct {
	Status       MessageStatus
	ErrorCode    *string
	ErrorMessage *string
	UpdatedAt    time.Time
}
