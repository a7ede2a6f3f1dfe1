package models

import "time"

// OptEventKind enumerates opt-out and opt-in actions
type OptEventKind string

const (
	OptEventOptOut OptEventKind = "opt_out"
	OptEventOptIn  OptEventKind = "opt_in"
)

// OptEvent is an append-only audit record of a recipient opting out or back in
type OptEvent struct {
	ID          uint         `gorm:"primaryKey" json:"id"`
	RecipientID *uint        `gorm:"index:idx_guest_opt_events_recipient_id" json:"recipient_id,omitempty"`
	Phone       string       `gorm:"size:20;not null;index:idx_guest_opt_events_phone" json:"phone"`
	Kind        OptEventKind `gorm:"column:event;size:16;not null" json:"event"`
	CreatedAt   time.Time    `gorm:"autoCreateTime;index:idx_guest_opt_events_created_at" json:"created_at"`
}

func (OptEvent) TableName() string { return "guest_opt_events" }

// OptEventFilter represents filter criteria for opt event queries
type OptEventFilter struct {
	RecipientID *uint
	Phone       *string
	Kind        *OptEventKind
}
