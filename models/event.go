package models

import (
	"time"

	"github.com/google/uuid"
)

// Event is a plan with a message template that gets sent to its recipients
type Event struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UUID        uuid.UUID `gorm:"type:uuid;uniqueIndex:uk_events_uuid;not null" json:"uuid"`
	CreatedBy   uint      `gorm:"not null;index:idx_events_created_by" json:"created_by"`
	Creator     *Account  `gorm:"foreignKey:CreatedBy;references:ID;constraint:OnDelete:CASCADE" json:"-"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Date        string    `gorm:"size:10;not null" json:"date"`
	StartTime   string    `gorm:"size:8;not null" json:"start_time"`
	EndTime     *string   `gorm:"size:8" json:"end_time,omitempty"`
	Location    *string   `gorm:"type:text" json:"location,omitempty"`
	LocationLat *float64  `json:"location_lat,omitempty"`
	LocationLng *float64  `json:"location_lng,omitempty"`
	Input       string    `gorm:"type:text" json:"input"`
	Message     string    `gorm:"type:text;not null" json:"message"`
	Tone        string    `gorm:"size:64;not null" json:"tone"`
	CreatedAt   time.Time `gorm:"autoCreateTime;index:idx_events_created_at" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Recipients []*Recipient `gorm:"-" json:"recipients,omitempty"`
}

func (Event) TableName() string { return "events" }

// EventRecipient joins an event to one of its recipients
type EventRecipient struct {
	EventID     uint      `gorm:"primaryKey;autoIncrement:false" json:"event_id"`
	RecipientID uint      `gorm:"primaryKey;autoIncrement:false;index:idx_event_recipients_recipient_id" json:"recipient_id"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (EventRecipient) TableName() string { return "event_recipients" }

// EventFilter represents filter criteria for event queries
type EventFilter struct {
	ID            *uint
	UUID          *uuid.UUID
	CreatedBy     *uint
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}
