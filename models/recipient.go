package models

import "time"

// Recipient is a phone-addressable contact owned by exactly one account
type Recipient struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedBy uint      `gorm:"not null;uniqueIndex:uk_recipients_owner_phone,priority:1;index:idx_recipients_created_by" json:"created_by"`
	Owner     *Account  `gorm:"foreignKey:CreatedBy;references:ID;constraint:OnDelete:CASCADE" json:"-"`
	FirstName string    `gorm:"size:255;not null" json:"first_name"`
	LastName  *string   `gorm:"size:255" json:"last_name,omitempty"`
	Phone     string    `gorm:"size:20;not null;uniqueIndex:uk_recipients_owner_phone,priority:2;index:idx_recipients_phone" json:"phone"`
	OptedOut  bool      `gorm:"not null;default:false" json:"opted_out"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Recipient) TableName() string { return "recipients" }

// FullName joins first and last name
func (r *Recipient) FullName() string {
	if r.LastName != nil && *r.LastName != "" {
		return r.FirstName + " " + *r.LastName
	}
	return r.FirstName
}

// RecipientFilter represents filter criteria for recipient queries
type RecipientFilter struct {
	ID        *uint
	CreatedBy *uint
	Phone     *string
	Phones    []string
	OptedOut  *bool
	Search    *string
}
