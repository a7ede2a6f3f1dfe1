// Package models contains domain entities persisted by the repository layer
package models

import (
	"time"

	"github.com/google/uuid"
)

// Account is a user who owns recipients and events and sends messages.
// Phone is where replies to the account's messages are forwarded.
type Account struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UUID         uuid.UUID `gorm:"type:uuid;uniqueIndex:uk_accounts_uuid;not null" json:"uuid"`
	Email        string    `gorm:"size:255;uniqueIndex:uk_accounts_email;not null" json:"email"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	FirstName    string    `gorm:"size:255;not null" json:"first_name"`
	LastName     *string   `gorm:"size:255" json:"last_name,omitempty"`
	Phone        *string   `gorm:"size:20;index:idx_accounts_phone" json:"phone,omitempty"`
	Birthday     *string   `gorm:"size:10" json:"birthday,omitempty"`
	IsActive     *bool     `gorm:"default:true" json:"is_active"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Account) TableName() string { return "accounts" }

// DisplayName joins first and last name
func (a *Account) DisplayName() string {
	if a.LastName != nil && *a.LastName != "" {
		return a.FirstName + " " + *a.LastName
	}
	return a.FirstName
}

// HasPhone reports whether replies can be forwarded to this account
func (a *Account) HasPhone() bool {
	return a.Phone != nil && *a.Phone != ""
}

// AccountFilter represents filter criteria for account queries
type AccountFilter struct {
	ID       *uint
	UUID     *uuid.UUID
	Email    *string
	Phone    *string
	IsActive *bool
}
