package models

import (
	"time"

	"gorm.io/datatypes"
)

type AuditLog struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	AccountID    *uint          `gorm:"index:idx_audit_account_id" json:"account_id,omitempty"`
	Action       string         `gorm:"size:64;not null;index:idx_audit_action" json:"action"`
	Description  *string        `gorm:"type:text" json:"description,omitempty"`
	IPAddress    *string        `gorm:"size:64" json:"ip_address,omitempty"`
	UserAgent    *string        `gorm:"type:text" json:"user_agent,omitempty"`
	RequestID    *string        `gorm:"size:255;index:idx_audit_request_id" json:"request_id,omitempty"`
	Metadata     datatypes.JSON `json:"metadata,omitempty"`
	Success      *bool          `gorm:"default:true;index:idx_audit_success" json:"success"`
	ErrorMessage *string        `gorm:"type:text" json:"error_message,omitempty"`
	CreatedAt    time.Time      `gorm:"autoCreateTime;index:idx_audit_created_at" json:"created_at"`
}

func (AuditLog) TableName() string {
	return "audit_log"
}

// Audit action constants
const (
	AuditActionSignupCompleted  = "signup_completed"
	AuditActionLoginSuccess     = "login_success"
	AuditActionLoginFailed      = "login_failed"
	AuditActionLogout           = "logout"
	AuditActionProfileUpdated   = "profile_updated"
	AuditActionRecipientCreated = "recipient_created"
	AuditActionRecipientUpdated = "recipient_updated"
	AuditActionRecipientDeleted = "recipient_deleted"
	AuditActionEventCreated     = "event_created"
	AuditActionEventUpdated     = "event_updated"
	AuditActionEventDeleted     = "event_deleted"
	AuditActionDispatchExecuted = "dispatch_executed"
	AuditActionExportGenerated  = "export_generated"
)

// AuditLogFilter represents filter criteria for audit log queries
type AuditLogFilter struct {
	ID            *uint
	AccountID     *uint
	Action        *string
	Success       *bool
	RequestID     *string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}

func (a *AuditLog) IsFailed() bool {
	return a.Success != nil && !*a.Success
}

// AllModels lists every persisted model in dependency order for schema migration
func AllModels() []any {
	return []any{
		&Account{},
		&Recipient{},
		&Event{},
		&EventRecipient{},
		&SentMessage{},
		&OptEvent{},
		&AuditLog{},
	}
}
