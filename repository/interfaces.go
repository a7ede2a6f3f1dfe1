// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"

	"github.com/amirphl/partyline/models"
	"github.com/google/uuid"
)

// RepositoryContext key for transaction in context
type contextKey string

const TxContextKey contextKey = "tx"

type Repository[T any, F any] interface {
	ByID(ctx context.Context, id uint) (*T, error)
	ByFilter(ctx context.Context, filter F, orderBy string, limit, offset int) ([]*T, error)
	Save(ctx context.Context, entity *T) error
	SaveBatch(ctx context.Context, entities []*T) error
	Count(ctx context.Context, filter F) (int64, error)
	Exists(ctx context.Context, filter F) (bool, error)
}

// AccountRepository defines operations for accounts
type AccountRepository interface {
	Repository[models.Account, models.AccountFilter]
	ByEmail(ctx context.Context, email string) (*models.Account, error)
	ByUUID(ctx context.Context, id uuid.UUID) (*models.Account, error)
	Update(ctx context.Context, account *models.Account) error
}

// RecipientRepository defines operations for recipients
type RecipientRepository interface {
	Repository[models.Recipient, models.RecipientFilter]
	ByOwnerAndID(ctx context.Context, ownerID, id uint) (*models.Recipient, error)
	ByOwnerAndPhones(ctx context.Context, ownerID uint, phones []string) ([]*models.Recipient, error)
	ByPhone(ctx context.Context, phone string) ([]*models.Recipient, error)
	ByIDs(ctx context.Context, ids []uint) ([]*models.Recipient, error)
	Update(ctx context.Context, recipient *models.Recipient) error
	SetOptedOutByPhone(ctx context.Context, phone string, optedOut bool) (int64, error)
	Delete(ctx context.Context, ownerID, id uint) (bool, error)
}

// EventRepository defines operations for events and their recipient sets
type EventRepository interface {
	Repository[models.Event, models.EventFilter]
	ByUUID(ctx context.Context, id uuid.UUID) (*models.Event, error)
	Update(ctx context.Context, event *models.Event) error
	Delete(ctx context.Context, eventID uint) error
	RecipientIDs(ctx context.Context, eventID uint) ([]uint, error)
	ReplaceRecipients(ctx context.Context, eventID uint, recipientIDs []uint) error
}

// SentMessageRepository defines operations for the delivery log
type SentMessageRepository interface {
	Repository[models.SentMessage, models.SentMessageFilter]
	ByProviderMessageID(ctx context.Context, providerMessageID string) (*models.SentMessage, error)
	LatestByToPhone(ctx context.Context, toPhone string) (*models.SentMessage, error)
	UpdateDeliveryStatus(ctx context.Context, providerMessageID string, update models.DeliveryStatusUpdate) (int64, error)
}

// OptEventRepository defines operations for the append-only opt event log
type OptEventRepository interface {
	Save(ctx context.Context, entity *models.OptEvent) error
	SaveBatch(ctx context.Context, entities []*models.OptEvent) error
	ByFilter(ctx context.Context, filter models.OptEventFilter, orderBy string, limit, offset int) ([]*models.OptEvent, error)
	Count(ctx context.Context, filter models.OptEventFilter) (int64, error)
}

// AuditLogRepository defines operations for audit logs
type AuditLogRepository interface {
	Repository[models.AuditLog, models.AuditLogFilter]
	ListByAccount(ctx context.Context, accountID uint, limit, offset int) ([]*models.AuditLog, error)
	ListFailedActions(ctx context.Context, limit, offset int) ([]*models.AuditLog, error)
}
