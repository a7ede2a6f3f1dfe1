package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/amirphl/partyline/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EventRepositoryImpl implements EventRepository
type EventRepositoryImpl struct {
	*BaseRepository[models.Event, models.EventFilter]
}

// NewEventRepository creates a new event repository
func NewEventRepository(db *gorm.DB) EventRepository {
	return &EventRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Event, models.EventFilter](db),
	}
}

func (r *EventRepositoryImpl) ByUUID(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	var event models.Event
	err := r.getDB(ctx).Where("uuid = ?", id).First(&event).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find event by uuid: %w", err)
	}
	return &event, nil
}

// Delete removes the event and its recipient links. Delivery log rows are kept.
func (r *EventRepositoryImpl) Delete(ctx context.Context, eventID uint) error {
	db := r.getDB(ctx)
	if err := db.Where("event_id = ?", eventID).Delete(&models.EventRecipient{}).Error; err != nil {
		return fmt.Errorf("failed to delete event recipients: %w", err)
	}
	if err := db.Where("id = ?", eventID).Delete(&models.Event{}).Error; err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	return nil
}

// RecipientIDs returns the event's recipient ids in insertion order
func (r *EventRepositoryImpl) RecipientIDs(ctx context.Context, eventID uint) ([]uint, error) {
	var ids []uint
	err := r.getDB(ctx).Model(&models.EventRecipient{}).
		Where("event_id = ?", eventID).
		Order("created_at ASC, recipient_id ASC").
		Pluck("recipient_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list event recipients: %w", err)
	}
	return ids, nil
}

// ReplaceRecipients swaps the event's recipient set for recipientIDs
func (r *EventRepositoryImpl) ReplaceRecipients(ctx context.Context, eventID uint, recipientIDs []uint) error {
	db := r.getDB(ctx)
	if err := db.Where("event_id = ?", eventID).Delete(&models.EventRecipient{}).Error; err != nil {
		return fmt.Errorf("failed to clear event recipients: %w", err)
	}
	if len(recipientIDs) == 0 {
		return nil
	}

	seen := make(map[uint]struct{}, len(recipientIDs))
	rows := make([]*models.EventRecipient, 0, len(recipientIDs))
	for _, id := range recipientIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		rows = append(rows, &models.EventRecipient{EventID: eventID, RecipientID: id})
	}
	if err := db.CreateInBatches(rows, 100).Error; err != nil {
		return fmt.Errorf("failed to link event recipients: %w", err)
	}
	return nil
}

func (r *EventRepositoryImpl) applyFilter(db *gorm.DB, f models.EventFilter) *gorm.DB {
	if f.ID != nil {
		db = db.Where("id = ?", *f.ID)
	}
	if f.UUID != nil {
		db = db.Where("uuid = ?", *f.UUID)
	}
	if f.CreatedBy != nil {
		db = db.Where("created_by = ?", *f.CreatedBy)
	}
	if f.CreatedAfter != nil {
		db = db.Where("created_at >= ?", *f.CreatedAfter)
	}
	if f.CreatedBefore != nil {
		db = db.Where("created_at < ?", *f.CreatedBefore)
	}
	return db
}

func (r *EventRepositoryImpl) ByFilter(ctx context.Context, filter models.EventFilter, orderBy string, limit, offset int) ([]*models.Event, error) {
	query := paginate(r.applyFilter(r.getDB(ctx).Model(&models.Event{}), filter), orderBy, limit, offset)
	var rows []*models.Event
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *EventRepositoryImpl) Count(ctx context.Context, filter models.EventFilter) (int64, error) {
	var count int64
	if err := r.applyFilter(r.getDB(ctx).Model(&models.Event{}), filter).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *EventRepositoryImpl) Exists(ctx context.Context, filter models.EventFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}
