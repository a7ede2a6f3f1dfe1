package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/amirphl/partyline/models"
	"gorm.io/gorm"
)

// SentMessageRepositoryImpl implements SentMessageRepository
type SentMessageRepositoryImpl struct {
	*BaseRepository[models.SentMessage, models.SentMessageFilter]
}

// NewSentMessageRepository creates a new delivery log repository
func NewSentMessageRepository(db *gorm.DB) SentMessageRepository {
	return &SentMessageRepositoryImpl{
		BaseRepository: NewBaseRepository[models.SentMessage, models.SentMessageFilter](db),
	}
}

func (r *SentMessageRepositoryImpl) ByProviderMessageID(ctx context.Context, providerMessageID string) (*models.SentMessage, error) {
	var row models.SentMessage
	err := r.getDB(ctx).Where("provider_message_id = ?", providerMessageID).
		Order("id DESC").
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find sent message by provider id: %w", err)
	}
	return &row, nil
}

// LatestByToPhone returns the most recent message sent to toPhone; ties on sent_at go to the higher id
func (r *SentMessageRepositoryImpl) LatestByToPhone(ctx context.Context, toPhone string) (*models.SentMessage, error) {
	var row models.SentMessage
	err := r.getDB(ctx).Where("to_phone = ?", toPhone).
		Order("sent_at DESC, id DESC").
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find latest sent message: %w", err)
	}
	return &row, nil
}

// UpdateDeliveryStatus writes a provider status to every row sent with providerMessageID whose
// current status update.Status may replace. Error fields are only touched when set.
// It returns the number of rows changed; zero means no row exists or every row is further along.
func (r *SentMessageRepositoryImpl) UpdateDeliveryStatus(ctx context.Context, providerMessageID string, update models.DeliveryStatusUpdate) (int64, error) {
	fields := map[string]any{
		"status":                     update.Status,
		"delivery_status_updated_at": update.UpdatedAt,
	}
	if update.ErrorCode != nil {
		fields["error_code"] = *update.ErrorCode
	}
	if update.ErrorMessage != nil {
		fields["error_message"] = *update.ErrorMessage
	}

	query := r.getDB(ctx).Model(&models.SentMessage{}).Where("provider_message_id = ?", providerMessageID)
	if allowed := update.Status.ReplaceableBy(); allowed != nil {
		query = query.Where("status IN ?", allowed)
	}
	res := query.Updates(fields)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to update delivery status: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (r *SentMessageRepositoryImpl) applyFilter(db *gorm.DB, f models.SentMessageFilter) *gorm.DB {
	if f.ID != nil {
		db = db.Where("id = ?", *f.ID)
	}
	if f.EventID != nil {
		db = db.Where("event_id = ?", *f.EventID)
	}
	if f.RecipientID != nil {
		db = db.Where("recipient_id = ?", *f.RecipientID)
	}
	if f.FromAccountID != nil {
		db = db.Where("from_account_id = ?", *f.FromAccountID)
	}
	if f.ToPhone != nil {
		db = db.Where("to_phone = ?", *f.ToPhone)
	}
	if f.ProviderMessageID != nil {
		db = db.Where("provider_message_id = ?", *f.ProviderMessageID)
	}
	if f.Channel != nil {
		db = db.Where("channel = ?", *f.Channel)
	}
	if f.Status != nil {
		db = db.Where("status = ?", *f.Status)
	}
	if f.SentAfter != nil {
		db = db.Where("sent_at >= ?", *f.SentAfter)
	}
	if f.SentBefore != nil {
		db = db.Where("sent_at < ?", *f.SentBefore)
	}
	return db
}

func (r *SentMessageRepositoryImpl) ByFilter(ctx context.Context, filter models.SentMessageFilter, orderBy string, limit, offset int) ([]*models.SentMessage, error) {
	query := paginate(r.applyFilter(r.getDB(ctx).Model(&models.SentMessage{}), filter), orderBy, limit, offset)
	var rows []*models.SentMessage
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *SentMessageRepositoryImpl) Count(ctx context.Context, filter models.SentMessageFilter) (int64, error) {
	var count int64
	if err := r.applyFilter(r.getDB(ctx).Model(&models.SentMessage{}), filter).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *SentMessageRepositoryImpl) Exists(ctx context.Context, filter models.SentMessageFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}
