package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/amirphl/partyline/models"
	"github.com/amirphl/partyline/utils"
	"gorm.io/gorm"
)

// RecipientRepositoryImpl implements RecipientRepository
type RecipientRepositoryImpl struct {
	*BaseRepository[models.Recipient, models.RecipientFilter]
}

// NewRecipientRepository creates a new recipient repository
func NewRecipientRepository(db *gorm.DB) RecipientRepository {
	return &RecipientRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Recipient, models.RecipientFilter](db),
	}
}

// ByOwnerAndID returns the recipient only when it belongs to ownerID
func (r *RecipientRepositoryImpl) ByOwnerAndID(ctx context.Context, ownerID, id uint) (*models.Recipient, error) {
	var row models.Recipient
	err := r.getDB(ctx).Where("id = ? AND created_by = ?", id, ownerID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find recipient %d: %w", id, err)
	}
	return &row, nil
}

// ByOwnerAndPhones returns the owner's recipients whose phone is in phones
func (r *RecipientRepositoryImpl) ByOwnerAndPhones(ctx context.Context, ownerID uint, phones []string) ([]*models.Recipient, error) {
	if len(phones) == 0 {
		return []*models.Recipient{}, nil
	}
	return r.ByFilter(ctx, models.RecipientFilter{CreatedBy: &ownerID, Phones: phones}, "id ASC", 0, 0)
}

// ByPhone returns every recipient with the given phone regardless of owner
func (r *RecipientRepositoryImpl) ByPhone(ctx context.Context, phone string) ([]*models.Recipient, error) {
	return r.ByFilter(ctx, models.RecipientFilter{Phone: &phone}, "id ASC", 0, 0)
}

func (r *RecipientRepositoryImpl) ByIDs(ctx context.Context, ids []uint) ([]*models.Recipient, error) {
	if len(ids) == 0 {
		return []*models.Recipient{}, nil
	}
	var rows []*models.Recipient
	if err := r.getDB(ctx).Where("id IN ?", ids).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list recipients by ids: %w", err)
	}
	return rows, nil
}

// SetOptedOutByPhone flips the opt-out flag on every recipient with the phone
func (r *RecipientRepositoryImpl) SetOptedOutByPhone(ctx context.Context, phone string, optedOut bool) (int64, error) {
	res := r.getDB(ctx).Model(&models.Recipient{}).
		Where("phone = ?", phone).
		Updates(map[string]any{
			"opted_out":  optedOut,
			"updated_at": utils.UTCNow(),
		})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to update opt-out flag: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// Delete removes an owned recipient and its event memberships
func (r *RecipientRepositoryImpl) Delete(ctx context.Context, ownerID, id uint) (bool, error) {
	db := r.getDB(ctx)
	res := db.Where("id = ? AND created_by = ?", id, ownerID).Delete(&models.Recipient{})
	if res.Error != nil {
		return false, fmt.Errorf("failed to delete recipient: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	if err := db.Where("recipient_id = ?", id).Delete(&models.EventRecipient{}).Error; err != nil {
		return false, fmt.Errorf("failed to delete recipient memberships: %w", err)
	}
	return true, nil
}

func (r *RecipientRepositoryImpl) applyFilter(db *gorm.DB, f models.RecipientFilter) *gorm.DB {
	if f.ID != nil {
		db = db.Where("id = ?", *f.ID)
	}
	if f.CreatedBy != nil {
		db = db.Where("created_by = ?", *f.CreatedBy)
	}
	if f.Phone != nil {
		db = db.Where("phone = ?", *f.Phone)
	}
	if len(f.Phones) > 0 {
		db = db.Where("phone IN ?", f.Phones)
	}
	if f.OptedOut != nil {
		db = db.Where("opted_out = ?", *f.OptedOut)
	}
	if f.Search != nil && strings.TrimSpace(*f.Search) != "" {
		pattern := "%" + strings.ToLower(strings.TrimSpace(*f.Search)) + "%"
		db = db.Where(
			"LOWER(first_name) LIKE ? OR LOWER(COALESCE(last_name, '')) LIKE ? OR LOWER(first_name || ' ' || COALESCE(last_name, '')) LIKE ?",
			pattern, pattern, pattern,
		)
	}
	return db
}

func (r *RecipientRepositoryImpl) ByFilter(ctx context.Context, filter models.RecipientFilter, orderBy string, limit, offset int) ([]*models.Recipient, error) {
	query := paginate(r.applyFilter(r.getDB(ctx).Model(&models.Recipient{}), filter), orderBy, limit, offset)
	var rows []*models.Recipient
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *RecipientRepositoryImpl) Count(ctx context.Context, filter models.RecipientFilter) (int64, error) {
	var count int64
	if err := r.applyFilter(r.getDB(ctx).Model(&models.Recipient{}), filter).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *RecipientRepositoryImpl) Exists(ctx context.Context, filter models.RecipientFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}
