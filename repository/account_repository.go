package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/amirphl/partyline/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AccountRepositoryImpl implements AccountRepository
type AccountRepositoryImpl struct {
	*BaseRepository[models.Account, models.AccountFilter]
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &AccountRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Account, models.AccountFilter](db),
	}
}

// ByEmail looks up an account by case-insensitive email
func (r *AccountRepositoryImpl) ByEmail(ctx context.Context, email string) (*models.Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return r.first(ctx, models.AccountFilter{Email: &email})
}

func (r *AccountRepositoryImpl) ByUUID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	return r.first(ctx, models.AccountFilter{UUID: &id})
}

func (r *AccountRepositoryImpl) first(ctx context.Context, filter models.AccountFilter) (*models.Account, error) {
	var account models.Account
	err := r.applyFilter(r.getDB(ctx), filter).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find account: %w", err)
	}
	return &account, nil
}

func (r *AccountRepositoryImpl) applyFilter(db *gorm.DB, f models.AccountFilter) *gorm.DB {
	if f.ID != nil {
		db = db.Where("id = ?", *f.ID)
	}
	if f.UUID != nil {
		db = db.Where("uuid = ?", *f.UUID)
	}
	if f.Email != nil {
		db = db.Where("email = ?", *f.Email)
	}
	if f.Phone != nil {
		db = db.Where("phone = ?", *f.Phone)
	}
	if f.IsActive != nil {
		db = db.Where("is_active = ?", *f.IsActive)
	}
	return db
}

func (r *AccountRepositoryImpl) ByFilter(ctx context.Context, filter models.AccountFilter, orderBy string, limit, offset int) ([]*models.Account, error) {
	query := paginate(r.applyFilter(r.getDB(ctx).Model(&models.Account{}), filter), orderBy, limit, offset)
	var rows []*models.Account
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *AccountRepositoryImpl) Count(ctx context.Context, filter models.AccountFilter) (int64, error) {
	var count int64
	if err := r.applyFilter(r.getDB(ctx).Model(&models.Account{}), filter).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *AccountRepositoryImpl) Exists(ctx context.Context, filter models.AccountFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}
