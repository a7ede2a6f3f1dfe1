package repository

import (
	"context"

	"github.com/amirphl/partyline/models"
	"gorm.io/gorm"
)

// OptEventRepositoryImpl implements OptEventRepository. The log is append-only.
type OptEventRepositoryImpl struct {
	base *BaseRepository[models.OptEvent, models.OptEventFilter]
}

// NewOptEventRepository creates a new opt event repository
func NewOptEventRepository(db *gorm.DB) OptEventRepository {
	return &OptEventRepositoryImpl{
		base: NewBaseRepository[models.OptEvent, models.OptEventFilter](db),
	}
}

func (r *OptEventRepositoryImpl) Save(ctx context.Context, entity *models.OptEvent) error {
	return r.base.Save(ctx, entity)
}

func (r *OptEventRepositoryImpl) SaveBatch(ctx context.Context, entities []*models.OptEvent) error {
	return r.base.SaveBatch(ctx, entities)
}

func (r *OptEventRepositoryImpl) applyFilter(db *gorm.DB, f models.OptEventFilter) *gorm.DB {
	if f.RecipientID != nil {
		db = db.Where("recipient_id = ?", *f.RecipientID)
	}
	if f.Phone != nil {
		db = db.Where("phone = ?", *f.Phone)
	}
	if f.Kind != nil {
		db = db.Where("event = ?", *f.Kind)
	}
	return db
}

func (r *OptEventRepositoryImpl) ByFilter(ctx context.Context, filter models.OptEventFilter, orderBy string, limit, offset int) ([]*models.OptEvent, error) {
	query := paginate(r.applyFilter(r.base.getDB(ctx).Model(&models.OptEvent{}), filter), orderBy, limit, offset)
	var rows []*models.OptEvent
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *OptEventRepositoryImpl) Count(ctx context.Context, filter models.OptEventFilter) (int64, error) {
	var count int64
	if err := r.applyFilter(r.base.getDB(ctx).Model(&models.OptEvent{}), filter).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
