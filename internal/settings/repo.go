package settings

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/shopfronthq/shopfront-backend/pkg/db/models"
)

// Repository reads and writes store_settings rows.
type Repository interface {
	Find(ctx context.Context, key string) (*models.StoreSetting, error)
	Upsert(ctx context.Context, key, value string) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Find(ctx context.Context, key string) (*models.StoreSetting, error) {
	var setting models.StoreSetting
	if err := r.db.WithContext(ctx).First(&setting, "key = ?", key).Error; err != nil {
		return nil, err
	}
	return &setting, nil
}

func (r *repository) Upsert(ctx context.Context, key, value string) error {
	setting := models.StoreSetting{Key: key, Value: value}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&setting).Error
}
