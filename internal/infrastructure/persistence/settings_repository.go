package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/storefront/backend/internal/domain/settings"
	"github.com/storefront/backend/internal/domain/shared"
)

// GormSettingsRepository implements settings.Repository using GORM
type GormSettingsRepository struct {
	db *gorm.DB
}

// NewGormSettingsRepository creates a new GormSettingsRepository
func NewGormSettingsRepository(db *gorm.DB) *GormSettingsRepository {
	return &GormSettingsRepository{db: db}
}

// Get returns the value for a store-scoped key
func (r *GormSettingsRepository) Get(ctx context.Context, storeID uuid.UUID, key string) (string, error) {
	var setting settings.Setting
	if err := r.db.WithContext(ctx).
		Where("store_id = ? AND key = ?", storeID, key).
		First(&setting).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", shared.ErrNotFound
		}
		return "", err
	}
	return setting.Value, nil
}

// Set upserts a store-scoped key
func (r *GormSettingsRepository) Set(ctx context.Context, storeID uuid.UUID, key, value string) error {
	setting := settings.NewSetting(storeID, key, value)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "store_id"}, {Name: "key"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"value": value, "updated_at": time.Now()}),
		}).
		Create(setting).Error
}

// GetAll returns every setting for a store as a key/value map
func (r *GormSettingsRepository) GetAll(ctx context.Context, storeID uuid.UUID) (map[string]string, error) {
	var rows []settings.Setting
	if err := r.db.WithContext(ctx).
		Where("store_id = ?", storeID).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	result := make(map[string]string, len(rows))
	for _, row := range rows {
		result[row.Key] = row.Value
	}
	return result, nil
}

// Ensure GormSettingsRepository implements settings.Repository
var _ settings.Repository = (*GormSettingsRepository)(nil)
