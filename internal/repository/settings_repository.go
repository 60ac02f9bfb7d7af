package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"routine-planner/internal/model"
)

// SettingsRepository stores the one-per-user penalty defaults.
type SettingsRepository struct {
	db *gorm.DB
}

func NewSettingsRepository(db *gorm.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

func (r *SettingsRepository) Create(ctx context.Context, settings *model.UserSettings) error {
	if err := r.db.WithContext(ctx).Create(settings).Error; err != nil {
		return fmt.Errorf("create settings: %w", translate(err))
	}
	return nil
}

func (r *SettingsRepository) GetByUser(ctx context.Context, userID uint) (*model.UserSettings, error) {
	var settings model.UserSettings
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&settings).Error; err != nil {
		return nil, translate(err)
	}
	return &settings, nil
}

func (r *SettingsRepository) Update(ctx context.Context, settings *model.UserSettings) error {
	if err := r.db.WithContext(ctx).Save(settings).Error; err != nil {
		return fmt.Errorf("update settings: %w", err)
	}
	return nil
}

func (r *SettingsRepository) DeleteByUser(ctx context.Context, userID uint) error {
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&model.UserSettings{}).Error; err != nil {
		return fmt.Errorf("delete settings: %w", err)
	}
	return nil
}
