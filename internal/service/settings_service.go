package service

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"routine-planner/internal/model"
	"routine-planner/internal/repository"
)

type SettingsInput struct {
	Currency             string
	PenaltyDailyDefault  decimal.Decimal
	PenaltyWeeklyDefault decimal.Decimal
}

// SettingsService reads and edits the per-user penalty defaults.
type SettingsService struct {
	store *repository.Store
}

func NewSettingsService(store *repository.Store) *SettingsService {
	return &SettingsService{store: store}
}

func (s *SettingsService) Get(ctx context.Context, userID uint) (*model.UserSettings, error) {
	settings, err := s.store.Settings.GetByUser(ctx, userID)
	if err != nil {
		return nil, fromRepo(err, "settings")
	}
	return settings, nil
}

func (s *SettingsService) Update(ctx context.Context, userID uint, input SettingsInput) (*model.UserSettings, error) {
	currency := strings.ToUpper(strings.TrimSpace(input.Currency))
	if currency == "" || len(currency) > 8 {
		return nil, invalidf("currency must be 1 to 8 characters")
	}
	if input.PenaltyDailyDefault.IsNegative() || input.PenaltyWeeklyDefault.IsNegative() {
		return nil, invalidf("penalties must not be negative")
	}

	settings, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	settings.Currency = currency
	settings.PenaltyDailyDefault = input.PenaltyDailyDefault
	settings.PenaltyWeeklyDefault = input.PenaltyWeeklyDefault
	if err := s.store.Settings.Update(ctx, settings); err != nil {
		return nil, err
	}
	return settings, nil
}
