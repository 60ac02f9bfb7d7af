package service

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"routine-planner/internal/testutil"
)

func TestSettingsService(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.Ctx()
	settings := NewSettingsService(f.store)

	got, err := settings.Get(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, "EUR", got.Currency)

	updated, err := settings.Update(ctx, f.user.ID, SettingsInput{
		Currency:             "usd",
		PenaltyDailyDefault:  decimal.RequireFromString("2.5"),
		PenaltyWeeklyDefault: decimal.NewFromInt(0),
	})
	require.NoError(t, err)
	assert.Equal(t, "USD", updated.Currency)

	got, err = settings.Get(ctx, f.user.ID)
	require.NoError(t, err)
	assert.True(t, got.PenaltyDailyDefault.Equal(decimal.RequireFromString("2.5")))
	assert.True(t, got.PenaltyWeeklyDefault.IsZero())

	_, err = settings.Update(ctx, f.user.ID, SettingsInput{Currency: ""})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = settings.Update(ctx, f.user.ID, SettingsInput{Currency: "EUR", PenaltyDailyDefault: decimal.NewFromInt(-1)})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = settings.Get(ctx, 424242)
	assert.ErrorIs(t, err, ErrNotFound)
}
