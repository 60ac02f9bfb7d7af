package service

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"routine-planner/internal/model"
)

func TestResolvePenalty(t *testing.T) {
	settings := &model.UserSettings{
		Currency:             "EUR",
		PenaltyDailyDefault:  decimal.NewFromInt(10),
		PenaltyWeeklyDefault: decimal.NewFromInt(20),
	}
	override := decimal.NewNullDecimal(decimal.RequireFromString("7.35"))

	tests := []struct {
		name string
		task *model.Task
		want string
	}{
		{"daily uses daily default", &model.Task{Kind: model.KindDaily}, "10"},
		{"weekly uses weekly default", &model.Task{Kind: model.KindWeekly}, "20"},
		{"backlog uses daily default", &model.Task{Kind: model.KindBacklog}, "10"},
		{"override wins for daily", &model.Task{Kind: model.KindDaily, PenaltyAmount: override}, "7.35"},
		{"override wins for weekly", &model.Task{Kind: model.KindWeekly, PenaltyAmount: override}, "7.35"},
		{"zero override is kept", &model.Task{Kind: model.KindWeekly, PenaltyAmount: decimal.NewNullDecimal(decimal.Zero)}, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolvePenalty(tt.task, settings)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "got %s", got)
		})
	}
}

func TestResolvePenalty_KeepsOverridePrecision(t *testing.T) {
	settings := &model.UserSettings{PenaltyDailyDefault: decimal.NewFromInt(10)}
	task := &model.Task{Kind: model.KindDaily, PenaltyAmount: decimal.NewNullDecimal(decimal.RequireFromString("0.10"))}

	assert.Equal(t, "0.1", ResolvePenalty(task, settings).String())
	assert.Equal(t, int32(-2), ResolvePenalty(task, settings).Exponent())
}
