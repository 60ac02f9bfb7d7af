package service

import (
	"github.com/shopspring/decimal"

	"routine-planner/internal/model"
)

// ResolvePenalty returns the amount a failed instance of task costs. An
// override on the task wins as stored; otherwise weekly tasks use the weekly
// default and every other kind the daily one.
func ResolvePenalty(task *model.Task, settings *model.UserSettings) decimal.Decimal {
	if task != nil && task.PenaltyAmount.Valid {
		return task.PenaltyAmount.Decimal
	}
	if task != nil && task.Kind == model.KindWeekly {
		return settings.PenaltyWeeklyDefault
	}
	return settings.PenaltyDailyDefault
}
