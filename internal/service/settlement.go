package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"routine-planner/internal/model"
	"routine-planner/internal/repository"
)

// Summary counts the outcomes of one period. TotalPenalty sums the applied
// penalties of failed instances only.
type Summary struct {
	Done         int64
	Canceled     int64
	Failed       int64
	TotalPenalty decimal.Decimal
}

// settle fails every planned instance in settleScope with its resolved
// penalty, then summarizes summaryScope. Week closes pass a weekly-only
// settleScope and the whole week as summaryScope.
func settle(ctx context.Context, tx *repository.Store, settings *model.UserSettings, settleScope, summaryScope repository.Scope) (Summary, error) {
	planned, err := tx.Instances.ListPlanned(ctx, settleScope)
	if err != nil {
		return Summary{}, err
	}
	for _, inst := range planned {
		if _, err := tx.Instances.MarkFailed(ctx, inst.ID, ResolvePenalty(inst.Task, settings)); err != nil {
			return Summary{}, fmt.Errorf("settle instance %d: %w", inst.ID, err)
		}
	}
	return summarize(ctx, tx, summaryScope)
}

func summarize(ctx context.Context, store *repository.Store, scope repository.Scope) (Summary, error) {
	counts, err := store.Instances.CountByStatus(ctx, scope)
	if err != nil {
		return Summary{}, err
	}
	penalties, err := store.Instances.FailedPenalties(ctx, scope)
	if err != nil {
		return Summary{}, err
	}
	return Summary{
		Done:         counts[model.StatusDone],
		Canceled:     counts[model.StatusCanceled],
		Failed:       counts[model.StatusFailed],
		TotalPenalty: sumDecimals(penalties),
	}, nil
}

func sumDecimals(vals []decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range vals {
		total = total.Add(v)
	}
	return total
}
