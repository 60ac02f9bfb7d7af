package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"routine-planner/internal/model"
	"routine-planner/internal/repository"
)

// StatsPeriod selects which instances a rollup covers. "months" is all time.
type StatsPeriod string

const (
	StatsDays   StatsPeriod = "days"
	StatsWeeks  StatsPeriod = "weeks"
	StatsMonths StatsPeriod = "months"
)

// DetailsLimit caps the rows returned by Details.
const DetailsLimit = 500

func (p StatsPeriod) filter() (repository.PeriodFilter, error) {
	switch p {
	case StatsDays:
		return repository.FilterDays, nil
	case StatsWeeks:
		return repository.FilterWeeks, nil
	case StatsMonths:
		return repository.FilterAll, nil
	}
	return "", invalidf("period must be days, weeks, or months")
}

// PenaltyStats is the failed-instance rollup for one period filter.
type PenaltyStats struct {
	Period       StatsPeriod
	FailedCount  int64
	TotalPenalty decimal.Decimal
}

type DetailRow struct {
	TaskTitle string
	Status    model.InstanceStatus
	StartedAt time.Time
	Penalty   decimal.Decimal
}

type StatsDetails struct {
	Period       StatsPeriod
	TotalPenalty decimal.Decimal
	StatusCounts map[model.InstanceStatus]int64
	Rows         []DetailRow
}

// StatsService reads penalty history.
type StatsService struct {
	store *repository.Store
}

func NewStatsService(store *repository.Store) *StatsService {
	return &StatsService{store: store}
}

func (s *StatsService) PenaltySummary(ctx context.Context, userID uint, period StatsPeriod) (PenaltyStats, error) {
	filter, err := period.filter()
	if err != nil {
		return PenaltyStats{}, err
	}
	penalties, err := s.store.Instances.FailedByPeriod(ctx, userID, filter)
	if err != nil {
		return PenaltyStats{}, err
	}
	counts, err := s.store.Instances.CountByStatusForPeriod(ctx, userID, filter)
	if err != nil {
		return PenaltyStats{}, err
	}
	return PenaltyStats{
		Period:       period,
		FailedCount:  counts[model.StatusFailed],
		TotalPenalty: sumDecimals(penalties),
	}, nil
}

// Details adds per-status counts and one row per instance, newest first.
func (s *StatsService) Details(ctx context.Context, userID uint, period StatsPeriod) (StatsDetails, error) {
	filter, err := period.filter()
	if err != nil {
		return StatsDetails{}, err
	}
	counts, err := s.store.Instances.CountByStatusForPeriod(ctx, userID, filter)
	if err != nil {
		return StatsDetails{}, err
	}
	penalties, err := s.store.Instances.FailedByPeriod(ctx, userID, filter)
	if err != nil {
		return StatsDetails{}, err
	}
	history, err := s.store.Instances.HistoryRows(ctx, userID, filter, DetailsLimit)
	if err != nil {
		return StatsDetails{}, err
	}

	rows := make([]DetailRow, 0, len(history))
	for _, h := range history {
		penalty := decimal.Zero
		if h.Status == model.StatusFailed && h.PenaltyApplied.Valid {
			penalty = h.PenaltyApplied.Decimal
		}
		rows = append(rows, DetailRow{
			TaskTitle: h.TaskTitle,
			Status:    h.Status,
			StartedAt: h.StartedAt(),
			Penalty:   penalty,
		})
	}
	return StatsDetails{
		Period:       period,
		TotalPenalty: sumDecimals(penalties),
		StatusCounts: counts,
		Rows:         rows,
	}, nil
}

// Clear deletes all of the user's instances and periods. Tasks and settings
// are kept. This cannot be undone.
func (s *StatsService) Clear(ctx context.Context, userID uint) error {
	return s.store.WithinTx(ctx, func(tx *repository.Store) error {
		return tx.Instances.ClearHistory(ctx, userID)
	})
}
