package service

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"routine-planner/internal/model"
	"routine-planner/internal/repository"
)

// HistoryLimit caps the history listing.
const HistoryLimit = 200

// Scope names for listing and backlog enrollment.
const (
	ScopeToday   = "today"
	ScopeWeek    = "week"
	ScopeHistory = "history"
)

// InstanceService changes instance outcomes and enrolls backlog tasks into
// open periods.
type InstanceService struct {
	store *repository.Store
}

func NewInstanceService(store *repository.Store) *InstanceService {
	return &InstanceService{store: store}
}

// SetStatus moves an instance to status. Failing it applies the resolved
// penalty; any other status clears the penalty. Resubmitting the current
// status changes nothing.
func (s *InstanceService) SetStatus(ctx context.Context, userID, instanceID uint, status model.InstanceStatus) (*model.Instance, error) {
	if !status.Valid() {
		return nil, invalidf("unknown status %q", status)
	}

	var inst *model.Instance
	err := s.store.WithinTx(ctx, func(tx *repository.Store) error {
		var err error
		inst, err = tx.Instances.GetByID(ctx, userID, instanceID)
		if err != nil {
			return fromRepo(err, "instance")
		}
		if inst.Status == status {
			return nil
		}

		if status == model.StatusFailed {
			settings, err := tx.Settings.GetByUser(ctx, userID)
			if err != nil {
				return err
			}
			inst.Fail(ResolvePenalty(inst.Task, settings))
		} else {
			inst.Status = status
			inst.PenaltyApplied = decimal.NullDecimal{}
		}
		return fromRepo(tx.Instances.UpdateStatus(ctx, inst), "instance")
	})
	if err != nil {
		return nil, err
	}
	return inst, nil
}

// EnrollBacklog plans a backlog task in the open day (scope "today") or
// week (scope "week"). Enrolling a task that is already in the period
// returns the existing instance.
func (s *InstanceService) EnrollBacklog(ctx context.Context, userID, taskID uint, scope string) (*model.Instance, error) {
	if scope != ScopeToday && scope != ScopeWeek {
		return nil, invalidf("scope must be today or week")
	}

	var inst *model.Instance
	err := s.store.WithinTx(ctx, func(tx *repository.Store) error {
		task, err := tx.Tasks.FindByID(ctx, userID, taskID)
		if errors.Is(err, repository.ErrNotFound) || (err == nil && task.Kind != model.KindBacklog) {
			return notFoundf("backlog task")
		}
		if err != nil {
			return err
		}

		candidate := &model.Instance{UserID: userID, TaskID: task.ID, Status: model.StatusPlanned}
		if scope == ScopeToday {
			day, err := tx.Sessions.OpenDay(ctx, userID)
			if errors.Is(err, repository.ErrNotFound) {
				return conflictf("no open day session, start day first")
			}
			if err != nil {
				return err
			}
			inst, err = tx.Instances.FindInDay(ctx, task.ID, day.ID)
			if err == nil || !errors.Is(err, repository.ErrNotFound) {
				return err
			}
			candidate.DaySessionID = uintPtr(day.ID)
		} else {
			week, err := tx.Sessions.OpenWeek(ctx, userID)
			if errors.Is(err, repository.ErrNotFound) {
				return conflictf("no open week session, start week first")
			}
			if err != nil {
				return err
			}
			inst, err = tx.Instances.FindInWeek(ctx, task.ID, week.ID)
			if err == nil || !errors.Is(err, repository.ErrNotFound) {
				return err
			}
			candidate.WeekSessionID = uintPtr(week.ID)
		}

		if err := tx.Instances.Create(ctx, candidate); err != nil {
			return fromRepo(err, "instance")
		}
		candidate.Task = task
		inst = candidate
		return nil
	})
	if err != nil {
		return nil, err
	}
	return inst, nil
}

// List returns the open day's or week's instances newest first, or the
// latest HistoryLimit instances for scope "history". With no open period the
// list is empty.
func (s *InstanceService) List(ctx context.Context, userID uint, scope string) ([]model.Instance, error) {
	switch scope {
	case ScopeToday:
		day, err := s.store.Sessions.OpenDay(ctx, userID)
		if errors.Is(err, repository.ErrNotFound) {
			return []model.Instance{}, nil
		}
		if err != nil {
			return nil, err
		}
		return s.store.Instances.List(ctx, repository.DayScope(userID, day.ID))
	case ScopeWeek:
		week, err := s.store.Sessions.OpenWeek(ctx, userID)
		if errors.Is(err, repository.ErrNotFound) {
			return []model.Instance{}, nil
		}
		if err != nil {
			return nil, err
		}
		return s.store.Instances.List(ctx, repository.WeekScope(userID, week.ID))
	case ScopeHistory:
		return s.store.Instances.ListHistory(ctx, userID, HistoryLimit)
	default:
		return nil, invalidf("unsupported scope %q", scope)
	}
}
