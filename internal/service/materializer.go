package service

import (
	"context"
	"fmt"

	"routine-planner/internal/model"
	"routine-planner/internal/repository"
)

// PeriodRef points at the freshly opened period instances are scoped to.
// Exactly one of the ids is set.
type PeriodRef struct {
	DayID  uint
	WeekID uint
}

// materialize creates one planned instance per active task of kind for a
// period that was just opened. Running it twice for the same period violates
// the (task, period) unique index and returns ErrConflict.
func materialize(ctx context.Context, tx *repository.Store, userID uint, kind model.TaskKind, ref PeriodRef) ([]model.Instance, error) {
	tasks, err := tx.Tasks.ListActiveByKind(ctx, userID, kind)
	if err != nil {
		return nil, fmt.Errorf("load %s tasks: %w", kind, err)
	}

	insts := make([]model.Instance, 0, len(tasks))
	for _, task := range tasks {
		inst := model.Instance{
			UserID: userID,
			TaskID: task.ID,
			Status: model.StatusPlanned,
		}
		if ref.DayID != 0 {
			inst.DaySessionID = uintPtr(ref.DayID)
		}
		if ref.WeekID != 0 {
			inst.WeekSessionID = uintPtr(ref.WeekID)
		}
		insts = append(insts, inst)
	}

	if err := tx.Instances.CreateBatch(ctx, insts); err != nil {
		return nil, fromRepo(err, "instance")
	}
	return insts, nil
}

func uintPtr(v uint) *uint {
	return &v
}
