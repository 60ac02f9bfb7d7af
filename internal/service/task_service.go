package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"routine-planner/internal/model"
	"routine-planner/internal/repository"
)

// TaskInput represents data required to create or update a task.
type TaskInput struct {
	Title         string
	Kind          model.TaskKind
	IsActive      bool
	PenaltyAmount decimal.NullDecimal
}

func (in TaskInput) validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return invalidf("title is required")
	}
	if !in.Kind.Valid() {
		return invalidf("kind must be daily, weekly, or backlog")
	}
	if in.PenaltyAmount.Valid && in.PenaltyAmount.Decimal.IsNegative() {
		return invalidf("penalty amount must not be negative")
	}
	return nil
}

// TaskService wraps task-related business logic.
type TaskService struct {
	store *repository.Store
}

func NewTaskService(store *repository.Store) *TaskService {
	return &TaskService{store: store}
}

func (s *TaskService) List(ctx context.Context, userID uint) ([]model.Task, error) {
	return s.store.Tasks.ListByUser(ctx, userID)
}

func (s *TaskService) Get(ctx context.Context, userID, taskID uint) (*model.Task, error) {
	task, err := s.store.Tasks.FindByID(ctx, userID, taskID)
	if err != nil {
		return nil, fromRepo(err, "task")
	}
	return task, nil
}

// Create appends a task after the user's existing ones.
func (s *TaskService) Create(ctx context.Context, userID uint, input TaskInput) (*model.Task, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	task := &model.Task{
		UserID:        userID,
		Title:         strings.TrimSpace(input.Title),
		Kind:          input.Kind,
		IsActive:      input.IsActive,
		PenaltyAmount: input.PenaltyAmount,
	}
	err := s.store.WithinTx(ctx, func(tx *repository.Store) error {
		next, err := tx.Tasks.NextOrderIndex(ctx, userID)
		if err != nil {
			return err
		}
		task.OrderIndex = next
		return tx.Tasks.Create(ctx, task)
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// Update rewrites a task. Its kind is fixed once it has instances.
func (s *TaskService) Update(ctx context.Context, userID, taskID uint, input TaskInput) (*model.Task, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	var task *model.Task
	err := s.store.WithinTx(ctx, func(tx *repository.Store) error {
		var err error
		task, err = tx.Tasks.FindByID(ctx, userID, taskID)
		if err != nil {
			return fromRepo(err, "task")
		}
		if task.Kind != input.Kind {
			used, err := tx.Tasks.HasInstances(ctx, task.ID)
			if err != nil {
				return err
			}
			if used {
				return conflictf("task %d already has instances, its kind cannot change", task.ID)
			}
		}
		task.Title = strings.TrimSpace(input.Title)
		task.Kind = input.Kind
		task.IsActive = input.IsActive
		task.PenaltyAmount = input.PenaltyAmount
		return tx.Tasks.Update(ctx, task)
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// Delete removes a task together with its instances.
func (s *TaskService) Delete(ctx context.Context, userID, taskID uint) error {
	return s.store.WithinTx(ctx, func(tx *repository.Store) error {
		return fromRepo(tx.Tasks.Delete(ctx, userID, taskID), "task")
	})
}

// Reorder sets the display order. ids must list every task of the user
// exactly once.
func (s *TaskService) Reorder(ctx context.Context, userID uint, ids []uint) error {
	return s.store.WithinTx(ctx, func(tx *repository.Store) error {
		tasks, err := tx.Tasks.ListByUser(ctx, userID)
		if err != nil {
			return err
		}
		owned := make(map[uint]bool, len(tasks))
		for _, t := range tasks {
			owned[t.ID] = true
		}
		if len(ids) != len(tasks) {
			return invalidf("ordered ids must contain all user task ids exactly once")
		}
		seen := make(map[uint]bool, len(ids))
		for _, id := range ids {
			if !owned[id] || seen[id] {
				return invalidf("ordered ids must contain all user task ids exactly once")
			}
			seen[id] = true
		}
		if err := tx.Tasks.SetOrder(ctx, userID, ids); err != nil {
			return fmt.Errorf("reorder: %w", err)
		}
		return nil
	})
}
