package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"routine-planner/internal/model"
)

// TaskRepository handles CRUD for tasks.
type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

// ListByUser returns the user's tasks in display order.
func (r *TaskRepository) ListByUser(ctx context.Context, userID uint) ([]model.Task, error) {
	var tasks []model.Task
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).
		Order("order_index ASC, created_at ASC, id ASC").
		Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// ListActiveByKind returns the tasks the materializer turns into instances.
func (r *TaskRepository) ListActiveByKind(ctx context.Context, userID uint, kind model.TaskKind) ([]model.Task, error) {
	var tasks []model.Task
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND kind = ? AND is_active = ?", userID, kind, true).
		Order("order_index ASC, id ASC").
		Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *TaskRepository) FindByID(ctx context.Context, userID, taskID uint) (*model.Task, error) {
	var task model.Task
	if err := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, taskID).First(&task).Error; err != nil {
		return nil, translate(err)
	}
	return &task, nil
}

// NextOrderIndex returns one past the largest order index the user has, or 0.
func (r *TaskRepository) NextOrderIndex(ctx context.Context, userID uint) (int, error) {
	var max int
	if err := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("user_id = ?", userID).
		Select("COALESCE(MAX(order_index), -1)").
		Scan(&max).Error; err != nil {
		return 0, fmt.Errorf("max order index: %w", err)
	}
	return max + 1, nil
}

func (r *TaskRepository) Update(ctx context.Context, task *model.Task) error {
	err := r.db.WithContext(ctx).Model(task).
		Select("title", "kind", "is_active", "penalty_amount", "order_index", "updated_at").
		Updates(task).Error
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	return nil
}

// SetOrder stores the position of every id in ids as its order index.
func (r *TaskRepository) SetOrder(ctx context.Context, userID uint, ids []uint) error {
	db := r.db.WithContext(ctx)
	for idx, id := range ids {
		if err := db.Model(&model.Task{}).
			Where("user_id = ? AND id = ?", userID, id).
			Update("order_index", idx).Error; err != nil {
			return fmt.Errorf("reorder task %d: %w", id, err)
		}
	}
	return nil
}

func (r *TaskRepository) HasInstances(ctx context.Context, taskID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Instance{}).Where("task_id = ?", taskID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Delete removes a task and its instances. Callers should run it inside
// Store.WithinTx.
func (r *TaskRepository) Delete(ctx context.Context, userID, taskID uint) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("user_id = ? AND task_id = ?", userID, taskID).Delete(&model.Instance{}).Error; err != nil {
		return fmt.Errorf("delete task instances: %w", err)
	}
	res := db.Where("user_id = ? AND id = ?", userID, taskID).Delete(&model.Task{})
	if res.Error != nil {
		return fmt.Errorf("delete task: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
