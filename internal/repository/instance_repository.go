package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"routine-planner/internal/model"
)

// Scope selects the instances of one period. Kind, when set, keeps only
// instances whose task has that kind.
type Scope struct {
	UserID        uint
	DaySessionID  uint
	WeekSessionID uint
	Kind          model.TaskKind
}

func DayScope(userID, dayID uint) Scope {
	return Scope{UserID: userID, DaySessionID: dayID}
}

func WeekScope(userID, weekID uint) Scope {
	return Scope{UserID: userID, WeekSessionID: weekID}
}

func (s Scope) OfKind(kind model.TaskKind) Scope {
	s.Kind = kind
	return s
}

func (s Scope) apply(db *gorm.DB) *gorm.DB {
	q := db.Where("instances.user_id = ?", s.UserID)
	if s.DaySessionID != 0 {
		q = q.Where("instances.day_session_id = ?", s.DaySessionID)
	}
	if s.WeekSessionID != 0 {
		q = q.Where("instances.week_session_id = ?", s.WeekSessionID)
	}
	if s.Kind != "" {
		kindTasks := db.Session(&gorm.Session{NewDB: true}).
			Model(&model.Task{}).Select("id").Where("kind = ?", s.Kind)
		q = q.Where("instances.task_id IN (?)", kindTasks)
	}
	return q
}

// PeriodFilter narrows statistics to day-scoped, week-scoped or all instances.
type PeriodFilter string

const (
	FilterDays  PeriodFilter = "days"
	FilterWeeks PeriodFilter = "weeks"
	FilterAll   PeriodFilter = "all"
)

func (f PeriodFilter) apply(db *gorm.DB, userID uint) *gorm.DB {
	q := db.Where("instances.user_id = ?", userID)
	switch f {
	case FilterDays:
		q = q.Where("instances.day_session_id IS NOT NULL")
	case FilterWeeks:
		q = q.Where("instances.week_session_id IS NOT NULL")
	}
	return q
}

// HistoryRow is one instance joined with its task and owning period.
type HistoryRow struct {
	InstanceID     uint
	TaskTitle      string
	Status         model.InstanceStatus
	PenaltyApplied decimal.NullDecimal
	DayStartedAt   *time.Time
	WeekStartedAt  *time.Time
	CreatedAt      time.Time
}

// StartedAt is the start of the period the instance belongs to, falling back
// to the instance's own creation time.
func (h HistoryRow) StartedAt() time.Time {
	switch {
	case h.DayStartedAt != nil:
		return *h.DayStartedAt
	case h.WeekStartedAt != nil:
		return *h.WeekStartedAt
	default:
		return h.CreatedAt
	}
}

// InstanceRepository stores task instances.
type InstanceRepository struct {
	db *gorm.DB
}

func NewInstanceRepository(db *gorm.DB) *InstanceRepository {
	return &InstanceRepository{db: db}
}

// Create inserts one instance. A second instance of the same task in the same
// period fails with ErrDuplicate.
func (r *InstanceRepository) Create(ctx context.Context, inst *model.Instance) error {
	if err := r.db.WithContext(ctx).Omit("Task").Create(inst).Error; err != nil {
		return fmt.Errorf("create instance: %w", translate(err))
	}
	return nil
}

func (r *InstanceRepository) CreateBatch(ctx context.Context, insts []model.Instance) error {
	if len(insts) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Omit("Task").Create(&insts).Error; err != nil {
		return fmt.Errorf("create instances: %w", translate(err))
	}
	return nil
}

// GetByID returns the user's instance with its task loaded.
func (r *InstanceRepository) GetByID(ctx context.Context, userID, id uint) (*model.Instance, error) {
	var inst model.Instance
	err := r.db.WithContext(ctx).Preload("Task").
		Where("user_id = ? AND id = ?", userID, id).
		First(&inst).Error
	if err != nil {
		return nil, translate(err)
	}
	return &inst, nil
}

// FindInDay returns the task's instance in the day, or ErrNotFound.
func (r *InstanceRepository) FindInDay(ctx context.Context, taskID, dayID uint) (*model.Instance, error) {
	var inst model.Instance
	err := r.db.WithContext(ctx).Preload("Task").
		Where("task_id = ? AND day_session_id = ?", taskID, dayID).
		First(&inst).Error
	if err != nil {
		return nil, translate(err)
	}
	return &inst, nil
}

func (r *InstanceRepository) FindInWeek(ctx context.Context, taskID, weekID uint) (*model.Instance, error) {
	var inst model.Instance
	err := r.db.WithContext(ctx).Preload("Task").
		Where("task_id = ? AND week_session_id = ?", taskID, weekID).
		First(&inst).Error
	if err != nil {
		return nil, translate(err)
	}
	return &inst, nil
}

// ListPlanned returns the planned instances in scope with their tasks loaded.
func (r *InstanceRepository) ListPlanned(ctx context.Context, scope Scope) ([]model.Instance, error) {
	var insts []model.Instance
	q := scope.apply(r.db.WithContext(ctx).Model(&model.Instance{}))
	if err := q.Preload("Task").
		Where("instances.status = ?", model.StatusPlanned).
		Order("instances.id ASC").
		Find(&insts).Error; err != nil {
		return nil, fmt.Errorf("list planned instances: %w", err)
	}
	return insts, nil
}

// List returns the instances in scope, newest first.
func (r *InstanceRepository) List(ctx context.Context, scope Scope) ([]model.Instance, error) {
	var insts []model.Instance
	q := scope.apply(r.db.WithContext(ctx).Model(&model.Instance{}))
	if err := q.Preload("Task").
		Order("instances.created_at DESC, instances.id DESC").
		Find(&insts).Error; err != nil {
		return nil, fmt.Errorf("list instances: %w", err)
	}
	return insts, nil
}

// ListHistory returns the user's most recent instances across all periods.
func (r *InstanceRepository) ListHistory(ctx context.Context, userID uint, limit int) ([]model.Instance, error) {
	var insts []model.Instance
	if err := r.db.WithContext(ctx).Preload("Task").
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&insts).Error; err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	return insts, nil
}

// UpdateStatus writes the instance's status and applied penalty.
func (r *InstanceRepository) UpdateStatus(ctx context.Context, inst *model.Instance) error {
	res := r.db.WithContext(ctx).Model(&model.Instance{}).
		Where("id = ? AND user_id = ?", inst.ID, inst.UserID).
		Updates(map[string]interface{}{
			"status":          inst.Status,
			"penalty_applied": inst.PenaltyApplied,
			"updated_at":      time.Now().UTC(),
		})
	if res.Error != nil {
		return fmt.Errorf("update instance status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkFailed fails a still-planned instance. It reports false when the
// instance had already left the planned state.
func (r *InstanceRepository) MarkFailed(ctx context.Context, id uint, penalty decimal.Decimal) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Instance{}).
		Where("id = ? AND status = ?", id, model.StatusPlanned).
		Updates(map[string]interface{}{
			"status":          model.StatusFailed,
			"penalty_applied": decimal.NewNullDecimal(penalty),
			"updated_at":      time.Now().UTC(),
		})
	if res.Error != nil {
		return false, fmt.Errorf("fail instance: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

type statusCount struct {
	Status model.InstanceStatus
	Count  int64
}

// CountByStatus groups the instances in scope by status.
func (r *InstanceRepository) CountByStatus(ctx context.Context, scope Scope) (map[model.InstanceStatus]int64, error) {
	var rows []statusCount
	q := scope.apply(r.db.WithContext(ctx).Model(&model.Instance{}))
	if err := q.Select("instances.status AS status, COUNT(*) AS count").
		Group("instances.status").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("count instances: %w", err)
	}
	return toCountMap(rows), nil
}

// FailedPenalties returns the applied penalties of failed instances in scope.
func (r *InstanceRepository) FailedPenalties(ctx context.Context, scope Scope) ([]decimal.Decimal, error) {
	var vals []decimal.NullDecimal
	q := scope.apply(r.db.WithContext(ctx).Model(&model.Instance{}))
	if err := q.Where("instances.status = ?", model.StatusFailed).
		Pluck("instances.penalty_applied", &vals).Error; err != nil {
		return nil, fmt.Errorf("failed penalties: %w", err)
	}
	return validDecimals(vals), nil
}

// FailedByPeriod returns the failed instances' penalties under the filter.
func (r *InstanceRepository) FailedByPeriod(ctx context.Context, userID uint, filter PeriodFilter) ([]decimal.Decimal, error) {
	var vals []decimal.NullDecimal
	q := filter.apply(r.db.WithContext(ctx).Model(&model.Instance{}), userID)
	if err := q.Where("instances.status = ?", model.StatusFailed).
		Pluck("instances.penalty_applied", &vals).Error; err != nil {
		return nil, fmt.Errorf("failed penalties: %w", err)
	}
	return validDecimals(vals), nil
}

func (r *InstanceRepository) CountByStatusForPeriod(ctx context.Context, userID uint, filter PeriodFilter) (map[model.InstanceStatus]int64, error) {
	var rows []statusCount
	q := filter.apply(r.db.WithContext(ctx).Model(&model.Instance{}), userID)
	if err := q.Select("instances.status AS status, COUNT(*) AS count").
		Group("instances.status").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("count instances: %w", err)
	}
	return toCountMap(rows), nil
}

// HistoryRows joins instances with task titles and period start times.
func (r *InstanceRepository) HistoryRows(ctx context.Context, userID uint, filter PeriodFilter, limit int) ([]HistoryRow, error) {
	var rows []HistoryRow
	q := filter.apply(r.db.WithContext(ctx).Table("instances"), userID)
	err := q.Select(`instances.id AS instance_id,
			tasks.title AS task_title,
			instances.status AS status,
			instances.penalty_applied AS penalty_applied,
			day_sessions.started_at AS day_started_at,
			week_sessions.started_at AS week_started_at,
			instances.created_at AS created_at`).
		Joins("JOIN tasks ON tasks.id = instances.task_id").
		Joins("LEFT JOIN day_sessions ON day_sessions.id = instances.day_session_id").
		Joins("LEFT JOIN week_sessions ON week_sessions.id = instances.week_session_id").
		Order("instances.created_at DESC, instances.id DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("history rows: %w", err)
	}
	return rows, nil
}

// ClearHistory deletes every instance and period the user has. Tasks and
// settings stay.
func (r *InstanceRepository) ClearHistory(ctx context.Context, userID uint) error {
	db := r.db.WithContext(ctx)
	for _, m := range []interface{}{&model.Instance{}, &model.DaySession{}, &model.WeekSession{}} {
		if err := db.Where("user_id = ?", userID).Delete(m).Error; err != nil {
			return fmt.Errorf("clear history: %w", err)
		}
	}
	return nil
}

func toCountMap(rows []statusCount) map[model.InstanceStatus]int64 {
	out := make(map[model.InstanceStatus]int64, len(rows))
	for _, row := range rows {
		out[row.Status] = row.Count
	}
	return out
}

func validDecimals(vals []decimal.NullDecimal) []decimal.Decimal {
	out := make([]decimal.Decimal, 0, len(vals))
	for _, v := range vals {
		if v.Valid {
			out = append(out, v.Decimal)
		}
	}
	return out
}
