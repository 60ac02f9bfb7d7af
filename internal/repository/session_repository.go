package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"routine-planner/internal/model"
)

// SessionRepository stores day and week periods.
type SessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// CreateDay inserts an open day. A second open day for the same user fails
// with ErrDuplicate (uq_day_sessions_open).
func (r *SessionRepository) CreateDay(ctx context.Context, day *model.DaySession) error {
	day.Status = model.PeriodOpen
	day.ClosedAt = nil
	if err := r.db.WithContext(ctx).Create(day).Error; err != nil {
		return fmt.Errorf("create day session: %w", translate(err))
	}
	return nil
}

func (r *SessionRepository) CreateWeek(ctx context.Context, week *model.WeekSession) error {
	week.Status = model.PeriodOpen
	week.ClosedAt = nil
	if err := r.db.WithContext(ctx).Create(week).Error; err != nil {
		return fmt.Errorf("create week session: %w", translate(err))
	}
	return nil
}

// OpenDay returns the user's open day or ErrNotFound.
func (r *SessionRepository) OpenDay(ctx context.Context, userID uint) (*model.DaySession, error) {
	var day model.DaySession
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, model.PeriodOpen).
		Order("id DESC").
		First(&day).Error
	if err != nil {
		return nil, translate(err)
	}
	return &day, nil
}

// OpenWeek returns the user's open week or ErrNotFound.
func (r *SessionRepository) OpenWeek(ctx context.Context, userID uint) (*model.WeekSession, error) {
	var week model.WeekSession
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, model.PeriodOpen).
		Order("id DESC").
		First(&week).Error
	if err != nil {
		return nil, translate(err)
	}
	return &week, nil
}

// CloseDay persists a closed day. Only an open row is updated, so a racing
// close of the same day affects zero rows and reports ErrNotFound.
func (r *SessionRepository) CloseDay(ctx context.Context, day *model.DaySession) error {
	res := r.db.WithContext(ctx).Model(&model.DaySession{}).
		Where("id = ? AND status = ?", day.ID, model.PeriodOpen).
		Updates(map[string]interface{}{"status": model.PeriodClosed, "closed_at": day.ClosedAt})
	if res.Error != nil {
		return fmt.Errorf("close day session: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SessionRepository) CloseWeek(ctx context.Context, week *model.WeekSession) error {
	res := r.db.WithContext(ctx).Model(&model.WeekSession{}).
		Where("id = ? AND status = ?", week.ID, model.PeriodOpen).
		Updates(map[string]interface{}{"status": model.PeriodClosed, "closed_at": week.ClosedAt})
	if res.Error != nil {
		return fmt.Errorf("close week session: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// UsersWithOpenDay lists the owners of currently open days.
func (r *SessionRepository) UsersWithOpenDay(ctx context.Context) ([]uint, error) {
	var ids []uint
	if err := r.db.WithContext(ctx).Model(&model.DaySession{}).
		Where("status = ?", model.PeriodOpen).
		Order("user_id ASC").
		Pluck("user_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// CountOpen reports how many open days and weeks the user has.
func (r *SessionRepository) CountOpen(ctx context.Context, userID uint) (days, weeks int64, err error) {
	db := r.db.WithContext(ctx)
	if err = db.Model(&model.DaySession{}).Where("user_id = ? AND status = ?", userID, model.PeriodOpen).Count(&days).Error; err != nil {
		return 0, 0, err
	}
	if err = db.Model(&model.WeekSession{}).Where("user_id = ? AND status = ?", userID, model.PeriodOpen).Count(&weeks).Error; err != nil {
		return 0, 0, err
	}
	return days, weeks, nil
}
