package model

import "time"

// PeriodStatus mirrors ClosedAt: open rows have no close timestamp.
type PeriodStatus string

const (
	PeriodOpen   PeriodStatus = "open"
	PeriodClosed PeriodStatus = "closed"
)

// WeekSession is a user's week period. At most one open row per user
// (partial unique index uq_week_sessions_open).
type WeekSession struct {
	ID        uint         `gorm:"primaryKey"`
	UserID    uint         `gorm:"index"`
	Status    PeriodStatus `gorm:"size:8;default:open"`
	StartedAt time.Time
	ClosedAt  *time.Time
}

// DaySession is a user's day period. WeekSessionID is the week that was open
// when the day started and is never reassigned.
type DaySession struct {
	ID            uint         `gorm:"primaryKey"`
	UserID        uint         `gorm:"index"`
	WeekSessionID *uint        `gorm:"index"`
	Status        PeriodStatus `gorm:"size:8;default:open"`
	StartedAt     time.Time
	ClosedAt      *time.Time
}

func (d *DaySession) Close(at time.Time) {
	d.Status = PeriodClosed
	d.ClosedAt = &at
}

func (w *WeekSession) Close(at time.Time) {
	w.Status = PeriodClosed
	w.ClosedAt = &at
}
