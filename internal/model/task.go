package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TaskKind decides how a task enters a period.
type TaskKind string

const (
	KindDaily   TaskKind = "daily"
	KindWeekly  TaskKind = "weekly"
	KindBacklog TaskKind = "backlog"
)

func (k TaskKind) Valid() bool {
	switch k {
	case KindDaily, KindWeekly, KindBacklog:
		return true
	}
	return false
}

// Task is a recurring (daily/weekly) or on-demand (backlog) obligation.
// PenaltyAmount overrides the owner's default for the task kind when set.
type Task struct {
	ID            uint     `gorm:"primaryKey"`
	UserID        uint     `gorm:"index"`
	Title         string   `gorm:"size:255"`
	Kind          TaskKind `gorm:"size:16;index"`
	IsActive      bool
	PenaltyAmount decimal.NullDecimal `gorm:"type:decimal(10,2)"`
	OrderIndex    int                 `gorm:"default:0"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
