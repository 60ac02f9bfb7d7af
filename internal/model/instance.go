package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// InstanceStatus is the outcome of a task inside one period.
type InstanceStatus string

const (
	StatusPlanned  InstanceStatus = "planned"
	StatusDone     InstanceStatus = "done"
	StatusCanceled InstanceStatus = "canceled"
	StatusFailed   InstanceStatus = "failed"
)

func (s InstanceStatus) Valid() bool {
	switch s {
	case StatusPlanned, StatusDone, StatusCanceled, StatusFailed:
		return true
	}
	return false
}

// Instance is one occurrence of a task within a day or week session.
// PenaltyApplied is set only while Status is failed.
// (TaskID, DaySessionID) and (TaskID, WeekSessionID) are unique.
type Instance struct {
	ID             uint                `gorm:"primaryKey"`
	UserID         uint                `gorm:"index"`
	TaskID         uint                `gorm:"index"`
	Status         InstanceStatus      `gorm:"size:16;index;default:planned"`
	PenaltyApplied decimal.NullDecimal `gorm:"type:decimal(10,2)"`
	DaySessionID   *uint               `gorm:"index"`
	WeekSessionID  *uint               `gorm:"index"`
	CreatedAt      time.Time
	UpdatedAt      time.Time

	Task *Task `gorm:"foreignKey:TaskID"`
}

// Fail marks the instance failed with the given penalty.
func (i *Instance) Fail(penalty decimal.Decimal) {
	i.Status = StatusFailed
	i.PenaltyApplied = decimal.NewNullDecimal(penalty)
}
