package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// User stores Telegram user metadata. Every other row is owned by exactly one user.
type User struct {
	ID         uint  `gorm:"primaryKey"`
	TelegramID int64 `gorm:"uniqueIndex"`
	FirstName  string
	LastName   string
	Username   string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// UserSettings holds per-user penalty defaults. One row per user, created with the user.
type UserSettings struct {
	ID                   uint            `gorm:"primaryKey"`
	UserID               uint            `gorm:"uniqueIndex"`
	Currency             string          `gorm:"size:8;default:EUR"`
	PenaltyDailyDefault  decimal.Decimal `gorm:"type:decimal(10,2)"`
	PenaltyWeeklyDefault decimal.Decimal `gorm:"type:decimal(10,2)"`
	CreatedAt            time.Time
	UpdatedAt            time.Time
}
