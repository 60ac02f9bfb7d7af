package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"

	"routine-planner/internal/model"
	"routine-planner/internal/repository"
)

var telegramIDCounter atomic.Int64

// NextTelegramID returns a Telegram id unused by earlier fixtures.
func NextTelegramID() int64 {
	return 1000 + telegramIDCounter.Add(1)
}

// NewUser creates a user with the stock settings: EUR, daily 10, weekly 20.
func NewUser(t *testing.T, store *repository.Store) *model.User {
	t.Helper()
	ctx := Ctx()
	tgID := NextTelegramID()
	user, _, err := store.Users.UpsertFromTelegram(ctx, tgID, "Test", "User", fmt.Sprintf("user%d", tgID))
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	settings := &model.UserSettings{
		UserID:               user.ID,
		Currency:             "EUR",
		PenaltyDailyDefault:  decimal.NewFromInt(10),
		PenaltyWeeklyDefault: decimal.NewFromInt(20),
	}
	if err := store.Settings.Create(ctx, settings); err != nil {
		t.Fatalf("create settings: %v", err)
	}
	return user
}

// TaskOption customizes a fixture task.
type TaskOption func(*model.Task)

// WithPenalty sets the task's penalty override.
func WithPenalty(amount string) TaskOption {
	return func(task *model.Task) {
		task.PenaltyAmount = decimal.NewNullDecimal(decimal.RequireFromString(amount))
	}
}

// Inactive creates the task switched off.
func Inactive() TaskOption {
	return func(task *model.Task) {
		task.IsActive = false
	}
}

func NewTask(t *testing.T, store *repository.Store, userID uint, title string, kind model.TaskKind, opts ...TaskOption) *model.Task {
	t.Helper()
	task := &model.Task{
		UserID:   userID,
		Title:    title,
		Kind:     kind,
		IsActive: true,
	}
	for _, opt := range opts {
		opt(task)
	}
	if err := store.Tasks.Create(Ctx(), task); err != nil {
		t.Fatalf("create task: %v", err)
	}
	return task
}
