package service

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"routine-planner/internal/model"
	"routine-planner/internal/testutil"
)

func TestReminderService_SendsOnlyOpenDaysWithPlannedWork(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.Ctx()
	sender := &fakeNotifier{}
	reminders := NewReminderService(f.store, sender, zerolog.Nop())
	now := time.Date(2026, 3, 2, 20, 0, 0, 0, time.UTC)

	f.task(t, "stretch", model.KindDaily)
	passport := f.task(t, "passport", model.KindBacklog)

	idle := testutil.NewUser(t, f.store)

	sent, err := reminders.SendDayReminders(ctx, now)
	require.NoError(t, err)
	assert.Zero(t, sent)

	_, err = f.lifecycle.OpenDay(ctx, f.user)
	require.NoError(t, err)
	_, err = f.instances.EnrollBacklog(ctx, f.user.ID, passport.ID, ScopeToday)
	require.NoError(t, err)

	sent, err = reminders.SendDayReminders(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)

	texts := sender.texts[f.user.TelegramID]
	require.Len(t, texts, 1)
	assert.Contains(t, texts[0], "Reminder for 2026-03-02")
	assert.Contains(t, texts[0], "Still planned (2)")
	assert.Contains(t, texts[0], "• stretch\n")
	assert.Contains(t, texts[0], "• passport (backlog)")
	assert.Empty(t, sender.texts[idle.TelegramID])
}

func TestReminderService_NothingPlanned(t *testing.T) {
	f := newFixture(t)
	ctx := testutil.Ctx()
	reminders := NewReminderService(f.store, &fakeNotifier{}, zerolog.Nop())

	_, err := f.lifecycle.OpenDay(ctx, f.user)
	require.NoError(t, err)

	_, ok, err := reminders.DaySummary(ctx, *f.user, time.Now())
	require.NoError(t, err)
	assert.False(t, ok)
}
