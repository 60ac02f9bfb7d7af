package repository_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"routine-planner/internal/model"
	"routine-planner/internal/repository"
	"routine-planner/internal/testutil"
)

func openDay(t *testing.T, store *repository.Store, userID uint) *model.DaySession {
	t.Helper()
	day := &model.DaySession{UserID: userID, StartedAt: time.Now().UTC()}
	require.NoError(t, store.Sessions.CreateDay(testutil.Ctx(), day))
	return day
}

func openWeek(t *testing.T, store *repository.Store, userID uint) *model.WeekSession {
	t.Helper()
	week := &model.WeekSession{UserID: userID, StartedAt: time.Now().UTC()}
	require.NoError(t, store.Sessions.CreateWeek(testutil.Ctx(), week))
	return week
}

func TestInstanceRepo_UniquePerTaskAndPeriod(t *testing.T) {
	store := testutil.NewTestStore(t)
	ctx := testutil.Ctx()
	user := testutil.NewUser(t, store)
	task := testutil.NewTask(t, store, user.ID, "stretch", model.KindDaily)
	day := openDay(t, store, user.ID)

	require.NoError(t, store.Instances.Create(ctx, &model.Instance{UserID: user.ID, TaskID: task.ID, Status: model.StatusPlanned, DaySessionID: &day.ID}))
	err := store.Instances.Create(ctx, &model.Instance{UserID: user.ID, TaskID: task.ID, Status: model.StatusPlanned, DaySessionID: &day.ID})
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	week := openWeek(t, store, user.ID)
	require.NoError(t, store.Instances.Create(ctx, &model.Instance{UserID: user.ID, TaskID: task.ID, Status: model.StatusPlanned, WeekSessionID: &week.ID}))
	err = store.Instances.CreateBatch(ctx, []model.Instance{{UserID: user.ID, TaskID: task.ID, Status: model.StatusPlanned, WeekSessionID: &week.ID}})
	assert.ErrorIs(t, err, repository.ErrDuplicate)
}

func TestInstanceRepo_ScopeKindFilter(t *testing.T) {
	store := testutil.NewTestStore(t)
	ctx := testutil.Ctx()
	user := testutil.NewUser(t, store)
	weekly := testutil.NewTask(t, store, user.ID, "review", model.KindWeekly)
	backlog := testutil.NewTask(t, store, user.ID, "taxes", model.KindBacklog)
	week := openWeek(t, store, user.ID)

	require.NoError(t, store.Instances.CreateBatch(ctx, []model.Instance{
		{UserID: user.ID, TaskID: weekly.ID, Status: model.StatusPlanned, WeekSessionID: &week.ID},
		{UserID: user.ID, TaskID: backlog.ID, Status: model.StatusPlanned, WeekSessionID: &week.ID},
	}))

	all, err := store.Instances.ListPlanned(ctx, repository.WeekScope(user.ID, week.ID))
	require.NoError(t, err)
	assert.Len(t, all, 2)

	weeklyOnly, err := store.Instances.ListPlanned(ctx, repository.WeekScope(user.ID, week.ID).OfKind(model.KindWeekly))
	require.NoError(t, err)
	require.Len(t, weeklyOnly, 1)
	assert.Equal(t, weekly.ID, weeklyOnly[0].TaskID)
	require.NotNil(t, weeklyOnly[0].Task)
	assert.Equal(t, "review", weeklyOnly[0].Task.Title)
}

func TestInstanceRepo_MarkFailedOnlyPlanned(t *testing.T) {
	store := testutil.NewTestStore(t)
	ctx := testutil.Ctx()
	user := testutil.NewUser(t, store)
	task := testutil.NewTask(t, store, user.ID, "run", model.KindDaily)
	day := openDay(t, store, user.ID)

	inst := &model.Instance{UserID: user.ID, TaskID: task.ID, Status: model.StatusPlanned, DaySessionID: &day.ID}
	require.NoError(t, store.Instances.Create(ctx, inst))

	ok, err := store.Instances.MarkFailed(ctx, inst.ID, decimal.RequireFromString("12.5"))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Instances.MarkFailed(ctx, inst.ID, decimal.NewFromInt(99))
	require.NoError(t, err)
	assert.False(t, ok, "already failed")

	got, err := store.Instances.GetByID(ctx, user.ID, inst.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusFailed, got.Status)
	require.True(t, got.PenaltyApplied.Valid)
	assert.Equal(t, "12.5", got.PenaltyApplied.Decimal.String())

	counts, err := store.Instances.CountByStatus(ctx, repository.DayScope(user.ID, day.ID))
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts[model.StatusFailed])

	penalties, err := store.Instances.FailedPenalties(ctx, repository.DayScope(user.ID, day.ID))
	require.NoError(t, err)
	require.Len(t, penalties, 1)
	assert.True(t, penalties[0].Equal(decimal.RequireFromString("12.5")))
}

func TestInstanceRepo_GetByIDScopedToOwner(t *testing.T) {
	store := testutil.NewTestStore(t)
	ctx := testutil.Ctx()
	owner := testutil.NewUser(t, store)
	stranger := testutil.NewUser(t, store)
	task := testutil.NewTask(t, store, owner.ID, "read", model.KindDaily)
	day := openDay(t, store, owner.ID)

	inst := &model.Instance{UserID: owner.ID, TaskID: task.ID, Status: model.StatusPlanned, DaySessionID: &day.ID}
	require.NoError(t, store.Instances.Create(ctx, inst))

	_, err := store.Instances.GetByID(ctx, stranger.ID, inst.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestInstanceRepo_HistoryRowsAndFilters(t *testing.T) {
	store := testutil.NewTestStore(t)
	ctx := testutil.Ctx()
	user := testutil.NewUser(t, store)
	daily := testutil.NewTask(t, store, user.ID, "floss", model.KindDaily)
	weekly := testutil.NewTask(t, store, user.ID, "groceries", model.KindWeekly)
	day := openDay(t, store, user.ID)
	week := openWeek(t, store, user.ID)

	dayInst := &model.Instance{UserID: user.ID, TaskID: daily.ID, Status: model.StatusPlanned, DaySessionID: &day.ID}
	weekInst := &model.Instance{UserID: user.ID, TaskID: weekly.ID, Status: model.StatusPlanned, WeekSessionID: &week.ID}
	require.NoError(t, store.Instances.Create(ctx, dayInst))
	require.NoError(t, store.Instances.Create(ctx, weekInst))
	_, err := store.Instances.MarkFailed(ctx, dayInst.ID, decimal.NewFromInt(10))
	require.NoError(t, err)
	_, err = store.Instances.MarkFailed(ctx, weekInst.ID, decimal.NewFromInt(20))
	require.NoError(t, err)

	days, err := store.Instances.FailedByPeriod(ctx, user.ID, repository.FilterDays)
	require.NoError(t, err)
	assert.Len(t, days, 1)
	weeks, err := store.Instances.FailedByPeriod(ctx, user.ID, repository.FilterWeeks)
	require.NoError(t, err)
	assert.Len(t, weeks, 1)
	all, err := store.Instances.FailedByPeriod(ctx, user.ID, repository.FilterAll)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	rows, err := store.Instances.HistoryRows(ctx, user.ID, repository.FilterDays, 50)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "floss", rows[0].TaskTitle)
	assert.Equal(t, model.StatusFailed, rows[0].Status)
	require.NotNil(t, rows[0].DayStartedAt)
	assert.WithinDuration(t, day.StartedAt, rows[0].StartedAt(), time.Second)
}

func TestInstanceRepo_ClearHistory(t *testing.T) {
	store := testutil.NewTestStore(t)
	ctx := testutil.Ctx()
	user := testutil.NewUser(t, store)
	task := testutil.NewTask(t, store, user.ID, "walk", model.KindDaily)
	day := openDay(t, store, user.ID)
	openWeek(t, store, user.ID)
	require.NoError(t, store.Instances.Create(ctx, &model.Instance{UserID: user.ID, TaskID: task.ID, Status: model.StatusPlanned, DaySessionID: &day.ID}))

	require.NoError(t, store.WithinTx(ctx, func(tx *repository.Store) error {
		return tx.Instances.ClearHistory(ctx, user.ID)
	}))

	history, err := store.Instances.ListHistory(ctx, user.ID, 200)
	require.NoError(t, err)
	assert.Empty(t, history)
	days, weeks, err := store.Sessions.CountOpen(ctx, user.ID)
	require.NoError(t, err)
	assert.Zero(t, days)
	assert.Zero(t, weeks)

	tasks, err := store.Tasks.ListByUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, tasks, 1, "tasks survive history clearing")
}
