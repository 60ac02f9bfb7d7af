package repository_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"routine-planner/internal/model"
	"routine-planner/internal/repository"
	"routine-planner/internal/testutil"
)

func TestTaskRepo_ListActiveByKind(t *testing.T) {
	store := testutil.NewTestStore(t)
	ctx := testutil.Ctx()
	user := testutil.NewUser(t, store)
	testutil.NewTask(t, store, user.ID, "meditate", model.KindDaily)
	testutil.NewTask(t, store, user.ID, "old habit", model.KindDaily, testutil.Inactive())
	testutil.NewTask(t, store, user.ID, "laundry", model.KindWeekly)
	testutil.NewTask(t, store, user.ID, "passport", model.KindBacklog)

	daily, err := store.Tasks.ListActiveByKind(ctx, user.ID, model.KindDaily)
	require.NoError(t, err)
	require.Len(t, daily, 1)
	assert.Equal(t, "meditate", daily[0].Title)
}

func TestTaskRepo_OrderIndex(t *testing.T) {
	store := testutil.NewTestStore(t)
	ctx := testutil.Ctx()
	user := testutil.NewUser(t, store)

	next, err := store.Tasks.NextOrderIndex(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, next)

	a := testutil.NewTask(t, store, user.ID, "a", model.KindDaily)
	b := testutil.NewTask(t, store, user.ID, "b", model.KindDaily)
	require.NoError(t, store.Tasks.SetOrder(ctx, user.ID, []uint{b.ID, a.ID}))

	tasks, err := store.Tasks.ListByUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, b.ID, tasks[0].ID)
	assert.Equal(t, a.ID, tasks[1].ID)

	next, err = store.Tasks.NextOrderIndex(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, next)
}

func TestTaskRepo_DeleteCascadesInstances(t *testing.T) {
	store := testutil.NewTestStore(t)
	ctx := testutil.Ctx()
	user := testutil.NewUser(t, store)
	task := testutil.NewTask(t, store, user.ID, "journal", model.KindDaily)
	keep := testutil.NewTask(t, store, user.ID, "water plants", model.KindDaily)
	day := openDay(t, store, user.ID)
	require.NoError(t, store.Instances.CreateBatch(ctx, []model.Instance{
		{UserID: user.ID, TaskID: task.ID, Status: model.StatusPlanned, DaySessionID: &day.ID},
		{UserID: user.ID, TaskID: keep.ID, Status: model.StatusPlanned, DaySessionID: &day.ID},
	}))

	has, err := store.Tasks.HasInstances(ctx, task.ID)
	require.NoError(t, err)
	assert.True(t, has)

	require.NoError(t, store.WithinTx(ctx, func(tx *repository.Store) error {
		return tx.Tasks.Delete(ctx, user.ID, task.ID)
	}))

	insts, err := store.Instances.List(ctx, repository.DayScope(user.ID, day.ID))
	require.NoError(t, err)
	require.Len(t, insts, 1)
	assert.Equal(t, keep.ID, insts[0].TaskID)

	assert.ErrorIs(t, store.Tasks.Delete(ctx, user.ID, task.ID), repository.ErrNotFound)
}

func TestUserRepo_DeleteCascadesEverything(t *testing.T) {
	store := testutil.NewTestStore(t)
	ctx := testutil.Ctx()
	user := testutil.NewUser(t, store)
	task := testutil.NewTask(t, store, user.ID, "journal", model.KindDaily)
	day := openDay(t, store, user.ID)
	require.NoError(t, store.Instances.Create(ctx, &model.Instance{UserID: user.ID, TaskID: task.ID, Status: model.StatusPlanned, DaySessionID: &day.ID}))

	require.NoError(t, store.WithinTx(ctx, func(tx *repository.Store) error {
		return tx.Users.Delete(ctx, user.ID)
	}))

	_, err := store.Users.GetByID(ctx, user.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = store.Settings.GetByUser(ctx, user.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	tasks, err := store.Tasks.ListByUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, tasks)
	_, err = store.Sessions.OpenDay(ctx, user.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUserRepo_Upsert(t *testing.T) {
	store := testutil.NewTestStore(t)
	ctx := testutil.Ctx()

	u, created, err := store.Users.UpsertFromTelegram(ctx, 42, "Ada", "", "ada")
	require.NoError(t, err)
	assert.True(t, created)

	again, created, err := store.Users.UpsertFromTelegram(ctx, 42, "Ada", "Lovelace", "ada_l")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, u.ID, again.ID)

	found, err := store.Users.FindByTelegramID(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "ada_l", found.Username)
	assert.Equal(t, "Lovelace", found.LastName)
}
