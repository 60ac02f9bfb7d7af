package repository_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"routine-planner/internal/model"
	"routine-planner/internal/repository"
	"routine-planner/internal/testutil"
)

func TestSessionRepo_OneOpenDayPerUser(t *testing.T) {
	store := testutil.NewTestStore(t)
	ctx := testutil.Ctx()
	user := testutil.NewUser(t, store)

	first := &model.DaySession{UserID: user.ID, StartedAt: time.Now().UTC()}
	require.NoError(t, store.Sessions.CreateDay(ctx, first))

	second := &model.DaySession{UserID: user.ID, StartedAt: time.Now().UTC()}
	err := store.Sessions.CreateDay(ctx, second)
	require.Error(t, err)
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	// Another user is unaffected.
	other := testutil.NewUser(t, store)
	require.NoError(t, store.Sessions.CreateDay(ctx, &model.DaySession{UserID: other.ID, StartedAt: time.Now().UTC()}))

	// Closing frees the slot.
	first.Close(time.Now().UTC())
	require.NoError(t, store.Sessions.CloseDay(ctx, first))
	require.NoError(t, store.Sessions.CreateDay(ctx, &model.DaySession{UserID: user.ID, StartedAt: time.Now().UTC()}))
}

func TestSessionRepo_OneOpenWeekPerUser(t *testing.T) {
	store := testutil.NewTestStore(t)
	ctx := testutil.Ctx()
	user := testutil.NewUser(t, store)

	require.NoError(t, store.Sessions.CreateWeek(ctx, &model.WeekSession{UserID: user.ID, StartedAt: time.Now().UTC()}))
	err := store.Sessions.CreateWeek(ctx, &model.WeekSession{UserID: user.ID, StartedAt: time.Now().UTC()})
	assert.ErrorIs(t, err, repository.ErrDuplicate)
}

func TestSessionRepo_OpenLookups(t *testing.T) {
	store := testutil.NewTestStore(t)
	ctx := testutil.Ctx()
	user := testutil.NewUser(t, store)

	_, err := store.Sessions.OpenDay(ctx, user.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = store.Sessions.OpenWeek(ctx, user.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	week := &model.WeekSession{UserID: user.ID, StartedAt: time.Now().UTC()}
	require.NoError(t, store.Sessions.CreateWeek(ctx, week))
	day := &model.DaySession{UserID: user.ID, WeekSessionID: &week.ID, StartedAt: time.Now().UTC()}
	require.NoError(t, store.Sessions.CreateDay(ctx, day))

	gotDay, err := store.Sessions.OpenDay(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, day.ID, gotDay.ID)
	require.NotNil(t, gotDay.WeekSessionID)
	assert.Equal(t, week.ID, *gotDay.WeekSessionID)
	assert.Nil(t, gotDay.ClosedAt)

	gotWeek, err := store.Sessions.OpenWeek(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, week.ID, gotWeek.ID)

	ids, err := store.Sessions.UsersWithOpenDay(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uint{user.ID}, ids)
}

func TestSessionRepo_CloseTwice(t *testing.T) {
	store := testutil.NewTestStore(t)
	ctx := testutil.Ctx()
	user := testutil.NewUser(t, store)

	week := &model.WeekSession{UserID: user.ID, StartedAt: time.Now().UTC()}
	require.NoError(t, store.Sessions.CreateWeek(ctx, week))

	week.Close(time.Now().UTC())
	require.NoError(t, store.Sessions.CloseWeek(ctx, week))
	assert.ErrorIs(t, store.Sessions.CloseWeek(ctx, week), repository.ErrNotFound)

	days, weeks, err := store.Sessions.CountOpen(ctx, user.ID)
	require.NoError(t, err)
	assert.Zero(t, days)
	assert.Zero(t, weeks)
}

func TestStore_WithinTxRollsBack(t *testing.T) {
	store := testutil.NewTestStore(t)
	ctx := testutil.Ctx()
	user := testutil.NewUser(t, store)
	boom := errors.New("boom")

	err := store.WithinTx(ctx, func(tx *repository.Store) error {
		if err := tx.Sessions.CreateDay(ctx, &model.DaySession{UserID: user.ID, StartedAt: time.Now().UTC()}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = store.Sessions.OpenDay(ctx, user.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
