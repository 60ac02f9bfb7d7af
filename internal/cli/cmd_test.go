package cli

import (
	"bytes"
	"context"
	"strconv"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"routine-planner/internal/config"
	"routine-planner/internal/model"
	"routine-planner/internal/service"
	"routine-planner/internal/testutil"
)

// testApp wires a full App backed by an in-memory DB for CLI tests.
func testApp(t *testing.T) *App {
	t.Helper()
	return NewApp(config.Defaults(), testutil.NewTestStore(t), zerolog.Nop())
}

// executeCmd runs a cobra command and captures stdout/stderr.
func executeCmd(t *testing.T, app *App, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd(app)
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return buf.String(), err
}

func tgFlag(id int64) string {
	return "--telegram-id=" + strconv.FormatInt(id, 10)
}

func TestCLI_RequiresTelegramID(t *testing.T) {
	app := testApp(t)
	_, err := executeCmd(t, app, "day", "open")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--telegram-id")
}

func TestCLI_DayLifecycle(t *testing.T) {
	app := testApp(t)
	id := testutil.NextTelegramID()

	out, err := executeCmd(t, app, "tasks", "add", "stretch", "--kind=daily", tgFlag(id))
	require.NoError(t, err)
	assert.Contains(t, out, "Task #")

	_, err = executeCmd(t, app, "tasks", "add", "plank", "--kind=daily", "--penalty=2.50", tgFlag(id))
	require.NoError(t, err)

	out, err = executeCmd(t, app, "day", "open", tgFlag(id))
	require.NoError(t, err)
	assert.Contains(t, out, "Day #")

	_, err = executeCmd(t, app, "day", "open", tgFlag(id))
	require.ErrorIs(t, err, service.ErrConflict)

	out, err = executeCmd(t, app, "instances", "list", tgFlag(id))
	require.NoError(t, err)
	assert.Contains(t, out, "stretch")
	assert.Contains(t, out, "planned")

	out, err = executeCmd(t, app, "day", "close", tgFlag(id))
	require.NoError(t, err)
	assert.Contains(t, out, "Day closed")
	assert.Contains(t, out, "Failed: 2")
	assert.Contains(t, out, "To transfer: 12.50 EUR")

	_, err = executeCmd(t, app, "day", "close", tgFlag(id))
	require.ErrorIs(t, err, service.ErrConflict)
}

func TestCLI_InstanceStatusAndBacklog(t *testing.T) {
	app := testApp(t)
	id := testutil.NextTelegramID()
	ctx := context.Background()

	user, err := app.Users.Local(ctx, id)
	require.NoError(t, err)
	task := testutil.NewTask(t, app.Store, user.ID, "fix bike", model.KindBacklog)

	_, err = executeCmd(t, app, "backlog", "add", strconv.FormatUint(uint64(task.ID), 10), tgFlag(id))
	require.ErrorIs(t, err, service.ErrConflict)

	_, err = executeCmd(t, app, "week", "open", tgFlag(id))
	require.NoError(t, err)

	out, err := executeCmd(t, app, "backlog", "add", strconv.FormatUint(uint64(task.ID), 10), "--scope=week", tgFlag(id))
	require.NoError(t, err)
	assert.Contains(t, out, "planned for task")

	items, err := app.Instances.List(ctx, user.ID, service.ScopeWeek)
	require.NoError(t, err)
	require.Len(t, items, 1)

	out, err = executeCmd(t, app, "instances", "status", strconv.FormatUint(uint64(items[0].ID), 10), "failed", tgFlag(id))
	require.NoError(t, err)
	assert.Contains(t, out, "is failed (penalty 10.00)")

	_, err = executeCmd(t, app, "instances", "status", "abc", "done", tgFlag(id))
	require.ErrorIs(t, err, service.ErrInvalidInput)
}

func TestCLI_Stats(t *testing.T) {
	app := testApp(t)
	id := testutil.NextTelegramID()

	_, err := executeCmd(t, app, "tasks", "add", "stretch", tgFlag(id))
	require.NoError(t, err)
	_, err = executeCmd(t, app, "day", "open", tgFlag(id))
	require.NoError(t, err)
	_, err = executeCmd(t, app, "day", "close", tgFlag(id))
	require.NoError(t, err)

	out, err := executeCmd(t, app, "stats", "--period=months", tgFlag(id))
	require.NoError(t, err)
	assert.Contains(t, out, "Failed: 1")
	assert.Contains(t, out, "Total penalty: 10.00")

	out, err = executeCmd(t, app, "stats", "details", "--period=months", tgFlag(id))
	require.NoError(t, err)
	assert.Contains(t, out, "failed: 1")
	assert.Contains(t, out, "stretch")

	_, err = executeCmd(t, app, "stats", "clear", tgFlag(id))
	require.ErrorIs(t, err, service.ErrInvalidInput)

	out, err = executeCmd(t, app, "stats", "clear", "--yes", tgFlag(id))
	require.NoError(t, err)
	assert.Contains(t, out, "History cleared.")

	out, err = executeCmd(t, app, "stats", "--period=months", tgFlag(id))
	require.NoError(t, err)
	assert.Contains(t, out, "Failed: 0")

	_, err = executeCmd(t, app, "stats", "--period=years", tgFlag(id))
	require.ErrorIs(t, err, service.ErrInvalidInput)
}
