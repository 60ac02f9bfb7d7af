package service

import (
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"routine-planner/internal/model"
	"routine-planner/internal/repository"
	"routine-planner/internal/testutil"
)

type recordedClose struct {
	ChatID int64
	Result CloseResult
}

type fakeNotifier struct {
	mu     sync.Mutex
	closed []recordedClose
	texts  map[int64][]string
}

func (f *fakeNotifier) PeriodClosed(chatID int64, result CloseResult) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = append(f.closed, recordedClose{ChatID: chatID, Result: result})
}

func (f *fakeNotifier) SendText(chatID int64, text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.texts == nil {
		f.texts = make(map[int64][]string)
	}
	f.texts[chatID] = append(f.texts[chatID], text)
}

func (f *fakeNotifier) Closed() []recordedClose {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedClose(nil), f.closed...)
}

type fixture struct {
	store     *repository.Store
	notifier  *fakeNotifier
	lifecycle *Lifecycle
	instances *InstanceService
	user      *model.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := testutil.NewTestStore(t)
	notifier := &fakeNotifier{}
	lc := NewLifecycle(store, notifier, zerolog.Nop())
	clock := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	lc.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}
	return &fixture{
		store:     store,
		notifier:  notifier,
		lifecycle: lc,
		instances: NewInstanceService(store),
		user:      testutil.NewUser(t, store),
	}
}

func (f *fixture) task(t *testing.T, title string, kind model.TaskKind, opts ...testutil.TaskOption) *model.Task {
	t.Helper()
	return testutil.NewTask(t, f.store, f.user.ID, title, kind, opts...)
}

func (f *fixture) instanceOf(t *testing.T, scope repository.Scope, taskID uint) model.Instance {
	t.Helper()
	insts, err := f.store.Instances.List(testutil.Ctx(), scope)
	require.NoError(t, err)
	for _, inst := range insts {
		if inst.TaskID == taskID {
			return inst
		}
	}
	t.Fatalf("no instance of task %d in scope", taskID)
	return model.Instance{}
}
