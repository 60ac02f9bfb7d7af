package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"routine-planner/internal/model"
	"routine-planner/internal/repository"
)

// PeriodKind labels a day or week period in results and notifications.
type PeriodKind string

const (
	PeriodDay  PeriodKind = "day"
	PeriodWeek PeriodKind = "week"
)

// CloseResult describes a period that was just settled and closed.
type CloseResult struct {
	Kind      PeriodKind
	ID        uint
	StartedAt time.Time
	ClosedAt  time.Time
	Summary   Summary
	Currency  string
	// Auto is set when opening a new week closed this one.
	Auto bool
}

// AmountToTransfer is what the user owes for the period.
func (r CloseResult) AmountToTransfer() decimal.Decimal {
	return r.Summary.TotalPenalty
}

// Notifier receives close results after the closing transaction committed.
// Implementations must not block and must swallow their own failures.
type Notifier interface {
	PeriodClosed(chatID int64, result CloseResult)
}

type nopNotifier struct{}

func (nopNotifier) PeriodClosed(int64, CloseResult) {}

// Dashboard is the user's currently open periods. Either may be nil.
type Dashboard struct {
	Day  *model.DaySession
	Week *model.WeekSession
}

// Lifecycle opens and closes day and week sessions. Each transition, with
// its instance writes, runs in one transaction.
type Lifecycle struct {
	store    *repository.Store
	notifier Notifier
	log      zerolog.Logger
	now      func() time.Time
}

func NewLifecycle(store *repository.Store, notifier Notifier, log zerolog.Logger) *Lifecycle {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &Lifecycle{
		store:    store,
		notifier: notifier,
		log:      log.With().Str("component", "lifecycle").Logger(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// OpenDay starts a day, links it to the open week if any and plans every
// active daily task in it.
func (l *Lifecycle) OpenDay(ctx context.Context, user *model.User) (*model.DaySession, error) {
	var (
		day     *model.DaySession
		planned int
	)
	err := l.store.WithinTx(ctx, func(tx *repository.Store) error {
		if _, err := tx.Sessions.OpenDay(ctx, user.ID); err == nil {
			return conflictf("there is already an open day session")
		} else if !errors.Is(err, repository.ErrNotFound) {
			return err
		}

		day = &model.DaySession{UserID: user.ID, StartedAt: l.now()}
		week, err := tx.Sessions.OpenWeek(ctx, user.ID)
		switch {
		case err == nil:
			day.WeekSessionID = uintPtr(week.ID)
		case !errors.Is(err, repository.ErrNotFound):
			return err
		}

		if err := tx.Sessions.CreateDay(ctx, day); err != nil {
			return fromRepo(err, "open day session")
		}
		insts, err := materialize(ctx, tx, user.ID, model.KindDaily, PeriodRef{DayID: day.ID})
		planned = len(insts)
		return err
	})
	if err != nil {
		return nil, err
	}

	l.log.Info().Uint("user_id", user.ID).Uint("day_id", day.ID).Int("planned", planned).Msg("day opened")
	return day, nil
}

// CloseDay settles every planned instance of the open day, whatever the
// task kind, and closes it.
func (l *Lifecycle) CloseDay(ctx context.Context, user *model.User) (*CloseResult, error) {
	var result *CloseResult
	err := l.store.WithinTx(ctx, func(tx *repository.Store) error {
		day, err := tx.Sessions.OpenDay(ctx, user.ID)
		if errors.Is(err, repository.ErrNotFound) {
			return conflictf("no open day session")
		}
		if err != nil {
			return err
		}
		settings, err := tx.Settings.GetByUser(ctx, user.ID)
		if err != nil {
			return fmt.Errorf("load settings: %w", err)
		}

		scope := repository.DayScope(user.ID, day.ID)
		summary, err := settle(ctx, tx, settings, scope, scope)
		if err != nil {
			return err
		}

		day.Close(l.now())
		if err := tx.Sessions.CloseDay(ctx, day); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return conflictf("day session %d was closed concurrently", day.ID)
			}
			return err
		}

		result = &CloseResult{
			Kind:      PeriodDay,
			ID:        day.ID,
			StartedAt: day.StartedAt,
			ClosedAt:  *day.ClosedAt,
			Summary:   summary,
			Currency:  settings.Currency,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.logClosed(user, result)
	l.notifier.PeriodClosed(user.TelegramID, *result)
	return result, nil
}

// OpenWeek starts a week and plans every active weekly task in it. A week
// that is still open is closed first; its result is returned as previous and
// reported to the notifier as an automatic close.
func (l *Lifecycle) OpenWeek(ctx context.Context, user *model.User) (week *model.WeekSession, previous *CloseResult, err error) {
	var planned int
	err = l.store.WithinTx(ctx, func(tx *repository.Store) error {
		current, err := tx.Sessions.OpenWeek(ctx, user.ID)
		switch {
		case err == nil:
			previous, err = l.closeWeek(ctx, tx, user, current)
			if err != nil {
				return err
			}
			previous.Auto = true
		case !errors.Is(err, repository.ErrNotFound):
			return err
		}

		week = &model.WeekSession{UserID: user.ID, StartedAt: l.now()}
		if err := tx.Sessions.CreateWeek(ctx, week); err != nil {
			return fromRepo(err, "open week session")
		}
		insts, err := materialize(ctx, tx, user.ID, model.KindWeekly, PeriodRef{WeekID: week.ID})
		planned = len(insts)
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	if previous != nil {
		l.logClosed(user, previous)
		l.notifier.PeriodClosed(user.TelegramID, *previous)
	}
	l.log.Info().Uint("user_id", user.ID).Uint("week_id", week.ID).Int("planned", planned).Msg("week opened")
	return week, previous, nil
}

// CloseWeek settles the open week's planned weekly instances and closes it.
// Backlog instances enrolled into the week stay planned.
func (l *Lifecycle) CloseWeek(ctx context.Context, user *model.User) (*CloseResult, error) {
	var result *CloseResult
	err := l.store.WithinTx(ctx, func(tx *repository.Store) error {
		week, err := tx.Sessions.OpenWeek(ctx, user.ID)
		if errors.Is(err, repository.ErrNotFound) {
			return conflictf("no open week session")
		}
		if err != nil {
			return err
		}
		result, err = l.closeWeek(ctx, tx, user, week)
		return err
	})
	if err != nil {
		return nil, err
	}

	l.logClosed(user, result)
	l.notifier.PeriodClosed(user.TelegramID, *result)
	return result, nil
}

func (l *Lifecycle) closeWeek(ctx context.Context, tx *repository.Store, user *model.User, week *model.WeekSession) (*CloseResult, error) {
	settings, err := tx.Settings.GetByUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	scope := repository.WeekScope(user.ID, week.ID)
	summary, err := settle(ctx, tx, settings, scope.OfKind(model.KindWeekly), scope)
	if err != nil {
		return nil, err
	}

	week.Close(l.now())
	if err := tx.Sessions.CloseWeek(ctx, week); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, conflictf("week session %d was closed concurrently", week.ID)
		}
		return nil, err
	}

	return &CloseResult{
		Kind:      PeriodWeek,
		ID:        week.ID,
		StartedAt: week.StartedAt,
		ClosedAt:  *week.ClosedAt,
		Summary:   summary,
		Currency:  settings.Currency,
	}, nil
}

// Current returns the user's open day and week.
func (l *Lifecycle) Current(ctx context.Context, userID uint) (Dashboard, error) {
	var dash Dashboard
	day, err := l.store.Sessions.OpenDay(ctx, userID)
	switch {
	case err == nil:
		dash.Day = day
	case !errors.Is(err, repository.ErrNotFound):
		return Dashboard{}, err
	}
	week, err := l.store.Sessions.OpenWeek(ctx, userID)
	switch {
	case err == nil:
		dash.Week = week
	case !errors.Is(err, repository.ErrNotFound):
		return Dashboard{}, err
	}
	return dash, nil
}

func (l *Lifecycle) logClosed(user *model.User, r *CloseResult) {
	l.log.Info().
		Uint("user_id", user.ID).
		Str("period", string(r.Kind)).
		Uint("period_id", r.ID).
		Bool("auto", r.Auto).
		Int64("done", r.Summary.Done).
		Int64("canceled", r.Summary.Canceled).
		Int64("failed", r.Summary.Failed).
		Str("total_penalty", r.Summary.TotalPenalty.String()).
		Msg("period closed")
}
