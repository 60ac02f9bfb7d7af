package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"routine-planner/internal/model"
	"routine-planner/internal/repository"
)

// TextSender delivers a plain chat message. Delivery is best effort.
type TextSender interface {
	SendText(chatID int64, text string)
}

// ReminderService builds and sends the reminder about still-planned
// instances of open days.
type ReminderService struct {
	store  *repository.Store
	sender TextSender
	log    zerolog.Logger
}

func NewReminderService(store *repository.Store, sender TextSender, log zerolog.Logger) *ReminderService {
	return &ReminderService{
		store:  store,
		sender: sender,
		log:    log.With().Str("component", "reminder").Logger(),
	}
}

// DaySummary describes the user's open day. ok is false when no day is open
// or nothing in it is still planned.
func (s *ReminderService) DaySummary(ctx context.Context, user model.User, now time.Time) (text string, ok bool, err error) {
	day, err := s.store.Sessions.OpenDay(ctx, user.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	planned, err := s.store.Instances.ListPlanned(ctx, repository.DayScope(user.ID, day.ID))
	if err != nil {
		return "", false, err
	}
	if len(planned) == 0 {
		return "", false, nil
	}

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("Reminder for %s\n", now.Format("2006-01-02")))
	builder.WriteString(fmt.Sprintf("Day #%d is open since %s.\n", day.ID, day.StartedAt.In(now.Location()).Format("15:04")))
	builder.WriteString(fmt.Sprintf("Still planned (%d):\n", len(planned)))
	for _, inst := range planned {
		builder.WriteString(formatPlanned(inst))
	}
	builder.WriteString("\nUnfinished items fail when the day is closed (/closeday).")
	return builder.String(), true, nil
}

// SendDayReminders messages every user who has an open day with planned
// work left. It returns how many reminders went out.
func (s *ReminderService) SendDayReminders(ctx context.Context, now time.Time) (int, error) {
	ids, err := s.store.Sessions.UsersWithOpenDay(ctx)
	if err != nil {
		return 0, err
	}
	users, err := s.store.Users.ListByIDs(ctx, ids)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, user := range users {
		text, ok, err := s.DaySummary(ctx, user, now)
		if err != nil {
			s.log.Error().Err(err).Uint("user_id", user.ID).Msg("build reminder")
			continue
		}
		if !ok {
			continue
		}
		s.sender.SendText(user.TelegramID, text)
		sent++
	}
	s.log.Info().Int("sent", sent).Int("open_days", len(ids)).Msg("reminders dispatched")
	return sent, nil
}

func formatPlanned(inst model.Instance) string {
	title := "task"
	kind := model.KindDaily
	if inst.Task != nil {
		title = strings.TrimSpace(inst.Task.Title)
		kind = inst.Task.Kind
	}
	if kind == model.KindDaily {
		return fmt.Sprintf("• %s\n", title)
	}
	return fmt.Sprintf("• %s (%s)\n", title, kind)
}
