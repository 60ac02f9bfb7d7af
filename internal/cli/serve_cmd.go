package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/cobra"

	"routine-planner/internal/api"
	"routine-planner/internal/bot"
	"routine-planner/internal/config"
	"routine-planner/internal/logging"
	"routine-planner/internal/notify"
	"routine-planner/internal/service"
)

const (
	shutdownTimeout = 10 * time.Second
	reminderTimeout = 30 * time.Second
)

func newServeCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, the Telegram bot and the reminder scheduler",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), app)
		},
	}
}

func serve(ctx context.Context, app *App) error {
	cfg := app.Config
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	log := app.Log

	var (
		botAPI *tgbotapi.BotAPI
		sender notify.Sender
	)
	if cfg.TelegramToken != "" {
		var err error
		botAPI, err = tgbotapi.NewBotAPI(cfg.TelegramToken)
		if err != nil {
			return fmt.Errorf("create bot api: %w", err)
		}
		log.Info().Str("account", botAPI.Self.UserName).Msg("bot authorized")
		sender = botAPI
	} else {
		log.Warn().Msg("TELEGRAM_TOKEN is empty: bot and notifications are disabled")
	}

	notifier := notify.New(sender, notify.Options{
		RatePerSec:  cfg.NotifyRatePerSec,
		SendTimeout: cfg.NotifyTimeout,
	}, log)
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		notifier.Close(closeCtx)
	}()
	app.Lifecycle = service.NewLifecycle(app.Store, notifier, log)

	if cfg.ReminderTime != "" {
		reminders := service.NewReminderService(app.Store, notifier, log)
		scheduler := service.NewSchedulerService(time.Local, log)
		if _, err := scheduler.ScheduleDaily(cfg.ReminderTime, func() {
			jobCtx, cancel := context.WithTimeout(ctx, reminderTimeout)
			defer cancel()
			if _, err := reminders.SendDayReminders(jobCtx, time.Now()); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("day reminders")
			}
		}); err != nil {
			return fmt.Errorf("schedule reminders: %w", err)
		}
		scheduler.Start()
		defer scheduler.Stop()
		log.Info().Str("at", cfg.ReminderTime).Msg("day reminders scheduled")
	}

	if cfg.ConfigFile != "" {
		go func() {
			err := config.Watch(ctx, cfg.ConfigFile, log, func(next config.Config) {
				logging.SetLevel(next.LogLevel)
				log.Info().Str("level", next.LogLevel).Msg("log level reloaded")
			})
			if err != nil {
				log.Warn().Err(err).Str("path", cfg.ConfigFile).Msg("config watch stopped")
			}
		}()
	}

	if botAPI != nil {
		telegramBot := bot.New(botAPI, bot.Services{
			Lifecycle: app.Lifecycle,
			Instances: app.Instances,
			Tasks:     app.Tasks,
			Stats:     app.Stats,
			Users:     app.Users,
		}, cfg.MiniAppURL, log)
		go func() {
			if err := telegramBot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("bot stopped")
			}
		}()
	}

	handler := api.NewHandler(app.Users, api.Services{
		Lifecycle: app.Lifecycle,
		Instances: app.Instances,
		Tasks:     app.Tasks,
		Settings:  app.Settings,
		Stats:     app.Stats,
	}, log)
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.NewRouter(handler, []string{"*"}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	log.Info().Msg("shutdown complete")
	return nil
}
