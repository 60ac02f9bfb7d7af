package cli

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"routine-planner/internal/auth"
	"routine-planner/internal/config"
	"routine-planner/internal/model"
	"routine-planner/internal/repository"
	"routine-planner/internal/service"
)

// App holds the configuration, the store and every service the commands use.
type App struct {
	Config config.Config
	Store  *repository.Store
	Log    zerolog.Logger

	Users     *auth.Resolver
	Lifecycle *service.Lifecycle
	Instances *service.InstanceService
	Tasks     *service.TaskService
	Settings  *service.SettingsService
	Stats     *service.StatsService
}

// NewApp wires services over store. The lifecycle starts without a notifier;
// serve replaces it with one that talks to Telegram.
func NewApp(cfg config.Config, store *repository.Store, log zerolog.Logger) *App {
	return &App{
		Config: cfg,
		Store:  store,
		Log:    log,
		Users: auth.NewResolver(store, cfg.TelegramToken, cfg.DebugAllowFakeAuth, auth.Defaults{
			Currency:      cfg.DefaultCurrency,
			DailyPenalty:  cfg.DefaultDailyPenalty,
			WeeklyPenalty: cfg.DefaultWeeklyPenalty,
		}, log),
		Lifecycle: service.NewLifecycle(store, nil, log),
		Instances: service.NewInstanceService(store),
		Tasks:     service.NewTaskService(store),
		Settings:  service.NewSettingsService(store),
		Stats:     service.NewStatsService(store),
	}
}

// NewRootCmd creates the top-level "routineplanner" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "routineplanner",
		Short:         "Daily and weekly routine planner with penalties",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newServeCmd(app),
		newDayCmd(app),
		newWeekCmd(app),
		newInstancesCmd(app),
		newBacklogCmd(app),
		newStatsCmd(app),
		newTasksCmd(app),
	)

	return root
}

// userFlag binds --telegram-id on an operator command.
type userFlag struct {
	telegramID int64
}

func (f *userFlag) register(cmd *cobra.Command) {
	cmd.PersistentFlags().Int64Var(&f.telegramID, "telegram-id", 0, "Telegram user id to act as")
}

// resolve returns the local user for the flag, provisioning it on first use.
func (f *userFlag) resolve(cmd *cobra.Command, app *App) (*model.User, error) {
	if f.telegramID == 0 {
		return nil, errors.New("--telegram-id is required")
	}
	user, err := app.Users.Local(cmd.Context(), f.telegramID)
	if err != nil {
		return nil, fmt.Errorf("resolve user %d: %w", f.telegramID, err)
	}
	return user, nil
}
