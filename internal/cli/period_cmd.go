package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"routine-planner/internal/notify"
	"routine-planner/internal/service"
)

func newDayCmd(app *App) *cobra.Command {
	var who userFlag
	cmd := &cobra.Command{
		Use:   "day",
		Short: "Open or close the day session",
	}
	who.register(cmd)

	cmd.AddCommand(
		&cobra.Command{
			Use:   "open",
			Short: "Open a day and plan all active daily tasks",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				user, err := who.resolve(cmd, app)
				if err != nil {
					return err
				}
				day, err := app.Lifecycle.OpenDay(cmd.Context(), user)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Day #%d opened at %s\n", day.ID, day.StartedAt.Format(timeLayout))
				return nil
			},
		},
		&cobra.Command{
			Use:   "close",
			Short: "Close the day; planned items fail with their penalty",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				user, err := who.resolve(cmd, app)
				if err != nil {
					return err
				}
				result, err := app.Lifecycle.CloseDay(cmd.Context(), user)
				if err != nil {
					return err
				}
				printClose(cmd.OutOrStdout(), *result)
				return nil
			},
		},
	)
	return cmd
}

func newWeekCmd(app *App) *cobra.Command {
	var who userFlag
	cmd := &cobra.Command{
		Use:   "week",
		Short: "Open or close the week session",
	}
	who.register(cmd)

	cmd.AddCommand(
		&cobra.Command{
			Use:   "open",
			Short: "Open a week, closing the previous one if needed",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				user, err := who.resolve(cmd, app)
				if err != nil {
					return err
				}
				week, previous, err := app.Lifecycle.OpenWeek(cmd.Context(), user)
				if err != nil {
					return err
				}
				if previous != nil {
					printClose(cmd.OutOrStdout(), *previous)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Week #%d opened at %s\n", week.ID, week.StartedAt.Format(timeLayout))
				return nil
			},
		},
		&cobra.Command{
			Use:   "close",
			Short: "Close the week; planned weekly items fail with their penalty",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				user, err := who.resolve(cmd, app)
				if err != nil {
					return err
				}
				result, err := app.Lifecycle.CloseWeek(cmd.Context(), user)
				if err != nil {
					return err
				}
				printClose(cmd.OutOrStdout(), *result)
				return nil
			},
		},
	)
	return cmd
}

const timeLayout = "2006-01-02 15:04"

// printClose prints the chat summary followed by the period bounds.
func printClose(w io.Writer, r service.CloseResult) {
	fmt.Fprintln(w, notify.CloseText(r))
	fmt.Fprintf(w, "Period: %s to %s\n", r.StartedAt.Format(timeLayout), r.ClosedAt.Format(timeLayout))
}
