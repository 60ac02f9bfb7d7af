package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"routine-planner/internal/model"
	"routine-planner/internal/service"
)

func newStatsCmd(app *App) *cobra.Command {
	var who userFlag
	var period string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show failed items and total penalty",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := who.resolve(cmd, app)
			if err != nil {
				return err
			}
			st, err := app.Stats.PenaltySummary(cmd.Context(), user.ID, service.StatsPeriod(period))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Period: %s\nFailed: %d\nTotal penalty: %s\n",
				st.Period, st.FailedCount, st.TotalPenalty.StringFixed(2))
			return nil
		},
	}
	who.register(cmd)
	cmd.PersistentFlags().StringVar(&period, "period", string(service.StatsDays), "days, weeks or months")

	details := &cobra.Command{
		Use:   "details",
		Short: "Show per-status counts and the item rows behind the stats",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := who.resolve(cmd, app)
			if err != nil {
				return err
			}
			d, err := app.Stats.Details(cmd.Context(), user.ID, service.StatsPeriod(period))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Period: %s\nTotal penalty: %s\n", d.Period, d.TotalPenalty.StringFixed(2))
			for _, s := range []model.InstanceStatus{model.StatusPlanned, model.StatusDone, model.StatusCanceled, model.StatusFailed} {
				fmt.Fprintf(out, "%s: %d\n", s, d.StatusCounts[s])
			}
			if len(d.Rows) == 0 {
				return nil
			}
			fmt.Fprintln(out)
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "STARTED\tTASK\tSTATUS\tPENALTY")
			for _, row := range d.Rows {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", row.StartedAt.Format(timeLayout), row.TaskTitle, row.Status, row.Penalty.StringFixed(2))
			}
			return w.Flush()
		},
	}

	var yes bool
	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete all items, days and weeks of the user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("%w: pass --yes to delete the history", service.ErrInvalidInput)
			}
			user, err := who.resolve(cmd, app)
			if err != nil {
				return err
			}
			if err := app.Stats.Clear(cmd.Context(), user.ID); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "History cleared.")
			return nil
		},
	}
	clearCmd.Flags().BoolVar(&yes, "yes", false, "confirm deletion")

	cmd.AddCommand(details, clearCmd)
	return cmd
}
