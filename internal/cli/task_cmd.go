package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"routine-planner/internal/model"
	"routine-planner/internal/service"
)

func newTasksCmd(app *App) *cobra.Command {
	var who userFlag
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "Manage task templates",
	}
	who.register(cmd)

	list := &cobra.Command{
		Use:   "list",
		Short: "List tasks in display order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := who.resolve(cmd, app)
			if err != nil {
				return err
			}
			tasks, err := app.Tasks.List(cmd.Context(), user.ID)
			if err != nil {
				return err
			}
			if len(tasks) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No tasks.")
				return nil
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTITLE\tKIND\tACTIVE\tPENALTY")
			for _, t := range tasks {
				penalty := "default"
				if t.PenaltyAmount.Valid {
					penalty = t.PenaltyAmount.Decimal.StringFixed(2)
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%t\t%s\n", t.ID, t.Title, t.Kind, t.IsActive, penalty)
			}
			return w.Flush()
		},
	}

	var (
		kind     string
		penalty  string
		inactive bool
	)
	add := &cobra.Command{
		Use:   "add <title>",
		Short: "Create a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := service.TaskInput{
				Title:    args[0],
				Kind:     model.TaskKind(kind),
				IsActive: !inactive,
			}
			if penalty != "" {
				amount, err := decimal.NewFromString(penalty)
				if err != nil {
					return fmt.Errorf("%w: penalty %q is not a number", service.ErrInvalidInput, penalty)
				}
				input.PenaltyAmount = decimal.NewNullDecimal(amount)
			}
			user, err := who.resolve(cmd, app)
			if err != nil {
				return err
			}
			task, err := app.Tasks.Create(cmd.Context(), user.ID, input)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Task #%d created (%s)\n", task.ID, task.Kind)
			return nil
		},
	}
	add.Flags().StringVar(&kind, "kind", string(model.KindDaily), "daily, weekly or backlog")
	add.Flags().StringVar(&penalty, "penalty", "", "penalty override; empty uses the settings default")
	add.Flags().BoolVar(&inactive, "inactive", false, "create the task inactive")

	cmd.AddCommand(list, add)
	return cmd
}
