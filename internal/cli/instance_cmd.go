package cli

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"routine-planner/internal/model"
	"routine-planner/internal/service"
)

func newInstancesCmd(app *App) *cobra.Command {
	var who userFlag
	cmd := &cobra.Command{
		Use:   "instances",
		Short: "Inspect and resolve planned items",
	}
	who.register(cmd)

	var scope string
	list := &cobra.Command{
		Use:   "list",
		Short: "List items of the open day, the open week or the history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := who.resolve(cmd, app)
			if err != nil {
				return err
			}
			items, err := app.Instances.List(cmd.Context(), user.ID, scope)
			if err != nil {
				return err
			}
			if len(items) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No items.")
				return nil
			}
			return printInstances(cmd.OutOrStdout(), items)
		},
	}
	list.Flags().StringVar(&scope, "scope", service.ScopeToday, "today, week or history")

	status := &cobra.Command{
		Use:   "status <instance-id> <planned|done|canceled|failed>",
		Short: "Set the status of one item",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			user, err := who.resolve(cmd, app)
			if err != nil {
				return err
			}
			inst, err := app.Instances.SetStatus(cmd.Context(), user.ID, id, model.InstanceStatus(args[1]))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Item #%d is %s%s\n", inst.ID, inst.Status, penaltySuffix(*inst))
			return nil
		},
	}

	cmd.AddCommand(list, status)
	return cmd
}

func newBacklogCmd(app *App) *cobra.Command {
	var who userFlag
	cmd := &cobra.Command{
		Use:   "backlog",
		Short: "Plan backlog tasks into the open day or week",
	}
	who.register(cmd)

	var scope string
	add := &cobra.Command{
		Use:   "add <task-id>",
		Short: "Add a backlog task to the open period",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			taskID, err := parseID(args[0])
			if err != nil {
				return err
			}
			user, err := who.resolve(cmd, app)
			if err != nil {
				return err
			}
			inst, err := app.Instances.EnrollBacklog(cmd.Context(), user.ID, taskID, scope)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Item #%d planned for task #%d\n", inst.ID, inst.TaskID)
			return nil
		},
	}
	add.Flags().StringVar(&scope, "scope", service.ScopeToday, "today or week")

	cmd.AddCommand(add)
	return cmd
}

func printInstances(out io.Writer, items []model.Instance) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTASK\tKIND\tSTATUS\tPENALTY\tCREATED")
	for _, inst := range items {
		title, kind := "", model.TaskKind("")
		if inst.Task != nil {
			title, kind = inst.Task.Title, inst.Task.Kind
		}
		penalty := "-"
		if inst.PenaltyApplied.Valid {
			penalty = inst.PenaltyApplied.Decimal.StringFixed(2)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n", inst.ID, title, kind, inst.Status, penalty, inst.CreatedAt.Format(timeLayout))
	}
	return w.Flush()
}

func penaltySuffix(inst model.Instance) string {
	if !inst.PenaltyApplied.Valid {
		return ""
	}
	return " (penalty " + inst.PenaltyApplied.Decimal.StringFixed(2) + ")"
}

func parseID(raw string) (uint, error) {
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || v == 0 {
		return 0, fmt.Errorf("%w: invalid id %q", service.ErrInvalidInput, raw)
	}
	return uint(v), nil
}
