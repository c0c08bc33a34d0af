package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/radieske/auraflow/internal/registry"
	"github.com/radieske/auraflow/internal/shared/apperr"
	"github.com/radieske/auraflow/internal/store"
)

func NewEventsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "List, create, delete and resolve betting events",
	}

	cmd.AddCommand(newEventsListCommand(rootOpts))
	cmd.AddCommand(newEventsCreateCommand(rootOpts))
	cmd.AddCommand(newEventsDeleteCommand(rootOpts))
	cmd.AddCommand(newEventsResolveCommand(rootOpts))
	return cmd
}

func newEventsListCommand(rootOpts *RootOptions) *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List active events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := newPrinter(rootOpts, cmd.OutOrStdout())
			return withRuntime(cmd.Context(), func(rt *runtime) error {
				list, err := rt.app.Registry.ListActive(cmd.Context(), category)
				if err != nil {
					return err
				}
				if p.json() {
					if list == nil {
						list = []store.BettingEvent{}
					}
					return p.JSON(list)
				}
				rows := make([][]string, 0, len(list))
				for _, ev := range list {
					custom := ""
					if ev.IsCustom {
						custom = "yes"
					}
					rows = append(rows, []string{itoa(ev.ID), ev.Category, ev.Title, ftoa(ev.OddsYes), ftoa(ev.OddsNo), custom})
				}
				p.Table([]string{"ID", "Category", "Title", "Yes", "No", "Custom"}, rows)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&category, "category", "c", registry.CategoryAll, "filter by category")
	return cmd
}

func newEventsCreateCommand(rootOpts *RootOptions) *cobra.Command {
	var ne registry.NewEvent

	cmd := &cobra.Command{
		Use:   "create <title>",
		Short: "Create a custom event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ne.Title = args[0]
			p := newPrinter(rootOpts, cmd.OutOrStdout())
			return withRuntime(cmd.Context(), func(rt *runtime) error {
				ev, err := rt.app.Registry.CreateEvent(cmd.Context(), ne)
				if err != nil {
					return err
				}
				if p.json() {
					return p.JSON(ev)
				}
				p.Line("event %d created: %s (yes %s / no %s)", ev.ID, ev.Title, ftoa(ev.OddsYes), ftoa(ev.OddsNo))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&ne.Category, "category", "c", "Custom", "event category")
	cmd.Flags().StringVarP(&ne.Description, "description", "d", "", "event description")
	cmd.Flags().Float64Var(&ne.OddsYes, "yes", 0.5, "implied probability of yes")
	cmd.Flags().Float64Var(&ne.OddsNo, "no", 0.5, "implied probability of no")
	return cmd
}

func newEventsDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <event-id>",
		Short: "Delete a custom event without bets",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			p := newPrinter(rootOpts, cmd.OutOrStdout())
			return withRuntime(cmd.Context(), func(rt *runtime) error {
				if err := rt.app.Registry.DeleteEvent(cmd.Context(), id); err != nil {
					return err
				}
				if p.json() {
					return p.JSON(map[string]int64{"deleted": id})
				}
				p.Line("event %d deleted", id)
				return nil
			})
		},
	}
}

func newEventsResolveCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <event-id> <yes|no>",
		Short: "Resolve an event and settle its pending bets",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			p := newPrinter(rootOpts, cmd.OutOrStdout())
			return withRuntime(cmd.Context(), func(rt *runtime) error {
				res, err := rt.app.Wagers.ResolveEvent(cmd.Context(), id, args[1])
				if err != nil {
					return err
				}
				if p.json() {
					return p.JSON(res)
				}
				p.Line("%s resolved %s: %d won, %d lost, %d coins paid out",
					res.EventTitle, res.WinningSide, res.WonCount, res.LostCount, res.TotalPayout)
				return nil
			})
		},
	}
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.InvalidInput("invalid event id " + strconv.Quote(s))
	}
	return id, nil
}
