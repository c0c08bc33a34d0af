package cli

import (
	"github.com/spf13/cobra"
)

func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Browse past sessions and bets",
	}

	cmd.AddCommand(newHistorySessionsCommand(rootOpts))
	cmd.AddCommand(newHistoryBetsCommand(rootOpts))
	return cmd
}

func newHistorySessionsCommand(rootOpts *RootOptions) *cobra.Command {
	var page int

	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List recorded sessions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := newPrinter(rootOpts, cmd.OutOrStdout())
			return withRuntime(cmd.Context(), func(rt *runtime) error {
				pg, err := rt.app.History.Sessions(cmd.Context(), page)
				if err != nil {
					return err
				}
				if p.json() {
					return p.JSON(pg)
				}
				rows := make([][]string, 0, len(pg.Items))
				for _, s := range pg.Items {
					rows = append(rows, []string{
						itoa(s.ID), stamp(s.StartTime), itoa(int64(s.DurationMinutes)), string(s.Status), itoa(s.CoinsEarned),
					})
				}
				p.Table([]string{"ID", "Started", "Minutes", "Status", "Coins"}, rows)
				p.Line("page %d of %d (%d sessions)", pg.Page, max(pg.TotalPages, 1), pg.Total)
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&page, "page", "p", 1, "page number")
	return cmd
}

func newHistoryBetsCommand(rootOpts *RootOptions) *cobra.Command {
	var page int

	cmd := &cobra.Command{
		Use:   "bets",
		Short: "List bets with their event, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := newPrinter(rootOpts, cmd.OutOrStdout())
			return withRuntime(cmd.Context(), func(rt *runtime) error {
				pg, err := rt.app.History.Wagers(cmd.Context(), page)
				if err != nil {
					return err
				}
				if p.json() {
					return p.JSON(pg)
				}
				rows := make([][]string, 0, len(pg.Items))
				for _, w := range pg.Items {
					rows = append(rows, []string{
						itoa(w.ID), stamp(w.CreatedAt), w.EventTitle, string(w.BetSide), itoa(w.BetAmount),
						ftoa(w.OddsAtBet), string(w.Outcome), itoa(w.NetProfit),
					})
				}
				p.Table([]string{"ID", "Placed", "Event", "Side", "Amount", "Odds", "Outcome", "Net"}, rows)
				p.Line("page %d of %d (%d bets)", pg.Page, max(pg.TotalPages, 1), pg.Total)
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&page, "page", "p", 1, "page number")
	return cmd
}
