package cli

import (
	"github.com/spf13/cobra"

	"github.com/radieske/auraflow/internal/api/dto"
	"github.com/radieske/auraflow/internal/session"
	"github.com/radieske/auraflow/internal/shared/apperr"
)

func NewBalanceCommand(rootOpts *RootOptions) *cobra.Command {
	var tape int

	cmd := &cobra.Command{
		Use:   "balance",
		Short: "Show the coin balance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := newPrinter(rootOpts, cmd.OutOrStdout())
			return withRuntime(cmd.Context(), func(rt *runtime) error {
				b, err := rt.app.Ledger.Balance(cmd.Context())
				if err != nil {
					return err
				}
				if tape <= 0 {
					if p.json() {
						return p.JSON(dto.BalanceResponse{Balance: b})
					}
					p.Line("%d coins", b)
					return nil
				}

				entries, err := rt.app.History.Tape(cmd.Context(), tape)
				if err != nil {
					return err
				}
				if p.json() {
					return p.JSON(entries)
				}
				p.Line("%d coins", b)
				rows := make([][]string, 0, len(entries))
				for _, e := range entries {
					rows = append(rows, []string{itoa(e.ID), stamp(e.CreatedAt), e.Reason, e.Ref, itoa(e.Delta), itoa(e.BalanceAfter)})
				}
				p.Table([]string{"ID", "When", "Reason", "Ref", "Delta", "Balance"}, rows)
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&tape, "tape", 0, "also show the last N ledger entries")
	return cmd
}

func NewStatsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show totals and analytics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := newPrinter(rootOpts, cmd.OutOrStdout())
			return withRuntime(cmd.Context(), func(rt *runtime) error {
				st, err := rt.app.History.Statistics(cmd.Context())
				if err != nil {
					return err
				}
				an, err := rt.app.History.Analytics(cmd.Context())
				if err != nil {
					return err
				}
				if p.json() {
					return p.JSON(map[string]any{"statistics": st, "analytics": an})
				}
				p.KV([][]string{
					{"Total earned", itoa(st.TotalEarned)},
					{"Total spent", itoa(st.TotalSpent)},
					{"Total winnings", itoa(st.TotalWinnings)},
					{"Net profit", itoa(st.NetProfit)},
					{"Sessions", itoa(an.TotalSessions)},
					{"Completion rate", ftoa(an.CompletionRate) + "%"},
					{"Avg session (min)", ftoa(an.AvgCompletedDuration)},
					{"Bets", itoa(an.TotalBets)},
					{"Win rate", ftoa(an.WinRate) + "%"},
					{"Avg bet", ftoa(an.AvgBetAmount)},
					{"Median bet", ftoa(an.MedianBetAmount)},
					{"ROI", ftoa(an.ROI) + "%"},
				})
				return nil
			})
		},
	}
}

func NewResetCommand(rootOpts *RootOptions) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Wipe sessions and bets and reset the balance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return apperr.InvalidInput("reset wipes all sessions and bets; pass --yes to confirm")
			}
			p := newPrinter(rootOpts, cmd.OutOrStdout())
			return withRuntime(cmd.Context(), func(rt *runtime) error {
				if rt.app.Sessions.State().Status == session.StatusRunning {
					return apperr.InvalidInput("stop the running session before resetting")
				}
				b, err := rt.app.Ledger.Reset(cmd.Context())
				if err != nil {
					return err
				}
				if p.json() {
					return p.JSON(dto.ResetResponse{Balance: b})
				}
				p.Line("data wiped, balance is %d coins", b)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the wipe")
	return cmd
}
