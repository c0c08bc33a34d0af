package cli

import (
	"github.com/spf13/cobra"
)

func NewBetCommand(rootOpts *RootOptions) *cobra.Command {
	var amount int64

	cmd := &cobra.Command{
		Use:   "bet <event-id> <yes|no>",
		Short: "Place a bet on an active event",
		Long: `Place a bet on an active event. The odds are locked at placement;
without --amount the default bet is used.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			var amt *int64
			if cmd.Flags().Changed("amount") {
				amt = &amount
			}
			p := newPrinter(rootOpts, cmd.OutOrStdout())
			return withRuntime(cmd.Context(), func(rt *runtime) error {
				w, err := rt.app.Wagers.PlaceBet(cmd.Context(), id, args[1], amt)
				if err != nil {
					return err
				}
				if p.json() {
					return p.JSON(w)
				}
				p.Line("bet %d placed: %d coins on %s at %s, potential payout %s",
					w.ID, w.BetAmount, w.BetSide, ftoa(w.OddsAtBet), ftoa(w.PotentialPayout))
				return nil
			})
		},
	}

	cmd.Flags().Int64VarP(&amount, "amount", "a", 0, "coins to wager")
	return cmd
}
