// Package cli implementa o binário auraflow: o serve e os comandos avulsos
// que operam direto sobre o store configurado.
package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"
)

// RootOptions guarda as flags globais
type RootOptions struct {
	Format string // "text" | "json"
}

var ValidFormats = []string{"text", "json"}

func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "auraflow",
		Short: "auraflow - focus timer and prediction market",
		Long: `Focus sessions earn coins; coins are wagered on yes/no events.

Configuration comes from the environment (or a .env file): STORE_URL,
TIMER_STATE_BACKEND, REDIS_ADDR, KAFKA_BROKERS, HTTP_PORT and friends.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewServeCommand())
	cmd.AddCommand(NewBalanceCommand(opts))
	cmd.AddCommand(NewEventsCommand(opts))
	cmd.AddCommand(NewBetCommand(opts))
	cmd.AddCommand(NewSessionCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))
	cmd.AddCommand(NewStatsCommand(opts))
	cmd.AddCommand(NewResetCommand(opts))
	cmd.AddCommand(NewNotificationsCommand(opts))

	return cmd
}
