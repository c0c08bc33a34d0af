package cli

import (
	"context"
	"errors"
	"slices"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/radieske/auraflow/internal/notify"
	"github.com/radieske/auraflow/internal/shared/config"
	sharedkafka "github.com/radieske/auraflow/internal/shared/kafka"
	"github.com/radieske/auraflow/internal/shared/logger"
)

func NewNotificationsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notifications",
		Short: "Inspect the notification stream",
	}
	cmd.AddCommand(newNotificationsTailCommand(rootOpts))
	return cmd
}

func newNotificationsTailCommand(rootOpts *RootOptions) *cobra.Command {
	var types []string

	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Follow notifications published to Kafka by the serve process",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if cfg.KafkaBrokers == "" {
				return errors.New("KAFKA_BROKERS is not set")
			}
			log, err := logger.New(cfg.ServiceName, cfg.Env)
			if err != nil {
				return err
			}
			defer log.Sync()

			r := sharedkafka.NewReader(cfg.KafkaBrokers, cfg.TopicNotifications, cfg.NotificationsConsumerID)
			defer r.Close()
			log.Info("tailing notifications", zap.String("topic", cfg.TopicNotifications))

			p := newPrinter(rootOpts, cmd.OutOrStdout())
			ctx := cmd.Context()
			for {
				_, value, err := sharedkafka.ReadNext(ctx, r)
				if err != nil {
					if ctx.Err() != nil || errors.Is(err, context.Canceled) {
						return nil
					}
					return err
				}
				n, payload, err := notify.Decode(value)
				if err != nil {
					log.Warn("skip undecodable message", zap.Error(err))
					continue
				}
				if len(types) > 0 && !slices.Contains(types, n.Type) {
					continue
				}
				if p.json() {
					if err := p.JSON(n); err != nil {
						return err
					}
					continue
				}
				p.Line("%s  %-20s %s", stamp(n.At), n.Type, payload)
			}
		},
	}

	cmd.Flags().StringSliceVarP(&types, "type", "t", nil, "only these notification types (e.g. bet:placed)")
	return cmd
}
