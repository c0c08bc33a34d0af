package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	httpapi "github.com/radieske/auraflow/internal/api/http"
	"github.com/radieske/auraflow/internal/app"
	"github.com/radieske/auraflow/internal/notify"
	"github.com/radieske/auraflow/internal/scheduler"
	"github.com/radieske/auraflow/internal/shared/clock"
	"github.com/radieske/auraflow/internal/shared/config"
	sharedkafka "github.com/radieske/auraflow/internal/shared/kafka"
	"github.com/radieske/auraflow/internal/shared/logger"
	"github.com/radieske/auraflow/internal/shared/metrics"
	"github.com/radieske/auraflow/pkg/contracts/events"
)

func NewServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, WebSocket stream, session ticker and metrics server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(parent context.Context) error {
	// carrega config
	cfg := config.Load()

	// inicia logger
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		return err
	}
	defer log.Sync()

	log.Info("starting service", zap.String("service", cfg.ServiceName), zap.String("env", cfg.Env))

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// store relacional (sqlite ou postgres via dburl)
	st, err := app.OpenStore(ctx, cfg, clock.System{})
	if err != nil {
		return err
	}
	defer st.Close()
	log.Info("store ready", zap.String("driver", st.Driver()), zap.Bool("fresh", st.Fresh()))

	// Redis é opcional: registro da sessão e fan-out entre instâncias
	rdb, err := app.ConnectRedis(ctx, cfg)
	if err != nil {
		return err
	}
	if rdb != nil {
		defer rdb.Close()
		log.Info("redis connected")
	}

	states, err := app.StateStore(cfg, rdb)
	if err != nil {
		return err
	}

	hub := notify.NewHub(nil, log)
	sinks := notify.Multi{}
	if rdb != nil {
		// o hub recebe via subscriber, inclusive o que esta instância publicou
		sinks = append(sinks, notify.NewRedisBroadcaster(rdb, cfg.RedisPubSubChannel))
		notify.StartRedisSubscriber(ctx, rdb, cfg.RedisPubSubChannel, hub, log)
	} else {
		sinks = append(sinks, hub)
	}

	if cfg.KafkaBrokers != "" {
		writer := sharedkafka.NewWriter(cfg.KafkaBrokers, cfg.TopicNotifications)
		defer writer.Close()
		sinks = append(sinks, notify.NewKafkaPublisher(writer, log, events.TypeTimerTick))
		log.Info("kafka writer ready", zap.String("topic", cfg.TopicNotifications))
	}

	m := metrics.New(prometheus.DefaultRegisterer)
	a := app.New(app.Deps{
		Config:   cfg,
		Store:    st,
		States:   states,
		Clock:    clock.System{},
		Notifier: sinks,
		Metrics:  m,
		Log:      log,
	})
	if _, err := a.Bootstrap(ctx); err != nil {
		return err
	}

	sched, err := scheduler.New(a.Sessions, a.Ledger, m, log)
	if err != nil {
		return err
	}
	sched.Start(ctx)
	defer sched.Stop()

	// sobe servidor de métricas e health
	metricsSrv := metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		if err := st.Ping(ctx); err != nil {
			return err
		}
		return a.Ledger.Conserved(ctx)
	})
	log.Info("metrics/health listening", zap.String("addr", metricsSrv.Addr))

	api := &httpapi.API{
		Log:      log,
		Ledger:   a.Ledger,
		Registry: a.Registry,
		Wagers:   a.Wagers,
		Sessions: a.Sessions,
		History:  a.History,
		Hub:      hub,
	}
	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           api.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info("http listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errc:
		return err
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = metricsSrv.Shutdown(shutdownCtx)
	return srv.Shutdown(shutdownCtx)
}
