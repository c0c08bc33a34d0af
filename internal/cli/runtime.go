package cli

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/radieske/auraflow/internal/app"
	"github.com/radieske/auraflow/internal/shared/clock"
	"github.com/radieske/auraflow/internal/shared/config"
	"github.com/radieske/auraflow/internal/shared/logger"
	"github.com/radieske/auraflow/internal/shared/metrics"
)

// runtime é o núcleo aberto para um comando avulso
type runtime struct {
	cfg config.Config
	log *zap.Logger
	app *app.App
	rdb *redis.Client
}

// openRuntime abre store e registro da sessão e roda o bootstrap (seed + recuperação).
// Métricas ficam num registry próprio: comandos avulsos não expõem /metrics.
func openRuntime(ctx context.Context) (*runtime, error) {
	cfg := config.Load()

	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		return nil, err
	}

	st, err := app.OpenStore(ctx, cfg, clock.System{})
	if err != nil {
		return nil, err
	}

	var rdb *redis.Client
	if cfg.TimerStateBackend == "redis" {
		if rdb, err = app.ConnectRedis(ctx, cfg); err != nil {
			st.Close()
			return nil, err
		}
	}

	states, err := app.StateStore(cfg, rdb)
	if err != nil {
		st.Close()
		return nil, err
	}

	a := app.New(app.Deps{
		Config:  cfg,
		Store:   st,
		States:  states,
		Metrics: metrics.New(prometheus.NewRegistry()),
		Log:     log,
	})
	rt := &runtime{cfg: cfg, log: log, app: a, rdb: rdb}
	if _, err := a.Bootstrap(ctx); err != nil {
		rt.Close()
		return nil, err
	}
	return rt, nil
}

func (rt *runtime) Close() error {
	var errs []error
	if rt.rdb != nil {
		errs = append(errs, rt.rdb.Close())
	}
	errs = append(errs, rt.app.Store.Close())
	_ = rt.log.Sync()
	return errors.Join(errs...)
}

// withRuntime abre o núcleo, roda fn e fecha tudo
func withRuntime(ctx context.Context, fn func(rt *runtime) error) error {
	rt, err := openRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()
	return fn(rt)
}
