// Package app monta o núcleo (store, ledger, registry, apostas, sessões e histórico)
// a partir da config. É usado tanto pelo serve quanto pelos comandos avulsos da CLI.
package app

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/radieske/auraflow/internal/history"
	"github.com/radieske/auraflow/internal/ledger"
	"github.com/radieske/auraflow/internal/notify"
	"github.com/radieske/auraflow/internal/registry"
	"github.com/radieske/auraflow/internal/session"
	"github.com/radieske/auraflow/internal/shared/cache"
	"github.com/radieske/auraflow/internal/shared/clock"
	"github.com/radieske/auraflow/internal/shared/config"
	"github.com/radieske/auraflow/internal/shared/metrics"
	"github.com/radieske/auraflow/internal/store"
	"github.com/radieske/auraflow/internal/wager"
)

// Deps são as peças de infraestrutura que o chamador abre e fecha
type Deps struct {
	Config config.Config
	Store  *store.Store
	States session.StateStore
	Clock  clock.Clock
	// destinos extras (hub, Redis, Kafka); o Bus interno sempre recebe
	Notifier notify.Notifier
	Metrics  *metrics.Collectors
	Log      *zap.Logger
}

// App agrupa os componentes do núcleo já ligados entre si
type App struct {
	Store    *store.Store
	Bus      *notify.Bus
	Metrics  *metrics.Collectors
	Ledger   *ledger.Ledger
	Registry *registry.Registry
	Wagers   *wager.Engine
	Sessions *session.Engine
	History  *history.Service

	log *zap.Logger
}

func New(d Deps) *App {
	if d.Clock == nil {
		d.Clock = clock.System{}
	}
	if d.Log == nil {
		d.Log = zap.NewNop()
	}

	bus := notify.NewBus()
	n := notify.Multi{bus, d.Notifier}

	cfg := d.Config
	led := ledger.New(d.Store, d.Clock, n, d.Metrics, d.Log, cfg.StartingBalance)
	limits := wager.Limits{DefaultBet: cfg.DefaultBet, MinBet: cfg.MinBet, MaxBet: cfg.MaxBet}

	return &App{
		Store:    d.Store,
		Bus:      bus,
		Metrics:  d.Metrics,
		Ledger:   led,
		Registry: registry.New(d.Store, d.Clock, n, d.Log),
		Wagers:   wager.New(d.Store, led, d.Clock, n, d.Metrics, d.Log, limits),
		Sessions: session.New(d.Store, led, d.States, d.Clock, n, d.Metrics, d.Log, cfg.GracePeriod),
		History:  history.New(d.Store),
		log:      d.Log,
	}
}

// Bootstrap semeia os eventos embutidos (só em catálogo vazio), sincroniza o gauge
// de saldo e resolve a sessão deixada em andamento pelo processo anterior
func (a *App) Bootstrap(ctx context.Context) (session.Recovery, error) {
	seeded, err := a.Registry.SeedBuiltins(ctx)
	if err != nil {
		return session.RecoveryNone, fmt.Errorf("seed events: %w", err)
	}
	if seeded > 0 {
		a.log.Info("built-in events seeded", zap.Int("count", seeded))
	}

	if b, err := a.Ledger.Balance(ctx); err == nil {
		a.Metrics.SetBalance(b)
	}

	rec, err := a.Sessions.Recover(ctx)
	if err != nil {
		return rec, fmt.Errorf("recover session: %w", err)
	}
	if rec != session.RecoveryNone {
		a.log.Info("running session recovered", zap.String("recovery", string(rec)))
	}
	return rec, nil
}

// OpenStore abre o store apontado por STORE_URL
func OpenStore(ctx context.Context, cfg config.Config, clk clock.Clock) (*store.Store, error) {
	return store.Open(ctx, cfg.StoreURL, cfg.StartingBalance, clk)
}

// ConnectRedis retorna nil sem erro quando REDIS_ADDR está vazio
func ConnectRedis(ctx context.Context, cfg config.Config) (*redis.Client, error) {
	if cfg.RedisAddr == "" {
		return nil, nil
	}
	return cache.ConnectRedis(ctx, cfg.RedisAddr)
}

// StateStore escolhe onde fica o registro da sessão em andamento
func StateStore(cfg config.Config, rdb *redis.Client) (session.StateStore, error) {
	switch cfg.TimerStateBackend {
	case "", "file":
		return session.NewFileStateStore(cfg.TimerStatePath), nil
	case "redis":
		if rdb == nil {
			return nil, fmt.Errorf("timer state backend redis requires REDIS_ADDR")
		}
		return session.NewRedisStateStore(rdb, cfg.TimerStateKey), nil
	default:
		return nil, fmt.Errorf("unknown timer state backend %q", cfg.TimerStateBackend)
	}
}
