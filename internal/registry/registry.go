// Package registry mantém os mercados sim/não: criação, remoção, listagem e as
// checagens usadas pelo motor de apostas dentro da transação dele.
package registry

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/radieske/auraflow/internal/notify"
	"github.com/radieske/auraflow/internal/shared/apperr"
	"github.com/radieske/auraflow/internal/shared/clock"
	"github.com/radieske/auraflow/internal/store"
	"github.com/radieske/auraflow/pkg/contracts/events"
)

//go:embed builtin_events.yaml
var builtinEventsYAML []byte

// Categories é o conjunto fechado aceito na criação
var Categories = []string{"Sports", "Tech", "Gaming", "Politics", "Custom"}

// CategoryAll desliga o filtro de categoria na listagem
const CategoryAll = "All"

// OddsTolerance é a folga aceita em |oddsYes + oddsNo - 1|
const OddsTolerance = 0.01

// NewEvent são os campos informados na criação de um evento
type NewEvent struct {
	Title       string  `json:"title" yaml:"title"`
	Category    string  `json:"category" yaml:"category"`
	Description string  `json:"description" yaml:"description"`
	OddsYes     float64 `json:"odds_yes" yaml:"odds_yes"`
	OddsNo      float64 `json:"odds_no" yaml:"odds_no"`
}

type Registry struct {
	store    *store.Store
	clock    clock.Clock
	notifier notify.Notifier
	log      *zap.Logger
}

func New(st *store.Store, clk clock.Clock, n notify.Notifier, log *zap.Logger) *Registry {
	if n == nil {
		n = notify.Nop{}
	}
	return &Registry{store: st, clock: clk, notifier: n, log: log}
}

// Validate aplica as regras de criação; erros são InvalidInput
func Validate(ne NewEvent) error {
	if strings.TrimSpace(ne.Title) == "" {
		return apperr.InvalidInput("Event title required")
	}
	if !slices.Contains(Categories, ne.Category) {
		return apperr.InvalidInput("Invalid category")
	}
	if ne.OddsYes <= 0 || ne.OddsYes >= 1 || ne.OddsNo <= 0 || ne.OddsNo >= 1 {
		return apperr.InvalidInput("Odds must be between 0 and 1")
	}
	if math.Abs(ne.OddsYes+ne.OddsNo-1) > OddsTolerance {
		return apperr.InvalidInput("Odds must sum to ~1.0")
	}
	return nil
}

// CreateEvent valida e grava um evento custom ativo
func (r *Registry) CreateEvent(ctx context.Context, ne NewEvent) (store.BettingEvent, error) {
	if err := Validate(ne); err != nil {
		return store.BettingEvent{}, err
	}

	ev := store.BettingEvent{
		Title:       strings.TrimSpace(ne.Title),
		Description: ne.Description,
		Category:    ne.Category,
		OddsYes:     ne.OddsYes,
		OddsNo:      ne.OddsNo,
		IsCustom:    true,
		IsActive:    true,
		CreatedAt:   r.clock.Now(),
	}
	err := r.store.WithTx(ctx, func(tx *store.Tx) error {
		id, err := tx.InsertEvent(ctx, ev)
		ev.ID = id
		return err
	})
	if err != nil {
		r.log.Error("create event failed", zap.Error(err))
		return store.BettingEvent{}, apperr.Persistence(err)
	}

	r.log.Info("event created", zap.Int64("event_id", ev.ID), zap.String("category", ev.Category))
	r.publish(ctx, events.New(events.TypeEventCreated, r.clock.Now(), events.EventCreated{
		EventID:  ev.ID,
		Title:    ev.Title,
		Category: ev.Category,
	}))
	return ev, nil
}

// DeleteEvent remove um evento custom sem apostas
func (r *Registry) DeleteEvent(ctx context.Context, id int64) error {
	err := r.store.WithTx(ctx, func(tx *store.Tx) error {
		n, err := tx.CountWagersForEvent(ctx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return apperr.InvalidInput("Cannot delete event with existing bets")
		}

		ev, err := tx.GetEvent(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			return apperr.EventUnavailable("Event not found")
		}
		if err != nil {
			return err
		}
		if !ev.IsCustom {
			return apperr.InvalidInput("Can only delete custom events")
		}
		return tx.DeleteEvent(ctx, id)
	})
	if err != nil {
		return apperr.Persistence(err)
	}

	r.log.Info("event deleted", zap.Int64("event_id", id))
	r.publish(ctx, events.New(events.TypeEventDeleted, r.clock.Now(), events.EventDeleted{EventID: id}))
	return nil
}

// ListActive lista os eventos ativos, mais novos primeiro; "" ou "All" não filtra
func (r *Registry) ListActive(ctx context.Context, category string) ([]store.BettingEvent, error) {
	if category == CategoryAll {
		category = ""
	}
	list, err := r.store.ListActiveEvents(ctx, category)
	if err != nil {
		return nil, apperr.Persistence(err)
	}
	return list, nil
}

// Get busca um evento qualquer (ativo ou resolvido)
func (r *Registry) Get(ctx context.Context, id int64) (store.BettingEvent, error) {
	ev, err := r.store.GetEvent(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return store.BettingEvent{}, apperr.EventUnavailable("Event not found")
	}
	if err != nil {
		return store.BettingEvent{}, apperr.Persistence(err)
	}
	return ev, nil
}

// ActiveEvent carrega o evento dentro da transação; precisa existir e estar ativo
func ActiveEvent(ctx context.Context, tx *store.Tx, id int64) (store.BettingEvent, error) {
	ev, err := tx.GetEvent(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return store.BettingEvent{}, apperr.EventUnavailable("Event not found or inactive")
	}
	if err != nil {
		return store.BettingEvent{}, err
	}
	if !ev.IsActive {
		return store.BettingEvent{}, apperr.EventUnavailable("Event not found or inactive")
	}
	return ev, nil
}

// ResolvableEvent exige evento ativo e sem resultado
func ResolvableEvent(ctx context.Context, tx *store.Tx, id int64) (store.BettingEvent, error) {
	ev, err := tx.GetEvent(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return store.BettingEvent{}, apperr.EventUnavailable("Event is already resolved or unavailable")
	}
	if err != nil {
		return store.BettingEvent{}, err
	}
	if !ev.IsActive || ev.Outcome != nil {
		return store.BettingEvent{}, apperr.EventUnavailable("Event is already resolved or unavailable")
	}
	return ev, nil
}

// MarkResolved grava o lado vencedor; deve ser o último passo da liquidação
func MarkResolved(ctx context.Context, tx *store.Tx, ev store.BettingEvent, side store.Side, clk clock.Clock) error {
	err := tx.MarkEventResolved(ctx, ev.ID, side, clk.Now())
	if errors.Is(err, store.ErrConflict) {
		return apperr.EventUnavailable("Event is already resolved or unavailable")
	}
	return err
}

type builtinFile struct {
	Events []NewEvent `yaml:"events"`
}

// Builtins decodifica os eventos padrão embutidos
func Builtins() ([]NewEvent, error) {
	var f builtinFile
	if err := yaml.Unmarshal(builtinEventsYAML, &f); err != nil {
		return nil, fmt.Errorf("decode builtin events: %w", err)
	}
	for i, ne := range f.Events {
		if err := Validate(ne); err != nil {
			return nil, fmt.Errorf("builtin event %d (%q): %w", i, ne.Title, err)
		}
	}
	return f.Events, nil
}

// SeedBuiltins grava os eventos padrão se ainda não houver nenhum evento.
// Retorna quantos foram criados.
func (r *Registry) SeedBuiltins(ctx context.Context) (int, error) {
	builtins, err := Builtins()
	if err != nil {
		return 0, err
	}

	created := 0
	err = r.store.WithTx(ctx, func(tx *store.Tx) error {
		n, err := tx.CountEvents(ctx)
		if err != nil {
			return err
		}
		if n > 0 {
			return nil
		}
		now := r.clock.Now()
		for _, ne := range builtins {
			if _, err := tx.InsertEvent(ctx, store.BettingEvent{
				Title:       ne.Title,
				Description: ne.Description,
				Category:    ne.Category,
				OddsYes:     ne.OddsYes,
				OddsNo:      ne.OddsNo,
				CreatedAt:   now,
			}); err != nil {
				return err
			}
			created++
		}
		return nil
	})
	if err != nil {
		return 0, apperr.Persistence(err)
	}
	if created > 0 {
		r.log.Info("builtin events seeded", zap.Int("count", created))
	}
	return created, nil
}

func (r *Registry) publish(ctx context.Context, n events.Notification) {
	if err := r.notifier.Publish(ctx, n); err != nil {
		r.log.Warn("publish notification failed", zap.String("type", n.Type), zap.Error(err))
	}
}
