// Package wager registra apostas com odd travada e liquida eventos resolvidos.
package wager

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/radieske/auraflow/internal/ledger"
	"github.com/radieske/auraflow/internal/notify"
	"github.com/radieske/auraflow/internal/registry"
	"github.com/radieske/auraflow/internal/shared/apperr"
	"github.com/radieske/auraflow/internal/shared/clock"
	"github.com/radieske/auraflow/internal/shared/metrics"
	"github.com/radieske/auraflow/internal/store"
	"github.com/radieske/auraflow/pkg/contracts/events"
)

// Limits são as regras de valor de aposta
type Limits struct {
	DefaultBet int64
	MinBet     int64
	MaxBet     int64
}

// DefaultLimits: 40 por padrão, entre 10 e 1000
var DefaultLimits = Limits{DefaultBet: 40, MinBet: 10, MaxBet: 1000}

type Engine struct {
	store    *store.Store
	ledger   *ledger.Ledger
	clock    clock.Clock
	notifier notify.Notifier
	metrics  *metrics.Collectors
	log      *zap.Logger
	limits   Limits
}

func New(st *store.Store, led *ledger.Ledger, clk clock.Clock, n notify.Notifier, m *metrics.Collectors, log *zap.Logger, limits Limits) *Engine {
	if n == nil {
		n = notify.Nop{}
	}
	return &Engine{
		store:    st,
		ledger:   led,
		clock:    clk,
		notifier: n,
		metrics:  m,
		log:      log,
		limits:   limits,
	}
}

// Limits retorna as regras de valor em uso
func (e *Engine) Limits() Limits { return e.limits }

// PlaceBet valida lado, valor, saldo e evento (nessa ordem), trava a odd corrente
// e grava a aposta pending junto com o débito, numa única transação.
// amount nil usa o valor padrão.
func (e *Engine) PlaceBet(ctx context.Context, eventID int64, side string, amount *int64) (store.Wager, error) {
	betSide, ok := store.ParseSide(side)
	if !ok {
		return store.Wager{}, e.fail(ctx, apperr.InvalidInput("Invalid bet side"))
	}

	betAmount := e.limits.DefaultBet
	if amount != nil {
		betAmount = *amount
	}
	if betAmount <= 0 || betAmount < e.limits.MinBet || betAmount > e.limits.MaxBet {
		return store.Wager{}, e.fail(ctx, apperr.InvalidInput(
			fmt.Sprintf("Bet amount must be between %d and %d", e.limits.MinBet, e.limits.MaxBet)))
	}

	var (
		w     store.Wager
		ev    store.BettingEvent
		debit ledger.Change
	)
	err := e.store.WithTx(ctx, func(tx *store.Tx) error {
		bal, err := tx.GetBalance(ctx)
		if err != nil {
			return err
		}
		if bal.Amount < betAmount {
			return apperr.InsufficientFunds("Insufficient coins. Complete more work sessions!")
		}

		ev, err = registry.ActiveEvent(ctx, tx, eventID)
		if err != nil {
			return err
		}

		odds := ev.OddsFor(betSide)
		w = store.Wager{
			EventID:         ev.ID,
			BetAmount:       betAmount,
			BetSide:         betSide,
			OddsAtBet:       odds,
			PotentialPayout: float64(betAmount) / odds,
			Outcome:         store.OutcomePending,
			CreatedAt:       e.clock.Now(),
		}
		if w.ID, err = tx.InsertWager(ctx, w); err != nil {
			return err
		}

		debit, err = e.ledger.Apply(ctx, tx, -betAmount, ledger.ReasonBet, fmt.Sprintf("wager:%d", w.ID))
		return err
	})
	if err != nil {
		return store.Wager{}, e.fail(ctx, apperr.Persistence(err))
	}

	e.ledger.Announce(ctx, debit)
	e.metrics.BetPlaced()
	e.log.Info("bet placed",
		zap.Int64("wager_id", w.ID),
		zap.Int64("event_id", ev.ID),
		zap.String("side", string(betSide)),
		zap.Int64("amount", betAmount),
		zap.Float64("odds", w.OddsAtBet),
	)
	e.publish(ctx, events.New(events.TypeBetPlaced, e.clock.Now(), events.BetPlaced{
		WagerID:         w.ID,
		EventID:         ev.ID,
		EventTitle:      ev.Title,
		BetSide:         string(betSide),
		BetAmount:       betAmount,
		OddsAtBet:       w.OddsAtBet,
		PotentialPayout: w.PotentialPayout,
	}))

	w.EventTitle = ev.Title
	w.EventCategory = ev.Category
	return w, nil
}

// Resolution resume a liquidação de um evento
type Resolution struct {
	EventID     int64         `json:"event_id"`
	EventTitle  string        `json:"event_title"`
	WinningSide store.Side    `json:"winning_side"`
	TotalPayout int64         `json:"total_payout"`
	WonCount    int           `json:"won_count"`
	LostCount   int           `json:"lost_count"`
	Wagers      []store.Wager `json:"wagers"`
}

// ResolveEvent liquida todas as apostas pendentes do evento (mais antigas primeiro),
// credita o total de prêmios uma única vez e marca o evento como resolvido.
// Tudo acontece em uma transação: uma falha não deixa nada liquidado pela metade.
func (e *Engine) ResolveEvent(ctx context.Context, eventID int64, winningSide string) (Resolution, error) {
	side, ok := store.ParseSide(winningSide)
	if !ok {
		return Resolution{}, e.fail(ctx, apperr.InvalidInput("Invalid event outcome"))
	}

	var (
		res    Resolution
		credit *ledger.Change
	)
	err := e.store.WithTx(ctx, func(tx *store.Tx) error {
		res = Resolution{EventID: eventID, WinningSide: side}
		credit = nil

		ev, err := registry.ResolvableEvent(ctx, tx, eventID)
		if err != nil {
			return err
		}
		res.EventTitle = ev.Title

		pending, err := tx.PendingWagersForEvent(ctx, eventID)
		if err != nil {
			return err
		}

		now := e.clock.Now()
		for _, w := range pending {
			settled := Settle(w, side)
			if err := tx.SettleWager(ctx, w.ID, settled.Outcome, settled.Winnings, settled.NetProfit, now); err != nil {
				return err
			}
			settled.ResolvedAt = &now
			res.Wagers = append(res.Wagers, settled)

			if settled.Outcome == store.OutcomeWon {
				res.TotalPayout += settled.Winnings
				res.WonCount++
			} else {
				res.LostCount++
			}
		}

		if res.TotalPayout > 0 {
			ch, err := e.ledger.Apply(ctx, tx, res.TotalPayout, ledger.ReasonPayout, fmt.Sprintf("event:%d", eventID))
			if err != nil {
				return err
			}
			credit = &ch
		}

		return registry.MarkResolved(ctx, tx, ev, side, e.clock)
	})
	if err != nil {
		switch apperr.KindOf(err) {
		case apperr.KindInvalidInput, apperr.KindEventUnavailable:
			return Resolution{}, e.fail(ctx, err)
		}
		e.log.Error("resolve event failed", zap.Int64("event_id", eventID), zap.Error(err))
		return Resolution{}, e.fail(ctx, apperr.ResolutionFailed(err))
	}

	if credit != nil {
		e.ledger.Announce(ctx, *credit)
	}
	e.metrics.EventResolved(res.TotalPayout)
	e.log.Info("event resolved",
		zap.Int64("event_id", eventID),
		zap.String("winning_side", string(side)),
		zap.Int64("total_payout", res.TotalPayout),
		zap.Int("won", res.WonCount),
		zap.Int("lost", res.LostCount),
	)
	e.publish(ctx, events.New(events.TypeEventResolved, e.clock.Now(), events.EventResolved{
		EventID:     eventID,
		EventTitle:  res.EventTitle,
		WinningSide: string(side),
		TotalPayout: res.TotalPayout,
		WonCount:    res.WonCount,
		LostCount:   res.LostCount,
	}))
	return res, nil
}

// Settle calcula o resultado de uma aposta contra o lado vencedor.
// Vencedor recebe floor(potentialPayout); perdedor perde o valor apostado.
func Settle(w store.Wager, winningSide store.Side) store.Wager {
	if w.BetSide == winningSide {
		w.Outcome = store.OutcomeWon
		w.Winnings = int64(math.Floor(w.PotentialPayout))
		w.NetProfit = w.Winnings - w.BetAmount
		return w
	}
	w.Outcome = store.OutcomeLost
	w.Winnings = 0
	w.NetProfit = -w.BetAmount
	return w
}

// fail publica bet:error e conta a falha; devolve err para o chamador
func (e *Engine) fail(ctx context.Context, err error) error {
	kind := apperr.KindOf(err)
	e.metrics.BetFailed(string(kind))
	e.log.Warn("bet operation rejected", zap.String("kind", string(kind)), zap.Error(err))
	e.publish(ctx, events.New(events.TypeBetError, e.clock.Now(), events.BetError{
		Kind:    string(kind),
		Message: apperr.Message(err),
	}))
	return err
}

func (e *Engine) publish(ctx context.Context, n events.Notification) {
	if err := e.notifier.Publish(ctx, n); err != nil {
		e.log.Warn("publish notification failed", zap.String("type", n.Type), zap.Error(err))
	}
}
