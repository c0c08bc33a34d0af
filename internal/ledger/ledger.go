// Package ledger é a única porta de escrita do saldo.
// Todo delta vira uma linha em balance_ledger, então saldo == soma da fita.
package ledger

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/radieske/auraflow/internal/notify"
	"github.com/radieske/auraflow/internal/shared/apperr"
	"github.com/radieske/auraflow/internal/shared/clock"
	"github.com/radieske/auraflow/internal/shared/metrics"
	"github.com/radieske/auraflow/internal/store"
	"github.com/radieske/auraflow/pkg/contracts/events"
)

// Motivos gravados na fita
const (
	ReasonSessionReward = "session_reward"
	ReasonBet           = "bet"
	ReasonPayout        = "payout"
	ReasonAdjustment    = "adjustment"
	ReasonReset         = "reset"
)

// Change é um delta aplicado dentro de uma unidade de trabalho.
// Só deve ser anunciado (Announce) depois do commit.
type Change struct {
	Delta   int64
	Balance int64
	Reason  string
	Ref     string
}

type Ledger struct {
	store           *store.Store
	clock           clock.Clock
	notifier        notify.Notifier
	metrics         *metrics.Collectors
	log             *zap.Logger
	startingBalance int64
}

func New(st *store.Store, clk clock.Clock, n notify.Notifier, m *metrics.Collectors, log *zap.Logger, startingBalance int64) *Ledger {
	if n == nil {
		n = notify.Nop{}
	}
	return &Ledger{
		store:           st,
		clock:           clk,
		notifier:        n,
		metrics:         m,
		log:             log,
		startingBalance: startingBalance,
	}
}

// Balance lê o saldo persistido
func (l *Ledger) Balance(ctx context.Context) (int64, error) {
	b, err := l.store.GetBalance(ctx)
	if err != nil {
		return 0, apperr.Persistence(err)
	}
	return b.Amount, nil
}

// ApplyDelta aplica um delta com sinal em sua própria transação e anuncia o novo saldo
func (l *Ledger) ApplyDelta(ctx context.Context, amount int64, reason string) (int64, error) {
	var ch Change
	err := l.store.WithTx(ctx, func(tx *store.Tx) error {
		var err error
		ch, err = l.Apply(ctx, tx, amount, reason, "")
		return err
	})
	if err != nil {
		return 0, apperr.Persistence(err)
	}

	l.Announce(ctx, ch)
	return ch.Balance, nil
}

// Deduct é ApplyDelta(-amount); amount negativo é entrada inválida
func (l *Ledger) Deduct(ctx context.Context, amount int64, reason string) (int64, error) {
	if amount < 0 {
		return 0, apperr.InvalidInput("deduction must not be negative")
	}
	return l.ApplyDelta(ctx, -amount, reason)
}

// Apply aplica o delta dentro da transação de quem chama.
// Rejeita com InsufficientFunds se o saldo ficaria negativo.
func (l *Ledger) Apply(ctx context.Context, tx *store.Tx, delta int64, reason, ref string) (Change, error) {
	current, err := tx.GetBalance(ctx)
	if err != nil {
		return Change{}, err
	}
	if current.Amount+delta < 0 {
		return Change{}, apperr.InsufficientFunds("Insufficient coins. Complete more work sessions!")
	}

	now := l.clock.Now()
	balance, err := tx.AddToBalance(ctx, delta, now)
	if err != nil {
		return Change{}, err
	}

	if err := tx.InsertLedgerEntry(ctx, store.LedgerEntry{
		Delta:        delta,
		BalanceAfter: balance,
		Reason:       reason,
		Ref:          ref,
		CreatedAt:    now,
	}); err != nil {
		return Change{}, err
	}

	return Change{Delta: delta, Balance: balance, Reason: reason, Ref: ref}, nil
}

// Announce publica balance:updated e atualiza as métricas; chamar só após o commit
func (l *Ledger) Announce(ctx context.Context, ch Change) {
	l.metrics.BalanceChanged(ch.Delta, ch.Balance)

	n := events.New(events.TypeBalanceUpdated, l.clock.Now(), events.BalanceUpdated{
		Balance: ch.Balance,
		Change:  ch.Delta,
		Reason:  ch.Reason,
	})
	if err := l.notifier.Publish(ctx, n); err != nil {
		l.log.Warn("publish balance update failed", zap.Error(err))
	}
}

// Reset apaga sessões e apostas e volta o saldo ao valor inicial.
// A diferença entra na fita como um lançamento "reset".
func (l *Ledger) Reset(ctx context.Context) (int64, error) {
	var ch Change
	err := l.store.WithTx(ctx, func(tx *store.Tx) error {
		if err := tx.Wipe(ctx); err != nil {
			return err
		}
		current, err := tx.GetBalance(ctx)
		if err != nil {
			return err
		}
		ch, err = l.Apply(ctx, tx, l.startingBalance-current.Amount, ReasonReset, "")
		return err
	})
	if err != nil {
		return 0, apperr.Persistence(err)
	}

	l.log.Info("data wiped", zap.Int64("balance", ch.Balance))
	l.Announce(ctx, ch)
	return ch.Balance, nil
}

// Conserved confere saldo == soma da fita; usado no health check
func (l *Ledger) Conserved(ctx context.Context) error {
	balance, err := l.Balance(ctx)
	if err != nil {
		return err
	}
	sum, err := l.store.SumLedgerDeltas(ctx)
	if err != nil {
		return apperr.Persistence(err)
	}
	if sum != balance {
		return errors.New("ledger tape does not match balance")
	}
	return nil
}
