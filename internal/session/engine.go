// Package session transforma tempo de foco em moedas: inicia, acompanha,
// conclui ou interrompe a sessão e recupera a que sobreviveu a um restart.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/radieske/auraflow/internal/ledger"
	"github.com/radieske/auraflow/internal/notify"
	"github.com/radieske/auraflow/internal/shared/apperr"
	"github.com/radieske/auraflow/internal/shared/clock"
	"github.com/radieske/auraflow/internal/shared/metrics"
	"github.com/radieske/auraflow/internal/store"
	"github.com/radieske/auraflow/pkg/contracts/events"
)

// Tier é a faixa de recompensa de uma duração
type Tier struct {
	Minutes    int   `json:"minutes"`
	Multiplier int   `json:"multiplier"`
	Coins      int64 `json:"coins"`
}

// Tiers: 15min -> 20 moedas x1, 30min -> 40 x2, 60min -> 100 x5
var Tiers = []Tier{
	{Minutes: 15, Multiplier: 1, Coins: 20},
	{Minutes: 30, Multiplier: 2, Coins: 40},
	{Minutes: 60, Multiplier: 5, Coins: 100},
}

// TierFor retorna a faixa da duração; só 15, 30 e 60 existem
func TierFor(minutes int) (Tier, bool) {
	for _, t := range Tiers {
		if t.Minutes == minutes {
			return t, true
		}
	}
	return Tier{}, false
}

// DefaultGracePeriod é a tolerância após o fim esperado para ainda contar como concluída
const DefaultGracePeriod = 5 * time.Minute

type Status string

const (
	StatusIdle    Status = "idle"
	StatusRunning Status = "running"
)

// State é a visão pública do timer
type State struct {
	Status          Status     `json:"status"`
	AttemptID       string     `json:"attempt_id,omitempty"`
	DurationMinutes int        `json:"duration_minutes,omitempty"`
	Multiplier      int        `json:"multiplier,omitempty"`
	StartTime       *time.Time `json:"start_time,omitempty"`
	ExpectedEnd     *time.Time `json:"expected_end,omitempty"`
	ElapsedSeconds  int64      `json:"elapsed_seconds"`
	TotalSeconds    int64      `json:"total_seconds"`
}

// Recovery diz o que aconteceu com a sessão encontrada no startup
type Recovery string

const (
	RecoveryNone        Recovery = "none"
	RecoveryResumed     Recovery = "resumed"
	RecoveryCompleted   Recovery = "completed"
	RecoveryInterrupted Recovery = "interrupted"
	RecoveryDiscarded   Recovery = "discarded"
)

type Engine struct {
	mu        sync.Mutex
	store     *store.Store
	ledger    *ledger.Ledger
	states    StateStore
	clock     clock.Clock
	notifier  notify.Notifier
	metrics   *metrics.Collectors
	log       *zap.Logger
	grace     time.Duration
	recovered bool
	running   *RunningSession
}

func New(st *store.Store, led *ledger.Ledger, states StateStore, clk clock.Clock, n notify.Notifier, m *metrics.Collectors, log *zap.Logger, grace time.Duration) *Engine {
	if n == nil {
		n = notify.Nop{}
	}
	return &Engine{
		store:    st,
		ledger:   led,
		states:   states,
		clock:    clk,
		notifier: n,
		metrics:  m,
		log:      log,
		grace:    grace,
	}
}

// Recover resolve o registro deixado por uma execução anterior, exatamente uma vez.
// Depois da primeira chamada bem sucedida, as seguintes não fazem nada.
func (e *Engine) Recover(ctx context.Context) (Recovery, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.recoverLocked(ctx)
}

func (e *Engine) recoverLocked(ctx context.Context) (Recovery, error) {
	if e.recovered {
		return RecoveryNone, nil
	}

	rec, err := e.states.Load(ctx)
	if errors.Is(err, ErrCorruptState) {
		e.log.Warn("discarding unreadable timer state", zap.Error(err))
		return e.discardLocked(ctx)
	}
	if err != nil {
		return RecoveryNone, apperr.Persistence(err)
	}
	if rec == nil {
		e.recovered = true
		return RecoveryNone, nil
	}
	if _, ok := TierFor(rec.DurationMinutes); !ok || rec.AttemptID == "" {
		e.log.Warn("discarding invalid timer state",
			zap.String("attempt_id", rec.AttemptID),
			zap.Int("duration", rec.DurationMinutes),
		)
		return e.discardLocked(ctx)
	}

	now := e.clock.Now()
	switch {
	case now.After(rec.ExpectedEnd.Add(e.grace)):
		if err := e.interrupt(ctx, *rec, now, events.TypeSessionInterrupted); err != nil {
			return RecoveryNone, err
		}
		e.recovered = true
		return RecoveryInterrupted, nil

	case !now.Before(rec.ExpectedEnd):
		if err := e.complete(ctx, *rec, now); err != nil {
			return RecoveryNone, err
		}
		e.recovered = true
		return RecoveryCompleted, nil

	default:
		e.running = rec
		e.recovered = true
		tier, _ := TierFor(rec.DurationMinutes)
		e.log.Info("session resumed", zap.String("attempt_id", rec.AttemptID), zap.Int("duration", rec.DurationMinutes))
		e.publish(ctx, events.New(events.TypeTimerResumed, now, events.TimerResumed{
			AttemptID:       rec.AttemptID,
			DurationMinutes: rec.DurationMinutes,
			Multiplier:      tier.Multiplier,
			ElapsedSeconds:  elapsedSeconds(rec.StartTime, now),
		}))
		return RecoveryResumed, nil
	}
}

// discardLocked apaga um registro que não vira sessão válida; nada é gravado nem creditado
func (e *Engine) discardLocked(ctx context.Context) (Recovery, error) {
	if err := e.states.Clear(ctx); err != nil {
		return RecoveryNone, apperr.Persistence(err)
	}
	e.recovered = true
	return RecoveryDiscarded, nil
}

// Start inicia uma sessão de 15, 30 ou 60 minutos.
// Com uma sessão já rodando não faz nada e devolve o estado atual.
func (e *Engine) Start(ctx context.Context, minutes int) (State, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := e.recoverLocked(ctx); err != nil {
		return State{}, err
	}
	if e.running != nil {
		return e.stateLocked(), nil
	}

	tier, ok := TierFor(minutes)
	if !ok {
		return State{}, apperr.InvalidInput("Invalid session duration")
	}

	now := e.clock.Now()
	rec := RunningSession{
		AttemptID:       uuid.NewString(),
		StartTime:       now,
		DurationMinutes: minutes,
		ExpectedEnd:     now.Add(time.Duration(minutes) * time.Minute),
	}
	if err := e.states.Save(ctx, rec); err != nil {
		return State{}, apperr.Persistence(err)
	}
	e.running = &rec

	e.log.Info("session started", zap.String("attempt_id", rec.AttemptID), zap.Int("duration", minutes))
	e.publish(ctx, events.New(events.TypeTimerStarted, now, events.TimerStarted{
		AttemptID:       rec.AttemptID,
		DurationMinutes: minutes,
		Multiplier:      tier.Multiplier,
		ExpectedEnd:     rec.ExpectedEnd,
	}))
	return e.stateLocked(), nil
}

// Stop interrompe a sessão em andamento sem recompensa; parado, não faz nada.
// Devolve a sessão gravada (nil quando não havia sessão).
func (e *Engine) Stop(ctx context.Context) (*store.WorkSession, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.running == nil {
		return nil, nil
	}
	rec := *e.running
	now := e.clock.Now()
	if err := e.interrupt(ctx, rec, now, events.TypeSessionStopped); err != nil {
		return nil, err
	}

	ws, err := e.store.GetWorkSessionByAttempt(ctx, rec.AttemptID)
	if err != nil {
		return nil, apperr.Persistence(err)
	}
	return &ws, nil
}

// Tick é chamado a cada segundo pelo scheduler: emite timer:tick e conclui quando vence
func (e *Engine) Tick(ctx context.Context) (State, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.running == nil {
		return e.stateLocked(), nil
	}
	rec := *e.running
	now := e.clock.Now()
	total := int64(rec.DurationMinutes * 60)
	elapsed := elapsedSeconds(rec.StartTime, now)

	if elapsed >= total {
		if err := e.complete(ctx, rec, now); err != nil {
			return e.stateLocked(), err
		}
		return e.stateLocked(), nil
	}

	e.publish(ctx, events.New(events.TypeTimerTick, now, events.TimerTick{ElapsedSeconds: elapsed, TotalSeconds: total}))
	return e.stateLocked(), nil
}

// State retorna o estado atual do timer
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stateLocked()
}

func (e *Engine) stateLocked() State {
	if e.running == nil {
		return State{Status: StatusIdle}
	}
	rec := *e.running
	tier, _ := TierFor(rec.DurationMinutes)
	total := int64(rec.DurationMinutes * 60)
	elapsed := elapsedSeconds(rec.StartTime, e.clock.Now())
	if elapsed > total {
		elapsed = total
	}
	return State{
		Status:          StatusRunning,
		AttemptID:       rec.AttemptID,
		DurationMinutes: rec.DurationMinutes,
		Multiplier:      tier.Multiplier,
		StartTime:       &rec.StartTime,
		ExpectedEnd:     &rec.ExpectedEnd,
		ElapsedSeconds:  elapsed,
		TotalSeconds:    total,
	}
}

// complete grava a sessão concluída e credita a recompensa numa transação.
// Se a tentativa já estava gravada (crash depois do commit), só limpa o registro.
func (e *Engine) complete(ctx context.Context, rec RunningSession, now time.Time) error {
	tier, ok := TierFor(rec.DurationMinutes)
	if !ok {
		return apperr.Persistence(fmt.Errorf("no reward tier for %d minutes", rec.DurationMinutes))
	}

	var (
		id       int64
		inserted bool
		credit   ledger.Change
	)
	err := e.store.WithTx(ctx, func(tx *store.Tx) error {
		var err error
		id, inserted, err = tx.InsertWorkSession(ctx, store.WorkSession{
			AttemptID:       rec.AttemptID,
			StartTime:       rec.StartTime,
			EndTime:         now,
			DurationMinutes: rec.DurationMinutes,
			Multiplier:      tier.Multiplier,
			CoinsEarned:     tier.Coins,
			Status:          store.SessionCompleted,
			CreatedAt:       now,
		})
		if err != nil || !inserted {
			return err
		}
		credit, err = e.ledger.Apply(ctx, tx, tier.Coins, ledger.ReasonSessionReward, "session:"+rec.AttemptID)
		return err
	})
	if err != nil {
		e.log.Error("complete session failed", zap.String("attempt_id", rec.AttemptID), zap.Error(err))
		return apperr.Persistence(err)
	}

	e.finish(ctx, rec)
	if !inserted {
		e.log.Warn("session attempt already recorded", zap.String("attempt_id", rec.AttemptID))
		return nil
	}

	e.ledger.Announce(ctx, credit)
	e.metrics.SessionFinished(string(store.SessionCompleted))
	e.log.Info("session completed", zap.Int64("session_id", id), zap.Int64("coins", tier.Coins))
	e.publish(ctx, events.New(events.TypeSessionCompleted, now, events.SessionCompleted{
		SessionID:       id,
		CoinsEarned:     tier.Coins,
		DurationMinutes: rec.DurationMinutes,
		Multiplier:      tier.Multiplier,
	}))
	return nil
}

// interrupt grava a sessão como interrompida, sem moedas, e publica typ
func (e *Engine) interrupt(ctx context.Context, rec RunningSession, now time.Time, typ string) error {
	tier, _ := TierFor(rec.DurationMinutes)

	var (
		id       int64
		inserted bool
	)
	err := e.store.WithTx(ctx, func(tx *store.Tx) error {
		var err error
		id, inserted, err = tx.InsertWorkSession(ctx, store.WorkSession{
			AttemptID:       rec.AttemptID,
			StartTime:       rec.StartTime,
			EndTime:         now,
			DurationMinutes: rec.DurationMinutes,
			Multiplier:      tier.Multiplier,
			CoinsEarned:     0,
			Status:          store.SessionInterrupted,
			CreatedAt:       now,
		})
		return err
	})
	if err != nil {
		e.log.Error("interrupt session failed", zap.String("attempt_id", rec.AttemptID), zap.Error(err))
		return apperr.Persistence(err)
	}

	e.finish(ctx, rec)
	if !inserted {
		e.log.Warn("session attempt already recorded", zap.String("attempt_id", rec.AttemptID))
		return nil
	}

	e.metrics.SessionFinished(string(store.SessionInterrupted))
	e.log.Info("session interrupted", zap.Int64("session_id", id), zap.String("reason", typ))

	var payload any = events.SessionInterrupted{SessionID: id, DurationMinutes: rec.DurationMinutes}
	if typ == events.TypeSessionStopped {
		payload = events.SessionStopped{SessionID: id, ElapsedSeconds: elapsedSeconds(rec.StartTime, now)}
	}
	e.publish(ctx, events.New(typ, now, payload))
	return nil
}

// finish apaga o registro em andamento; a gravação já foi commitada.
// Falha aqui é só logada: attempt_id impede contar a tentativa de novo.
func (e *Engine) finish(ctx context.Context, rec RunningSession) {
	e.running = nil
	if err := e.states.Clear(ctx); err != nil {
		e.log.Warn("clear timer state failed", zap.String("attempt_id", rec.AttemptID), zap.Error(err))
	}
}

func (e *Engine) publish(ctx context.Context, n events.Notification) {
	if err := e.notifier.Publish(ctx, n); err != nil {
		e.log.Warn("publish notification failed", zap.String("type", n.Type), zap.Error(err))
	}
}

func elapsedSeconds(start, now time.Time) int64 {
	d := now.Sub(start)
	if d < 0 {
		return 0
	}
	return int64(d / time.Second)
}

// String deixa o Tier legível no CLI
func (t Tier) String() string {
	return fmt.Sprintf("%dmin (%d coins, x%d)", t.Minutes, t.Coins, t.Multiplier)
}
