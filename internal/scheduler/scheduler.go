// Package scheduler roda os jobs periódicos do serve: o tick da sessão em andamento
// e a auditoria do ledger.
package scheduler

import (
	"context"
	"sync"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/radieske/auraflow/internal/session"
	"github.com/radieske/auraflow/internal/shared/metrics"
)

const (
	TickSpec  = "@every 1s"
	AuditSpec = "@every 1m"
)

// Ticker avança a sessão em andamento
type Ticker interface {
	Tick(ctx context.Context) (session.State, error)
}

// Auditor confere a fita do ledger contra o saldo
type Auditor interface {
	Balance(ctx context.Context) (int64, error)
	Conserved(ctx context.Context) error
}

type Scheduler struct {
	cron    *cron.Cron
	ticker  Ticker
	auditor Auditor
	metrics *metrics.Collectors
	log     *zap.Logger

	mu  sync.Mutex
	ctx context.Context
}

func New(t Ticker, a Auditor, m *metrics.Collectors, log *zap.Logger) (*Scheduler, error) {
	s := &Scheduler{
		// jobs lentos não se sobrepõem
		cron:    cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		ticker:  t,
		auditor: a,
		metrics: m,
		log:     log,
		ctx:     context.Background(),
	}

	if _, err := s.cron.AddFunc(TickSpec, func() { s.TickSession(s.context()) }); err != nil {
		return nil, err
	}
	if _, err := s.cron.AddFunc(AuditSpec, func() { s.AuditLedger(s.context()) }); err != nil {
		return nil, err
	}
	return s, nil
}

// Start dispara o cron; ctx é repassado aos jobs
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()
	s.cron.Start()
	s.log.Info("scheduler started", zap.Int("jobs", len(s.cron.Entries())))
}

// Stop para o cron e espera os jobs em execução terminarem
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// Jobs retorna quantos jobs estão registrados
func (s *Scheduler) Jobs() int { return len(s.cron.Entries()) }

func (s *Scheduler) context() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctx
}

// TickSession conclui a sessão quando vence; erros ficam só no log
func (s *Scheduler) TickSession(ctx context.Context) {
	if _, err := s.ticker.Tick(ctx); err != nil {
		s.log.Error("session tick failed", zap.Error(err))
	}
}

// AuditLedger ressincroniza o gauge de saldo e alerta se a fita divergir
func (s *Scheduler) AuditLedger(ctx context.Context) {
	b, err := s.auditor.Balance(ctx)
	if err != nil {
		s.log.Error("read balance failed", zap.Error(err))
		return
	}
	s.metrics.SetBalance(b)

	if err := s.auditor.Conserved(ctx); err != nil {
		s.log.Error("ledger not conserved", zap.Int64("balance", b), zap.Error(err))
	}
}
