// Package history responde as consultas de histórico, estatísticas e analytics.
package history

import (
	"context"
	"errors"

	"github.com/montanaflynn/stats"

	"github.com/radieske/auraflow/internal/shared/apperr"
	"github.com/radieske/auraflow/internal/store"
)

// PageSize é o tamanho fixo das páginas de histórico
const PageSize = 10

// Page é uma página de resultados com o total para paginação
type Page[T any] struct {
	Items      []T   `json:"items"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	TotalPages int   `json:"total_pages"`
}

func newPage[T any](items []T, total int64, page int) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{
		Items:      items,
		Total:      total,
		Page:       page,
		TotalPages: int((total + PageSize - 1) / PageSize),
	}
}

type Service struct {
	store *store.Store
}

func New(st *store.Store) *Service {
	return &Service{store: st}
}

// Sessions pagina as sessões, mais recentes primeiro; page < 1 vira 1
func (s *Service) Sessions(ctx context.Context, page int) (Page[store.WorkSession], error) {
	if page < 1 {
		page = 1
	}
	total, err := s.store.CountWorkSessions(ctx)
	if err != nil {
		return Page[store.WorkSession]{}, apperr.Persistence(err)
	}
	items, err := s.store.ListWorkSessions(ctx, PageSize, (page-1)*PageSize)
	if err != nil {
		return Page[store.WorkSession]{}, apperr.Persistence(err)
	}
	return newPage(items, total, page), nil
}

// Wagers pagina as apostas com título e categoria do evento
func (s *Service) Wagers(ctx context.Context, page int) (Page[store.Wager], error) {
	if page < 1 {
		page = 1
	}
	total, err := s.store.CountWagers(ctx)
	if err != nil {
		return Page[store.Wager]{}, apperr.Persistence(err)
	}
	items, err := s.store.ListWagers(ctx, PageSize, (page-1)*PageSize)
	if err != nil {
		return Page[store.Wager]{}, apperr.Persistence(err)
	}
	return newPage(items, total, page), nil
}

// Statistics: total ganho em sessões, total apostado, prêmios e lucro líquido das apostas
func (s *Service) Statistics(ctx context.Context) (store.Statistics, error) {
	st, err := s.store.Statistics(ctx)
	if err != nil {
		return store.Statistics{}, apperr.Persistence(err)
	}
	return st, nil
}

// Analytics são as métricas derivadas exibidas ao jogador; taxas em porcentagem
type Analytics struct {
	TotalSessions        int64   `json:"total_sessions"`
	CompletedSessions    int64   `json:"completed_sessions"`
	InterruptedSessions  int64   `json:"interrupted_sessions"`
	CompletionRate       float64 `json:"completion_rate"`
	AvgCompletedDuration float64 `json:"avg_completed_duration"`
	TotalBets            int64   `json:"total_bets"`
	PendingBets          int64   `json:"pending_bets"`
	ResolvedBets         int64   `json:"resolved_bets"`
	WonBets              int64   `json:"won_bets"`
	WinRate              float64 `json:"win_rate"`
	AvgBetAmount         float64 `json:"avg_bet_amount"`
	MedianBetAmount      float64 `json:"median_bet_amount"`
	ROI                  float64 `json:"roi"`
}

func (s *Service) Analytics(ctx context.Context) (Analytics, error) {
	sessions, err := s.store.SessionSummary(ctx)
	if err != nil {
		return Analytics{}, apperr.Persistence(err)
	}
	bets, err := s.store.BetSummary(ctx)
	if err != nil {
		return Analytics{}, apperr.Persistence(err)
	}
	totals, err := s.store.Statistics(ctx)
	if err != nil {
		return Analytics{}, apperr.Persistence(err)
	}
	durations, err := s.store.CompletedDurations(ctx)
	if err != nil {
		return Analytics{}, apperr.Persistence(err)
	}
	amounts, err := s.store.BetAmounts(ctx)
	if err != nil {
		return Analytics{}, apperr.Persistence(err)
	}

	a := Analytics{
		TotalSessions:       sessions.Total,
		CompletedSessions:   sessions.Completed,
		InterruptedSessions: sessions.Interrupted,
		TotalBets:           bets.Total,
		PendingBets:         bets.Pending,
		ResolvedBets:        bets.Resolved,
		WonBets:             bets.Won,
	}
	if sessions.Total > 0 {
		a.CompletionRate = float64(sessions.Completed) / float64(sessions.Total) * 100
	}
	if bets.Resolved > 0 {
		a.WinRate = float64(bets.Won) / float64(bets.Resolved) * 100
	}
	if totals.TotalSpent > 0 {
		a.ROI = float64(totals.TotalWinnings-totals.TotalSpent) / float64(totals.TotalSpent) * 100
	}

	if a.AvgCompletedDuration, err = orZero(stats.Mean(durations)); err != nil {
		return Analytics{}, err
	}
	if a.AvgBetAmount, err = orZero(stats.Mean(amounts)); err != nil {
		return Analytics{}, err
	}
	if a.MedianBetAmount, err = orZero(stats.Median(amounts)); err != nil {
		return Analytics{}, err
	}
	return a, nil
}

// orZero trata amostra vazia como 0
func orZero(v float64, err error) (float64, error) {
	if errors.Is(err, stats.ErrEmptyInput) {
		return 0, nil
	}
	return v, err
}

// Tape retorna os últimos lançamentos do ledger
func (s *Service) Tape(ctx context.Context, limit int) ([]store.LedgerEntry, error) {
	if limit <= 0 {
		limit = PageSize
	}
	entries, err := s.store.ListLedgerEntries(ctx, limit, 0)
	if err != nil {
		return nil, apperr.Persistence(err)
	}
	return entries, nil
}
