package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// InsertWager grava a aposta como pending com a odd travada
func (q queries) InsertWager(ctx context.Context, w Wager) (int64, error) {
	var id int64
	err := q.queryRow(ctx, `
		INSERT INTO betting_transactions
		  (event_id, bet_amount, bet_side, odds_at_bet, potential_payout, outcome, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id`,
		w.EventID, w.BetAmount, string(w.BetSide), w.OddsAtBet, w.PotentialPayout, string(OutcomePending), w.CreatedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert wager: %w", err)
	}
	return id, nil
}

// CountWagersForEvent conta apostas (de qualquer status) ligadas ao evento
func (q queries) CountWagersForEvent(ctx context.Context, eventID int64) (int64, error) {
	var n int64
	if err := q.queryRow(ctx,
		`SELECT COUNT(*) FROM betting_transactions WHERE event_id = ?`, eventID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count wagers: %w", err)
	}
	return n, nil
}

const wagerColumns = `t.id, t.event_id, t.bet_amount, t.bet_side, t.odds_at_bet, t.potential_payout,
	t.outcome, t.winnings, t.net_profit, t.created_at, t.resolved_at`

func scanWager(sc interface{ Scan(...any) error }, extra ...any) (Wager, error) {
	var (
		w        Wager
		side     string
		outcome  string
		resolved sql.NullTime
	)
	dest := []any{&w.ID, &w.EventID, &w.BetAmount, &side, &w.OddsAtBet, &w.PotentialPayout,
		&outcome, &w.Winnings, &w.NetProfit, &w.CreatedAt, &resolved}
	if err := sc.Scan(append(dest, extra...)...); err != nil {
		return Wager{}, err
	}
	w.BetSide = Side(side)
	w.Outcome = WagerOutcome(outcome)
	w.CreatedAt = w.CreatedAt.UTC()
	w.ResolvedAt = timePtr(resolved)
	return w, nil
}

// PendingWagersForEvent retorna as apostas pendentes do evento, mais antigas primeiro
func (q queries) PendingWagersForEvent(ctx context.Context, eventID int64) ([]Wager, error) {
	rows, err := q.query(ctx, `
		SELECT `+wagerColumns+`
		FROM betting_transactions t
		WHERE t.event_id = ? AND t.outcome = ?
		ORDER BY t.created_at ASC, t.id ASC`, eventID, string(OutcomePending))
	if err != nil {
		return nil, fmt.Errorf("pending wagers: %w", err)
	}
	defer rows.Close()

	var out []Wager
	for rows.Next() {
		w, err := scanWager(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// SettleWager liquida uma aposta pendente; ErrConflict se já não estiver pending
func (q queries) SettleWager(ctx context.Context, id int64, outcome WagerOutcome, winnings, netProfit int64, at time.Time) error {
	res, err := q.exec(ctx, `
		UPDATE betting_transactions
		SET outcome = ?, winnings = ?, net_profit = ?, resolved_at = ?
		WHERE id = ? AND outcome = ?`,
		string(outcome), winnings, netProfit, at, id, string(OutcomePending))
	if err != nil {
		return fmt.Errorf("settle wager %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrConflict
	}
	return nil
}

// ListWagers pagina o histórico de apostas com título e categoria do evento
func (q queries) ListWagers(ctx context.Context, limit, offset int) ([]Wager, error) {
	rows, err := q.query(ctx, `
		SELECT `+wagerColumns+`, e.title, e.category
		FROM betting_transactions t
		JOIN betting_events e ON e.id = t.event_id
		ORDER BY t.created_at DESC, t.id DESC
		LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list wagers: %w", err)
	}
	defer rows.Close()

	var out []Wager
	for rows.Next() {
		var title, category string
		w, err := scanWager(rows, &title, &category)
		if err != nil {
			return nil, err
		}
		w.EventTitle = title
		w.EventCategory = category
		out = append(out, w)
	}
	return out, rows.Err()
}

func (q queries) CountWagers(ctx context.Context) (int64, error) {
	var n int64
	if err := q.queryRow(ctx, `SELECT COUNT(*) FROM betting_transactions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count wagers: %w", err)
	}
	return n, nil
}

// BetSummary conta apostas por situação
func (q queries) BetSummary(ctx context.Context) (BetSummary, error) {
	var s BetSummary
	err := q.queryRow(ctx, `
		SELECT
		  COUNT(*),
		  COALESCE(SUM(CASE WHEN outcome = ? THEN 1 ELSE 0 END), 0),
		  COALESCE(SUM(CASE WHEN outcome = ? THEN 1 ELSE 0 END), 0)
		FROM betting_transactions`, string(OutcomePending), string(OutcomeWon),
	).Scan(&s.Total, &s.Pending, &s.Won)
	if err != nil {
		return BetSummary{}, fmt.Errorf("bet summary: %w", err)
	}
	s.Resolved = s.Total - s.Pending
	return s, nil
}

// BetAmounts retorna o valor de cada aposta, na ordem de criação
func (q queries) BetAmounts(ctx context.Context) ([]float64, error) {
	rows, err := q.query(ctx, `SELECT bet_amount FROM betting_transactions ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("bet amounts: %w", err)
	}
	defer rows.Close()

	var out []float64
	for rows.Next() {
		var a int64
		if err := rows.Scan(&a); err != nil {
			return nil, err
		}
		out = append(out, float64(a))
	}
	return out, rows.Err()
}

// Statistics soma ganhos de sessões, total apostado, prêmios e o lucro líquido das apostas
func (q queries) Statistics(ctx context.Context) (Statistics, error) {
	var s Statistics
	earned, err := q.TotalCoinsEarned(ctx)
	if err != nil {
		return Statistics{}, err
	}
	s.TotalEarned = earned

	if err := q.queryRow(ctx, `
		SELECT COALESCE(SUM(bet_amount), 0), COALESCE(SUM(winnings), 0), COALESCE(SUM(net_profit), 0)
		FROM betting_transactions`).Scan(&s.TotalSpent, &s.TotalWinnings, &s.NetProfit); err != nil {
		return Statistics{}, fmt.Errorf("wager totals: %w", err)
	}
	return s, nil
}
