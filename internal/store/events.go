package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const eventColumns = `id, title, description, category, odds_yes, odds_no, is_custom, outcome, is_active, created_at, resolution_date`

func scanEvent(sc interface{ Scan(...any) error }) (BettingEvent, error) {
	var (
		e        BettingEvent
		outcome  sql.NullString
		resolved sql.NullTime
	)
	if err := sc.Scan(&e.ID, &e.Title, &e.Description, &e.Category, &e.OddsYes, &e.OddsNo,
		&e.IsCustom, &outcome, &e.IsActive, &e.CreatedAt, &resolved); err != nil {
		return BettingEvent{}, err
	}
	if outcome.Valid {
		side := Side(outcome.String)
		e.Outcome = &side
	}
	e.CreatedAt = e.CreatedAt.UTC()
	e.ResolutionDate = timePtr(resolved)
	return e, nil
}

// InsertEvent cria um evento ativo (outcome nulo) e retorna o id
func (q queries) InsertEvent(ctx context.Context, e BettingEvent) (int64, error) {
	var id int64
	err := q.queryRow(ctx, `
		INSERT INTO betting_events (title, description, category, odds_yes, odds_no, is_custom, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`,
		e.Title, e.Description, e.Category, e.OddsYes, e.OddsNo, e.IsCustom, true, e.CreatedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert event: %w", err)
	}
	return id, nil
}

// GetEvent busca um evento pelo id
func (q queries) GetEvent(ctx context.Context, id int64) (BettingEvent, error) {
	e, err := scanEvent(q.queryRow(ctx, `SELECT `+eventColumns+` FROM betting_events WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return BettingEvent{}, ErrNotFound
	}
	if err != nil {
		return BettingEvent{}, fmt.Errorf("get event: %w", err)
	}
	return e, nil
}

// ListActiveEvents lista eventos ativos, mais novos primeiro; category vazia não filtra
func (q queries) ListActiveEvents(ctx context.Context, category string) ([]BettingEvent, error) {
	query := `SELECT ` + eventColumns + ` FROM betting_events WHERE is_active = ?`
	args := []any{true}
	if category != "" {
		query += ` AND category = ?`
		args = append(args, category)
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := q.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var out []BettingEvent
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// CountEvents conta todos os eventos (ativos ou resolvidos)
func (q queries) CountEvents(ctx context.Context) (int64, error) {
	var n int64
	if err := q.queryRow(ctx, `SELECT COUNT(*) FROM betting_events`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return n, nil
}

// DeleteEvent remove o evento; o chamador já verificou is_custom e apostas
func (q queries) DeleteEvent(ctx context.Context, id int64) error {
	res, err := q.exec(ctx, `DELETE FROM betting_events WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkEventResolved grava o resultado e desativa o evento.
// Só altera se ainda estiver ativo e sem resultado; caso contrário ErrConflict.
func (q queries) MarkEventResolved(ctx context.Context, id int64, outcome Side, at time.Time) error {
	res, err := q.exec(ctx, `
		UPDATE betting_events
		SET outcome = ?, is_active = ?, resolution_date = ?
		WHERE id = ? AND is_active = ? AND outcome IS NULL`,
		string(outcome), false, at, id, true)
	if err != nil {
		return fmt.Errorf("resolve event: %w", err)
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
