package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// InsertWorkSession grava a sessão finalizada.
// attempt_id é único: se a tentativa já foi gravada, inserted volta false e nada muda.
func (q queries) InsertWorkSession(ctx context.Context, ws WorkSession) (id int64, inserted bool, err error) {
	err = q.queryRow(ctx, `
		INSERT INTO work_sessions
		  (attempt_id, start_time, end_time, duration_minutes, multiplier, coins_earned, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (attempt_id) DO NOTHING
		RETURNING id`,
		ws.AttemptID, ws.StartTime, ws.EndTime, ws.DurationMinutes, ws.Multiplier, ws.CoinsEarned, string(ws.Status), ws.CreatedAt,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("insert work session: %w", err)
	}
	return id, true, nil
}

const workSessionColumns = `id, attempt_id, start_time, end_time, duration_minutes, multiplier, coins_earned, status, created_at`

func scanWorkSession(sc interface{ Scan(...any) error }) (WorkSession, error) {
	var ws WorkSession
	var status string
	if err := sc.Scan(&ws.ID, &ws.AttemptID, &ws.StartTime, &ws.EndTime, &ws.DurationMinutes,
		&ws.Multiplier, &ws.CoinsEarned, &status, &ws.CreatedAt); err != nil {
		return WorkSession{}, err
	}
	ws.Status = SessionStatus(status)
	ws.StartTime = ws.StartTime.UTC()
	ws.EndTime = ws.EndTime.UTC()
	ws.CreatedAt = ws.CreatedAt.UTC()
	return ws, nil
}

// GetWorkSessionByAttempt busca a sessão gravada para uma tentativa
func (q queries) GetWorkSessionByAttempt(ctx context.Context, attemptID string) (WorkSession, error) {
	ws, err := scanWorkSession(q.queryRow(ctx,
		`SELECT `+workSessionColumns+` FROM work_sessions WHERE attempt_id = ?`, attemptID))
	if errors.Is(err, sql.ErrNoRows) {
		return WorkSession{}, ErrNotFound
	}
	if err != nil {
		return WorkSession{}, fmt.Errorf("get work session: %w", err)
	}
	return ws, nil
}

// ListWorkSessions pagina o histórico, mais recentes primeiro
func (q queries) ListWorkSessions(ctx context.Context, limit, offset int) ([]WorkSession, error) {
	rows, err := q.query(ctx, `
		SELECT `+workSessionColumns+`
		FROM work_sessions
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list work sessions: %w", err)
	}
	defer rows.Close()

	var out []WorkSession
	for rows.Next() {
		ws, err := scanWorkSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ws)
	}
	return out, rows.Err()
}

func (q queries) CountWorkSessions(ctx context.Context) (int64, error) {
	var n int64
	if err := q.queryRow(ctx, `SELECT COUNT(*) FROM work_sessions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count work sessions: %w", err)
	}
	return n, nil
}

// SessionSummary conta sessões por status
func (q queries) SessionSummary(ctx context.Context) (SessionSummary, error) {
	var s SessionSummary
	err := q.queryRow(ctx, `
		SELECT
		  COUNT(*),
		  COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0),
		  COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0)
		FROM work_sessions`, string(SessionCompleted), string(SessionInterrupted),
	).Scan(&s.Total, &s.Completed, &s.Interrupted)
	if err != nil {
		return SessionSummary{}, fmt.Errorf("session summary: %w", err)
	}
	return s, nil
}

// CompletedDurations retorna a duração (min) de cada sessão concluída
func (q queries) CompletedDurations(ctx context.Context) ([]float64, error) {
	rows, err := q.query(ctx,
		`SELECT duration_minutes FROM work_sessions WHERE status = ? ORDER BY id`, string(SessionCompleted))
	if err != nil {
		return nil, fmt.Errorf("completed durations: %w", err)
	}
	defer rows.Close()

	var out []float64
	for rows.Next() {
		var d int64
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		out = append(out, float64(d))
	}
	return out, rows.Err()
}

// TotalCoinsEarned soma as recompensas das sessões concluídas
func (q queries) TotalCoinsEarned(ctx context.Context) (int64, error) {
	var total int64
	err := q.queryRow(ctx,
		`SELECT COALESCE(SUM(coins_earned), 0) FROM work_sessions WHERE status = ?`, string(SessionCompleted)).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("total coins earned: %w", err)
	}
	return total, nil
}
