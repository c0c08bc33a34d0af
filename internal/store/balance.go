package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// GetBalance lê o saldo singleton
func (q queries) GetBalance(ctx context.Context) (Balance, error) {
	var b Balance
	err := q.queryRow(ctx, `SELECT balance, last_updated FROM coin_balance WHERE id = 1`).Scan(&b.Amount, &b.LastUpdated)
	if errors.Is(err, sql.ErrNoRows) {
		return Balance{}, ErrNotFound
	}
	if err != nil {
		return Balance{}, fmt.Errorf("get balance: %w", err)
	}
	b.LastUpdated = b.LastUpdated.UTC()
	return b, nil
}

// AddToBalance soma delta ao saldo e devolve o novo valor.
// Não valida sinal: quem chama (ledger) garante saldo >= 0; o CHECK do schema é a última barreira.
func (q queries) AddToBalance(ctx context.Context, delta int64, at time.Time) (int64, error) {
	if _, err := q.exec(ctx,
		`UPDATE coin_balance SET balance = balance + ?, last_updated = ? WHERE id = 1`, delta, at); err != nil {
		return 0, fmt.Errorf("update balance: %w", err)
	}
	var balance int64
	if err := q.queryRow(ctx, `SELECT balance FROM coin_balance WHERE id = 1`).Scan(&balance); err != nil {
		return 0, fmt.Errorf("read balance: %w", err)
	}
	return balance, nil
}

// InsertLedgerEntry grava uma linha na fita do ledger
func (q queries) InsertLedgerEntry(ctx context.Context, e LedgerEntry) error {
	if _, err := q.exec(ctx,
		`INSERT INTO balance_ledger (delta, balance_after, reason, ref, created_at) VALUES (?, ?, ?, ?, ?)`,
		e.Delta, e.BalanceAfter, e.Reason, e.Ref, e.CreatedAt); err != nil {
		return fmt.Errorf("insert ledger entry: %w", err)
	}
	return nil
}

// SumLedgerDeltas soma todos os deltas da fita (inclui a abertura)
func (q queries) SumLedgerDeltas(ctx context.Context) (int64, error) {
	var total int64
	if err := q.queryRow(ctx, `SELECT COALESCE(SUM(delta), 0) FROM balance_ledger`).Scan(&total); err != nil {
		return 0, fmt.Errorf("sum ledger: %w", err)
	}
	return total, nil
}

// ListLedgerEntries retorna a fita do mais recente para o mais antigo
func (q queries) ListLedgerEntries(ctx context.Context, limit, offset int) ([]LedgerEntry, error) {
	rows, err := q.query(ctx, `
		SELECT id, delta, balance_after, reason, ref, created_at
		FROM balance_ledger
		ORDER BY id DESC
		LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list ledger: %w", err)
	}
	defer rows.Close()

	var out []LedgerEntry
	for rows.Next() {
		var e LedgerEntry
		if err := rows.Scan(&e.ID, &e.Delta, &e.BalanceAfter, &e.Reason, &e.Ref, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.CreatedAt = e.CreatedAt.UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}
