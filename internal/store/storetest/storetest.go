// Package storetest abre stores SQLite descartáveis para testes de outros pacotes.
package storetest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/radieske/auraflow/internal/shared/clock"
	"github.com/radieske/auraflow/internal/shared/db"
	"github.com/radieske/auraflow/internal/store"
)

// StartingBalance é o saldo inicial usado nos testes
const StartingBalance = 100

// Open cria um store novo em t.TempDir com saldo inicial de 100
func Open(t testing.TB, clk clock.Clock) *store.Store {
	t.Helper()
	return OpenAt(t, filepath.Join(t.TempDir(), "auraflow.db"), clk)
}

// OpenAt abre (ou reabre) o store no caminho indicado
func OpenAt(t testing.TB, path string, clk clock.Clock) *store.Store {
	t.Helper()
	conn, err := db.ConnectSQLite(path)
	require.NoError(t, err)

	s, err := store.New(context.Background(), conn, db.DriverSQLite, StartingBalance, clk)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// Exec roda SQL direto na conexão; usado para montar triggers de falha
func Exec(t testing.TB, s *store.Store, query string, args ...any) {
	t.Helper()
	_, err := s.DB().ExecContext(context.Background(), query, args...)
	require.NoError(t, err)
}

// BalanceOf lê o saldo atual
func BalanceOf(t testing.TB, s *store.Store) int64 {
	t.Helper()
	b, err := s.GetBalance(context.Background())
	require.NoError(t, err)
	return b.Amount
}

// RequireConserved confere que saldo == soma dos deltas da fita do ledger
func RequireConserved(t testing.TB, s *store.Store) {
	t.Helper()
	sum, err := s.SumLedgerDeltas(context.Background())
	require.NoError(t, err)
	require.Equal(t, sum, BalanceOf(t, s), "balance must equal the ledger tape")
}
