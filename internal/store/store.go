package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/radieske/auraflow/internal/shared/clock"
	"github.com/radieske/auraflow/internal/shared/db"
)

//go:embed schema_sqlite.sql
var schemaSQLite string

//go:embed schema_postgres.sql
var schemaPostgres string

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("row changed concurrently")
)

// Store é o armazenamento relacional de usuários, saldo, sessões, eventos e apostas.
// Todas as escritas passam por WithTx, que serializa um único escritor por processo.
type Store struct {
	queries
	db    *sql.DB
	mu    sync.Mutex
	fresh bool
}

// Tx é a unidade de trabalho entregue ao callback de WithTx
type Tx struct {
	queries
}

// Open resolve a URL do store (dburl), aplica o schema e o seed inicial
func Open(ctx context.Context, url string, startingBalance int64, clk clock.Clock) (*Store, error) {
	conn, driver, err := db.Open(url)
	if err != nil {
		return nil, err
	}
	s, err := New(ctx, conn, driver, startingBalance, clk)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return s, nil
}

// New usa uma conexão já aberta; driver é db.DriverSQLite ou db.DriverPostgres
func New(ctx context.Context, conn *sql.DB, driver string, startingBalance int64, clk clock.Clock) (*Store, error) {
	s := &Store{
		queries: queries{db: conn, driver: driver},
		db:      conn,
	}

	if err := s.applySchema(ctx); err != nil {
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	fresh, err := s.seed(ctx, startingBalance, clk.Now())
	if err != nil {
		return nil, fmt.Errorf("seed: %w", err)
	}
	s.fresh = fresh

	return s, nil
}

// Fresh indica se o saldo inicial foi criado nesta abertura (banco novo)
func (s *Store) Fresh() bool { return s.fresh }

// DB retorna a conexão para consultas diretas (health checks e testes)
func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Driver() string { return s.driver }

func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// WithTx executa fn dentro de uma transação; qualquer erro desfaz tudo.
// Só depois do Commit o chamador pode publicar notificações.
func (s *Store) WithTx(ctx context.Context, fn func(tx *Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&Tx{queries: queries{db: sqlTx, driver: s.driver}}); err != nil {
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (s *Store) applySchema(ctx context.Context) error {
	schema := schemaSQLite
	if s.driver == db.DriverPostgres {
		schema = schemaPostgres
	} else {
		// foreign keys ficam desligadas por padrão no SQLite
		if _, err := s.db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
			return fmt.Errorf("enable foreign keys: %w", err)
		}
		if _, err := s.db.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
			return fmt.Errorf("set busy timeout: %w", err)
		}
	}

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return err
	}
	return nil
}

// seed cria o usuário padrão e o saldo inicial; idempotente
func (s *Store) seed(ctx context.Context, startingBalance int64, now time.Time) (bool, error) {
	var fresh bool
	err := s.WithTx(ctx, func(tx *Tx) error {
		if _, err := tx.exec(ctx,
			`INSERT INTO users (id, name, created_at) VALUES (1, 'Player', ?) ON CONFLICT (id) DO NOTHING`, now); err != nil {
			return fmt.Errorf("insert user: %w", err)
		}

		res, err := tx.exec(ctx,
			`INSERT INTO coin_balance (id, balance, last_updated) VALUES (1, ?, ?) ON CONFLICT (id) DO NOTHING`,
			startingBalance, now)
		if err != nil {
			return fmt.Errorf("insert balance: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}

		fresh = true
		return tx.InsertLedgerEntry(ctx, LedgerEntry{
			Delta:        startingBalance,
			BalanceAfter: startingBalance,
			Reason:       "opening",
			CreatedAt:    now,
		})
	})
	return fresh, err
}

// querier é satisfeito tanto por *sql.DB quanto por *sql.Tx
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// queries concentra o SQL; as consultas usam "?" e são reescritas para "$n" no Postgres
type queries struct {
	db     querier
	driver string
}

func (q queries) rebind(query string) string {
	if q.driver != db.DriverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

func (q queries) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return q.db.ExecContext(ctx, q.rebind(query), args...)
}

func (q queries) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return q.db.QueryContext(ctx, q.rebind(query), args...)
}

func (q queries) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return q.db.QueryRowContext(ctx, q.rebind(query), args...)
}

// Wipe apaga sessões e apostas; eventos e a fita do ledger são preservados
func (q queries) Wipe(ctx context.Context) error {
	if _, err := q.exec(ctx, `DELETE FROM work_sessions`); err != nil {
		return fmt.Errorf("wipe work_sessions: %w", err)
	}
	if _, err := q.exec(ctx, `DELETE FROM betting_transactions`); err != nil {
		return fmt.Errorf("wipe betting_transactions: %w", err)
	}
	return nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time.UTC()
	return &t
}
