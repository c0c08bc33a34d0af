package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radieske/auraflow/internal/shared/db"
	"github.com/radieske/auraflow/internal/testutil"
)

func openTestStore(t *testing.T, path string, clk *testutil.FakeClock) *Store {
	t.Helper()
	conn, err := db.ConnectSQLite(path)
	require.NoError(t, err)
	s, err := New(context.Background(), conn, db.DriverSQLite, 100, clk)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newTestStore(t *testing.T) (*Store, *testutil.FakeClock) {
	clk := testutil.NewFakeClock()
	return openTestStore(t, filepath.Join(t.TempDir(), "auraflow.db"), clk), clk
}

func TestNew_SeedsBalanceOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "auraflow.db")
	clk := testutil.NewFakeClock()
	ctx := context.Background()

	s := openTestStore(t, path, clk)
	assert.True(t, s.Fresh())

	b, err := s.GetBalance(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(100), b.Amount)
	assert.True(t, b.LastUpdated.Equal(testutil.Start))

	require.NoError(t, s.WithTx(ctx, func(tx *Tx) error {
		_, err := tx.AddToBalance(ctx, 25, clk.Now())
		return err
	}))
	require.NoError(t, s.Close())

	reopened := openTestStore(t, path, clk)
	assert.False(t, reopened.Fresh())
	b, err = reopened.GetBalance(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(125), b.Amount)

	entries, err := reopened.ListLedgerEntries(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "opening", entries[0].Reason)
}

func TestWithTx_RollsBackOnError(t *testing.T) {
	s, clk := newTestStore(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.WithTx(ctx, func(tx *Tx) error {
		if _, err := tx.AddToBalance(ctx, -60, clk.Now()); err != nil {
			return err
		}
		if _, err := tx.InsertEvent(ctx, BettingEvent{Title: "x", Category: "Tech", OddsYes: 0.5, OddsNo: 0.5, CreatedAt: clk.Now()}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	b, err := s.GetBalance(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(100), b.Amount)

	n, err := s.CountEvents(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestAddToBalance_CheckConstraintRejectsNegative(t *testing.T) {
	s, clk := newTestStore(t)
	ctx := context.Background()

	err := s.WithTx(ctx, func(tx *Tx) error {
		_, err := tx.AddToBalance(ctx, -101, clk.Now())
		return err
	})
	require.Error(t, err)

	b, err := s.GetBalance(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(100), b.Amount)
}

func TestInsertWorkSession_AttemptIsUnique(t *testing.T) {
	s, clk := newTestStore(t)
	ctx := context.Background()
	start := clk.Now()

	ws := WorkSession{
		AttemptID:       "attempt-1",
		StartTime:       start,
		EndTime:         start.Add(15 * time.Minute),
		DurationMinutes: 15,
		Multiplier:      1,
		CoinsEarned:     20,
		Status:          SessionCompleted,
		CreatedAt:       start.Add(15 * time.Minute),
	}

	var first, second bool
	require.NoError(t, s.WithTx(ctx, func(tx *Tx) error {
		var err error
		_, first, err = tx.InsertWorkSession(ctx, ws)
		return err
	}))
	require.NoError(t, s.WithTx(ctx, func(tx *Tx) error {
		var err error
		_, second, err = tx.InsertWorkSession(ctx, ws)
		return err
	}))
	assert.True(t, first)
	assert.False(t, second)

	n, err := s.CountWorkSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := s.GetWorkSessionByAttempt(ctx, "attempt-1")
	require.NoError(t, err)
	assert.Equal(t, SessionCompleted, got.Status)
	assert.Equal(t, int64(20), got.CoinsEarned)
	assert.True(t, got.StartTime.Equal(start))

	_, err = s.GetWorkSessionByAttempt(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListWorkSessions_NewestFirstAndSummary(t *testing.T) {
	s, clk := newTestStore(t)
	ctx := context.Background()

	statuses := []SessionStatus{SessionCompleted, SessionInterrupted, SessionCompleted}
	for i, st := range statuses {
		now := clk.Now()
		coins := int64(0)
		if st == SessionCompleted {
			coins = 20
		}
		require.NoError(t, s.WithTx(ctx, func(tx *Tx) error {
			_, _, err := tx.InsertWorkSession(ctx, WorkSession{
				AttemptID: string(rune('a' + i)), StartTime: now, EndTime: now,
				DurationMinutes: 15, Multiplier: 1, CoinsEarned: coins, Status: st, CreatedAt: now,
			})
			return err
		}))
		clk.Advance(time.Minute)
	}

	list, err := s.ListWorkSessions(ctx, 2, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "c", list[0].AttemptID)
	assert.Equal(t, "b", list[1].AttemptID)

	rest, err := s.ListWorkSessions(ctx, 2, 2)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, "a", rest[0].AttemptID)

	sum, err := s.SessionSummary(ctx)
	require.NoError(t, err)
	assert.Equal(t, SessionSummary{Total: 3, Completed: 2, Interrupted: 1}, sum)

	durations, err := s.CompletedDurations(ctx)
	require.NoError(t, err)
	assert.Equal(t, []float64{15, 15}, durations)

	earned, err := s.TotalCoinsEarned(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(40), earned)
}

func TestEvents_ListFilterAndResolveGuard(t *testing.T) {
	s, clk := newTestStore(t)
	ctx := context.Background()

	var techID, sportsID int64
	require.NoError(t, s.WithTx(ctx, func(tx *Tx) error {
		var err error
		techID, err = tx.InsertEvent(ctx, BettingEvent{Title: "Chip launch", Category: "Tech", OddsYes: 0.4, OddsNo: 0.6, CreatedAt: clk.Now()})
		if err != nil {
			return err
		}
		clk.Advance(time.Second)
		sportsID, err = tx.InsertEvent(ctx, BettingEvent{Title: "Final", Category: "Sports", OddsYes: 0.5, OddsNo: 0.5, IsCustom: true, CreatedAt: clk.Now()})
		return err
	}))

	all, err := s.ListActiveEvents(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, sportsID, all[0].ID)
	assert.True(t, all[0].IsCustom)
	assert.Nil(t, all[0].Outcome)

	tech, err := s.ListActiveEvents(ctx, "Tech")
	require.NoError(t, err)
	require.Len(t, tech, 1)
	assert.Equal(t, techID, tech[0].ID)

	require.NoError(t, s.WithTx(ctx, func(tx *Tx) error {
		return tx.MarkEventResolved(ctx, techID, SideNo, clk.Now())
	}))
	err = s.WithTx(ctx, func(tx *Tx) error {
		return tx.MarkEventResolved(ctx, techID, SideYes, clk.Now())
	})
	assert.ErrorIs(t, err, ErrConflict)

	ev, err := s.GetEvent(ctx, techID)
	require.NoError(t, err)
	assert.False(t, ev.IsActive)
	require.NotNil(t, ev.Outcome)
	assert.Equal(t, SideNo, *ev.Outcome)
	require.NotNil(t, ev.ResolutionDate)

	active, err := s.ListActiveEvents(ctx, "")
	require.NoError(t, err)
	require.Len(t, active, 1)

	_, err = s.GetEvent(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.DeleteEvent(ctx, 999), ErrNotFound)
}

func TestWagers_SettleOnceAndStatistics(t *testing.T) {
	s, clk := newTestStore(t)
	ctx := context.Background()

	var eventID, yesID, noID int64
	require.NoError(t, s.WithTx(ctx, func(tx *Tx) error {
		var err error
		eventID, err = tx.InsertEvent(ctx, BettingEvent{Title: "Launch", Category: "Tech", OddsYes: 0.4, OddsNo: 0.6, CreatedAt: clk.Now()})
		if err != nil {
			return err
		}
		yesID, err = tx.InsertWager(ctx, Wager{EventID: eventID, BetAmount: 40, BetSide: SideYes, OddsAtBet: 0.4, PotentialPayout: 100, CreatedAt: clk.Now()})
		if err != nil {
			return err
		}
		clk.Advance(time.Second)
		noID, err = tx.InsertWager(ctx, Wager{EventID: eventID, BetAmount: 40, BetSide: SideNo, OddsAtBet: 0.6, PotentialPayout: 40 / 0.6, CreatedAt: clk.Now()})
		return err
	}))

	pending, err := s.PendingWagersForEvent(ctx, eventID)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, yesID, pending[0].ID)
	assert.Equal(t, noID, pending[1].ID)
	assert.Equal(t, OutcomePending, pending[0].Outcome)

	require.NoError(t, s.WithTx(ctx, func(tx *Tx) error {
		if err := tx.SettleWager(ctx, yesID, OutcomeLost, 0, -40, clk.Now()); err != nil {
			return err
		}
		return tx.SettleWager(ctx, noID, OutcomeWon, 66, 26, clk.Now())
	}))
	err = s.WithTx(ctx, func(tx *Tx) error {
		return tx.SettleWager(ctx, noID, OutcomeWon, 66, 26, clk.Now())
	})
	assert.ErrorIs(t, err, ErrConflict)

	list, err := s.ListWagers(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, noID, list[0].ID)
	assert.Equal(t, "Launch", list[0].EventTitle)
	assert.Equal(t, "Tech", list[0].EventCategory)
	assert.Equal(t, int64(66), list[0].Winnings)
	require.NotNil(t, list[0].ResolvedAt)

	sum, err := s.BetSummary(ctx)
	require.NoError(t, err)
	assert.Equal(t, BetSummary{Total: 2, Pending: 0, Resolved: 2, Won: 1}, sum)

	stats, err := s.Statistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, Statistics{TotalEarned: 0, TotalSpent: 80, TotalWinnings: 66, NetProfit: -14}, stats)

	amounts, err := s.BetAmounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, []float64{40, 40}, amounts)

	n, err := s.CountWagersForEvent(ctx, eventID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestWipe_KeepsEventsAndLedger(t *testing.T) {
	s, clk := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.WithTx(ctx, func(tx *Tx) error {
		id, err := tx.InsertEvent(ctx, BettingEvent{Title: "e", Category: "Custom", OddsYes: 0.5, OddsNo: 0.5, IsCustom: true, CreatedAt: clk.Now()})
		if err != nil {
			return err
		}
		if _, err := tx.InsertWager(ctx, Wager{EventID: id, BetAmount: 10, BetSide: SideYes, OddsAtBet: 0.5, PotentialPayout: 20, CreatedAt: clk.Now()}); err != nil {
			return err
		}
		_, _, err = tx.InsertWorkSession(ctx, WorkSession{AttemptID: "x", StartTime: clk.Now(), EndTime: clk.Now(), DurationMinutes: 15, Multiplier: 1, Status: SessionInterrupted, CreatedAt: clk.Now()})
		return err
	}))

	require.NoError(t, s.WithTx(ctx, func(tx *Tx) error { return tx.Wipe(ctx) }))

	wagers, err := s.CountWagers(ctx)
	require.NoError(t, err)
	assert.Zero(t, wagers)
	sessions, err := s.CountWorkSessions(ctx)
	require.NoError(t, err)
	assert.Zero(t, sessions)
	events, err := s.CountEvents(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), events)
}

func TestRebind(t *testing.T) {
	pg := queries{driver: db.DriverPostgres}
	assert.Equal(t, "SELECT a FROM t WHERE x = $1 AND y = $2", pg.rebind("SELECT a FROM t WHERE x = ? AND y = ?"))

	lite := queries{driver: db.DriverSQLite}
	assert.Equal(t, "x = ?", lite.rebind("x = ?"))
}
