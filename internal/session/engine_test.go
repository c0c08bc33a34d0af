package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/radieske/auraflow/internal/ledger"
	"github.com/radieske/auraflow/internal/shared/apperr"
	"github.com/radieske/auraflow/internal/shared/metrics"
	"github.com/radieske/auraflow/internal/store"
	"github.com/radieske/auraflow/internal/store/storetest"
	"github.com/radieske/auraflow/internal/testutil"
	"github.com/radieske/auraflow/pkg/contracts/events"
)

type fixture struct {
	store   *store.Store
	states  *FileStateStore
	clock   *testutil.FakeClock
	rec     *testutil.Recorder
	metrics *metrics.Collectors
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	clk := testutil.NewFakeClock()
	return fixture{
		store:   storetest.Open(t, clk),
		states:  NewFileStateStore(filepath.Join(t.TempDir(), "timer_state.json")),
		clock:   clk,
		rec:     &testutil.Recorder{},
		metrics: metrics.New(prometheus.NewRegistry()),
	}
}

// engine simula um processo novo sobre o mesmo banco e o mesmo registro
func (f fixture) engine() *Engine {
	log := zap.NewNop()
	led := ledger.New(f.store, f.clock, f.rec, f.metrics, log, storetest.StartingBalance)
	return New(f.store, led, f.states, f.clock, f.rec, f.metrics, log, DefaultGracePeriod)
}

func (f fixture) balance(t *testing.T) int64 {
	t.Helper()
	return storetest.BalanceOf(t, f.store)
}

func TestTierFor(t *testing.T) {
	cases := map[int]Tier{
		15: {Minutes: 15, Multiplier: 1, Coins: 20},
		30: {Minutes: 30, Multiplier: 2, Coins: 40},
		60: {Minutes: 60, Multiplier: 5, Coins: 100},
	}
	for minutes, want := range cases {
		got, ok := TierFor(minutes)
		require.True(t, ok)
		assert.Equal(t, want, got)
	}
	for _, bad := range []int{0, 10, 20, 45, 90} {
		_, ok := TierFor(bad)
		assert.False(t, ok, "minutes %d", bad)
	}
}

func TestFifteenMinuteSession_CompletesAndCredits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := f.engine()

	st, err := e.Start(ctx, 15)
	require.NoError(t, err)
	assert.Equal(t, StatusRunning, st.Status)
	assert.Equal(t, int64(900), st.TotalSeconds)

	saved, err := f.states.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.True(t, saved.ExpectedEnd.Equal(testutil.Start.Add(15*time.Minute)))

	f.clock.Advance(899 * time.Second)
	st, err = e.Tick(ctx)
	require.NoError(t, err)
	assert.Equal(t, StatusRunning, st.Status)
	tick, ok := f.rec.Last(events.TypeTimerTick)
	require.True(t, ok)
	assert.Equal(t, events.TimerTick{ElapsedSeconds: 899, TotalSeconds: 900}, tick.Payload)

	f.clock.Advance(time.Second)
	st, err = e.Tick(ctx)
	require.NoError(t, err)
	assert.Equal(t, StatusIdle, st.Status)

	assert.Equal(t, int64(120), f.balance(t))
	storetest.RequireConserved(t, f.store)

	sessions, err := f.store.ListWorkSessions(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, store.SessionCompleted, sessions[0].Status)
	assert.Equal(t, int64(20), sessions[0].CoinsEarned)
	assert.Equal(t, 1, sessions[0].Multiplier)
	assert.Equal(t, saved.AttemptID, sessions[0].AttemptID)

	cleared, err := f.states.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, cleared)

	assert.Equal(t, []string{
		events.TypeTimerStarted,
		events.TypeTimerTick,
		events.TypeBalanceUpdated,
		events.TypeSessionCompleted,
	}, f.rec.Types())
	assert.Equal(t, float64(1), promtest.ToFloat64(f.metrics.Sessions.WithLabelValues("completed")))
}

func TestStop_RecordsInterruptedWithoutReward(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := f.engine()

	_, err := e.Start(ctx, 30)
	require.NoError(t, err)
	f.clock.Advance(10 * time.Minute)

	ws, err := e.Stop(ctx)
	require.NoError(t, err)
	require.NotNil(t, ws)
	assert.Equal(t, store.SessionInterrupted, ws.Status)
	assert.Zero(t, ws.CoinsEarned)
	assert.Equal(t, 30, ws.DurationMinutes)
	assert.Equal(t, 2, ws.Multiplier)

	assert.Equal(t, int64(100), f.balance(t))
	assert.Equal(t, StatusIdle, e.State().Status)

	n, ok := f.rec.Last(events.TypeSessionStopped)
	require.True(t, ok)
	assert.Equal(t, events.SessionStopped{SessionID: ws.ID, ElapsedSeconds: 600}, n.Payload)

	// parado: stop não faz nada
	again, err := e.Stop(ctx)
	require.NoError(t, err)
	assert.Nil(t, again)
	count, err := f.store.CountWorkSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestStart_RejectsUnknownDurationAndIgnoresSecondStart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := f.engine()

	_, err := e.Start(ctx, 20)
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	first, err := e.Start(ctx, 60)
	require.NoError(t, err)
	f.clock.Advance(time.Minute)

	second, err := e.Start(ctx, 15)
	require.NoError(t, err)
	assert.Equal(t, first.AttemptID, second.AttemptID)
	assert.Equal(t, 60, second.DurationMinutes)
	assert.Equal(t, int64(60), second.ElapsedSeconds)
	assert.Equal(t, []string{events.TypeTimerStarted}, f.rec.Types())
}

func TestRecover(t *testing.T) {
	cases := []struct {
		name    string
		advance time.Duration
		want    Recovery
		balance int64
		status  store.SessionStatus
		notice  string
	}{
		{"still running resumes", 10 * time.Minute, RecoveryResumed, 100, "", events.TypeTimerResumed},
		{"exactly at expected end completes", 15 * time.Minute, RecoveryCompleted, 120, store.SessionCompleted, events.TypeSessionCompleted},
		{"inside grace completes", 19 * time.Minute, RecoveryCompleted, 120, store.SessionCompleted, events.TypeSessionCompleted},
		{"at grace boundary completes", 20 * time.Minute, RecoveryCompleted, 120, store.SessionCompleted, events.TypeSessionCompleted},
		{"after grace interrupts", 20*time.Minute + time.Second, RecoveryInterrupted, 100, store.SessionInterrupted, events.TypeSessionInterrupted},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()

			_, err := f.engine().Start(ctx, 15)
			require.NoError(t, err)

			// processo morre; outro sobe depois de tc.advance
			f.clock.Advance(tc.advance)
			f.rec.Reset()
			e := f.engine()

			got, err := e.Recover(ctx)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.balance, f.balance(t))
			_, ok := f.rec.Last(tc.notice)
			assert.True(t, ok, "expected %s", tc.notice)

			sessions, err := f.store.ListWorkSessions(ctx, 10, 0)
			require.NoError(t, err)
			if tc.status == "" {
				assert.Empty(t, sessions)
				assert.Equal(t, StatusRunning, e.State().Status)
				assert.Equal(t, int64(600), e.State().ElapsedSeconds)
				return
			}
			require.Len(t, sessions, 1)
			assert.Equal(t, tc.status, sessions[0].Status)
			assert.Equal(t, StatusIdle, e.State().Status)

			rs, err := f.states.Load(ctx)
			require.NoError(t, err)
			assert.Nil(t, rs)

			// segunda recuperação não faz nada
			again, err := e.Recover(ctx)
			require.NoError(t, err)
			assert.Equal(t, RecoveryNone, again)
			storetest.RequireConserved(t, f.store)
		})
	}
}

func TestRecover_AttemptAlreadyRecordedIsNotCreditedTwice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.engine().Start(ctx, 15)
	require.NoError(t, err)
	rs, err := f.states.Load(ctx)
	require.NoError(t, err)

	// conclusão commitada, mas o processo caiu antes de limpar o registro
	f.clock.Advance(15 * time.Minute)
	e := f.engine()
	_, err = e.Tick(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(100), f.balance(t), "engine without recovery has nothing running")

	_, err = e.Recover(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(120), f.balance(t))
	require.NoError(t, f.states.Save(ctx, *rs))

	f.rec.Reset()
	got, err := f.engine().Recover(ctx)
	require.NoError(t, err)
	assert.Equal(t, RecoveryCompleted, got)
	assert.Equal(t, int64(120), f.balance(t))
	assert.Empty(t, f.rec.Types())

	n, err := f.store.CountWorkSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	cleared, err := f.states.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, cleared)
	storetest.RequireConserved(t, f.store)
}

func TestStart_RunsRecoveryFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.engine().Start(ctx, 15)
	require.NoError(t, err)
	f.clock.Advance(time.Hour)

	e := f.engine()
	st, err := e.Start(ctx, 30)
	require.NoError(t, err)
	assert.Equal(t, 30, st.DurationMinutes)

	sessions, err := f.store.ListWorkSessions(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, store.SessionInterrupted, sessions[0].Status)
}

func TestCompleteFailure_KeepsSessionRunning(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := f.engine()

	_, err := e.Start(ctx, 15)
	require.NoError(t, err)

	storetest.Exec(t, f.store, `CREATE TRIGGER fail_reward BEFORE UPDATE ON coin_balance
		BEGIN SELECT RAISE(ABORT, 'boom'); END;`)
	f.clock.Advance(15 * time.Minute)

	_, err = e.Tick(ctx)
	require.ErrorIs(t, err, apperr.ErrPersistence)
	assert.Equal(t, StatusRunning, e.State().Status)
	n, err := f.store.CountWorkSessions(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	storetest.Exec(t, f.store, `DROP TRIGGER fail_reward`)
	st, err := e.Tick(ctx)
	require.NoError(t, err)
	assert.Equal(t, StatusIdle, st.Status)
	assert.Equal(t, int64(120), f.balance(t))
	storetest.RequireConserved(t, f.store)
}

func TestRecover_DiscardsUnusableRecordAndAllowsStart(t *testing.T) {
	cases := []struct {
		name  string
		write func(t *testing.T, f fixture)
	}{
		{"unknown duration", func(t *testing.T, f fixture) {
			now := f.clock.Now()
			require.NoError(t, f.states.Save(context.Background(), RunningSession{
				AttemptID:       "attempt-45",
				StartTime:       now.Add(-46 * time.Minute),
				DurationMinutes: 45,
				ExpectedEnd:     now.Add(-time.Minute),
			}))
		}},
		{"torn json", func(t *testing.T, f fixture) {
			require.NoError(t, os.WriteFile(f.states.path, []byte("{not json"), 0o600))
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			tc.write(t, f)
			e := f.engine()

			got, err := e.Recover(ctx)
			require.NoError(t, err)
			assert.Equal(t, RecoveryDiscarded, got)

			rs, err := f.states.Load(ctx)
			require.NoError(t, err)
			assert.Nil(t, rs)

			n, err := f.store.CountWorkSessions(ctx)
			require.NoError(t, err)
			assert.Zero(t, n)
			assert.Equal(t, int64(100), f.balance(t))

			st, err := e.Start(ctx, 15)
			require.NoError(t, err)
			assert.Equal(t, StatusRunning, st.Status)
			assert.Equal(t, 15, st.DurationMinutes)
		})
	}
}

func TestStart_DiscardsUnusableRecordLeftBehind(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, os.WriteFile(f.states.path, []byte("{not json"), 0o600))

	// sem Recover explícito: o Start resolve o registro antes
	st, err := f.engine().Start(ctx, 15)
	require.NoError(t, err)
	assert.Equal(t, StatusRunning, st.Status)
}
