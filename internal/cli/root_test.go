package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radieske/auraflow/internal/api/dto"
	"github.com/radieske/auraflow/internal/history"
	"github.com/radieske/auraflow/internal/shared/apperr"
	"github.com/radieske/auraflow/internal/store"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "auraflow", cmd.Use)
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	paths := [][]string{
		{"serve"}, {"balance"}, {"stats"}, {"reset"}, {"bet"},
		{"events", "list"}, {"events", "create"}, {"events", "delete"}, {"events", "resolve"},
		{"session", "start"}, {"session", "stop"}, {"session", "status"},
		{"history", "sessions"}, {"history", "bets"},
		{"notifications", "tail"},
	}
	for _, path := range paths {
		sub, _, err := cmd.Find(path)
		require.NoError(t, err, "command %v should exist", path)
		assert.Equal(t, path[len(path)-1], sub.Name())
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()
	f := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, f)
	assert.Equal(t, "text", f.DefValue)

	bet, _, err := cmd.Find([]string{"bet"})
	require.NoError(t, err)
	amount := bet.Flags().Lookup("amount")
	require.NotNil(t, amount)
	assert.Equal(t, "a", amount.Shorthand)
}

// env aponta a config para um sqlite e um registro de sessão descartáveis
func env(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("ENV_FILE", filepath.Join(dir, "missing.env"))
	t.Setenv("ENV", "test")
	t.Setenv("STORE_URL", "sqlite3:"+filepath.Join(dir, "auraflow.db"))
	t.Setenv("TIMER_STATE_BACKEND", "file")
	t.Setenv("TIMER_STATE_PATH", filepath.Join(dir, "timer_state.json"))
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("KAFKA_BROKERS", "")
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func runJSON(t *testing.T, v any, args ...string) {
	t.Helper()
	out, err := run(t, append(args, "--format", "json")...)
	require.NoError(t, err, out)
	require.NoError(t, json.Unmarshal([]byte(out), v), out)
}

func TestInvalidFormat(t *testing.T) {
	_, err := run(t, "balance", "--format", "xml")
	assert.Error(t, err)
}

func TestBetFlowAgainstStore(t *testing.T) {
	env(t)

	var b dto.BalanceResponse
	runJSON(t, &b, "balance")
	assert.EqualValues(t, 100, b.Balance)

	var list []store.BettingEvent
	runJSON(t, &list, "events", "list", "--category", "Tech")
	assert.Len(t, list, 2)

	var ev store.BettingEvent
	runJSON(t, &ev, "events", "create", "Standup ends early", "--yes", "0.4", "--no", "0.6")
	assert.True(t, ev.IsCustom)
	id := itoa(ev.ID)

	var w store.Wager
	runJSON(t, &w, "bet", id, "no", "--amount", "40")
	assert.EqualValues(t, 40, w.BetAmount)

	_, err := run(t, "bet", id, "yes", "--amount", "500")
	assert.ErrorIs(t, err, apperr.ErrInsufficientFunds)

	_, err = run(t, "events", "delete", id)
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	out, err := run(t, "events", "resolve", id, "no")
	require.NoError(t, err, out)
	assert.Contains(t, out, "1 won")

	// 40 / 0.6 = 66.67, pago 66
	runJSON(t, &b, "balance")
	assert.EqualValues(t, 126, b.Balance)

	var bets history.Page[store.Wager]
	runJSON(t, &bets, "history", "bets")
	require.Len(t, bets.Items, 1)
	assert.Equal(t, store.OutcomeWon, bets.Items[0].Outcome)

	out, err = run(t, "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "Net profit")
}

func TestSessionAndResetCommands(t *testing.T) {
	env(t)

	out, err := run(t, "session", "start", "15")
	require.NoError(t, err, out)
	assert.Contains(t, out, "running 15 min session")

	// o registro sobrevive ao processo do comando anterior
	out, err = run(t, "session", "status")
	require.NoError(t, err, out)
	assert.Contains(t, out, "running")

	_, err = run(t, "reset", "--yes")
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	var stopped dto.StopSessionResponse
	runJSON(t, &stopped, "session", "stop")
	assert.True(t, stopped.Stopped)

	out, err = run(t, "session", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "idle")

	_, err = run(t, "reset")
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	var reset dto.ResetResponse
	runJSON(t, &reset, "reset", "--yes")
	assert.EqualValues(t, 100, reset.Balance)

	var sessions history.Page[store.WorkSession]
	runJSON(t, &sessions, "history", "sessions")
	assert.EqualValues(t, 0, sessions.Total)
}

func TestNotificationsTail_RequiresBrokers(t *testing.T) {
	env(t)
	_, err := run(t, "notifications", "tail")
	assert.Error(t, err)
}
