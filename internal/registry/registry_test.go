package registry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/radieske/auraflow/internal/shared/apperr"
	"github.com/radieske/auraflow/internal/store"
	"github.com/radieske/auraflow/internal/store/storetest"
	"github.com/radieske/auraflow/internal/testutil"
	"github.com/radieske/auraflow/pkg/contracts/events"
)

func newRegistry(t *testing.T) (*Registry, *store.Store, *testutil.FakeClock, *testutil.Recorder) {
	t.Helper()
	clk := testutil.NewFakeClock()
	st := storetest.Open(t, clk)
	rec := &testutil.Recorder{}
	return New(st, clk, rec, zap.NewNop()), st, clk, rec
}

func TestValidate(t *testing.T) {
	valid := NewEvent{Title: "Launch", Category: "Tech", OddsYes: 0.4, OddsNo: 0.6}

	cases := []struct {
		name string
		mod  func(*NewEvent)
		ok   bool
	}{
		{"valid", func(*NewEvent) {}, true},
		{"empty title", func(e *NewEvent) { e.Title = "" }, false},
		{"blank title", func(e *NewEvent) { e.Title = "   " }, false},
		{"unknown category", func(e *NewEvent) { e.Category = "Weather" }, false},
		{"all is not a category", func(e *NewEvent) { e.Category = "All" }, false},
		{"odds zero", func(e *NewEvent) { e.OddsYes, e.OddsNo = 0, 1 }, false},
		{"odds one", func(e *NewEvent) { e.OddsYes, e.OddsNo = 1, 0.01 }, false},
		{"sum too low", func(e *NewEvent) { e.OddsYes, e.OddsNo = 0.6, 0.3 }, false},
		{"sum within tolerance", func(e *NewEvent) { e.OddsYes, e.OddsNo = 0.5, 0.505 }, true},
		{"sum at float edge of tolerance", func(e *NewEvent) { e.OddsYes, e.OddsNo = 0.7, 0.31 }, false},
		{"doubled 0.505 rounds past tolerance", func(e *NewEvent) { e.OddsYes, e.OddsNo = 0.505, 0.505 }, false},
		{"sum just outside tolerance", func(e *NewEvent) { e.OddsYes, e.OddsNo = 0.51, 0.51 }, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ne := valid
			tc.mod(&ne)
			err := Validate(ne)
			if tc.ok {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, apperr.ErrInvalidInput)
		})
	}
}

func TestCreateEvent(t *testing.T) {
	r, _, _, rec := newRegistry(t)
	ctx := context.Background()

	ev, err := r.CreateEvent(ctx, NewEvent{Title: "  Ship v2  ", Category: "Custom", Description: "by friday", OddsYes: 0.3, OddsNo: 0.7})
	require.NoError(t, err)
	assert.NotZero(t, ev.ID)
	assert.Equal(t, "Ship v2", ev.Title)
	assert.True(t, ev.IsCustom)
	assert.True(t, ev.IsActive)
	assert.Nil(t, ev.Outcome)

	got, err := r.Get(ctx, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, "by friday", got.Description)
	assert.InDelta(t, 0.3, got.OddsYes, 1e-9)

	n, ok := rec.Last(events.TypeEventCreated)
	require.True(t, ok)
	assert.Equal(t, events.EventCreated{EventID: ev.ID, Title: "Ship v2", Category: "Custom"}, n.Payload)

	_, err = r.CreateEvent(ctx, NewEvent{Title: "", Category: "Tech", OddsYes: 0.5, OddsNo: 0.5})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
	_, err = r.CreateEvent(ctx, NewEvent{Title: "x", Category: "Tech", OddsYes: 0.6, OddsNo: 0.3})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
	assert.Len(t, rec.All(), 1)
}

func TestListActive_NewestFirstWithCategoryFilter(t *testing.T) {
	r, _, clk, _ := newRegistry(t)
	ctx := context.Background()

	a, err := r.CreateEvent(ctx, NewEvent{Title: "a", Category: "Tech", OddsYes: 0.5, OddsNo: 0.5})
	require.NoError(t, err)
	clk.Advance(time.Minute)
	b, err := r.CreateEvent(ctx, NewEvent{Title: "b", Category: "Sports", OddsYes: 0.5, OddsNo: 0.5})
	require.NoError(t, err)
	clk.Advance(time.Minute)
	c, err := r.CreateEvent(ctx, NewEvent{Title: "c", Category: "Tech", OddsYes: 0.5, OddsNo: 0.5})
	require.NoError(t, err)

	all, err := r.ListActive(ctx, CategoryAll)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []int64{c.ID, b.ID, a.ID}, []int64{all[0].ID, all[1].ID, all[2].ID})

	tech, err := r.ListActive(ctx, "Tech")
	require.NoError(t, err)
	require.Len(t, tech, 2)
	assert.Equal(t, c.ID, tech[0].ID)

	none, err := r.ListActive(ctx, "Politics")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestDeleteEvent(t *testing.T) {
	r, st, clk, rec := newRegistry(t)
	ctx := context.Background()

	custom, err := r.CreateEvent(ctx, NewEvent{Title: "custom", Category: "Custom", OddsYes: 0.5, OddsNo: 0.5})
	require.NoError(t, err)
	withBet, err := r.CreateEvent(ctx, NewEvent{Title: "bet on me", Category: "Custom", OddsYes: 0.5, OddsNo: 0.5})
	require.NoError(t, err)

	var builtinID int64
	require.NoError(t, st.WithTx(ctx, func(tx *store.Tx) error {
		builtinID, err = tx.InsertEvent(ctx, store.BettingEvent{Title: "builtin", Category: "Tech", OddsYes: 0.5, OddsNo: 0.5, CreatedAt: clk.Now()})
		if err != nil {
			return err
		}
		_, err = tx.InsertWager(ctx, store.Wager{EventID: withBet.ID, BetAmount: 10, BetSide: store.SideYes, OddsAtBet: 0.5, PotentialPayout: 20, CreatedAt: clk.Now()})
		return err
	}))

	err = r.DeleteEvent(ctx, withBet.ID)
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
	assert.Equal(t, "Cannot delete event with existing bets", apperr.Message(err))

	err = r.DeleteEvent(ctx, builtinID)
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
	assert.Equal(t, "Can only delete custom events", apperr.Message(err))

	assert.ErrorIs(t, r.DeleteEvent(ctx, 4242), apperr.ErrEventUnavailable)

	rec.Reset()
	require.NoError(t, r.DeleteEvent(ctx, custom.ID))
	_, err = r.Get(ctx, custom.ID)
	assert.ErrorIs(t, err, apperr.ErrEventUnavailable)
	assert.Equal(t, []string{events.TypeEventDeleted}, rec.Types())
}

func TestResolvableEvent_AndMarkResolved(t *testing.T) {
	r, st, clk, _ := newRegistry(t)
	ctx := context.Background()

	ev, err := r.CreateEvent(ctx, NewEvent{Title: "x", Category: "Gaming", OddsYes: 0.5, OddsNo: 0.5})
	require.NoError(t, err)

	require.NoError(t, st.WithTx(ctx, func(tx *store.Tx) error {
		got, err := ResolvableEvent(ctx, tx, ev.ID)
		if err != nil {
			return err
		}
		return MarkResolved(ctx, tx, got, store.SideYes, clk)
	}))

	err = st.WithTx(ctx, func(tx *store.Tx) error {
		_, err := ResolvableEvent(ctx, tx, ev.ID)
		return err
	})
	assert.ErrorIs(t, err, apperr.ErrEventUnavailable)

	err = st.WithTx(ctx, func(tx *store.Tx) error {
		_, err := ActiveEvent(ctx, tx, ev.ID)
		return err
	})
	assert.ErrorIs(t, err, apperr.ErrEventUnavailable)

	err = st.WithTx(ctx, func(tx *store.Tx) error {
		return MarkResolved(ctx, tx, ev, store.SideNo, clk)
	})
	assert.ErrorIs(t, err, apperr.ErrEventUnavailable)
}

func TestSeedBuiltins_OnlyOnEmptyStore(t *testing.T) {
	r, _, _, rec := newRegistry(t)
	ctx := context.Background()

	builtins, err := Builtins()
	require.NoError(t, err)
	require.NotEmpty(t, builtins)

	n, err := r.SeedBuiltins(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(builtins), n)

	again, err := r.SeedBuiltins(ctx)
	require.NoError(t, err)
	assert.Zero(t, again)

	list, err := r.ListActive(ctx, "")
	require.NoError(t, err)
	assert.Len(t, list, len(builtins))
	for _, ev := range list {
		assert.False(t, ev.IsCustom)
	}
	assert.Empty(t, rec.All())
}
