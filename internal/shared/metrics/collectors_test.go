package metrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectors_BalanceChanged(t *testing.T) {
	c := New(prometheus.NewRegistry())

	c.BalanceChanged(40, 140)
	c.BalanceChanged(-10, 130)

	assert.Equal(t, 40.0, testutil.ToFloat64(c.CoinsCredited))
	assert.Equal(t, 10.0, testutil.ToFloat64(c.CoinsDebited))
	assert.Equal(t, 130.0, testutil.ToFloat64(c.Balance))
}

func TestCollectors_NilIsNoop(t *testing.T) {
	var c *Collectors
	assert.NotPanics(t, func() {
		c.BetPlaced()
		c.BetFailed("invalid_input")
		c.EventResolved(10)
		c.BalanceChanged(1, 1)
		c.SessionFinished("completed")
	})
}

func TestNewHandler_Healthz(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)

	healthy := NewHandler(reg, func(context.Context) error { return nil })
	rec := httptest.NewRecorder()
	healthy.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	sick := NewHandler(reg, func(context.Context) error { return errors.New("store down") })
	rec = httptest.NewRecorder()
	sick.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "store down")

	rec = httptest.NewRecorder()
	healthy.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "auraflow_balance_coins")
}
