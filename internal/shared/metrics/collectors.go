package metrics

import "github.com/prometheus/client_golang/prometheus"

// Collectors agrupa as métricas do ledger, apostas e sessões.
// Um *Collectors nil é válido e não registra nada (útil em testes e CLI).
type Collectors struct {
	BetsPlaced     prometheus.Counter
	BetErrors      *prometheus.CounterVec
	EventsResolved prometheus.Counter
	PayoutTotal    prometheus.Counter
	CoinsCredited  prometheus.Counter
	CoinsDebited   prometheus.Counter
	Sessions       *prometheus.CounterVec
	Balance        prometheus.Gauge
}

// New cria e registra as métricas no registerer informado
func New(reg prometheus.Registerer) *Collectors {
	c := &Collectors{
		BetsPlaced:     prometheus.NewCounter(prometheus.CounterOpts{Name: "auraflow_bets_placed_total", Help: "apostas registradas"}),
		BetErrors:      prometheus.NewCounterVec(prometheus.CounterOpts{Name: "auraflow_bet_errors_total", Help: "falhas de aposta/resolução por tipo"}, []string{"kind"}),
		EventsResolved: prometheus.NewCounter(prometheus.CounterOpts{Name: "auraflow_events_resolved_total", Help: "eventos liquidados"}),
		PayoutTotal:    prometheus.NewCounter(prometheus.CounterOpts{Name: "auraflow_payout_coins_total", Help: "moedas pagas em liquidações"}),
		CoinsCredited:  prometheus.NewCounter(prometheus.CounterOpts{Name: "auraflow_coins_credited_total", Help: "soma dos deltas positivos"}),
		CoinsDebited:   prometheus.NewCounter(prometheus.CounterOpts{Name: "auraflow_coins_debited_total", Help: "soma dos deltas negativos (valor absoluto)"}),
		Sessions:       prometheus.NewCounterVec(prometheus.CounterOpts{Name: "auraflow_sessions_total", Help: "sessões de foco finalizadas por status"}, []string{"status"}),
		Balance:        prometheus.NewGauge(prometheus.GaugeOpts{Name: "auraflow_balance_coins", Help: "saldo atual"}),
	}
	reg.MustRegister(c.BetsPlaced, c.BetErrors, c.EventsResolved, c.PayoutTotal, c.CoinsCredited, c.CoinsDebited, c.Sessions, c.Balance)
	return c
}

func (c *Collectors) BetPlaced() {
	if c == nil {
		return
	}
	c.BetsPlaced.Inc()
}

func (c *Collectors) BetFailed(kind string) {
	if c == nil {
		return
	}
	c.BetErrors.WithLabelValues(kind).Inc()
}

func (c *Collectors) EventResolved(payout int64) {
	if c == nil {
		return
	}
	c.EventsResolved.Inc()
	c.PayoutTotal.Add(float64(payout))
}

// BalanceChanged registra o delta e o novo saldo
func (c *Collectors) BalanceChanged(delta, balance int64) {
	if c == nil {
		return
	}
	if delta > 0 {
		c.CoinsCredited.Add(float64(delta))
	} else if delta < 0 {
		c.CoinsDebited.Add(float64(-delta))
	}
	c.Balance.Set(float64(balance))
}

func (c *Collectors) SetBalance(balance int64) {
	if c == nil {
		return
	}
	c.Balance.Set(float64(balance))
}

func (c *Collectors) SessionFinished(status string) {
	if c == nil {
		return
	}
	c.Sessions.WithLabelValues(status).Inc()
}
