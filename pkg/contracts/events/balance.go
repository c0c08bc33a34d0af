package events

// BalanceUpdated é emitido a cada delta aplicado no saldo
type BalanceUpdated struct {
	Balance int64  `json:"balance"`
	Change  int64  `json:"change"`
	Reason  string `json:"reason"`
}
