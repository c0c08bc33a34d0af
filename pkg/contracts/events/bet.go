package events

type BetPlaced struct {
	WagerID         int64   `json:"wager_id"`
	EventID         int64   `json:"event_id"`
	EventTitle      string  `json:"event_title"`
	BetSide         string  `json:"bet_side"`
	BetAmount       int64   `json:"bet_amount"`
	OddsAtBet       float64 `json:"odds_at_bet"`
	PotentialPayout float64 `json:"potential_payout"`
}

// BetError carrega a mensagem exibida ao usuário quando uma aposta/resolução falha
type BetError struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}
