package store

import "time"

// Side é o lado de uma aposta ou o resultado de um evento
type Side string

const (
	SideYes Side = "yes"
	SideNo  Side = "no"
)

// ParseSide aceita apenas "yes" ou "no"
func ParseSide(s string) (Side, bool) {
	switch Side(s) {
	case SideYes, SideNo:
		return Side(s), true
	}
	return "", false
}

type SessionStatus string

const (
	SessionCompleted   SessionStatus = "completed"
	SessionInterrupted SessionStatus = "interrupted"
)

type WagerOutcome string

const (
	OutcomePending WagerOutcome = "pending"
	OutcomeWon     WagerOutcome = "won"
	OutcomeLost    WagerOutcome = "lost"
)

// Balance é o saldo único (coin_balance id=1)
type Balance struct {
	Amount      int64     `json:"balance"`
	LastUpdated time.Time `json:"last_updated"`
}

// LedgerEntry é uma linha da fita do ledger: um delta aplicado no saldo
type LedgerEntry struct {
	ID           int64     `json:"id"`
	Delta        int64     `json:"delta"`
	BalanceAfter int64     `json:"balance_after"`
	Reason       string    `json:"reason"`
	Ref          string    `json:"ref,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// WorkSession é gravada só no fim da sessão (concluída ou interrompida)
type WorkSession struct {
	ID              int64         `json:"id"`
	AttemptID       string        `json:"attempt_id"`
	StartTime       time.Time     `json:"start_time"`
	EndTime         time.Time     `json:"end_time"`
	DurationMinutes int           `json:"duration_minutes"`
	Multiplier      int           `json:"multiplier"`
	CoinsEarned     int64         `json:"coins_earned"`
	Status          SessionStatus `json:"status"`
	CreatedAt       time.Time     `json:"created_at"`
}

// BettingEvent é um mercado sim/não; Outcome fica nil enquanto ativo
type BettingEvent struct {
	ID             int64      `json:"id"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	Category       string     `json:"category"`
	OddsYes        float64    `json:"odds_yes"`
	OddsNo         float64    `json:"odds_no"`
	IsCustom       bool       `json:"is_custom"`
	Outcome        *Side      `json:"outcome"`
	IsActive       bool       `json:"is_active"`
	CreatedAt      time.Time  `json:"created_at"`
	ResolutionDate *time.Time `json:"resolution_date,omitempty"`
}

// OddsFor retorna a odd corrente do lado pedido
func (e BettingEvent) OddsFor(side Side) float64 {
	if side == SideYes {
		return e.OddsYes
	}
	return e.OddsNo
}

// Wager (betting_transactions) guarda a odd travada no momento da aposta
type Wager struct {
	ID              int64        `json:"id"`
	EventID         int64        `json:"event_id"`
	BetAmount       int64        `json:"bet_amount"`
	BetSide         Side         `json:"bet_side"`
	OddsAtBet       float64      `json:"odds_at_bet"`
	PotentialPayout float64      `json:"potential_payout"`
	Outcome         WagerOutcome `json:"outcome"`
	Winnings        int64        `json:"winnings"`
	NetProfit       int64        `json:"net_profit"`
	CreatedAt       time.Time    `json:"created_at"`
	ResolvedAt      *time.Time   `json:"resolved_at,omitempty"`

	// preenchidos apenas no histórico (join com betting_events)
	EventTitle    string `json:"event_title,omitempty"`
	EventCategory string `json:"event_category,omitempty"`
}

// Statistics são os totais exibidos no histórico
type Statistics struct {
	TotalEarned   int64 `json:"total_earned"`
	TotalSpent    int64 `json:"total_spent"`
	TotalWinnings int64 `json:"total_winnings"`
	NetProfit     int64 `json:"net_profit"`
}

type SessionSummary struct {
	Total       int64
	Completed   int64
	Interrupted int64
}

type BetSummary struct {
	Total    int64
	Pending  int64
	Resolved int64
	Won      int64
}
