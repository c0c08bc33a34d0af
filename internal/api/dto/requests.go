package dto

type CreateEventRequest struct {
	Title       string  `json:"title"`
	Category    string  `json:"category"` // Sports | Tech | Gaming | Politics | Custom
	Description string  `json:"description"`
	OddsYes     float64 `json:"odds_yes"`
	OddsNo      float64 `json:"odds_no"`
}

type PlaceBetRequest struct {
	EventID int64  `json:"event_id"`
	Side    string `json:"side"`   // "yes" | "no"
	Amount  *int64 `json:"amount"` // opcional; sem valor usa o padrão
}

type ResolveEventRequest struct {
	WinningSide string `json:"winning_side"`
}

type StartSessionRequest struct {
	DurationMinutes int `json:"duration_minutes"` // 15 | 30 | 60
}
