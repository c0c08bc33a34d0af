package events

type EventCreated struct {
	EventID  int64  `json:"event_id"`
	Title    string `json:"title"`
	Category string `json:"category"`
}

type EventDeleted struct {
	EventID int64 `json:"event_id"`
}

type EventResolved struct {
	EventID     int64  `json:"event_id"`
	EventTitle  string `json:"event_title"`
	WinningSide string `json:"winning_side"`
	TotalPayout int64  `json:"total_payout"`
	WonCount    int    `json:"won_count"`
	LostCount   int    `json:"lost_count"`
}
