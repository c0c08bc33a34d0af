package events

import (
	"time"

	"github.com/google/uuid"
)

// Tipos de notificação emitidos pelo núcleo (sempre após persistência)
const (
	TypeBalanceUpdated     = "balance:updated"
	TypeTimerStarted       = "timer:started"
	TypeTimerResumed       = "timer:resumed"
	TypeTimerTick          = "timer:tick"
	TypeSessionCompleted   = "session:completed"
	TypeSessionStopped     = "session:stopped"
	TypeSessionInterrupted = "session:interrupted"
	TypeBetPlaced          = "bet:placed"
	TypeBetError           = "bet:error"
	TypeEventCreated       = "event:created"
	TypeEventDeleted       = "event:deleted"
	TypeEventResolved      = "event:resolved"
)

// Notification é o envelope publicado no bus, Kafka, Redis e WebSocket
type Notification struct {
	ID      string    `json:"id"`
	Type    string    `json:"type"`
	At      time.Time `json:"at"`
	Payload any       `json:"payload"`
}

// New monta um envelope com id aleatório
func New(typ string, at time.Time, payload any) Notification {
	return Notification{
		ID:      uuid.NewString(),
		Type:    typ,
		At:      at,
		Payload: payload,
	}
}

// Topic retorna o prefixo do tipo ("bet:placed" -> "bet")
func (n Notification) Topic() string {
	for i := 0; i < len(n.Type); i++ {
		if n.Type[i] == ':' {
			return n.Type[:i]
		}
	}
	return n.Type
}
