package events

import "time"

type TimerStarted struct {
	AttemptID       string    `json:"attempt_id"`
	DurationMinutes int       `json:"duration_minutes"`
	Multiplier      int       `json:"multiplier"`
	ExpectedEnd     time.Time `json:"expected_end"`
}

// TimerResumed é emitido quando uma sessão sobrevive a um restart
type TimerResumed struct {
	AttemptID       string `json:"attempt_id"`
	DurationMinutes int    `json:"duration_minutes"`
	Multiplier      int    `json:"multiplier"`
	ElapsedSeconds  int64  `json:"elapsed_seconds"`
}

type TimerTick struct {
	ElapsedSeconds int64 `json:"elapsed"`
	TotalSeconds   int64 `json:"total"`
}

type SessionCompleted struct {
	SessionID       int64 `json:"session_id"`
	CoinsEarned     int64 `json:"coins_earned"`
	DurationMinutes int   `json:"duration_minutes"`
	Multiplier      int   `json:"multiplier"`
}

type SessionStopped struct {
	SessionID      int64 `json:"session_id"`
	ElapsedSeconds int64 `json:"elapsed_seconds"`
}

// SessionInterrupted é emitido quando a recuperação encontra uma sessão abandonada
type SessionInterrupted struct {
	SessionID       int64 `json:"session_id"`
	DurationMinutes int   `json:"duration_minutes"`
}
