package dto

import "github.com/radieske/auraflow/internal/store"

type BalanceResponse struct {
	Balance int64 `json:"balance"`
}

// ErrorResponse é o corpo de toda resposta de erro
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

type StopSessionResponse struct {
	Stopped bool               `json:"stopped"`
	Session *store.WorkSession `json:"session,omitempty"`
}

type ResetResponse struct {
	Balance int64 `json:"balance"`
}
