package apperr

import (
	"errors"
	"fmt"
)

// Kind classifica a falha para a camada de apresentação
type Kind string

const (
	KindInvalidInput      Kind = "invalid_input"
	KindInsufficientFunds Kind = "insufficient_funds"
	KindEventUnavailable  Kind = "event_unavailable"
	KindPersistence       Kind = "persistence_failure"
	KindResolutionFailed  Kind = "resolution_failed"
)

// Sentinelas para uso com errors.Is
var (
	ErrInvalidInput      = &Error{Kind: KindInvalidInput}
	ErrInsufficientFunds = &Error{Kind: KindInsufficientFunds}
	ErrEventUnavailable  = &Error{Kind: KindEventUnavailable}
	ErrPersistence       = &Error{Kind: KindPersistence}
	ErrResolutionFailed  = &Error{Kind: KindResolutionFailed}
)

// Error carrega o tipo da falha, uma mensagem legível e a causa opcional
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is compara apenas o Kind, assim errors.Is(err, ErrInvalidInput) funciona
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func InvalidInput(msg string) error { return &Error{Kind: KindInvalidInput, Msg: msg} }

func InsufficientFunds(msg string) error { return &Error{Kind: KindInsufficientFunds, Msg: msg} }

func EventUnavailable(msg string) error { return &Error{Kind: KindEventUnavailable, Msg: msg} }

// Persistence embrulha um erro de escrita/leitura durável.
// Se err já for um *Error, ele é devolvido como está.
func Persistence(err error) error {
	var ae *Error
	if errors.As(err, &ae) {
		return err
	}
	return &Error{Kind: KindPersistence, Msg: "persistence failure", Err: err}
}

// ResolutionFailed sinaliza falha genérica durante a liquidação de um evento
func ResolutionFailed(err error) error {
	return &Error{Kind: KindResolutionFailed, Msg: "failed to resolve event", Err: err}
}

// KindOf retorna o Kind do primeiro *Error na cadeia (ou KindPersistence)
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindPersistence
}

// Message retorna a mensagem voltada ao usuário, sem detalhes internos
func Message(err error) string {
	var ae *Error
	if errors.As(err, &ae) && ae.Msg != "" {
		return ae.Msg
	}
	return "unexpected failure"
}
