// Package notify entrega as notificações do núcleo aos observadores:
// bus em processo, Kafka, Redis Pub/Sub e WebSocket.
package notify

import (
	"context"
	"errors"

	"github.com/radieske/auraflow/pkg/contracts/events"
)

// Notifier recebe notificações já persistidas
type Notifier interface {
	Publish(ctx context.Context, n events.Notification) error
}

// Nop descarta tudo
type Nop struct{}

func (Nop) Publish(context.Context, events.Notification) error { return nil }

// Multi repassa a notificação para todos os destinos, mesmo se algum falhar
type Multi []Notifier

func (m Multi) Publish(ctx context.Context, n events.Notification) error {
	var errs []error
	for _, dst := range m {
		if dst == nil {
			continue
		}
		if err := dst.Publish(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Func adapta uma função comum para Notifier
type Func func(ctx context.Context, n events.Notification) error

func (f Func) Publish(ctx context.Context, n events.Notification) error { return f(ctx, n) }
