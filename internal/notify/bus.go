package notify

import (
	"context"
	"slices"
	"sync"

	"github.com/radieske/auraflow/pkg/contracts/events"
)

// Handler é chamado de forma síncrona para cada notificação assinada
type Handler func(ctx context.Context, n events.Notification)

type subscription struct {
	types   map[string]struct{}
	handler Handler
}

// Bus é o barramento de observadores em processo.
// Sem tipos na assinatura, o handler recebe tudo.
type Bus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]subscription
}

func NewBus() *Bus {
	return &Bus{subs: make(map[int]subscription)}
}

// Subscribe registra o handler e devolve a função que cancela a assinatura
func (b *Bus) Subscribe(h Handler, types ...string) (unsubscribe func()) {
	sub := subscription{handler: h}
	if len(types) > 0 {
		sub.types = make(map[string]struct{}, len(types))
		for _, t := range types {
			sub.types[t] = struct{}{}
		}
	}

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = sub
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}
}

// Publish entrega a notificação aos handlers interessados, em ordem de assinatura
func (b *Bus) Publish(ctx context.Context, n events.Notification) error {
	b.mu.RLock()
	ids := make([]int, 0, len(b.subs))
	subs := make(map[int]subscription, len(b.subs))
	for id, s := range b.subs {
		ids = append(ids, id)
		subs[id] = s
	}
	b.mu.RUnlock()

	slices.Sort(ids)
	for _, id := range ids {
		s := subs[id]
		if s.types != nil {
			if _, ok := s.types[n.Type]; !ok {
				continue
			}
		}
		s.handler(ctx, n)
	}
	return nil
}
