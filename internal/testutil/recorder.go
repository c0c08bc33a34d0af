package testutil

import (
	"context"
	"sync"

	"github.com/radieske/auraflow/pkg/contracts/events"
)

// Recorder guarda as notificações publicadas, em ordem
type Recorder struct {
	mu  sync.Mutex
	all []events.Notification
}

func (r *Recorder) Publish(_ context.Context, n events.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.all = append(r.all, n)
	return nil
}

func (r *Recorder) All() []events.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.Notification, len(r.all))
	copy(out, r.all)
	return out
}

// Types retorna só os tipos, útil para asserts de ordem
func (r *Recorder) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.all))
	for _, n := range r.all {
		out = append(out, n.Type)
	}
	return out
}

// Last retorna a última notificação do tipo pedido
func (r *Recorder) Last(typ string) (events.Notification, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.all) - 1; i >= 0; i-- {
		if r.all[i].Type == typ {
			return r.all[i], true
		}
	}
	return events.Notification{}, false
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.all = nil
}
