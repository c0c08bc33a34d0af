package testutil

import (
	"sync"
	"time"
)

// FakeClock é um relógio manual para testes; começa em Start
type FakeClock struct {
	mu  sync.Mutex
	now time.Time
}

// Start é o instante inicial padrão dos testes
var Start = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func NewFakeClock() *FakeClock { return &FakeClock{now: Start} }

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance avança o relógio em d
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func (c *FakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}
