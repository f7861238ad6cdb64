package signal

import (
	"context"
	"sync"
)

// MemoryBus is an in-process transport for the shared channel. Each member
// obtained through Channel models one open tab: it hears every other
// member's publishes but never its own, matching BroadcastChannel
// semantics. Delivery is synchronous.
type MemoryBus struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]Handler
}

// NewMemoryBus returns an empty bus. Publishing with no subscribers is a
// no-op, never an error.
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{subs: make(map[int]Handler)}
}

// Channel returns one member's view of the shared channel.
func (b *MemoryBus) Channel() Bus {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.mu.Unlock()
	return &member{bus: b, id: id}
}

// broadcast delivers s to every subscriber except the one identified by
// from. Handlers run outside the lock so a handler may publish in turn.
func (b *MemoryBus) broadcast(from int, s Signal) {
	b.mu.Lock()
	handlers := make([]Handler, 0, len(b.subs))
	for id, h := range b.subs {
		if id == from {
			continue
		}
		handlers = append(handlers, h)
	}
	b.mu.Unlock()

	for _, h := range handlers {
		h(s)
	}
}

type member struct {
	bus *MemoryBus
	id  int
}

func (m *member) Publish(_ context.Context, s Signal) error {
	m.bus.broadcast(m.id, s)
	return nil
}

func (m *member) Subscribe(_ context.Context, h Handler) (func(), error) {
	m.bus.mu.Lock()
	m.bus.subs[m.id] = h
	m.bus.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			m.bus.mu.Lock()
			delete(m.bus.subs, m.id)
			m.bus.mu.Unlock()
		})
	}
	return cancel, nil
}
