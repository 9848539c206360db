package events

import (
	"context"
	"sync"
	"time"
)

// MemoryBus is a Bus for a single service instance
type MemoryBus struct {
	mu     sync.Mutex
	subs   map[string]map[*subscriber]struct{}
	closed bool
}

type subscriber struct {
	ch   chan Event
	once sync.Once
}

func (s *subscriber) close() {
	s.once.Do(func() { close(s.ch) })
}

// NewMemoryBus returns an empty in-process bus
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{subs: make(map[string]map[*subscriber]struct{})}
}

// Publish delivers ev to current subscribers of ev.GenerationID
func (b *MemoryBus) Publish(_ context.Context, ev Event) error {
	if ev.Time.IsZero() {
		ev.Time = time.Now().UTC()
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for sub := range b.subs[ev.GenerationID] {
		select {
		case sub.ch <- ev:
		default:
		}
	}
	return nil
}

// Subscribe registers a subscriber for generationID
func (b *MemoryBus) Subscribe(ctx context.Context, generationID string) (<-chan Event, func()) {
	sub := &subscriber{ch: make(chan Event, subscriberBuffer)}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		sub.close()
		return sub.ch, func() {}
	}
	if b.subs[generationID] == nil {
		b.subs[generationID] = make(map[*subscriber]struct{})
	}
	b.subs[generationID][sub] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs[generationID], sub)
			if len(b.subs[generationID]) == 0 {
				delete(b.subs, generationID)
			}
			sub.close()
			b.mu.Unlock()
		})
	}

	go func() {
		<-ctx.Done()
		unsubscribe()
	}()

	return sub.ch, unsubscribe
}

// Close ends every subscription
func (b *MemoryBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	for id, subs := range b.subs {
		for sub := range subs {
			sub.close()
		}
		delete(b.subs, id)
	}
	return nil
}

func (b *MemoryBus) subscribers(generationID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[generationID])
}
