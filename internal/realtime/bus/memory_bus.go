package bus

import (
	"context"
	"fmt"
	"sync"
)

// memoryBus delivers events to in-process forwarders only. It is used when
// no redis address is configured.
type memoryBus struct {
	mu       sync.RWMutex
	handlers map[int]func(Event)
	nextID   int
	closed   bool
}

func NewMemoryBus() Bus {
	return &memoryBus{handlers: map[int]func(Event){}}
}

func (b *memoryBus) Publish(ctx context.Context, ev Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return fmt.Errorf("bus closed")
	}
	for _, h := range b.handlers {
		h(ev)
	}
	return nil
}

func (b *memoryBus) StartForwarder(ctx context.Context, onEvent func(ev Event)) error {
	if onEvent == nil {
		return fmt.Errorf("onEvent callback required")
	}
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return fmt.Errorf("bus closed")
	}
	id := b.nextID
	b.nextID++
	b.handlers[id] = onEvent
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.handlers, id)
		b.mu.Unlock()
	}()
	return nil
}

func (b *memoryBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.handlers = map[int]func(Event){}
	return nil
}
