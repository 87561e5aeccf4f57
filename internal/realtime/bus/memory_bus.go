package bus

import (
	"context"
	"fmt"
	"sync"

	"github.com/yungbote/meetingdesk-backend/internal/realtime"
)

// memoryBus delivers events in-process, synchronously and in publish order.
type memoryBus struct {
	mu       sync.RWMutex
	nextID   int
	handlers map[int]func(realtime.ArtefactEvent)
	closed   bool
}

func NewMemoryBus() Bus {
	return &memoryBus{handlers: map[int]func(realtime.ArtefactEvent){}}
}

func (b *memoryBus) Publish(ctx context.Context, ev realtime.ArtefactEvent) error {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return fmt.Errorf("memory bus closed")
	}
	handlers := make([]func(realtime.ArtefactEvent), 0, len(b.handlers))
	for id := 0; id < b.nextID; id++ {
		if h, ok := b.handlers[id]; ok {
			handlers = append(handlers, h)
		}
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(ev)
	}
	return nil
}

func (b *memoryBus) Subscribe(ctx context.Context, onEvent func(ev realtime.ArtefactEvent)) error {
	if onEvent == nil {
		return fmt.Errorf("onEvent callback required")
	}
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return fmt.Errorf("memory bus closed")
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
	b.handlers = map[int]func(realtime.ArtefactEvent){}
	return nil
}
