package event

import (
	"reflect"
	"sync"
)

// Bus is a double-buffered event bus. Events emitted during tick N are
// delivered at the start of tick N+1 by Dispatch. Emit may be called from
// handlers without affecting the batch being delivered.
type Bus struct {
	mu       sync.Mutex
	pending  map[reflect.Type][]any
	handlers map[reflect.Type][]any
}

func NewBus() *Bus {
	return &Bus{
		pending:  make(map[reflect.Type][]any),
		handlers: make(map[reflect.Type][]any),
	}
}

// Emit queues an event for the next Dispatch.
func Emit[T any](b *Bus, ev T) {
	t := reflect.TypeOf((*T)(nil)).Elem()
	b.mu.Lock()
	b.pending[t] = append(b.pending[t], ev)
	b.mu.Unlock()
}

// Subscribe registers a typed handler for events of type T.
func Subscribe[T any](b *Bus, fn func(T)) {
	t := reflect.TypeOf((*T)(nil)).Elem()
	b.mu.Lock()
	b.handlers[t] = append(b.handlers[t], fn)
	b.mu.Unlock()
}

// Dispatch delivers every queued event to its subscribed handlers. Events
// emitted by handlers go to the next Dispatch, not this one.
func (b *Bus) Dispatch() {
	b.mu.Lock()
	batch := b.pending
	b.pending = make(map[reflect.Type][]any)
	b.mu.Unlock()

	for t, events := range batch {
		b.mu.Lock()
		handlers := append([]any(nil), b.handlers[t]...)
		b.mu.Unlock()
		for _, ev := range events {
			for _, h := range handlers {
				// Safe: Subscribe and Emit key by the same type.
				reflect.ValueOf(h).Call([]reflect.Value{reflect.ValueOf(ev)})
			}
		}
	}
}
