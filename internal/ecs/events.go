package ecs

import (
	"reflect"
	"sync"
)

// EventBus is a typed, per-tick event queue. Emit appends an event;
// listeners run when Drain is called, which happens automatically
// between systems during RunSystems. A listener is free to Emit more
// events itself (e.g. a ShootEvent listener emitting a SpawnEntityEvent);
// Drain keeps processing generations until the queue is empty, so chained
// events resolve within the same Drain call.
type EventBus struct {
	mu        sync.Mutex
	listeners map[reflect.Type][]func(any)
	queue     []any
}

// NewEventBus returns an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{listeners: make(map[reflect.Type][]func(any))}
}

// ListenerHandle identifies a subscription for later removal.
type ListenerHandle struct {
	typ   reflect.Type
	index int
}

// Subscribe registers fn to run for every event of type E emitted after
// this call.
func Subscribe[E any](b *EventBus, fn func(E)) ListenerHandle {
	t := reflect.TypeOf((*E)(nil)).Elem()
	wrapped := func(e any) { fn(e.(E)) }

	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners[t] = append(b.listeners[t], wrapped)
	return ListenerHandle{typ: t, index: len(b.listeners[t]) - 1}
}

// Unsubscribe removes a listener previously returned by Subscribe. It
// leaves a nil hole rather than reslicing so outstanding handles for the
// same type stay valid.
func (b *EventBus) Unsubscribe(h ListenerHandle) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ls := b.listeners[h.typ]
	if h.index < 0 || h.index >= len(ls) {
		return
	}
	ls[h.index] = nil
}

// Emit queues e for delivery on the next Drain.
func Emit[E any](b *EventBus, e E) {
	b.mu.Lock()
	b.queue = append(b.queue, e)
	b.mu.Unlock()
}

// Drain delivers every queued event to its type's listeners, and keeps
// draining any events those listeners emit in turn, until the queue is
// empty.
func (b *EventBus) Drain() {
	for {
		b.mu.Lock()
		if len(b.queue) == 0 {
			b.mu.Unlock()
			return
		}
		batch := b.queue
		b.queue = nil
		b.mu.Unlock()

		for _, e := range batch {
			t := reflect.TypeOf(e)
			b.mu.Lock()
			ls := append([]func(any){}, b.listeners[t]...)
			b.mu.Unlock()
			for _, fn := range ls {
				if fn != nil {
					fn(e)
				}
			}
		}
	}
}
