package ecs

import (
	"iter"
	"reflect"
	"slices"
)

// EventsStorage double buffers the events of type T. Events sent during one frame
// become readable once the buffers are swapped and stay readable until the next swap.
type EventsStorage[T any] struct {
	current []T
	old     []T
}

// Send appends an event to the current buffer.
func (s *EventsStorage[T]) Send(event T) {
	s.current = append(s.current, event)
}

// Read returns the events of the previous window.
func (s *EventsStorage[T]) Read() []T {
	return s.old
}

// Pending returns the number of events waiting for the next swap.
func (s *EventsStorage[T]) Pending() int {
	return len(s.current)
}

// Swap moves the current buffer to the readable one and starts an empty current buffer.
// Slices returned by Read are never written again.
func (s *EventsStorage[T]) Swap() {
	s.old, s.current = s.current, make([]T, 0, len(s.current))
}

// RegisterEventIfNeeded returns the event storage of type T, creating it as a resource
// and registering its swap on first use.
func RegisterEventIfNeeded[T any](w *World) *EventsStorage[T] {
	w.eventsMu.Lock()
	defer w.eventsMu.Unlock()

	key := reflect.TypeFor[T]()
	if storage, ok := w.eventTypes[key]; ok {
		return storage.(*EventsStorage[T])
	}

	InsertResource(w, EventsStorage[T]{})
	storage, _ := GetRefResource[EventsStorage[T]](w)

	w.eventTypes[key] = storage
	w.eventSwaps = append(w.eventSwaps, storage.Swap)

	return storage
}

// Send sends an event of type T.
func Send[T any](w *World, event T) {
	RegisterEventIfNeeded[T](w).Send(event)
}

// ReadEvents returns the readable events of type T.
func ReadEvents[T any](w *World) []T {
	return RegisterEventIfNeeded[T](w).Read()
}

// swapEvents swaps the buffers of every registered event type.
func (w *World) swapEvents() {
	w.eventsMu.Lock()
	swaps := slices.Clone(w.eventSwaps)
	w.eventsMu.Unlock()

	for _, swap := range swaps {
		swap()
	}
}

// EventsSystem swaps the buffers of all event types. The world installs it once,
// after every other system of the configured event stage.
type EventsSystem struct {
	world *World
}

func (s *EventsSystem) Execute(frame *UpdateFrame) {
	s.world.swapEvents()
}

// EventWriter sends events of type T from a system field.
type EventWriter[T any] struct {
	storage *EventsStorage[T]
}

// Init binds the writer to a world.
func (w *EventWriter[T]) Init(world *World) {
	w.storage = RegisterEventIfNeeded[T](world)
}

func (w *EventWriter[T]) isSystemParam() {}

// Send appends an event.
func (w *EventWriter[T]) Send(event T) {
	w.storage.Send(event)
}

// EventReader reads events of type T from a system field.
type EventReader[T any] struct {
	storage *EventsStorage[T]
}

// Init binds the reader to a world.
func (r *EventReader[T]) Init(world *World) {
	r.storage = RegisterEventIfNeeded[T](world)
}

func (r *EventReader[T]) isSystemParam() {}

// Read returns the readable events.
func (r *EventReader[T]) Read() []T {
	return r.storage.Read()
}

// Iter iterates the readable events.
func (r *EventReader[T]) Iter() iter.Seq[T] {
	return slices.Values(r.storage.Read())
}

// Len returns the number of readable events.
func (r *EventReader[T]) Len() int {
	return len(r.storage.Read())
}
