package ecs

import (
	"iter"
	"reflect"
	"unsafe"
)

// Query is a live view over all entities matching the struct T. See newView for
// the supported field kinds. Inside a system, Changed and Added filters report writes
// since the previous run of that system; outside of a system every write counts.
type Query[T any] struct {
	world *World
	view  *view
}

// NewQuery creates a query bound to the given world.
func NewQuery[T any](w *World) *Query[T] {
	q := &Query[T]{}
	q.Init(w)
	return q
}

// Init binds the query to a world. It is called automatically for query fields of
// systems and panics if T describes contradicting requirements.
func (q *Query[T]) Init(w *World) {
	q.world = w
	q.view = viewOf(reflect.TypeFor[T]())
}

func (q *Query[T]) isSystemParam() {}

// Iter returns an iterator over the matching entities and their filled query structs,
// in spawn order. Entities spawned or despawned during iteration are not observed.
func (q *Query[T]) Iter() iter.Seq2[*Entity, T] {
	q.mustInit()

	return func(yield func(*Entity, T) bool) {
		cutoff, tick := q.world.lastRunCutoff(), q.world.currentTick()

		var result T
		resultPtr := unsafe.Pointer(&result)

		for _, entity := range q.world.entitySnapshot() {
			if !entity.IsAlive() {
				continue
			}

			if !q.view.fill(entity, resultPtr, cutoff, tick) {
				continue
			}

			if !yield(entity, result) {
				return
			}
		}
	}
}

// Values returns an iterator over the filled query structs only.
func (q *Query[T]) Values() iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, item := range q.Iter() {
			if !yield(item) {
				return
			}
		}
	}
}

// Get fills the query struct for a single entity.
func (q *Query[T]) Get(e *Entity) (T, bool) {
	q.mustInit()

	var result T
	if e == nil || e.world != q.world || !e.IsAlive() {
		return result, false
	}

	ok := q.view.fill(e, unsafe.Pointer(&result), q.world.lastRunCutoff(), q.world.currentTick())
	return result, ok
}

// Single returns the only match. It returns false if there are zero or several matches.
func (q *Query[T]) Single() (T, bool) {
	var (
		result T
		count  int
	)

	for _, item := range q.Iter() {
		count++
		if count > 1 {
			var zero T
			return zero, false
		}

		result = item
	}

	return result, count == 1
}

// Count returns the number of matching entities without filling any struct.
func (q *Query[T]) Count() int {
	q.mustInit()

	var count int
	for _, entity := range q.world.entitySnapshot() {
		if q.Matches(entity) {
			count++
		}
	}

	return count
}

// Matches reports whether the entity currently matches the query.
func (q *Query[T]) Matches(e *Entity) bool {
	q.mustInit()

	if e == nil || e.world != q.world || !e.IsAlive() {
		return false
	}

	e.components.mu.Lock()
	defer e.components.mu.Unlock()

	return q.view.matchesLocked(&e.components, q.world.lastRunCutoff())
}

func (q *Query[T]) mustInit() {
	if q.world == nil {
		panic("ecs: query used before Init")
	}
}
