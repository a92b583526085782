package ecs

import (
	"fmt"
)

// Get returns a copy of the component of type T.
func Get[T any](e *Entity) (T, bool) {
	ptr, ok := e.components.boxedPtr(ComponentIdOf[T]())
	if !ok {
		var zero T
		return zero, false
	}

	e.components.mu.Lock()
	defer e.components.mu.Unlock()

	return *ptr.(*T), true
}

// Has reports whether the entity has a component of type T.
func Has[T any](e *Entity) bool {
	return e.components.Has(ComponentIdOf[T]())
}

// Insert stores a component of type T, overwriting an existing value.
func Insert[T any](e *Entity, value T) {
	e.components.Set(&value)
}

// Remove removes the component of type T. Returns false if it was not present.
func Remove[T any](e *Entity) bool {
	return e.components.Remove(ComponentIdOf[T]())
}

// UpdateComponent applies fn to a copy of the component of type T and stores the result,
// so the change is recorded like any other write. Returns false if the component is absent.
func UpdateComponent[T any](e *Entity, fn func(value *T)) bool {
	value, ok := Get[T](e)
	if !ok {
		return false
	}

	fn(&value)
	e.components.Set(&value)
	return true
}

// MustGet returns a copy of the component of type T. A missing component is a
// programming error and panics.
func MustGet[T any](e *Entity) T {
	value, ok := Get[T](e)
	if !ok {
		panic(missingComponent[T](e))
	}

	return value
}

// MustGet2 returns copies of the components of type A and B or panics.
func MustGet2[A, B any](e *Entity) (A, B) {
	return MustGet[A](e), MustGet[B](e)
}

// MustGet3 returns copies of the components of type A, B and C or panics.
func MustGet3[A, B, C any](e *Entity) (A, B, C) {
	return MustGet[A](e), MustGet[B](e), MustGet[C](e)
}

func missingComponent[T any](e *Entity) string {
	return fmt.Sprintf("ecs: entity %s has no component %s", e, componentName(ComponentIdOf[T]()))
}
