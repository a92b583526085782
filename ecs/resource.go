package ecs

import (
	"fmt"
	"reflect"
)

// InsertResource stores value as the resource of type T, overwriting an existing value in place.
func InsertResource[T any](w *World, value T) {
	w.resourcesMu.Lock()
	defer w.resourcesMu.Unlock()

	key := reflect.TypeFor[T]()
	if existing, ok := w.resources[key]; ok {
		*existing.(*T) = value
		return
	}

	w.resources[key] = &value
	w.resourceGen.Add(1)
}

// InsertResource stores a resource keyed by the dynamic type of value.
// A pointer is dereferenced and its target copied.
func (w *World) InsertResource(value any) {
	rv := reflect.ValueOf(value)
	if !rv.IsValid() {
		panic("ecs: nil resource")
	}

	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			panic(fmt.Sprintf("ecs: nil resource pointer %s", rv.Type()))
		}
		rv = rv.Elem()
	}

	w.resourcesMu.Lock()
	defer w.resourcesMu.Unlock()

	key := rv.Type()
	if existing, ok := w.resources[key]; ok {
		reflect.ValueOf(existing).Elem().Set(rv)
		return
	}

	ptr := reflect.New(key)
	ptr.Elem().Set(rv)

	w.resources[key] = ptr.Interface()
	w.resourceGen.Add(1)
}

// GetResource returns a copy of the resource of type T.
func GetResource[T any](w *World) (T, bool) {
	ptr, ok := GetRefResource[T](w)
	if !ok {
		var zero T
		return zero, false
	}

	return *ptr, true
}

// GetRefResource returns a pointer to the resource of type T. The pointer stays
// valid until the resource is removed.
func GetRefResource[T any](w *World) (*T, bool) {
	w.resourcesMu.RLock()
	defer w.resourcesMu.RUnlock()

	value, ok := w.resources[reflect.TypeFor[T]()]
	if !ok {
		return nil, false
	}

	return value.(*T), true
}

// HasResource reports whether a resource of type T exists.
func HasResource[T any](w *World) bool {
	w.resourcesMu.RLock()
	defer w.resourcesMu.RUnlock()

	_, ok := w.resources[reflect.TypeFor[T]()]
	return ok
}

// RemoveResource removes the resource of type T. Returns false if it did not exist.
func RemoveResource[T any](w *World) bool {
	w.resourcesMu.Lock()
	defer w.resourcesMu.Unlock()

	key := reflect.TypeFor[T]()
	if _, ok := w.resources[key]; !ok {
		return false
	}

	delete(w.resources, key)
	w.resourceGen.Add(1)
	return true
}

// ResourceTypes returns the types of all resources.
func (w *World) ResourceTypes() []reflect.Type {
	w.resourcesMu.RLock()
	defer w.resourcesMu.RUnlock()

	types := make([]reflect.Type, 0, len(w.resources))
	for key := range w.resources {
		types = append(types, key)
	}

	return types
}

// Res provides access to the resource of type T from a system field.
// The field is bound to the world when the system is added.
type Res[T any] struct {
	world *World
	ptr   *T
	gen   uint64
	valid bool
}

// NewRes creates a Res bound to the given world.
func NewRes[T any](w *World) *Res[T] {
	res := &Res[T]{}
	res.Init(w)
	return res
}

// Init binds the Res to a world.
func (r *Res[T]) Init(w *World) {
	r.world = w
	r.valid = false
}

func (r *Res[T]) isSystemParam() {}

// Get returns a pointer to the resource or nil if it does not exist.
func (r *Res[T]) Get() *T {
	r.updateCache()
	return r.ptr
}

// Exists returns true if the resource exists.
func (r *Res[T]) Exists() bool {
	return r.Get() != nil
}

// updateCache refreshes the cached pointer when the resource table changed.
func (r *Res[T]) updateCache() {
	if r.world == nil {
		panic("ecs: Res used before Init")
	}

	gen := r.world.resourceGen.Load()
	if r.valid && gen == r.gen {
		return
	}

	r.ptr, _ = GetRefResource[T](r.world)
	r.gen = gen
	r.valid = true
}
