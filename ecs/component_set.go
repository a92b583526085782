package ecs

import (
	"fmt"
	"reflect"
	"slices"
	"sync"

	"github.com/kamstrup/intmap"
)

type componentEntry struct {
	id ComponentId

	// value is always a pointer to the stored component
	value any

	added   Tick
	changed Tick
}

// ComponentSet holds the components of a single entity. Entries keep their
// insertion order and are mirrored by a bitmask for membership tests.
// Every mutation is reported to the owning World.
type ComponentSet struct {
	mu      sync.Mutex
	entity  *Entity
	entries []componentEntry
	index   *intmap.Map[ComponentId, int]
	mask    Bitmask
}

func (s *ComponentSet) init(entity *Entity) {
	s.entity = entity
	s.index = intmap.New[ComponentId, int](8)
}

// Set stores the given components in order, overwriting existing values of the same type.
// Values may be passed directly or as pointers, Bundles are flattened in order.
// Components required by the inserted ones are added if they are not yet present.
func (s *ComponentSet) Set(components ...any) {
	queue := flattenBundles(nil, components)
	explicit := len(queue)

	for idx := 0; idx < len(queue); idx++ {
		id, boxed := boxComponent(queue[idx])

		// required components never replace a value that already exists
		if idx >= explicit && s.Has(id) {
			continue
		}

		s.setBoxed(id, boxed)

		if req, ok := queue[idx].(RequiresComponents); ok {
			queue = flattenBundles(queue, req.RequiredComponents())
		}
	}
}

// Remove removes the component with the given id. The owning world is notified
// before the value is erased. Returns false if the component was not present.
func (s *ComponentSet) Remove(id ComponentId) bool {
	s.mu.Lock()
	idx, ok := s.index.Get(id)
	if !ok {
		s.mu.Unlock()
		return false
	}
	value := s.entries[idx].value
	s.mu.Unlock()

	s.notifyRemove(id, value)

	s.mu.Lock()
	defer s.mu.Unlock()

	// a hook may have removed the component already
	idx, ok = s.index.Get(id)
	if !ok {
		return true
	}

	s.entries = slices.Delete(s.entries, idx, idx+1)
	for j := idx; j < len(s.entries); j++ {
		s.index.Put(s.entries[j].id, j)
	}

	s.index.Del(id)
	s.mask.Clear(id)

	return true
}

// RemoveAll removes every component in insertion order.
func (s *ComponentSet) RemoveAll() {
	for _, id := range s.Ids() {
		s.Remove(id)
	}
}

// Has reports whether a component with the given id is present.
func (s *ComponentSet) Has(id ComponentId) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mask.Has(id)
}

// Get returns a copy of the component with the given id.
func (s *ComponentSet) Get(id ComponentId) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, ok := s.index.Get(id)
	if !ok {
		return nil, false
	}

	return reflect.ValueOf(s.entries[idx].value).Elem().Interface(), true
}

// Ids returns the ids of all components in insertion order.
func (s *ComponentSet) Ids() []ComponentId {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]ComponentId, len(s.entries))
	for idx, entry := range s.entries {
		ids[idx] = entry.id
	}

	return ids
}

// Len returns the number of components.
func (s *ComponentSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Mask returns a copy of the membership bitmask.
func (s *ComponentSet) Mask() Bitmask {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mask.Clone()
}

func (s *ComponentSet) setBoxed(id ComponentId, boxed any) {
	tick := s.entity.world.currentTick()

	s.mu.Lock()

	var previous any
	if idx, ok := s.index.Get(id); ok {
		entry := &s.entries[idx]
		previous = entry.value
		entry.value = boxed
		entry.changed = tick
	} else {
		s.index.Put(id, len(s.entries))
		s.entries = append(s.entries, componentEntry{
			id:      id,
			value:   boxed,
			added:   tick,
			changed: tick,
		})
		s.mask.Set(id)
	}

	s.mu.Unlock()

	s.entity.world.didAddComponent(s.entity, id, previous, boxed)
}

// entryLocked returns the entry of id or nil. The set must be locked.
func (s *ComponentSet) entryLocked(id ComponentId) *componentEntry {
	idx, ok := s.index.Get(id)
	if !ok {
		return nil
	}

	return &s.entries[idx]
}

// boxedPtr returns the stored pointer, mainly for typed accessors.
func (s *ComponentSet) boxedPtr(id ComponentId) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, ok := s.index.Get(id)
	if !ok {
		return nil, false
	}

	return s.entries[idx].value, true
}

func (s *ComponentSet) notifyRemove(id ComponentId, value any) {
	s.entity.world.willRemoveComponent(s.entity, id, value)
}

// boxComponent copies the component onto the heap and returns its id
// together with the pointer to the copy.
func boxComponent(component any) (ComponentId, any) {
	value := reflect.ValueOf(component)
	if !value.IsValid() {
		panic("ecs: nil component")
	}

	if value.Kind() == reflect.Pointer {
		if value.IsNil() {
			panic(fmt.Sprintf("ecs: nil component pointer %s", value.Type()))
		}
		value = value.Elem()
	}

	info := componentInfoFor(value.Type())

	ptr := reflect.New(info.Type)
	ptr.Elem().Set(value)

	return info.Id, ptr.Interface()
}
