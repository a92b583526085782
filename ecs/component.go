package ecs

import (
	"fmt"
	"reflect"
	"sync"
)

// ComponentId is a process-stable key identifying a component type.
// Ids are assigned on first use of a type and never reused.
type ComponentId uint32

// ComponentInfo describes a registered component type.
type ComponentInfo struct {
	Id   ComponentId
	Type reflect.Type
	Name string
}

// RequiresComponents can be implemented by a component to describe other components
// that are inserted alongside it whenever they are not already present on the entity.
type RequiresComponents interface {
	RequiredComponents() []any
}

// componentRegistry assigns ids to types. Lookups go through the sync.Map,
// assignment happens once per type under mu.
var componentRegistry struct {
	mu     sync.Mutex
	byType sync.Map // reflect.Type -> *ComponentInfo
	infos  []*ComponentInfo
}

// ComponentIdOf returns the ComponentId of T, assigning one on first use.
func ComponentIdOf[T any]() ComponentId {
	return ComponentIdFor(reflect.TypeFor[T]())
}

// ComponentIdFor returns the ComponentId of the given type. Pointer types are
// normalized to their element type.
func ComponentIdFor(t reflect.Type) ComponentId {
	return componentInfoFor(t).Id
}

func componentInfoFor(t reflect.Type) *ComponentInfo {
	if t == nil {
		panic("ecs: nil component type")
	}

	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	if info, ok := componentRegistry.byType.Load(t); ok {
		return info.(*ComponentInfo)
	}

	switch t.Kind() {
	case reflect.Chan, reflect.Func, reflect.Interface, reflect.UnsafePointer:
		panic(fmt.Sprintf("ecs: %s can not be used as a component", t))
	}

	componentRegistry.mu.Lock()
	defer componentRegistry.mu.Unlock()

	// another goroutine may have won the race
	if info, ok := componentRegistry.byType.Load(t); ok {
		return info.(*ComponentInfo)
	}

	info := &ComponentInfo{
		Id:   ComponentId(len(componentRegistry.infos)),
		Type: t,
		Name: t.String(),
	}

	componentRegistry.infos = append(componentRegistry.infos, info)
	componentRegistry.byType.Store(t, info)

	return info
}

// ComponentInfoOf returns the info of a previously assigned ComponentId.
func ComponentInfoOf(id ComponentId) (ComponentInfo, bool) {
	componentRegistry.mu.Lock()
	defer componentRegistry.mu.Unlock()

	if int(id) >= len(componentRegistry.infos) {
		return ComponentInfo{}, false
	}

	return *componentRegistry.infos[id], true
}

// RegisteredComponents returns all component types seen so far, ordered by id.
func RegisteredComponents() []ComponentInfo {
	componentRegistry.mu.Lock()
	defer componentRegistry.mu.Unlock()

	infos := make([]ComponentInfo, len(componentRegistry.infos))
	for idx, info := range componentRegistry.infos {
		infos[idx] = *info
	}

	return infos
}

func componentName(id ComponentId) string {
	info, ok := ComponentInfoOf(id)
	if !ok {
		return fmt.Sprintf("component#%d", id)
	}

	return info.Name
}
