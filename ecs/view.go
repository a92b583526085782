package ecs

import (
	"fmt"
	"reflect"
	"sync"
	"unsafe"
)

// iface represents the internal memory layout of an interface{}.
type iface struct {
	typ  unsafe.Pointer
	data unsafe.Pointer
}

type fieldKind uint8

const (
	fieldPointer fieldKind = iota
	fieldValue
	fieldEntity
	fieldEntityId
)

type viewField struct {
	kind     fieldKind
	name     string
	offset   uintptr
	typ      reflect.Type
	id       ComponentId
	optional bool
}

// view describes how to fill a query struct from the components of an entity.
// Views are built once per struct type and shared by every query over that type.
type view struct {
	typ    reflect.Type
	fields []viewField

	required Bitmask
	excluded Bitmask
	changed  []ComponentId
	added    []ComponentId
}

var views sync.Map // reflect.Type -> *view

func viewOf(t reflect.Type) *view {
	if cached, ok := views.Load(t); ok {
		return cached.(*view)
	}

	v := newView(t)
	actual, _ := views.LoadOrStore(t, v)
	return actual.(*view)
}

var (
	entityPtrType = reflect.TypeFor[*Entity]()
	entityIdType  = reflect.TypeFor[EntityId]()
	filterType    = reflect.TypeFor[queryFilter]()
)

// newView parses the struct type of a query. Pointer fields hand out the stored component
// and may carry the `ecs:"optional"` tag, value fields receive a copy, *Entity and EntityId
// fields receive the matched entity and marker fields filter the result.
// Contradicting requirements panic.
func newView(structType reflect.Type) *view {
	if structType.Kind() != reflect.Struct {
		panic(fmt.Sprintf("ecs: query type %s must be a struct", structType))
	}

	v := &view{typ: structType}

	var optional Bitmask

	for i := 0; i < structType.NumField(); i++ {
		field := structType.Field(i)
		fieldType := field.Type

		isOptional := false
		if tag := field.Tag.Get("ecs"); tag != "" {
			if tag != "optional" {
				panic(fmt.Sprintf("ecs: invalid ecs tag value %q on %s.%s (only \"optional\" is supported)",
					tag, structType, field.Name))
			}

			if field.Anonymous || fieldType.Kind() != reflect.Pointer {
				panic(fmt.Sprintf("ecs: only named pointer fields can be optional, see %s.%s",
					structType, field.Name))
			}

			isOptional = true
		}

		switch {
		case fieldType.Implements(filterType):
			kind, id := reflect.Zero(fieldType).Interface().(queryFilter).queryFilter()
			switch kind {
			case filterWith:
				v.required.Set(id)
			case filterWithout:
				v.excluded.Set(id)
			case filterChanged:
				v.required.Set(id)
				v.changed = append(v.changed, id)
			case filterAdded:
				v.required.Set(id)
				v.added = append(v.added, id)
			}
			continue

		case fieldType == entityPtrType:
			v.fields = append(v.fields, viewField{kind: fieldEntity, name: field.Name, offset: field.Offset})
			continue

		case fieldType == entityIdType:
			v.fields = append(v.fields, viewField{kind: fieldEntityId, name: field.Name, offset: field.Offset})
			continue
		}

		kind := fieldValue
		componentType := fieldType
		if fieldType.Kind() == reflect.Pointer {
			kind = fieldPointer
			componentType = fieldType.Elem()
		}

		id := ComponentIdFor(componentType)

		if isOptional {
			optional.Set(id)
		} else {
			v.required.Set(id)
		}

		v.fields = append(v.fields, viewField{
			kind:     kind,
			name:     field.Name,
			offset:   field.Offset,
			typ:      componentType,
			id:       id,
			optional: isOptional,
		})
	}

	for id := range v.excluded.Ids() {
		if v.required.Has(id) {
			panic(fmt.Sprintf("ecs: query %s both requires and excludes %s", structType, componentName(id)))
		}

		if optional.Has(id) {
			panic(fmt.Sprintf("ecs: query %s has an optional field of excluded %s", structType, componentName(id)))
		}
	}

	return v
}

// matchesLocked checks the component mask and change filters. The component set must be locked.
func (v *view) matchesLocked(s *ComponentSet, cutoff Tick) bool {
	if !s.mask.ContainsAll(v.required) || s.mask.Intersects(v.excluded) {
		return false
	}

	for _, id := range v.changed {
		if entry := s.entryLocked(id); entry == nil || entry.changed <= cutoff {
			return false
		}
	}

	for _, id := range v.added {
		if entry := s.entryLocked(id); entry == nil || entry.added <= cutoff {
			return false
		}
	}

	return true
}

// fill populates the struct at ptr for the given entity. Components handed out through
// pointer fields are marked as changed at tick. Returns false if the entity does not match.
func (v *view) fill(e *Entity, ptr unsafe.Pointer, cutoff, tick Tick) bool {
	s := &e.components

	s.mu.Lock()
	defer s.mu.Unlock()

	if !v.matchesLocked(s, cutoff) {
		return false
	}

	for idx := range v.fields {
		field := &v.fields[idx]
		fieldPtr := unsafe.Add(ptr, field.offset)

		switch field.kind {
		case fieldEntity:
			*(**Entity)(fieldPtr) = e

		case fieldEntityId:
			*(*EntityId)(fieldPtr) = e.id

		case fieldPointer:
			entry := s.entryLocked(field.id)
			if entry == nil {
				*(*unsafe.Pointer)(fieldPtr) = nil
				continue
			}

			// the boxed value is always a pointer, so the interface data word is the component address
			*(*unsafe.Pointer)(fieldPtr) = (*iface)(unsafe.Pointer(&entry.value)).data
			entry.changed = tick

		case fieldValue:
			entry := s.entryLocked(field.id)
			reflect.NewAt(field.typ, fieldPtr).Elem().Set(reflect.ValueOf(entry.value).Elem())
		}
	}

	return true
}
