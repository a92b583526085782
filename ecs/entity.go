package ecs

import (
	"fmt"
	"slices"
	"sync/atomic"
)

// EntityId identifies an entity within its world. Ids are assigned sequentially,
// the zero value never refers to an entity.
type EntityId uint64

// NoEntity is the zero EntityId.
const NoEntity = EntityId(0)

// Entity is a numeric identity with a debug name and a set of components.
// Entities form a forest through parent/children links.
type Entity struct {
	id    EntityId
	name  string
	world *World

	components ComponentSet

	// guarded by world.hierarchyMu
	parent   *Entity
	children []*Entity

	despawned atomic.Bool
}

func newEntity(world *World, id EntityId, name string) *Entity {
	e := &Entity{
		id:    id,
		name:  name,
		world: world,
	}

	e.components.init(e)
	return e
}

// Id returns the entity id.
func (e *Entity) Id() EntityId {
	return e.id
}

// Name returns the debug name.
func (e *Entity) Name() string {
	return e.name
}

// World returns the world owning this entity.
func (e *Entity) World() *World {
	return e.world
}

// Components returns the component set of this entity.
func (e *Entity) Components() *ComponentSet {
	return &e.components
}

// Set is a shortcut for e.Components().Set.
func (e *Entity) Set(components ...any) *Entity {
	e.components.Set(components...)
	return e
}

// IsAlive reports whether the entity has not been despawned.
func (e *Entity) IsAlive() bool {
	return !e.despawned.Load()
}

// Parent returns the parent entity or nil.
func (e *Entity) Parent() *Entity {
	e.world.hierarchyMu.Lock()
	defer e.world.hierarchyMu.Unlock()
	return e.parent
}

// Children returns a copy of the list of direct children.
func (e *Entity) Children() []*Entity {
	e.world.hierarchyMu.Lock()
	defer e.world.hierarchyMu.Unlock()
	return slices.Clone(e.children)
}

// AddChild attaches child below e. Attaching an entity to itself, to one of its own
// descendants or attaching an entity that already has a parent is a contract violation.
func (e *Entity) AddChild(child *Entity) {
	if child.world != e.world {
		panic(fmt.Sprintf("ecs: entity %s belongs to a different world than %s", child, e))
	}

	e.world.hierarchyMu.Lock()
	defer e.world.hierarchyMu.Unlock()

	if child.parent != nil {
		panic(fmt.Sprintf("ecs: entity %s already has parent %s", child, child.parent))
	}

	for ancestor := e; ancestor != nil; ancestor = ancestor.parent {
		if ancestor == child {
			panic(fmt.Sprintf("ecs: entity %s can not become a descendant of itself", child))
		}
	}

	child.parent = e
	e.children = append(e.children, child)
}

// RemoveChild detaches child from e. Returns false if child is not a child of e.
func (e *Entity) RemoveChild(child *Entity) bool {
	e.world.hierarchyMu.Lock()
	defer e.world.hierarchyMu.Unlock()

	return e.removeChildLocked(child)
}

func (e *Entity) removeChildLocked(child *Entity) bool {
	idx := slices.Index(e.children, child)
	if idx < 0 {
		return false
	}

	e.children = slices.Delete(e.children, idx, idx+1)
	child.parent = nil
	return true
}

func (e *Entity) String() string {
	if e.name == "" {
		return fmt.Sprintf("#%d", e.id)
	}

	return fmt.Sprintf("%s#%d", e.name, e.id)
}
