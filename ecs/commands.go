package ecs

// Commands provides a buffer for deferred structural changes. The buffer of a stage
// is flushed once the stage completed, so the changes are visible to the next stage.
type Commands struct {
	spawns   []spawnCommand
	despawns []*Entity
	inserts  []insertCommand
	removes  []removeCommand
	defers   []func()
}

func newCommands() *Commands {
	return &Commands{}
}

type spawnCommand struct {
	name       string
	components []any
	then       func(e *Entity)
}

type insertCommand struct {
	entity     *Entity
	components []any
}

type removeCommand struct {
	entity *Entity
	ids    []ComponentId
}

// Defer queues a function that runs after all other commands of the buffer.
func (c *Commands) Defer(fn func()) {
	c.defers = append(c.defers, fn)
}

// Spawn queues an entity spawn with the given components.
func (c *Commands) Spawn(name string, components ...any) {
	c.spawns = append(c.spawns, spawnCommand{name: name, components: components})
}

// SpawnThen queues an entity spawn and calls then with the new entity.
func (c *Commands) SpawnThen(name string, then func(e *Entity), components ...any) {
	c.spawns = append(c.spawns, spawnCommand{name: name, components: components, then: then})
}

// Despawn queues the removal of an entity and its descendants.
func (c *Commands) Despawn(entity *Entity) {
	c.despawns = append(c.despawns, entity)
}

// Insert queues inserting components into an existing entity.
func (c *Commands) Insert(entity *Entity, components ...any) {
	c.inserts = append(c.inserts, insertCommand{entity: entity, components: components})
}

// Remove queues removing components from an existing entity.
func (c *Commands) Remove(entity *Entity, ids ...ComponentId) {
	c.removes = append(c.removes, removeCommand{entity: entity, ids: ids})
}

// RemoveComponent queues removing the component of type T from an entity.
func RemoveComponent[T any](c *Commands, entity *Entity) {
	c.Remove(entity, ComponentIdOf[T]())
}

// Len returns the number of queued commands.
func (c *Commands) Len() int {
	return len(c.spawns) + len(c.despawns) + len(c.inserts) + len(c.removes) + len(c.defers)
}

// Flush applies all commands to the world, resetting the buffer state.
// Inserts and removes targeting entities that are despawned are dropped.
func (c *Commands) Flush(w *World) {
	for _, entity := range c.despawns {
		w.Despawn(entity)
	}

	for _, cmd := range c.removes {
		if !cmd.entity.IsAlive() {
			continue
		}

		for _, id := range cmd.ids {
			cmd.entity.components.Remove(id)
		}
	}

	for _, cmd := range c.inserts {
		if cmd.entity.IsAlive() {
			cmd.entity.components.Set(cmd.components...)
		}
	}

	for _, cmd := range c.spawns {
		entity := w.Spawn(cmd.name, cmd.components...)
		if cmd.then != nil {
			cmd.then(entity)
		}
	}

	for _, fn := range c.defers {
		fn()
	}

	clear(c.spawns)
	clear(c.despawns)
	clear(c.inserts)
	clear(c.removes)
	clear(c.defers)

	c.spawns = c.spawns[:0]
	c.despawns = c.despawns[:0]
	c.inserts = c.inserts[:0]
	c.removes = c.removes[:0]
	c.defers = c.defers[:0]
}
