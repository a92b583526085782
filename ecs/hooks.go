package ecs

// OnAdd registers a hook that runs whenever a component of type T is stored on an entity.
// old is nil when the component was not present before.
func OnAdd[T any](w *World, fn func(e *Entity, old, new *T)) {
	id := ComponentIdOf[T]()

	w.hooksMu.Lock()
	defer w.hooksMu.Unlock()

	w.addHooks[id] = append(w.addHooks[id], func(e *Entity, old, new any) {
		var oldValue *T
		if old != nil {
			oldValue = old.(*T)
		}

		fn(e, oldValue, new.(*T))
	})
}

// OnRemove registers a hook that runs before a component of type T is removed from an entity,
// including removals caused by despawning the entity.
func OnRemove[T any](w *World, fn func(e *Entity, value *T)) {
	id := ComponentIdOf[T]()

	w.hooksMu.Lock()
	defer w.hooksMu.Unlock()

	w.removeHooks[id] = append(w.removeHooks[id], func(e *Entity, value any) {
		fn(e, value.(*T))
	})
}

func (w *World) didAddComponent(e *Entity, id ComponentId, old, new any) {
	w.hooksMu.RLock()
	hooks := w.addHooks[id]
	w.hooksMu.RUnlock()

	for _, hook := range hooks {
		hook(e, old, new)
	}
}

func (w *World) willRemoveComponent(e *Entity, id ComponentId, value any) {
	w.hooksMu.RLock()
	hooks := w.removeHooks[id]
	w.hooksMu.RUnlock()

	for _, hook := range hooks {
		hook(e, value)
	}
}
