package ecs

// SetTick moves the change tick of w.
func (w *World) SetTick(tick Tick) {
	w.tick.Store(uint64(tick))
}
