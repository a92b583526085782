package physics

import (
	"github.com/jakecoffman/cp/v2"

	"github.com/plus3/ecsworld/ecs"
)

const bodyCollisionType cp.CollisionType = 1

// Settings configures the simulation. Changes are applied before the next step.
type Settings struct {
	Gravity    cp.Vector
	Iterations uint

	// Substeps splits every fixed step into smaller steps.
	Substeps int
}

func DefaultSettings() Settings {
	return Settings{
		Gravity:    cp.Vector{Y: -100},
		Iterations: 10,
		Substeps:   1,
	}
}

// ContactStarted is sent when the shapes of two bodies start touching.
type ContactStarted struct {
	A, B   ecs.EntityId
	Normal cp.Vector
}

// ContactEnded is sent when the shapes of two bodies stop touching.
type ContactEnded struct {
	A, B ecs.EntityId
}

// Space owns the simulated bodies of a world.
type Space struct {
	*cp.Space

	bodies map[ecs.EntityId]*cp.Body

	started []ContactStarted
	ended   []ContactEnded
}

func newSpace() *Space {
	space := &Space{
		Space:  cp.NewSpace(),
		bodies: make(map[ecs.EntityId]*cp.Body),
	}

	handler := space.NewCollisionHandler(bodyCollisionType, bodyCollisionType)
	handler.BeginFunc = func(arb *cp.Arbiter, _ *cp.Space, _ interface{}) bool {
		a, b := arb.Bodies()
		space.started = append(space.started, ContactStarted{
			A:      entityOf(a),
			B:      entityOf(b),
			Normal: arb.Normal(),
		})
		return true
	}
	handler.SeparateFunc = func(arb *cp.Arbiter, _ *cp.Space, _ interface{}) {
		a, b := arb.Bodies()
		space.ended = append(space.ended, ContactEnded{A: entityOf(a), B: entityOf(b)})
	}

	return space
}

// BodyOf returns the simulated body of an entity.
func (s *Space) BodyOf(id ecs.EntityId) (*cp.Body, bool) {
	body, ok := s.bodies[id]
	return body, ok
}

// BodyCount returns the number of simulated bodies.
func (s *Space) BodyCount() int {
	return len(s.bodies)
}

func (s *Space) removeBody(id ecs.EntityId) {
	body, ok := s.bodies[id]
	if !ok {
		return
	}

	delete(s.bodies, id)

	body.EachShape(func(shape *cp.Shape) {
		s.RemoveShape(shape)
	})

	s.RemoveBody(body)
}

func entityOf(body *cp.Body) ecs.EntityId {
	if id, ok := body.UserData.(ecs.EntityId); ok {
		return id
	}
	return ecs.NoEntity
}

// Plugin installs the simulation into the fixed update stage.
type Plugin struct {
	Settings Settings
}

func (p Plugin) Build(w *ecs.World) {
	settings := p.Settings
	if settings == (Settings{}) {
		settings = DefaultSettings()
	}

	ecs.InsertResource(w, settings)
	ecs.InsertResource(w, newSpace())

	ecs.RegisterEventIfNeeded[ContactStarted](w)
	ecs.RegisterEventIfNeeded[ContactEnded](w)

	removeBody := func(e *ecs.Entity) {
		if space, ok := ecs.GetResource[*Space](w); ok {
			space.removeBody(e.Id())
		}
	}

	// bodies are recreated on the next step when their description changes
	ecs.OnAdd[Body](w, func(e *ecs.Entity, old, new *Body) {
		if old != nil && *old != *new {
			removeBody(e)
		}
	})
	ecs.OnAdd[Collider](w, func(e *ecs.Entity, old, new *Collider) {
		if old != nil && *old != *new {
			removeBody(e)
		}
	})

	ecs.OnRemove[Body](w, func(e *ecs.Entity, _ *Body) { removeBody(e) })
	ecs.OnRemove[Collider](w, func(e *ecs.Entity, _ *Collider) { removeBody(e) })

	w.AddSystem(ecs.FixedUpdate, &CreateBodiesSystem{})
	w.AddSystemWithDependencies(ecs.FixedUpdate, &SyncToSpaceSystem{}, ecs.After[*CreateBodiesSystem]())
	w.AddSystemWithDependencies(ecs.FixedUpdate, &StepSystem{}, ecs.After[*SyncToSpaceSystem]())
	w.AddSystemWithDependencies(ecs.FixedUpdate, &SyncFromSpaceSystem{}, ecs.After[*StepSystem]())
	w.AddSystemWithDependencies(ecs.FixedUpdate, &ContactEventsSystem{}, ecs.After[*StepSystem]())
}
