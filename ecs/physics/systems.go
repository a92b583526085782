package physics

import (
	"math"

	"github.com/jakecoffman/cp/v2"

	"github.com/plus3/ecsworld/ecs"
)

const epsilon = 1e-9

// CreateBodiesSystem adds a simulated body for every entity with a Body that has none yet.
type CreateBodiesSystem struct {
	Bodies ecs.Query[struct {
		Id        ecs.EntityId
		Body      Body
		Collider  Collider
		Transform Transform
		Velocity  Velocity
	}]

	Space ecs.Res[*Space]
}

func (s *CreateBodiesSystem) Execute(frame *ecs.UpdateFrame) {
	space, ok := spaceOf(&s.Space)
	if !ok {
		return
	}

	for _, item := range s.Bodies.Iter() {
		if _, exists := space.bodies[item.Id]; exists {
			continue
		}

		body := newBody(item.Body, item.Collider)
		body.UserData = item.Id
		body.SetPosition(item.Transform.Position)
		body.SetAngle(item.Transform.Angle)

		if item.Body.Kind != Static {
			body.SetVelocityVector(item.Velocity.Linear)
			body.SetAngularVelocity(item.Velocity.Angular)
		}

		space.AddBody(body)
		space.AddShape(item.Collider.shape(body))
		space.bodies[item.Id] = body

		frame.Logger().Debug().
			Uint64("entity", uint64(item.Id)).
			Stringer("kind", item.Body.Kind).
			Msg("created body")
	}
}

func newBody(b Body, collider Collider) *cp.Body {
	switch b.Kind {
	case Static:
		return cp.NewStaticBody()
	case Kinematic:
		return cp.NewKinematicBody()
	default:
		mass := b.Mass
		if mass <= 0 {
			mass = 1
		}
		return cp.NewBody(mass, collider.moment(mass))
	}
}

// SyncToSpaceSystem pushes transforms and velocities changed outside the simulation
// into the simulated bodies and applies forces.
type SyncToSpaceSystem struct {
	Transforms ecs.Query[struct {
		_         ecs.Changed[Transform]
		Id        ecs.EntityId
		Transform Transform
	}]

	Velocities ecs.Query[struct {
		_        ecs.Changed[Velocity]
		Id       ecs.EntityId
		Velocity Velocity
	}]

	Forces ecs.Query[struct {
		Id    ecs.EntityId
		Force Force
	}]

	Space ecs.Res[*Space]
}

func (s *SyncToSpaceSystem) Execute(frame *ecs.UpdateFrame) {
	space, ok := spaceOf(&s.Space)
	if !ok {
		return
	}

	for _, item := range s.Transforms.Iter() {
		body, ok := space.bodies[item.Id]
		if !ok {
			continue
		}

		if similar(body.Position(), item.Transform.Position) && math.Abs(body.Angle()-item.Transform.Angle) < epsilon {
			continue
		}

		body.SetPosition(item.Transform.Position)
		body.SetAngle(item.Transform.Angle)

		if body.GetType() == cp.BODY_STATIC {
			body.EachShape(space.ReindexShape)
		}
	}

	for _, item := range s.Velocities.Iter() {
		body, ok := space.bodies[item.Id]
		if !ok || body.GetType() == cp.BODY_STATIC {
			continue
		}

		if similar(body.Velocity(), item.Velocity.Linear) && math.Abs(body.AngularVelocity()-item.Velocity.Angular) < epsilon {
			continue
		}

		body.SetVelocityVector(item.Velocity.Linear)
		body.SetAngularVelocity(item.Velocity.Angular)
	}

	for _, item := range s.Forces.Iter() {
		body, ok := space.bodies[item.Id]
		if !ok || body.GetType() != cp.BODY_DYNAMIC {
			continue
		}

		body.SetForce(item.Force.Linear)
		body.SetTorque(item.Force.Torque)
	}
}

// StepSystem advances the simulation by one fixed step.
type StepSystem struct {
	Settings ecs.Res[Settings]
	Space    ecs.Res[*Space]
}

func (s *StepSystem) Execute(frame *ecs.UpdateFrame) {
	space, ok := spaceOf(&s.Space)
	if !ok {
		return
	}

	substeps := 1
	if settings := s.Settings.Get(); settings != nil {
		if !similar(space.Gravity(), settings.Gravity) {
			space.SetGravity(settings.Gravity)
		}

		if settings.Iterations > 0 && space.Iterations != settings.Iterations {
			space.Iterations = settings.Iterations
		}

		substeps = max(settings.Substeps, 1)
	}

	dt := frame.DeltaTime / float64(substeps)
	for range substeps {
		space.Step(dt)
	}
}

// SyncFromSpaceSystem copies the simulated state back into the components.
type SyncFromSpaceSystem struct {
	Bodies ecs.Query[struct {
		Id        ecs.EntityId
		Body      Body
		Transform *Transform
		Velocity  *Velocity
	}]

	Space ecs.Res[*Space]
}

func (s *SyncFromSpaceSystem) Execute(frame *ecs.UpdateFrame) {
	space, ok := spaceOf(&s.Space)
	if !ok {
		return
	}

	for _, item := range s.Bodies.Iter() {
		if item.Body.Kind == Static {
			continue
		}

		body, ok := space.bodies[item.Id]
		if !ok {
			continue
		}

		item.Transform.Position = body.Position()
		item.Transform.Angle = body.Angle()

		item.Velocity.Linear = body.Velocity()
		item.Velocity.Angular = body.AngularVelocity()
	}
}

// ContactEventsSystem sends the contacts collected during the last step.
type ContactEventsSystem struct {
	Started ecs.EventWriter[ContactStarted]
	Ended   ecs.EventWriter[ContactEnded]

	Space ecs.Res[*Space]
}

func (s *ContactEventsSystem) Execute(frame *ecs.UpdateFrame) {
	space, ok := spaceOf(&s.Space)
	if !ok {
		return
	}

	for _, event := range space.started {
		s.Started.Send(event)
	}

	for _, event := range space.ended {
		s.Ended.Send(event)
	}

	space.started = space.started[:0]
	space.ended = space.ended[:0]
}

func spaceOf(res *ecs.Res[*Space]) (*Space, bool) {
	ptr := res.Get()
	if ptr == nil || *ptr == nil {
		return nil, false
	}
	return *ptr, true
}

func similar(a, b cp.Vector) bool {
	return math.Abs(a.X-b.X) < epsilon && math.Abs(a.Y-b.Y) < epsilon
}
