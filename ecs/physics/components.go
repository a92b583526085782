// Package physics simulates rigid bodies with the chipmunk2d port github.com/jakecoffman/cp/v2.
// Bodies are created, stepped and synced back by systems running in the fixed update stage.
package physics

import (
	"github.com/jakecoffman/cp/v2"
)

// Transform places an entity in world space.
type Transform struct {
	Position cp.Vector
	Angle    float64
}

// Velocity is synced to and from the simulated body.
type Velocity struct {
	Linear  cp.Vector
	Angular float64
}

// Force is applied to the body on every fixed step. Dynamic bodies only.
type Force struct {
	Linear cp.Vector
	Torque float64
}

type BodyKind uint8

const (
	Dynamic BodyKind = iota
	Kinematic
	Static
)

func (k BodyKind) String() string {
	switch k {
	case Kinematic:
		return "kinematic"
	case Static:
		return "static"
	default:
		return "dynamic"
	}
}

// Body marks an entity as simulated. The simulated body is created on the next fixed step.
type Body struct {
	Kind BodyKind

	// Mass of a dynamic body. Defaults to 1.
	Mass float64
}

func (Body) RequiredComponents() []any {
	return []any{Transform{}, Velocity{}, Collider{Radius: 1, Friction: 0.5}}
}

// Collider describes the shape of a body. A positive Radius makes a circle,
// otherwise Width and Height describe a box.
type Collider struct {
	Radius        float64
	Width, Height float64

	Elasticity float64
	Friction   float64
}

func (c Collider) moment(mass float64) float64 {
	if c.Radius > 0 {
		return cp.MomentForCircle(mass, 0, c.Radius, cp.Vector{})
	}

	return cp.MomentForBox(mass, c.Width, c.Height)
}

func (c Collider) shape(body *cp.Body) *cp.Shape {
	var shape *cp.Shape
	if c.Radius > 0 {
		shape = cp.NewCircle(body, c.Radius, cp.Vector{})
	} else {
		shape = cp.NewBox(body, c.Width, c.Height, 0)
	}

	shape.SetElasticity(c.Elasticity)
	shape.SetFriction(c.Friction)
	shape.SetCollisionType(bodyCollisionType)

	return shape
}
