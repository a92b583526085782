package ecs_test

import (
	"strconv"
	"testing"

	"github.com/rs/zerolog"

	"github.com/plus3/ecsworld/ecs"
)

// Common test component types
type Position struct {
	X, Y float32
}

type Velocity struct {
	DX, DY float32
}

type Name struct {
	Value string
}

type Health struct {
	Current int
	Max     int
}

type PlayerController struct{}

type Frozen struct{}

type Score int32

// Body requires a Position and a Velocity.
type Body struct {
	Mass float32
}

func (Body) RequiredComponents() []any {
	return []any{Position{}, Velocity{DX: 1}}
}

type Damage struct {
	Amount int
}

type Gravity struct {
	Y float32
}

func newTestWorld(t testing.TB, opts ...ecs.WorldOption) *ecs.World {
	t.Helper()
	return ecs.NewWorld(append([]ecs.WorldOption{ecs.WithLogger(zerolog.Nop())}, opts...)...)
}

// recorder collects the names of systems in the order they ran.
type recorder struct {
	calls []string
}

func (r *recorder) system(name string, deps ...ecs.Dependency) *ecs.FuncSystem {
	return ecs.NewFuncSystem(name, func(frame *ecs.UpdateFrame) {
		r.calls = append(r.calls, name)
	}, deps...)
}

func idString(e *ecs.Entity) string {
	return strconv.FormatUint(uint64(e.Id()), 10)
}

func must[T any](value T, ok bool) T {
	if !ok {
		panic("value not present")
	}
	return value
}
