package physics_test

import (
	"testing"

	"github.com/jakecoffman/cp/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plus3/ecsworld/ecs"
	"github.com/plus3/ecsworld/ecs/physics"
)

const frame = 1.0 / 60.0

func newWorld(t *testing.T, settings physics.Settings) (*ecs.World, *physics.Space) {
	t.Helper()

	w := ecs.NewWorld(ecs.WithLogger(zerolog.Nop()))
	w.AddPlugin(physics.Plugin{Settings: settings})

	space, ok := ecs.GetResource[*physics.Space](w)
	require.True(t, ok)

	return w, space
}

func TestBodies(t *testing.T) {
	t.Run("dynamic bodies fall", func(t *testing.T) {
		w, space := newWorld(t, physics.DefaultSettings())

		ball := w.Spawn("ball", physics.Body{Mass: 2}, physics.Collider{Radius: 1})

		// required components are added
		assert.True(t, ecs.Has[physics.Transform](ball))
		assert.True(t, ecs.Has[physics.Velocity](ball))

		for range 3 {
			w.Update(frame)
		}

		assert.Equal(t, 1, space.BodyCount())

		transform := ecs.MustGet[physics.Transform](ball)
		velocity := ecs.MustGet[physics.Velocity](ball)
		assert.Less(t, transform.Position.Y, 0.0)
		assert.Less(t, velocity.Linear.Y, 0.0)
	})

	t.Run("static bodies stay in place", func(t *testing.T) {
		w, space := newWorld(t, physics.DefaultSettings())

		ground := w.Spawn("ground",
			physics.Body{Kind: physics.Static},
			physics.Transform{Position: cp.Vector{X: 3, Y: -10}},
			physics.Collider{Width: 100, Height: 1},
		)

		for range 3 {
			w.Update(frame)
		}

		body, ok := space.BodyOf(ground.Id())
		require.True(t, ok)
		assert.Equal(t, cp.Vector{X: 3, Y: -10}, body.Position())
		assert.Equal(t, cp.Vector{X: 3, Y: -10}, ecs.MustGet[physics.Transform](ground).Position)
	})

	t.Run("velocity moves bodies without gravity", func(t *testing.T) {
		w, _ := newWorld(t, physics.Settings{Iterations: 10, Substeps: 2})

		ball := w.Spawn("ball",
			physics.Body{},
			physics.Velocity{Linear: cp.Vector{X: 60}},
		)

		w.Update(frame)

		transform := ecs.MustGet[physics.Transform](ball)
		assert.InDelta(t, 1.0, transform.Position.X, 1e-6)
		assert.InDelta(t, 0.0, transform.Position.Y, 1e-6)
	})

	t.Run("changed transforms are pushed into the simulation", func(t *testing.T) {
		w, space := newWorld(t, physics.DefaultSettings())

		platform := w.Spawn("platform", physics.Body{Kind: physics.Kinematic})
		w.Update(frame)

		ecs.Insert(platform, physics.Transform{Position: cp.Vector{X: 5, Y: 5}})
		w.Update(frame)

		body, ok := space.BodyOf(platform.Id())
		require.True(t, ok)
		assert.Equal(t, cp.Vector{X: 5, Y: 5}, body.Position())
		assert.Equal(t, cp.Vector{X: 5, Y: 5}, ecs.MustGet[physics.Transform](platform).Position)
	})

	t.Run("moved static bodies are reindexed", func(t *testing.T) {
		w, space := newWorld(t, physics.DefaultSettings())

		wall := w.Spawn("wall", physics.Body{Kind: physics.Static}, physics.Collider{Radius: 1})
		w.Update(frame)

		ecs.Insert(wall, physics.Transform{Position: cp.Vector{X: 10}})
		w.Update(frame)

		body, ok := space.BodyOf(wall.Id())
		require.True(t, ok)
		assert.Equal(t, cp.Vector{X: 10}, body.Position())

		var bounds []cp.BB
		body.EachShape(func(shape *cp.Shape) {
			bounds = append(bounds, shape.BB())
		})

		require.Len(t, bounds, 1)
		assert.InDelta(t, 9.0, bounds[0].L, 1e-6)
		assert.InDelta(t, 11.0, bounds[0].R, 1e-6)
	})

	t.Run("despawn removes the body", func(t *testing.T) {
		w, space := newWorld(t, physics.DefaultSettings())

		ball := w.Spawn("ball", physics.Body{})
		w.Update(frame)
		require.Equal(t, 1, space.BodyCount())

		w.Despawn(ball)
		assert.Equal(t, 0, space.BodyCount())

		w.Update(frame)
		assert.Equal(t, 0, space.BodyCount())
	})

	t.Run("changing the collider recreates the body", func(t *testing.T) {
		w, space := newWorld(t, physics.DefaultSettings())

		ball := w.Spawn("ball", physics.Body{})
		w.Update(frame)

		before, ok := space.BodyOf(ball.Id())
		require.True(t, ok)

		ecs.Insert(ball, physics.Collider{Radius: 4})
		_, ok = space.BodyOf(ball.Id())
		assert.False(t, ok)

		w.Update(frame)

		after, ok := space.BodyOf(ball.Id())
		require.True(t, ok)
		assert.NotSame(t, before, after)
	})
}

func TestContacts(t *testing.T) {
	w, _ := newWorld(t, physics.Settings{Iterations: 10, Substeps: 1})

	a := w.Spawn("a", physics.Body{}, physics.Collider{Radius: 1})
	b := w.Spawn("b", physics.Body{},
		physics.Collider{Radius: 1},
		physics.Transform{Position: cp.Vector{X: 1}},
	)

	w.Update(frame)

	contacts := ecs.ReadEvents[physics.ContactStarted](w)
	require.Len(t, contacts, 1)
	assert.ElementsMatch(t, []ecs.EntityId{a.Id(), b.Id()}, []ecs.EntityId{contacts[0].A, contacts[0].B})
}

func TestBodyKind(t *testing.T) {
	assert.Equal(t, "dynamic", physics.Dynamic.String())
	assert.Equal(t, "kinematic", physics.Kinematic.String())
	assert.Equal(t, "static", physics.Static.String())
}
