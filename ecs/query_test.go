package ecs_test

import (
	"math"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plus3/ecsworld/ecs"
)

func TestQuery(t *testing.T) {
	w := newTestWorld(t)

	moving := w.Spawn("moving", Position{X: 1}, Velocity{DX: 1})
	static := w.Spawn("static", Position{X: 2})
	frozen := w.Spawn("frozen", Position{X: 3}, Velocity{DX: 3}, Frozen{})
	w.Spawn("named", Name{Value: "n"})

	t.Run("required components", func(t *testing.T) {
		query := ecs.NewQuery[struct {
			*Position
			*Velocity
		}](w)

		var names []string
		for e, item := range query.Iter() {
			names = append(names, e.Name())
			assert.NotNil(t, item.Position)
			assert.NotNil(t, item.Velocity)
		}

		assert.Equal(t, []string{"moving", "frozen"}, names)
		assert.Equal(t, 2, query.Count())
	})

	t.Run("excluded components", func(t *testing.T) {
		query := ecs.NewQuery[struct {
			*Position
			_ ecs.Without[Frozen]
		}](w)

		var names []string
		for e := range query.Iter() {
			names = append(names, e.Name())
		}

		assert.Equal(t, []string{"moving", "static"}, names)
		assert.False(t, query.Matches(frozen))
		assert.True(t, query.Matches(static))
	})

	t.Run("with filter", func(t *testing.T) {
		query := ecs.NewQuery[struct {
			Entity *ecs.Entity
			_      ecs.With[Velocity]
		}](w)

		var names []string
		for item := range query.Values() {
			names = append(names, item.Entity.Name())
		}

		assert.Equal(t, []string{"moving", "frozen"}, names)
	})

	t.Run("optional components", func(t *testing.T) {
		query := ecs.NewQuery[struct {
			Position *Position
			Velocity *Velocity `ecs:"optional"`
		}](w)

		item, ok := query.Get(static)
		require.True(t, ok)
		assert.Nil(t, item.Velocity)

		item, ok = query.Get(moving)
		require.True(t, ok)
		assert.NotNil(t, item.Velocity)

		assert.Equal(t, 3, query.Count())
	})

	t.Run("pointer fields mutate in place", func(t *testing.T) {
		query := ecs.NewQuery[struct{ *Position }](w)

		item, ok := query.Get(moving)
		require.True(t, ok)

		item.Position.Y = 42
		assert.Equal(t, float32(42), ecs.MustGet[Position](moving).Y)
	})

	t.Run("value fields are snapshots", func(t *testing.T) {
		query := ecs.NewQuery[struct {
			Position Position
			Id       ecs.EntityId
		}](w)

		item, ok := query.Get(static)
		require.True(t, ok)
		assert.Equal(t, static.Id(), item.Id)

		item.Position.X = 1000
		assert.Equal(t, float32(2), ecs.MustGet[Position](static).X)
	})

	t.Run("no matches", func(t *testing.T) {
		query := ecs.NewQuery[struct{ *Health }](w)

		for range query.Iter() {
			t.Fatal("unexpected match")
		}

		assert.Equal(t, 0, query.Count())

		_, ok := query.Single()
		assert.False(t, ok)
	})

	t.Run("single", func(t *testing.T) {
		query := ecs.NewQuery[struct{ Name Name }](w)

		item, ok := query.Single()
		require.True(t, ok)
		assert.Equal(t, "n", item.Name.Value)

		_, ok = ecs.NewQuery[struct{ *Position }](w).Single()
		assert.False(t, ok)
	})

	t.Run("repeated iteration is idempotent", func(t *testing.T) {
		query := ecs.NewQuery[struct {
			*Position
			_ ecs.Without[Velocity]
		}](w)

		first := slices.Collect(query.Values())
		second := slices.Collect(query.Values())

		assert.Equal(t, first, second)
	})

	t.Run("results respect required and excluded sets", func(t *testing.T) {
		required := ecs.NewBitmask(ecs.ComponentIdOf[Position]())
		excluded := ecs.NewBitmask(ecs.ComponentIdOf[Frozen](), ecs.ComponentIdOf[Name]())

		query := ecs.NewQuery[struct {
			*Position
			_ ecs.Without[Frozen]
			_ ecs.Without[Name]
		}](w)

		for e := range query.Iter() {
			mask := e.Components().Mask()
			assert.True(t, mask.ContainsAll(required))
			assert.False(t, mask.Intersects(excluded))
		}
	})

	t.Run("entities of other worlds never match", func(t *testing.T) {
		other := newTestWorld(t)
		query := ecs.NewQuery[struct{ *Position }](other)

		_, ok := query.Get(moving)
		assert.False(t, ok)
	})

	t.Run("despawned entities never match", func(t *testing.T) {
		e := w.Spawn("temp", Health{})
		query := ecs.NewQuery[struct{ *Health }](w)
		assert.Equal(t, 1, query.Count())

		w.Despawn(e)
		assert.Equal(t, 0, query.Count())
		assert.False(t, query.Matches(e))
	})
}

func TestQueryAuthoringErrors(t *testing.T) {
	w := newTestWorld(t)

	t.Run("required and excluded overlap", func(t *testing.T) {
		assert.Panics(t, func() {
			ecs.NewQuery[struct {
				*Position
				_ ecs.Without[Position]
			}](w)
		})
	})

	t.Run("changed on an excluded type", func(t *testing.T) {
		assert.Panics(t, func() {
			ecs.NewQuery[struct {
				_ ecs.Changed[Position]
				_ ecs.Without[Position]
			}](w)
		})
	})

	t.Run("optional excluded type", func(t *testing.T) {
		assert.Panics(t, func() {
			ecs.NewQuery[struct {
				Position *Position `ecs:"optional"`
				_        ecs.Without[Position]
			}](w)
		})
	})

	t.Run("invalid tag", func(t *testing.T) {
		assert.Panics(t, func() {
			ecs.NewQuery[struct {
				Position *Position `ecs:"sometimes"`
			}](w)
		})
	})

	t.Run("optional value field", func(t *testing.T) {
		assert.Panics(t, func() {
			ecs.NewQuery[struct {
				Position Position `ecs:"optional"`
			}](w)
		})
	})

	t.Run("not a struct", func(t *testing.T) {
		assert.Panics(t, func() { ecs.NewQuery[int](w) })
	})

	t.Run("rejected at registration", func(t *testing.T) {
		assert.Panics(t, func() {
			w.AddSystem(ecs.Update, &invalidQuerySystem{})
		})
	})
}

type invalidQuerySystem struct {
	Items ecs.Query[struct {
		*Health
		_ ecs.Without[Health]
	}]
}

func (s *invalidQuerySystem) Execute(frame *ecs.UpdateFrame) {}

type changeTracker struct {
	Changed ecs.Query[struct {
		Entity *ecs.Entity
		_      ecs.Changed[Position]
	}]

	Added ecs.Query[struct {
		Entity *ecs.Entity
		_      ecs.Added[Position]
	}]

	changed []string
	added   []string
}

func (s *changeTracker) Execute(frame *ecs.UpdateFrame) {
	s.changed = s.changed[:0]
	for item := range s.Changed.Values() {
		s.changed = append(s.changed, item.Entity.Name())
	}

	s.added = s.added[:0]
	for item := range s.Added.Values() {
		s.added = append(s.added, item.Entity.Name())
	}
}

type mover struct {
	Items ecs.Query[struct {
		*Position
		_ ecs.With[Velocity]
	}]
}

func (s *mover) Execute(frame *ecs.UpdateFrame) {
	for item := range s.Items.Values() {
		item.Position.X++
	}
}

func TestQueryChangeDetection(t *testing.T) {
	w := newTestWorld(t)

	tracker := &changeTracker{}
	w.AddSystem(ecs.PreUpdate, &mover{})
	w.AddSystem(ecs.Update, tracker)

	a := w.Spawn("a", Position{}, Velocity{})
	w.Spawn("b", Position{})

	w.Update(0)
	assert.Equal(t, []string{"a", "b"}, tracker.changed)
	assert.Equal(t, []string{"a", "b"}, tracker.added)

	// only the mover touched a
	w.Update(0)
	assert.Equal(t, []string{"a"}, tracker.changed)
	assert.Empty(t, tracker.added)

	// writes made between frames are reported too
	ecs.Remove[Velocity](a)
	c := w.Spawn("c", Position{})

	w.Update(0)
	assert.Equal(t, []string{"c"}, tracker.changed)
	assert.Equal(t, []string{"c"}, tracker.added)

	ecs.UpdateComponent(c, func(p *Position) { p.Y = 1 })

	w.Update(0)
	assert.Equal(t, []string{"c"}, tracker.changed)
	assert.Empty(t, tracker.added)

	w.Update(0)
	assert.Empty(t, tracker.changed)
}

func TestQueryConcurrentMutationOfOtherEntities(t *testing.T) {
	w := newTestWorld(t)

	for range 50 {
		w.Spawn("", Position{X: 1})
	}

	other := w.Spawn("other", Health{})
	query := ecs.NewQuery[struct{ Position Position }](w)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := range 1000 {
			other.Set(Health{Current: i})
			w.Spawn("", Name{})
		}
	}()

	for range 20 {
		var sum float32
		for item := range query.Values() {
			sum += item.Position.X
		}
		assert.Equal(t, float32(50), sum)
	}

	<-done
	assert.Equal(t, 999, ecs.MustGet[Health](other).Current)
}

func TestQueryChangeDetectionPastUint32Ticks(t *testing.T) {
	w := newTestWorld(t)

	tracker := &changeTracker{}
	w.AddSystem(ecs.PreUpdate, &mover{})
	w.AddSystem(ecs.Update, tracker)

	w.SetTick(math.MaxUint32 - 3)

	w.Spawn("moving", Position{}, Velocity{})
	w.Spawn("idle", Position{})

	w.Update(0)
	assert.Equal(t, []string{"moving", "idle"}, tracker.changed)

	for frame := range 6 {
		w.Update(0)
		assert.Equal(t, []string{"moving"}, tracker.changed, "frame %d", frame)
		assert.Empty(t, tracker.added, "frame %d", frame)
	}
}
