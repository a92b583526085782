package ecs_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plus3/ecsworld/ecs"
)

func TestSchedulers(t *testing.T) {
	t.Run("default stages", func(t *testing.T) {
		w := newTestWorld(t)
		assert.Equal(t, []string{"preUpdate", "update", "fixedUpdate", "postUpdate"}, w.Schedulers().Names())

		stage, ok := w.Schedulers().Stage(ecs.FixedUpdate)
		require.True(t, ok)
		assert.True(t, stage.Fixed())
	})

	t.Run("insert and append", func(t *testing.T) {
		s, err := ecs.NewSchedulers(0, "a", "c")
		require.NoError(t, err)

		require.NoError(t, s.InsertAfter("a", "b"))
		require.NoError(t, s.InsertBefore("a", "start"))
		require.NoError(t, s.Append("end"))

		assert.Equal(t, []string{"start", "a", "b", "c", "end"}, s.Names())
	})

	t.Run("duplicate stage names are errors", func(t *testing.T) {
		_, err := ecs.NewSchedulers(0, "a", "a")
		assert.Error(t, err)

		s, err := ecs.NewSchedulers(0, "a")
		require.NoError(t, err)

		assert.Error(t, s.Append("a"))
		assert.Error(t, s.InsertAfter("a", "a"))
		assert.Error(t, s.InsertBefore("missing", "b"))
		assert.Error(t, s.InsertAfter("missing", "b"))
		assert.Equal(t, []string{"a"}, s.Names())
	})

	t.Run("duplicate stage on the world is fatal", func(t *testing.T) {
		w := newTestWorld(t)
		assert.Panics(t, func() { w.AddStage(ecs.Update) })
		assert.Panics(t, func() { w.AddStageAfter("missing", "late") })
	})

	t.Run("set schedulers discards systems", func(t *testing.T) {
		var r recorder
		w := newTestWorld(t)
		w.AddSystem(ecs.Update, r.system("old"))

		w.SetSchedulers("first", ecs.Update, ecs.PostUpdate)
		w.AddSystem("first", r.system("new"))

		stage, ok := w.Schedulers().Stage(ecs.Update)
		require.True(t, ok)
		assert.Equal(t, 0, stage.Graph().Len())

		w.Update(0)
		assert.Equal(t, []string{"new"}, r.calls)
	})

	t.Run("unknown stage is fatal", func(t *testing.T) {
		var r recorder
		w := newTestWorld(t)
		assert.Panics(t, func() { w.AddSystem("missing", r.system("a")) })
	})
}

type inputState struct {
	Left bool
}

type velocitySystem struct {
	Input ecs.Res[inputState]
	Items ecs.Query[struct{ *Velocity }]
	seen  []bool
}

func (s *velocitySystem) Execute(frame *ecs.UpdateFrame) {
	input := s.Input.Get()
	if input == nil {
		return
	}

	s.seen = append(s.seen, input.Left)
}

func TestWorldUpdate(t *testing.T) {
	t.Run("pointer query fields write in place", func(t *testing.T) {
		w := newTestWorld(t)
		e := w.Spawn("e", Position{})

		w.AddSystem(ecs.Update, ecs.NewFuncSystem("push", func(frame *ecs.UpdateFrame) {
			for item := range ecs.NewQuery[struct{ *Position }](frame.World).Values() {
				item.Position.X += 1
			}
		}))

		w.Update(0)
		assert.Equal(t, Position{X: 1, Y: 0}, ecs.MustGet[Position](e))
	})

	t.Run("later stages see resources written by earlier ones", func(t *testing.T) {
		w := newTestWorld(t)
		ecs.InsertResource(w, inputState{})

		system := &velocitySystem{}

		w.AddSystem(ecs.PreUpdate, ecs.NewFuncSystem("input", func(frame *ecs.UpdateFrame) {
			input, ok := ecs.GetRefResource[inputState](frame.World)
			require.True(t, ok)
			input.Left = !input.Left
		}))
		w.AddSystem(ecs.Update, system)

		w.Update(0)
		w.Update(0)

		assert.Equal(t, []bool{true, false}, system.seen)
	})

	t.Run("systems skip work without their resource", func(t *testing.T) {
		w := newTestWorld(t)
		system := &velocitySystem{}
		w.AddSystem(ecs.Update, system)

		w.Update(0)
		assert.Empty(t, system.seen)

		ecs.InsertResource(w, inputState{Left: true})
		w.Update(0)
		assert.Equal(t, []bool{true}, system.seen)
	})

	t.Run("unknown dependencies fail the build", func(t *testing.T) {
		w := newTestWorld(t)
		w.AddSystem(ecs.Update, &movementSystem{})

		assert.Error(t, w.Build())
		assert.Panics(t, func() { w.Update(0) })
	})

	t.Run("cycles fail fast", func(t *testing.T) {
		var r recorder
		w := newTestWorld(t)
		w.AddSystem(ecs.Update, r.system("a", ecs.AfterName("b")), r.system("b", ecs.AfterName("a")))

		assert.Panics(t, func() { w.Update(0) })
		assert.Empty(t, r.calls)
	})

	t.Run("dependency order within a stage", func(t *testing.T) {
		var r recorder
		w := newTestWorld(t)
		w.AddSystem(ecs.Update, r.system("B", ecs.AfterName("A")), r.system("A"))
		w.AddSystem(ecs.PreUpdate, r.system("pre"))
		w.AddSystem(ecs.PostUpdate, r.system("post"))

		w.Update(0)
		assert.Equal(t, []string{"pre", "A", "B", "post"}, r.calls)
	})

	t.Run("systems added after the first frame", func(t *testing.T) {
		var r recorder
		w := newTestWorld(t)
		w.AddSystem(ecs.Update, r.system("A"))
		w.Update(0)

		w.AddSystem(ecs.Update, r.system("B", ecs.BeforeName("A")))
		w.Update(0)

		assert.Equal(t, []string{"A", "B", "A"}, r.calls)
	})

	t.Run("commands are visible to the next stage", func(t *testing.T) {
		w := newTestWorld(t)
		counts := map[string]int{}

		count := func(name string) *ecs.FuncSystem {
			return ecs.NewFuncSystem(name, func(frame *ecs.UpdateFrame) {
				counts[name] = ecs.NewQuery[struct{ *Health }](frame.World).Count()
			})
		}

		w.AddSystem(ecs.PreUpdate, ecs.NewFuncSystem("spawner", func(frame *ecs.UpdateFrame) {
			frame.Commands.Spawn("spawned", Health{Max: 1})
		}))
		w.AddSystem(ecs.PreUpdate, count("same stage"))
		w.AddSystem(ecs.Update, count("next stage"))

		w.Update(0)

		assert.Equal(t, 0, counts["same stage"])
		assert.Equal(t, 1, counts["next stage"])
	})

	t.Run("fixed stage runs per elapsed step", func(t *testing.T) {
		cfg := ecs.DefaultConfig()
		cfg.FixedStepSeconds = 0.5
		cfg.MaxFixedStepsPerFrame = 3

		w := newTestWorld(t, ecs.WithConfig(cfg))

		var deltas []float64
		w.AddSystem(ecs.FixedUpdate, ecs.NewFuncSystem("fixed", func(frame *ecs.UpdateFrame) {
			deltas = append(deltas, frame.DeltaTime)
		}))

		w.Update(0.25)
		assert.Empty(t, deltas)

		w.Update(0.25)
		assert.Equal(t, []float64{0.5}, deltas)

		w.Update(1.0)
		assert.Equal(t, []float64{0.5, 0.5, 0.5}, deltas)

		// the step budget drops whole steps beyond the cap
		w.Update(10)
		assert.Len(t, deltas, 6)

		fixed, ok := ecs.GetResource[ecs.FixedTime](w)
		require.True(t, ok)
		assert.Equal(t, 0.5, fixed.Step)
		assert.Equal(t, 3.0, fixed.Elapsed)
		assert.Less(t, fixed.Overstep(), 0.5)
	})

	t.Run("fixed stages share the steps of a frame", func(t *testing.T) {
		cfg := ecs.DefaultConfig()
		cfg.FixedStepSeconds = 0.5

		w := newTestWorld(t, ecs.WithConfig(cfg))
		w.AddStageAfter(ecs.FixedUpdate, "fixedLate")

		stage, ok := w.Schedulers().Stage("fixedLate")
		require.True(t, ok)
		assert.False(t, stage.Fixed())
		stage.SetFixed(true)

		var r recorder
		w.AddSystem(ecs.FixedUpdate, r.system("early"))
		w.AddSystem("fixedLate", r.system("late"))

		w.Update(1.0)
		assert.Equal(t, []string{"early", "early", "late", "late"}, r.calls)

		fixed, ok := ecs.GetResource[ecs.FixedTime](w)
		require.True(t, ok)
		assert.Equal(t, 1.0, fixed.Elapsed)
		assert.Zero(t, fixed.Overstep())
	})

	t.Run("time resource", func(t *testing.T) {
		w := newTestWorld(t)

		var observed []ecs.Time
		w.AddSystem(ecs.Update, ecs.NewFuncSystem("clock", func(frame *ecs.UpdateFrame) {
			now, _ := ecs.GetResource[ecs.Time](frame.World)
			observed = append(observed, now)
		}))

		w.Update(0.5)
		w.Update(0.25)

		assert.Equal(t, []ecs.Time{
			{Delta: 0.5, Elapsed: 0.5, Frame: 1},
			{Delta: 0.25, Elapsed: 0.75, Frame: 2},
		}, observed)
	})

	t.Run("queued mutations run before the frame", func(t *testing.T) {
		w := newTestWorld(t)

		var seen int
		w.AddSystem(ecs.Update, ecs.NewFuncSystem("count", func(frame *ecs.UpdateFrame) {
			seen = ecs.NewQuery[struct{ *Name }](frame.World).Count()
		}))

		w.Queue(func(w *ecs.World) {
			w.Spawn("queued", Name{Value: "q"})
		})

		assert.Equal(t, 0, w.EntityCount())

		w.Update(0)
		assert.Equal(t, 1, seen)
	})

	t.Run("update frame", func(t *testing.T) {
		w := newTestWorld(t)

		var frames []ecs.UpdateFrame
		w.AddSystem(ecs.Update, ecs.NewFuncSystem("frame", func(frame *ecs.UpdateFrame) {
			frames = append(frames, *frame)
			assert.NotNil(t, frame.Context())
			assert.NotNil(t, frame.Logger())
		}))

		w.Update(0.1)
		w.Update(0.1)

		require.Len(t, frames, 2)
		assert.Equal(t, ecs.Update, frames[0].Stage)
		assert.Equal(t, 0.1, frames[0].DeltaTime)
		assert.Same(t, w, frames[0].World)
		assert.Greater(t, frames[1].Tick, frames[0].Tick)
	})

	t.Run("run until cancelled", func(t *testing.T) {
		w := newTestWorld(t)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		var runs int
		w.AddSystem(ecs.Update, ecs.NewFuncSystem("stop", func(frame *ecs.UpdateFrame) {
			runs++
			if runs == 3 {
				cancel()
			}
		}))

		done := make(chan struct{})
		go func() {
			w.Run(ctx, time.Millisecond)
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("world did not stop")
		}

		assert.Equal(t, 3, runs)
	})
}

func TestWorldStats(t *testing.T) {
	w := newTestWorld(t)

	w.AddSystem(ecs.Update, ecs.NewFuncSystem("sleepy", func(frame *ecs.UpdateFrame) {
		time.Sleep(time.Millisecond)
	}))

	w.Spawn("", Position{}, Velocity{})
	w.Spawn("", Position{}, Velocity{})
	w.Spawn("", Position{})
	ecs.InsertResource(w, inputState{})

	w.Update(0)
	w.Update(0)

	stats := w.Stats()
	assert.Equal(t, uint64(2), stats.Frame)
	assert.Equal(t, 3, stats.EntityCount)
	require.Len(t, stats.Stages, 4)

	update := stats.Stages[1]
	assert.Equal(t, ecs.Update, update.Stage)
	assert.Equal(t, int64(2), update.RunCount)
	require.Len(t, update.Systems, 1)

	sleepy := update.Systems[0]
	assert.Equal(t, "sleepy", sleepy.Name)
	assert.Equal(t, int64(2), sleepy.ExecutionCount)
	assert.GreaterOrEqual(t, sleepy.MinDuration, time.Millisecond)
	assert.GreaterOrEqual(t, sleepy.MaxDuration, sleepy.MinDuration)
	assert.Equal(t, sleepy.TotalDuration/2, sleepy.AvgDuration)

	// the event system is installed into postUpdate
	post := stats.Stages[3]
	require.Len(t, post.Systems, 1)
	assert.Equal(t, int64(2), post.TotalExecutions)

	storage := w.CollectStats()
	assert.Equal(t, 3, storage.TotalEntityCount)
	assert.Equal(t, 2, storage.SignatureCount)
	assert.Equal(t, 2, storage.SignatureBreakdown[0].EntityCount)
	assert.Equal(t, []string{"ecs_test.Position", "ecs_test.Velocity"}, storage.SignatureBreakdown[0].ComponentNames)
	assert.Contains(t, storage.ResourceTypes, "ecs_test.inputState")
	assert.Contains(t, storage.ResourceTypes, "ecs.Time")
}

type counterPlugin struct {
	builds *int
}

func (p counterPlugin) Build(w *ecs.World) {
	*p.builds++
}

func TestPlugins(t *testing.T) {
	w := newTestWorld(t)

	var builds int
	w.AddPlugin(counterPlugin{builds: &builds})
	w.AddPlugin(counterPlugin{builds: &builds})
	assert.Equal(t, 1, builds)

	w.AddPlugin(ecs.PluginFunc(func(w *ecs.World) { builds++ }))
	w.AddPlugin(ecs.PluginFunc(func(w *ecs.World) { builds++ }))
	assert.Equal(t, 3, builds)
}
