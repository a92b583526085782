package main

import (
	"fmt"
	"math/rand/v2"

	"github.com/plus3/ecsworld/ecs"
)

type Position struct {
	X, Y float64
}

type Velocity struct {
	X, Y float64
}

type Health struct {
	Value int
}

type Age struct {
	Ticks int
}

type Energy struct {
	Value float64
}

type Frozen struct{}

type Hit struct {
	Target ecs.EntityId
	Amount int
}

var componentFactories = []func(r *rand.Rand) any{
	func(r *rand.Rand) any { return Position{X: r.Float64() * 100, Y: r.Float64() * 100} },
	func(r *rand.Rand) any { return Velocity{X: r.Float64() - 0.5, Y: r.Float64() - 0.5} },
	func(r *rand.Rand) any { return Health{Value: 100} },
	func(r *rand.Rand) any { return Age{} },
	func(r *rand.Rand) any { return Energy{Value: r.Float64() * 10} },
	func(r *rand.Rand) any { return Frozen{} },
}

// Workload describes the randomly generated world.
type Workload struct {
	Seed     uint64
	Entities int
	Systems  int

	// MaxDependencies bounds the number of ordering constraints per system.
	MaxDependencies int

	// ChurnRate is the chance of a churn system to despawn and respawn an entity per run.
	ChurnRate float64
}

// Build populates w with entities and systems.
func (wl Workload) Build(w *ecs.World) {
	r := rand.New(rand.NewPCG(wl.Seed, wl.Seed^0x9e3779b97f4a7c15))

	for range wl.Entities {
		spawnRandomEntity(w, r)
	}

	stages := []string{ecs.PreUpdate, ecs.Update, ecs.PostUpdate}
	byStage := make(map[string][]string)

	for idx := range wl.Systems {
		stage := stages[r.IntN(len(stages))]
		name := fmt.Sprintf("system-%03d", idx)

		var deps []ecs.Dependency
		if earlier := byStage[stage]; len(earlier) > 0 && wl.MaxDependencies > 0 {
			picked := make(map[string]bool)
			for range r.IntN(wl.MaxDependencies + 1) {
				target := earlier[r.IntN(len(earlier))]
				if !picked[target] {
					picked[target] = true
					deps = append(deps, ecs.AfterName(target))
				}
			}
		}

		byStage[stage] = append(byStage[stage], name)
		w.AddSystem(stage, newRandomSystem(w, r, name, wl.ChurnRate, deps))
	}
}

func spawnRandomEntity(w *ecs.World, r *rand.Rand) *ecs.Entity {
	count := r.IntN(5) + 1

	components := make([]any, 0, count)
	for range count {
		components = append(components, componentFactories[r.IntN(len(componentFactories))](r))
	}

	return w.Spawn("", components...)
}

func newRandomSystem(w *ecs.World, r *rand.Rand, name string, churnRate float64, deps []ecs.Dependency) ecs.System {
	seed := r.Uint64()

	switch r.IntN(6) {
	case 0:
		query := ecs.NewQuery[struct {
			Position *Position
			Velocity Velocity
			_        ecs.Without[Frozen]
		}](w)

		return ecs.NewFuncSystem(name, func(frame *ecs.UpdateFrame) {
			for item := range query.Values() {
				item.Position.X += item.Velocity.X * frame.DeltaTime
				item.Position.Y += item.Velocity.Y * frame.DeltaTime
			}
		}, deps...)

	case 1:
		query := ecs.NewQuery[struct{ Age *Age }](w)

		return ecs.NewFuncSystem(name, func(frame *ecs.UpdateFrame) {
			for item := range query.Values() {
				item.Age.Ticks++
			}
		}, deps...)

	case 2:
		query := ecs.NewQuery[struct {
			Energy *Energy
			Health ecs.With[Health]
		}](w)

		return ecs.NewFuncSystem(name, func(frame *ecs.UpdateFrame) {
			for item := range query.Values() {
				item.Energy.Value = max(item.Energy.Value-frame.DeltaTime, 0)
			}
		}, deps...)

	case 3:
		query := ecs.NewQuery[struct {
			Id     ecs.EntityId
			Health Health
		}](w)
		hits := ecs.EventWriter[Hit]{}
		hits.Init(w)

		return ecs.NewFuncSystem(name, func(frame *ecs.UpdateFrame) {
			for item := range query.Values() {
				if item.Health.Value > 0 && item.Id%7 == 0 {
					hits.Send(Hit{Target: item.Id, Amount: 1})
				}
			}
		}, deps...)

	case 4:
		hits := ecs.EventReader[Hit]{}
		hits.Init(w)

		return ecs.NewFuncSystem(name, func(frame *ecs.UpdateFrame) {
			for hit := range hits.Iter() {
				if target, ok := frame.World.Entity(hit.Target); ok {
					ecs.UpdateComponent(target, func(health *Health) {
						health.Value -= hit.Amount
					})
				}
			}
		}, deps...)

	default:
		churn := rand.New(rand.NewPCG(seed, seed>>1))
		query := ecs.NewQuery[struct{ Entity *ecs.Entity }](w)

		return ecs.NewFuncSystem(name, func(frame *ecs.UpdateFrame) {
			if churn.Float64() >= churnRate {
				return
			}

			for victim := range query.Values() {
				frame.Commands.Despawn(victim.Entity)
				break
			}

			count := churn.IntN(5) + 1
			components := make([]any, 0, count)
			for range count {
				components = append(components, componentFactories[churn.IntN(len(componentFactories))](churn))
			}

			frame.Commands.Spawn("", components...)
		}, deps...)
	}
}
