package ecs

import (
	"context"
	"slices"
	"time"

	"github.com/rotisserie/eris"

	"github.com/plus3/ecsworld/ecs/internal/statsd"
)

// Names of the default stages, in the order they run.
const (
	PreUpdate   = "preUpdate"
	Update      = "update"
	FixedUpdate = "fixedUpdate"
	PostUpdate  = "postUpdate"
)

// DefaultStages returns the default stage list.
func DefaultStages() []string {
	return []string{PreUpdate, Update, FixedUpdate, PostUpdate}
}

// Stage is a named frame phase owning one system graph and one executor.
type Stage struct {
	name     string
	graph    *SystemGraph
	executor *GraphExecutor

	// fixed stages run zero or more times per frame on a fixed time step
	fixed bool

	runCount     int64
	lastDuration time.Duration
}

func newStage(name string, iterationLimit int) *Stage {
	return &Stage{
		name:     name,
		graph:    NewSystemGraph(),
		executor: NewGraphExecutor(iterationLimit),
		fixed:    name == FixedUpdate,
	}
}

// Name returns the stage name.
func (s *Stage) Name() string {
	return s.name
}

// Graph returns the dependency graph of the stage.
func (s *Stage) Graph() *SystemGraph {
	return s.graph
}

// Fixed reports whether the stage runs on the fixed time step.
func (s *Stage) Fixed() bool {
	return s.fixed
}

// SetFixed switches the stage between running once per frame and running on the fixed time step.
func (s *Stage) SetFixed(fixed bool) {
	s.fixed = fixed
}

// run executes every system of the stage once and flushes the commands they recorded.
func (s *Stage) run(ctx context.Context, w *World, dt float64) {
	start := time.Now()

	frame := newUpdateFrame(ctx, w, s.name, dt)
	stageLogger := w.logger.With().Str("stage", s.name).Logger()

	s.executor.execute(s.graph, func(node *systemNode) {
		frame.Tick = w.beginSystem(node.lastRun)
		frame.logger = stageLogger.With().Str("system", node.name).Logger()

		systemStart := time.Now()
		node.system.Execute(frame)
		duration := time.Since(systemStart)

		node.lastRun = frame.Tick
		w.endSystem()

		node.stats.record(duration)
		statsd.EmitSystemStat(duration, s.name, node.name)
	})

	frame.Commands.Flush(w)

	s.runCount++
	s.lastDuration = time.Since(start)
	statsd.EmitStageStat(start, s.name)
}

// Stats returns statistics about the systems of this stage.
func (s *Stage) Stats() SchedulerStats {
	stats := SchedulerStats{
		Stage:        s.name,
		SystemCount:  len(s.graph.nodes),
		RunCount:     s.runCount,
		LastDuration: s.lastDuration,
		Systems:      make([]SystemStats, len(s.graph.nodes)),
	}

	for idx, node := range s.graph.nodes {
		stats.Systems[idx] = node.stats.snapshot()
		stats.TotalExecutions += node.stats.executionCount
	}

	return stats
}

// Schedulers is the ordered list of stages of a world. Stage names are unique.
type Schedulers struct {
	stages         []*Stage
	iterationLimit int
}

// NewSchedulers creates a stage list with the given names.
func NewSchedulers(iterationLimit int, names ...string) (*Schedulers, error) {
	s := &Schedulers{iterationLimit: iterationLimit}
	if err := s.Set(names...); err != nil {
		return nil, err
	}

	return s, nil
}

// Append adds a stage at the end of the list.
func (s *Schedulers) Append(name string) error {
	return s.insert(len(s.stages), name)
}

// InsertAfter adds a stage directly after the anchor stage.
func (s *Schedulers) InsertAfter(anchor, name string) error {
	idx := s.index(anchor)
	if idx < 0 {
		return eris.Errorf("can not insert stage %q after unknown stage %q", name, anchor)
	}

	return s.insert(idx+1, name)
}

// InsertBefore adds a stage directly before the anchor stage.
func (s *Schedulers) InsertBefore(anchor, name string) error {
	idx := s.index(anchor)
	if idx < 0 {
		return eris.Errorf("can not insert stage %q before unknown stage %q", name, anchor)
	}

	return s.insert(idx, name)
}

// Set replaces the stage list. All stages are recreated empty, previously
// registered systems are discarded.
func (s *Schedulers) Set(names ...string) error {
	stages := make([]*Stage, 0, len(names))
	for _, name := range names {
		if name == "" {
			return eris.New("stage name must not be empty")
		}

		if slices.ContainsFunc(stages, func(stage *Stage) bool { return stage.name == name }) {
			return eris.Errorf("duplicate stage %q", name)
		}

		stages = append(stages, newStage(name, s.iterationLimit))
	}

	s.stages = stages
	return nil
}

// Stage returns the stage with the given name.
func (s *Schedulers) Stage(name string) (*Stage, bool) {
	idx := s.index(name)
	if idx < 0 {
		return nil, false
	}

	return s.stages[idx], true
}

// Stages returns the stages in run order.
func (s *Schedulers) Stages() []*Stage {
	return slices.Clone(s.stages)
}

// Names returns the stage names in run order.
func (s *Schedulers) Names() []string {
	names := make([]string, len(s.stages))
	for idx, stage := range s.stages {
		names[idx] = stage.name
	}
	return names
}

// Link links the graph of every stage, stopping at the first error.
func (s *Schedulers) Link() error {
	for _, stage := range s.stages {
		if stage.graph.linked {
			continue
		}

		if err := stage.graph.LinkSystems(); err != nil {
			return eris.Wrapf(err, "failed to link stage %q", stage.name)
		}
	}

	return nil
}

// linked reports whether every stage graph is linked.
func (s *Schedulers) linked() bool {
	for _, stage := range s.stages {
		if !stage.graph.linked {
			return false
		}
	}
	return true
}

func (s *Schedulers) insert(idx int, name string) error {
	if name == "" {
		return eris.New("stage name must not be empty")
	}

	if s.index(name) >= 0 {
		return eris.Errorf("duplicate stage %q", name)
	}

	s.stages = slices.Insert(s.stages, idx, newStage(name, s.iterationLimit))
	return nil
}

func (s *Schedulers) index(name string) int {
	return slices.IndexFunc(s.stages, func(stage *Stage) bool {
		return stage.name == name
	})
}
