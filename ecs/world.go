package ecs

import (
	"context"
	"iter"
	"math"
	"os"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kamstrup/intmap"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"github.com/plus3/ecsworld/ecs/internal/statsd"
)

// Tick is the change tick of a world. It advances around every system invocation
// and is recorded on every component write. It is 64 bits wide so it never wraps in practice.
type Tick uint64

// World owns entities, resources, event channels and the stages running systems on them.
type World struct {
	config        Config
	logger        zerolog.Logger
	customLogger  bool
	initialStages []string

	entitiesMu  sync.RWMutex
	entities    []*Entity
	entityIndex *intmap.Map[EntityId, int]
	deadEntries int
	nextId      EntityId

	hierarchyMu sync.Mutex

	resourcesMu sync.RWMutex
	resources   map[reflect.Type]any
	resourceGen atomic.Uint64

	eventsMu   sync.Mutex
	eventTypes map[reflect.Type]any
	eventSwaps []func()

	hooksMu     sync.RWMutex
	addHooks    map[ComponentId][]func(e *Entity, old, new any)
	removeHooks map[ComponentId][]func(e *Entity, value any)

	schedulers *Schedulers
	built      bool
	plugins    map[string]struct{}

	tick         atomic.Uint64
	changeCutoff atomic.Uint64

	queueMu sync.Mutex
	queue   []func(w *World)

	frame   uint64
	elapsed float64
}

// NewWorld creates an empty world with the default stages.
func NewWorld(opts ...WorldOption) *World {
	w := &World{
		config:      DefaultConfig(),
		entityIndex: intmap.New[EntityId, int](64),
		resources:   make(map[reflect.Type]any),
		eventTypes:  make(map[reflect.Type]any),
		addHooks:    make(map[ComponentId][]func(e *Entity, old, new any)),
		removeHooks: make(map[ComponentId][]func(e *Entity, value any)),
		plugins:     make(map[string]struct{}),
		nextId:      1,
	}

	for _, opt := range opts {
		opt(w)
	}

	if !w.customLogger {
		level, err := zerolog.ParseLevel(w.config.LogLevel)
		if err != nil {
			level = zerolog.InfoLevel
		}

		w.logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
			Level(level).With().Timestamp().Logger()
	}

	if err := w.config.Validate(); err != nil {
		w.fatal(err, "invalid world configuration")
	}

	if w.config.StatsdAddress != "" {
		if err := statsd.Init(w.config.StatsdAddress, nil); err != nil {
			w.logger.Warn().Err(err).Msg("statsd disabled")
		}
	}

	stages := w.initialStages
	if stages == nil {
		stages = DefaultStages()
	}

	schedulers, err := NewSchedulers(w.config.ExecutorIterationLimit, stages...)
	if err != nil {
		w.fatal(err, "invalid stage list")
	}

	w.schedulers = schedulers
	w.tick.Store(1)

	InsertResource(w, Time{})
	InsertResource(w, FixedTime{Step: w.config.FixedStepSeconds})

	return w
}

// Config returns the configuration of the world.
func (w *World) Config() Config {
	return w.config
}

// Logger returns the world logger.
func (w *World) Logger() *zerolog.Logger {
	return &w.logger
}

// Schedulers returns the stage list. Stages changed directly are picked up by the next call to Build.
func (w *World) Schedulers() *Schedulers {
	return w.schedulers
}

// Spawn creates a new entity with the given components.
func (w *World) Spawn(name string, components ...any) *Entity {
	w.entitiesMu.Lock()
	entity := newEntity(w, w.nextId, name)
	w.nextId++
	w.entityIndex.Put(entity.id, len(w.entities))
	w.entities = append(w.entities, entity)
	w.entitiesMu.Unlock()

	entity.components.Set(components...)
	return entity
}

// SpawnChild creates a new entity below parent.
func (w *World) SpawnChild(parent *Entity, name string, components ...any) *Entity {
	entity := w.Spawn(name, components...)
	parent.AddChild(entity)
	return entity
}

// Despawn removes the entity and all of its descendants. Components are removed in insertion
// order so their will-remove notifications fire. Returns false if the entity was already despawned.
func (w *World) Despawn(entity *Entity) bool {
	if !entity.IsAlive() {
		return false
	}

	for _, child := range entity.Children() {
		w.Despawn(child)
	}

	entity.components.RemoveAll()

	if entity.despawned.Swap(true) {
		return false
	}

	w.hierarchyMu.Lock()
	if entity.parent != nil {
		entity.parent.removeChildLocked(entity)
	}
	w.hierarchyMu.Unlock()

	w.entitiesMu.Lock()
	defer w.entitiesMu.Unlock()

	if idx, ok := w.entityIndex.Get(entity.id); ok {
		w.entities[idx] = nil
		w.entityIndex.Del(entity.id)
		w.deadEntries++
		w.compactLocked()
	}

	return true
}

// compactLocked drops despawned slots once they make up half of the table.
func (w *World) compactLocked() {
	if w.deadEntries*2 < len(w.entities) {
		return
	}

	alive := w.entities[:0]
	for _, entity := range w.entities {
		if entity != nil {
			w.entityIndex.Put(entity.id, len(alive))
			alive = append(alive, entity)
		}
	}

	clear(w.entities[len(alive):])
	w.entities = alive
	w.deadEntries = 0
}

// Entity returns the live entity with the given id.
func (w *World) Entity(id EntityId) (*Entity, bool) {
	w.entitiesMu.RLock()
	defer w.entitiesMu.RUnlock()

	idx, ok := w.entityIndex.Get(id)
	if !ok {
		return nil, false
	}

	return w.entities[idx], true
}

// Entities iterates a snapshot of all live entities in spawn order.
func (w *World) Entities() iter.Seq[*Entity] {
	snapshot := w.entitySnapshot()

	return func(yield func(*Entity) bool) {
		for _, entity := range snapshot {
			if !entity.IsAlive() {
				continue
			}

			if !yield(entity) {
				return
			}
		}
	}
}

// EntityCount returns the number of live entities.
func (w *World) EntityCount() int {
	w.entitiesMu.RLock()
	defer w.entitiesMu.RUnlock()
	return w.entityIndex.Len()
}

func (w *World) entitySnapshot() []*Entity {
	w.entitiesMu.RLock()
	defer w.entitiesMu.RUnlock()

	snapshot := make([]*Entity, 0, len(w.entities)-w.deadEntries)
	for _, entity := range w.entities {
		if entity != nil {
			snapshot = append(snapshot, entity)
		}
	}

	return snapshot
}

// AddSystem binds the fields of the given systems to the world and registers them
// in the named stage. An unknown stage or a duplicate system name is fatal.
func (w *World) AddSystem(stage string, systems ...System) *World {
	for _, system := range systems {
		w.addSystem(stage, system)
	}

	return w
}

// AddSystemWithDependencies registers a single system with additional ordering constraints.
func (w *World) AddSystemWithDependencies(stage string, system System, deps ...Dependency) *World {
	w.addSystem(stage, system, deps...)
	return w
}

func (w *World) addSystem(stageName string, system System, deps ...Dependency) {
	stage, ok := w.schedulers.Stage(stageName)
	if !ok {
		w.fatal(eris.Errorf("unknown stage %q", stageName), "failed to add system")
	}

	initializeFields(w, system)

	if initializer, ok := system.(SystemInitializer); ok {
		initializer.Init(w)
	}

	if err := stage.graph.AddSystem(system, deps...); err != nil {
		w.fatal(err, "failed to add system")
	}

	w.built = false
}

// AddStage appends a stage.
func (w *World) AddStage(name string) *World {
	w.mustStages(w.schedulers.Append(name))
	return w
}

// AddStageAfter inserts a stage directly after anchor.
func (w *World) AddStageAfter(anchor, name string) *World {
	w.mustStages(w.schedulers.InsertAfter(anchor, name))
	return w
}

// AddStageBefore inserts a stage directly before anchor.
func (w *World) AddStageBefore(anchor, name string) *World {
	w.mustStages(w.schedulers.InsertBefore(anchor, name))
	return w
}

// SetSchedulers replaces the stage list. Every previously registered system is
// discarded and must be added again.
func (w *World) SetSchedulers(names ...string) *World {
	w.mustStages(w.schedulers.Set(names...))
	return w
}

func (w *World) mustStages(err error) {
	if err != nil {
		w.fatal(err, "invalid stage configuration")
	}

	w.built = false
}

// Build installs the event swap system and links the graph of every stage.
// It is called by Update when systems or stages changed since the last call.
func (w *World) Build() error {
	if stage, ok := w.schedulers.Stage(w.config.EventStage); ok {
		if !stage.graph.Has(SystemName(&EventsSystem{})) {
			if err := stage.graph.AddSystem(&EventsSystem{world: w}, AfterAll()); err != nil {
				return eris.Wrap(err, "failed to install event system")
			}
		}
	} else {
		w.logger.Warn().
			Str("stage", w.config.EventStage).
			Msg("event stage does not exist, events will not be delivered")
	}

	if err := w.schedulers.Link(); err != nil {
		return err
	}

	w.built = true
	logSchedule(&w.logger, w.schedulers, zerolog.DebugLevel)
	LogComponents(&w.logger, zerolog.DebugLevel)

	return nil
}

// Update runs one frame with the given delta time in seconds.
func (w *World) Update(dt float64) {
	w.UpdateContext(context.Background(), dt)
}

// UpdateContext runs one frame: the external queue is flushed, Time is advanced
// and every stage runs in order. Fixed stages run once per elapsed fixed step.
func (w *World) UpdateContext(ctx context.Context, dt float64) {
	if !w.built || !w.schedulers.linked() {
		if err := w.Build(); err != nil {
			w.fatal(err, "failed to build schedule")
		}
	}

	w.flushQueue()

	w.frame++
	w.elapsed += dt

	if t, ok := GetRefResource[Time](w); ok {
		*t = Time{Delta: dt, Elapsed: w.elapsed, Frame: w.frame}
	}

	steps, fixedElapsed := w.advanceFixed(dt)

	for _, stage := range w.schedulers.stages {
		if stage.fixed {
			w.runFixed(ctx, stage, steps, fixedElapsed)
			continue
		}

		stage.run(ctx, w, dt)
	}

	if fixed, ok := GetRefResource[FixedTime](w); ok {
		fixed.Elapsed = fixedElapsed + float64(steps)*fixed.Step
	}
}

// advanceFixed adds dt to the fixed time accumulator and returns the number of fixed
// steps of this frame together with the fixed elapsed time before the first step.
// Every fixed stage runs the same number of steps.
func (w *World) advanceFixed(dt float64) (int, float64) {
	fixed, ok := GetRefResource[FixedTime](w)
	if !ok {
		return 0, 0
	}

	if fixed.Step <= 0 {
		fixed.Step = w.config.FixedStepSeconds
	}

	step := fixed.Step
	fixed.accumulator += dt

	var steps int
	for fixed.accumulator >= step && steps < w.config.MaxFixedStepsPerFrame {
		fixed.accumulator -= step
		steps++
	}

	if fixed.accumulator >= step {
		w.logger.Debug().
			Int("steps", steps).
			Msg("fixed step budget exceeded, dropping time")

		fixed.accumulator = math.Mod(fixed.accumulator, step)
	}

	return steps, fixed.Elapsed
}

func (w *World) runFixed(ctx context.Context, stage *Stage, steps int, elapsed float64) {
	fixed, ok := GetRefResource[FixedTime](w)
	if !ok {
		return
	}

	for idx := range steps {
		fixed.Delta = fixed.Step
		fixed.Elapsed = elapsed + float64(idx+1)*fixed.Step

		stage.run(ctx, w, fixed.Step)
	}
}

// Run updates the world at the given interval until the context is cancelled.
func (w *World) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	lastTime := time.Now()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			// a frame may have cancelled the context while the next tick was pending
			if ctx.Err() != nil {
				return
			}

			dt := now.Sub(lastTime).Seconds()
			lastTime = now
			w.UpdateContext(ctx, dt)
		}
	}
}

// Queue records a mutation to apply at the start of the next frame. Use it to change the world
// from outside a system, for example from a platform event handler.
func (w *World) Queue(fn func(w *World)) {
	w.queueMu.Lock()
	defer w.queueMu.Unlock()
	w.queue = append(w.queue, fn)
}

func (w *World) flushQueue() {
	w.queueMu.Lock()
	queue := w.queue
	w.queue = nil
	w.queueMu.Unlock()

	for _, fn := range queue {
		fn(w)
	}
}

// Stats returns the statistics of every stage.
func (w *World) Stats() WorldStats {
	stats := WorldStats{
		Frame:       w.frame,
		EntityCount: w.EntityCount(),
	}

	for _, stage := range w.schedulers.stages {
		stats.Stages = append(stats.Stages, stage.Stats())
	}

	return stats
}

func (w *World) currentTick() Tick {
	return Tick(w.tick.Load())
}

// beginSystem advances the tick for a system invocation. Queries evaluated during the
// invocation only report changes newer than lastRun.
func (w *World) beginSystem(lastRun Tick) Tick {
	w.changeCutoff.Store(uint64(lastRun))
	return Tick(w.tick.Add(1))
}

// endSystem advances the tick again so writes made between systems are newer
// than the last run of any system.
func (w *World) endSystem() {
	w.changeCutoff.Store(0)
	w.tick.Add(1)
}

func (w *World) lastRunCutoff() Tick {
	return Tick(w.changeCutoff.Load())
}

func (w *World) fatal(err error, msg string) {
	w.logger.Error().Str("error", eris.ToString(err, true)).Msg(msg)
	panic(err)
}
