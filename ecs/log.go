package ecs

import (
	"github.com/rs/zerolog"
)

func stageIntoArray(stage *Stage, arrayLogger *zerolog.Array) *zerolog.Array {
	systems := zerolog.Arr()
	edges := zerolog.Arr()

	for _, node := range stage.graph.nodes {
		systems = systems.Str(node.name)

		for _, next := range node.outputs {
			edges = edges.Str(node.name + " -> " + next.name)
		}
	}

	dict := zerolog.Dict().
		Str("stage", stage.name).
		Bool("fixed", stage.fixed).
		Int("total_systems", len(stage.graph.nodes)).
		Array("systems", systems).
		Array("edges", edges)

	return arrayLogger.Dict(dict)
}

// logSchedule logs every stage with its systems and edges.
func logSchedule(logger *zerolog.Logger, schedulers *Schedulers, level zerolog.Level) {
	event := logger.WithLevel(level)
	if event == nil {
		return
	}

	arrayLogger := zerolog.Arr()
	for _, stage := range schedulers.stages {
		arrayLogger = stageIntoArray(stage, arrayLogger)
	}

	event.Int("total_stages", len(schedulers.stages)).
		Array("stages", arrayLogger).
		Msg("schedule built")
}

// LogComponents logs all registered component types.
func LogComponents(logger *zerolog.Logger, level zerolog.Level) {
	arrayLogger := zerolog.Arr()

	components := RegisteredComponents()
	for _, info := range components {
		arrayLogger = arrayLogger.Dict(zerolog.Dict().
			Int("component_id", int(info.Id)).
			Str("component_name", info.Name))
	}

	logger.WithLevel(level).
		Int("total_components", len(components)).
		Array("components", arrayLogger).
		Msg("registered components")
}

// LogEntity logs the components of an entity.
func LogEntity(logger *zerolog.Logger, level zerolog.Level, e *Entity) {
	arrayLogger := zerolog.Arr()
	for _, id := range e.components.Ids() {
		arrayLogger = arrayLogger.Str(componentName(id))
	}

	logger.WithLevel(level).
		Uint64("entity_id", uint64(e.id)).
		Str("entity_name", e.name).
		Array("components", arrayLogger).
		Msg("entity")
}
