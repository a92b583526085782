package debugui

import (
	"github.com/plus3/ecsworld/ecs"
)

type EntityBrowserComponent struct {
	cache              *EntityBrowserCache
	filterText         string
	filterSignature    string
	maxEntitiesPerPage int
	currentPage        int
}

type ComponentInspectorComponent struct {
	selectedEntityId ecs.EntityId
}

type SignatureViewerComponent struct {
	cache             *SignatureViewerCache
	selectedSignature string
}

type PerformanceStatsComponent struct {
	historyFrames int
	frameHistory  []float32
	frameIndex    int
}

type QueryDebuggerComponent struct {
	selected ecs.Bitmask
	excluded ecs.Bitmask
}

type ScheduleViewerComponent struct{}
