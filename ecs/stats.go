package ecs

import (
	"slices"
	"time"
)

// SchedulerStats provides statistics about the execution of one stage.
type SchedulerStats struct {
	Stage           string
	SystemCount     int
	RunCount        int64
	TotalExecutions int64
	LastDuration    time.Duration
	Systems         []SystemStats
}

// SystemStats provides execution statistics for a single system.
type SystemStats struct {
	Name           string
	ExecutionCount int64
	MinDuration    time.Duration
	MaxDuration    time.Duration
	AvgDuration    time.Duration
	LastDuration   time.Duration
	TotalDuration  time.Duration
}

// WorldStats aggregates the statistics of every stage.
type WorldStats struct {
	Frame       uint64
	EntityCount int
	Stages      []SchedulerStats
}

type systemStatsInternal struct {
	name           string
	executionCount int64
	minDuration    time.Duration
	maxDuration    time.Duration
	totalDuration  time.Duration
	lastDuration   time.Duration
}

func newSystemStats(name string) *systemStatsInternal {
	return &systemStatsInternal{
		name:        name,
		minDuration: time.Duration(1<<63 - 1),
	}
}

func (s *systemStatsInternal) record(duration time.Duration) {
	s.executionCount++
	s.lastDuration = duration
	s.totalDuration += duration

	if duration < s.minDuration {
		s.minDuration = duration
	}
	if duration > s.maxDuration {
		s.maxDuration = duration
	}
}

func (s *systemStatsInternal) snapshot() SystemStats {
	avgDuration := time.Duration(0)
	minDuration := time.Duration(0)
	if s.executionCount > 0 {
		avgDuration = s.totalDuration / time.Duration(s.executionCount)
		minDuration = s.minDuration
	}

	return SystemStats{
		Name:           s.name,
		ExecutionCount: s.executionCount,
		MinDuration:    minDuration,
		MaxDuration:    s.maxDuration,
		AvgDuration:    avgDuration,
		LastDuration:   s.lastDuration,
		TotalDuration:  s.totalDuration,
	}
}

// StorageStats describes the entity and resource tables of a world.
type StorageStats struct {
	TotalEntityCount int
	SignatureCount   int
	ResourceCount    int

	// SignatureBreakdown groups entities by their exact set of components,
	// ordered by first appearance.
	SignatureBreakdown []SignatureStats
	ResourceTypes      []string
}

// SignatureStats counts the entities sharing one set of components.
type SignatureStats struct {
	ComponentIds   []ComponentId
	ComponentNames []string
	EntityCount    int
}

// CollectStats walks all entities and resources.
func (w *World) CollectStats() StorageStats {
	var stats StorageStats

	bySignature := make(map[string]int)

	for entity := range w.Entities() {
		stats.TotalEntityCount++

		mask := entity.components.Mask()
		key := mask.key()

		idx, ok := bySignature[key]
		if !ok {
			signature := SignatureStats{}
			for id := range mask.Ids() {
				signature.ComponentIds = append(signature.ComponentIds, id)
				signature.ComponentNames = append(signature.ComponentNames, componentName(id))
			}

			idx = len(stats.SignatureBreakdown)
			bySignature[key] = idx
			stats.SignatureBreakdown = append(stats.SignatureBreakdown, signature)
		}

		stats.SignatureBreakdown[idx].EntityCount++
	}

	for _, t := range w.ResourceTypes() {
		stats.ResourceTypes = append(stats.ResourceTypes, t.String())
	}

	slices.Sort(stats.ResourceTypes)

	stats.SignatureCount = len(stats.SignatureBreakdown)
	stats.ResourceCount = len(stats.ResourceTypes)

	return stats
}
