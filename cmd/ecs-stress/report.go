package main

import (
	"fmt"
	"io"
	"runtime"
	"slices"
	"text/template"
	"time"

	"github.com/goccy/go-json"

	"github.com/plus3/ecsworld/ecs"
)

type Report struct {
	// Configuration
	Duration time.Duration `json:"duration"`
	Seed     uint64        `json:"seed"`
	Entities int           `json:"entities"`
	Systems  int           `json:"systems"`

	// Results
	TotalUpdates   int64            `json:"total_updates"`
	TotalTime      time.Duration    `json:"total_time"`
	UpdateTime     Stats            `json:"update_time"`
	FinalEntities  int              `json:"final_entities"`
	Signatures     int              `json:"signatures"`
	Stages         []StageReport    `json:"stages"`
	GCPauseMetrics bool             `json:"-"`
	MemStatsStart  runtime.MemStats `json:"-"`
	MemStatsEnd    runtime.MemStats `json:"-"`
}

type StageReport struct {
	Name        string        `json:"name"`
	Systems     int           `json:"systems"`
	Runs        int64         `json:"runs"`
	Last        time.Duration `json:"last"`
	SlowestName string        `json:"slowest_system,omitempty"`
	SlowestAvg  time.Duration `json:"slowest_avg,omitempty"`
}

type Stats struct {
	Min     time.Duration   `json:"min"`
	Max     time.Duration   `json:"max"`
	Avg     time.Duration   `json:"avg"`
	P99     time.Duration   `json:"p99"`
	Samples []time.Duration `json:"-"`
}

func (s *Stats) Finalize() {
	if len(s.Samples) == 0 {
		return
	}

	var total time.Duration
	s.Min = s.Samples[0]
	s.Max = s.Samples[0]

	for _, sample := range s.Samples {
		s.Min = min(s.Min, sample)
		s.Max = max(s.Max, sample)
		total += sample
	}
	s.Avg = total / time.Duration(len(s.Samples))

	sorted := slices.Clone(s.Samples)
	slices.Sort(sorted)
	s.P99 = sorted[(len(sorted)-1)*99/100]
}

// Collect copies the world statistics into the report.
func (r *Report) Collect(w *ecs.World) {
	storage := w.CollectStats()
	r.FinalEntities = storage.TotalEntityCount
	r.Signatures = storage.SignatureCount

	r.Stages = r.Stages[:0]
	for _, stage := range w.Stats().Stages {
		stageReport := StageReport{
			Name:    stage.Stage,
			Systems: stage.SystemCount,
			Runs:    stage.RunCount,
			Last:    stage.LastDuration,
		}

		for _, system := range stage.Systems {
			if system.AvgDuration > stageReport.SlowestAvg {
				stageReport.SlowestName = system.Name
				stageReport.SlowestAvg = system.AvgDuration
			}
		}

		r.Stages = append(r.Stages, stageReport)
	}
}

// WriteJSON writes the report as indented JSON.
func (r *Report) WriteJSON(w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(r)
}

func (r *Report) Generate(w io.Writer) error {
	const reportTemplate = `
# ECS Stress Test Report

## Test Configuration
- **Run Duration:** {{.Duration}}
- **Seed:** {{.Seed}}
- **Initial Entities:** {{.Entities}}
- **Generated Systems:** {{.Systems}}

## Performance Results
- **Total Updates:** {{.TotalUpdates}}
- **Total Test Time:** {{.TotalTime}}
- **Final Entities:** {{.FinalEntities}} in {{.Signatures}} signatures
- **Update Time (Frame):**
  - **Avg:** {{.UpdateTime.Avg}}
  - **Min:** {{.UpdateTime.Min}}
  - **Max:** {{.UpdateTime.Max}}
  - **P99:** {{.UpdateTime.P99}}

## Stages
{{range .Stages}}- **{{.Name}}:** {{.Systems}} systems, {{.Runs}} runs, last {{.Last}}{{if .SlowestName}}, slowest {{.SlowestName}} ({{.SlowestAvg}} avg){{end}}
{{end}}
## Memory Usage
- Heap Alloc:     {{mb .MemStatsStart.HeapAlloc}} MiB (start) -> {{mb .MemStatsEnd.HeapAlloc}} MiB (end) -> delta: {{bsub .MemStatsEnd.HeapAlloc .MemStatsStart.HeapAlloc}}
- Total Alloc:    {{.MemStatsStart.TotalAlloc}} (start) -> {{.MemStatsEnd.TotalAlloc}} (end) -> delta: {{bsub .MemStatsEnd.TotalAlloc .MemStatsStart.TotalAlloc}}
- Sys Memory:     {{.MemStatsStart.Sys}} (start) -> {{.MemStatsEnd.Sys}} (end) -> delta: {{bsub .MemStatsEnd.Sys .MemStatsStart.Sys}}
- Num GC:         {{.MemStatsStart.NumGC}} (start) -> {{.MemStatsEnd.NumGC}} (end) -> delta: {{usub .MemStatsEnd.NumGC .MemStatsStart.NumGC}}

{{if .GCPauseMetrics}}
## GC Pause Durations
- **Total GC Pause:** {{.MemStatsEnd.PauseTotalNs | ns}}
- **Num GC Cycles:** {{ usub .MemStatsEnd.NumGC .MemStatsStart.NumGC }}
{{end}}
`

	fm := template.FuncMap{
		"mb": func(v uint64) string {
			return fmt.Sprintf("%.2f", float64(v)/1024/1024)
		},
		"bsub": func(a, b uint64) int64 {
			return int64(a) - int64(b)
		},
		"usub": func(a, b uint32) uint32 {
			return a - b
		},
		"ns": func(ns uint64) string {
			return time.Duration(ns).String()
		},
	}

	tmpl, err := template.New("report").Funcs(fm).Parse(reportTemplate)
	if err != nil {
		return err
	}

	return tmpl.Execute(w, r)
}
