package main

import (
	"context"
	"os"
	"runtime"
	"time"

	"github.com/pkg/profile"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/plus3/ecsworld/ecs"
)

func main() {
	duration := pflag.DurationP("duration", "d", 10*time.Second, "The total duration the test should run for.")
	entityCount := pflag.IntP("entities", "e", 10000, "The initial number of entities to create.")
	systemCount := pflag.IntP("systems", "s", 50, "The number of generated systems.")
	maxDeps := pflag.Int("max-deps", 3, "The maximum number of ordering constraints per system.")
	churnRate := pflag.Float64("churn", 0.1, "The chance of a churn system to replace an entity per run.")
	seed := pflag.Uint64("seed", uint64(time.Now().UnixNano()), "The seed of the generated workload.")
	gcPauseMetrics := pflag.Bool("gc-pause-metrics", false, "Enable detailed GC pause metrics in the report.")
	jsonOutput := pflag.String("json", "", "Write the report as JSON to this file instead of printing it.")
	profileMode := pflag.String("profile", "", "Write a profile of the run: cpu, mem or trace.")
	pflag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
		With().Timestamp().Logger()

	opts := options{
		duration:       *duration,
		profileMode:    *profileMode,
		jsonOutput:     *jsonOutput,
		gcPauseMetrics: *gcPauseMetrics,
		workload: Workload{
			Seed:            *seed,
			Entities:        *entityCount,
			Systems:         *systemCount,
			MaxDependencies: *maxDeps,
			ChurnRate:       *churnRate,
		},
	}

	if err := stress(logger, opts); err != nil {
		logger.Fatal().Str("error", eris.ToString(err, false)).Msg("stress test failed")
	}
}

type options struct {
	duration       time.Duration
	profileMode    string
	jsonOutput     string
	gcPauseMetrics bool
	workload       Workload
}

// stress runs the whole test. Profiles and output files are closed before it returns.
func stress(logger zerolog.Logger, opts options) error {
	switch opts.profileMode {
	case "":
	case "cpu":
		defer profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	case "mem":
		defer profile.Start(profile.MemProfile, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	case "trace":
		defer profile.Start(profile.TraceProfile, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	default:
		return eris.Errorf("unknown profile mode %q", opts.profileMode)
	}

	cfg, err := ecs.LoadConfig()
	if err != nil {
		return err
	}

	logger.Info().Msg("Starting ECS stress test...")

	w := ecs.NewWorld(ecs.WithConfig(cfg), ecs.WithLogger(logger.Level(zerolog.WarnLevel)))

	workload := opts.workload
	logger.Info().
		Int("entities", workload.Entities).
		Int("systems", workload.Systems).
		Uint64("seed", workload.Seed).
		Msg("Populating world...")
	workload.Build(w)

	if err := w.Build(); err != nil {
		return eris.Wrap(err, "failed to build schedule")
	}

	logger.Info().Msg("Population complete.")

	report := &Report{
		Duration:       opts.duration,
		Seed:           workload.Seed,
		Entities:       workload.Entities,
		Systems:        workload.Systems,
		GCPauseMetrics: opts.gcPauseMetrics,
	}

	runtime.ReadMemStats(&report.MemStatsStart)

	logger.Info().Dur("duration", opts.duration).Msg("Running simulation...")
	ctx, cancel := context.WithTimeout(context.Background(), opts.duration)
	defer cancel()

	run(ctx, w, report)

	report.UpdateTime.Finalize()
	report.Collect(w)
	runtime.ReadMemStats(&report.MemStatsEnd)

	logger.Info().Int64("updates", report.TotalUpdates).Msg("Simulation finished.")

	if opts.jsonOutput != "" {
		return writeJSON(opts.jsonOutput, report)
	}

	return eris.Wrap(report.Generate(os.Stdout), "failed to generate report")
}

// run updates the world as fast as possible until ctx is done.
func run(ctx context.Context, w *ecs.World, report *Report) {
	startTime := time.Now()
	lastFrameTime := startTime

	for ctx.Err() == nil {
		deltaTime := time.Since(lastFrameTime)
		lastFrameTime = time.Now()

		updateStart := time.Now()
		w.UpdateContext(ctx, deltaTime.Seconds())
		report.UpdateTime.Samples = append(report.UpdateTime.Samples, time.Since(updateStart))
		report.TotalUpdates++
	}

	report.TotalTime = time.Since(startTime)
}

func writeJSON(path string, report *Report) error {
	file, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "failed to create report file %q", path)
	}
	defer file.Close()

	return eris.Wrap(report.WriteJSON(file), "failed to write report")
}
