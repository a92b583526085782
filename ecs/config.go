package ecs

import (
	"time"

	"github.com/JeremyLoy/config"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

// Config holds the tunables of a World. Every field can be set from the environment,
// see LoadConfig.
type Config struct {
	// LogLevel is a zerolog level name, e.g. "debug" or "warn".
	LogLevel string `config:"ECS_LOG_LEVEL"`

	// FixedStepSeconds is the simulated time consumed by one run of a fixed stage.
	FixedStepSeconds float64 `config:"ECS_FIXED_STEP_SECONDS"`

	// MaxFixedStepsPerFrame caps the number of fixed stage runs within one Update.
	MaxFixedStepsPerFrame int `config:"ECS_MAX_FIXED_STEPS"`

	// ExecutorIterationLimit bounds the executor worklist loop. Zero derives a
	// limit from the size of the graph.
	ExecutorIterationLimit int `config:"ECS_EXECUTOR_ITERATION_LIMIT"`

	// EventStage is the stage the event swap system is installed into.
	EventStage string `config:"ECS_EVENT_STAGE"`

	// StatsdAddress enables statsd timings when not empty.
	StatsdAddress string `config:"ECS_STATSD_ADDRESS"`
}

// DefaultConfig returns the configuration used when nothing else is provided.
func DefaultConfig() Config {
	return Config{
		LogLevel:              zerolog.InfoLevel.String(),
		FixedStepSeconds:      1.0 / 60.0,
		MaxFixedStepsPerFrame: 8,
		EventStage:            PostUpdate,
	}
}

// LoadConfig returns the default configuration overridden by any ECS_* environment variables.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()
	if err := config.FromEnv().To(&cfg); err != nil {
		return Config{}, eris.Wrap(err, "failed to load ecs config from environment")
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks the configuration for values the scheduler can not work with.
func (c Config) Validate() error {
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return eris.Wrapf(err, "invalid log level %q", c.LogLevel)
	}

	if c.FixedStepSeconds <= 0 {
		return eris.Errorf("fixed step must be positive, got %v", c.FixedStepSeconds)
	}

	if c.MaxFixedStepsPerFrame < 1 {
		return eris.Errorf("max fixed steps per frame must be at least 1, got %d", c.MaxFixedStepsPerFrame)
	}

	if c.ExecutorIterationLimit < 0 {
		return eris.Errorf("executor iteration limit must not be negative, got %d", c.ExecutorIterationLimit)
	}

	if c.EventStage == "" {
		return eris.New("event stage must not be empty")
	}

	return nil
}

// FixedStep returns FixedStepSeconds as a duration.
func (c Config) FixedStep() time.Duration {
	return time.Duration(c.FixedStepSeconds * float64(time.Second))
}
