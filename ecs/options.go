package ecs

import (
	"github.com/rs/zerolog"
)

// WorldOption configures a World created by NewWorld.
type WorldOption func(*World)

// WithConfig replaces the configuration of the world.
func WithConfig(cfg Config) WorldOption {
	return func(w *World) {
		w.config = cfg
	}
}

// WithLogger replaces the logger of the world.
func WithLogger(logger zerolog.Logger) WorldOption {
	return func(w *World) {
		w.logger = logger
		w.customLogger = true
	}
}

// WithStages replaces the default stage list.
func WithStages(names ...string) WorldOption {
	return func(w *World) {
		w.initialStages = names
	}
}
