package ecs

import (
	"context"

	"github.com/rs/zerolog"
)

// UpdateFrame is handed to a system for every invocation.
type UpdateFrame struct {
	DeltaTime float64
	Commands  *Commands
	World     *World

	// Stage is the name of the running stage.
	Stage string

	// Tick is the change tick of this invocation.
	Tick Tick

	ctx    context.Context
	logger zerolog.Logger
}

func newUpdateFrame(ctx context.Context, w *World, stage string, dt float64) *UpdateFrame {
	return &UpdateFrame{
		DeltaTime: dt,
		Commands:  newCommands(),
		World:     w,
		Stage:     stage,
		ctx:       ctx,
		logger:    w.logger,
	}
}

// Context returns the context the world is updated with.
func (f *UpdateFrame) Context() context.Context {
	return f.ctx
}

// Logger returns a logger carrying the stage and system name.
func (f *UpdateFrame) Logger() *zerolog.Logger {
	return &f.logger
}
