package ecs_test

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plus3/ecsworld/ecs"
)

func TestLogging(t *testing.T) {
	t.Run("build logs the schedule and components at debug level", func(t *testing.T) {
		var buf bytes.Buffer
		w := ecs.NewWorld(ecs.WithLogger(zerolog.New(&buf).Level(zerolog.DebugLevel)))

		w.Spawn("e", Position{})
		w.AddSystem(ecs.Update, ecs.NewFuncSystem("noop", func(frame *ecs.UpdateFrame) {}))
		require.NoError(t, w.Build())

		out := buf.String()
		assert.Contains(t, out, `"message":"schedule built"`)
		assert.Contains(t, out, `"message":"registered components"`)
		assert.Contains(t, out, `"component_name":"ecs_test.Position"`)
	})

	t.Run("nothing is logged above debug level", func(t *testing.T) {
		var buf bytes.Buffer
		w := ecs.NewWorld(ecs.WithLogger(zerolog.New(&buf).Level(zerolog.InfoLevel)))

		require.NoError(t, w.Build())
		assert.Empty(t, buf.String())
	})

	t.Run("entities are logged with their components", func(t *testing.T) {
		var buf bytes.Buffer
		logger := zerolog.New(&buf)

		w := newTestWorld(t)
		e := w.Spawn("player", Position{}, Velocity{})

		ecs.LogEntity(&logger, zerolog.InfoLevel, e)

		out := buf.String()
		assert.Contains(t, out, `"entity_name":"player"`)
		assert.Contains(t, out, `"components":["ecs_test.Position","ecs_test.Velocity"]`)
	})
}
