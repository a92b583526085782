package ecs_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plus3/ecsworld/ecs"
)

func TestSystemGraph(t *testing.T) {
	t.Run("before and after produce edges", func(t *testing.T) {
		var r recorder
		graph := ecs.NewSystemGraph()

		require.NoError(t, graph.AddSystem(r.system("A")))
		require.NoError(t, graph.AddSystem(r.system("B", ecs.AfterName("A"))))
		require.NoError(t, graph.AddSystem(r.system("C", ecs.BeforeName("A"))))
		require.NoError(t, graph.LinkSystems())

		assert.Equal(t, []string{"B"}, graph.OutputNodes("A"))
		assert.Equal(t, []string{"C"}, graph.InputNodes("A"))
		assert.Equal(t, []string{"A"}, graph.OutputNodes("C"))
		assert.Empty(t, graph.InputNodes("C"))
		assert.Equal(t, []string{"A", "B", "C"}, graph.Names())
		assert.Equal(t, 3, graph.Len())
	})

	t.Run("linking is idempotent", func(t *testing.T) {
		var r recorder
		graph := ecs.NewSystemGraph()

		require.NoError(t, graph.AddSystem(r.system("A")))
		require.NoError(t, graph.AddSystem(r.system("B", ecs.AfterName("A"), ecs.AfterName("A"))))
		require.NoError(t, graph.AddSystem(r.system("C", ecs.BeforeName("B")), ecs.BeforeName("B")))

		require.NoError(t, graph.LinkSystems())
		require.NoError(t, graph.LinkSystems())

		assert.Equal(t, []string{"B"}, graph.OutputNodes("A"))
		assert.Equal(t, []string{"A", "C"}, graph.InputNodes("B"))
	})

	t.Run("duplicate names are rejected", func(t *testing.T) {
		var r recorder
		graph := ecs.NewSystemGraph()

		require.NoError(t, graph.AddSystem(r.system("A")))
		assert.Error(t, graph.AddSystem(r.system("A")))
	})

	t.Run("dependency on an unregistered system fails", func(t *testing.T) {
		var r recorder
		graph := ecs.NewSystemGraph()

		require.NoError(t, graph.AddSystem(r.system("A", ecs.After[*inputSystem]())))

		err := graph.LinkSystems()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unregistered system")
		assert.False(t, graph.Linked())
	})

	t.Run("cycles are reported with their path", func(t *testing.T) {
		var r recorder
		graph := ecs.NewSystemGraph()

		require.NoError(t, graph.AddSystem(r.system("A", ecs.AfterName("C"))))
		require.NoError(t, graph.AddSystem(r.system("B", ecs.AfterName("A"))))
		require.NoError(t, graph.AddSystem(r.system("C", ecs.AfterName("B"))))
		require.NoError(t, graph.AddSystem(r.system("D")))

		err := graph.LinkSystems()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "dependency cycle: A -> B -> C -> A")
	})

	t.Run("self dependency is a cycle", func(t *testing.T) {
		var r recorder
		graph := ecs.NewSystemGraph()

		require.NoError(t, graph.AddSystem(r.system("A", ecs.BeforeName("A"))))
		assert.Error(t, graph.LinkSystems())
	})

	t.Run("after all", func(t *testing.T) {
		var r recorder
		graph := ecs.NewSystemGraph()

		require.NoError(t, graph.AddSystem(r.system("last", ecs.AfterAll())))
		require.NoError(t, graph.AddSystem(r.system("A")))
		require.NoError(t, graph.AddSystem(r.system("B", ecs.AfterName("A"))))
		require.NoError(t, graph.LinkSystems())

		assert.ElementsMatch(t, []string{"A", "B"}, graph.InputNodes("last"))

		runGraph(ecs.NewGraphExecutor(0), graph)
		assert.Equal(t, "last", r.calls[2])
	})

	t.Run("type based names", func(t *testing.T) {
		graph := ecs.NewSystemGraph()

		require.NoError(t, graph.AddSystem(&inputSystem{}))
		require.NoError(t, graph.AddSystem(&movementSystem{}))
		require.NoError(t, graph.LinkSystems())

		assert.Equal(t, []string{ecs.SystemName(&movementSystem{})}, graph.OutputNodes(ecs.SystemName(&inputSystem{})))
		assert.Equal(t, "github.com/plus3/ecsworld/ecs_test.inputSystem", ecs.SystemName(&inputSystem{}))
	})
}

func TestGraphExecutor(t *testing.T) {
	t.Run("before and after constraints order the run", func(t *testing.T) {
		var r recorder
		graph := ecs.NewSystemGraph()

		require.NoError(t, graph.AddSystem(r.system("A")))
		require.NoError(t, graph.AddSystem(r.system("B", ecs.AfterName("A"))))
		require.NoError(t, graph.AddSystem(r.system("C", ecs.BeforeName("A"))))
		require.NoError(t, graph.LinkSystems())

		runGraph(ecs.NewGraphExecutor(0), graph)
		assert.Equal(t, []string{"C", "A", "B"}, r.calls)
	})

	t.Run("every system runs exactly once", func(t *testing.T) {
		var r recorder
		graph := ecs.NewSystemGraph()

		// diamond plus a late join: A -> B, A -> C, B -> D, C -> D, E -> D
		require.NoError(t, graph.AddSystem(r.system("D", ecs.AfterName("B"), ecs.AfterName("C"), ecs.AfterName("E"))))
		require.NoError(t, graph.AddSystem(r.system("B", ecs.AfterName("A"))))
		require.NoError(t, graph.AddSystem(r.system("C", ecs.AfterName("A"))))
		require.NoError(t, graph.AddSystem(r.system("A")))
		require.NoError(t, graph.AddSystem(r.system("E")))
		require.NoError(t, graph.LinkSystems())

		runGraph(ecs.NewGraphExecutor(0), graph)

		assert.ElementsMatch(t, []string{"A", "B", "C", "D", "E"}, r.calls)
		assertBefore(t, r.calls, "A", "B")
		assertBefore(t, r.calls, "A", "C")
		assertBefore(t, r.calls, "B", "D")
		assertBefore(t, r.calls, "C", "D")
		assertBefore(t, r.calls, "E", "D")
	})

	t.Run("executor can be reused", func(t *testing.T) {
		var r recorder
		graph := ecs.NewSystemGraph()

		require.NoError(t, graph.AddSystem(r.system("A")))
		require.NoError(t, graph.AddSystem(r.system("B", ecs.AfterName("A"))))
		require.NoError(t, graph.LinkSystems())

		executor := ecs.NewGraphExecutor(0)
		runGraph(executor, graph)
		runGraph(executor, graph)

		assert.Equal(t, []string{"A", "B", "A", "B"}, r.calls)
	})

	t.Run("unlinked graphs are rejected", func(t *testing.T) {
		var r recorder
		graph := ecs.NewSystemGraph()
		require.NoError(t, graph.AddSystem(r.system("A")))

		assert.Panics(t, func() { runGraph(ecs.NewGraphExecutor(0), graph) })
	})

	t.Run("iteration limit", func(t *testing.T) {
		var r recorder
		graph := ecs.NewSystemGraph()

		require.NoError(t, graph.AddSystem(r.system("A")))
		require.NoError(t, graph.AddSystem(r.system("B", ecs.AfterName("A"))))
		require.NoError(t, graph.LinkSystems())

		assert.Panics(t, func() { runGraph(ecs.NewGraphExecutor(1), graph) })
		assert.Equal(t, []string{"A"}, r.calls)
	})
}

func runGraph(executor *ecs.GraphExecutor, graph *ecs.SystemGraph) {
	executor.Execute(graph, func(system ecs.System) {
		system.Execute(&ecs.UpdateFrame{})
	})
}

func assertBefore(t *testing.T, calls []string, first, second string) {
	t.Helper()

	firstIdx, secondIdx := -1, -1
	for idx, call := range calls {
		switch call {
		case first:
			firstIdx = idx
		case second:
			secondIdx = idx
		}
	}

	assert.Less(t, firstIdx, secondIdx, "%s must run before %s", first, second)
}

type inputSystem struct{}

func (s *inputSystem) Execute(frame *ecs.UpdateFrame) {}

type movementSystem struct{}

func (s *movementSystem) Dependencies() []ecs.Dependency {
	return []ecs.Dependency{ecs.After[*inputSystem]()}
}

func (s *movementSystem) Execute(frame *ecs.UpdateFrame) {}
