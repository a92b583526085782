package ecs

import (
	"slices"
	"strings"

	"github.com/rotisserie/eris"
)

type systemNode struct {
	name   string
	system System
	deps   []Dependency

	// edges, populated by LinkSystems
	inputs  []*systemNode
	outputs []*systemNode

	// change tick of the last invocation
	lastRun Tick

	stats *systemStatsInternal
}

// SystemGraph is the dependency graph of the systems of one stage.
// Edges are derived from the declared dependencies when LinkSystems is called.
type SystemGraph struct {
	nodes  []*systemNode
	byName map[string]*systemNode
	linked bool
}

// NewSystemGraph creates an empty graph.
func NewSystemGraph() *SystemGraph {
	return &SystemGraph{
		byName: make(map[string]*systemNode),
	}
}

// AddSystem registers a system under its stable name. Additional dependencies
// are merged with the ones the system declares itself.
func (g *SystemGraph) AddSystem(system System, deps ...Dependency) error {
	name := SystemName(system)
	if name == "" {
		return eris.New("system name must not be empty")
	}

	if _, exists := g.byName[name]; exists {
		return eris.Errorf("system %q is already registered", name)
	}

	node := &systemNode{
		name:   name,
		system: system,
		deps:   append(slices.Clone(systemDependencies(system)), deps...),
		stats:  newSystemStats(name),
	}

	g.nodes = append(g.nodes, node)
	g.byName[name] = node
	g.linked = false

	return nil
}

// LinkSystems materializes the edges of every node from its dependency list.
// Linking is idempotent. A dependency on an unregistered system or a cycle is an error.
func (g *SystemGraph) LinkSystems() error {
	for _, node := range g.nodes {
		node.inputs = node.inputs[:0]
		node.outputs = node.outputs[:0]
	}

	for _, node := range g.nodes {
		for _, dep := range node.deps {
			switch dep.kind {
			case dependencyAfterAll:
				for _, other := range g.nodes {
					if other != node && !other.runsAfterAll() {
						link(other, node)
					}
				}

			case dependencyAfter, dependencyBefore:
				target, ok := g.byName[dep.target]
				if !ok {
					return eris.Errorf("system %q depends on unregistered system %q", node.name, dep.target)
				}

				if target == node {
					return eris.Errorf("system %q depends on itself", node.name)
				}

				if dep.kind == dependencyAfter {
					link(target, node)
				} else {
					link(node, target)
				}
			}
		}
	}

	if cycle := g.findCycle(); cycle != nil {
		return eris.Errorf("dependency cycle: %s", strings.Join(cycle, " -> "))
	}

	g.linked = true
	return nil
}

// Linked reports whether the edges reflect the current set of systems.
func (g *SystemGraph) Linked() bool {
	return g.linked
}

// link adds the edge from -> to unless it already exists.
func link(from, to *systemNode) {
	if slices.Contains(from.outputs, to) {
		return
	}

	from.outputs = append(from.outputs, to)
	to.inputs = append(to.inputs, from)
}

func (n *systemNode) runsAfterAll() bool {
	return slices.ContainsFunc(n.deps, func(dep Dependency) bool {
		return dep.kind == dependencyAfterAll
	})
}

// findCycle returns the names along the first cycle found, with the first
// name repeated at the end, or nil for an acyclic graph.
func (g *SystemGraph) findCycle() []string {
	const (
		unvisited = iota
		visiting
		done
	)

	state := make(map[*systemNode]int, len(g.nodes))
	var path []*systemNode

	var visit func(node *systemNode) []string
	visit = func(node *systemNode) []string {
		state[node] = visiting
		path = append(path, node)

		for _, next := range node.outputs {
			switch state[next] {
			case visiting:
				start := slices.Index(path, next)

				var names []string
				for _, n := range path[start:] {
					names = append(names, n.name)
				}
				return append(names, next.name)

			case unvisited:
				if cycle := visit(next); cycle != nil {
					return cycle
				}
			}
		}

		path = path[:len(path)-1]
		state[node] = done
		return nil
	}

	for _, node := range g.nodes {
		if state[node] == unvisited {
			if cycle := visit(node); cycle != nil {
				return cycle
			}
		}
	}

	return nil
}

// OutputNodes returns the names of the direct successors of the named system.
func (g *SystemGraph) OutputNodes(name string) []string {
	node, ok := g.byName[name]
	if !ok {
		return nil
	}

	return nodeNames(node.outputs)
}

// InputNodes returns the names of the direct predecessors of the named system.
func (g *SystemGraph) InputNodes(name string) []string {
	node, ok := g.byName[name]
	if !ok {
		return nil
	}

	return nodeNames(node.inputs)
}

// Names returns the system names in registration order.
func (g *SystemGraph) Names() []string {
	return nodeNames(g.nodes)
}

// Has reports whether a system with the given name is registered.
func (g *SystemGraph) Has(name string) bool {
	_, ok := g.byName[name]
	return ok
}

// Len returns the number of systems.
func (g *SystemGraph) Len() int {
	return len(g.nodes)
}

func (g *SystemGraph) edgeCount() int {
	var count int
	for _, node := range g.nodes {
		count += len(node.outputs)
	}
	return count
}

func nodeNames(nodes []*systemNode) []string {
	names := make([]string, len(nodes))
	for idx, node := range nodes {
		names[idx] = node.name
	}
	return names
}
