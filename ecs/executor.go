package ecs

import (
	"fmt"
	"strings"
)

// GraphExecutor runs every system of a linked graph exactly once, honoring its edges.
// It is single threaded: one system runs to completion before the next starts.
type GraphExecutor struct {
	// IterationLimit bounds the worklist loop. Zero derives a limit from the graph.
	IterationLimit int

	// reused between runs
	queue     nodeDeque
	completed map[*systemNode]bool
}

// NewGraphExecutor creates an executor with the given iteration limit.
func NewGraphExecutor(iterationLimit int) *GraphExecutor {
	return &GraphExecutor{
		IterationLimit: iterationLimit,
		completed:      make(map[*systemNode]bool),
	}
}

// Execute invokes run once for every system of the graph. A system is only run once all of
// its predecessors completed. Systems that are not ready yet are moved to the back of the
// worklist, successors of a completed system are moved to the front.
// Exceeding the iteration limit or being left with systems that can never run panics.
func (e *GraphExecutor) Execute(g *SystemGraph, run func(system System)) {
	e.execute(g, func(node *systemNode) {
		run(node.system)
	})
}

func (e *GraphExecutor) execute(g *SystemGraph, run func(node *systemNode)) {
	if !g.linked {
		panic("ecs: executing a system graph that is not linked")
	}

	clear(e.completed)
	e.queue.reset()

	for _, node := range g.nodes {
		if len(node.inputs) == 0 {
			e.queue.pushBack(node)
		}
	}

	limit := e.limitFor(g)

	for iterations := 0; e.queue.len() > 0; iterations++ {
		if iterations >= limit {
			panic(fmt.Sprintf("ecs: executor exceeded %d iterations, pending systems: %s",
				limit, e.pendingNames(g)))
		}

		node := e.queue.popFront()
		if e.completed[node] {
			continue
		}

		if !e.ready(node) {
			e.queue.pushBack(node)
			continue
		}

		run(node)
		e.completed[node] = true

		// pushed in reverse so the first successor ends up at the front
		for idx := len(node.outputs) - 1; idx >= 0; idx-- {
			if next := node.outputs[idx]; !e.completed[next] {
				e.queue.pushFront(next)
			}
		}
	}

	if len(e.completed) != len(g.nodes) {
		panic(fmt.Sprintf("ecs: systems never became ready: %s", e.pendingNames(g)))
	}
}

func (e *GraphExecutor) ready(node *systemNode) bool {
	for _, input := range node.inputs {
		if !e.completed[input] {
			return false
		}
	}
	return true
}

func (e *GraphExecutor) limitFor(g *SystemGraph) int {
	if e.IterationLimit > 0 {
		return e.IterationLimit
	}

	// the worklist never holds more than n+e entries and a full pass over it
	// completes at least one node of an acyclic graph
	n, edges := len(g.nodes), g.edgeCount()
	return (n+1)*(n+edges+1) + 16
}

func (e *GraphExecutor) pendingNames(g *SystemGraph) string {
	var pending []string
	for _, node := range g.nodes {
		if !e.completed[node] {
			pending = append(pending, node.name)
		}
	}
	return strings.Join(pending, ", ")
}

// nodeDeque is a double ended queue over a ring buffer.
type nodeDeque struct {
	buf   []*systemNode
	head  int
	count int
}

func (d *nodeDeque) len() int {
	return d.count
}

func (d *nodeDeque) reset() {
	clear(d.buf)
	d.head = 0
	d.count = 0
}

func (d *nodeDeque) grow() {
	if d.count < len(d.buf) {
		return
	}

	buf := make([]*systemNode, max(8, len(d.buf)*2))
	for idx := 0; idx < d.count; idx++ {
		buf[idx] = d.buf[(d.head+idx)%len(d.buf)]
	}

	d.buf = buf
	d.head = 0
}

func (d *nodeDeque) pushBack(node *systemNode) {
	d.grow()
	d.buf[(d.head+d.count)%len(d.buf)] = node
	d.count++
}

func (d *nodeDeque) pushFront(node *systemNode) {
	d.grow()
	d.head = (d.head - 1 + len(d.buf)) % len(d.buf)
	d.buf[d.head] = node
	d.count++
}

func (d *nodeDeque) popFront() *systemNode {
	node := d.buf[d.head]
	d.buf[d.head] = nil
	d.head = (d.head + 1) % len(d.buf)
	d.count--
	return node
}
