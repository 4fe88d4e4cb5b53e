// Package dag implements the artifact dependency graph: a hand-rolled
// Kahn's-algorithm topological walk over artifact ids. The scheduler needs
// control over exactly when a node is marked done (after a worker finishes,
// not merely after it is dispatched), which off-the-shelf topological
// sorters don't expose.
package dag

import "errors"

// ErrCycle is returned when Prepare detects a cycle in the graph.
var ErrCycle = errors.New("dag: cycle detected in dependency graph")

// Graph is a directed graph of artifact ids, edges running from a recipe to
// each of its dependencies.
type Graph struct {
	nodes   map[string]bool
	edges   map[string][]string // node -> its dependencies
	indeg   map[string]int      // number of not-yet-done dependencies remaining
	rdeps   map[string][]string // dependency -> nodes that depend on it
	done    map[string]bool
	handedOut map[string]bool // nodes already returned by Ready
	active  int
}

// NewGraph returns an empty Graph.
func NewGraph() *Graph {
	return &Graph{
		nodes: make(map[string]bool),
		edges: make(map[string][]string),
		indeg: make(map[string]int),
		rdeps: make(map[string][]string),
		done:  make(map[string]bool),
		handedOut: make(map[string]bool),
	}
}

// AddNode ensures id is present in the graph, even if it has no dependencies
// (for instance, a Fetch artifact, always a leaf).
func (g *Graph) AddNode(id string) {
	g.nodes[id] = true
}

// AddEdge records that node depends on dependency: node cannot be considered
// ready until dependency is Done.
func (g *Graph) AddEdge(node, dependency string) {
	g.AddNode(node)
	g.AddNode(dependency)
	g.edges[node] = append(g.edges[node], dependency)
	g.rdeps[dependency] = append(g.rdeps[dependency], node)
}

// Prepare computes in-degrees and the count of undone nodes. Must be called once
// before Ready/Done/IsActive. Returns ErrCycle if the graph is not acyclic.
func (g *Graph) Prepare() error {
	for node := range g.nodes {
		g.indeg[node] = len(g.edges[node])
	}
	g.active = len(g.nodes)

	if g.hasCycle() {
		return ErrCycle
	}

	return nil
}

// hasCycle runs a standalone DFS cycle check so Prepare can fail fast with
// ErrCycle rather than deadlocking the scheduler on a graph that can never
// drain.
func (g *Graph) hasCycle() bool {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[string]int, len(g.nodes))

	var visit func(node string) bool
	visit = func(node string) bool {
		color[node] = gray
		for _, dep := range g.edges[node] {
			switch color[dep] {
			case gray:
				return true
			case white:
				if visit(dep) {
					return true
				}
			}
		}
		color[node] = black
		return false
	}

	for node := range g.nodes {
		if color[node] == white {
			if visit(node) {
				return true
			}
		}
	}
	return false
}

// Ready returns every node whose dependencies are all Done and which has
// been neither returned by an earlier Ready call nor marked Done, so each
// node is handed out once. The returned order is unspecified; callers must
// not rely on it.
func (g *Graph) Ready() []string {
	var ready []string
	for node := range g.nodes {
		if g.done[node] || g.handedOut[node] {
			continue
		}
		if g.indeg[node] == 0 {
			g.handedOut[node] = true
			ready = append(ready, node)
		}
	}
	return ready
}

// Done marks id as finished (built, skipped, or failed) and decrements the
// in-degree of every node that depends on it, potentially unlocking further
// ready nodes.
func (g *Graph) Done(id string) {
	if g.done[id] {
		return
	}
	g.done[id] = true
	g.active--

	for _, dependent := range g.rdeps[id] {
		g.indeg[dependent]--
	}
}

// IsActive reports whether any node remains undone.
func (g *Graph) IsActive() bool {
	return g.active > 0
}

// Dependencies returns the direct dependency ids of node.
func (g *Graph) Dependencies(node string) []string {
	return g.edges[node]
}
