// Package graph derives the dependency graph for a resolution request: the
// transitive closure of qualified names reachable from the requested roots,
// cycle detection with full path reporting, and the breadth-first order
// providers must run in.
package graph

import (
	"fmt"
	"sort"
)

// Graph is the closure for one resolution request. Nodes are qualified
// resource names recorded in first-discovery order; edges point from a
// provider to each of its qualified dependencies.
type Graph struct {
	nodes []string
	index map[string]int
	edges map[string][]string
}

// DepsFunc yields the qualified dependencies of a node. An error aborts the
// build and propagates to the caller.
type DepsFunc func(name string) ([]string, error)

// Build walks the worklist closure from roots. Roots keep their request
// order; newly discovered dependencies follow in declaration order.
func Build(roots []string, deps DepsFunc) (*Graph, error) {
	g := &Graph{
		index: make(map[string]int),
		edges: make(map[string][]string),
	}

	var queue []string
	for _, root := range roots {
		if g.discover(root) {
			queue = append(queue, root)
		}
	}

	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]

		dd, err := deps(name)
		if err != nil {
			return nil, err
		}
		g.edges[name] = dd
		for _, dep := range dd {
			if g.discover(dep) {
				queue = append(queue, dep)
			}
		}
	}
	return g, nil
}

func (g *Graph) discover(name string) bool {
	if _, ok := g.index[name]; ok {
		return false
	}
	g.index[name] = len(g.nodes)
	g.nodes = append(g.nodes, name)
	return true
}

// Nodes returns the closure in first-discovery order.
func (g *Graph) Nodes() []string {
	out := make([]string, len(g.nodes))
	copy(out, g.nodes)
	return out
}

func (g *Graph) Has(name string) bool {
	_, ok := g.index[name]
	return ok
}

func (g *Graph) Dependencies(name string) []string {
	deps := g.edges[name]
	out := make([]string, len(deps))
	copy(out, deps)
	return out
}

// Dependents returns the nodes that depend on name, in discovery order.
func (g *Graph) Dependents(name string) []string {
	var out []string
	for _, node := range g.nodes {
		for _, dep := range g.edges[node] {
			if dep == name {
				out = append(out, node)
				break
			}
		}
	}
	return out
}

// Edges returns a copy of the adjacency map.
func (g *Graph) Edges() map[string][]string {
	out := make(map[string][]string, len(g.edges))
	for name := range g.edges {
		out[name] = g.Dependencies(name)
	}
	return out
}

func (g *Graph) Size() int { return len(g.nodes) }

// CycleError reports a dependency cycle. Path holds the qualified names on
// the cycle in traversal order, with the entry node repeated at the end.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle: %v", e.Path)
}

// CheckCycles runs a three-color depth-first traversal over the closure in
// discovery order. A back-edge to an in-progress node yields a CycleError
// naming the full cycle.
func (g *Graph) CheckCycles() error {
	const (
		white = iota // unvisited
		gray         // in progress
		black        // done
	)
	color := make(map[string]int, len(g.nodes))
	var path []string

	var visit func(name string) *CycleError
	visit = func(name string) *CycleError {
		color[name] = gray
		path = append(path, name)

		for _, dep := range g.edges[name] {
			if _, ok := g.index[dep]; !ok {
				continue
			}
			switch color[dep] {
			case gray:
				// Back-edge: slice the path from the first
				// occurrence of dep and close the loop.
				start := 0
				for i, p := range path {
					if p == dep {
						start = i
						break
					}
				}
				cycle := make([]string, 0, len(path)-start+1)
				cycle = append(cycle, path[start:]...)
				cycle = append(cycle, dep)
				return &CycleError{Path: cycle}
			case white:
				if err := visit(dep); err != nil {
					return err
				}
			}
		}

		path = path[:len(path)-1]
		color[name] = black
		return nil
	}

	for _, name := range g.nodes {
		if color[name] == white {
			if err := visit(name); err != nil {
				return err
			}
		}
	}
	return nil
}

// Order produces the breadth-first resolution order: nodes with no
// unresolved dependencies first, ties within a wave broken by first-
// discovery order. The result is deterministic for identical registration
// sequences. A cyclic closure returns the CycleError for the offending
// cycle.
func (g *Graph) Order() ([]string, error) {
	inDegree := make(map[string]int, len(g.nodes))
	dependents := make(map[string][]string, len(g.nodes))

	for _, name := range g.nodes {
		inDegree[name] = 0
	}
	for _, name := range g.nodes {
		for _, dep := range g.edges[name] {
			if _, ok := g.index[dep]; !ok {
				continue
			}
			dependents[dep] = append(dependents[dep], name)
			inDegree[name]++
		}
	}

	var wave []string
	for _, name := range g.nodes {
		if inDegree[name] == 0 {
			wave = append(wave, name)
		}
	}

	order := make([]string, 0, len(g.nodes))
	for len(wave) > 0 {
		var next []string
		for _, name := range wave {
			order = append(order, name)
			for _, dependent := range dependents[name] {
				inDegree[dependent]--
				if inDegree[dependent] == 0 {
					next = append(next, dependent)
				}
			}
		}
		sort.Slice(next, func(i, j int) bool {
			return g.index[next[i]] < g.index[next[j]]
		})
		wave = next
	}

	if len(order) != len(g.nodes) {
		if err := g.CheckCycles(); err != nil {
			return nil, err
		}
		return nil, &CycleError{}
	}
	return order, nil
}
