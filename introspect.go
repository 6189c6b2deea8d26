package loom

import "github.com/loomdi/loom/internal/graph"

// Tree is the nested dependency view of a single resource.
type Tree struct {
	Name string
	Deps []*Tree
}

// DependencyGraph returns the adjacency map of the closure reachable from
// the given names: each qualified name mapped to its qualified
// dependencies.
func (in *injector) DependencyGraph(names ...string) (map[string][]string, error) {
	g, _, err := in.graphFor(names)
	if err != nil {
		return nil, err
	}
	return g.Edges(), nil
}

// OrderedDependencies returns the closure of the given names in resolution
// order: every dependency precedes its dependents, ties broken by
// first-discovery order. The requested names are included.
func (in *injector) OrderedDependencies(names ...string) ([]string, error) {
	_, order, err := in.graphFor(names)
	if err != nil {
		return nil, err
	}
	return order, nil
}

// DependencyTree returns the recursive dependency view of one resource.
func (in *injector) DependencyTree(name string) (*Tree, error) {
	q, err := in.qualifyRoot(name)
	if err != nil {
		return nil, err
	}
	if !in.registry.Has(q) {
		return nil, errMissingResource(q)
	}
	// The closure build doubles as the cycle check; an infinite tree is
	// rejected before expansion.
	if _, _, err := in.buildGraph([]string{q}); err != nil {
		return nil, err
	}
	return in.treeOf(q)
}

func (in *injector) treeOf(name string) (*Tree, error) {
	deps, err := in.depsOf(name)
	if err != nil {
		return nil, err
	}
	node := &Tree{Name: name}
	for _, dep := range deps {
		sub, err := in.treeOf(dep)
		if err != nil {
			return nil, err
		}
		node.Deps = append(node.Deps, sub)
	}
	return node, nil
}

func (in *injector) graphFor(names []string) (*graph.Graph, []string, error) {
	roots := make([]string, len(names))
	for i, name := range names {
		q, qerr := in.qualifyRoot(name)
		if qerr != nil {
			return nil, nil, qerr
		}
		if !in.registry.Has(q) {
			return nil, nil, errMissingResource(q)
		}
		roots[i] = q
	}
	built, order, err := in.buildGraph(roots)
	if err != nil {
		return nil, nil, err
	}
	return built, order, nil
}
