// Package namespace implements the hierarchical naming scheme for resources:
// a tree of path segments joined by a configurable separator, per-scope alias
// tables, "using" imports, and the root-escape token. Qualification is a pure
// function of the tree, the scope and registry membership.
package namespace

import (
	"fmt"
	"sort"
	"strings"
)

// Default grammar tokens. Both are configurable on injector construction.
const (
	DefaultSeparator = "/"
	DefaultRootToken = "::"
)

// Node is one level of the namespace tree. The root node has an empty name.
type Node struct {
	name   string
	subs   map[string]*Node
	leaves map[string]struct{}
	order  []string
	sep    string
}

func NewRoot(sep string) *Node {
	if sep == "" {
		sep = DefaultSeparator
	}
	return newNode("", sep)
}

func newNode(name, sep string) *Node {
	return &Node{
		name:   name,
		subs:   make(map[string]*Node),
		leaves: make(map[string]struct{}),
		sep:    sep,
	}
}

// Add records a leaf under the (possibly nested) path of qualified. Interior
// segments become sub-namespaces. A leaf may not shadow a namespace and vice
// versa.
func (n *Node) Add(qualified string) error {
	if qualified == "" {
		return fmt.Errorf("empty resource name")
	}
	parts := strings.Split(qualified, n.sep)
	if len(parts) == 1 {
		if _, ok := n.subs[qualified]; ok {
			return fmt.Errorf("resource %q collides with an existing namespace", qualified)
		}
		if _, ok := n.leaves[qualified]; !ok {
			n.leaves[qualified] = struct{}{}
			n.order = append(n.order, qualified)
		}
		return nil
	}
	sub, err := n.step(parts[0])
	if err != nil {
		return err
	}
	return sub.Add(strings.Join(parts[1:], n.sep))
}

// AddNamespace ensures every segment of path exists as a namespace node.
func (n *Node) AddNamespace(path string) error {
	if path == "" {
		return fmt.Errorf("empty namespace name")
	}
	node := n
	for _, part := range strings.Split(path, n.sep) {
		sub, err := node.step(part)
		if err != nil {
			return err
		}
		node = sub
	}
	return nil
}

func (n *Node) step(part string) (*Node, error) {
	if sub, ok := n.subs[part]; ok {
		return sub, nil
	}
	if _, ok := n.leaves[part]; ok {
		return nil, fmt.Errorf("namespace %q collides with an existing resource", part)
	}
	sub := newNode(part, n.sep)
	n.subs[part] = sub
	return sub, nil
}

// Get descends to the namespace at path, or nil when it does not exist.
// An empty path or the bare separator names the receiver itself.
func (n *Node) Get(path string) *Node {
	path = strings.TrimPrefix(path, n.sep)
	if path == "" {
		return n
	}
	parts := strings.SplitN(path, n.sep, 2)
	sub, ok := n.subs[parts[0]]
	if !ok {
		return nil
	}
	if len(parts) == 1 {
		return sub
	}
	return sub.Get(parts[1])
}

// Leaves returns the local resource names in first-added order. With
// recursive set, nested names are returned qualified relative to the
// receiver.
func (n *Node) Leaves(recursive bool) []string {
	if !recursive {
		out := make([]string, len(n.order))
		copy(out, n.order)
		return out
	}
	var out []string
	n.walk("", &out)
	return out
}

func (n *Node) walk(prefix string, out *[]string) {
	for _, leaf := range n.order {
		*out = append(*out, prefix+leaf)
	}
	for _, sub := range n.subOrder() {
		n.subs[sub].walk(prefix+sub+n.sep, out)
	}
}

func (n *Node) subOrder() []string {
	// Sub-namespaces are few; sorting keeps the walk deterministic.
	names := make([]string, 0, len(n.subs))
	for name := range n.subs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Join concatenates namespace path segments with the separator, skipping
// empty segments.
func Join(sep string, parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}

// LeafName returns the final segment of a qualified name.
func LeafName(sep, qualified string) string {
	parts := strings.Split(qualified, sep)
	return parts[len(parts)-1]
}
