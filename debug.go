package loom

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// GraphInfo is a structured snapshot of the full registry for debugging.
type GraphInfo struct {
	Resources []ResourceInfo
}

// ResourceInfo describes one registered resource.
type ResourceInfo struct {
	Name         string
	Dependencies []string
	Dependents   []string
	Resolved     bool
	Constant     bool
	Async        bool
}

// Graph snapshots every registered resource in registration order, with
// dependencies qualified. Resources whose declared dependencies cannot be
// qualified are reported with the raw names.
func (in *injector) Graph() GraphInfo {
	keys := in.registry.Keys()

	deps := make(map[string][]string, len(keys))
	for _, key := range keys {
		qualified, err := in.depsOf(key)
		if err != nil {
			entry, lerr := in.registry.Lookup(key)
			if lerr == nil {
				qualified = entry.Deps
			}
		}
		deps[key] = qualified
	}

	dependents := make(map[string][]string, len(keys))
	for _, key := range keys {
		for _, dep := range deps[key] {
			dependents[dep] = append(dependents[dep], key)
		}
	}

	info := GraphInfo{Resources: make([]ResourceInfo, 0, len(keys))}
	for _, key := range keys {
		entry, err := in.registry.Lookup(key)
		if err != nil {
			continue
		}
		_, resolved := in.cache[key]
		info.Resources = append(info.Resources, ResourceInfo{
			Name:         key,
			Dependencies: deps[key],
			Dependents:   dependents[key],
			Resolved:     resolved,
			Constant:     entry.IsConstant(),
			Async:        entry.IsAsync(),
		})
	}
	return info
}

func (in *injector) PrintGraph() {
	in.FprintGraph(os.Stdout)
}

func (in *injector) FprintGraph(w io.Writer) {
	info := in.Graph()

	if len(info.Resources) == 0 {
		_, _ = fmt.Fprintln(w, "(empty injector)")
		return
	}

	for _, res := range info.Resources {
		status := "○"
		if res.Resolved {
			status = "●"
		}

		if len(res.Dependencies) == 0 {
			_, _ = fmt.Fprintf(w, "%s %s\n", status, res.Name)
		} else {
			_, _ = fmt.Fprintf(w, "%s %s ← %s\n", status, res.Name, strings.Join(res.Dependencies, ", "))
		}
	}
}

func (in *injector) SprintGraph() string {
	var sb strings.Builder
	in.FprintGraph(&sb)
	return sb.String()
}

func (in *injector) PrintGraphDOT() {
	in.FprintGraphDOT(os.Stdout)
}

func (in *injector) FprintGraphDOT(w io.Writer) {
	info := in.Graph()

	_, _ = fmt.Fprintln(w, "digraph dependencies {")
	_, _ = fmt.Fprintln(w, "  rankdir=LR;")
	_, _ = fmt.Fprintln(w, "  node [shape=box];")

	for _, res := range info.Resources {
		label := in.leafLabel(res.Name)
		style := ""
		if res.Resolved {
			style = ", style=filled, fillcolor=lightblue"
		}
		_, _ = fmt.Fprintf(w, "  %q [label=%q%s];\n", res.Name, label, style)
	}

	_, _ = fmt.Fprintln(w)

	for _, res := range info.Resources {
		for _, dep := range res.Dependencies {
			_, _ = fmt.Fprintf(w, "  %q -> %q;\n", res.Name, dep)
		}
	}

	_, _ = fmt.Fprintln(w, "}")
}

func (in *injector) SprintGraphDOT() string {
	var sb strings.Builder
	in.FprintGraphDOT(&sb)
	return sb.String()
}

func (in *injector) leafLabel(name string) string {
	if idx := strings.LastIndex(name, in.qualifier.Sep); idx != -1 {
		return name[idx+len(in.qualifier.Sep):]
	}
	return name
}
