package schema

import (
	"fmt"
	"sort"
	"strings"
)

// RelationshipGraph is the dependency graph between categories. A category
// depends on its supertype, on the targets of its to-one relationships and on
// the owners of to-many relationships whose key column it carries.
type RelationshipGraph struct {
	nodes  []string
	edges  map[string][]string // category -> dependencies
	supers map[string]string
	links  []graphLink
}

type graphLink struct {
	from, to, label string
	many           bool
}

// NewRelationshipGraph builds the graph for every category of the registry
func NewRelationshipGraph(r *Registry) *RelationshipGraph {
	g := &RelationshipGraph{
		edges:  make(map[string][]string),
		supers: make(map[string]string),
	}

	for _, t := range r.Types() {
		g.nodes = append(g.nodes, t.Name)
		if t.Supertype != nil {
			g.edges[t.Name] = appendUnique(g.edges[t.Name], t.Supertype.Name)
			g.supers[t.Name] = t.Supertype.Name
		}
		for _, rel := range t.OwnRelationships() {
			g.links = append(g.links, graphLink{from: t.Name, to: rel.Target, label: rel.Name, many: rel.IsToMany()})
			// Self references do not constrain ordering
			if rel.Linkage != ForeignKey || rel.Target == t.Name {
				continue
			}
			if rel.Multiplicity == One {
				g.edges[t.Name] = appendUnique(g.edges[t.Name], rel.Target)
			} else {
				g.edges[rel.Target] = appendUnique(g.edges[rel.Target], t.Name)
			}
		}
	}
	return g
}

// DetectCycles returns the dependency cycles found in the graph
func (g *RelationshipGraph) DetectCycles() [][]string {
	var cycles [][]string
	visited := make(map[string]bool)
	onStack := make(map[string]bool)

	var dfs func(node string, path []string)
	dfs = func(node string, path []string) {
		visited[node] = true
		onStack[node] = true
		path = append(path, node)

		for _, next := range g.edges[node] {
			if !visited[next] {
				dfs(next, path)
			} else if onStack[next] {
				for i, n := range path {
					if n == next {
						cycle := make([]string, len(path)-i)
						copy(cycle, path[i:])
						cycles = append(cycles, cycle)
						break
					}
				}
			}
		}
		onStack[node] = false
	}

	for _, node := range g.nodes {
		if !visited[node] {
			dfs(node, nil)
		}
	}
	return cycles
}

// TopologicalSort returns categories with dependencies first. Ties keep
// registration order.
func (g *RelationshipGraph) TopologicalSort() ([]string, error) {
	pending := make(map[string]int, len(g.nodes))
	dependents := make(map[string][]string)
	for _, node := range g.nodes {
		pending[node] = len(g.edges[node])
		for _, dep := range g.edges[node] {
			dependents[dep] = append(dependents[dep], node)
		}
	}

	var queue, result []string
	for _, node := range g.nodes {
		if pending[node] == 0 {
			queue = append(queue, node)
		}
	}
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		result = append(result, node)
		for _, d := range dependents[node] {
			pending[d]--
			if pending[d] == 0 {
				queue = append(queue, d)
			}
		}
	}

	if len(result) != len(g.nodes) {
		if cycles := g.DetectCycles(); len(cycles) > 0 {
			return nil, fmt.Errorf("circular dependency detected: %s", formatCycles(cycles))
		}
		return nil, fmt.Errorf("circular dependency detected")
	}
	return result, nil
}

// Dependencies returns the direct dependencies of a category
func (g *RelationshipGraph) Dependencies(name string) []string {
	deps := make([]string, len(g.edges[name]))
	copy(deps, g.edges[name])
	return deps
}

// DOT renders the graph in Graphviz format. Inheritance edges are dashed.
func (g *RelationshipGraph) DOT() string {
	var b strings.Builder
	b.WriteString("digraph labbook {\n")
	b.WriteString("  node [shape=box];\n")

	nodes := make([]string, len(g.nodes))
	copy(nodes, g.nodes)
	sort.Strings(nodes)
	for _, n := range nodes {
		fmt.Fprintf(&b, "  %q;\n", n)
	}
	for _, n := range nodes {
		if super, ok := g.supers[n]; ok {
			fmt.Fprintf(&b, "  %q -> %q [style=dashed, arrowhead=empty];\n", n, super)
		}
	}
	for _, l := range g.links {
		head := "normal"
		if l.many {
			head = "crow"
		}
		fmt.Fprintf(&b, "  %q -> %q [label=%q, arrowhead=%s];\n", l.from, l.to, l.label, head)
	}
	b.WriteString("}\n")
	return b.String()
}

func appendUnique(list []string, s string) []string {
	for _, existing := range list {
		if existing == s {
			return list
		}
	}
	return append(list, s)
}

func formatCycles(cycles [][]string) string {
	parts := make([]string, len(cycles))
	for i, c := range cycles {
		parts[i] = strings.Join(append(c, c[0]), " -> ")
	}
	return strings.Join(parts, "; ")
}
