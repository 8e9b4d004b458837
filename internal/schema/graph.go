package schema

import (
	"fmt"
	"sort"
	"strings"
)

// RelationshipGraph is the directed graph of schema relations. Cycles are
// legal in an API schema graph; the graph exists for introspection, never
// for resolution.
type RelationshipGraph struct {
	nodes []string
	edges map[string][]string // schema -> related schemas
}

// NewRelationshipGraph creates a relationship graph over the given schemas
func NewRelationshipGraph(schemas map[string]*Schema) *RelationshipGraph {
	graph := &RelationshipGraph{
		edges: make(map[string][]string),
	}

	for name, schema := range schemas {
		graph.nodes = append(graph.nodes, name)
		seen := make(map[string]bool)
		for _, field := range schema.Relations() {
			target := field.Relation.Target
			if target == "" || seen[target] {
				continue
			}
			seen[target] = true
			graph.edges[name] = append(graph.edges[name], target)
		}
		sort.Strings(graph.edges[name])
	}
	sort.Strings(graph.nodes)

	return graph
}

// Edges returns the schemas directly related to name
func (g *RelationshipGraph) Edges(name string) []string {
	return g.edges[name]
}

// DetectCycles returns every elementary cycle found by a depth-first walk,
// each starting at its first visited schema
func (g *RelationshipGraph) DetectCycles() [][]string {
	var cycles [][]string
	seen := make(map[string]bool)
	visited := make(map[string]bool)
	onStack := make(map[string]bool)

	var dfs func(node string, path []string)
	dfs = func(node string, path []string) {
		visited[node] = true
		onStack[node] = true
		path = append(path, node)

		for _, neighbor := range g.edges[node] {
			if onStack[neighbor] {
				start := 0
				for i, n := range path {
					if n == neighbor {
						start = i
						break
					}
				}
				cycle := make([]string, len(path)-start)
				copy(cycle, path[start:])
				key := strings.Join(cycle, "->")
				if !seen[key] {
					seen[key] = true
					cycles = append(cycles, cycle)
				}
				continue
			}
			if !visited[neighbor] {
				dfs(neighbor, path)
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

// FormatCycle renders a cycle as "a -> b -> a"
func FormatCycle(cycle []string) string {
	if len(cycle) == 0 {
		return ""
	}
	return fmt.Sprintf("%s -> %s", strings.Join(cycle, " -> "), cycle[0])
}
