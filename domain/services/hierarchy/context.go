// Package hierarchy renders the research forest as the indented outline
// handed to the language model. Every function here is pure.
package hierarchy

import (
	"strings"

	"ideagraph/domain/core/entities"
)

// PathSeparator joins several ancestor paths into one context block
const PathSeparator = "\n\n---\n\n"

// ParentIndex maps each target to its source. When loaded data gives a node
// more than one incoming edge the first edge wins.
func ParentIndex(edges []entities.Edge) map[string]string {
	parents := make(map[string]string, len(edges))
	for _, e := range edges {
		if _, seen := parents[e.Target]; !seen {
			parents[e.Target] = e.Source
		}
	}
	return parents
}

func nodeIndex(nodes []entities.Node) map[string]entities.Node {
	idx := make(map[string]entities.Node, len(nodes))
	for _, n := range nodes {
		idx[n.ID] = n
	}
	return idx
}

// PathNodes returns the ancestors of startID, root first, ending with startID.
// The walk stops at a root, a missing node, or an id it has already visited.
func PathNodes(nodes []entities.Node, edges []entities.Edge, startID string) []entities.Node {
	byID := nodeIndex(nodes)
	parents := ParentIndex(edges)
	visited := make(map[string]bool)

	var path []entities.Node
	current := startID
	for current != "" && !visited[current] {
		visited[current] = true
		node, ok := byID[current]
		if !ok {
			break
		}
		path = append(path, node)
		current = parents[current]
	}

	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// BuildPath renders the ancestor path of startID as an indented outline
func BuildPath(nodes []entities.Node, edges []entities.Edge, startID string) string {
	path := PathNodes(nodes, edges, startID)
	lines := make([]string, len(path))
	for i, n := range path {
		lines[i] = line(i, n.Label)
	}
	return strings.Join(lines, "\n")
}

// BuildPaths renders the path of each id and joins them with PathSeparator.
// Ids that resolve to an empty path are skipped.
func BuildPaths(nodes []entities.Node, edges []entities.Edge, ids []string) string {
	blocks := make([]string, 0, len(ids))
	for _, id := range ids {
		if p := BuildPath(nodes, edges, id); p != "" {
			blocks = append(blocks, p)
		}
	}
	return strings.Join(blocks, PathSeparator)
}

// BuildForest renders every branch of every root depth first.
// Roots are nodes without an incoming edge from a known node, in node order;
// children follow edge order. Each node is emitted once. Nodes only reachable
// through a cycle are emitted afterwards as their own roots so none is lost.
func BuildForest(nodes []entities.Node, edges []entities.Edge) string {
	byID := nodeIndex(nodes)

	inDegree := make(map[string]int, len(nodes))
	children := make(map[string][]string, len(nodes))
	for _, e := range edges {
		if _, ok := byID[e.Source]; !ok {
			continue
		}
		if _, ok := byID[e.Target]; !ok {
			continue
		}
		inDegree[e.Target]++
		children[e.Source] = append(children[e.Source], e.Target)
	}

	visited := make(map[string]bool, len(nodes))
	lines := make([]string, 0, len(nodes))

	var walk func(id string, depth int)
	walk = func(id string, depth int) {
		if visited[id] {
			return
		}
		visited[id] = true
		lines = append(lines, line(depth, byID[id].Label))
		for _, child := range children[id] {
			walk(child, depth+1)
		}
	}

	for _, n := range nodes {
		if inDegree[n.ID] == 0 {
			walk(n.ID, 0)
		}
	}
	for _, n := range nodes {
		walk(n.ID, 0)
	}

	return strings.Join(lines, "\n")
}

func line(depth int, label string) string {
	return strings.Repeat("  ", depth) + "- " + label
}
