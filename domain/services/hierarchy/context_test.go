package hierarchy

import (
	"strings"
	"testing"

	"ideagraph/domain/core/entities"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func node(id, label string) entities.Node {
	return entities.Node{ID: id, Label: label}
}

func edge(source, target string) entities.Edge {
	return entities.Edge{ID: "edge_" + source + "-" + target, Source: source, Target: target}
}

// two roots: A -> B -> C, A -> D, and a lone root E
func sampleForest() ([]entities.Node, []entities.Edge) {
	nodes := []entities.Node{
		node("A", "Idea"),
		node("B", "Market"),
		node("C", "Pricing"),
		node("D", "Risks"),
		node("E", "Other idea"),
	}
	edges := []entities.Edge{edge("A", "B"), edge("B", "C"), edge("A", "D")}
	return nodes, edges
}

func TestBuildPath(t *testing.T) {
	nodes, edges := sampleForest()

	tests := []struct {
		name  string
		start string
		want  string
	}{
		{name: "root", start: "A", want: "- Idea"},
		{name: "depth one", start: "B", want: "- Idea\n  - Market"},
		{name: "depth two", start: "C", want: "- Idea\n  - Market\n    - Pricing"},
		{name: "lone root", start: "E", want: "- Other idea"},
		{name: "unknown id", start: "Z", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BuildPath(nodes, edges, tt.start))
		})
	}
}

func TestPathNodes_RootFirstAndConsistentWithParentIndex(t *testing.T) {
	nodes, edges := sampleForest()
	parents := ParentIndex(edges)

	path := PathNodes(nodes, edges, "C")
	require.Len(t, path, 3)
	assert.Equal(t, "A", path[0].ID)
	assert.Equal(t, "C", path[2].ID)

	// walking back up from the last element reproduces the path
	for i := len(path) - 1; i > 0; i-- {
		assert.Equal(t, path[i-1].ID, parents[path[i].ID])
	}
	_, hasParent := parents[path[0].ID]
	assert.False(t, hasParent)
}

func TestPathNodes_StopsOnCycle(t *testing.T) {
	nodes := []entities.Node{node("A", "a"), node("B", "b")}
	edges := []entities.Edge{edge("A", "B"), edge("B", "A")}

	path := PathNodes(nodes, edges, "B")

	assert.Len(t, path, 2)
}

func TestPathNodes_StopsOnMissingNode(t *testing.T) {
	nodes := []entities.Node{node("B", "b"), node("C", "c")}
	edges := []entities.Edge{edge("A", "B"), edge("B", "C")}

	assert.Equal(t, "- b\n  - c", BuildPath(nodes, edges, "C"))
}

func TestParentIndex_FirstMatchWins(t *testing.T) {
	edges := []entities.Edge{edge("A", "C"), edge("B", "C")}

	assert.Equal(t, "A", ParentIndex(edges)["C"])
}

func TestBuildForest(t *testing.T) {
	nodes, edges := sampleForest()

	got := BuildForest(nodes, edges)

	want := strings.Join([]string{
		"- Idea",
		"  - Market",
		"    - Pricing",
		"  - Risks",
		"- Other idea",
	}, "\n")
	assert.Equal(t, want, got)
}

func TestBuildForest_EveryNodeExactlyOnce(t *testing.T) {
	tests := []struct {
		name  string
		nodes []entities.Node
		edges []entities.Edge
		lines int
	}{
		{
			name:  "empty",
			nodes: nil,
			edges: nil,
			lines: 0,
		},
		{
			name:  "dangling edge endpoints are skipped",
			nodes: []entities.Node{node("A", "a"), node("B", "b")},
			edges: []entities.Edge{edge("A", "B"), edge("A", "X"), edge("Y", "B")},
			lines: 2,
		},
		{
			name:  "cycle is still emitted once",
			nodes: []entities.Node{node("A", "a"), node("B", "b"), node("C", "c")},
			edges: []entities.Edge{edge("A", "B"), edge("B", "A")},
			lines: 3,
		},
		{
			name:  "second parent does not duplicate the child",
			nodes: []entities.Node{node("A", "a"), node("B", "b"), node("C", "c")},
			edges: []entities.Edge{edge("A", "C"), edge("B", "C")},
			lines: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := BuildForest(tt.nodes, tt.edges)
			if tt.lines == 0 {
				assert.Empty(t, out)
				return
			}
			assert.Len(t, strings.Split(out, "\n"), tt.lines)
		})
	}
}

func TestBuildersAreIdempotent(t *testing.T) {
	nodes, edges := sampleForest()

	assert.Equal(t, BuildForest(nodes, edges), BuildForest(nodes, edges))
	assert.Equal(t, BuildPath(nodes, edges, "C"), BuildPath(nodes, edges, "C"))
}

func TestBuildPaths(t *testing.T) {
	nodes, edges := sampleForest()

	got := BuildPaths(nodes, edges, []string{"D", "missing", "E"})

	assert.Equal(t, "- Idea\n  - Risks"+PathSeparator+"- Other idea", got)
}
