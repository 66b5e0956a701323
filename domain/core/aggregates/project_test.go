package aggregates

import (
	"math"
	"testing"

	"ideagraph/domain/core/entities"
	"ideagraph/domain/core/valueobjects"
	pkgerrors "ideagraph/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testNode(id, label string) entities.Node {
	return entities.Node{ID: id, Label: label, Prompt: label, Position: valueobjects.Position{X: 0, Y: 0}}
}

func testEdge(source, target string) entities.Edge {
	return entities.Edge{ID: valueobjects.EdgeIDFor(source, target), Source: source, Target: target}
}

// A -> B -> C, A -> D
func newTestProject(t *testing.T) *Project {
	t.Helper()
	p, err := NewProject("user-1", "Research",
		[]entities.Node{testNode("A", "Idea"), testNode("B", "Market"), testNode("C", "Pricing"), testNode("D", "Risks")},
		[]entities.Edge{testEdge("A", "B"), testEdge("B", "C"), testEdge("A", "D")},
	)
	require.NoError(t, err)
	return p
}

func TestNewProject_Validation(t *testing.T) {
	valid := []entities.Node{testNode("A", "a"), testNode("B", "b")}

	tests := []struct {
		name  string
		owner string
		pname string
		nodes []entities.Node
		edges []entities.Edge
	}{
		{name: "missing owner", owner: "", pname: "x", nodes: valid, edges: []entities.Edge{}},
		{name: "missing name", owner: "u", pname: "  ", nodes: valid, edges: []entities.Edge{}},
		{name: "nil nodes", owner: "u", pname: "x", nodes: nil, edges: []entities.Edge{}},
		{name: "nil edges", owner: "u", pname: "x", nodes: valid, edges: nil},
		{name: "node without label", owner: "u", pname: "x", nodes: []entities.Node{{ID: "A"}}, edges: []entities.Edge{}},
		{
			name: "non-finite position", owner: "u", pname: "x",
			nodes: []entities.Node{{ID: "A", Label: "a", Position: valueobjects.Position{X: math.NaN()}}},
			edges: []entities.Edge{},
		},
		{name: "duplicate node id", owner: "u", pname: "x", nodes: []entities.Node{testNode("A", "a"), testNode("A", "b")}, edges: []entities.Edge{}},
		{name: "unknown endpoint", owner: "u", pname: "x", nodes: valid, edges: []entities.Edge{testEdge("A", "Z")}},
		{
			name: "second parent", owner: "u", pname: "x",
			nodes: []entities.Node{testNode("A", "a"), testNode("B", "b"), testNode("C", "c")},
			edges: []entities.Edge{testEdge("A", "C"), testEdge("B", "C")},
		},
		{name: "cycle", owner: "u", pname: "x", nodes: valid, edges: []entities.Edge{testEdge("A", "B"), testEdge("B", "A")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewProject(tt.owner, tt.pname, tt.nodes, tt.edges)
			require.Error(t, err)
			assert.True(t, pkgerrors.IsValidation(err), "got %v", err)
		})
	}
}

func TestNewProject_EmptyForestIsAllowed(t *testing.T) {
	p, err := NewProject("user-1", "Empty", []entities.Node{}, []entities.Edge{})

	require.NoError(t, err)
	assert.NotEmpty(t, p.ID())
	assert.Equal(t, 0, p.Version())
	require.Len(t, p.GetUncommittedEvents(), 1)
	assert.Equal(t, "project.created", p.GetUncommittedEvents()[0].GetEventType())
}

func TestProject_Queries(t *testing.T) {
	p := newTestProject(t)

	n, ok := p.FindNode("C")
	require.True(t, ok)
	assert.Equal(t, "Pricing", n.Label)

	parent, ok := p.ParentOf("C")
	require.True(t, ok)
	assert.Equal(t, "B", parent.ID)

	_, ok = p.ParentOf("A")
	assert.False(t, ok)

	children := p.ChildrenOf("A")
	require.Len(t, children, 2)
	assert.Equal(t, "B", children[0].ID)
	assert.Equal(t, "D", children[1].ID)

	e, ok := p.FindEdge(func(e entities.Edge) bool { return e.Source == "B" })
	require.True(t, ok)
	assert.Equal(t, "C", e.Target)
}

func TestProject_ParentOfToleratesSecondParentOnRead(t *testing.T) {
	p, err := ReconstructProject(ProjectSnapshot{
		ID:    "p1",
		Owner: "user-1",
		Name:  "Loaded",
		Nodes: []entities.Node{testNode("A", "a"), testNode("B", "b"), testNode("C", "c")},
		Edges: []entities.Edge{testEdge("A", "C"), testEdge("B", "C")},
	})
	require.NoError(t, err)

	parent, ok := p.ParentOf("C")

	require.True(t, ok)
	assert.Equal(t, "A", parent.ID)
}

func TestProject_AddChild(t *testing.T) {
	p := newTestProject(t)
	child := testNode("E", "Competitors")

	edge, err := p.AddChild("D", child)

	require.NoError(t, err)
	assert.Equal(t, "edge_D-E", edge.ID)
	assert.Equal(t, "- Idea\n  - Risks\n    - Competitors", p.PathContext("E"))
}

func TestProject_AddChildIsStrict(t *testing.T) {
	p := newTestProject(t)

	_, err := p.AddChild("missing", testNode("E", "e"))
	assert.True(t, pkgerrors.IsNotFound(err))

	_, err = p.AddChild("A", testNode("C", "dup"))
	assert.True(t, pkgerrors.IsConflict(err))

	_, err = p.AddChild("A", entities.Node{ID: "F"})
	assert.True(t, pkgerrors.IsValidation(err))

	assert.Len(t, p.Nodes(), 4)
	assert.Len(t, p.Edges(), 3)
}

func TestProject_DeleteNodeRoundTrip(t *testing.T) {
	p := newTestProject(t)

	removed, err := p.DeleteNode("B")

	require.NoError(t, err)
	assert.Equal(t, 2, removed)
	_, ok := p.FindNode("B")
	assert.False(t, ok)
	for _, e := range p.Edges() {
		assert.False(t, e.Touches("B"))
	}
	_, ok = p.FindEdge(func(e entities.Edge) bool { return e.ID == "edge_A-D" })
	assert.True(t, ok, "edges not touching the node are kept")
}

func TestProject_DeleteNodeNotFoundDiffersFromNoEdges(t *testing.T) {
	p := newTestProject(t)

	removed, err := p.DeleteNode("C")
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = p.DeleteNode("C")
	assert.True(t, pkgerrors.IsNotFound(err))

	lone, err := NewProject("u", "x", []entities.Node{testNode("A", "a")}, []entities.Edge{})
	require.NoError(t, err)
	removed, err = lone.DeleteNode("A")
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestProject_UpdateHierarchy(t *testing.T) {
	p := newTestProject(t)

	applied, err := p.UpdateHierarchy([]PositionUpdate{
		{ID: "A", Position: valueobjects.Position{X: 10, Y: 20}},
		{ID: "nope", Position: valueobjects.Position{X: 1, Y: 1}},
		{ID: "C", Position: valueobjects.Position{X: -5, Y: 300}},
	})

	require.NoError(t, err)
	assert.Equal(t, 2, applied)
	a, _ := p.FindNode("A")
	assert.Equal(t, valueobjects.Position{X: 10, Y: 20}, a.Position)

	_, err = p.UpdateHierarchy([]PositionUpdate{{ID: "A", Position: valueobjects.Position{X: math.Inf(1)}}})
	assert.True(t, pkgerrors.IsValidation(err))
	a, _ = p.FindNode("A")
	assert.Equal(t, valueobjects.Position{X: 10, Y: 20}, a.Position)
}

func TestProject_UpdateHierarchy_IgnoresBadPositionOfUnknownNode(t *testing.T) {
	p := newTestProject(t)

	applied, err := p.UpdateHierarchy([]PositionUpdate{
		{ID: "ghost", Position: valueobjects.Position{X: math.NaN(), Y: math.Inf(-1)}},
		{ID: "A", Position: valueobjects.Position{X: 7, Y: 8}},
	})

	require.NoError(t, err)
	assert.Equal(t, 1, applied)
	a, _ := p.FindNode("A")
	assert.Equal(t, valueobjects.Position{X: 7, Y: 8}, a.Position)
}

func TestProject_RegenerateNode(t *testing.T) {
	p := newTestProject(t)

	updated, err := p.RegenerateNode("C", "new answer", "new question")

	require.NoError(t, err)
	assert.Equal(t, "new answer", updated.Label)
	assert.Equal(t, "new question", updated.Prompt)
}

func TestProject_RegenerateRootFails(t *testing.T) {
	p := newTestProject(t)
	before := p.Snapshot()
	p.MarkEventsAsCommitted()

	_, err := p.RegenerateNode("A", "x", "y")

	require.Error(t, err)
	assert.True(t, pkgerrors.IsValidation(err))
	assert.Contains(t, err.Error(), "cannot regenerate a root")
	assert.Equal(t, before.Nodes, p.Nodes())
	assert.Empty(t, p.GetUncommittedEvents())

	_, err = p.RegenerateNode("missing", "x", "y")
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestProject_CloneIsIndependent(t *testing.T) {
	p := newTestProject(t)
	p.SetOpportunity(valueobjects.Opportunity{Market: "B2B", Type: "SaaS", Competitors: []string{"Acme"}, Trend: "AI"})

	c := p.Clone()
	_, err := c.AddChild("A", testNode("Z", "z"))
	require.NoError(t, err)
	c.opportunity.Competitors[0] = "Other"

	assert.Len(t, p.Nodes(), 4)
	assert.Equal(t, "Acme", p.Opportunity().Competitors[0])
	assert.Len(t, c.GetUncommittedEvents(), 1)
	assert.Len(t, p.GetUncommittedEvents(), 2)
}

func TestProject_SelectionContext(t *testing.T) {
	p := newTestProject(t)

	assert.Equal(t, "- Idea\n  - Market\n    - Pricing\n  - Risks", p.SelectionContext(nil))
	assert.Equal(t, "- Idea\n  - Risks\n\n---\n\n- Idea\n  - Market", p.SelectionContext([]string{"D", "B"}))
}

func TestProject_SnapshotRoundTrip(t *testing.T) {
	p := newTestProject(t)
	p.SetRating(valueobjects.Rating{Opportunity: 7, Problem: 6, Feasibility: 5, WhyNow: 8, Feedback: "ok"})
	p.MarkPersisted(3)

	restored, err := ReconstructProject(p.Snapshot())

	require.NoError(t, err)
	assert.Equal(t, p.Snapshot(), restored.Snapshot())
	assert.Equal(t, 3, restored.Version())
}
