package aggregates

import (
	"fmt"
	"strings"
	"time"

	"ideagraph/domain/core/entities"
	"ideagraph/domain/core/valueobjects"
	"ideagraph/domain/events"
	"ideagraph/domain/services/hierarchy"
	pkgerrors "ideagraph/pkg/errors"
)

// Project is the aggregate root and the unit of persistence.
// Nodes and edges form a forest; every mutation goes through the methods below.
type Project struct {
	id          string
	owner       string
	name        string
	nodes       []entities.Node
	edges       []entities.Edge
	opportunity *valueobjects.Opportunity
	rating      *valueobjects.Rating
	createdAt   time.Time
	updatedAt   time.Time
	version     int
	events      []events.DomainEvent
}

// ProjectSnapshot is the flat, serializable form of a project
type ProjectSnapshot struct {
	ID            string                    `json:"id" dynamodbav:"ProjectID"`
	Owner         string                    `json:"owner" dynamodbav:"Owner"`
	Name          string                    `json:"name" dynamodbav:"Name"`
	Nodes         []entities.Node           `json:"nodes" dynamodbav:"Nodes"`
	Edges         []entities.Edge           `json:"edges" dynamodbav:"Edges"`
	Opportunity   *valueobjects.Opportunity `json:"opportunity,omitempty" dynamodbav:"Opportunity,omitempty"`
	ProjectRating *valueobjects.Rating      `json:"projectRating,omitempty" dynamodbav:"ProjectRating,omitempty"`
	CreatedAt     time.Time                 `json:"createdAt" dynamodbav:"CreatedAt"`
	UpdatedAt     time.Time                 `json:"updatedAt" dynamodbav:"UpdatedAt"`
	Version       int                       `json:"version" dynamodbav:"Version"`
}

// PositionUpdate moves one node
type PositionUpdate struct {
	ID       string                `json:"id" validate:"required"`
	Position valueobjects.Position `json:"position"`
}

// NewProject creates a project from a caller-supplied forest.
// The forest is checked strictly: unique ids, known endpoints, one parent per node, no cycles.
func NewProject(owner, name string, nodes []entities.Node, edges []entities.Edge) (*Project, error) {
	if strings.TrimSpace(owner) == "" {
		return nil, pkgerrors.NewValidationError("owner is required")
	}
	if strings.TrimSpace(name) == "" {
		return nil, pkgerrors.NewValidationError("project name is required")
	}
	if nodes == nil || edges == nil {
		return nil, pkgerrors.NewValidationError("nodes and edges are required")
	}
	if err := validateForest(nodes, edges); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	p := &Project{
		id:        valueobjects.NewProjectID(),
		owner:     owner,
		name:      strings.TrimSpace(name),
		nodes:     append(make([]entities.Node, 0, len(nodes)), nodes...),
		edges:     append(make([]entities.Edge, 0, len(edges)), edges...),
		createdAt: now,
		updatedAt: now,
	}
	p.addEvent(events.NewProjectCreated(p.id, owner, p.name, len(nodes), 1, now))
	return p, nil
}

// ReconstructProject recreates a project from stored data.
// Loaded data is trusted; reads tolerate forest violations.
func ReconstructProject(s ProjectSnapshot) (*Project, error) {
	if s.ID == "" || s.Owner == "" {
		return nil, fmt.Errorf("required fields missing for project reconstruction")
	}
	p := &Project{
		id:        s.ID,
		owner:     s.Owner,
		name:      s.Name,
		nodes:     append(make([]entities.Node, 0, len(s.Nodes)), s.Nodes...),
		edges:     append(make([]entities.Edge, 0, len(s.Edges)), s.Edges...),
		createdAt: s.CreatedAt,
		updatedAt: s.UpdatedAt,
		version:   s.Version,
	}
	if s.Opportunity != nil {
		p.opportunity = copyOpportunity(s.Opportunity)
	}
	if s.ProjectRating != nil {
		r := *s.ProjectRating
		p.rating = &r
	}
	return p, nil
}

// Snapshot returns a deep copy of the project state
func (p *Project) Snapshot() ProjectSnapshot {
	s := ProjectSnapshot{
		ID:        p.id,
		Owner:     p.owner,
		Name:      p.name,
		Nodes:     p.Nodes(),
		Edges:     p.Edges(),
		CreatedAt: p.createdAt,
		UpdatedAt: p.updatedAt,
		Version:   p.version,
	}
	if p.opportunity != nil {
		s.Opportunity = copyOpportunity(p.opportunity)
	}
	if p.rating != nil {
		r := *p.rating
		s.ProjectRating = &r
	}
	return s
}

// Clone returns an independent copy without pending events
func (p *Project) Clone() *Project {
	c, _ := ReconstructProject(p.Snapshot())
	return c
}

func (p *Project) ID() string           { return p.id }
func (p *Project) Owner() string        { return p.owner }
func (p *Project) Name() string         { return p.name }
func (p *Project) CreatedAt() time.Time { return p.createdAt }
func (p *Project) UpdatedAt() time.Time { return p.updatedAt }

// Version is the persisted version this state was loaded at; zero before the first save
func (p *Project) Version() int { return p.version }

// MarkPersisted records the version a store assigned on save
func (p *Project) MarkPersisted(version int) {
	p.version = version
}

// Nodes returns a copy of the node list in stored order
func (p *Project) Nodes() []entities.Node {
	return append(make([]entities.Node, 0, len(p.nodes)), p.nodes...)
}

// Edges returns a copy of the edge list in stored order
func (p *Project) Edges() []entities.Edge {
	return append(make([]entities.Edge, 0, len(p.edges)), p.edges...)
}

// Opportunity returns the creation-time tag, if any
func (p *Project) Opportunity() *valueobjects.Opportunity {
	if p.opportunity == nil {
		return nil
	}
	return copyOpportunity(p.opportunity)
}

// Rating returns the last stored rating, if any
func (p *Project) Rating() *valueobjects.Rating {
	if p.rating == nil {
		return nil
	}
	r := *p.rating
	return &r
}

// FindNode looks up a node by id
func (p *Project) FindNode(id string) (entities.Node, bool) {
	if i := p.nodeIndex(id); i >= 0 {
		return p.nodes[i], true
	}
	return entities.Node{}, false
}

// FindEdge returns the first edge matching the predicate
func (p *Project) FindEdge(match func(entities.Edge) bool) (entities.Edge, bool) {
	for _, e := range p.edges {
		if match(e) {
			return e, true
		}
	}
	return entities.Edge{}, false
}

// IncomingEdge returns the edge that makes nodeID a child, first match wins
func (p *Project) IncomingEdge(nodeID string) (entities.Edge, bool) {
	return p.FindEdge(func(e entities.Edge) bool { return e.Target == nodeID })
}

// ParentOf returns the parent node of nodeID. A dangling source counts as no parent.
func (p *Project) ParentOf(nodeID string) (entities.Node, bool) {
	edge, ok := p.IncomingEdge(nodeID)
	if !ok {
		return entities.Node{}, false
	}
	return p.FindNode(edge.Source)
}

// ChildrenOf returns the children of nodeID in edge order, skipping dangling targets
func (p *Project) ChildrenOf(nodeID string) []entities.Node {
	var children []entities.Node
	for _, e := range p.edges {
		if e.Source != nodeID {
			continue
		}
		if child, ok := p.FindNode(e.Target); ok {
			children = append(children, child)
		}
	}
	return children
}

// AddChild appends child under parentID together with the connecting edge
func (p *Project) AddChild(parentID string, child entities.Node) (entities.Edge, error) {
	if _, ok := p.FindNode(parentID); !ok {
		return entities.Edge{}, pkgerrors.NewNotFoundError("parent node")
	}
	if err := child.Validate(); err != nil {
		return entities.Edge{}, err
	}
	if _, exists := p.FindNode(child.ID); exists {
		return entities.Edge{}, pkgerrors.NewConflictError(fmt.Sprintf("node %s already exists", child.ID))
	}
	if _, hasParent := p.IncomingEdge(child.ID); hasParent {
		return entities.Edge{}, pkgerrors.NewConflictError(fmt.Sprintf("node %s already has a parent", child.ID))
	}

	edge, err := entities.NewEdge(parentID, child.ID)
	if err != nil {
		return entities.Edge{}, err
	}

	p.nodes = append(p.nodes, child)
	p.edges = append(p.edges, *edge)
	p.touch()
	p.addEvent(events.NewNodeAdded(p.id, p.owner, child.ID, parentID, edge.ID, p.version+1, p.updatedAt))
	return *edge, nil
}

// DeleteNode removes the node and every edge touching it.
// Returns the number of edges removed; NotFound when no node was removed.
func (p *Project) DeleteNode(nodeID string) (int, error) {
	before := len(p.nodes)
	kept := p.nodes[:0:0]
	for _, n := range p.nodes {
		if n.ID != nodeID {
			kept = append(kept, n)
		}
	}
	if len(kept) == before {
		return 0, pkgerrors.NewNotFoundError("node")
	}

	keptEdges := p.edges[:0:0]
	for _, e := range p.edges {
		if !e.Touches(nodeID) {
			keptEdges = append(keptEdges, e)
		}
	}
	removed := len(p.edges) - len(keptEdges)

	p.nodes = kept
	p.edges = keptEdges
	p.touch()
	p.addEvent(events.NewNodeDeleted(p.id, p.owner, nodeID, removed, p.version+1, p.updatedAt))
	return removed, nil
}

// UpdateHierarchy applies a batch of position updates keyed by node id.
// Unknown ids are ignored. A non-finite position for a known node rejects the whole batch.
func (p *Project) UpdateHierarchy(updates []PositionUpdate) (int, error) {
	for _, u := range updates {
		if p.nodeIndex(u.ID) < 0 {
			continue
		}
		if err := u.Position.Validate(); err != nil {
			return 0, err
		}
	}

	applied := 0
	for _, u := range updates {
		i := p.nodeIndex(u.ID)
		if i < 0 {
			continue
		}
		if err := p.nodes[i].MoveTo(u.Position); err != nil {
			return applied, err
		}
		applied++
	}
	if applied > 0 {
		p.touch()
		p.addEvent(events.NewNodesRepositioned(p.id, p.owner, applied, p.version+1, p.updatedAt))
	}
	return applied, nil
}

// RegenerateNode overwrites the answer of a non-root node
func (p *Project) RegenerateNode(nodeID, label, prompt string) (entities.Node, error) {
	i := p.nodeIndex(nodeID)
	if i < 0 {
		return entities.Node{}, pkgerrors.NewNotFoundError("node")
	}
	if _, ok := p.IncomingEdge(nodeID); !ok {
		return entities.Node{}, pkgerrors.NewValidationError("cannot regenerate a root")
	}
	if err := p.nodes[i].Regenerate(label, prompt); err != nil {
		return entities.Node{}, err
	}
	p.touch()
	p.addEvent(events.NewNodeRegenerated(p.id, p.owner, nodeID, p.version+1, p.updatedAt))
	return p.nodes[i], nil
}

// SetRating replaces the stored rating
func (p *Project) SetRating(r valueobjects.Rating) {
	p.rating = &r
	p.touch()
	p.addEvent(events.NewProjectRated(p.id, p.owner, p.version+1, p.updatedAt))
}

// SetOpportunity stores the creation-time classification
func (p *Project) SetOpportunity(o valueobjects.Opportunity) {
	p.opportunity = copyOpportunity(&o)
	p.touch()
	p.addEvent(events.NewOpportunityTagged(p.id, p.owner, o.Market, p.version+1, p.updatedAt))
}

// PathContext renders the ancestor outline ending at nodeID
func (p *Project) PathContext(nodeID string) string {
	return hierarchy.BuildPath(p.nodes, p.edges, nodeID)
}

// SelectionContext renders the whole forest, or the joined paths of ids when any are given
func (p *Project) SelectionContext(ids []string) string {
	if len(ids) == 0 {
		return hierarchy.BuildForest(p.nodes, p.edges)
	}
	return hierarchy.BuildPaths(p.nodes, p.edges, ids)
}

// GetUncommittedEvents returns events raised since the last commit
func (p *Project) GetUncommittedEvents() []events.DomainEvent {
	return p.events
}

// MarkEventsAsCommitted clears pending events
func (p *Project) MarkEventsAsCommitted() {
	p.events = nil
}

func (p *Project) addEvent(e events.DomainEvent) {
	p.events = append(p.events, e)
}

func (p *Project) touch() {
	p.updatedAt = time.Now().UTC()
}

func (p *Project) nodeIndex(id string) int {
	for i := range p.nodes {
		if p.nodes[i].ID == id {
			return i
		}
	}
	return -1
}

func copyOpportunity(o *valueobjects.Opportunity) *valueobjects.Opportunity {
	c := *o
	c.Competitors = append([]string(nil), o.Competitors...)
	return &c
}

func validateForest(nodes []entities.Node, edges []entities.Edge) error {
	ids := make(map[string]bool, len(nodes))
	for i := range nodes {
		if err := nodes[i].Validate(); err != nil {
			return err
		}
		if ids[nodes[i].ID] {
			return pkgerrors.NewValidationError(fmt.Sprintf("duplicate node id %s", nodes[i].ID))
		}
		ids[nodes[i].ID] = true
	}

	edgeIDs := make(map[string]bool, len(edges))
	parents := make(map[string]string, len(edges))
	for i := range edges {
		e := edges[i]
		if err := e.Validate(); err != nil {
			return err
		}
		if edgeIDs[e.ID] {
			return pkgerrors.NewValidationError(fmt.Sprintf("duplicate edge id %s", e.ID))
		}
		edgeIDs[e.ID] = true
		if !ids[e.Source] || !ids[e.Target] {
			return pkgerrors.NewValidationError(fmt.Sprintf("edge %s references an unknown node", e.ID))
		}
		if _, taken := parents[e.Target]; taken {
			return pkgerrors.NewValidationError(fmt.Sprintf("node %s has more than one parent", e.Target))
		}
		parents[e.Target] = e.Source
	}

	for start := range parents {
		seen := map[string]bool{start: true}
		for cur, ok := parents[start]; ok; cur, ok = parents[cur] {
			if seen[cur] {
				return pkgerrors.NewValidationError("edges must not form a cycle")
			}
			seen[cur] = true
		}
	}
	return nil
}
