package events

import (
	"time"
)

// DomainEvent is the base interface for all domain events.
// Events are published only after the project that raised them was persisted.
type DomainEvent interface {
	GetAggregateID() string
	GetEventType() string
	GetUserID() string
	GetTimestamp() time.Time
	GetVersion() int
}

// BaseEvent provides common event fields
type BaseEvent struct {
	AggregateID string    `json:"aggregate_id"`
	EventType   string    `json:"event_type"`
	UserID      string    `json:"user_id"`
	Timestamp   time.Time `json:"timestamp"`
	Version     int       `json:"version"`
}

func (e BaseEvent) GetAggregateID() string  { return e.AggregateID }
func (e BaseEvent) GetEventType() string    { return e.EventType }
func (e BaseEvent) GetUserID() string       { return e.UserID }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }
func (e BaseEvent) GetVersion() int         { return e.Version }

func newBase(projectID, userID, eventType string, version int, at time.Time) BaseEvent {
	return BaseEvent{
		AggregateID: projectID,
		EventType:   eventType,
		UserID:      userID,
		Timestamp:   at,
		Version:     version,
	}
}

// ProjectCreated is raised when a project is first persisted
type ProjectCreated struct {
	BaseEvent
	Name      string `json:"name"`
	NodeCount int    `json:"node_count"`
}

// NewProjectCreated creates a ProjectCreated event
func NewProjectCreated(projectID, userID, name string, nodeCount, version int, at time.Time) ProjectCreated {
	return ProjectCreated{
		BaseEvent: newBase(projectID, userID, "project.created", version, at),
		Name:      name,
		NodeCount: nodeCount,
	}
}

// NodeAdded is raised when converse grows the forest
type NodeAdded struct {
	BaseEvent
	NodeID   string `json:"node_id"`
	ParentID string `json:"parent_id"`
	EdgeID   string `json:"edge_id"`
}

// NewNodeAdded creates a NodeAdded event
func NewNodeAdded(projectID, userID, nodeID, parentID, edgeID string, version int, at time.Time) NodeAdded {
	return NodeAdded{
		BaseEvent: newBase(projectID, userID, "node.added", version, at),
		NodeID:    nodeID,
		ParentID:  parentID,
		EdgeID:    edgeID,
	}
}

// NodeRegenerated is raised when a node's answer is replaced
type NodeRegenerated struct {
	BaseEvent
	NodeID string `json:"node_id"`
}

// NewNodeRegenerated creates a NodeRegenerated event
func NewNodeRegenerated(projectID, userID, nodeID string, version int, at time.Time) NodeRegenerated {
	return NodeRegenerated{
		BaseEvent: newBase(projectID, userID, "node.regenerated", version, at),
		NodeID:    nodeID,
	}
}

// NodeDeleted is raised when a node and its incident edges are removed
type NodeDeleted struct {
	BaseEvent
	NodeID       string `json:"node_id"`
	EdgesRemoved int    `json:"edges_removed"`
}

// NewNodeDeleted creates a NodeDeleted event
func NewNodeDeleted(projectID, userID, nodeID string, edgesRemoved, version int, at time.Time) NodeDeleted {
	return NodeDeleted{
		BaseEvent:    newBase(projectID, userID, "node.deleted", version, at),
		NodeID:       nodeID,
		EdgesRemoved: edgesRemoved,
	}
}

// NodesRepositioned is raised after a position batch
type NodesRepositioned struct {
	BaseEvent
	Applied int `json:"applied"`
}

// NewNodesRepositioned creates a NodesRepositioned event
func NewNodesRepositioned(projectID, userID string, applied, version int, at time.Time) NodesRepositioned {
	return NodesRepositioned{
		BaseEvent: newBase(projectID, userID, "nodes.repositioned", version, at),
		Applied:   applied,
	}
}

// ProjectRated is raised when a new rating is stored
type ProjectRated struct {
	BaseEvent
}

// NewProjectRated creates a ProjectRated event
func NewProjectRated(projectID, userID string, version int, at time.Time) ProjectRated {
	return ProjectRated{BaseEvent: newBase(projectID, userID, "project.rated", version, at)}
}

// OpportunityTagged is raised when the creation-time classification is stored
type OpportunityTagged struct {
	BaseEvent
	Market string `json:"market"`
}

// NewOpportunityTagged creates an OpportunityTagged event
func NewOpportunityTagged(projectID, userID, market string, version int, at time.Time) OpportunityTagged {
	return OpportunityTagged{
		BaseEvent: newBase(projectID, userID, "project.opportunity_tagged", version, at),
		Market:    market,
	}
}
