package entities

import (
	"ideagraph/domain/core/valueobjects"
	pkgerrors "ideagraph/pkg/errors"
)

// Edge links a parent (Source) to a child (Target)
type Edge struct {
	ID     string `json:"id" dynamodbav:"id"`
	Source string `json:"source" dynamodbav:"source"`
	Target string `json:"target" dynamodbav:"target"`
}

// NewEdge creates the parent/child edge with its derived id
func NewEdge(source, target string) (*Edge, error) {
	edge := &Edge{
		ID:     valueobjects.EdgeIDFor(source, target),
		Source: source,
		Target: target,
	}
	if err := edge.Validate(); err != nil {
		return nil, err
	}
	return edge, nil
}

// Validate enforces the required fields of an edge record
func (e *Edge) Validate() error {
	if e.ID == "" {
		return pkgerrors.NewValidationError("edge id is required")
	}
	if e.Source == "" || e.Target == "" {
		return pkgerrors.NewValidationError("edge source and target are required")
	}
	if e.Source == e.Target {
		return pkgerrors.NewValidationError("edge cannot connect a node to itself")
	}
	return nil
}

// Touches reports whether the edge has nodeID at either end
func (e *Edge) Touches(nodeID string) bool {
	return e.Source == nodeID || e.Target == nodeID
}
