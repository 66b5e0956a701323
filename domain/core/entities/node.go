package entities

import (
	"strings"

	"ideagraph/domain/core/valueobjects"
	pkgerrors "ideagraph/pkg/errors"
)

// Node is one research step: the prompt a user asked and the answer that came back.
type Node struct {
	ID       string                `json:"id" dynamodbav:"id"`
	Label    string                `json:"label" dynamodbav:"label"`
	Prompt   string                `json:"prompt" dynamodbav:"prompt"`
	Title    string                `json:"title,omitempty" dynamodbav:"title,omitempty"`
	Position valueobjects.Position `json:"position" dynamodbav:"position"`
}

// NewNode creates a node with a fresh time-ordered id
func NewNode(label, prompt string, position valueobjects.Position) (*Node, error) {
	node := &Node{
		ID:       valueobjects.NewNodeID(),
		Label:    label,
		Prompt:   prompt,
		Position: position,
	}
	if err := node.Validate(); err != nil {
		return nil, err
	}
	return node, nil
}

// Validate enforces the required fields of a node record
func (n *Node) Validate() error {
	if strings.TrimSpace(n.ID) == "" {
		return pkgerrors.NewValidationError("node id is required")
	}
	if strings.TrimSpace(n.Label) == "" {
		return pkgerrors.NewValidationError("node label is required")
	}
	return n.Position.Validate()
}

// Regenerate replaces the answer and the prompt that produced it
func (n *Node) Regenerate(label, prompt string) error {
	if strings.TrimSpace(label) == "" {
		return pkgerrors.NewValidationError("node label is required")
	}
	n.Label = label
	n.Prompt = prompt
	return nil
}

// MoveTo changes the layout coordinate only
func (n *Node) MoveTo(position valueobjects.Position) error {
	if err := position.Validate(); err != nil {
		return err
	}
	n.Position = position
	return nil
}
