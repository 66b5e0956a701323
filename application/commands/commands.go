// Package commands holds the input of each project operation.
// UserID is always set from the authenticated caller, never from the body.
package commands

import (
	"ideagraph/domain/core/aggregates"
	"ideagraph/domain/core/entities"
	"ideagraph/domain/core/valueobjects"
	pkgerrors "ideagraph/pkg/errors"
	"ideagraph/pkg/utils"
)

// CreateProjectCommand creates a project from an initial forest
type CreateProjectCommand struct {
	UserID string          `json:"-" validate:"required"`
	Name   string          `json:"name" validate:"required,max=200"`
	Nodes  []entities.Node `json:"nodes" validate:"required"`
	Edges  []entities.Edge `json:"edges" validate:"required"`
}

// ConverseCommand asks a follow-up question under an existing node
type ConverseCommand struct {
	UserID       string         `json:"-" validate:"required"`
	ProjectID    string         `json:"-" validate:"required"`
	ParentNodeID string         `json:"parentNodeId" validate:"required"`
	Prompt       string         `json:"prompt" validate:"required,max=20000"`
	Title        string         `json:"title" validate:"max=200"`
	Position     *PositionInput `json:"position" validate:"required"`
	UseRAG       bool           `json:"useRAG"`
}

// PositionInput is a position as sent by a client. Both coordinates must be present.
type PositionInput struct {
	X *float64 `json:"x" validate:"required"`
	Y *float64 `json:"y" validate:"required"`
}

// NewPositionInput builds an input from known coordinates
func NewPositionInput(x, y float64) *PositionInput {
	return &PositionInput{X: &x, Y: &y}
}

// Position converts the input, rejecting non-finite coordinates
func (p PositionInput) Position() (valueobjects.Position, error) {
	if p.X == nil || p.Y == nil {
		return valueobjects.Position{}, pkgerrors.NewValidationError("position must be a finite {x, y} pair")
	}
	return valueobjects.NewPosition(*p.X, *p.Y)
}

// SynthesizeCommand produces a report from the whole forest or selected paths
type SynthesizeCommand struct {
	UserID          string   `json:"-" validate:"required"`
	ProjectID       string   `json:"-" validate:"required"`
	SelectedNodeIDs []string `json:"selectedNodeIds" validate:"omitempty,dive,required"`
}

// RateProjectCommand scores the project
type RateProjectCommand struct {
	UserID    string   `json:"-" validate:"required"`
	ProjectID string   `json:"-" validate:"required"`
	NodeIDs   []string `json:"nodeIds" validate:"omitempty,dive,required"`
}

// GeneratePitchCommand writes a stealth validation post
type GeneratePitchCommand struct {
	UserID           string   `json:"-" validate:"required"`
	ProjectID        string   `json:"-" validate:"required"`
	NodeIDs          []string `json:"nodeIds" validate:"required,min=1,dive,required"`
	ValidationMetric string   `json:"validationMetric" validate:"required,max=500"`
}

// RegenerateNodeCommand replaces a node's answer using a new prompt
type RegenerateNodeCommand struct {
	UserID    string `json:"-" validate:"required"`
	ProjectID string `json:"-" validate:"required"`
	NodeID    string `json:"-" validate:"required"`
	NewPrompt string `json:"newPrompt" validate:"required,max=20000"`
}

// DeleteNodeCommand removes a node and its edges
type DeleteNodeCommand struct {
	UserID    string `json:"-" validate:"required"`
	ProjectID string `json:"-" validate:"required"`
	NodeID    string `json:"-" validate:"required"`
}

// UpdateNodePositionsCommand moves nodes in bulk
type UpdateNodePositionsCommand struct {
	UserID    string                      `json:"-" validate:"required"`
	ProjectID string                      `json:"-" validate:"required"`
	Updates   []aggregates.PositionUpdate `json:"updates" validate:"required,dive"`
}

// AnalyzeIdeaCommand critiques a raw idea before a project exists
type AnalyzeIdeaCommand struct {
	UserID string `json:"-" validate:"required"`
	Idea   string `json:"idea" validate:"required,max=5000"`
}

// AddDocumentCommand adds text to the caller's retrieval corpus
type AddDocumentCommand struct {
	UserID  string `json:"-" validate:"required"`
	Content string `json:"content" validate:"required,max=100000"`
	Source  string `json:"source" validate:"max=500"`
}

// Validate checks the struct tags of any command
func Validate(cmd interface{}) error {
	return utils.ValidateStruct(cmd)
}
