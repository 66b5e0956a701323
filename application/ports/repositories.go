package ports

import (
	"context"
	"errors"
	"time"

	"ideagraph/domain/core/aggregates"
	"ideagraph/domain/events"
)

// ErrVersionConflict is returned by Save when the stored version moved on
var ErrVersionConflict = errors.New("project version conflict")

// ProjectRepository defines the interface for project persistence.
// Every read is scoped by id and owner; a project of another owner is reported as not found.
type ProjectRepository interface {
	// Create stores a new project at version 1
	Create(ctx context.Context, project *aggregates.Project) error

	// Get loads a project owned by owner
	Get(ctx context.Context, id, owner string) (*aggregates.Project, error)

	// List returns the owner's projects, newest first
	List(ctx context.Context, owner string) ([]*aggregates.Project, error)

	// Save writes the project if the stored version still equals project.Version(),
	// then advances the version. Returns ErrVersionConflict otherwise.
	Save(ctx context.Context, project *aggregates.Project) error
}

// EventPublisher defines the interface for publishing domain events
type EventPublisher interface {
	// Publish sends a single event
	Publish(ctx context.Context, event events.DomainEvent) error

	// PublishBatch sends multiple events
	PublishBatch(ctx context.Context, events []events.DomainEvent) error
}

// Document is one retrievable text chunk belonging to a user
type Document struct {
	ID        string    `json:"id"`
	Owner     string    `json:"owner"`
	Content   string    `json:"content"`
	Source    string    `json:"source,omitempty"`
	Embedding []float32 `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
}

// Retriever returns documents relevant to a query, restricted to one owner
type Retriever interface {
	Retrieve(ctx context.Context, owner, query string) ([]Document, error)
}

// DocumentIndexer adds documents to the retrieval corpus
type DocumentIndexer interface {
	Index(ctx context.Context, owner, content, source string) (*Document, error)
}
