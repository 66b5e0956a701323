package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"ideagraph/application/ports"
	"ideagraph/domain/core/aggregates"
	pkgerrors "ideagraph/pkg/errors"
)

// InMemoryProjectStore provides an in-memory implementation of ProjectRepository.
// The version check and the write happen under one lock.
type InMemoryProjectStore struct {
	mu       sync.RWMutex
	projects map[string]aggregates.ProjectSnapshot
}

var _ ports.ProjectRepository = (*InMemoryProjectStore)(nil)

// NewInMemoryProjectStore creates a new in-memory project store
func NewInMemoryProjectStore() *InMemoryProjectStore {
	return &InMemoryProjectStore{
		projects: make(map[string]aggregates.ProjectSnapshot),
	}
}

// Create stores a new project at version 1
func (s *InMemoryProjectStore) Create(ctx context.Context, project *aggregates.Project) error {
	if project == nil || project.ID() == "" {
		return fmt.Errorf("invalid project")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.projects[project.ID()]; exists {
		return pkgerrors.NewConflictError(fmt.Sprintf("project %s already exists", project.ID()))
	}
	snap := project.Snapshot()
	snap.Version = 1
	s.projects[snap.ID] = snap
	project.MarkPersisted(1)
	return nil
}

// Get retrieves a project owned by owner
func (s *InMemoryProjectStore) Get(ctx context.Context, id, owner string) (*aggregates.Project, error) {
	s.mu.RLock()
	snap, exists := s.projects[id]
	s.mu.RUnlock()

	if !exists || snap.Owner != owner {
		return nil, pkgerrors.NewNotFoundError("project")
	}
	return aggregates.ReconstructProject(snap)
}

// List returns the owner's projects, newest first
func (s *InMemoryProjectStore) List(ctx context.Context, owner string) ([]*aggregates.Project, error) {
	s.mu.RLock()
	snaps := make([]aggregates.ProjectSnapshot, 0)
	for _, snap := range s.projects {
		if snap.Owner == owner {
			snaps = append(snaps, snap)
		}
	}
	s.mu.RUnlock()

	sort.Slice(snaps, func(i, j int) bool {
		if snaps[i].CreatedAt.Equal(snaps[j].CreatedAt) {
			return snaps[i].ID > snaps[j].ID
		}
		return snaps[i].CreatedAt.After(snaps[j].CreatedAt)
	})

	projects := make([]*aggregates.Project, 0, len(snaps))
	for _, snap := range snaps {
		p, err := aggregates.ReconstructProject(snap)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, nil
}

// Save writes the project if the stored version matches and advances it
func (s *InMemoryProjectStore) Save(ctx context.Context, project *aggregates.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, exists := s.projects[project.ID()]
	if !exists || stored.Owner != project.Owner() {
		return pkgerrors.NewNotFoundError("project")
	}
	if stored.Version != project.Version() {
		return ports.ErrVersionConflict
	}

	snap := project.Snapshot()
	snap.Version = stored.Version + 1
	s.projects[snap.ID] = snap
	project.MarkPersisted(snap.Version)
	return nil
}
