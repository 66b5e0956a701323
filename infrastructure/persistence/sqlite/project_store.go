package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"ideagraph/application/ports"
	"ideagraph/domain/core/aggregates"
	pkgerrors "ideagraph/pkg/errors"

	"go.uber.org/zap"
)

// fixed width so text ordering matches time ordering
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// ProjectStore keeps each project as a JSON document row with a version column
type ProjectStore struct {
	db     *sql.DB
	logger *zap.Logger
}

var _ ports.ProjectRepository = (*ProjectStore)(nil)

// NewProjectStore creates a store over an opened database
func NewProjectStore(db *sql.DB, logger *zap.Logger) *ProjectStore {
	return &ProjectStore{db: db, logger: logger.Named("sqlite_project_store")}
}

// Create inserts a new project at version 1
func (s *ProjectStore) Create(ctx context.Context, project *aggregates.Project) error {
	snap := project.Snapshot()
	snap.Version = 1
	body, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal project: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO projects (id, owner, name, body, created_at, updated_at, version) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		snap.ID, snap.Owner, snap.Name, string(body),
		snap.CreatedAt.Format(timeLayout), snap.UpdatedAt.Format(timeLayout), snap.Version,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return pkgerrors.NewConflictError(fmt.Sprintf("project %s already exists", snap.ID))
		}
		return fmt.Errorf("failed to insert project: %w", err)
	}

	project.MarkPersisted(1)
	return nil
}

// Get loads a project owned by owner
func (s *ProjectStore) Get(ctx context.Context, id, owner string) (*aggregates.Project, error) {
	var body string
	var version int
	err := s.db.QueryRowContext(ctx,
		`SELECT body, version FROM projects WHERE id = ? AND owner = ?`, id, owner,
	).Scan(&body, &version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkgerrors.NewNotFoundError("project")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query project: %w", err)
	}
	return decode(body, version)
}

// List returns the owner's projects, newest first
func (s *ProjectStore) List(ctx context.Context, owner string) ([]*aggregates.Project, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT body, version FROM projects WHERE owner = ? ORDER BY created_at DESC, id DESC`, owner,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	projects := make([]*aggregates.Project, 0)
	for rows.Next() {
		var body string
		var version int
		if err := rows.Scan(&body, &version); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		p, err := decode(body, version)
		if err != nil {
			s.logger.Warn("Skipping unreadable project row", zap.Error(err))
			continue
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// Save rewrites the row only if its version is unchanged since load
func (s *ProjectStore) Save(ctx context.Context, project *aggregates.Project) error {
	expected := project.Version()
	snap := project.Snapshot()
	snap.Version = expected + 1
	body, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal project: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE projects SET name = ?, body = ?, updated_at = ?, version = ? WHERE id = ? AND owner = ? AND version = ?`,
		snap.Name, string(body), snap.UpdatedAt.Format(timeLayout), snap.Version,
		snap.ID, snap.Owner, expected,
	)
	if err != nil {
		return fmt.Errorf("failed to update project: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if n == 0 {
		var exists int
		err := s.db.QueryRowContext(ctx,
			`SELECT 1 FROM projects WHERE id = ? AND owner = ?`, snap.ID, snap.Owner,
		).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return pkgerrors.NewNotFoundError("project")
		}
		return ports.ErrVersionConflict
	}

	project.MarkPersisted(snap.Version)
	return nil
}

func decode(body string, version int) (*aggregates.Project, error) {
	var snap aggregates.ProjectSnapshot
	if err := json.Unmarshal([]byte(body), &snap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal project: %w", err)
	}
	snap.Version = version
	return aggregates.ReconstructProject(snap)
}
