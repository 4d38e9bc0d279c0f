package store

import (
	"context"
	"fmt"
	"time"
)

// Project is a catalog entry the extraction prompt offers to the vision
// model when resolving projectRef.
type Project struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// UpsertProject creates or replaces a project catalog entry.
func (s *Store) UpsertProject(ctx context.Context, p Project) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	return s.execWithRetry(ctx,
		`INSERT INTO projects (name, description, updated_at) VALUES (?, ?, ?)
         ON CONFLICT(name) DO UPDATE SET description = excluded.description, updated_at = excluded.updated_at`,
		p.Name, p.Description, now,
	)
}

// Projects lists the catalog alphabetically.
func (s *Store) Projects(ctx context.Context) ([]Project, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, description FROM projects ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []Project
	for rows.Next() {
		var p Project
		if err := rows.Scan(&p.Name, &p.Description); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate projects: %w", err)
	}
	return projects, nil
}
