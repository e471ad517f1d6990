package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ashita-ai/gikai/internal/model"
)

const ideaColumns = `id, project_id, category, title, description, reasoning,
	 effort, impact, source_agent, status, created_at`

// GetIdea returns one idea by primary key.
func (db *DB) GetIdea(ctx context.Context, ideaID uuid.UUID) (model.Idea, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+ideaColumns+` FROM ideas WHERE id = $1`, ideaID)
	idea, err := scanIdea(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Idea{}, ErrNotFound
	}
	if err != nil {
		return model.Idea{}, fmt.Errorf("storage: get idea: %w", err)
	}
	return idea, nil
}

// ListIdeas returns a project's ideas, optionally filtered by status,
// newest first.
func (db *DB) ListIdeas(ctx context.Context, projectID uuid.UUID, status model.IdeaStatus) ([]model.Idea, error) {
	query := `SELECT ` + ideaColumns + ` FROM ideas WHERE project_id = $1`
	args := []any{projectID}
	if status != "" {
		query += ` AND status = $2`
		args = append(args, string(status))
	}
	query += ` ORDER BY created_at DESC`

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("storage: list ideas: %w", err)
	}
	defer rows.Close()

	var ideas []model.Idea
	for rows.Next() {
		idea, err := scanIdea(rows)
		if err != nil {
			return nil, fmt.Errorf("storage: scan idea: %w", err)
		}
		ideas = append(ideas, idea)
	}
	return ideas, rows.Err()
}

// MarkIdeaSelected flips an idea's status to selected after a passed vote.
func (db *DB) MarkIdeaSelected(ctx context.Context, ideaID uuid.UUID) error {
	tag, err := db.pool.Exec(ctx,
		`UPDATE ideas SET status = $1 WHERE id = $2`,
		string(model.IdeaStatusSelected), ideaID)
	if err != nil {
		return fmt.Errorf("storage: mark idea selected: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListGoals returns a project's goals ordered by priority (highest first).
func (db *DB) ListGoals(ctx context.Context, projectID uuid.UUID) ([]model.Goal, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, project_id, description, priority, created_at
		 FROM goals WHERE project_id = $1 ORDER BY priority DESC, created_at ASC`,
		projectID)
	if err != nil {
		return nil, fmt.Errorf("storage: list goals: %w", err)
	}
	defer rows.Close()

	var goals []model.Goal
	for rows.Next() {
		var g model.Goal
		if err := rows.Scan(&g.ID, &g.ProjectID, &g.Description, &g.Priority, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("storage: scan goal: %w", err)
		}
		goals = append(goals, g)
	}
	return goals, rows.Err()
}

// ListContexts returns a project's context entries, oldest first.
func (db *DB) ListContexts(ctx context.Context, projectID uuid.UUID) ([]model.ContextEntry, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, project_id, kind, content, created_at
		 FROM contexts WHERE project_id = $1 ORDER BY created_at ASC`,
		projectID)
	if err != nil {
		return nil, fmt.Errorf("storage: list contexts: %w", err)
	}
	defer rows.Close()

	var entries []model.ContextEntry
	for rows.Next() {
		var e model.ContextEntry
		if err := rows.Scan(&e.ID, &e.ProjectID, &e.Kind, &e.Content, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("storage: scan context: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func scanIdea(row pgx.Row) (model.Idea, error) {
	var idea model.Idea
	var sourceAgent *string
	err := row.Scan(&idea.ID, &idea.ProjectID, &idea.Category, &idea.Title,
		&idea.Description, &idea.Reasoning, &idea.Effort, &idea.Impact,
		&sourceAgent, &idea.Status, &idea.CreatedAt)
	if err != nil {
		return model.Idea{}, err
	}
	if sourceAgent != nil {
		idea.SourceAgent = model.AgentKind(*sourceAgent)
	}
	return idea, nil
}
