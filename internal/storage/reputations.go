package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ashita-ai/gikai/internal/model"
)

const reputationColumns = `agent_kind, project_id, total_critiques,
	 validated_critiques, rejected_critiques, accuracy, score, updated_at`

// GetReputation returns the reputation record for one (agent kind,
// project) pair, or ErrNotFound if no validation has ever been recorded.
func (db *DB) GetReputation(ctx context.Context, kind model.AgentKind, projectID uuid.UUID) (model.AgentReputation, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+reputationColumns+`
		 FROM agent_reputations WHERE agent_kind = $1 AND project_id = $2`,
		string(kind), projectID)
	rep, err := scanReputation(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.AgentReputation{}, ErrNotFound
	}
	if err != nil {
		return model.AgentReputation{}, fmt.Errorf("storage: get reputation: %w", err)
	}
	return rep, nil
}

// ListReputations returns all reputation records for a project, keyed by
// agent kind. Agents with no record are absent (the voting engine treats
// them as full-weight).
func (db *DB) ListReputations(ctx context.Context, projectID uuid.UUID) (map[model.AgentKind]model.AgentReputation, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+reputationColumns+`
		 FROM agent_reputations WHERE project_id = $1`,
		projectID)
	if err != nil {
		return nil, fmt.Errorf("storage: list reputations: %w", err)
	}
	defer rows.Close()

	reps := make(map[model.AgentKind]model.AgentReputation)
	for rows.Next() {
		rep, err := scanReputation(rows)
		if err != nil {
			return nil, fmt.Errorf("storage: scan reputation: %w", err)
		}
		reps[rep.AgentKind] = rep
	}
	return reps, rows.Err()
}

// RecordValidation applies one validation event as a read-modify-write
// transaction on the (agent kind, project) row. The row is locked for the
// duration so concurrent validations on the same key serialize instead of
// losing updates; the score is recomputed from the full counters inside
// model.AgentReputation.Apply.
func (db *DB) RecordValidation(ctx context.Context, kind model.AgentKind, projectID uuid.UUID, validated bool) (model.AgentReputation, error) {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return model.AgentReputation{}, fmt.Errorf("storage: begin validation tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx,
		`SELECT `+reputationColumns+`
		 FROM agent_reputations
		 WHERE agent_kind = $1 AND project_id = $2
		 FOR UPDATE`,
		string(kind), projectID)

	rep, err := scanReputation(row)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		rep = model.NewAgentReputation(kind, projectID)
	case err != nil:
		return model.AgentReputation{}, fmt.Errorf("storage: lock reputation: %w", err)
	}

	rep.Apply(validated)
	rep.UpdatedAt = time.Now().UTC()

	if _, err := tx.Exec(ctx,
		`INSERT INTO agent_reputations
		 (agent_kind, project_id, total_critiques, validated_critiques,
		  rejected_critiques, accuracy, score, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (agent_kind, project_id) DO UPDATE SET
		   total_critiques = EXCLUDED.total_critiques,
		   validated_critiques = EXCLUDED.validated_critiques,
		   rejected_critiques = EXCLUDED.rejected_critiques,
		   accuracy = EXCLUDED.accuracy,
		   score = EXCLUDED.score,
		   updated_at = EXCLUDED.updated_at`,
		string(rep.AgentKind), rep.ProjectID, rep.TotalCritiques, rep.ValidatedCritiques,
		rep.RejectedCritiques, rep.Accuracy, rep.Score, rep.UpdatedAt,
	); err != nil {
		return model.AgentReputation{}, fmt.Errorf("storage: upsert reputation: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return model.AgentReputation{}, fmt.Errorf("storage: commit validation tx: %w", err)
	}
	return rep, nil
}

// DeleteReputations removes all reputation records for a project
// (explicit cleanup only).
func (db *DB) DeleteReputations(ctx context.Context, projectID uuid.UUID) error {
	if _, err := db.pool.Exec(ctx,
		`DELETE FROM agent_reputations WHERE project_id = $1`, projectID); err != nil {
		return fmt.Errorf("storage: delete reputations: %w", err)
	}
	return nil
}

func scanReputation(row pgx.Row) (model.AgentReputation, error) {
	var rep model.AgentReputation
	var kind string
	err := row.Scan(&kind, &rep.ProjectID, &rep.TotalCritiques, &rep.ValidatedCritiques,
		&rep.RejectedCritiques, &rep.Accuracy, &rep.Score, &rep.UpdatedAt)
	if err != nil {
		return model.AgentReputation{}, err
	}
	rep.AgentKind = model.AgentKind(kind)
	return rep, nil
}
