package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ashita-ai/gikai/internal/model"
)

// SaveSession inserts or replaces a session snapshot. The engine writes
// a pending marker when a debate starts and overwrites it with the
// terminal snapshot at completion; the marker is what HasActiveDebate
// sees. Rounds, vote, trade-off, and config structures are stored as
// JSONB documents, and each write is atomic.
func (db *DB) SaveSession(ctx context.Context, s model.DebateSession) error {
	rounds, err := json.Marshal(s.Rounds)
	if err != nil {
		return fmt.Errorf("storage: marshal session rounds: %w", err)
	}
	tradeOffs, err := json.Marshal(s.TradeOffs)
	if err != nil {
		return fmt.Errorf("storage: marshal session trade-offs: %w", err)
	}
	cfg, err := json.Marshal(s.Config)
	if err != nil {
		return fmt.Errorf("storage: marshal session config: %w", err)
	}
	var vote []byte
	if s.Vote != nil {
		if vote, err = json.Marshal(s.Vote); err != nil {
			return fmt.Errorf("storage: marshal session vote: %w", err)
		}
	}

	_, err = db.pool.Exec(ctx,
		`INSERT INTO debate_sessions
		 (id, project_id, idea_id, status, rounds, votes, trade_offs, config,
		  selected_idea_id, consensus_level, tokens_used, started_at, completed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		 ON CONFLICT (id) DO UPDATE SET
		   status = EXCLUDED.status,
		   rounds = EXCLUDED.rounds,
		   votes = EXCLUDED.votes,
		   trade_offs = EXCLUDED.trade_offs,
		   config = EXCLUDED.config,
		   selected_idea_id = EXCLUDED.selected_idea_id,
		   consensus_level = EXCLUDED.consensus_level,
		   tokens_used = EXCLUDED.tokens_used,
		   completed_at = EXCLUDED.completed_at`,
		s.ID, s.ProjectID, s.IdeaID, string(s.Status), rounds, vote, tradeOffs, cfg,
		s.SelectedIdeaID, s.ConsensusLevel, s.TokensUsed, s.StartedAt, s.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("storage: save session: %w", err)
	}
	return nil
}

const sessionColumns = `id, project_id, idea_id, status, rounds, votes, trade_offs, config,
	        selected_idea_id, consensus_level, tokens_used, started_at, completed_at`

// scanSession hydrates one session row, decoding the JSONB documents.
func scanSession(row pgx.Row) (model.DebateSession, error) {
	var (
		s         model.DebateSession
		status    string
		rounds    []byte
		vote      []byte
		tradeOffs []byte
		cfg       []byte
	)
	err := row.Scan(&s.ID, &s.ProjectID, &s.IdeaID, &status, &rounds, &vote, &tradeOffs, &cfg,
		&s.SelectedIdeaID, &s.ConsensusLevel, &s.TokensUsed, &s.StartedAt, &s.CompletedAt)
	if err != nil {
		return model.DebateSession{}, err
	}

	s.Status = model.SessionStatus(status)
	if err := json.Unmarshal(rounds, &s.Rounds); err != nil {
		return model.DebateSession{}, fmt.Errorf("unmarshal session rounds: %w", err)
	}
	if err := json.Unmarshal(tradeOffs, &s.TradeOffs); err != nil {
		return model.DebateSession{}, fmt.Errorf("unmarshal session trade-offs: %w", err)
	}
	if err := json.Unmarshal(cfg, &s.Config); err != nil {
		return model.DebateSession{}, fmt.Errorf("unmarshal session config: %w", err)
	}
	if len(vote) > 0 {
		s.Vote = &model.ParliamentaryVote{}
		if err := json.Unmarshal(vote, s.Vote); err != nil {
			return model.DebateSession{}, fmt.Errorf("unmarshal session vote: %w", err)
		}
	}
	return s, nil
}

// GetSession returns one persisted session snapshot by id.
func (db *DB) GetSession(ctx context.Context, sessionID uuid.UUID) (model.DebateSession, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM debate_sessions WHERE id = $1`, sessionID)
	s, err := scanSession(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.DebateSession{}, ErrNotFound
	}
	if err != nil {
		return model.DebateSession{}, fmt.Errorf("storage: get session: %w", err)
	}
	return s, nil
}

// ListSessions returns a project's persisted sessions, newest first.
func (db *DB) ListSessions(ctx context.Context, projectID uuid.UUID, limit int) ([]model.DebateSession, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.pool.Query(ctx,
		`SELECT `+sessionColumns+` FROM debate_sessions
		 WHERE project_id = $1 ORDER BY started_at DESC LIMIT $2`,
		projectID, limit)
	if err != nil {
		return nil, fmt.Errorf("storage: list sessions: %w", err)
	}
	defer rows.Close()

	sessions := make([]model.DebateSession, 0, limit)
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("storage: list sessions: %w", err)
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: list sessions: %w", err)
	}
	return sessions, nil
}

// DeleteSession removes a persisted session snapshot (explicit cleanup).
func (db *DB) DeleteSession(ctx context.Context, sessionID uuid.UUID) error {
	tag, err := db.pool.Exec(ctx, `DELETE FROM debate_sessions WHERE id = $1`, sessionID)
	if err != nil {
		return fmt.Errorf("storage: delete session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// HasActiveDebate reports whether a non-terminal session snapshot exists
// for an idea. The engine saves a pending marker at debate start and a
// terminal snapshot at completion, so this is the same-idea exclusion
// check for new debates.
func (db *DB) HasActiveDebate(ctx context.Context, projectID, ideaID uuid.UUID) (bool, error) {
	var exists bool
	err := db.pool.QueryRow(ctx,
		`SELECT EXISTS (
		   SELECT 1 FROM debate_sessions
		   WHERE project_id = $1 AND idea_id = $2
		     AND status NOT IN ('consensus', 'deadlock', 'completed')
		 )`, projectID, ideaID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("storage: has active debate: %w", err)
	}
	return exists, nil
}
