package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dealflow-hq/dealflow-api/internal/errors"
	"github.com/dealflow-hq/dealflow-api/internal/models"
)

// queueRepository implements QueueRepository
type queueRepository struct {
	db dbExecutor
}

// NewQueueRepository creates a new queue repository
func NewQueueRepository(db dbExecutor) QueueRepository {
	return &queueRepository{db: db}
}

// GetEntries returns a viewer's queue in presentation order
func (r *queueRepository) GetEntries(viewerID uuid.UUID) ([]models.QueueEntry, error) {
	query := `
		SELECT viewer_id, candidate_id, score, decision, decided_at,
		       created_at, updated_at
		FROM queue_entries
		WHERE viewer_id = $1
		ORDER BY score DESC, candidate_id ASC
	`

	rows, err := r.db.Query(query, viewerID)
	if err != nil {
		return nil, errors.DatabaseError("failed to query queue entries", err)
	}
	defer rows.Close()

	var entries []models.QueueEntry
	for rows.Next() {
		var e models.QueueEntry
		err := rows.Scan(&e.ViewerID, &e.CandidateID, &e.Score, &e.Decision,
			&e.DecidedAt, &e.CreatedAt, &e.UpdatedAt)
		if err != nil {
			return nil, errors.DatabaseError("failed to scan queue entry", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// GetEntry returns a single queue entry
func (r *queueRepository) GetEntry(viewerID, candidateID uuid.UUID) (*models.QueueEntry, error) {
	query := `
		SELECT viewer_id, candidate_id, score, decision, decided_at,
		       created_at, updated_at
		FROM queue_entries
		WHERE viewer_id = $1 AND candidate_id = $2
	`

	var e models.QueueEntry
	err := r.db.QueryRow(query, viewerID, candidateID).Scan(
		&e.ViewerID, &e.CandidateID, &e.Score, &e.Decision, &e.DecidedAt,
		&e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound(
				fmt.Sprintf("queue entry for candidate %s not found", candidateID), nil)
		}
		return nil, errors.DatabaseError("failed to get queue entry", err)
	}
	return &e, nil
}

// UpsertScore inserts an undecided entry or refreshes the score of an
// existing one. The decision and its timestamp are never touched here.
func (r *queueRepository) UpsertScore(viewerID, candidateID uuid.UUID, score int) error {
	query := `
		INSERT INTO queue_entries (viewer_id, candidate_id, score, decision, created_at, updated_at)
		VALUES ($1, $2, $3, 'undecided', NOW(), NOW())
		ON CONFLICT (viewer_id, candidate_id)
		DO UPDATE SET score = EXCLUDED.score, updated_at = NOW()
	`

	if _, err := r.db.Exec(query, viewerID, candidateID, score); err != nil {
		return errors.DatabaseError("failed to upsert queue score", err)
	}
	return nil
}

// RecordDecision marks an undecided entry. The WHERE clause guarantees a
// standing decision is never overwritten; callers learn via the bool whether
// this call was the deciding one.
func (r *queueRepository) RecordDecision(viewerID, candidateID uuid.UUID, decision models.Decision, decidedAt time.Time) (bool, error) {
	query := `
		UPDATE queue_entries
		SET decision = $3, decided_at = $4, updated_at = NOW()
		WHERE viewer_id = $1 AND candidate_id = $2 AND decision = 'undecided'
	`

	result, err := r.db.Exec(query, viewerID, candidateID, decision, decidedAt)
	if err != nil {
		return false, errors.DatabaseError("failed to record decision", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, errors.DatabaseError("failed to get rows affected", err)
	}
	return affected > 0, nil
}

// GetCursor returns the viewer's queue position and last refresh time. A
// missing row reads as position zero.
func (r *queueRepository) GetCursor(viewerID uuid.UUID) (int, time.Time, error) {
	query := `SELECT position, refreshed_at FROM match_cursors WHERE viewer_id = $1`

	var position int
	var refreshedAt time.Time
	err := r.db.QueryRow(query, viewerID).Scan(&position, &refreshedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, time.Time{}, nil
		}
		return 0, time.Time{}, errors.DatabaseError("failed to get match cursor", err)
	}
	return position, refreshedAt, nil
}

// match_cursors carries no bookkeeping columns beyond refreshed_at, so the
// cursor statements write a narrower column set than the other tables
const (
	setCursorStmt = `
		INSERT INTO match_cursors (viewer_id, position, refreshed_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (viewer_id)
		DO UPDATE SET position = EXCLUDED.position
	`

	touchRefreshedStmt = `
		INSERT INTO match_cursors (viewer_id, position, refreshed_at)
		VALUES ($1, 0, NOW())
		ON CONFLICT (viewer_id)
		DO UPDATE SET refreshed_at = NOW()
	`
)

// SetCursor stores the viewer's queue position
func (r *queueRepository) SetCursor(viewerID uuid.UUID, position int) error {
	if _, err := r.db.Exec(setCursorStmt, viewerID, position); err != nil {
		return errors.DatabaseError("failed to set match cursor", err)
	}
	return nil
}

// TouchRefreshed records that the viewer's queue was just rebuilt
func (r *queueRepository) TouchRefreshed(viewerID uuid.UUID) error {
	if _, err := r.db.Exec(touchRefreshedStmt, viewerID); err != nil {
		return errors.DatabaseError("failed to touch refresh time", err)
	}
	return nil
}

// ActiveViewerIDs lists viewers that hold a materialized queue
func (r *queueRepository) ActiveViewerIDs() ([]uuid.UUID, error) {
	query := `SELECT DISTINCT viewer_id FROM queue_entries ORDER BY viewer_id`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, errors.DatabaseError("failed to query active viewers", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, errors.DatabaseError("failed to scan viewer id", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
