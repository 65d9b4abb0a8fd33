package models

import (
	"time"

	"github.com/google/uuid"
)

// Decision is a viewer's recorded choice on a candidate. Transitions only
// undecided -> passed|interested, never reversed.
type Decision string

const (
	DecisionUndecided  Decision = "undecided"
	DecisionPassed     Decision = "passed"
	DecisionInterested Decision = "interested"
)

// Valid reports whether d is a known decision value
func (d Decision) Valid() bool {
	switch d {
	case DecisionUndecided, DecisionPassed, DecisionInterested:
		return true
	}
	return false
}

// QueueEntry is one row per (viewer, candidate) pair ever shown. Entries
// survive decisions so candidates can resurface on queue wrap-around while
// history stays intact.
type QueueEntry struct {
	ViewerID    uuid.UUID  `json:"viewer_id" db:"viewer_id"`
	CandidateID uuid.UUID  `json:"candidate_id" db:"candidate_id"`
	Score       int        `json:"score" db:"score"`
	Decision    Decision   `json:"decision" db:"decision"`
	DecidedAt   *time.Time `json:"decided_at,omitempty" db:"decided_at"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// Decided reports whether the viewer already acted on this candidate
func (e *QueueEntry) Decided() bool {
	return e.Decision != DecisionUndecided
}
