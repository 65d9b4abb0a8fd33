package repository

import (
	"time"

	"github.com/google/uuid"

	"github.com/dealflow-hq/dealflow-api/internal/models"
	"github.com/dealflow-hq/dealflow-api/internal/pipeline"
)

// ProfileRepository defines the interface for profile data access
type ProfileRepository interface {
	GetByID(id uuid.UUID) (*models.Profile, error)
	GetByUserID(userID uuid.UUID) (*models.Profile, error)
	// GetActiveByRole returns finalized profiles for a role, ordered by id
	// for determinism
	GetActiveByRole(role string) ([]models.Profile, error)
	Create(profile *models.Profile) error
	Update(profile *models.Profile) error
	Delete(id uuid.UUID) error
}

// QueueRepository defines the interface for discovery queue data access
type QueueRepository interface {
	// GetEntries returns a viewer's queue ordered by score descending,
	// candidate id ascending
	GetEntries(viewerID uuid.UUID) ([]models.QueueEntry, error)
	GetEntry(viewerID, candidateID uuid.UUID) (*models.QueueEntry, error)
	// UpsertScore inserts a new undecided entry or refreshes the score of an
	// existing one, preserving its decision and decision timestamp
	UpsertScore(viewerID, candidateID uuid.UUID, score int) error
	// RecordDecision sets the decision only if the entry is still undecided.
	// Returns false when a prior decision already stands (the timestamp is
	// never overwritten).
	RecordDecision(viewerID, candidateID uuid.UUID, decision models.Decision, decidedAt time.Time) (bool, error)
	GetCursor(viewerID uuid.UUID) (int, time.Time, error)
	SetCursor(viewerID uuid.UUID, position int) error
	TouchRefreshed(viewerID uuid.UUID) error
	// ActiveViewerIDs lists viewers with a materialized queue, for the
	// background refresh pipeline
	ActiveViewerIDs() ([]uuid.UUID, error)
}

// DealRepository defines the interface for deal data access
type DealRepository interface {
	GetByID(id uuid.UUID) (*models.Deal, error)
	GetByPair(businessProfileID, buyerProfileID uuid.UUID) (*models.Deal, error)
	ListByProfile(profileID uuid.UUID) ([]models.Deal, error)
	// Create inserts the deal; returns false without error when a deal for
	// the (business, buyer) pair already exists
	Create(deal *models.Deal) (bool, error)
	// AdvanceStage moves stage from -> to only if the deal is still active
	// at the expected stage. Returns false when the conditional update
	// matched no row (concurrent writer won or state changed).
	AdvanceStage(id uuid.UUID, from, to pipeline.Stage, enteredAt time.Time) (bool, error)
	// SetStatus transitions status only from the expected current status.
	// Returns false when the conditional update matched no row.
	SetStatus(id uuid.UUID, from, to pipeline.Status, withdrawReason string) (bool, error)
	AttachInsight(insight *models.InsightReport) error
	GetInsights(dealID uuid.UUID) ([]models.InsightReport, error)
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	GetByID(id uuid.UUID) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	Create(user *models.User) error
	Delete(id uuid.UUID) error
}

// TransactionManager defines the interface for database transaction management
type TransactionManager interface {
	WithTransaction(fn func(repos *Repositories) error) error
}

// Repositories groups all repository interfaces
type Repositories struct {
	Profile ProfileRepository
	Queue   QueueRepository
	Deal    DealRepository
	User    UserRepository
	Tx      TransactionManager
}
