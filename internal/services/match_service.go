package services

import (
	"time"

	"github.com/google/uuid"

	"github.com/dealflow-hq/dealflow-api/internal/errors"
	"github.com/dealflow-hq/dealflow-api/internal/logger"
	"github.com/dealflow-hq/dealflow-api/internal/models"
	"github.com/dealflow-hq/dealflow-api/internal/observability"
	"github.com/dealflow-hq/dealflow-api/internal/pipeline"
	"github.com/dealflow-hq/dealflow-api/internal/repository"
	"github.com/dealflow-hq/dealflow-api/internal/scoring"
)

// matchService implements MatchService
type matchService struct {
	repos   *repository.Repositories
	engine  *scoring.Engine
	log     logger.Logger
	metrics *observability.Metrics
}

func newMatchService(repos *repository.Repositories, engine *scoring.Engine, log logger.Logger, metrics *observability.Metrics) MatchService {
	return &matchService{
		repos:   repos,
		engine:  engine,
		log:     log,
		metrics: metrics,
	}
}

// Current returns the card under the viewer's cursor. Decided candidates
// resurface as the cursor wraps; the decision history stays intact.
func (s *matchService) Current(userID uuid.UUID) (*MatchCard, error) {
	viewer, err := s.activeProfile(userID)
	if err != nil {
		return nil, err
	}

	entries, err := s.repos.Queue.GetEntries(viewer.ID)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		// First visit, build the queue lazily
		if _, err := s.Refresh(viewer.ID); err != nil {
			return nil, err
		}
		entries, err = s.repos.Queue.GetEntries(viewer.ID)
		if err != nil {
			return nil, err
		}
	}
	if len(entries) == 0 {
		return &MatchCard{Exhausted: true}, nil
	}

	pos, _, err := s.repos.Queue.GetCursor(viewer.ID)
	if err != nil {
		return nil, err
	}
	idx := pos % len(entries)
	entry := entries[idx]

	candidate, err := s.repos.Profile.GetByID(entry.CandidateID)
	if err != nil {
		return nil, err
	}

	card := &MatchCard{
		Candidate: candidate,
		Score:     entry.Score,
		Decision:  entry.Decision,
		Position:  idx,
		Remaining: countUndecided(entries),
	}

	// Recompute the breakdown on demand; the stored score is authoritative
	// for ordering, the breakdown is display detail.
	seller, buyer := orderPair(viewer, candidate)
	if result, err := s.engine.Score(seller, buyer); err == nil {
		card.Breakdown = result.Breakdown
	}

	return card, nil
}

// Decide records pass or interested on a candidate and advances the cursor.
// Mutual interest opens exactly one deal per pair; the transaction plus the
// pair's unique constraint absorb the concurrent case.
func (s *matchService) Decide(userID, candidateID uuid.UUID, decision models.Decision) (*DecisionResult, error) {
	if !decision.Valid() || decision == models.DecisionUndecided {
		return nil, errors.InvalidInput("decision must be passed or interested", nil)
	}

	viewer, err := s.activeProfile(userID)
	if err != nil {
		return nil, err
	}

	entries, err := s.repos.Queue.GetEntries(viewer.ID)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, errors.NotFound("discovery queue is empty", nil)
	}

	result := &DecisionResult{Decision: decision}

	err = s.repos.Tx.WithTransaction(func(repos *repository.Repositories) error {
		recorded, err := repos.Queue.RecordDecision(viewer.ID, candidateID, decision, time.Now())
		if err != nil {
			return err
		}
		result.Recorded = recorded

		effective := decision
		if !recorded {
			entry, err := repos.Queue.GetEntry(viewer.ID, candidateID)
			if err != nil {
				return err
			}
			effective = entry.Decision
		}

		if effective == models.DecisionInterested {
			deal, err := s.openDealOnMutualInterest(repos, viewer, candidateID)
			if err != nil {
				return err
			}
			result.Deal = deal
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Cursor advance is per-viewer single-writer, outside the decision
	// transaction.
	pos, _, err := s.repos.Queue.GetCursor(viewer.ID)
	if err != nil {
		return nil, err
	}
	if err := s.repos.Queue.SetCursor(viewer.ID, (pos+1)%len(entries)); err != nil {
		return nil, err
	}

	return result, nil
}

// openDealOnMutualInterest creates the deal when the candidate has already
// marked interest back. Returns nil when interest is one-sided so far.
func (s *matchService) openDealOnMutualInterest(repos *repository.Repositories, viewer *models.Profile, candidateID uuid.UUID) (*models.Deal, error) {
	reciprocal, err := repos.Queue.GetEntry(candidateID, viewer.ID)
	if err != nil {
		if errors.Is(err, errors.ErrCodeNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if reciprocal.Decision != models.DecisionInterested {
		return nil, nil
	}

	businessID, buyerID := viewer.ID, candidateID
	if viewer.Role == string(models.RoleBuyer) {
		businessID, buyerID = candidateID, viewer.ID
	}

	now := time.Now()
	deal := &models.Deal{
		BusinessProfileID: businessID,
		BuyerProfileID:    buyerID,
		Stage:             pipeline.StageInitialContact,
		StageEnteredAt:    now,
		Status:            pipeline.StatusActive,
	}

	created, err := repos.Deal.Create(deal)
	if err != nil {
		return nil, err
	}
	if !created {
		// Lost the race or the deal already existed; the standing deal wins
		return repos.Deal.GetByPair(businessID, buyerID)
	}

	s.metrics.IncrDealCreated()
	s.log.Info("deal opened on mutual interest",
		"deal_id", deal.ID, "business_profile_id", businessID, "buyer_profile_id", buyerID)
	return deal, nil
}

// RefreshOwn rebuilds the queue of the caller's own profile
func (s *matchService) RefreshOwn(userID uuid.UUID) (int, error) {
	viewer, err := s.activeProfile(userID)
	if err != nil {
		return 0, err
	}
	return s.Refresh(viewer.ID)
}

// Refresh rebuilds one viewer's queue against the current opposite-role
// profiles. Standing decisions and their timestamps survive the rebuild.
func (s *matchService) Refresh(viewerID uuid.UUID) (int, error) {
	viewer, err := s.repos.Profile.GetByID(viewerID)
	if err != nil {
		return 0, err
	}
	if !viewer.IsActive() {
		return 0, errors.IncompleteProfile("profile has not completed onboarding")
	}

	candidates, err := s.repos.Profile.GetActiveByRole(models.OppositeRole(viewer.Role))
	if err != nil {
		return 0, err
	}

	count := 0
	for i := range candidates {
		candidate := &candidates[i]
		seller, buyer := orderPair(viewer, candidate)
		result, err := s.engine.Score(seller, buyer)
		if err != nil {
			s.log.Warn("skipping unscorable candidate",
				"viewer_id", viewerID, "candidate_id", candidate.ID, "reason", err.Error())
			continue
		}
		if err := s.repos.Queue.UpsertScore(viewerID, candidate.ID, result.Score); err != nil {
			return count, err
		}
		count++
	}

	if err := s.repos.Queue.TouchRefreshed(viewerID); err != nil {
		return count, err
	}
	s.metrics.IncrQueueRefresh()
	return count, nil
}

// RefreshAll rebuilds every materialized queue. Invoked by the background
// refresh pipeline and the admin endpoint.
func (s *matchService) RefreshAll() (*RefreshStats, error) {
	stats := &RefreshStats{StartTime: time.Now()}

	viewerIDs, err := s.repos.Queue.ActiveViewerIDs()
	if err != nil {
		return stats, err
	}

	for _, id := range viewerIDs {
		n, err := s.Refresh(id)
		if err != nil {
			s.log.Error("queue refresh failed", err, "viewer_id", id)
			stats.Failed++
			continue
		}
		stats.Viewers++
		stats.Entries += n
	}

	stats.Duration = time.Since(stats.StartTime)
	return stats, nil
}

func (s *matchService) activeProfile(userID uuid.UUID) (*models.Profile, error) {
	profile, err := s.repos.Profile.GetByUserID(userID)
	if err != nil {
		if errors.Is(err, errors.ErrCodeNotFound) {
			return nil, errors.IncompleteProfile("complete onboarding before matching")
		}
		return nil, err
	}
	if !profile.IsActive() {
		return nil, errors.IncompleteProfile("complete onboarding before matching")
	}
	return profile, nil
}

// orderPair returns the (seller, buyer) ordering the scorer expects
func orderPair(a, b *models.Profile) (seller, buyer *models.Profile) {
	if a.Role == string(models.RoleSeller) {
		return a, b
	}
	return b, a
}

func countUndecided(entries []models.QueueEntry) int {
	n := 0
	for i := range entries {
		if !entries[i].Decided() {
			n++
		}
	}
	return n
}
