package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dealflow-hq/dealflow-api/internal/errors"
	"github.com/dealflow-hq/dealflow-api/internal/models"
	"github.com/dealflow-hq/dealflow-api/internal/observability"
	"github.com/dealflow-hq/dealflow-api/internal/pipeline"
	"github.com/dealflow-hq/dealflow-api/internal/repository"
)

// dealService implements DealService
type dealService struct {
	repos   *repository.Repositories
	metrics *observability.Metrics
}

func newDealService(repos *repository.Repositories, metrics *observability.Metrics) DealService {
	return &dealService{repos: repos, metrics: metrics}
}

// Get returns a deal with its rendered pipeline state, visible only to its
// parties
func (s *dealService) Get(userID, dealID uuid.UUID) (*DealView, error) {
	deal, err := s.authorizedDeal(userID, dealID)
	if err != nil {
		return nil, err
	}

	insights, err := s.repos.Deal.GetInsights(dealID)
	if err != nil {
		return nil, err
	}

	return &DealView{
		Deal:     deal,
		Steps:    pipeline.StepsFor(deal.Stage),
		Progress: pipeline.Progress(deal.Stage),
		Insights: insights,
	}, nil
}

// ListFor returns every deal the caller's profile is a party to
func (s *dealService) ListFor(userID uuid.UUID) ([]DealSummary, error) {
	profile, err := s.repos.Profile.GetByUserID(userID)
	if err != nil {
		return nil, err
	}

	deals, err := s.repos.Deal.ListByProfile(profile.ID)
	if err != nil {
		return nil, err
	}

	summaries := make([]DealSummary, 0, len(deals))
	for _, d := range deals {
		summaries = append(summaries, DealSummary{
			Deal:     d,
			Progress: pipeline.Progress(d.Stage),
		})
	}
	return summaries, nil
}

// Advance moves the deal one stage forward. The caller may state the stage
// it believes the deal is at; a mismatch or a lost compare-and-set surfaces
// as StaleState so the caller re-reads before retrying. An empty stage
// advances from wherever the deal currently is, still protected by the
// conditional update.
func (s *dealService) Advance(userID, dealID uuid.UUID, from pipeline.Stage) (*models.Deal, error) {
	deal, err := s.authorizedDeal(userID, dealID)
	if err != nil {
		return nil, err
	}

	if from == "" {
		from = deal.Stage
	}
	if !from.Valid() {
		return nil, errors.InvalidInput(fmt.Sprintf("unknown stage %q", from), nil)
	}
	if deal.Stage != from {
		return nil, errors.StaleState(fmt.Sprintf("deal is at %q, not %q", deal.Stage, from))
	}
	if err := pipeline.CanAdvance(deal.Stage, deal.Status); err != nil {
		return nil, err
	}

	next, ok := from.Next()
	if !ok {
		return nil, errors.TerminalStage("closing is the final stage")
	}

	advanced, err := s.repos.Deal.AdvanceStage(dealID, from, next, time.Now())
	if err != nil {
		return nil, err
	}
	if !advanced {
		return nil, s.explainLostUpdate(dealID, from)
	}

	s.metrics.IncrStageAdvance(string(next))
	return s.repos.Deal.GetByID(dealID)
}

// Withdraw terminates the deal. Withdrawn is terminal; no transition leaves
// it.
func (s *dealService) Withdraw(userID, dealID uuid.UUID, reason string) (*models.Deal, error) {
	deal, err := s.authorizedDeal(userID, dealID)
	if err != nil {
		return nil, err
	}
	if err := pipeline.CanWithdraw(deal.Status); err != nil {
		return nil, err
	}

	return s.setStatus(dealID, deal.Status, pipeline.StatusWithdrawn, strings.TrimSpace(reason))
}

// MarkPending pauses an active deal
func (s *dealService) MarkPending(userID, dealID uuid.UUID) (*models.Deal, error) {
	deal, err := s.authorizedDeal(userID, dealID)
	if err != nil {
		return nil, err
	}
	if err := pipeline.CanMarkPending(deal.Status); err != nil {
		return nil, err
	}

	return s.setStatus(dealID, deal.Status, pipeline.StatusPending, "")
}

// Reactivate resumes a pending deal
func (s *dealService) Reactivate(userID, dealID uuid.UUID) (*models.Deal, error) {
	deal, err := s.authorizedDeal(userID, dealID)
	if err != nil {
		return nil, err
	}
	if err := pipeline.CanReactivate(deal.Status); err != nil {
		return nil, err
	}

	return s.setStatus(dealID, deal.Status, pipeline.StatusActive, "")
}

// AttachInsight stores an analysis report reference against the deal.
// Insight order is append-only and survives every stage transition.
func (s *dealService) AttachInsight(dealID uuid.UUID, req *AttachInsightRequest) (*models.InsightReport, error) {
	if !req.Kind.Valid() {
		return nil, errors.InvalidInput(fmt.Sprintf("unknown insight kind %q", req.Kind), nil)
	}
	if strings.TrimSpace(req.Title) == "" {
		return nil, errors.InvalidInput("insight title is required", nil)
	}
	if strings.TrimSpace(req.ReportRef) == "" {
		return nil, errors.InvalidInput("report reference is required", nil)
	}
	if req.Confidence < 0 || req.Confidence > 100 {
		return nil, errors.InvalidInput("confidence must be between 0 and 100", nil)
	}

	if _, err := s.repos.Deal.GetByID(dealID); err != nil {
		return nil, err
	}

	insight := &models.InsightReport{
		DealID:     dealID,
		Kind:       req.Kind,
		Title:      strings.TrimSpace(req.Title),
		Summary:    strings.TrimSpace(req.Summary),
		Confidence: req.Confidence,
		Details:    req.Details,
		ReportRef:  strings.TrimSpace(req.ReportRef),
	}
	if err := s.repos.Deal.AttachInsight(insight); err != nil {
		return nil, err
	}
	return insight, nil
}

func (s *dealService) setStatus(dealID uuid.UUID, from, to pipeline.Status, reason string) (*models.Deal, error) {
	changed, err := s.repos.Deal.SetStatus(dealID, from, to, reason)
	if err != nil {
		return nil, err
	}
	if !changed {
		fresh, err := s.repos.Deal.GetByID(dealID)
		if err != nil {
			return nil, err
		}
		return nil, errors.StaleState(fmt.Sprintf("deal status is now %q", fresh.Status))
	}
	return s.repos.Deal.GetByID(dealID)
}

// explainLostUpdate re-reads after a failed compare-and-set and names the
// reason the transition lost
func (s *dealService) explainLostUpdate(dealID uuid.UUID, expected pipeline.Stage) error {
	fresh, err := s.repos.Deal.GetByID(dealID)
	if err != nil {
		return err
	}
	if fresh.Status != pipeline.StatusActive {
		return errors.DealNotActive(fmt.Sprintf("deal is %q", fresh.Status))
	}
	if fresh.Stage != expected {
		return errors.StaleState(fmt.Sprintf("deal moved to %q", fresh.Stage))
	}
	return errors.InternalError("stage transition did not apply", nil)
}

func (s *dealService) authorizedDeal(userID, dealID uuid.UUID) (*models.Deal, error) {
	deal, err := s.repos.Deal.GetByID(dealID)
	if err != nil {
		return nil, err
	}

	profile, err := s.repos.Profile.GetByUserID(userID)
	if err != nil {
		return nil, err
	}
	if !deal.Involves(profile.ID) {
		return nil, errors.Forbidden("deal belongs to other parties", nil)
	}
	return deal, nil
}
