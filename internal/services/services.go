package services

import (
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/dealflow-hq/dealflow-api/internal/logger"
	"github.com/dealflow-hq/dealflow-api/internal/models"
	"github.com/dealflow-hq/dealflow-api/internal/observability"
	"github.com/dealflow-hq/dealflow-api/internal/onboarding"
	"github.com/dealflow-hq/dealflow-api/internal/pipeline"
	"github.com/dealflow-hq/dealflow-api/internal/repository"
	"github.com/dealflow-hq/dealflow-api/internal/scoring"
	"github.com/dealflow-hq/dealflow-api/pkg/config"
)

// Services contains all application services
type Services struct {
	Auth       AuthService
	Onboarding OnboardingService
	Profile    ProfileService
	Match      MatchService
	Deal       DealService
}

// AuthService defines the interface for authentication business logic
type AuthService interface {
	Login(email, password string) (*LoginResponse, error)
	Register(req *RegisterRequest) (*models.User, error)
	ValidateToken(token string) (*models.User, error)
	RefreshToken(token string) (*LoginResponse, error)
}

// OnboardingService walks a user through their role's question flow and
// finalizes their profile when the last step lands
type OnboardingService interface {
	Start(userID uuid.UUID) (*onboarding.Session, *onboarding.Step, error)
	Get(sessionID uuid.UUID, userID uuid.UUID) (*onboarding.Session, *onboarding.Step, error)
	Submit(sessionID uuid.UUID, userID uuid.UUID, answers map[string]interface{}) (*SubmitResult, error)
}

// ProfileService defines the interface for profile business logic
type ProfileService interface {
	GetByID(id uuid.UUID) (*models.Profile, error)
	GetOwn(userID uuid.UUID) (*models.Profile, error)
	Update(userID, profileID uuid.UUID, patch *models.ProfilePatch) (*models.Profile, error)
	Delete(userID, profileID uuid.UUID) error
	// CreateFromAnswers validates an answer set against the role's question
	// flow and creates an incomplete profile from it
	CreateFromAnswers(userID uuid.UUID, role string, raw map[string]interface{}) (*models.Profile, error)
	// Finalize activates an incomplete profile once every required-by-role
	// field is populated
	Finalize(userID, profileID uuid.UUID) (*models.Profile, error)
	// CompleteOnboarding builds and finalizes the profile from a full
	// onboarding answer set
	CompleteOnboarding(userID uuid.UUID, email, role string, answers map[string]onboarding.Answer) (*models.Profile, error)
}

// MatchService defines the interface for the discovery queue
type MatchService interface {
	// Current returns the card under the viewer's cursor
	Current(userID uuid.UUID) (*MatchCard, error)
	// Decide records pass or interested on a candidate and opens a deal on
	// mutual interest
	Decide(userID, candidateID uuid.UUID, decision models.Decision) (*DecisionResult, error)
	// Refresh rebuilds one viewer's queue against current profiles
	Refresh(viewerID uuid.UUID) (int, error)
	// RefreshOwn rebuilds the queue of the caller's own profile
	RefreshOwn(userID uuid.UUID) (int, error)
	// RefreshAll rebuilds every materialized queue
	RefreshAll() (*RefreshStats, error)
}

// DealService defines the interface for the acquisition pipeline
type DealService interface {
	Get(userID, dealID uuid.UUID) (*DealView, error)
	ListFor(userID uuid.UUID) ([]DealSummary, error)
	Advance(userID, dealID uuid.UUID, from pipeline.Stage) (*models.Deal, error)
	Withdraw(userID, dealID uuid.UUID, reason string) (*models.Deal, error)
	MarkPending(userID, dealID uuid.UUID) (*models.Deal, error)
	Reactivate(userID, dealID uuid.UUID) (*models.Deal, error)
	AttachInsight(dealID uuid.UUID, req *AttachInsightRequest) (*models.InsightReport, error)
}

// LoginResponse carries the issued tokens and the authenticated user
type LoginResponse struct {
	Token        string      `json:"token"`
	RefreshToken string      `json:"refresh_token"`
	User         models.User `json:"user"`
	ExpiresAt    time.Time   `json:"expires_at"`
}

// RegisterRequest carries a signup submission
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Role     string `json:"role" binding:"required"`
}

// SubmitResult reports an onboarding step submission, including the profile
// once the flow completes
type SubmitResult struct {
	StepIndex  int              `json:"step_index"`
	TotalSteps int              `json:"total_steps"`
	Completed  bool             `json:"completed"`
	NextStep   *onboarding.Step `json:"next_step,omitempty"`
	Profile    *models.Profile  `json:"profile,omitempty"`
}

// MatchCard is the candidate currently under the viewer's cursor
type MatchCard struct {
	Candidate *models.Profile           `json:"candidate"`
	Score     int                       `json:"score"`
	Decision  models.Decision           `json:"decision,omitempty"`
	Breakdown map[string]scoring.Detail `json:"breakdown,omitempty"`
	Position  int                       `json:"position"`
	Remaining int                       `json:"remaining"`
	Exhausted bool                      `json:"exhausted"`
}

// DecisionResult reports a recorded decision and any deal it opened
type DecisionResult struct {
	Decision models.Decision `json:"decision"`
	// Recorded is false when a standing decision already existed
	Recorded bool         `json:"recorded"`
	Deal     *models.Deal `json:"deal,omitempty"`
}

// RefreshStats summarizes one full queue refresh cycle
type RefreshStats struct {
	StartTime time.Time     `json:"start_time"`
	Duration  time.Duration `json:"duration"`
	Viewers   int           `json:"viewers"`
	Entries   int           `json:"entries"`
	Failed    int           `json:"failed"`
}

// DealView is a deal with its rendered pipeline state
type DealView struct {
	Deal     *models.Deal           `json:"deal"`
	Steps    []pipeline.Step        `json:"steps"`
	Progress int                    `json:"progress"`
	Insights []models.InsightReport `json:"insights"`
}

// DealSummary is the list-view projection of a deal
type DealSummary struct {
	Deal     models.Deal `json:"deal"`
	Progress int         `json:"progress"`
}

// AttachInsightRequest carries an insight report reference from the upstream
// analysis service
type AttachInsightRequest struct {
	Kind       models.InsightKind `json:"kind" binding:"required"`
	Title      string             `json:"title" binding:"required"`
	Summary    string             `json:"summary"`
	Confidence int                `json:"confidence"`
	Details    []string           `json:"details"`
	ReportRef  string             `json:"report_ref" binding:"required"`
}

// NewServices creates a new Services instance with all dependencies
func NewServices(db *sql.DB, cfg *config.Config, log logger.Logger, metrics *observability.Metrics) *Services {
	repos := repository.NewRepositories(db)
	engine := scoring.NewEngine()
	sessions := onboarding.NewSessionStore(cfg.OnboardingSessionTTL)

	profileSvc := newProfileService(repos)
	matchSvc := newMatchService(repos, engine, log, metrics)

	return &Services{
		Auth:       newAuthService(repos, cfg),
		Onboarding: newOnboardingService(onboarding.NewCollector(sessions), repos, profileSvc),
		Profile:    profileSvc,
		Match:      matchSvc,
		Deal:       newDealService(repos, metrics),
	}
}
