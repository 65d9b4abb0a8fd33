package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealflow-hq/dealflow-api/internal/auth"
	apperrors "github.com/dealflow-hq/dealflow-api/internal/errors"
	"github.com/dealflow-hq/dealflow-api/internal/models"
	"github.com/dealflow-hq/dealflow-api/internal/pipeline"
	"github.com/dealflow-hq/dealflow-api/internal/services"
)

const testSecret = "test-secret"

type mockMatchService struct {
	currentFn    func(userID uuid.UUID) (*services.MatchCard, error)
	decideFn     func(userID, candidateID uuid.UUID, decision models.Decision) (*services.DecisionResult, error)
	refreshOwnFn func(userID uuid.UUID) (int, error)
}

func (m *mockMatchService) Current(userID uuid.UUID) (*services.MatchCard, error) {
	return m.currentFn(userID)
}

func (m *mockMatchService) Decide(userID, candidateID uuid.UUID, decision models.Decision) (*services.DecisionResult, error) {
	return m.decideFn(userID, candidateID, decision)
}

func (m *mockMatchService) Refresh(viewerID uuid.UUID) (int, error) {
	return 0, nil
}

func (m *mockMatchService) RefreshOwn(userID uuid.UUID) (int, error) {
	return m.refreshOwnFn(userID)
}

func (m *mockMatchService) RefreshAll() (*services.RefreshStats, error) {
	return &services.RefreshStats{}, nil
}

type mockDealService struct {
	getFn     func(userID, dealID uuid.UUID) (*services.DealView, error)
	advanceFn func(userID, dealID uuid.UUID, from pipeline.Stage) (*models.Deal, error)
	attachFn  func(dealID uuid.UUID, req *services.AttachInsightRequest) (*models.InsightReport, error)
}

func (m *mockDealService) Get(userID, dealID uuid.UUID) (*services.DealView, error) {
	return m.getFn(userID, dealID)
}

func (m *mockDealService) ListFor(userID uuid.UUID) ([]services.DealSummary, error) {
	return nil, nil
}

func (m *mockDealService) Advance(userID, dealID uuid.UUID, from pipeline.Stage) (*models.Deal, error) {
	return m.advanceFn(userID, dealID, from)
}

func (m *mockDealService) Withdraw(userID, dealID uuid.UUID, reason string) (*models.Deal, error) {
	return nil, nil
}

func (m *mockDealService) MarkPending(userID, dealID uuid.UUID) (*models.Deal, error) {
	return nil, nil
}

func (m *mockDealService) Reactivate(userID, dealID uuid.UUID) (*models.Deal, error) {
	return nil, nil
}

func (m *mockDealService) AttachInsight(dealID uuid.UUID, req *services.AttachInsightRequest) (*models.InsightReport, error) {
	return m.attachFn(dealID, req)
}

func testToken(t *testing.T, userID uuid.UUID, role string) string {
	t.Helper()
	token, _, err := auth.NewJWTService(testSecret).GenerateToken(auth.Claims{
		UserID: userID,
		Email:  "test@example.com",
		Role:   role,
	})
	require.NoError(t, err)
	return token
}

func newTestRouter(match services.MatchService, deal services.DealService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	matchHandler := NewMatchHandler(match)
	dealsHandler := NewDealsHandler(deal)

	protected := r.Group("/api/v1")
	protected.Use(auth.JWTMiddleware(testSecret))
	{
		protected.GET("/match/current", matchHandler.Current)
		protected.POST("/match/pass", matchHandler.Pass)
		protected.POST("/match/interested", matchHandler.Interested)
		protected.POST("/match/refresh", matchHandler.Refresh)
		protected.GET("/deals/:id", dealsHandler.Get)
		protected.POST("/deals/:id/advance", dealsHandler.Advance)
	}

	admin := r.Group("/api/v1")
	admin.Use(auth.JWTMiddleware(testSecret), auth.RequireRole("admin"))
	{
		admin.POST("/deals/:id/insights", dealsHandler.AttachInsight)
	}

	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestMatchCurrentReturnsCard(t *testing.T) {
	userID := uuid.New()
	candidateID := uuid.New()
	match := &mockMatchService{
		currentFn: func(id uuid.UUID) (*services.MatchCard, error) {
			assert.Equal(t, userID, id)
			return &services.MatchCard{
				Candidate: &models.Profile{ID: candidateID, DisplayName: "CloudSync Solutions"},
				Score:     83,
				Remaining: 4,
			}, nil
		},
	}
	r := newTestRouter(match, &mockDealService{})

	w := doJSON(t, r, http.MethodGet, "/api/v1/match/current", testToken(t, userID, "buyer"), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var card services.MatchCard
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &card))
	assert.Equal(t, 83, card.Score)
	assert.Equal(t, candidateID, card.Candidate.ID)
}

func TestMatchCurrentIncompleteProfile(t *testing.T) {
	match := &mockMatchService{
		currentFn: func(uuid.UUID) (*services.MatchCard, error) {
			return nil, apperrors.IncompleteProfile("complete onboarding before matching")
		},
	}
	r := newTestRouter(match, &mockDealService{})

	w := doJSON(t, r, http.MethodGet, "/api/v1/match/current", testToken(t, uuid.New(), "seller"), nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), apperrors.ErrCodeIncompleteProfile)
}

func TestInterestedOpeningDealReturns201(t *testing.T) {
	dealID := uuid.New()
	match := &mockMatchService{
		decideFn: func(_, _ uuid.UUID, decision models.Decision) (*services.DecisionResult, error) {
			assert.Equal(t, models.DecisionInterested, decision)
			return &services.DecisionResult{
				Decision: decision,
				Recorded: true,
				Deal:     &models.Deal{ID: dealID},
			}, nil
		},
	}
	r := newTestRouter(match, &mockDealService{})

	w := doJSON(t, r, http.MethodPost, "/api/v1/match/interested",
		testToken(t, uuid.New(), "buyer"),
		gin.H{"candidate_id": uuid.New().String()})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), dealID.String())
}

func TestPassRejectsMalformedCandidate(t *testing.T) {
	r := newTestRouter(&mockMatchService{}, &mockDealService{})

	w := doJSON(t, r, http.MethodPost, "/api/v1/match/pass",
		testToken(t, uuid.New(), "buyer"),
		gin.H{"candidate_id": "not-a-uuid"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdvanceStaleStateMaps409(t *testing.T) {
	deal := &mockDealService{
		advanceFn: func(_, _ uuid.UUID, from pipeline.Stage) (*models.Deal, error) {
			return nil, apperrors.StaleState("deal moved to \"valuation\"")
		},
	}
	r := newTestRouter(&mockMatchService{}, deal)

	w := doJSON(t, r, http.MethodPost, "/api/v1/deals/"+uuid.New().String()+"/advance",
		testToken(t, uuid.New(), "seller"),
		gin.H{"from_stage": "due_diligence"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), apperrors.ErrCodeStaleState)
}

func TestAdvanceWithoutBodyUsesCurrentStage(t *testing.T) {
	deal := &mockDealService{
		advanceFn: func(_, _ uuid.UUID, from pipeline.Stage) (*models.Deal, error) {
			assert.Empty(t, from)
			return &models.Deal{Stage: pipeline.StageNdaAndBasicInfo}, nil
		},
	}
	r := newTestRouter(&mockMatchService{}, deal)

	w := doJSON(t, r, http.MethodPost, "/api/v1/deals/"+uuid.New().String()+"/advance",
		testToken(t, uuid.New(), "buyer"), nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestDealGetForbiddenMaps403(t *testing.T) {
	deal := &mockDealService{
		getFn: func(_, _ uuid.UUID) (*services.DealView, error) {
			return nil, apperrors.Forbidden("deal belongs to other parties", nil)
		},
	}
	r := newTestRouter(&mockMatchService{}, deal)

	w := doJSON(t, r, http.MethodGet, "/api/v1/deals/"+uuid.New().String(),
		testToken(t, uuid.New(), "buyer"), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequestsWithoutTokenRejected(t *testing.T) {
	r := newTestRouter(&mockMatchService{}, &mockDealService{})

	w := doJSON(t, r, http.MethodGet, "/api/v1/match/current", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAttachInsightRequiresAdmin(t *testing.T) {
	attached := false
	deal := &mockDealService{
		attachFn: func(_ uuid.UUID, req *services.AttachInsightRequest) (*models.InsightReport, error) {
			attached = true
			return &models.InsightReport{Title: req.Title}, nil
		},
	}
	r := newTestRouter(&mockMatchService{}, deal)

	body := gin.H{"kind": "financial", "title": "Revenue Growth", "report_ref": "reports/fin-001"}
	path := "/api/v1/deals/" + uuid.New().String() + "/insights"

	w := doJSON(t, r, http.MethodPost, path, testToken(t, uuid.New(), "buyer"), body)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.False(t, attached)

	w = doJSON(t, r, http.MethodPost, path, testToken(t, uuid.New(), "admin"), body)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, attached)
}
