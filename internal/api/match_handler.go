package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/dealflow-hq/dealflow-api/internal/models"
	"github.com/dealflow-hq/dealflow-api/internal/services"
)

// MatchHandler handles the discovery queue endpoints
type MatchHandler struct {
	matchService services.MatchService
}

// NewMatchHandler creates a new match handler
func NewMatchHandler(matchService services.MatchService) *MatchHandler {
	return &MatchHandler{matchService: matchService}
}

// Current returns the card under the caller's cursor
func (h *MatchHandler) Current(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	card, err := h.matchService.Current(userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, card)
}

type decideRequest struct {
	CandidateID string `json:"candidate_id" binding:"required"`
}

type decisionRequest struct {
	CandidateID string `json:"candidate_id" binding:"required"`
	Decision    string `json:"decision" binding:"required"`
}

// Decide records an explicit decision on a candidate
func (h *MatchHandler) Decide(c *gin.Context) {
	var req decisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "candidate_id and decision are required"})
		return
	}

	decision := models.Decision(req.Decision)
	if decision != models.DecisionPassed && decision != models.DecisionInterested {
		c.JSON(http.StatusBadRequest, gin.H{"error": "decision must be passed or interested"})
		return
	}

	h.decideParsed(c, req.CandidateID, decision)
}

// Pass records a pass on a candidate and advances the cursor
func (h *MatchHandler) Pass(c *gin.Context) {
	h.decide(c, models.DecisionPassed)
}

// Interested records interest in a candidate; mutual interest opens a deal
func (h *MatchHandler) Interested(c *gin.Context) {
	h.decide(c, models.DecisionInterested)
}

func (h *MatchHandler) decide(c *gin.Context, decision models.Decision) {
	var req decideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "candidate_id is required"})
		return
	}

	h.decideParsed(c, req.CandidateID, decision)
}

func (h *MatchHandler) decideParsed(c *gin.Context, rawCandidateID string, decision models.Decision) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	candidateID, err := uuid.Parse(rawCandidateID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid candidate_id"})
		return
	}

	result, err := h.matchService.Decide(userID, candidateID, decision)
	if err != nil {
		respondError(c, err)
		return
	}

	status := http.StatusOK
	if result.Deal != nil && result.Recorded {
		status = http.StatusCreated
	}
	c.JSON(status, result)
}

// Refresh rebuilds the caller's queue on demand
func (h *MatchHandler) Refresh(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	n, err := h.matchService.RefreshOwn(userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"entries": n})
}
