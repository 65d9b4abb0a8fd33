package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dealflow-hq/dealflow-api/internal/services"
)

// OnboardingHandler handles the step-by-step onboarding flow
type OnboardingHandler struct {
	onboardingService services.OnboardingService
}

// NewOnboardingHandler creates a new onboarding handler
func NewOnboardingHandler(onboardingService services.OnboardingService) *OnboardingHandler {
	return &OnboardingHandler{onboardingService: onboardingService}
}

// Start opens an onboarding session for the caller's role
func (h *OnboardingHandler) Start(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	sess, step, err := h.onboardingService.Start(userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"session_id": sess.ID,
		"step":       step,
	})
}

// Get returns the caller's live session and its current step
func (h *OnboardingHandler) Get(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	sessionID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	sess, step, err := h.onboardingService.Get(sessionID, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"session": sess,
		"step":    step,
	})
}

// Submit validates a step's answers and advances the flow
func (h *OnboardingHandler) Submit(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	sessionID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var answers map[string]interface{}
	if err := c.ShouldBindJSON(&answers); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid answer payload: " + err.Error()})
		return
	}

	result, err := h.onboardingService.Submit(sessionID, userID, answers)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
