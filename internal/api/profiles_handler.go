package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dealflow-hq/dealflow-api/internal/models"
	"github.com/dealflow-hq/dealflow-api/internal/services"
)

// ProfilesHandler handles profile endpoints
type ProfilesHandler struct {
	profileService services.ProfileService
}

// NewProfilesHandler creates a new profiles handler
func NewProfilesHandler(profileService services.ProfileService) *ProfilesHandler {
	return &ProfilesHandler{profileService: profileService}
}

type createProfileRequest struct {
	Role    string                 `json:"role" binding:"required"`
	Answers map[string]interface{} `json:"answers" binding:"required"`
}

// Create builds an incomplete profile from an answer set, bypassing the
// stepwise onboarding flow. The profile goes live via Finalize.
func (h *ProfilesHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req createProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "role and answers are required"})
		return
	}

	profile, err := h.profileService.CreateFromAnswers(userID, req.Role, req.Answers)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"profile": profile})
}

// Finalize activates an incomplete profile
func (h *ProfilesHandler) Finalize(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	profile, err := h.profileService.Finalize(userID, id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"profile": profile})
}

// GetOwn returns the caller's profile
func (h *ProfilesHandler) GetOwn(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	profile, err := h.profileService.GetOwn(userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"profile": profile})
}

// Get returns a profile by ID
func (h *ProfilesHandler) Get(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	profile, err := h.profileService.GetByID(id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"profile": profile})
}

// Update applies an owner's patch to their profile
func (h *ProfilesHandler) Update(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var patch models.ProfilePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid patch: " + err.Error()})
		return
	}

	profile, err := h.profileService.Update(userID, id, &patch)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"profile": profile})
}

// Delete removes the caller's profile and its queue entries and deals
func (h *ProfilesHandler) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	if err := h.profileService.Delete(userID, id); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
