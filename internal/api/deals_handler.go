package api

import (
	stderrors "errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dealflow-hq/dealflow-api/internal/pipeline"
	"github.com/dealflow-hq/dealflow-api/internal/services"
)

// DealsHandler handles acquisition pipeline endpoints
type DealsHandler struct {
	dealService services.DealService
}

// NewDealsHandler creates a new deals handler
func NewDealsHandler(dealService services.DealService) *DealsHandler {
	return &DealsHandler{dealService: dealService}
}

// List returns every deal the caller is a party to
func (h *DealsHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	deals, err := h.dealService.ListFor(userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"deals": deals})
}

// Get returns a deal with its pipeline steps and attached insights
func (h *DealsHandler) Get(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	dealID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	view, err := h.dealService.Get(userID, dealID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

type advanceRequest struct {
	// FromStage optionally pins the stage the client believes the deal is
	// at; a mismatch is rejected as stale rather than silently applied.
	// Omitted, the deal advances from its current stage.
	FromStage string `json:"from_stage"`
}

// Advance moves the deal one stage forward
func (h *DealsHandler) Advance(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	dealID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req advanceRequest
	if err := c.ShouldBindJSON(&req); err != nil && !stderrors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payload"})
		return
	}

	deal, err := h.dealService.Advance(userID, dealID, pipeline.Stage(req.FromStage))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"deal": deal})
}

type withdrawRequest struct {
	Reason string `json:"reason"`
}

// Withdraw terminates the deal
func (h *DealsHandler) Withdraw(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	dealID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	// The reason is optional; an absent body is fine
	var req withdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil && !stderrors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payload"})
		return
	}

	deal, err := h.dealService.Withdraw(userID, dealID, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"deal": deal})
}

// MarkPending pauses an active deal
func (h *DealsHandler) MarkPending(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	dealID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	deal, err := h.dealService.MarkPending(userID, dealID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"deal": deal})
}

// Reactivate resumes a pending deal
func (h *DealsHandler) Reactivate(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	dealID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	deal, err := h.dealService.Reactivate(userID, dealID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"deal": deal})
}

// AttachInsight stores an analysis report reference against the deal.
// Reserved for the ingestion service account.
func (h *DealsHandler) AttachInsight(c *gin.Context) {
	dealID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req services.AttachInsightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid insight: " + err.Error()})
		return
	}

	insight, err := h.dealService.AttachInsight(dealID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"insight": insight})
}
