package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dealflow-hq/dealflow-api/internal/services"
)

// PipelineHandler exposes admin control over the background queue refresh
// pipeline
type PipelineHandler struct {
	pipeline *services.RefreshPipeline
}

// NewPipelineHandler creates a new pipeline handler
func NewPipelineHandler(pipeline *services.RefreshPipeline) *PipelineHandler {
	return &PipelineHandler{pipeline: pipeline}
}

// Status reports whether the refresh loop is running
func (h *PipelineHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"is_running": h.pipeline.IsRunning(),
		"timestamp":  time.Now(),
	})
}

// Start begins the background refresh loop
func (h *PipelineHandler) Start(c *gin.Context) {
	if err := h.pipeline.Start(); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "refresh pipeline started"})
}

// Stop halts the background refresh loop
func (h *PipelineHandler) Stop(c *gin.Context) {
	if err := h.pipeline.Stop(); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "refresh pipeline stopped"})
}

// RunOnce executes a single refresh cycle synchronously
func (h *PipelineHandler) RunOnce(c *gin.Context) {
	stats, err := h.pipeline.RunOnce()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": stats})
}
