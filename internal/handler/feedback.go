package handler

import (
	"net/http"

	"tripplanner/internal/model"
	"tripplanner/internal/repository"

	"github.com/gin-gonic/gin"
)

// FeedbackHandler handles feedback-related HTTP requests
type FeedbackHandler struct {
	repo *repository.PostgresRepository
}

// NewFeedbackHandler creates a new feedback handler
func NewFeedbackHandler(repo *repository.PostgresRepository) *FeedbackHandler {
	return &FeedbackHandler{repo: repo}
}

// Submit handles POST /api/v1/feedback
func (h *FeedbackHandler) Submit(c *gin.Context) {
	var req model.FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	// Validate action
	validActions := map[string]bool{
		"click": true,
		"save":  true,
		"book":  true,
	}
	if !validActions[req.Action] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid action. Must be one of: click, save, book"})
		return
	}

	if h.repo == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Feedback storage is not configured"})
		return
	}

	if err := h.repo.LogFeedback(c.Request.Context(), req.SearchID, req.Entity, req.Action); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to log feedback: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, model.FeedbackResponse{
		Success: true,
		Message: "Feedback logged successfully",
	})
}
