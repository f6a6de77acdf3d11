package handler

import (
	"context"
	"log"
	"net/http"
	"time"

	"tripplanner/internal/model"
	"tripplanner/internal/repository"
	"tripplanner/internal/service"

	"github.com/gin-gonic/gin"
)

// ItineraryHandler handles itinerary planning HTTP requests
type ItineraryHandler struct {
	planner *service.Planner
	repo    *repository.PostgresRepository
}

// NewItineraryHandler creates a new itinerary handler. repo may be nil
// when persistence is not configured; plans are then generate-only.
func NewItineraryHandler(planner *service.Planner, repo *repository.PostgresRepository) *ItineraryHandler {
	return &ItineraryHandler{planner: planner, repo: repo}
}

// Plan handles POST /api/v1/itineraries
func (h *ItineraryHandler) Plan(c *gin.Context) {
	var req model.PlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	result := h.planner.Plan(req)
	if !result.Success {
		// Planning failure is data for the caller, not a server error
		c.JSON(http.StatusOK, result)
		return
	}

	if h.repo != nil {
		itinerary := result.Itinerary
		// Detached from the request context so an early client
		// disconnect cannot drop the write.
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := h.repo.SaveItinerary(ctx, itinerary); err != nil {
				log.Printf("Warning: failed to save itinerary %s: %v", itinerary.ID, err)
			}
		}()
	}

	c.JSON(http.StatusOK, result)
}

// Get handles GET /api/v1/itineraries/:id
func (h *ItineraryHandler) Get(c *gin.Context) {
	if h.repo == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Itinerary storage is not configured"})
		return
	}

	id := c.Param("id")
	itinerary, err := h.repo.GetItinerary(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load itinerary: " + err.Error()})
		return
	}
	if itinerary == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Itinerary not found"})
		return
	}

	c.JSON(http.StatusOK, itinerary)
}
