package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"tripplanner/internal/model"
	"tripplanner/internal/service"

	"github.com/gin-gonic/gin"
)

// SearchHandler handles search-related HTTP requests
type SearchHandler struct {
	searchService *service.TravelSearchService
}

// NewSearchHandler creates a new search handler
func NewSearchHandler(searchService *service.TravelSearchService) *SearchHandler {
	return &SearchHandler{searchService: searchService}
}

// validSortBy rejects unknown sort criteria before they reach the
// combiner (which would silently fall back to value ranking).
func validSortBy(sortBy string) bool {
	switch sortBy {
	case "", model.SortByPrice, model.SortByRating, model.SortByValue:
		return true
	}
	return false
}

// SearchProperties handles POST /api/v1/search/properties
func (h *SearchHandler) SearchProperties(c *gin.Context) {
	var req model.PropertySearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}
	if !validSortBy(req.SortBy) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid sort_by. Must be one of: price, rating, value"})
		return
	}

	result := h.searchService.SearchProperties(c.Request.Context(), req)
	c.JSON(http.StatusOK, result)
}

// CombineProperties handles POST /api/v1/combine/properties
func (h *SearchHandler) CombineProperties(c *gin.Context) {
	var req model.CombineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}
	if !validSortBy(req.SortBy) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid sort_by. Must be one of: price, rating, value"})
		return
	}

	result := h.searchService.CombineProperties(req)
	c.JSON(http.StatusOK, result)
}

// SearchRestaurants handles GET /api/v1/search/restaurants
func (h *SearchHandler) SearchRestaurants(c *gin.Context) {
	location := c.Query("location")
	if location == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required query parameter: location"})
		return
	}
	sortBy := c.DefaultQuery("sort_by", model.SortByValue)
	if !validSortBy(sortBy) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid sort_by. Must be one of: price, rating, value"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

	result := h.searchService.SearchRestaurants(c.Request.Context(), location, sortBy, limit)
	c.JSON(http.StatusOK, result)
}

// SearchAttractions handles GET /api/v1/search/attractions
func (h *SearchHandler) SearchAttractions(c *gin.Context) {
	location := c.Query("location")
	if location == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required query parameter: location"})
		return
	}
	sortBy := c.DefaultQuery("sort_by", model.SortByValue)
	if !validSortBy(sortBy) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid sort_by. Must be one of: price, rating, value"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

	result := h.searchService.SearchAttractions(c.Request.Context(), location, sortBy, limit)
	c.JSON(http.StatusOK, result)
}

// SearchFlights handles GET /api/v1/search/flights
func (h *SearchHandler) SearchFlights(c *gin.Context) {
	origin := c.Query("origin")
	destination := c.Query("destination")
	departDate := c.Query("depart_date")
	if origin == "" || destination == "" || departDate == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required query parameters: origin, destination, depart_date"})
		return
	}
	sortBy := c.DefaultQuery("sort_by", model.SortByPrice)
	if !validSortBy(sortBy) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid sort_by. Must be one of: price, rating, value"})
		return
	}
	adults, _ := strconv.Atoi(c.DefaultQuery("adults", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

	result := h.searchService.SearchFlights(c.Request.Context(), origin, destination, departDate, adults, sortBy, limit)
	c.JSON(http.StatusOK, result)
}

// validExtractKind limits extraction to the entity kinds the
// normalizer understands.
func validExtractKind(kind string) bool {
	switch kind {
	case "property", "flight", "restaurant", "attraction":
		return true
	}
	return false
}

// ExtractStream handles POST /api/v1/extract/stream - SSE streaming
// listing extraction from caller-supplied page text
func (h *SearchHandler) ExtractStream(c *gin.Context) {
	var req model.ExtractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}
	if !validExtractKind(req.Kind) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid kind. Must be one of: property, flight, restaurant, attraction"})
		return
	}

	// Set SSE headers
	c.Header("Content-Type", "text/event-stream; charset=utf-8")
	c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Streaming not supported"})
		return
	}

	sendSSE(c, "start", map[string]any{"kind": req.Kind, "platform": req.Platform})
	flusher.Flush()

	records, err := h.searchService.ExtractStream(c.Request.Context(), req.Kind, req.Platform, req.Text, func(event string, data any) error {
		sendSSE(c, event, data)
		flusher.Flush()
		return nil
	})
	if err != nil {
		sendSSE(c, "error", map[string]any{"error": err.Error()})
		flusher.Flush()
		return
	}

	sendSSE(c, "listings", map[string]any{"listings": records, "count": len(records)})
	flusher.Flush()

	sendSSE(c, "done", nil)
	flusher.Flush()
}

// sendSSE sends a Server-Sent Event
func sendSSE(c *gin.Context, event string, data any) {
	if data != nil {
		jsonData, err := json.Marshal(data)
		if err != nil {
			fmt.Fprintf(c.Writer, "event: error\ndata: {\"error\": \"JSON marshal failed\"}\n\n")
			return
		}
		fmt.Fprintf(c.Writer, "event: %s\ndata: %s\n\n", event, string(jsonData))
	} else {
		fmt.Fprintf(c.Writer, "event: %s\ndata: {}\n\n", event)
	}
}

// SimilarProperties handles GET /api/v1/search/similar
func (h *SearchHandler) SimilarProperties(c *gin.Context) {
	query := c.Query("query")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required query parameter: query"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

	results, err := h.searchService.SimilarProperties(c.Request.Context(), query, limit)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"query": query, "results": results, "count": len(results)})
}
