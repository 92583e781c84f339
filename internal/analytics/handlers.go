package analytics

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/decaylab/churnwatch/internal/logging"
)

// Handler provides HTTP endpoints for analytics
type Handler struct {
	service *Service
}

// NewHandler creates a new analytics handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes sets up analytics routes
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/analytics/stats", h.GetStats)
}

// GetStats handles GET /analytics/stats
func (h *Handler) GetStats(c *gin.Context) {
	threshold := 60.0
	if raw := c.Query("threshold"); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			threshold = v
		}
	}

	stats, err := h.service.Stats(c.Request.Context(), threshold)
	if err != nil {
		logging.L(c.Request.Context()).Error("failed to compute stats", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "stats_failed",
			"message": "Failed to compute analytics",
		})
		return
	}

	c.JSON(http.StatusOK, stats)
}
