package customer

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// Handler provides HTTP endpoints for customers
type Handler struct {
	service *Service
}

// NewHandler creates a new customer handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes sets up customer routes
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/customers", h.ListCustomers)
}

// ListCustomers handles GET /customers
func (h *Handler) ListCustomers(c *gin.Context) {
	limit := 100
	if l := c.Query("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= 500 {
			limit = parsed
		}
	}

	customers, err := h.service.List(c.Request.Context(), ListOptions{
		Tier:  Tier(c.Query("tier")),
		Limit: limit,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "list_failed",
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"customers": customers,
		"count":     len(customers),
	})
}
