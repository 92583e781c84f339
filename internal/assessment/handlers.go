package assessment

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/decaylab/churnwatch/internal/customer"
	"github.com/decaylab/churnwatch/internal/logging"
	"github.com/decaylab/churnwatch/internal/validation"
)

// Handler provides HTTP endpoints for risk assessment
type Handler struct {
	assessor *Assessor
	reports  ReportStore
	dataDir  string
}

// NewHandler creates a new assessment handler
func NewHandler(assessor *Assessor, reports ReportStore, dataDir string) *Handler {
	return &Handler{assessor: assessor, reports: reports, dataDir: dataDir}
}

// RegisterRoutes sets up assessment routes
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/customers/:id/analysis", validation.CustomerIDParamMiddleware(), h.GetCustomerAnalysis)
	r.GET("/customers/at-risk", h.GetAtRiskCustomers)
	r.POST("/customers/analyze-all", h.AnalyzeAll)
}

// GetCustomerAnalysis handles GET /customers/:id/analysis
func (h *Handler) GetCustomerAnalysis(c *gin.Context) {
	customerID := c.Param("id")

	result, err := h.assessor.AssessCustomer(c.Request.Context(), customerID)
	if err != nil {
		switch {
		case errors.Is(err, customer.ErrCustomerNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"error":   "not_found",
				"message": "Customer " + customerID + " not found",
			})
		case errors.Is(err, customer.ErrNoBehaviorData):
			c.JSON(http.StatusNotFound, gin.H{
				"error":   "no_behavior_data",
				"message": "No behavior data found for " + customerID,
			})
		default:
			logging.L(c.Request.Context()).Error("assessment failed",
				"customer_id", customerID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "assessment_failed",
				"message": "Failed to assess customer risk",
			})
		}
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetAtRiskCustomers handles GET /customers/at-risk
func (h *Handler) GetAtRiskCustomers(c *gin.Context) {
	minRisk := queryFloat(c, "min_risk", 50)
	limit := queryInt(c, "limit", 20)
	if limit < 1 {
		limit = 20
	}

	assessments, err := h.assessor.AssessAll(c.Request.Context())
	if err != nil {
		logging.L(c.Request.Context()).Error("batch assessment failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "assessment_failed",
			"message": "Failed to assess customers",
		})
		return
	}

	atRisk := filterByScore(assessments, minRisk)
	returned := atRisk
	if len(returned) > limit {
		returned = returned[:limit]
	}

	c.JSON(http.StatusOK, gin.H{
		"total_at_risk":      len(atRisk),
		"returned":           len(returned),
		"min_risk_threshold": minRisk,
		"summary":            Summarize(returned),
		"customers":          returned,
	})
}

// AnalyzeAllRequest controls an analyze-all run
type AnalyzeAllRequest struct {
	MinRisk     float64 `json:"min_risk"`
	SaveResults bool    `json:"save_results"`
}

// AnalyzeAll handles POST /customers/analyze-all
func (h *Handler) AnalyzeAll(c *gin.Context) {
	var req AnalyzeAllRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "invalid_request",
				"message": "Invalid request body",
			})
			return
		}
	}

	ctx := c.Request.Context()
	assessments, err := h.assessor.AssessAll(ctx)
	if err != nil {
		logging.L(ctx).Error("batch assessment failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "assessment_failed",
			"message": "Failed to assess customers",
		})
		return
	}

	report := &BatchReport{RunAt: h.assessor.now(), Assessments: assessments}
	if err := h.reports.SaveBatch(ctx, report); err != nil {
		logging.L(ctx).Error("failed to cache batch report", "error", err)
	}

	if req.SaveResults {
		if err := ExportReport(h.dataDir, report); err != nil {
			logging.L(ctx).Error("failed to export batch report", "error", err)
		}
	}

	filtered := assessments
	if req.MinRisk > 0 {
		filtered = filterByScore(assessments, req.MinRisk)
	}

	c.JSON(http.StatusOK, gin.H{
		"total_analyzed":  len(assessments),
		"returned":        len(filtered),
		"min_risk_filter": req.MinRisk,
		"summary":         Summarize(filtered),
		"assessments":     filtered,
	})
}

func filterByScore(assessments []*RiskAssessment, min float64) []*RiskAssessment {
	out := make([]*RiskAssessment, 0, len(assessments))
	for _, a := range assessments {
		if a.ChurnRiskScore >= min {
			out = append(out, a)
		}
	}
	return out
}

func queryFloat(c *gin.Context, key string, def float64) float64 {
	raw := c.Query(key)
	if raw == "" {
		return def
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return def
	}
	return v
}

func queryInt(c *gin.Context, key string, def int) int {
	raw := c.Query(key)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}
