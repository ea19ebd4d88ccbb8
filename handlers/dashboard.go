package handlers

import (
	"net/http"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
)

// GetDashboardOverview returns report counts by status and totals
func (h *Handlers) GetDashboardOverview(c *gin.Context) {
	metrics, err := h.db.GetOverviewMetrics(c.Request.Context())
	if err != nil {
		log.WithError(err).Error("Failed to get overview metrics")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get overview metrics"})
		return
	}
	c.JSON(http.StatusOK, metrics)
}

// GetDashboardResolution returns resolution time metrics and the monthly
// resolved series
func (h *Handlers) GetDashboardResolution(c *gin.Context) {
	metrics, err := h.db.GetResolutionMetrics(c.Request.Context())
	if err != nil {
		log.WithError(err).Error("Failed to get resolution metrics")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get resolution metrics"})
		return
	}
	c.JSON(http.StatusOK, metrics)
}

// GetDashboardCategories returns report counts per category
func (h *Handlers) GetDashboardCategories(c *gin.Context) {
	metrics, err := h.db.GetCategoryMetrics(c.Request.Context())
	if err != nil {
		log.WithError(err).Error("Failed to get category metrics")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get category metrics"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": metrics})
}

// GetDashboardFinancial returns estimated cost aggregates from report details
func (h *Handlers) GetDashboardFinancial(c *gin.Context) {
	metrics, err := h.db.GetFinancialMetrics(c.Request.Context())
	if err != nil {
		log.WithError(err).Error("Failed to get financial metrics")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get financial metrics"})
		return
	}
	c.JSON(http.StatusOK, metrics)
}
