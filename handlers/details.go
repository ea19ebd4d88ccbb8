package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"civicreport/models"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
)

// CreateReportDetail attaches the technical detail record to a report.
// At most one detail per report; admin/curator only.
func (h *Handlers) CreateReportDetail(c *gin.Context) {
	reportID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid report id"})
		return
	}

	var req models.CreateReportDetailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Priority != "" && !models.ValidPriority(req.Priority) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "priority must be baixa, media or alta"})
		return
	}

	if _, err := h.db.GetReport(c.Request.Context(), reportID); err != nil {
		if errors.Is(err, models.ErrReportNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Report not found"})
			return
		}
		log.WithError(err).Errorf("Failed to get report %d", reportID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create report detail"})
		return
	}

	detail, err := h.db.CreateReportDetail(c.Request.Context(), reportID, req)
	if err != nil {
		if errors.Is(err, models.ErrDetailAlreadyExists) {
			c.JSON(http.StatusConflict, gin.H{"error": "Report already has details"})
			return
		}
		log.WithError(err).Errorf("Failed to create detail for report %d", reportID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create report detail"})
		return
	}

	c.JSON(http.StatusCreated, detail)
}

// GetReportDetail returns a report's technical detail record
func (h *Handlers) GetReportDetail(c *gin.Context) {
	reportID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid report id"})
		return
	}

	detail, err := h.db.GetReportDetail(c.Request.Context(), reportID)
	if err != nil {
		if errors.Is(err, models.ErrDetailNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Report detail not found"})
			return
		}
		log.WithError(err).Errorf("Failed to get detail of report %d", reportID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get report detail"})
		return
	}

	c.JSON(http.StatusOK, detail)
}

// UpdateReportDetail partially updates a report's detail record
// (admin/curator only)
func (h *Handlers) UpdateReportDetail(c *gin.Context) {
	reportID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid report id"})
		return
	}

	var req models.UpdateReportDetailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Priority != nil && !models.ValidPriority(*req.Priority) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "priority must be baixa, media or alta"})
		return
	}

	detail, err := h.db.UpdateReportDetail(c.Request.Context(), reportID, req)
	if err != nil {
		if errors.Is(err, models.ErrDetailNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Report detail not found"})
			return
		}
		log.WithError(err).Errorf("Failed to update detail of report %d", reportID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update report detail"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Detalhes atualizados com sucesso", "detail": detail})
}
