package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"civicreport/middleware"
	"civicreport/models"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CreateReport creates a new report from a multipart form. Accepts location,
// comment, one or more category_id fields and an optional photo file.
func (h *Handlers) CreateReport(c *gin.Context) {
	location := c.PostForm("location")
	if location == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "location is required"})
		return
	}

	categoryIDs, err := parseCategoryIDs(c.PostFormArray("category_id"))
	if err != nil || len(categoryIDs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "at least one valid category_id is required"})
		return
	}

	ok, err := h.db.CategoriesExist(c.Request.Context(), categoryIDs)
	if err != nil {
		log.WithError(err).Error("Failed to validate categories")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create report"})
		return
	}
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown category"})
		return
	}

	photo := ""
	if file, err := c.FormFile("photo"); err == nil {
		filename := fmt.Sprintf("%s_%d%s", uuid.New().String(), time.Now().Unix(), filepath.Ext(file.Filename))
		if err := c.SaveUploadedFile(file, filepath.Join(h.photoDir, filename)); err != nil {
			log.WithError(err).Error("Failed to save report photo")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save photo"})
			return
		}
		photo = filename
	}

	userID := middleware.UserIDFromContext(c)

	report, err := h.svc.CreateReport(c.Request.Context(), userID, location, photo, c.PostForm("comment"), categoryIDs)
	if err != nil {
		log.WithError(err).Error("Failed to create report")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create report"})
		return
	}

	c.JSON(http.StatusCreated, report)
}

// ListReports returns reports, paginated, newest first
func (h *Handlers) ListReports(c *gin.Context) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	perPage, err := strconv.Atoi(c.DefaultQuery("per_page", "10"))
	if err != nil || perPage < 1 || perPage > 100 {
		perPage = 10
	}

	reports, err := h.db.ListReports(c.Request.Context(), perPage, (page-1)*perPage)
	if err != nil {
		log.WithError(err).Error("Failed to list reports")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list reports"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"reports": reports, "page": page, "per_page": perPage})
}

// GetReport returns one report with its categories
func (h *Handlers) GetReport(c *gin.Context) {
	reportID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid report id"})
		return
	}

	report, err := h.db.GetReport(c.Request.Context(), reportID)
	if err != nil {
		if errors.Is(err, models.ErrReportNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Report not found"})
			return
		}
		log.WithError(err).Errorf("Failed to get report %d", reportID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get report"})
		return
	}

	c.JSON(http.StatusOK, report)
}

// UpdateReport updates a report's own fields. Allowed for the owner and for
// admins/curators.
func (h *Handlers) UpdateReport(c *gin.Context) {
	reportID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid report id"})
		return
	}

	report, err := h.db.GetReport(c.Request.Context(), reportID)
	if err != nil {
		if errors.Is(err, models.ErrReportNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Report not found"})
			return
		}
		log.WithError(err).Errorf("Failed to get report %d", reportID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get report"})
		return
	}

	userID := middleware.UserIDFromContext(c)
	role := middleware.RoleFromContext(c)
	if report.UserID != userID && !role.CanManageReports() {
		c.JSON(http.StatusForbidden, gin.H{"error": "Unauthorized to update this report"})
		return
	}

	var req models.UpdateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.CategoryIDs != nil {
		ok, err := h.db.CategoriesExist(c.Request.Context(), req.CategoryIDs)
		if err != nil {
			log.WithError(err).Error("Failed to validate categories")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update report"})
			return
		}
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown category"})
			return
		}
	}

	if err := h.db.UpdateReport(c.Request.Context(), reportID, req.Location, req.Comment, "", req.CategoryIDs); err != nil {
		log.WithError(err).Errorf("Failed to update report %d", reportID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update report"})
		return
	}

	updated, err := h.db.GetReport(c.Request.Context(), reportID)
	if err != nil {
		log.WithError(err).Errorf("Failed to reload report %d", reportID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load updated report"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Report atualizado com sucesso", "report": updated})
}

// DeleteReport removes a report (admin/curator only)
func (h *Handlers) DeleteReport(c *gin.Context) {
	reportID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid report id"})
		return
	}

	if err := h.db.DeleteReport(c.Request.Context(), reportID); err != nil {
		if errors.Is(err, models.ErrReportNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Report not found"})
			return
		}
		log.WithError(err).Errorf("Failed to delete report %d", reportID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete report"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Report eliminado com sucesso"})
}

// GetUserOwnReports returns the authenticated user's reports
func (h *Handlers) GetUserOwnReports(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	reports, err := h.db.ListReportsByUser(c.Request.Context(), userID)
	if err != nil {
		log.WithError(err).Errorf("Failed to list reports of user %d", userID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list reports"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"reports": reports})
}

// UpdateStatus applies a status transition to a report. Only admins and
// curators may call it; statuses only ever move forward.
func (h *Handlers) UpdateStatus(c *gin.Context) {
	reportID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid report id"})
		return
	}

	var req models.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	role := middleware.RoleFromContext(c)

	report, oldStatus, err := h.svc.UpdateReportStatus(c.Request.Context(), reportID, req.StatusID, role)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrForbidden):
			c.JSON(http.StatusForbidden, gin.H{"error": "Não autorizado a atualizar o status"})
		case errors.Is(err, models.ErrUnknownStatus):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Status inválido"})
		case errors.Is(err, models.ErrReportNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Report não encontrado"})
		default:
			if pe, ok := models.IsProgressionError(err); ok {
				c.JSON(http.StatusBadRequest, gin.H{
					"error":            "Progressão de status inválida, este pode apenas movimentar-se na direção: pendente -> em resolução -> resolvido",
					"current_status":   pe.Current.Label(),
					"attempted_status": pe.Attempted.Label(),
				})
				return
			}
			log.WithError(err).Errorf("Failed to update status of report %d", reportID)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update status"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":    "Status atualizado com sucesso",
		"report":     report,
		"old_status": oldStatus.Label(),
	})
}

// ListCategories returns the seeded categories
func (h *Handlers) ListCategories(c *gin.Context) {
	categories, err := h.db.ListCategories(c.Request.Context())
	if err != nil {
		log.WithError(err).Error("Failed to list categories")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list categories"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

// GetPhoto serves a stored report photo
func (h *Handlers) GetPhoto(c *gin.Context) {
	filename := filepath.Base(c.Param("filename"))
	c.File(filepath.Join(h.photoDir, filename))
}

func parseCategoryIDs(values []string) ([]int64, error) {
	ids := make([]int64, 0, len(values))
	for _, v := range values {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
