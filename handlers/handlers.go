// Package handlers wires the HTTP API to the service and database layers.
package handlers

import (
	"net/http"
	"time"

	"civicreport/auth"
	"civicreport/config"
	"civicreport/database"
	"civicreport/service"

	"github.com/gin-gonic/gin"
)

// Handlers holds all HTTP handlers
type Handlers struct {
	db       *database.Database
	svc      *service.Service
	tokens   *auth.Manager
	photoDir string
}

// New creates a new handlers instance
func New(db *database.Database, svc *service.Service, tokens *auth.Manager, cfg *config.Config) *Handlers {
	return &Handlers{
		db:       db,
		svc:      svc,
		tokens:   tokens,
		photoDir: cfg.PhotoDir,
	}
}

// Health is the health check endpoint
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "civicreport",
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}
