package handlers

import (
	"net/http"

	"civicreport/middleware"
	"civicreport/models"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
)

// RegisterDeviceToken registers or refreshes a push token for the
// authenticated user. Re-registering an existing token reactivates it.
func (h *Handlers) RegisterDeviceToken(c *gin.Context) {
	var req models.RegisterDeviceTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := middleware.UserIDFromContext(c)

	if err := h.db.RegisterDeviceToken(c.Request.Context(), userID, req.Token, req.Platform); err != nil {
		log.WithError(err).Errorf("Failed to register device token for user %d", userID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to register device token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Device token registered"})
}

// UnregisterDeviceToken deactivates a push token without deleting it
func (h *Handlers) UnregisterDeviceToken(c *gin.Context) {
	var req models.DeviceTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := middleware.UserIDFromContext(c)

	if err := h.db.DeactivateDeviceToken(c.Request.Context(), userID, req.Token); err != nil {
		log.WithError(err).Errorf("Failed to deactivate device token for user %d", userID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to deactivate device token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Device token deactivated"})
}

// DeleteDeviceToken removes a push token permanently
func (h *Handlers) DeleteDeviceToken(c *gin.Context) {
	var req models.DeviceTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := middleware.UserIDFromContext(c)

	if err := h.db.DeleteDeviceToken(c.Request.Context(), userID, req.Token); err != nil {
		log.WithError(err).Errorf("Failed to delete device token for user %d", userID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete device token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Device token deleted"})
}

// ListDeviceTokens returns the authenticated user's registered tokens
func (h *Handlers) ListDeviceTokens(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	tokens, err := h.db.ListDeviceTokens(c.Request.Context(), userID)
	if err != nil {
		log.WithError(err).Errorf("Failed to list device tokens of user %d", userID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list device tokens"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"device_tokens": tokens})
}
