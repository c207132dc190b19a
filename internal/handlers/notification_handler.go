package handlers

import (
	"net/http"
	"strings"

	"github.com/ArowuTest/topup-callback/internal/models"
	"github.com/ArowuTest/topup-callback/internal/repositories"
	"github.com/gin-gonic/gin"
)

// NotificationHandler exposes the notification dispatch log
type NotificationHandler struct {
	notificationRepo repositories.NotificationRepository
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(notificationRepo repositories.NotificationRepository) *NotificationHandler {
	return &NotificationHandler{notificationRepo: notificationRepo}
}

// GetNotificationsByRequestID handles GET /api/v1/requests/:request_id/notifications
func (h *NotificationHandler) GetNotificationsByRequestID(c *gin.Context) {
	requestID := strings.TrimSpace(c.Param("request_id"))
	if requestID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": "request_id is required"})
		return
	}

	notifications, err := h.notificationRepo.FindByRequestID(c.Request.Context(), requestID)
	if err != nil {
		respondError(c, err)
		return
	}
	if notifications == nil {
		notifications = []*models.NotificationRecord{}
	}
	c.JSON(http.StatusOK, gin.H{"request_id": requestID, "notifications": notifications})
}
