package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"notify-center/internal/middleware"
	"notify-center/internal/models"
	"notify-center/internal/services"
	pkgerrors "notify-center/pkg/errors"
	"notify-center/pkg/pagination"
	"notify-center/pkg/response"
)

// NotificationHandler serves the read side of the notification store plus
// the manual write endpoint.
type NotificationHandler struct {
	service *services.NotificationService
}

func NewNotificationHandler(service *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{service: service}
}

// List returns the notifications visible to the caller's identity: rows
// targeted at it plus global rows, newest first.
func (h *NotificationHandler) List(c *gin.Context) {
	userID := middleware.Identity(c)

	list, err := h.service.Store().List(c.Request.Context(), userID)
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}
	if list == nil {
		list = []models.Notification{}
	}
	c.JSON(http.StatusOK, gin.H{
		"notifications": list,
		"count":         len(list),
	})
}

// ListAll is the admin view over every row, paginated.
func (h *NotificationHandler) ListAll(c *gin.Context) {
	page := pagination.GetPage(c)
	pageSize := pagination.GetPageSize(c)

	list, total, err := h.service.Store().ListAll(c.Request.Context(), pageSize, pagination.GetOffset(page, pageSize))
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}
	if list == nil {
		list = []models.Notification{}
	}
	c.JSON(http.StatusOK, gin.H{
		"notifications": list,
		"total":         total,
		"page":          page,
		"page_size":     pageSize,
	})
}

type createNotificationRequest struct {
	Type     string `json:"type" binding:"required"`
	Message  string `json:"message" binding:"required"`
	Severity string `json:"severity" binding:"omitempty,oneof=info warning critical"`
}

// Create inserts and broadcasts a notification. Rate limited per identity.
func (h *NotificationHandler) Create(c *gin.Context) {
	var req createNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.InvalidParams(c, err.Error())
		return
	}

	n, err := h.service.Emit(c.Request.Context(), &models.Event{
		Type:     req.Type,
		Message:  req.Message,
		Severity: req.Severity,
	})
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"created":      true,
		"notification": n,
	})
}

// MarkRead flips one notification to read. Idempotent; 404 for missing ids.
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.InvalidParams(c, "invalid notification id")
		return
	}

	n, err := h.service.Store().MarkRead(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, pkgerrors.ErrRecordNotFound) {
			response.NotFound(c, "notification not found")
			return
		}
		response.ServerError(c, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"updated":      true,
		"notification": n,
	})
}

// MarkAllRead flips every notification visible to the identity to read.
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	userID := middleware.Identity(c)

	updated, err := h.service.Store().MarkAllRead(c.Request.Context(), userID)
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"updated": true,
		"count":   updated,
	})
}

// Delete hard-deletes one notification by id. A second call 404s.
func (h *NotificationHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.InvalidParams(c, "invalid notification id")
		return
	}

	removed, err := h.service.Store().Delete(c.Request.Context(), id)
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}
	if !removed {
		response.NotFound(c, "notification not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"deleted": true,
		"id":      id,
	})
}

// UnreadCount returns the unread badge counter for the identity.
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	userID := middleware.Identity(c)

	count, err := h.service.Store().UnreadCount(c.Request.Context(), userID)
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}
