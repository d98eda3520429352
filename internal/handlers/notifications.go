package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/emilythestrangee/stackit/backend/internal/apperrors"
	"github.com/emilythestrangee/stackit/backend/internal/models"
)

type NotificationHandler struct {
	db  *gorm.DB
	log *slog.Logger
}

func NewNotificationHandler(db *gorm.DB, log *slog.Logger) *NotificationHandler {
	return &NotificationHandler{db: db, log: log}
}

// GetNotifications lists the caller's notifications, newest first
func (h *NotificationHandler) GetNotifications(c *gin.Context) {
	profile := currentProfile(c)
	limit, offset := pagination(c)
	db := h.db.WithContext(c.Request.Context())

	query := db.Where("user_id = ?", profile.ID)
	if c.Query("unread") == "true" {
		query = query.Where("read = ?", false)
	}

	var notifications []models.Notification
	if err := query.Preload("Sender").Order("created_at desc").
		Limit(limit).Offset(offset).Find(&notifications).Error; err != nil {
		respondError(c, h.log, apperrors.FromStore("notifications.list", err))
		return
	}

	var unread int64
	db.Model(&models.Notification{}).Where("user_id = ? AND read = ?", profile.ID, false).Count(&unread)

	if notifications == nil {
		notifications = []models.Notification{}
	}
	c.JSON(http.StatusOK, gin.H{
		"notifications": notifications,
		"unread_count":  unread,
	})
}

// MarkRead marks one notification as read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	profile := currentProfile(c)

	res := h.db.WithContext(c.Request.Context()).Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", id, profile.ID).
		UpdateColumn("read", true)
	if res.Error != nil {
		respondError(c, h.log, apperrors.FromStore("notifications.read", res.Error))
		return
	}
	if res.RowsAffected == 0 {
		var n int64
		h.db.Model(&models.Notification{}).Where("id = ? AND user_id = ?", id, profile.ID).Count(&n)
		if n == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "Notification not found"})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"message": "Notification marked as read"})
}

// MarkAllRead marks every unread notification of the caller as read
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	profile := currentProfile(c)

	res := h.db.WithContext(c.Request.Context()).Model(&models.Notification{}).
		Where("user_id = ? AND read = ?", profile.ID, false).
		UpdateColumn("read", true)
	if res.Error != nil {
		respondError(c, h.log, apperrors.FromStore("notifications.read_all", res.Error))
		return
	}

	c.JSON(http.StatusOK, gin.H{"updated": res.RowsAffected})
}
