package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/emilythestrangee/stackit/backend/internal/apperrors"
	"github.com/emilythestrangee/stackit/backend/internal/models"
	"github.com/emilythestrangee/stackit/backend/internal/voting"
)

type BookmarkHandler struct {
	db  *gorm.DB
	log *slog.Logger
}

func NewBookmarkHandler(db *gorm.DB, log *slog.Logger) *BookmarkHandler {
	return &BookmarkHandler{db: db, log: log}
}

// GetBookmarks lists the caller's bookmarks
func (h *BookmarkHandler) GetBookmarks(c *gin.Context) {
	profile := currentProfile(c)
	limit, offset := pagination(c)

	var bookmarks []models.Bookmark
	if err := h.db.WithContext(c.Request.Context()).
		Where("user_id = ?", profile.ID).Order("created_at desc").
		Limit(limit).Offset(offset).Find(&bookmarks).Error; err != nil {
		respondError(c, h.log, apperrors.FromStore("bookmarks.list", err))
		return
	}

	if bookmarks == nil {
		bookmarks = []models.Bookmark{}
	}
	c.JSON(http.StatusOK, bookmarks)
}

// CreateBookmark bookmarks a question or answer; repeating it is a no-op
func (h *BookmarkHandler) CreateBookmark(c *gin.Context) {
	const op = "bookmarks.create"
	profile := currentProfile(c)

	var input models.BookmarkRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	targetID, tt, err := voting.ParseTarget(input.TargetID, input.TargetType)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	db := h.db.WithContext(c.Request.Context())
	ok, err := targetExists(db, targetID, tt)
	if err != nil {
		respondError(c, h.log, apperrors.FromStore(op, err))
		return
	}
	if !ok {
		respondError(c, h.log, apperrors.NotFound(op, "%s not found", tt))
		return
	}

	bookmark := models.Bookmark{UserID: profile.ID, TargetID: targetID, TargetType: tt}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&bookmark).Error; err != nil {
		respondError(c, h.log, apperrors.FromStore(op, err))
		return
	}

	c.JSON(http.StatusCreated, gin.H{"bookmarked": true, "target_id": targetID, "target_type": tt})
}

// DeleteBookmark removes a bookmark
func (h *BookmarkHandler) DeleteBookmark(c *gin.Context) {
	profile := currentProfile(c)
	targetID, tt, err := voting.ParseTarget(c.Param("id"), c.Param("targetType"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	if err := h.db.WithContext(c.Request.Context()).
		Where("user_id = ? AND target_id = ? AND target_type = ?", profile.ID, targetID, tt).
		Delete(&models.Bookmark{}).Error; err != nil {
		respondError(c, h.log, apperrors.FromStore("bookmarks.delete", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"bookmarked": false})
}
