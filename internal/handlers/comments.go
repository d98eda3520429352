package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/emilythestrangee/stackit/backend/internal/apperrors"
	"github.com/emilythestrangee/stackit/backend/internal/authz"
	"github.com/emilythestrangee/stackit/backend/internal/models"
)

type CommentHandler struct {
	db  *gorm.DB
	log *slog.Logger
}

func NewCommentHandler(db *gorm.DB, log *slog.Logger) *CommentHandler {
	return &CommentHandler{db: db, log: log}
}

// targetExists reports whether a live question or an answer with id exists.
func targetExists(db *gorm.DB, id uuid.UUID, tt models.TargetType) (bool, error) {
	var n int64
	var err error
	switch tt {
	case models.TargetQuestion:
		err = db.Model(&models.Question{}).Where("id = ? AND status <> ?", id, models.QuestionStatusDeleted).Count(&n).Error
	case models.TargetAnswer:
		err = db.Model(&models.Answer{}).Where("id = ?", id).Count(&n).Error
	}
	return n > 0, err
}

// GetQuestionComments returns the comments on a question
func (h *CommentHandler) GetQuestionComments(c *gin.Context) {
	h.list(c, models.TargetQuestion)
}

// GetAnswerComments returns the comments on an answer
func (h *CommentHandler) GetAnswerComments(c *gin.Context) {
	h.list(c, models.TargetAnswer)
}

func (h *CommentHandler) list(c *gin.Context, tt models.TargetType) {
	id, err := parseID(c, "id")
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	db := h.db.WithContext(c.Request.Context())

	var comments []models.Comment
	if err := db.Where("target_id = ? AND target_type = ?", id, tt).
		Preload("Author").Order("created_at asc").Find(&comments).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch comments"})
		return
	}

	if comments == nil {
		comments = []models.Comment{}
	}
	c.JSON(http.StatusOK, comments)
}

// CreateQuestionComment comments on a question
func (h *CommentHandler) CreateQuestionComment(c *gin.Context) {
	h.create(c, models.TargetQuestion)
}

// CreateAnswerComment comments on an answer
func (h *CommentHandler) CreateAnswerComment(c *gin.Context) {
	h.create(c, models.TargetAnswer)
}

func (h *CommentHandler) create(c *gin.Context, tt models.TargetType) {
	const op = "comments.create"

	id, err := parseID(c, "id")
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	profile := currentProfile(c)
	if err := authz.Check(currentSubject(c), authz.ActionCreateContent, uuid.Nil); err != nil {
		respondError(c, h.log, err)
		return
	}

	var input models.CreateCommentRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}

	db := h.db.WithContext(c.Request.Context())
	ok, err := targetExists(db, id, tt)
	if err != nil {
		respondError(c, h.log, apperrors.FromStore(op, err))
		return
	}
	if !ok {
		respondError(c, h.log, apperrors.NotFound(op, "%s not found", tt))
		return
	}

	comment := models.Comment{
		TargetID:   id,
		TargetType: tt,
		Content:    input.Content,
		AuthorID:   profile.ID,
	}
	if input.ParentID != nil {
		parentID, err := uuid.Parse(*input.ParentID)
		if err != nil {
			respondError(c, h.log, apperrors.Validation(op, "invalid parent_id"))
			return
		}
		var n int64
		db.Model(&models.Comment{}).Where("id = ? AND target_id = ? AND target_type = ?", parentID, id, tt).Count(&n)
		if n == 0 {
			respondError(c, h.log, apperrors.Validation(op, "parent comment does not belong to this %s", tt))
			return
		}
		comment.ParentID = &parentID
	}

	if err := db.Create(&comment).Error; err != nil {
		respondError(c, h.log, apperrors.FromStore(op, err))
		return
	}

	comment.Author = profile
	c.JSON(http.StatusCreated, comment)
}

// UpdateComment updates a comment (owner or moderator)
func (h *CommentHandler) UpdateComment(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	var input struct {
		Content string `json:"content" binding:"required,min=2,max=600"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}

	comment, ok := h.load(c, id)
	if !ok {
		return
	}
	if err := authz.Check(currentSubject(c), authz.ActionEditContent, comment.AuthorID); err != nil {
		respondError(c, h.log, err)
		return
	}

	if err := h.db.WithContext(c.Request.Context()).Model(comment).Update("content", input.Content).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update comment"})
		return
	}
	comment.Content = input.Content
	c.JSON(http.StatusOK, comment)
}

// DeleteComment deletes a comment and its replies (owner or moderator)
func (h *CommentHandler) DeleteComment(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	comment, ok := h.load(c, id)
	if !ok {
		return
	}
	if err := authz.Check(currentSubject(c), authz.ActionDeleteContent, comment.AuthorID); err != nil {
		respondError(c, h.log, err)
		return
	}

	err = h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("parent_id = ?", comment.ID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Comment{}, "id = ?", comment.ID).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete comment"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Comment deleted successfully"})
}

func (h *CommentHandler) load(c *gin.Context, id uuid.UUID) (*models.Comment, bool) {
	var comment models.Comment
	err := h.db.WithContext(c.Request.Context()).Where("id = ?", id).Take(&comment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Comment not found"})
		return nil, false
	}
	if err != nil {
		respondError(c, h.log, apperrors.FromStore("comments.load", err))
		return nil, false
	}
	return &comment, true
}
