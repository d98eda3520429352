package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/emilythestrangee/stackit/backend/internal/apperrors"
	"github.com/emilythestrangee/stackit/backend/internal/authz"
	"github.com/emilythestrangee/stackit/backend/internal/models"
	"github.com/emilythestrangee/stackit/backend/internal/tags"
)

type ModerationHandler struct {
	db      *gorm.DB
	catalog *tags.Catalog
	log     *slog.Logger
}

func NewModerationHandler(db *gorm.DB, catalog *tags.Catalog, log *slog.Logger) *ModerationHandler {
	return &ModerationHandler{db: db, catalog: catalog, log: log}
}

// RequireModerator rejects callers without a moderator or admin role.
func (h *ModerationHandler) RequireModerator() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := authz.Check(currentSubject(c), authz.ActionModerate, uuid.Nil); err != nil {
			respondError(c, h.log, err)
			c.Abort()
			return
		}
		c.Next()
	}
}

// SetQuestionStatus changes a question's status and records the action
func (h *ModerationHandler) SetQuestionStatus(c *gin.Context) {
	const op = "moderation.set_status"

	id, err := parseID(c, "id")
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	var input models.SetStatusRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	status := models.QuestionStatus(input.Status)
	if !status.Valid() {
		respondError(c, h.log, apperrors.Validation(op, "status must be active, closed, flagged or deleted"))
		return
	}
	moderator := currentProfile(c)

	var question models.Question
	err = h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).Take(&question).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFound(op, "question not found")
		}
		if err != nil {
			return err
		}
		if question.Status == status {
			return nil
		}

		switch {
		case status == models.QuestionStatusDeleted:
			if err := softDelete(tx, &question); err != nil {
				return err
			}
		case question.Status == models.QuestionStatusDeleted:
			if err := restore(tx, &question); err != nil {
				return err
			}
			fallthrough
		default:
			if err := tx.Model(&models.Question{}).Where("id = ?", id).Update("status", status).Error; err != nil {
				return err
			}
		}

		if err := tx.Create(&models.ModerationLog{
			ModeratorID: moderator.ID,
			TargetID:    id,
			TargetType:  string(models.TargetQuestion),
			Action:      models.ModerationSetStatus,
			Reason:      fmt.Sprintf("%s -> %s: %s", question.Status, status, input.Reason),
		}).Error; err != nil {
			return err
		}

		sender := moderator.ID
		target := id
		question.Status = status
		return tx.Create(&models.Notification{
			UserID:     question.AuthorID,
			SenderID:   &sender,
			Type:       models.NotificationSystem,
			Title:      fmt.Sprintf("Your question was marked %s", status),
			Message:    input.Reason,
			TargetID:   &target,
			TargetType: string(models.TargetQuestion),
		}).Error
	})
	if err != nil {
		respondError(c, h.log, apperrors.FromStore(op, err))
		return
	}
	h.catalog.Invalidate()

	h.log.Info("question status changed", "question_id", id, "status", status, "moderator_id", moderator.ID)
	c.JSON(http.StatusOK, question)
}

// BanUser bans or unbans a user
func (h *ModerationHandler) BanUser(c *gin.Context) {
	const op = "moderation.ban"

	id, err := parseID(c, "id")
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	var input models.BanRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	moderator := currentProfile(c)
	if id == moderator.ID {
		respondError(c, h.log, apperrors.Validation(op, "you cannot ban yourself"))
		return
	}

	var target models.Profile
	err = h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("id = ?", id).Take(&target).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFound(op, "user not found")
		}
		if err != nil {
			return err
		}
		if target.IsStaff() && moderator.Role != models.RoleAdmin {
			return apperrors.Authorization(op, "only an admin can ban staff")
		}

		action := models.ModerationBan
		if !input.Banned {
			action = models.ModerationUnban
		}
		if err := tx.Model(&models.Profile{}).Where("id = ?", id).UpdateColumn("is_banned", input.Banned).Error; err != nil {
			return err
		}
		target.IsBanned = input.Banned
		return tx.Create(&models.ModerationLog{
			ModeratorID: moderator.ID,
			TargetID:    id,
			TargetType:  "profile",
			Action:      action,
			Reason:      input.Reason,
		}).Error
	})
	if err != nil {
		respondError(c, h.log, apperrors.FromStore(op, err))
		return
	}

	h.log.Info("user ban changed", "user_id", id, "banned", input.Banned, "moderator_id", moderator.ID)
	c.JSON(http.StatusOK, target)
}

// GetLogs lists moderation actions, newest first
func (h *ModerationHandler) GetLogs(c *gin.Context) {
	limit, offset := pagination(c)

	var logs []models.ModerationLog
	if err := h.db.WithContext(c.Request.Context()).
		Order("created_at desc").Limit(limit).Offset(offset).Find(&logs).Error; err != nil {
		respondError(c, h.log, apperrors.FromStore("moderation.logs", err))
		return
	}

	if logs == nil {
		logs = []models.ModerationLog{}
	}
	c.JSON(http.StatusOK, logs)
}
