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
	"github.com/emilythestrangee/stackit/backend/internal/voting"
)

type AnswerHandler struct {
	db     *gorm.DB
	engine *voting.Engine
	log    *slog.Logger
}

func NewAnswerHandler(db *gorm.DB, engine *voting.Engine, log *slog.Logger) *AnswerHandler {
	return &AnswerHandler{db: db, engine: engine, log: log}
}

// GetAnswers returns the answers of a question, accepted first
func (h *AnswerHandler) GetAnswers(c *gin.Context) {
	questionID, err := parseID(c, "id")
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	db := h.db.WithContext(c.Request.Context())

	var n int64
	if err := db.Model(&models.Question{}).
		Where("id = ? AND status <> ?", questionID, models.QuestionStatusDeleted).Count(&n).Error; err != nil {
		respondError(c, h.log, apperrors.FromStore("answers.list", err))
		return
	}
	if n == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Question not found"})
		return
	}

	var answers []models.Answer
	if err := db.Preload("Author").Where("question_id = ?", questionID).
		Order("is_accepted desc").Order("votes_count desc").Order("created_at asc").
		Find(&answers).Error; err != nil {
		respondError(c, h.log, apperrors.FromStore("answers.list", err))
		return
	}

	viewer, _ := currentUserID(c)
	views, err := answerViews(c.Request.Context(), h.engine, viewer, answers)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, views)
}

// CreateAnswer posts an answer to an open question
func (h *AnswerHandler) CreateAnswer(c *gin.Context) {
	const op = "answers.create"

	questionID, err := parseID(c, "id")
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	profile := currentProfile(c)
	if err := authz.Check(currentSubject(c), authz.ActionCreateContent, uuid.Nil); err != nil {
		respondError(c, h.log, err)
		return
	}

	var input models.CreateAnswerRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}

	answer := models.Answer{QuestionID: questionID, AuthorID: profile.ID, Content: input.Content}
	err = h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		var question models.Question
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id", "author_id", "status", "title").Where("id = ?", questionID).Take(&question).Error
		if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && question.Status == models.QuestionStatusDeleted) {
			return apperrors.NotFound(op, "question not found")
		}
		if err != nil {
			return err
		}
		if !question.Status.AcceptsAnswers() {
			return apperrors.Validation(op, "question is %s and does not accept answers", question.Status)
		}

		if err := tx.Create(&answer).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Question{}).Where("id = ?", questionID).
			UpdateColumn("answers_count", gorm.Expr("answers_count + 1")).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Profile{}).Where("id = ?", profile.ID).
			UpdateColumn("answers_count", gorm.Expr("answers_count + 1")).Error; err != nil {
			return err
		}

		if question.AuthorID == profile.ID {
			return nil
		}
		sender := profile.ID
		target := question.ID
		return tx.Create(&models.Notification{
			UserID:     question.AuthorID,
			SenderID:   &sender,
			Type:       models.NotificationAnswer,
			Title:      "New answer to your question",
			Message:    fmt.Sprintf("%s answered %q", profile.Username, question.Title),
			TargetID:   &target,
			TargetType: string(models.TargetQuestion),
		}).Error
	})
	if err != nil {
		respondError(c, h.log, apperrors.FromStore(op, err))
		return
	}

	c.JSON(http.StatusCreated, answerView{Answer: answer, Author: profile.Summary(), UserVote: models.VoteNone})
}

// UpdateAnswer edits an answer's content
func (h *AnswerHandler) UpdateAnswer(c *gin.Context) {
	const op = "answers.update"

	id, err := parseID(c, "id")
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	var input models.UpdateAnswerRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}

	var answer models.Answer
	err = h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).Take(&answer).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFound(op, "answer not found")
		}
		if err != nil {
			return err
		}
		if err := authz.Check(currentSubject(c), authz.ActionEditContent, answer.AuthorID); err != nil {
			return err
		}
		answer.Content = input.Content
		return tx.Model(&models.Answer{}).Where("id = ?", id).Update("content", input.Content).Error
	})
	if err != nil {
		respondError(c, h.log, apperrors.FromStore(op, err))
		return
	}

	c.JSON(http.StatusOK, answer)
}

// DeleteAnswer removes an answer with its votes and comments
func (h *AnswerHandler) DeleteAnswer(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	if err := h.engine.DeleteAnswer(c.Request.Context(), currentSubject(c), id); err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Answer deleted successfully"})
}
