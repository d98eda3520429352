package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/emilythestrangee/stackit/backend/internal/apperrors"
	"github.com/emilythestrangee/stackit/backend/internal/authz"
	"github.com/emilythestrangee/stackit/backend/internal/models"
	"github.com/emilythestrangee/stackit/backend/internal/tags"
	"github.com/emilythestrangee/stackit/backend/internal/voting"
)

type QuestionHandler struct {
	db      *gorm.DB
	engine  *voting.Engine
	catalog *tags.Catalog
	log     *slog.Logger
}

func NewQuestionHandler(db *gorm.DB, engine *voting.Engine, catalog *tags.Catalog, log *slog.Logger) *QuestionHandler {
	return &QuestionHandler{db: db, engine: engine, catalog: catalog, log: log}
}

// withTag filters questions carrying tag.
func withTag(db *gorm.DB, tag string) *gorm.DB {
	if db.Dialector.Name() == "postgres" {
		return db.Where("? = ANY(tags)", tag)
	}
	// array literal as written by pq: every element is quoted
	return db.Where("tags LIKE ?", `%"`+tag+`"%`)
}

// GetQuestions lists questions with optional search, tag filter and sort
func (h *QuestionHandler) GetQuestions(c *gin.Context) {
	limit, offset := pagination(c)
	db := h.db.WithContext(c.Request.Context())

	query := db.Model(&models.Question{}).Where("status <> ?", models.QuestionStatusDeleted)
	if tag := strings.ToLower(strings.TrimSpace(c.Query("tag"))); tag != "" {
		query = withTag(query, tag)
	}
	if q := strings.ToLower(strings.TrimSpace(c.Query("q"))); q != "" {
		like := "%" + q + "%"
		query = query.Where("(LOWER(title) LIKE ? OR LOWER(description) LIKE ?)", like, like)
	}

	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		respondError(c, h.log, apperrors.FromStore("questions.count", err))
		return
	}

	switch c.DefaultQuery("sort", "newest") {
	case "votes":
		query = query.Order("votes_count desc").Order("created_at desc")
	case "unanswered":
		query = query.Where("answers_count = 0").Order("created_at desc")
	case "newest":
		query = query.Order("created_at desc")
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "sort must be newest, votes or unanswered"})
		return
	}

	var questions []models.Question
	if err := query.Preload("Author").Limit(limit).Offset(offset).Find(&questions).Error; err != nil {
		respondError(c, h.log, apperrors.FromStore("questions.list", err))
		return
	}

	viewer, _ := currentUserID(c)
	views, err := questionViews(c.Request.Context(), h.engine, viewer, questions)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"questions": views,
		"total":     total,
		"limit":     limit,
		"offset":    offset,
	})
}

// GetQuestion returns a question with its answers and counts the view
func (h *QuestionHandler) GetQuestion(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	ctx := c.Request.Context()
	db := h.db.WithContext(ctx)

	var question models.Question
	err = db.Preload("Author").Where("id = ? AND status <> ?", id, models.QuestionStatusDeleted).Take(&question).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Question not found"})
		return
	}
	if err != nil {
		respondError(c, h.log, apperrors.FromStore("questions.get", err))
		return
	}

	if err := db.Model(&models.Question{}).Where("id = ?", id).
		UpdateColumn("views_count", gorm.Expr("views_count + 1")).Error; err != nil {
		h.log.Warn("failed to count view", "question_id", id, "error", err)
	} else {
		question.ViewsCount++
	}

	var answers []models.Answer
	if err := db.Preload("Author").Where("question_id = ?", id).
		Order("is_accepted desc").Order("votes_count desc").Order("created_at asc").
		Find(&answers).Error; err != nil {
		respondError(c, h.log, apperrors.FromStore("answers.list", err))
		return
	}

	viewer, _ := currentUserID(c)
	qViews, err := questionViews(ctx, h.engine, viewer, []models.Question{question})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	aViews, err := answerViews(ctx, h.engine, viewer, answers)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	view := qViews[0]
	if viewer != uuid.Nil {
		var n int64
		db.Model(&models.Bookmark{}).
			Where("user_id = ? AND target_id = ? AND target_type = ?", viewer, id, models.TargetQuestion).
			Count(&n)
		view.Bookmarked = n > 0
	}

	c.JSON(http.StatusOK, gin.H{
		"question": view,
		"answers":  aViews,
	})
}

// CreateQuestion creates a new question
func (h *QuestionHandler) CreateQuestion(c *gin.Context) {
	profile := currentProfile(c)
	if err := authz.Check(currentSubject(c), authz.ActionCreateContent, uuid.Nil); err != nil {
		respondError(c, h.log, err)
		return
	}

	var input models.CreateQuestionRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	names, err := tags.Normalize(input.Tags)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	question := models.Question{
		Title:       strings.TrimSpace(input.Title),
		Description: input.Description,
		AuthorID:    profile.ID,
		Tags:        models.TagList(names),
	}
	err = h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&question).Error; err != nil {
			return err
		}
		if err := tags.Apply(tx, names, nil); err != nil {
			return err
		}
		return tx.Model(&models.Profile{}).Where("id = ?", profile.ID).
			UpdateColumn("questions_count", gorm.Expr("questions_count + 1")).Error
	})
	if err != nil {
		respondError(c, h.log, apperrors.FromStore("questions.create", err))
		return
	}
	h.catalog.Invalidate()

	question.Author = profile
	c.JSON(http.StatusCreated, questionView{Question: question, Author: profile.Summary(), UserVote: models.VoteNone})
}

// UpdateQuestion edits title, description or tags
func (h *QuestionHandler) UpdateQuestion(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	var input models.UpdateQuestionRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	var names []string
	if input.Tags != nil {
		if names, err = tags.Normalize(input.Tags); err != nil {
			respondError(c, h.log, err)
			return
		}
	}

	var question models.Question
	err = h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND status <> ?", id, models.QuestionStatusDeleted).Take(&question).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFound("questions.update", "question not found")
		}
		if err != nil {
			return err
		}
		if err := authz.Check(currentSubject(c), authz.ActionEditContent, question.AuthorID); err != nil {
			return err
		}

		updates := map[string]any{}
		if input.Title != nil {
			question.Title = strings.TrimSpace(*input.Title)
			updates["title"] = question.Title
		}
		if input.Description != nil {
			question.Description = *input.Description
			updates["description"] = question.Description
		}
		if names != nil {
			added, removed := tags.Diff(question.Tags, names)
			if err := tags.Apply(tx, added, removed); err != nil {
				return err
			}
			question.Tags = models.TagList(names)
			updates["tags"] = question.Tags
		}
		if len(updates) == 0 {
			return nil
		}
		return tx.Model(&models.Question{}).Where("id = ?", id).Updates(updates).Error
	})
	if err != nil {
		respondError(c, h.log, apperrors.FromStore("questions.update", err))
		return
	}
	if names != nil {
		h.catalog.Invalidate()
	}

	c.JSON(http.StatusOK, question)
}

// DeleteQuestion soft-deletes a question
func (h *QuestionHandler) DeleteQuestion(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	err = h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		var question models.Question
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND status <> ?", id, models.QuestionStatusDeleted).Take(&question).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFound("questions.delete", "question not found")
		}
		if err != nil {
			return err
		}
		if err := authz.Check(currentSubject(c), authz.ActionDeleteContent, question.AuthorID); err != nil {
			return err
		}
		return softDelete(tx, &question)
	})
	if err != nil {
		respondError(c, h.log, apperrors.FromStore("questions.delete", err))
		return
	}
	h.catalog.Invalidate()

	c.JSON(http.StatusOK, gin.H{"message": "Question deleted successfully"})
}

// softDelete marks q deleted and releases its tag usage and author count.
func softDelete(tx *gorm.DB, q *models.Question) error {
	if err := tx.Model(&models.Question{}).Where("id = ?", q.ID).
		Update("status", models.QuestionStatusDeleted).Error; err != nil {
		return err
	}
	if err := tags.Apply(tx, nil, q.Tags); err != nil {
		return err
	}
	return tx.Model(&models.Profile{}).Where("id = ? AND questions_count > 0", q.AuthorID).
		UpdateColumn("questions_count", gorm.Expr("questions_count - 1")).Error
}

// restore reverses softDelete for a question moving back to a live status.
func restore(tx *gorm.DB, q *models.Question) error {
	if err := tags.Apply(tx, q.Tags, nil); err != nil {
		return err
	}
	return tx.Model(&models.Profile{}).Where("id = ?", q.AuthorID).
		UpdateColumn("questions_count", gorm.Expr("questions_count + 1")).Error
}
