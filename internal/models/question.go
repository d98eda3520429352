package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type QuestionStatus string

const (
	QuestionStatusActive  QuestionStatus = "active"
	QuestionStatusClosed  QuestionStatus = "closed"
	QuestionStatusFlagged QuestionStatus = "flagged"
	QuestionStatusDeleted QuestionStatus = "deleted"
)

func (s QuestionStatus) Valid() bool {
	switch s {
	case QuestionStatusActive, QuestionStatusClosed, QuestionStatusFlagged, QuestionStatusDeleted:
		return true
	}
	return false
}

// AcceptsAnswers reports whether new answers may be posted.
func (s QuestionStatus) AcceptsAnswers() bool {
	return s == QuestionStatusActive || s == QuestionStatusFlagged
}

type Question struct {
	ID               uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Title            string         `gorm:"not null" json:"title"`
	Description      string         `gorm:"not null" json:"description"`
	AuthorID         uuid.UUID      `gorm:"type:uuid;not null;index:idx_questions_author" json:"author_id"`
	Author           *Profile       `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"-"`
	Status           QuestionStatus `gorm:"type:varchar(16);not null;default:'active';index:idx_questions_status;check:chk_questions_status,status IN ('active','closed','flagged','deleted')" json:"status"`
	Tags             TagList        `json:"tags"`
	ViewsCount       int            `gorm:"not null;default:0" json:"views_count"`
	VotesCount       int            `gorm:"not null;default:0" json:"votes_count"`
	AnswersCount     int            `gorm:"not null;default:0" json:"answers_count"`
	AcceptedAnswerID *uuid.UUID     `gorm:"type:uuid" json:"accepted_answer_id"`
	IsFeatured       bool           `gorm:"not null;default:false" json:"is_featured"`
	BountyAmount     int            `gorm:"not null;default:0" json:"bounty_amount"`
	Answers          []Answer       `gorm:"foreignKey:QuestionID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt        time.Time      `gorm:"index:idx_questions_created_at" json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

func (q *Question) BeforeCreate(tx *gorm.DB) error {
	assignID(&q.ID)
	if q.Status == "" {
		q.Status = QuestionStatusActive
	}
	if q.Tags == nil {
		q.Tags = TagList{}
	}
	return nil
}

type CreateQuestionRequest struct {
	Title       string   `json:"title" binding:"required,min=10,max=300"`
	Description string   `json:"description" binding:"required,min=20"`
	Tags        []string `json:"tags" binding:"required,min=1"`
}

type UpdateQuestionRequest struct {
	Title       *string  `json:"title" binding:"omitempty,min=10,max=300"`
	Description *string  `json:"description" binding:"omitempty,min=20"`
	Tags        []string `json:"tags"`
}
