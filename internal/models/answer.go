package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Answer struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	QuestionID uuid.UUID `gorm:"type:uuid;not null;index:idx_answers_question" json:"question_id"`
	Content    string    `gorm:"not null" json:"content"`
	AuthorID   uuid.UUID `gorm:"type:uuid;not null;index:idx_answers_author" json:"author_id"`
	Author     *Profile  `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"-"`
	VotesCount int       `gorm:"not null;default:0" json:"votes_count"`
	IsAccepted bool      `gorm:"not null;default:false" json:"is_accepted"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (a *Answer) BeforeCreate(tx *gorm.DB) error {
	assignID(&a.ID)
	return nil
}

type CreateAnswerRequest struct {
	Content string `json:"content" binding:"required,min=20"`
}

type UpdateAnswerRequest struct {
	Content string `json:"content" binding:"required,min=20"`
}

type AcceptAnswerRequest struct {
	AnswerID string `json:"answer_id" binding:"required"`
}
