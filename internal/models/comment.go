package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Comment struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	TargetID   uuid.UUID  `gorm:"type:uuid;not null;index:idx_comments_target,priority:1" json:"target_id"`
	TargetType TargetType `gorm:"type:varchar(16);not null;index:idx_comments_target,priority:2;check:chk_comments_target_type,target_type IN ('question','answer')" json:"target_type"`
	Content    string     `gorm:"not null" json:"content"`
	AuthorID   uuid.UUID  `gorm:"type:uuid;not null" json:"author_id"`
	Author     *Profile   `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"author,omitempty"`
	ParentID   *uuid.UUID `gorm:"type:uuid" json:"parent_id,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	assignID(&c.ID)
	return nil
}

type CreateCommentRequest struct {
	Content  string  `json:"content" binding:"required,min=2,max=600"`
	ParentID *string `json:"parent_id,omitempty"`
}
