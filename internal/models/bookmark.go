package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Bookmark struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_bookmarks_user_target,priority:1" json:"user_id"`
	TargetID   uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_bookmarks_user_target,priority:2" json:"target_id"`
	TargetType TargetType `gorm:"type:varchar(16);not null;uniqueIndex:idx_bookmarks_user_target,priority:3;check:chk_bookmarks_target_type,target_type IN ('question','answer')" json:"target_type"`
	CreatedAt  time.Time  `json:"created_at"`
}

func (b *Bookmark) BeforeCreate(tx *gorm.DB) error {
	assignID(&b.ID)
	return nil
}

type BookmarkRequest struct {
	TargetID   string `json:"target_id" binding:"required"`
	TargetType string `json:"target_type" binding:"required"`
}
