package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ModerationAction string

const (
	ModerationSetStatus ModerationAction = "set_status"
	ModerationBan       ModerationAction = "ban"
	ModerationUnban     ModerationAction = "unban"
)

type ModerationLog struct {
	ID          uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	ModeratorID uuid.UUID        `gorm:"type:uuid;not null" json:"moderator_id"`
	TargetID    uuid.UUID        `gorm:"type:uuid;not null" json:"target_id"`
	TargetType  string           `gorm:"not null" json:"target_type"`
	Action      ModerationAction `gorm:"not null" json:"action"`
	Reason      string           `json:"reason"`
	CreatedAt   time.Time        `gorm:"index:idx_moderation_logs_created_at" json:"created_at"`
}

func (m *ModerationLog) BeforeCreate(tx *gorm.DB) error {
	assignID(&m.ID)
	return nil
}

type SetStatusRequest struct {
	Status string `json:"status" binding:"required"`
	Reason string `json:"reason" binding:"max=500"`
}

type BanRequest struct {
	Banned bool   `json:"banned"`
	Reason string `json:"reason" binding:"max=500"`
}
