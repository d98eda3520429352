package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NotificationType string

const (
	NotificationAnswer   NotificationType = "answer"
	NotificationVote     NotificationType = "vote"
	NotificationFollow   NotificationType = "follow"
	NotificationAccepted NotificationType = "accepted"
	NotificationMention  NotificationType = "mention"
	NotificationSystem   NotificationType = "system"
)

type Notification struct {
	ID         uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     uuid.UUID        `gorm:"type:uuid;not null;index:idx_notifications_user,priority:1" json:"user_id"`
	SenderID   *uuid.UUID       `gorm:"type:uuid" json:"sender_id,omitempty"`
	Sender     *Profile         `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
	Type       NotificationType `gorm:"type:varchar(16);not null" json:"type"`
	Title      string           `gorm:"not null" json:"title"`
	Message    string           `json:"message"`
	TargetID   *uuid.UUID       `gorm:"type:uuid" json:"target_id,omitempty"`
	TargetType string           `json:"target_type,omitempty"`
	Read       bool             `gorm:"not null;default:false;index:idx_notifications_user,priority:2" json:"read"`
	CreatedAt  time.Time        `json:"created_at"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	assignID(&n.ID)
	return nil
}
