package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TargetType names the kind of content a vote, comment or bookmark points at.
type TargetType string

const (
	TargetQuestion TargetType = "question"
	TargetAnswer   TargetType = "answer"
)

func (t TargetType) Valid() bool {
	return t == TargetQuestion || t == TargetAnswer
}

// VoteDirection is the stored direction of a vote. VoteNone is never stored;
// it reports that a user holds no vote on a target.
type VoteDirection string

const (
	VoteUp   VoteDirection = "up"
	VoteDown VoteDirection = "down"
	VoteNone VoteDirection = "none"
)

// Value is the contribution of the direction to a target's vote count.
func (d VoteDirection) Value() int {
	switch d {
	case VoteUp:
		return 1
	case VoteDown:
		return -1
	}
	return 0
}

// Vote tracks one user's live vote on a question or answer.
type Vote struct {
	ID         uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     uuid.UUID     `gorm:"type:uuid;not null;uniqueIndex:idx_votes_user_target,priority:1;index:idx_votes_user" json:"user_id"`
	TargetID   uuid.UUID     `gorm:"type:uuid;not null;uniqueIndex:idx_votes_user_target,priority:2;index:idx_votes_target,priority:1" json:"target_id"`
	TargetType TargetType    `gorm:"type:varchar(16);not null;uniqueIndex:idx_votes_user_target,priority:3;index:idx_votes_target,priority:2;check:chk_votes_target_type,target_type IN ('question','answer')" json:"target_type"`
	VoteType   VoteDirection `gorm:"type:varchar(8);not null;check:chk_votes_vote_type,vote_type IN ('up','down')" json:"vote_type"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

func (v *Vote) BeforeCreate(tx *gorm.DB) error {
	assignID(&v.ID)
	return nil
}

type VoteRequest struct {
	TargetID   string `json:"target_id" binding:"required"`
	TargetType string `json:"target_type" binding:"required"`
	Direction  string `json:"direction" binding:"required"`
}

type DirectionRequest struct {
	Direction string `json:"direction" binding:"required"`
}
