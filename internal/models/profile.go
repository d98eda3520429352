package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Role string

const (
	RoleGuest     Role = "guest"
	RoleUser      Role = "user"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

// Profile is the identity-linked user record. ID is the subject issued by the
// identity provider.
type Profile struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Username       string         `gorm:"uniqueIndex:idx_profiles_username;not null" json:"username"`
	DisplayName    string         `json:"display_name"`
	Bio            string         `json:"bio"`
	AvatarURL      string         `json:"avatar_url"`
	Location       string         `json:"location"`
	Website        string         `json:"website"`
	Role           Role           `gorm:"type:varchar(16);not null;default:'user';check:chk_profiles_role,role IN ('guest','user','moderator','admin')" json:"role"`
	Reputation     int            `gorm:"not null;default:0" json:"reputation"`
	QuestionsCount int            `gorm:"not null;default:0" json:"questions_count"`
	AnswersCount   int            `gorm:"not null;default:0" json:"answers_count"`
	VotesReceived  int            `gorm:"not null;default:0" json:"votes_received"`
	Badges         datatypes.JSON `gorm:"default:'[]'" json:"badges"`
	IsVerified     bool           `gorm:"not null;default:false" json:"is_verified"`
	IsBanned       bool           `gorm:"not null;default:false" json:"is_banned"`
	LastSeen       time.Time      `json:"last_seen"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

func (p *Profile) BeforeCreate(tx *gorm.DB) error {
	if p.Role == "" {
		p.Role = RoleUser
	}
	if p.Badges == nil {
		p.Badges = datatypes.JSON("[]")
	}
	return nil
}

// IsStaff reports whether the profile may moderate content.
func (p *Profile) IsStaff() bool {
	return p.Role == RoleModerator || p.Role == RoleAdmin
}

// ProfileSummary is the author block embedded in listings.
type ProfileSummary struct {
	ID          uuid.UUID `json:"id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name"`
	AvatarURL   string    `json:"avatar_url"`
	Reputation  int       `json:"reputation"`
}

func (p *Profile) Summary() *ProfileSummary {
	if p == nil {
		return nil
	}
	return &ProfileSummary{
		ID:          p.ID,
		Username:    p.Username,
		DisplayName: p.DisplayName,
		AvatarURL:   p.AvatarURL,
		Reputation:  p.Reputation,
	}
}

type UpdateProfileRequest struct {
	DisplayName *string `json:"display_name" binding:"omitempty,max=80"`
	Bio         *string `json:"bio" binding:"omitempty,max=2000"`
	AvatarURL   *string `json:"avatar_url" binding:"omitempty,max=500"`
	Location    *string `json:"location" binding:"omitempty,max=120"`
	Website     *string `json:"website" binding:"omitempty,max=300"`
}
