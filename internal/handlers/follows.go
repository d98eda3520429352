package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/emilythestrangee/stackit/backend/internal/apperrors"
	"github.com/emilythestrangee/stackit/backend/internal/models"
)

type FollowHandler struct {
	db  *gorm.DB
	log *slog.Logger
}

func NewFollowHandler(db *gorm.DB, log *slog.Logger) *FollowHandler {
	return &FollowHandler{db: db, log: log}
}

// FollowUser follows a user
func (h *FollowHandler) FollowUser(c *gin.Context) {
	followingID, err := parseID(c, "id")
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	profile := currentProfile(c)

	if followingID == profile.ID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "You cannot follow yourself"})
		return
	}

	db := h.db.WithContext(c.Request.Context())
	var followingUser models.Profile
	if err := db.Select("id").Where("id = ?", followingID).Take(&followingUser).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		respondError(c, h.log, apperrors.FromStore("follows.create", err))
		return
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "follower_id"}, {Name: "following_id"}},
			DoNothing: true,
		}).Create(&models.Follow{FollowerID: profile.ID, FollowingID: followingID})
		if res.Error != nil || res.RowsAffected == 0 {
			return res.Error
		}

		sender := profile.ID
		target := profile.ID
		return tx.Create(&models.Notification{
			UserID:     followingID,
			SenderID:   &sender,
			Type:       models.NotificationFollow,
			Title:      "New follower",
			Message:    fmt.Sprintf("%s started following you", profile.Username),
			TargetID:   &target,
			TargetType: "profile",
		}).Error
	})
	if err != nil {
		respondError(c, h.log, apperrors.FromStore("follows.create", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Successfully followed user"})
}

// UnfollowUser unfollows a user
func (h *FollowHandler) UnfollowUser(c *gin.Context) {
	followingID, err := parseID(c, "id")
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	profile := currentProfile(c)

	if err := h.db.WithContext(c.Request.Context()).
		Where("follower_id = ? AND following_id = ?", profile.ID, followingID).
		Delete(&models.Follow{}).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to unfollow"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Successfully unfollowed user"})
}

// GetFollowers returns a user's followers
func (h *FollowHandler) GetFollowers(c *gin.Context) {
	h.list(c, "following_id", "Follower")
}

// GetFollowing returns users that a user is following
func (h *FollowHandler) GetFollowing(c *gin.Context) {
	h.list(c, "follower_id", "Following")
}

func (h *FollowHandler) list(c *gin.Context, column, preload string) {
	userID, err := parseID(c, "id")
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	var follows []models.Follow
	if err := h.db.WithContext(c.Request.Context()).
		Where(column+" = ?", userID).Preload(preload).
		Order("created_at desc").Find(&follows).Error; err != nil {
		respondError(c, h.log, apperrors.FromStore("follows.list", err))
		return
	}

	users := make([]*models.ProfileSummary, 0, len(follows))
	for _, follow := range follows {
		p := follow.Following
		if preload == "Follower" {
			p = follow.Follower
		}
		if p != nil {
			users = append(users, p.Summary())
		}
	}

	c.JSON(http.StatusOK, users)
}
