package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/emilythestrangee/stackit/backend/internal/apperrors"
	"github.com/emilythestrangee/stackit/backend/internal/middleware"
	"github.com/emilythestrangee/stackit/backend/internal/models"
)

const lastSeenInterval = 5 * time.Minute

type ProfileHandler struct {
	db  *gorm.DB
	log *slog.Logger
}

func NewProfileHandler(db *gorm.DB, log *slog.Logger) *ProfileHandler {
	return &ProfileHandler{db: db, log: log}
}

// Ensure loads the caller's profile, creating it on the first authenticated
// request, and stores it on the context. It must run after AuthMiddleware.
func (h *ProfileHandler) Ensure() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
			return
		}

		profile, err := h.ensure(c, userID)
		if err != nil {
			respondError(c, h.log, err)
			c.Abort()
			return
		}

		c.Set(contextProfile, profile)
		c.Next()
	}
}

func (h *ProfileHandler) ensure(c *gin.Context, userID uuid.UUID) (*models.Profile, error) {
	db := h.db.WithContext(c.Request.Context())

	var profile models.Profile
	err := db.Where("id = ?", userID).Take(&profile).Error
	if err == nil {
		if time.Since(profile.LastSeen) > lastSeenInterval {
			now := time.Now().UTC()
			if err := db.Model(&profile).UpdateColumn("last_seen", now).Error; err != nil {
				h.log.Warn("failed to update last_seen", "user_id", userID, "error", err)
			}
			profile.LastSeen = now
		}
		return &profile, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.FromStore("profile.load", err)
	}

	displayName := ""
	if claims, ok := middleware.ClaimsFrom(c); ok {
		displayName = claims.Email
	}
	base := "user_" + userID.String()[:8]
	profile = models.Profile{
		ID:          userID,
		Username:    h.ensureUniqueUsername(db, base),
		DisplayName: displayName,
		Role:        models.RoleUser,
		LastSeen:    time.Now().UTC(),
	}
	if displayName == "" {
		profile.DisplayName = profile.Username
	}

	if err := db.Create(&profile).Error; err != nil {
		// a concurrent first request may have created it
		var existing models.Profile
		if db.Where("id = ?", userID).Take(&existing).Error == nil {
			return &existing, nil
		}
		return nil, apperrors.FromStore("profile.create", err)
	}

	h.log.Info("profile created", "user_id", userID, "username", profile.Username)
	return &profile, nil
}

func (h *ProfileHandler) ensureUniqueUsername(db *gorm.DB, baseUsername string) string {
	username := baseUsername
	counter := 1

	for {
		var n int64
		if err := db.Model(&models.Profile{}).Where("username = ?", username).Count(&n).Error; err != nil || n == 0 {
			return username
		}
		username = fmt.Sprintf("%s%d", baseUsername, counter)
		counter++
	}
}

// GetMe returns the caller's own profile
func (h *ProfileHandler) GetMe(c *gin.Context) {
	c.JSON(http.StatusOK, currentProfile(c))
}

// UpdateMe updates the caller's editable profile fields
func (h *ProfileHandler) UpdateMe(c *gin.Context) {
	profile := currentProfile(c)

	var input models.UpdateProfileRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}

	updates := map[string]any{}
	if input.DisplayName != nil {
		updates["display_name"] = *input.DisplayName
	}
	if input.Bio != nil {
		updates["bio"] = *input.Bio
	}
	if input.AvatarURL != nil {
		updates["avatar_url"] = *input.AvatarURL
	}
	if input.Location != nil {
		updates["location"] = *input.Location
	}
	if input.Website != nil {
		updates["website"] = *input.Website
	}

	db := h.db.WithContext(c.Request.Context())
	if len(updates) > 0 {
		if err := db.Model(&models.Profile{}).Where("id = ?", profile.ID).Updates(updates).Error; err != nil {
			respondError(c, h.log, apperrors.FromStore("profile.update", err))
			return
		}
	}

	var updated models.Profile
	if err := db.Where("id = ?", profile.ID).Take(&updated).Error; err != nil {
		respondError(c, h.log, apperrors.FromStore("profile.reload", err))
		return
	}
	c.JSON(http.StatusOK, updated)
}

// GetProfile returns a user's public profile
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	userID, err := parseID(c, "id")
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	db := h.db.WithContext(c.Request.Context())

	var profile models.Profile
	if err := db.Where("id = ?", userID).Take(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		respondError(c, h.log, apperrors.FromStore("profile.get", err))
		return
	}

	var questions []models.Question
	db.Where("author_id = ? AND status <> ?", userID, models.QuestionStatusDeleted).
		Order("created_at desc").Limit(10).Find(&questions)

	var followerCount, followingCount int64
	db.Model(&models.Follow{}).Where("following_id = ?", userID).Count(&followerCount)
	db.Model(&models.Follow{}).Where("follower_id = ?", userID).Count(&followingCount)

	isFollowing := false
	if currentID, ok := currentUserID(c); ok {
		var n int64
		db.Model(&models.Follow{}).Where("follower_id = ? AND following_id = ?", currentID, userID).Count(&n)
		isFollowing = n > 0
	}

	if questions == nil {
		questions = []models.Question{}
	}
	c.JSON(http.StatusOK, gin.H{
		"user":             profile,
		"recent_questions": questions,
		"follower_count":   followerCount,
		"following_count":  followingCount,
		"is_following":     isFollowing,
	})
}
