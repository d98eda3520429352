package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/emilythestrangee/stackit/backend/internal/apperrors"
	"github.com/emilythestrangee/stackit/backend/internal/authz"
	"github.com/emilythestrangee/stackit/backend/internal/middleware"
	"github.com/emilythestrangee/stackit/backend/internal/models"
)

const (
	contextProfile = "profile"

	defaultLimit = 20
	maxLimit     = 100
)

// respondError writes err with the status its kind maps to. Server-side
// failures are logged and shown with a generic retry message.
func respondError(c *gin.Context, log *slog.Logger, err error) {
	status := apperrors.HTTPStatus(err)
	if status >= http.StatusInternalServerError || status == http.StatusConflict {
		log.Error("request failed",
			"event", c.FullPath(),
			"method", c.Request.Method,
			"status", status,
			"error", err)
	}
	_ = c.Error(err)
	c.JSON(status, gin.H{"error": apperrors.PublicMessage(err)})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

// currentUserID returns the authenticated user, if any.
func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	return middleware.UserID(c)
}

// currentProfile returns the profile loaded by ProfileHandler.Ensure.
func currentProfile(c *gin.Context) *models.Profile {
	raw, ok := c.Get(contextProfile)
	if !ok {
		return nil
	}
	p, _ := raw.(*models.Profile)
	return p
}

func currentSubject(c *gin.Context) authz.Subject {
	return authz.SubjectOf(currentProfile(c))
}

func parseID(c *gin.Context, param string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil || id == uuid.Nil {
		return uuid.Nil, apperrors.Validation("parse_id", "invalid %s", param)
	}
	return id, nil
}

// pagination reads limit and offset query parameters.
func pagination(c *gin.Context) (limit, offset int) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultLimit)))
	if err != nil || limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	offset, err = strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return limit, offset
}
