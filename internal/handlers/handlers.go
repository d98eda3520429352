package handlers

import (
	"log/slog"

	"gorm.io/gorm"

	"github.com/emilythestrangee/stackit/backend/internal/logging"
	"github.com/emilythestrangee/stackit/backend/internal/tags"
	"github.com/emilythestrangee/stackit/backend/internal/voting"
)

// Deps are the shared services the handlers are built from.
type Deps struct {
	DB     *gorm.DB
	Engine *voting.Engine
	Tags   *tags.Catalog
	Logger *slog.Logger
}

// Handler combines all handler types
type Handler struct {
	Profile      *ProfileHandler
	Question     *QuestionHandler
	Answer       *AnswerHandler
	Vote         *VoteHandler
	Comment      *CommentHandler
	Notification *NotificationHandler
	Bookmark     *BookmarkHandler
	Follow       *FollowHandler
	Moderation   *ModerationHandler
	Tag          *TagHandler
}

// NewHandler creates a unified handler with all sub-handlers
func NewHandler(d Deps) *Handler {
	if d.Logger == nil {
		d.Logger = logging.Discard()
	}
	log := logging.Module(d.Logger, "handlers")

	return &Handler{
		Profile:      NewProfileHandler(d.DB, log),
		Question:     NewQuestionHandler(d.DB, d.Engine, d.Tags, log),
		Answer:       NewAnswerHandler(d.DB, d.Engine, log),
		Vote:         NewVoteHandler(d.Engine, log),
		Comment:      NewCommentHandler(d.DB, log),
		Notification: NewNotificationHandler(d.DB, log),
		Bookmark:     NewBookmarkHandler(d.DB, log),
		Follow:       NewFollowHandler(d.DB, log),
		Moderation:   NewModerationHandler(d.DB, d.Tags, log),
		Tag:          NewTagHandler(d.Tags, log),
	}
}
