// Package authz holds the per-operation permission checks applied before any
// mutation reaches the store.
package authz

import (
	"github.com/google/uuid"

	"github.com/emilythestrangee/stackit/backend/internal/apperrors"
	"github.com/emilythestrangee/stackit/backend/internal/models"
)

type Action string

const (
	ActionVote          Action = "vote"
	ActionAcceptAnswer  Action = "accept_answer"
	ActionCreateContent Action = "create_content"
	ActionEditContent   Action = "edit_content"
	ActionDeleteContent Action = "delete_content"
	ActionModerate      Action = "moderate"
)

// Subject is the acting user as seen by the checks.
type Subject struct {
	ID     uuid.UUID
	Role   models.Role
	Banned bool
}

// SubjectOf builds a Subject from a stored profile. A nil profile is a guest.
func SubjectOf(p *models.Profile) Subject {
	if p == nil {
		return Subject{Role: models.RoleGuest}
	}
	return Subject{ID: p.ID, Role: p.Role, Banned: p.IsBanned}
}

func (s Subject) staff() bool {
	return s.Role == models.RoleModerator || s.Role == models.RoleAdmin
}

// Check returns an authorization error when s may not perform action on
// content owned by ownerID. ownerID is ignored by create_content and moderate.
func Check(s Subject, action Action, ownerID uuid.UUID) error {
	op := "authz." + string(action)

	if s.ID == uuid.Nil || s.Role == models.RoleGuest || s.Role == "" {
		return apperrors.Authorization(op, "a profile is required")
	}
	if s.Banned {
		return apperrors.Authorization(op, "account is banned")
	}

	switch action {
	case ActionVote:
		if s.ID == ownerID {
			return apperrors.Authorization(op, "you cannot vote on your own content")
		}
	case ActionAcceptAnswer:
		if s.ID != ownerID {
			return apperrors.Authorization(op, "only the question author can accept an answer")
		}
	case ActionCreateContent:
	case ActionEditContent, ActionDeleteContent:
		if s.ID != ownerID && !s.staff() {
			return apperrors.Authorization(op, "you can only change your own content")
		}
	case ActionModerate:
		if !s.staff() {
			return apperrors.Authorization(op, "moderator role required")
		}
	default:
		return apperrors.Authorization(op, "unknown action")
	}
	return nil
}
