package voting

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/emilythestrangee/stackit/backend/internal/apperrors"
	"github.com/emilythestrangee/stackit/backend/internal/authz"
	"github.com/emilythestrangee/stackit/backend/internal/models"
)

// Reputation awarded to a content author per live vote.
const (
	RepQuestionUpvote = 5
	RepAnswerUpvote   = 10
	RepDownvote       = -2
	RepAccepted       = 15
)

type VoteResult struct {
	VoteCount int                  `json:"vote_count"`
	UserVote  models.VoteDirection `json:"user_vote"`
}

// Outcome labels reported for each vote submission.
const (
	OutcomeAdded      = "added"
	OutcomeToggledOff = "toggled_off"
	OutcomeSwitched   = "switched"
	OutcomeRejected   = "rejected"
	OutcomeFailed     = "failed"
)

// Transition returns the vote state after requesting dir while holding prev,
// and the resulting change to the target's counter. Requesting the held
// direction withdraws the vote.
func Transition(prev, dir models.VoteDirection) (next models.VoteDirection, delta int) {
	next = dir
	if prev == dir {
		next = models.VoteNone
	}
	return next, next.Value() - prev.Value()
}

func outcome(prev, next models.VoteDirection) string {
	switch {
	case next == models.VoteNone:
		return OutcomeToggledOff
	case prev == models.VoteNone:
		return OutcomeAdded
	}
	return OutcomeSwitched
}

func reputationFor(tt models.TargetType, d models.VoteDirection) int {
	switch d {
	case models.VoteUp:
		if tt == models.TargetAnswer {
			return RepAnswerUpvote
		}
		return RepQuestionUpvote
	case models.VoteDown:
		return RepDownvote
	}
	return 0
}

// ParseTarget validates raw target identifiers from a request.
func ParseTarget(rawID, rawType string) (uuid.UUID, models.TargetType, error) {
	const op = "voting.parse_target"

	tt := models.TargetType(strings.ToLower(strings.TrimSpace(rawType)))
	if !tt.Valid() {
		return uuid.Nil, "", apperrors.Validation(op, "target type must be question or answer")
	}
	id, err := uuid.Parse(strings.TrimSpace(rawID))
	if err != nil || id == uuid.Nil {
		return uuid.Nil, "", apperrors.Validation(op, "invalid target id")
	}
	return id, tt, nil
}

// ParseDirection accepts "up" or "down".
func ParseDirection(raw string) (models.VoteDirection, error) {
	d := models.VoteDirection(strings.ToLower(strings.TrimSpace(raw)))
	if d != models.VoteUp && d != models.VoteDown {
		return "", apperrors.Validation("voting.parse_direction", "direction must be up or down")
	}
	return d, nil
}

// target is the locked row a vote applies to.
type target struct {
	ID       uuid.UUID
	Type     models.TargetType
	AuthorID uuid.UUID
}

func modelFor(tt models.TargetType) any {
	if tt == models.TargetAnswer {
		return &models.Answer{}
	}
	return &models.Question{}
}

// lockTarget takes a row lock on the target and checks it can receive votes.
func lockTarget(tx *gorm.DB, op string, id uuid.UUID, tt models.TargetType) (target, error) {
	locking := clause.Locking{Strength: "UPDATE"}

	switch tt {
	case models.TargetQuestion:
		var q models.Question
		err := tx.Clauses(locking).Select("id", "author_id", "status").Where("id = ?", id).Take(&q).Error
		if isNotFound(err) {
			return target{}, apperrors.Validation(op, "question does not exist")
		}
		if err != nil {
			return target{}, err
		}
		if q.Status == models.QuestionStatusDeleted {
			return target{}, apperrors.Validation(op, "question has been deleted")
		}
		return target{ID: q.ID, Type: tt, AuthorID: q.AuthorID}, nil

	case models.TargetAnswer:
		var a models.Answer
		err := tx.Clauses(locking).Select("id", "author_id", "question_id").Where("id = ?", id).Take(&a).Error
		if isNotFound(err) {
			return target{}, apperrors.Validation(op, "answer does not exist")
		}
		if err != nil {
			return target{}, err
		}
		var q models.Question
		if err := tx.Select("id", "status").Where("id = ?", a.QuestionID).Take(&q).Error; err != nil {
			if isNotFound(err) {
				return target{}, apperrors.Validation(op, "answer does not exist")
			}
			return target{}, err
		}
		if q.Status == models.QuestionStatusDeleted {
			return target{}, apperrors.Validation(op, "question has been deleted")
		}
		return target{ID: a.ID, Type: tt, AuthorID: a.AuthorID}, nil
	}
	return target{}, apperrors.Validation(op, "target type must be question or answer")
}

func loadVoter(tx *gorm.DB, op string, userID uuid.UUID) (*models.Profile, error) {
	var p models.Profile
	err := tx.Select("id", "username", "role", "is_banned").Where("id = ?", userID).Take(&p).Error
	if isNotFound(err) {
		return nil, apperrors.Authorization(op, "a profile is required")
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func readCount(tx *gorm.DB, tt models.TargetType, id uuid.UUID) (int, error) {
	var count int
	err := tx.Model(modelFor(tt)).Select("votes_count").Where("id = ?", id).Scan(&count).Error
	return count, err
}

// SubmitVote records dir from userID on the target. Repeating the held
// direction withdraws the vote; the opposite direction replaces it.
func (e *Engine) SubmitVote(ctx context.Context, userID, targetID uuid.UUID, tt models.TargetType, dir models.VoteDirection) (VoteResult, error) {
	const op = opSubmitVote

	if !tt.Valid() {
		e.recorder.RecordVote(string(tt), OutcomeRejected)
		return VoteResult{}, apperrors.Validation(op, "target type must be question or answer")
	}
	if dir != models.VoteUp && dir != models.VoteDown {
		e.recorder.RecordVote(string(tt), OutcomeRejected)
		return VoteResult{}, apperrors.Validation(op, "direction must be up or down")
	}
	if targetID == uuid.Nil {
		e.recorder.RecordVote(string(tt), OutcomeRejected)
		return VoteResult{}, apperrors.Validation(op, "invalid target id")
	}

	var (
		result VoteResult
		label  string
	)
	err := e.transact(ctx, op, func(tx *gorm.DB) error {
		voter, err := loadVoter(tx, op, userID)
		if err != nil {
			return err
		}
		// reject banned voters before taking the target lock
		if err := authz.Check(authz.SubjectOf(voter), authz.ActionVote, uuid.Nil); err != nil {
			return err
		}

		t, err := lockTarget(tx, op, targetID, tt)
		if err != nil {
			return err
		}
		if err := authz.Check(authz.SubjectOf(voter), authz.ActionVote, t.AuthorID); err != nil {
			return err
		}

		var existing models.Vote
		res := tx.Where("user_id = ? AND target_id = ? AND target_type = ?", userID, targetID, tt).Limit(1).Find(&existing)
		if res.Error != nil {
			return res.Error
		}
		prev := models.VoteNone
		if res.RowsAffected > 0 {
			prev = existing.VoteType
		}

		next, delta := Transition(prev, dir)

		switch {
		case prev == models.VoteNone:
			err = tx.Create(&models.Vote{UserID: userID, TargetID: targetID, TargetType: tt, VoteType: next}).Error
		case next == models.VoteNone:
			err = tx.Delete(&models.Vote{}, "id = ?", existing.ID).Error
		default:
			err = tx.Model(&models.Vote{}).Where("id = ?", existing.ID).Update("vote_type", next).Error
		}
		if err != nil {
			return err
		}

		if err := tx.Model(modelFor(tt)).Where("id = ?", targetID).
			UpdateColumn("votes_count", gorm.Expr("votes_count + ?", delta)).Error; err != nil {
			return err
		}

		repDelta := reputationFor(tt, next) - reputationFor(tt, prev)
		if err := tx.Model(&models.Profile{}).Where("id = ?", t.AuthorID).UpdateColumns(map[string]any{
			"votes_received": gorm.Expr("votes_received + ?", delta),
			"reputation":     gorm.Expr("reputation + ?", repDelta),
		}).Error; err != nil {
			return err
		}

		if next != models.VoteNone {
			if err := tx.Create(voteNotification(voter, t, next)).Error; err != nil {
				return err
			}
		}

		count, err := readCount(tx, tt, targetID)
		if err != nil {
			return err
		}
		result = VoteResult{VoteCount: count, UserVote: next}
		label = outcome(prev, next)
		return nil
	})
	if err != nil {
		if apperrors.IsRetryable(err) || apperrors.KindOf(err) == apperrors.KindInternal {
			e.recorder.RecordVote(string(tt), OutcomeFailed)
		} else {
			e.recorder.RecordVote(string(tt), OutcomeRejected)
		}
		return VoteResult{}, err
	}

	e.recorder.RecordVote(string(tt), label)
	e.logger.Debug("vote applied",
		"user_id", userID,
		"target_id", targetID,
		"target_type", tt,
		"outcome", label,
		"vote_count", result.VoteCount)
	return result, nil
}

func voteNotification(voter *models.Profile, t target, dir models.VoteDirection) *models.Notification {
	word := "upvoted"
	if dir == models.VoteDown {
		word = "downvoted"
	}
	id := t.ID
	sender := voter.ID
	return &models.Notification{
		UserID:     t.AuthorID,
		SenderID:   &sender,
		Type:       models.NotificationVote,
		Title:      fmt.Sprintf("Your %s was %s", t.Type, word),
		Message:    fmt.Sprintf("%s %s your %s", voter.Username, word, t.Type),
		TargetID:   &id,
		TargetType: string(t.Type),
	}
}
