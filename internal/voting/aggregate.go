package voting

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/emilythestrangee/stackit/backend/internal/apperrors"
	"github.com/emilythestrangee/stackit/backend/internal/models"
)

type Aggregate struct {
	TargetID   uuid.UUID         `json:"target_id"`
	TargetType models.TargetType `json:"target_type"`
	VoteCount  int               `json:"vote_count"`
}

// GetAggregate returns the stored vote count of a target.
func (e *Engine) GetAggregate(ctx context.Context, targetID uuid.UUID, tt models.TargetType) (Aggregate, error) {
	const op = "get_aggregate"

	if !tt.Valid() {
		return Aggregate{}, apperrors.Validation(op, "target type must be question or answer")
	}

	var row struct {
		VotesCount int
	}
	q := e.db.WithContext(ctx)
	if tt == models.TargetQuestion {
		q = q.Model(&models.Question{}).Select("votes_count").
			Where("id = ? AND status <> ?", targetID, models.QuestionStatusDeleted)
	} else {
		// answers of a deleted question do not resolve either
		q = q.Model(&models.Answer{}).Select("answers.votes_count").
			Joins("JOIN questions ON questions.id = answers.question_id").
			Where("answers.id = ? AND questions.status <> ?", targetID, models.QuestionStatusDeleted)
	}
	res := q.Limit(1).Scan(&row)
	if res.Error != nil {
		return Aggregate{}, apperrors.FromStore(op, res.Error)
	}
	if res.RowsAffected == 0 {
		return Aggregate{}, apperrors.Validation(op, "%s does not exist", tt)
	}
	return Aggregate{TargetID: targetID, TargetType: tt, VoteCount: row.VotesCount}, nil
}

// UserVote returns the direction userID holds on a target, or VoteNone.
func (e *Engine) UserVote(ctx context.Context, userID, targetID uuid.UUID, tt models.TargetType) (models.VoteDirection, error) {
	votes, err := e.UserVotes(ctx, userID, tt, []uuid.UUID{targetID})
	if err != nil {
		return models.VoteNone, err
	}
	if d, ok := votes[targetID]; ok {
		return d, nil
	}
	return models.VoteNone, nil
}

// UserVotes returns the directions userID holds on the given targets. Targets
// without a vote are absent from the map.
func (e *Engine) UserVotes(ctx context.Context, userID uuid.UUID, tt models.TargetType, ids []uuid.UUID) (map[uuid.UUID]models.VoteDirection, error) {
	out := make(map[uuid.UUID]models.VoteDirection, len(ids))
	if userID == uuid.Nil || len(ids) == 0 {
		return out, nil
	}

	var votes []models.Vote
	err := e.db.WithContext(ctx).
		Select("target_id", "vote_type").
		Where("user_id = ? AND target_type = ? AND target_id IN ?", userID, tt, ids).
		Find(&votes).Error
	if err != nil {
		return nil, apperrors.FromStore("user_votes", err)
	}
	for _, v := range votes {
		out[v.TargetID] = v.VoteType
	}
	return out, nil
}

const netExpr = "COALESCE(SUM(CASE WHEN vote_type = 'up' THEN 1 WHEN vote_type = 'down' THEN -1 ELSE 0 END), 0)"

func recount(tx *gorm.DB, targetID uuid.UUID, tt models.TargetType) (int, error) {
	var net int
	err := tx.Model(&models.Vote{}).
		Select(netExpr).
		Where("target_id = ? AND target_type = ?", targetID, tt).
		Scan(&net).Error
	return net, err
}

// Recount returns the net of live votes on a target, computed from the vote rows.
func (e *Engine) Recount(ctx context.Context, targetID uuid.UUID, tt models.TargetType) (int, error) {
	net, err := recount(e.db.WithContext(ctx), targetID, tt)
	if err != nil {
		return 0, apperrors.FromStore("recount", err)
	}
	return net, nil
}
