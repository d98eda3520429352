package handlers

import (
	"context"

	"github.com/google/uuid"

	"github.com/emilythestrangee/stackit/backend/internal/models"
	"github.com/emilythestrangee/stackit/backend/internal/voting"
)

type questionView struct {
	models.Question
	Author     *models.ProfileSummary `json:"author"`
	UserVote   models.VoteDirection   `json:"user_vote,omitempty"`
	Bookmarked bool                   `json:"bookmarked"`
}

type answerView struct {
	models.Answer
	Author   *models.ProfileSummary `json:"author"`
	UserVote models.VoteDirection   `json:"user_vote,omitempty"`
}

// questionViews builds listing rows. viewer may be uuid.Nil.
func questionViews(ctx context.Context, engine *voting.Engine, viewer uuid.UUID, questions []models.Question) ([]questionView, error) {
	ids := make([]uuid.UUID, len(questions))
	for i, q := range questions {
		ids[i] = q.ID
	}
	votes, err := engine.UserVotes(ctx, viewer, models.TargetQuestion, ids)
	if err != nil {
		return nil, err
	}

	out := make([]questionView, 0, len(questions))
	for _, q := range questions {
		v := questionView{Question: q, Author: q.Author.Summary()}
		if d, ok := votes[q.ID]; ok {
			v.UserVote = d
		} else if viewer != uuid.Nil {
			v.UserVote = models.VoteNone
		}
		out = append(out, v)
	}
	return out, nil
}

func answerViews(ctx context.Context, engine *voting.Engine, viewer uuid.UUID, answers []models.Answer) ([]answerView, error) {
	ids := make([]uuid.UUID, len(answers))
	for i, a := range answers {
		ids[i] = a.ID
	}
	votes, err := engine.UserVotes(ctx, viewer, models.TargetAnswer, ids)
	if err != nil {
		return nil, err
	}

	out := make([]answerView, 0, len(answers))
	for _, a := range answers {
		v := answerView{Answer: a, Author: a.Author.Summary()}
		if d, ok := votes[a.ID]; ok {
			v.UserVote = d
		} else if viewer != uuid.Nil {
			v.UserVote = models.VoteNone
		}
		out = append(out, v)
	}
	return out, nil
}
