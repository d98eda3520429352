package voting_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emilythestrangee/stackit/backend/internal/apperrors"
	"github.com/emilythestrangee/stackit/backend/internal/authz"
	"github.com/emilythestrangee/stackit/backend/internal/models"
	"github.com/emilythestrangee/stackit/backend/internal/testutil"
)

func TestDeleteAnswer(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	q := testutil.Question(t, f.db, f.author, 0)
	a := testutil.Answer(t, f.db, q, f.voter)

	_, err := f.engine.SubmitVote(ctx, f.author.ID, a.ID, models.TargetAnswer, models.VoteUp)
	require.NoError(t, err)
	_, err = f.engine.SetAcceptedAnswer(ctx, f.author.ID, q.ID, a.ID)
	require.NoError(t, err)

	err = f.engine.DeleteAnswer(ctx, authz.SubjectOf(f.author), a.ID)
	assert.ErrorIs(t, err, apperrors.ErrAuthorization)

	require.NoError(t, f.engine.DeleteAnswer(ctx, authz.SubjectOf(f.voter), a.ID))

	var votes, answers int64
	require.NoError(t, f.db.Model(&models.Vote{}).Where("target_id = ?", a.ID).Count(&votes).Error)
	require.NoError(t, f.db.Model(&models.Answer{}).Where("id = ?", a.ID).Count(&answers).Error)
	assert.Zero(t, votes)
	assert.Zero(t, answers)

	got := testutil.Reload[models.Question](t, f.db, q.ID)
	assert.Nil(t, got.AcceptedAnswerID)
	assert.Zero(t, got.AnswersCount)

	err = f.engine.DeleteAnswer(ctx, authz.SubjectOf(f.voter), a.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	err = f.engine.DeleteAnswer(ctx, authz.SubjectOf(f.voter), uuid.Nil)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestDeleteAnswerByModerator(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	mod := testutil.Profile(t, f.db, "mod", testutil.WithRole(models.RoleModerator))
	q := testutil.Question(t, f.db, f.author, 0)
	a := testutil.Answer(t, f.db, q, f.voter)

	require.NoError(t, f.engine.DeleteAnswer(ctx, authz.SubjectOf(mod), a.ID))

	_, err := f.engine.SubmitVote(ctx, f.author.ID, a.ID, models.TargetAnswer, models.VoteUp)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}
