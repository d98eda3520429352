package voting_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/emilythestrangee/stackit/backend/internal/apperrors"
	"github.com/emilythestrangee/stackit/backend/internal/models"
	"github.com/emilythestrangee/stackit/backend/internal/testutil"
	"github.com/emilythestrangee/stackit/backend/internal/voting"
)

func acceptedAnswers(t *testing.T, db *gorm.DB, q *models.Question) []uuid.UUID {
	t.Helper()
	var ids []uuid.UUID
	require.NoError(t, db.Model(&models.Answer{}).Where("question_id = ? AND is_accepted = ?", q.ID, true).Pluck("id", &ids).Error)
	return ids
}

func TestSetAcceptedAnswerSwitches(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	asker := f.author
	q := testutil.Question(t, f.db, asker, 0)
	first := testutil.Profile(t, f.db, "first")
	second := testutil.Profile(t, f.db, "second")
	a1 := testutil.Answer(t, f.db, q, first)
	a2 := testutil.Answer(t, f.db, q, second)

	res, err := f.engine.SetAcceptedAnswer(ctx, asker.ID, q.ID, a1.ID)
	require.NoError(t, err)
	assert.True(t, res.Accepted)
	assert.Equal(t, voting.RepAccepted, testutil.Reload[models.Profile](t, f.db, first.ID).Reputation)

	_, err = f.engine.SetAcceptedAnswer(ctx, asker.ID, q.ID, a2.ID)
	require.NoError(t, err)

	assert.False(t, testutil.Reload[models.Answer](t, f.db, a1.ID).IsAccepted)
	assert.True(t, testutil.Reload[models.Answer](t, f.db, a2.ID).IsAccepted)
	stored := testutil.Reload[models.Question](t, f.db, q.ID)
	require.NotNil(t, stored.AcceptedAnswerID)
	assert.Equal(t, a2.ID, *stored.AcceptedAnswerID)
	assert.Equal(t, []uuid.UUID{a2.ID}, acceptedAnswers(t, f.db, q))

	assert.Zero(t, testutil.Reload[models.Profile](t, f.db, first.ID).Reputation)
	assert.Equal(t, voting.RepAccepted, testutil.Reload[models.Profile](t, f.db, second.ID).Reputation)

	var notes int64
	require.NoError(t, f.db.Model(&models.Notification{}).Where("type = ?", models.NotificationAccepted).Count(&notes).Error)
	assert.Equal(t, int64(2), notes)
}

func TestSetAcceptedAnswerIsIdempotent(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	q := testutil.Question(t, f.db, f.author, 0)
	a := testutil.Answer(t, f.db, q, f.voter)

	for i := 0; i < 2; i++ {
		_, err := f.engine.SetAcceptedAnswer(ctx, f.author.ID, q.ID, a.ID)
		require.NoError(t, err)
	}
	assert.Equal(t, voting.RepAccepted, testutil.Reload[models.Profile](t, f.db, f.voter.ID).Reputation)
	assert.Equal(t, []uuid.UUID{a.ID}, acceptedAnswers(t, f.db, q))
}

func TestSetAcceptedAnswerSelfAnswerEarnsNothing(t *testing.T) {
	f := setup(t)
	q := testutil.Question(t, f.db, f.author, 0)
	a := testutil.Answer(t, f.db, q, f.author)

	_, err := f.engine.SetAcceptedAnswer(context.Background(), f.author.ID, q.ID, a.ID)
	require.NoError(t, err)
	assert.Zero(t, testutil.Reload[models.Profile](t, f.db, f.author.ID).Reputation)
}

func TestSetAcceptedAnswerRejections(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	q := testutil.Question(t, f.db, f.author, 0)
	other := testutil.Question(t, f.db, f.author, 0)
	a := testutil.Answer(t, f.db, q, f.voter)
	foreign := testutil.Answer(t, f.db, other, f.voter)
	mod := testutil.Profile(t, f.db, "mod", testutil.WithRole(models.RoleModerator))

	_, err := f.engine.SetAcceptedAnswer(ctx, f.voter.ID, q.ID, a.ID)
	assert.ErrorIs(t, err, apperrors.ErrAuthorization)

	_, err = f.engine.SetAcceptedAnswer(ctx, mod.ID, q.ID, a.ID)
	assert.ErrorIs(t, err, apperrors.ErrAuthorization)

	_, err = f.engine.SetAcceptedAnswer(ctx, f.author.ID, q.ID, foreign.ID)
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = f.engine.SetAcceptedAnswer(ctx, f.author.ID, q.ID, uuid.New())
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = f.engine.SetAcceptedAnswer(ctx, f.author.ID, uuid.New(), a.ID)
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	require.NoError(t, f.db.Model(&models.Profile{}).Where("id = ?", f.author.ID).Update("is_banned", true).Error)
	_, err = f.engine.SetAcceptedAnswer(ctx, f.author.ID, q.ID, a.ID)
	assert.ErrorIs(t, err, apperrors.ErrAuthorization)

	assert.Empty(t, acceptedAnswers(t, f.db, q))
	assert.Nil(t, testutil.Reload[models.Question](t, f.db, q.ID).AcceptedAnswerID)
}

func TestClearAcceptedAnswer(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	q := testutil.Question(t, f.db, f.author, 0)
	a := testutil.Answer(t, f.db, q, f.voter)

	_, err := f.engine.SetAcceptedAnswer(ctx, f.author.ID, q.ID, a.ID)
	require.NoError(t, err)

	res, err := f.engine.ClearAcceptedAnswer(ctx, f.author.ID, q.ID)
	require.NoError(t, err)
	assert.False(t, res.Accepted)
	assert.Empty(t, acceptedAnswers(t, f.db, q))
	assert.Nil(t, testutil.Reload[models.Question](t, f.db, q.ID).AcceptedAnswerID)
	assert.Zero(t, testutil.Reload[models.Profile](t, f.db, f.voter.ID).Reputation)
}

func TestOneAcceptedAnswerIndex(t *testing.T) {
	f := setup(t)
	q := testutil.Question(t, f.db, f.author, 0)
	a1 := testutil.Answer(t, f.db, q, f.voter)
	a2 := testutil.Answer(t, f.db, q, f.voter)

	require.NoError(t, f.db.Model(a1).UpdateColumn("is_accepted", true).Error)
	err := f.db.Model(a2).UpdateColumn("is_accepted", true).Error
	require.Error(t, err)
	assert.ErrorIs(t, apperrors.FromStore("accept", err), apperrors.ErrConflict)
}

func TestDetachAnswer(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	q := testutil.Question(t, f.db, f.author, 0)
	a := testutil.Answer(t, f.db, q, f.voter)
	_, err := f.engine.SetAcceptedAnswer(ctx, f.author.ID, q.ID, a.ID)
	require.NoError(t, err)

	accepted := testutil.Reload[models.Answer](t, f.db, a.ID)
	require.NoError(t, f.db.Transaction(func(tx *gorm.DB) error {
		return voting.DetachAnswer(tx, accepted)
	}))
	assert.Nil(t, testutil.Reload[models.Question](t, f.db, q.ID).AcceptedAnswerID)
	assert.Zero(t, testutil.Reload[models.Profile](t, f.db, f.voter.ID).Reputation)
}
