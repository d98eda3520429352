package voting_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emilythestrangee/stackit/backend/internal/models"
	"github.com/emilythestrangee/stackit/backend/internal/testutil"
)

func TestReconcileFixesDrift(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	clean := testutil.Question(t, f.db, f.author, 0)
	drifted := testutil.Question(t, f.db, f.author, 0)
	a := testutil.Answer(t, f.db, clean, f.author)

	_, err := f.engine.SubmitVote(ctx, f.voter.ID, clean.ID, models.TargetQuestion, models.VoteUp)
	require.NoError(t, err)
	_, err = f.engine.SubmitVote(ctx, f.voter.ID, drifted.ID, models.TargetQuestion, models.VoteDown)
	require.NoError(t, err)
	_, err = f.engine.SubmitVote(ctx, f.voter.ID, a.ID, models.TargetAnswer, models.VoteUp)
	require.NoError(t, err)

	require.NoError(t, f.db.Model(drifted).UpdateColumn("votes_count", 9).Error)
	require.NoError(t, f.db.Model(a).UpdateColumn("votes_count", -4).Error)

	report, err := f.engine.Reconcile(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), report.Checked[models.TargetQuestion])
	assert.Equal(t, int64(1), report.Checked[models.TargetAnswer])
	require.Len(t, report.Fixed, 2)

	for _, d := range report.Fixed {
		switch d.TargetID {
		case drifted.ID:
			assert.Equal(t, 9, d.Stored)
			assert.Equal(t, -1, d.Net)
		case a.ID:
			assert.Equal(t, -4, d.Stored)
			assert.Equal(t, 1, d.Net)
		default:
			t.Fatalf("unexpected drift on %s", d.TargetID)
		}
	}

	f.assertConsistent(t, clean.ID, models.TargetQuestion)
	f.assertConsistent(t, drifted.ID, models.TargetQuestion)
	f.assertConsistent(t, a.ID, models.TargetAnswer)

	report, err = f.engine.Reconcile(ctx)
	require.NoError(t, err)
	assert.Empty(t, report.Fixed)
}

func TestReconcileCountsWithoutVotes(t *testing.T) {
	f := setup(t)
	q := testutil.Question(t, f.db, f.author, 5)

	report, err := f.engine.Reconcile(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Fixed, 1)
	assert.Equal(t, q.ID, report.Fixed[0].TargetID)
	assert.Zero(t, testutil.Reload[models.Question](t, f.db, q.ID).VotesCount)
}
