package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emilythestrangee/stackit/backend/internal/metrics"
)

func TestRecorder(t *testing.T) {
	m, err := metrics.New()
	require.NoError(t, err)

	var r metrics.Recorder = m
	r.RecordVote("question", "added")
	r.RecordVote("question", "added")
	r.RecordVote("answer", "toggled_off")
	r.RecordRetry("submit_vote")
	r.RecordDuration("submit_vote", 15*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, `stackit_votes_total{outcome="added",target_type="question"} 2`)
	assert.Contains(t, body, `stackit_votes_total{outcome="toggled_off",target_type="answer"} 1`)
	assert.Contains(t, body, `stackit_store_retries_total{operation="submit_vote"} 1`)
	assert.Contains(t, body, `stackit_operation_duration_seconds_count{operation="submit_vote"} 1`)
}

func TestNoop(t *testing.T) {
	var r metrics.Recorder = metrics.Noop{}
	assert.NotPanics(t, func() {
		r.RecordVote("question", "added")
		r.RecordRetry("x")
		r.RecordDuration("x", time.Second)
	})
}
