// Package voting applies votes and answer acceptance to the store while
// keeping the denormalized vote counters equal to the net of live votes.
package voting

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"gorm.io/gorm"

	"github.com/emilythestrangee/stackit/backend/internal/apperrors"
	"github.com/emilythestrangee/stackit/backend/internal/config"
	"github.com/emilythestrangee/stackit/backend/internal/logging"
	"github.com/emilythestrangee/stackit/backend/internal/metrics"
)

const (
	opSubmitVote   = "submit_vote"
	opAcceptAnswer = "accept_answer"
	opClearAccept  = "clear_accepted_answer"
	opDeleteAnswer = "delete_answer"
	opReconcile    = "reconcile"
)

// Engine is safe for concurrent use; the store is the only shared state.
type Engine struct {
	db       *gorm.DB
	logger   *slog.Logger
	recorder metrics.Recorder
	retry    config.VotingConfig
}

type Option func(*Engine)

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = logging.Module(l, "voting") }
}

func WithRecorder(r metrics.Recorder) Option {
	return func(e *Engine) { e.recorder = r }
}

// WithRetry sets the retry budget for conflicting or transient failures.
func WithRetry(cfg config.VotingConfig) Option {
	return func(e *Engine) { e.retry = cfg }
}

func New(db *gorm.DB, opts ...Option) *Engine {
	e := &Engine{
		db:       db,
		logger:   logging.Discard(),
		recorder: metrics.Noop{},
		retry: config.VotingConfig{
			MaxRetries:     3,
			InitialBackoff: 20 * time.Millisecond,
			MaxBackoff:     500 * time.Millisecond,
		},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) backOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = e.retry.InitialBackoff
	b.MaxInterval = e.retry.MaxBackoff
	b.MaxElapsedTime = 0
	b.Reset()
	return backoff.WithContext(backoff.WithMaxRetries(b, e.retry.MaxRetries), ctx)
}

// transact runs fn in a transaction, retrying conflicts and transient
// failures with exponential backoff. fn must not keep state across attempts.
func (e *Engine) transact(ctx context.Context, op string, fn func(tx *gorm.DB) error) error {
	start := time.Now()
	defer func() { e.recorder.RecordDuration(op, time.Since(start)) }()

	attempt := 0
	err := backoff.Retry(func() error {
		if attempt > 0 {
			e.recorder.RecordRetry(op)
		}
		attempt++

		err := apperrors.FromStore(op, e.db.WithContext(ctx).Transaction(fn))
		if err == nil {
			return nil
		}
		if apperrors.IsRetryable(err) {
			e.logger.Debug("transaction will be retried", "event", op, "attempt", attempt, "error", err)
			return err
		}
		return backoff.Permanent(err)
	}, e.backOff(ctx))
	if err == nil {
		return nil
	}

	err = apperrors.FromStore(op, err)
	switch apperrors.KindOf(err) {
	case apperrors.KindValidation, apperrors.KindAuthorization, apperrors.KindNotFound:
	default:
		logging.LogError(e.logger, op, err, "attempts", attempt)
	}
	return err
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
