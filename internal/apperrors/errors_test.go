package apperrors_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"github.com/emilythestrangee/stackit/backend/internal/apperrors"
)

func TestFromStoreClassifiesPostgresCodes(t *testing.T) {
	cases := map[string]apperrors.Kind{
		"23505": apperrors.KindConflict,
		"40001": apperrors.KindConflict,
		"40P01": apperrors.KindConflict,
		"55P03": apperrors.KindConflict,
		"08006": apperrors.KindTransient,
		"57P01": apperrors.KindTransient,
		"22001": apperrors.KindInternal,
	}
	for code, want := range cases {
		err := apperrors.FromStore("op", fmt.Errorf("exec: %w", &pgconn.PgError{Code: code}))
		assert.Equal(t, want, apperrors.KindOf(err), code)
	}
}

func TestFromStoreClassifiesSQLite(t *testing.T) {
	busy := apperrors.FromStore("op", sqlite3.Error{Code: sqlite3.ErrBusy})
	assert.Equal(t, apperrors.KindTransient, apperrors.KindOf(busy))

	unique := apperrors.FromStore("op", sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintUnique})
	assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(unique))
	assert.True(t, apperrors.IsRetryable(unique))
}

func TestFromStoreMisc(t *testing.T) {
	assert.Nil(t, apperrors.FromStore("op", nil))
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(apperrors.FromStore("op", gorm.ErrRecordNotFound)))
	assert.Equal(t, apperrors.KindTransient, apperrors.KindOf(apperrors.FromStore("op", context.DeadlineExceeded)))
	assert.Equal(t, apperrors.KindInternal, apperrors.KindOf(apperrors.FromStore("op", errors.New("boom"))))

	v := apperrors.Validation("vote", "bad direction")
	assert.Same(t, v, apperrors.FromStore("op", v))
}

func TestErrorsIsByKind(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", apperrors.Authorization("vote", "banned"))
	assert.True(t, errors.Is(err, apperrors.ErrAuthorization))
	assert.False(t, errors.Is(err, apperrors.ErrConflict))
	assert.False(t, apperrors.IsRetryable(err))
}

func TestHTTPStatusAndPublicMessage(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, apperrors.HTTPStatus(apperrors.Validation("op", "x")))
	assert.Equal(t, http.StatusForbidden, apperrors.HTTPStatus(apperrors.Authorization("op", "x")))
	assert.Equal(t, http.StatusNotFound, apperrors.HTTPStatus(apperrors.NotFound("op", "x")))
	assert.Equal(t, http.StatusConflict, apperrors.HTTPStatus(apperrors.Conflict("op", "x")))
	assert.Equal(t, http.StatusServiceUnavailable, apperrors.HTTPStatus(apperrors.Wrap(errors.New("x"), apperrors.KindTransient, "op")))
	assert.Equal(t, http.StatusInternalServerError, apperrors.HTTPStatus(errors.New("x")))

	assert.Equal(t, "question not found", apperrors.PublicMessage(apperrors.NotFound("op", "question not found")))
	assert.Equal(t, apperrors.RetryMessage, apperrors.PublicMessage(apperrors.Conflict("op", "serialization failure")))
	assert.Equal(t, apperrors.RetryMessage, apperrors.PublicMessage(errors.New("dial tcp: refused")))
}
