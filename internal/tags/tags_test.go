package tags_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/emilythestrangee/stackit/backend/internal/apperrors"
	"github.com/emilythestrangee/stackit/backend/internal/models"
	"github.com/emilythestrangee/stackit/backend/internal/tags"
	"github.com/emilythestrangee/stackit/backend/internal/testutil"
)

func TestNormalize(t *testing.T) {
	got, err := tags.Normalize([]string{" Go ", "gorm", "GO", "", "postgres"})
	require.NoError(t, err)
	assert.Equal(t, []string{"go", "gorm", "postgres"}, got)

	_, err = tags.Normalize([]string{" ", ""})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = tags.Normalize([]string{"a", "b", "c", "d", "e", "f"})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = tags.Normalize([]string{strings.Repeat("x", tags.MaxTagLength+1)})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = tags.Normalize([]string{"two words"})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestDiff(t *testing.T) {
	added, removed := tags.Diff([]string{"go", "sql"}, []string{"go", "gorm"})
	assert.Equal(t, []string{"gorm"}, added)
	assert.Equal(t, []string{"sql"}, removed)

	added, removed = tags.Diff(nil, []string{"go"})
	assert.Equal(t, []string{"go"}, added)
	assert.Empty(t, removed)
}

func usage(t *testing.T, db *gorm.DB, name string) int {
	t.Helper()
	var tag models.Tag
	require.NoError(t, db.Where("name = ?", name).First(&tag).Error)
	return tag.UsageCount
}

func TestApply(t *testing.T) {
	db := testutil.NewDB(t)

	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		return tags.Apply(tx, []string{"go", "sql"}, nil)
	}))
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		return tags.Apply(tx, []string{"go"}, nil)
	}))
	assert.Equal(t, 2, usage(t, db, "go"))
	assert.Equal(t, 1, usage(t, db, "sql"))

	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		return tags.Apply(tx, nil, []string{"sql"})
	}))
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		return tags.Apply(tx, nil, []string{"sql"})
	}))
	assert.Equal(t, 0, usage(t, db, "sql"))
}

func TestCatalogCachesUntilInvalidated(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	c := tags.NewCatalog(db, time.Minute)

	require.NoError(t, tags.Apply(db, []string{"go"}, nil))
	list, err := c.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, tags.Apply(db, []string{"rust", "rust"}, nil))
	list, err = c.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	c.Invalidate()
	list, err = c.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "rust", list[0].Name)
	assert.Equal(t, 2, list[0].UsageCount)
}
