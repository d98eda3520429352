package database_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emilythestrangee/stackit/backend/internal/config"
	"github.com/emilythestrangee/stackit/backend/internal/database"
	"github.com/emilythestrangee/stackit/backend/internal/logging"
	"github.com/emilythestrangee/stackit/backend/internal/models"
)

func newSQLite(t *testing.T) database.Service {
	t.Helper()
	cfg := config.DatabaseConfig{
		Driver:      config.DriverSQLite,
		Path:        filepath.Join(t.TempDir(), "stackit.db"),
		AutoMigrate: true,
	}
	svc, err := database.New(context.Background(), cfg, logging.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })
	return svc
}

func TestNewMigratesAndReportsHealth(t *testing.T) {
	svc := newSQLite(t)

	health := svc.Health(context.Background())
	assert.Equal(t, "up", health["status"])
	assert.Contains(t, health, "open_connections")

	for _, table := range []string{"profiles", "questions", "answers", "votes", "tags", "comments", "notifications", "bookmarks", "follows", "moderation_logs"} {
		assert.True(t, svc.GetDB().Migrator().HasTable(table), table)
	}
}

func TestSeedIsIdempotent(t *testing.T) {
	svc := newSQLite(t)
	ctx := context.Background()

	n, err := database.Seed(ctx, svc.GetDB())
	require.NoError(t, err)
	assert.Equal(t, int64(len(database.DefaultTags)), n)

	n, err = database.Seed(ctx, svc.GetDB())
	require.NoError(t, err)
	assert.Zero(t, n)

	var count int64
	require.NoError(t, svc.GetDB().Model(&models.Tag{}).Count(&count).Error)
	assert.Equal(t, int64(len(database.DefaultTags)), count)
}

func TestMigrateRunsTwice(t *testing.T) {
	svc := newSQLite(t)
	assert.NoError(t, database.Migrate(context.Background(), svc.GetDB()))
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := database.Open(config.DatabaseConfig{Driver: "oracle"}, logging.Discard())
	assert.ErrorContains(t, err, "unsupported database driver")
}
