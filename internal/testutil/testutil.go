// Package testutil provides an in-memory store and fixtures for package tests.
package testutil

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/emilythestrangee/stackit/backend/internal/config"
	"github.com/emilythestrangee/stackit/backend/internal/database"
	"github.com/emilythestrangee/stackit/backend/internal/logging"
	"github.com/emilythestrangee/stackit/backend/internal/models"
)

// NewDB returns a migrated in-memory SQLite database private to the test.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	cfg := config.DatabaseConfig{
		Driver: config.DriverSQLite,
		Path:   fmt.Sprintf("file:%s_%s?mode=memory&cache=shared", name, uuid.NewString()[:8]),
	}
	db, err := database.Open(cfg, logging.Discard())
	require.NoError(t, err)
	require.NoError(t, database.Migrate(context.Background(), db))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// Profile creates a profile. Apply mutators to change role or ban state.
func Profile(t testing.TB, db *gorm.DB, username string, mutate ...func(*models.Profile)) *models.Profile {
	t.Helper()
	p := &models.Profile{
		ID:          uuid.New(),
		Username:    username,
		DisplayName: username,
		Role:        models.RoleUser,
	}
	for _, m := range mutate {
		m(p)
	}
	require.NoError(t, db.Create(p).Error)
	return p
}

func Banned(p *models.Profile) { p.IsBanned = true }

func WithRole(r models.Role) func(*models.Profile) {
	return func(p *models.Profile) { p.Role = r }
}

// Question creates an active question by author with the given starting vote count.
func Question(t testing.TB, db *gorm.DB, author *models.Profile, votes int, tags ...string) *models.Question {
	t.Helper()
	if len(tags) == 0 {
		tags = []string{"go"}
	}
	q := &models.Question{
		Title:       "How do I keep counters consistent?",
		Description: "Counters drift when two requests update them at the same time.",
		AuthorID:    author.ID,
		Tags:        models.TagList(tags),
		VotesCount:  votes,
	}
	require.NoError(t, db.Create(q).Error)
	return q
}

// Answer creates an answer on q by author.
func Answer(t testing.TB, db *gorm.DB, q *models.Question, author *models.Profile) *models.Answer {
	t.Helper()
	a := &models.Answer{
		QuestionID: q.ID,
		AuthorID:   author.ID,
		Content:    "Update the counter with an in-store expression under a row lock.",
	}
	require.NoError(t, db.Create(a).Error)
	require.NoError(t, db.Model(q).UpdateColumn("answers_count", gorm.Expr("answers_count + 1")).Error)
	return a
}

// Reload refetches a model by primary key.
func Reload[T any](t testing.TB, db *gorm.DB, id uuid.UUID) *T {
	t.Helper()
	var out T
	require.NoError(t, db.First(&out, "id = ?", id).Error)
	return &out
}
