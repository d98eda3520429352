package database

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/emilythestrangee/stackit/backend/internal/models"
)

// indexes GORM tags cannot express. The partial unique index keeps at most
// one accepted answer per question.
var commonIndexes = []string{
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_answers_one_accepted ON answers(question_id) WHERE is_accepted`,
}

var postgresIndexes = []string{
	`CREATE INDEX IF NOT EXISTS idx_questions_tags ON questions USING GIN(tags)`,
	`DO $$
BEGIN
	IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'fk_accepted_answer') THEN
		ALTER TABLE questions ADD CONSTRAINT fk_accepted_answer
			FOREIGN KEY (accepted_answer_id) REFERENCES answers(id) ON DELETE SET NULL;
	END IF;
END $$`,
}

// Migrate creates or updates the schema.
func Migrate(ctx context.Context, db *gorm.DB) error {
	db = db.WithContext(ctx)
	if err := db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	stmts := commonIndexes
	if db.Dialector.Name() == "postgres" {
		stmts = append(stmts[:len(stmts):len(stmts)], postgresIndexes...)
	}
	for _, stmt := range stmts {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	return nil
}
