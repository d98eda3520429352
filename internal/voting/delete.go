package voting

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/emilythestrangee/stackit/backend/internal/apperrors"
	"github.com/emilythestrangee/stackit/backend/internal/authz"
	"github.com/emilythestrangee/stackit/backend/internal/models"
)

// DeleteAnswer removes an answer together with its votes, comments and
// bookmarks, clearing its acceptance first. The question row is locked
// before the answer row, the same order SetAcceptedAnswer takes, and the
// answer stays locked while its votes are deleted: a concurrent vote either
// commits first and is deleted here, or finds no answer afterwards.
func (e *Engine) DeleteAnswer(ctx context.Context, s authz.Subject, answerID uuid.UUID) error {
	const op = opDeleteAnswer

	if answerID == uuid.Nil {
		return apperrors.Validation(op, "invalid answer id")
	}

	return e.transact(ctx, op, func(tx *gorm.DB) error {
		locking := clause.Locking{Strength: "UPDATE"}

		var ref models.Answer
		err := tx.Select("id", "question_id").Where("id = ?", answerID).Take(&ref).Error
		if isNotFound(err) {
			return apperrors.NotFound(op, "answer not found")
		}
		if err != nil {
			return err
		}
		if err := tx.Clauses(locking).Select("id").Where("id = ?", ref.QuestionID).
			Take(&models.Question{}).Error; err != nil {
			return err
		}

		var answer models.Answer
		err = tx.Clauses(locking).Where("id = ?", answerID).Take(&answer).Error
		if isNotFound(err) {
			return apperrors.NotFound(op, "answer not found")
		}
		if err != nil {
			return err
		}
		if err := authz.Check(s, authz.ActionDeleteContent, answer.AuthorID); err != nil {
			return err
		}

		if err := DetachAnswer(tx, &answer); err != nil {
			return err
		}
		for _, m := range []any{&models.Vote{}, &models.Comment{}, &models.Bookmark{}} {
			if err := tx.Where("target_id = ? AND target_type = ?", answerID, models.TargetAnswer).Delete(m).Error; err != nil {
				return err
			}
		}
		if err := tx.Delete(&models.Answer{}, "id = ?", answerID).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Question{}).Where("id = ? AND answers_count > 0", answer.QuestionID).
			UpdateColumn("answers_count", gorm.Expr("answers_count - 1")).Error; err != nil {
			return err
		}
		return tx.Model(&models.Profile{}).Where("id = ? AND answers_count > 0", answer.AuthorID).
			UpdateColumn("answers_count", gorm.Expr("answers_count - 1")).Error
	})
}
