package voting

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/emilythestrangee/stackit/backend/internal/apperrors"
	"github.com/emilythestrangee/stackit/backend/internal/authz"
	"github.com/emilythestrangee/stackit/backend/internal/models"
)

type AcceptResult struct {
	Accepted         bool       `json:"accepted"`
	AcceptedAnswerID *uuid.UUID `json:"accepted_answer_id"`
}

// lockQuestion locks q for an acceptance change and checks the caller owns it.
func lockQuestion(tx *gorm.DB, op string, userID, questionID uuid.UUID) (*models.Question, error) {
	user, err := loadVoter(tx, op, userID)
	if err != nil {
		return nil, err
	}

	var q models.Question
	err = tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id", "author_id", "status", "accepted_answer_id", "title").
		Where("id = ?", questionID).Take(&q).Error
	if isNotFound(err) {
		return nil, apperrors.Validation(op, "question does not exist")
	}
	if err != nil {
		return nil, err
	}
	if q.Status == models.QuestionStatusDeleted {
		return nil, apperrors.Validation(op, "question has been deleted")
	}
	if err := authz.Check(authz.SubjectOf(user), authz.ActionAcceptAnswer, q.AuthorID); err != nil {
		return nil, err
	}
	return &q, nil
}

// unaccept clears every accepted answer of q and takes back the acceptance
// reputation from their authors.
func unaccept(tx *gorm.DB, q *models.Question) error {
	var prev []models.Answer
	if err := tx.Select("id", "author_id").Where("question_id = ? AND is_accepted = ?", q.ID, true).Find(&prev).Error; err != nil {
		return err
	}
	if len(prev) == 0 {
		return nil
	}

	if err := tx.Model(&models.Answer{}).
		Where("question_id = ? AND is_accepted = ?", q.ID, true).
		UpdateColumn("is_accepted", false).Error; err != nil {
		return err
	}

	for _, a := range prev {
		if a.AuthorID == q.AuthorID {
			continue
		}
		if err := tx.Model(&models.Profile{}).Where("id = ?", a.AuthorID).
			UpdateColumn("reputation", gorm.Expr("reputation - ?", RepAccepted)).Error; err != nil {
			return err
		}
	}
	return nil
}

// SetAcceptedAnswer marks answerID as the accepted answer of questionID,
// clearing any previously accepted answer in the same transaction. Only the
// question author may call it.
func (e *Engine) SetAcceptedAnswer(ctx context.Context, userID, questionID, answerID uuid.UUID) (AcceptResult, error) {
	const op = opAcceptAnswer

	if questionID == uuid.Nil || answerID == uuid.Nil {
		return AcceptResult{}, apperrors.Validation(op, "invalid question or answer id")
	}

	err := e.transact(ctx, op, func(tx *gorm.DB) error {
		q, err := lockQuestion(tx, op, userID, questionID)
		if err != nil {
			return err
		}

		var a models.Answer
		err = tx.Select("id", "question_id", "author_id", "is_accepted").Where("id = ?", answerID).Take(&a).Error
		if isNotFound(err) || (err == nil && a.QuestionID != q.ID) {
			return apperrors.Validation(op, "answer does not belong to this question")
		}
		if err != nil {
			return err
		}

		if a.IsAccepted && q.AcceptedAnswerID != nil && *q.AcceptedAnswerID == a.ID {
			return nil
		}

		// the partial unique index allows one accepted row, so clear first
		if err := unaccept(tx, q); err != nil {
			return err
		}
		if err := tx.Model(&models.Answer{}).Where("id = ?", a.ID).UpdateColumn("is_accepted", true).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Question{}).Where("id = ?", q.ID).UpdateColumn("accepted_answer_id", a.ID).Error; err != nil {
			return err
		}

		if a.AuthorID == q.AuthorID {
			return nil
		}
		if err := tx.Model(&models.Profile{}).Where("id = ?", a.AuthorID).
			UpdateColumn("reputation", gorm.Expr("reputation + ?", RepAccepted)).Error; err != nil {
			return err
		}
		sender := q.AuthorID
		target := a.ID
		return tx.Create(&models.Notification{
			UserID:     a.AuthorID,
			SenderID:   &sender,
			Type:       models.NotificationAccepted,
			Title:      "Your answer was accepted",
			Message:    fmt.Sprintf("Your answer to %q was accepted", q.Title),
			TargetID:   &target,
			TargetType: string(models.TargetAnswer),
		}).Error
	})
	if err != nil {
		return AcceptResult{}, err
	}

	e.logger.Debug("answer accepted", "question_id", questionID, "answer_id", answerID, "user_id", userID)
	return AcceptResult{Accepted: true, AcceptedAnswerID: &answerID}, nil
}

// ClearAcceptedAnswer removes the accepted answer of questionID, if any.
func (e *Engine) ClearAcceptedAnswer(ctx context.Context, userID, questionID uuid.UUID) (AcceptResult, error) {
	const op = opClearAccept

	if questionID == uuid.Nil {
		return AcceptResult{}, apperrors.Validation(op, "invalid question id")
	}

	err := e.transact(ctx, op, func(tx *gorm.DB) error {
		q, err := lockQuestion(tx, op, userID, questionID)
		if err != nil {
			return err
		}
		if err := unaccept(tx, q); err != nil {
			return err
		}
		return tx.Model(&models.Question{}).Where("id = ?", q.ID).UpdateColumn("accepted_answer_id", nil).Error
	})
	if err != nil {
		return AcceptResult{}, err
	}
	return AcceptResult{Accepted: false}, nil
}

// DetachAnswer clears acceptance state for an answer about to be deleted.
// It runs inside the caller's transaction.
func DetachAnswer(tx *gorm.DB, a *models.Answer) error {
	var q models.Question
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id", "author_id", "accepted_answer_id").
		Where("id = ?", a.QuestionID).Take(&q).Error
	if err != nil {
		return err
	}
	if !a.IsAccepted && (q.AcceptedAnswerID == nil || *q.AcceptedAnswerID != a.ID) {
		return nil
	}
	if err := unaccept(tx, &q); err != nil {
		return err
	}
	return tx.Model(&models.Question{}).Where("id = ?", q.ID).UpdateColumn("accepted_answer_id", nil).Error
}
