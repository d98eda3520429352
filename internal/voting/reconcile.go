package voting

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/emilythestrangee/stackit/backend/internal/models"
)

// Drift is a target whose stored counter disagreed with its votes.
type Drift struct {
	TargetID   uuid.UUID         `json:"target_id"`
	TargetType models.TargetType `json:"target_type"`
	Stored     int               `json:"stored"`
	Net        int               `json:"net"`
}

type ReconcileReport struct {
	Checked map[models.TargetType]int64 `json:"checked"`
	Fixed   []Drift                     `json:"fixed"`
}

// Reconcile finds questions and answers whose votes_count differs from the
// net of their votes and rewrites the counter under a row lock.
func (e *Engine) Reconcile(ctx context.Context) (*ReconcileReport, error) {
	report := &ReconcileReport{Checked: make(map[models.TargetType]int64)}
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	for _, tt := range []models.TargetType{models.TargetQuestion, models.TargetAnswer} {
		tt := tt // per-iteration copy (pre-Go 1.22 loop semantics)
		g.Go(func() error {
			checked, fixed, err := e.reconcileType(ctx, tt)
			if err != nil {
				return fmt.Errorf("reconcile %s: %w", tt, err)
			}
			mu.Lock()
			report.Checked[tt] = checked
			report.Fixed = append(report.Fixed, fixed...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	e.logger.Info("reconcile finished",
		"questions_checked", report.Checked[models.TargetQuestion],
		"answers_checked", report.Checked[models.TargetAnswer],
		"fixed", len(report.Fixed))
	return report, nil
}

func tableFor(tt models.TargetType) string {
	if tt == models.TargetAnswer {
		return "answers"
	}
	return "questions"
}

func (e *Engine) reconcileType(ctx context.Context, tt models.TargetType) (int64, []Drift, error) {
	db := e.db.WithContext(ctx)

	var checked int64
	if err := db.Model(modelFor(tt)).Count(&checked).Error; err != nil {
		return 0, nil, err
	}

	var candidates []struct {
		ID         uuid.UUID
		VotesCount int
	}
	sub := db.Model(&models.Vote{}).
		Select("target_id, "+netExpr+" AS net").
		Where("target_type = ?", tt).
		Group("target_id")
	err := db.Table(tableFor(tt)+" AS t").
		Select("t.id, t.votes_count").
		Joins("LEFT JOIN (?) AS v ON v.target_id = t.id", sub).
		Where("t.votes_count <> COALESCE(v.net, 0)").
		Scan(&candidates).Error
	if err != nil {
		return 0, nil, err
	}

	var fixed []Drift
	for _, c := range candidates {
		c := c // per-iteration copy (pre-Go 1.22 loop semantics)
		var d *Drift
		err := e.transact(ctx, opReconcile, func(tx *gorm.DB) error {
			d = nil
			var stored int
			err := tx.Model(modelFor(tt)).Clauses(clause.Locking{Strength: "UPDATE"}).
				Select("votes_count").Where("id = ?", c.ID).Scan(&stored).Error
			if err != nil {
				return err
			}
			net, err := recount(tx, c.ID, tt)
			if err != nil {
				return err
			}
			if stored == net {
				return nil
			}
			if err := tx.Model(modelFor(tt)).Where("id = ?", c.ID).UpdateColumn("votes_count", net).Error; err != nil {
				return err
			}
			d = &Drift{TargetID: c.ID, TargetType: tt, Stored: stored, Net: net}
			return nil
		})
		if err != nil {
			return 0, nil, err
		}
		if d != nil {
			e.logger.Warn("vote count drift corrected",
				"target_id", d.TargetID,
				"target_type", d.TargetType,
				"stored", d.Stored,
				"net", d.Net)
			fixed = append(fixed, *d)
		}
	}
	return checked, fixed, nil
}
