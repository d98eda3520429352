// Package tags normalizes question tags and keeps tag usage counters in step
// with the questions that carry them.
package tags

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/emilythestrangee/stackit/backend/internal/apperrors"
	"github.com/emilythestrangee/stackit/backend/internal/models"
)

const (
	MaxTags      = 5
	MaxTagLength = 35

	listKey = "tags:all"
)

// Normalize trims, lowercases and dedupes names, keeping first-seen order.
func Normalize(names []string) ([]string, error) {
	const op = "tags.normalize"

	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.ToLower(strings.TrimSpace(n))
		if n == "" || slices.Contains(out, n) {
			continue
		}
		if len(n) > MaxTagLength {
			return nil, apperrors.Validation(op, "tag %q is longer than %d characters", n, MaxTagLength)
		}
		if strings.ContainsAny(n, " ,\"{}") {
			return nil, apperrors.Validation(op, "tag %q contains invalid characters", n)
		}
		out = append(out, n)
	}
	if len(out) == 0 {
		return nil, apperrors.Validation(op, "at least one tag is required")
	}
	if len(out) > MaxTags {
		return nil, apperrors.Validation(op, "at most %d tags are allowed", MaxTags)
	}
	return out, nil
}

// Diff returns the names present only in next (added) and only in prev (removed).
func Diff(prev, next []string) (added, removed []string) {
	for _, n := range next {
		if !slices.Contains(prev, n) {
			added = append(added, n)
		}
	}
	for _, n := range prev {
		if !slices.Contains(next, n) {
			removed = append(removed, n)
		}
	}
	return added, removed
}

// Apply creates missing tags and adjusts usage counts within tx. Counts never
// drop below zero.
func Apply(tx *gorm.DB, added, removed []string) error {
	const op = "tags.apply"

	for _, name := range added {
		tag := models.Tag{Name: name, UsageCount: 1}
		err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "name"}},
			DoUpdates: clause.Assignments(map[string]any{
				"usage_count": gorm.Expr("tags.usage_count + 1"),
			}),
		}).Create(&tag).Error
		if err != nil {
			return apperrors.FromStore(op, err)
		}
	}

	if len(removed) > 0 {
		err := tx.Model(&models.Tag{}).
			Where("name IN ? AND usage_count > 0", removed).
			UpdateColumn("usage_count", gorm.Expr("usage_count - 1")).Error
		if err != nil {
			return apperrors.FromStore(op, err)
		}
	}
	return nil
}

// Catalog serves the tag list from a short-lived cache.
type Catalog struct {
	db    *gorm.DB
	cache *cache.Cache
}

func NewCatalog(db *gorm.DB, ttl time.Duration) *Catalog {
	return &Catalog{
		db:    db,
		cache: cache.New(ttl, 2*ttl),
	}
}

// List returns all tags ordered by usage, most used first.
func (c *Catalog) List(ctx context.Context) ([]models.Tag, error) {
	if v, ok := c.cache.Get(listKey); ok {
		return v.([]models.Tag), nil
	}

	var out []models.Tag
	err := c.db.WithContext(ctx).
		Order("usage_count DESC").
		Order("name ASC").
		Find(&out).Error
	if err != nil {
		return nil, apperrors.FromStore("tags.list", err)
	}

	c.cache.SetDefault(listKey, out)
	return out, nil
}

// Invalidate drops the cached list. Call after a committed write that
// touched tags.
func (c *Catalog) Invalidate() {
	c.cache.Delete(listKey)
}
