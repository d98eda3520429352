package models

import (
	"database/sql/driver"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

type Tag struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Name        string     `gorm:"uniqueIndex:idx_tags_name;not null" json:"name"`
	Description string     `json:"description"`
	Color       string     `gorm:"default:'#3B82F6'" json:"color"`
	UsageCount  int        `gorm:"not null;default:0" json:"usage_count"`
	IsFeatured  bool       `gorm:"not null;default:false" json:"is_featured"`
	CreatedBy   *uuid.UUID `gorm:"type:uuid" json:"created_by,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// TagList is stored as text[] on postgres and as an array literal elsewhere.
type TagList []string

func (t TagList) Value() (driver.Value, error) {
	if t == nil {
		return "{}", nil
	}
	return pq.StringArray(t).Value()
}

func (t *TagList) Scan(src any) error {
	var arr pq.StringArray
	if err := arr.Scan(src); err != nil {
		return err
	}
	if arr == nil {
		arr = pq.StringArray{}
	}
	*t = TagList(arr)
	return nil
}

func (TagList) GormDBDataType(db *gorm.DB, field *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "text[]"
	}
	return "text"
}

// Contains reports whether name is in the list.
func (t TagList) Contains(name string) bool {
	for _, n := range t {
		if n == name {
			return true
		}
	}
	return false
}
