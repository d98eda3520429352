package database

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/emilythestrangee/stackit/backend/internal/models"
)

// DefaultTags is the starter tag catalogue.
var DefaultTags = []models.Tag{
	{Name: "javascript", Description: "Questions about JavaScript programming language", Color: "#F7DF1E", IsFeatured: true},
	{Name: "react", Description: "React.js library and ecosystem questions", Color: "#61DAFB", IsFeatured: true},
	{Name: "python", Description: "Python programming language questions", Color: "#3776AB", IsFeatured: true},
	{Name: "node.js", Description: "Server-side JavaScript with Node.js", Color: "#339933"},
	{Name: "typescript", Description: "TypeScript language and tooling", Color: "#3178C6"},
	{Name: "database", Description: "Database design and query questions", Color: "#336791"},
	{Name: "api", Description: "Application Programming Interface questions", Color: "#FF6B35"},
	{Name: "authentication", Description: "User authentication and authorization", Color: "#4CAF50"},
	{Name: "performance", Description: "Code optimization and performance", Color: "#FF9800"},
	{Name: "testing", Description: "Software testing and quality assurance", Color: "#9C27B0"},
	{Name: "css", Description: "Cascading Style Sheets and styling", Color: "#1572B6"},
	{Name: "html", Description: "HyperText Markup Language questions", Color: "#E34F26"},
	{Name: "vue.js", Description: "Vue.js framework questions", Color: "#4FC08D"},
	{Name: "angular", Description: "Angular framework questions", Color: "#DD0031"},
	{Name: "devops", Description: "Development and Operations questions", Color: "#326CE5"},
}

// Seed inserts the default tags, leaving existing rows untouched. It returns
// the number of tags inserted.
func Seed(ctx context.Context, db *gorm.DB) (int64, error) {
	tags := make([]models.Tag, len(DefaultTags))
	copy(tags, DefaultTags)

	res := db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
		Create(&tags)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to seed tags: %w", res.Error)
	}
	return res.RowsAffected, nil
}
