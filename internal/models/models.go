// Package models holds the GORM models and request payloads of the Q&A store.
package models

import "github.com/google/uuid"

func assignID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

// All lists every model in migration order.
func All() []any {
	return []any{
		&Profile{},
		&Tag{},
		&Question{},
		&Answer{},
		&Vote{},
		&Comment{},
		&Notification{},
		&Bookmark{},
		&Follow{},
		&ModerationLog{},
	}
}
