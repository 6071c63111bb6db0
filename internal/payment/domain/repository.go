package domain

import (
	"context"

	"gorm.io/gorm"
)

type WebhookEventRepository interface {
	Exists(ctx context.Context, db *gorm.DB, eventID string) (bool, error)
	// Insert ignores an event id that is already recorded.
	Insert(ctx context.Context, db *gorm.DB, event *WebhookEvent) error
}
