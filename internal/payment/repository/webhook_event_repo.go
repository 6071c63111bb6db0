package repository

import (
	"context"

	"github.com/railzwaylabs/storefront/internal/payment/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type webhookEventRepo struct{}

func Provide() domain.WebhookEventRepository {
	return &webhookEventRepo{}
}

func (r *webhookEventRepo) Exists(ctx context.Context, db *gorm.DB, eventID string) (bool, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&domain.WebhookEvent{}).
		Where("event_id = ?", eventID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *webhookEventRepo) Insert(ctx context.Context, db *gorm.DB, event *domain.WebhookEvent) error {
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(event).Error
}
