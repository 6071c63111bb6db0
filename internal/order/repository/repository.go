package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/railzwaylabs/storefront/internal/order/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, order *domain.Order) error {
	return db.WithContext(ctx).Create(order).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id string) (*domain.Order, error) {
	var orders []domain.Order
	err := db.WithContext(ctx).
		Preload("Items", func(tx *gorm.DB) *gorm.DB { return tx.Order("id ASC") }).
		Where("id = ?", id).
		Limit(1).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, nil
	}
	return &orders[0], nil
}

func (r *repo) ListByUser(ctx context.Context, db *gorm.DB, userID string, limit int) ([]domain.Order, error) {
	var orders []domain.Order
	err := db.WithContext(ctx).
		Preload("Items", func(tx *gorm.DB) *gorm.DB { return tx.Order("id ASC") }).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repo) MarkPaid(ctx context.Context, db *gorm.DB, id string, paidAt time.Time, result domain.PaymentResult) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE orders
		 SET is_paid = ?, paid_at = ?, payment_reference = ?, payment_status = ?,
		     payment_update_time = ?, payment_payer_email = ?, updated_at = ?
		 WHERE id = ? AND is_paid = ?`,
		true,
		paidAt,
		result.Reference,
		result.Status,
		result.UpdateTime,
		result.PayerEmail,
		paidAt,
		id,
		false,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repo) AttachCheckoutSession(ctx context.Context, db *gorm.DB, id, sessionID string) error {
	return db.WithContext(ctx).Exec(
		`UPDATE orders SET checkout_session_id = ?, updated_at = ? WHERE id = ? AND is_paid = ?`,
		sessionID,
		time.Now().UTC(),
		id,
		false,
	).Error
}

func (r *repo) InsertEvent(ctx context.Context, db *gorm.DB, event *domain.Event) error {
	return db.WithContext(ctx).Create(event).Error
}

func (r *repo) ListPendingEvents(ctx context.Context, db *gorm.DB, limit int) ([]domain.Event, error) {
	var events []domain.Event
	err := db.WithContext(ctx).
		Where("status = ?", domain.EventStatusPending).
		Order("id ASC").
		Limit(limit).
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}

func (r *repo) MarkEventDispatched(ctx context.Context, db *gorm.DB, id snowflake.ID, at time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE order_events SET status = ?, dispatched_at = ?, attempts = attempts + 1 WHERE id = ?`,
		domain.EventStatusDispatched,
		at,
		id,
	).Error
}

// MarkEventFailed records a failed attempt and gives up after maxAttempts.
// status is assigned before attempts: MySQL evaluates SET left to right
// and would otherwise see the incremented count.
func (r *repo) MarkEventFailed(ctx context.Context, db *gorm.DB, id snowflake.ID, reason string, maxAttempts int) error {
	return db.WithContext(ctx).Exec(markEventFailedSQL,
		maxAttempts,
		domain.EventStatusFailed,
		reason,
		id,
	).Error
}

const markEventFailedSQL = `UPDATE order_events
 SET status = CASE WHEN attempts + 1 >= ? THEN ? ELSE status END,
     last_error = ?,
     attempts = attempts + 1
 WHERE id = ?`
