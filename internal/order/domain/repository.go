package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, order *Order) error
	FindByID(ctx context.Context, db *gorm.DB, id string) (*Order, error)
	ListByUser(ctx context.Context, db *gorm.DB, userID string, limit int) ([]Order, error)
	// MarkPaid sets the settlement fields only while is_paid is false.
	// It reports whether this call performed the transition.
	MarkPaid(ctx context.Context, db *gorm.DB, id string, paidAt time.Time, result PaymentResult) (bool, error)
	AttachCheckoutSession(ctx context.Context, db *gorm.DB, id, sessionID string) error

	InsertEvent(ctx context.Context, db *gorm.DB, event *Event) error
	ListPendingEvents(ctx context.Context, db *gorm.DB, limit int) ([]Event, error)
	MarkEventDispatched(ctx context.Context, db *gorm.DB, id snowflake.ID, at time.Time) error
	MarkEventFailed(ctx context.Context, db *gorm.DB, id snowflake.ID, reason string, maxAttempts int) error
}
