package webhook

import (
	"context"
	"time"

	"github.com/railzwaylabs/storefront/internal/payment/domain"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	ledgerKeyPrefix = "webhook:event:"
	ledgerTTL       = 72 * time.Hour
)

// Ledger remembers provider event ids that were fully handled. It is an
// optimisation over the guard's own idempotency: every lookup failure
// reports "not seen".
type Ledger struct {
	redis *redis.Client
	db    *gorm.DB
	repo  domain.WebhookEventRepository
	log   *zap.Logger
}

func NewLedger(rdb *redis.Client, db *gorm.DB, repo domain.WebhookEventRepository, log *zap.Logger) *Ledger {
	return &Ledger{
		redis: rdb,
		db:    db,
		repo:  repo,
		log:   log.Named("payment.webhook.ledger"),
	}
}

func (l *Ledger) Seen(ctx context.Context, eventID string) bool {
	if eventID == "" {
		return false
	}
	if l.redis != nil {
		n, err := l.redis.Exists(ctx, ledgerKeyPrefix+eventID).Result()
		if err != nil {
			l.log.Warn("redis ledger lookup failed", zap.String("event_id", eventID), zap.Error(err))
		} else if n > 0 {
			return true
		}
	}
	if l.repo == nil || l.db == nil {
		return false
	}
	seen, err := l.repo.Exists(ctx, l.db, eventID)
	if err != nil {
		l.log.Warn("ledger lookup failed", zap.String("event_id", eventID), zap.Error(err))
		return false
	}
	return seen
}

func (l *Ledger) Remember(ctx context.Context, ev domain.WebhookEvent) {
	if ev.EventID == "" {
		return
	}
	if l.redis != nil {
		if err := l.redis.Set(ctx, ledgerKeyPrefix+ev.EventID, ev.Outcome, ledgerTTL).Err(); err != nil {
			l.log.Warn("redis ledger write failed", zap.String("event_id", ev.EventID), zap.Error(err))
		}
	}
	if l.repo == nil || l.db == nil {
		return
	}
	if err := l.repo.Insert(ctx, l.db, &ev); err != nil {
		l.log.Warn("ledger write failed", zap.String("event_id", ev.EventID), zap.Error(err))
	}
}
