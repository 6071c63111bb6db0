package webhook

import (
	"context"
	"errors"

	"github.com/railzwaylabs/storefront/internal/clock"
	"github.com/railzwaylabs/storefront/internal/observability"
	"github.com/railzwaylabs/storefront/internal/payment/domain"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	outcomePaid         = "paid"
	outcomeAlreadyPaid  = "already_paid"
	outcomeIgnored      = "ignored"
	outcomeDuplicate    = "duplicate"
	outcomeUnpaid       = "unpaid"
	outcomeMissingOrder = "missing_order"
	outcomeUnknownOrder = "unknown_order"
	outcomeRejected     = "rejected"
	outcomeRetry        = "retry"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Provider domain.ProviderClient
	Guard    domain.Guard
	Events   domain.WebhookEventRepository
	Clock    clock.Clock
	Redis    *redis.Client          `optional:"true"`
	Metrics  *observability.Metrics `optional:"true"`
}

type Service struct {
	log      *zap.Logger
	provider domain.ProviderClient
	guard    domain.Guard
	ledger   *Ledger
	clock    clock.Clock
	metrics  *observability.Metrics
}

func NewService(p Params) domain.WebhookService {
	return &Service{
		log:      p.Log.Named("payment.webhook"),
		provider: p.Provider,
		guard:    p.Guard,
		ledger:   NewLedger(p.Redis, p.DB, p.Events, p.Log),
		clock:    p.Clock,
		metrics:  p.Metrics,
	}
}

// Ingest handles one provider delivery. A nil return acknowledges it;
// domain.ErrSignatureInvalid and domain.ErrInvalidPayload must not be
// retried, any other error asks the provider to redeliver.
func (s *Service) Ingest(ctx context.Context, payload []byte, signature string) error {
	if !domain.Available(s.provider) {
		return domain.ErrProviderUnavailable
	}

	event, err := s.provider.ConstructEvent(payload, signature)
	if err != nil {
		if errors.Is(err, domain.ErrProviderUnavailable) {
			return err
		}
		s.metrics.ObserveWebhook("", outcomeRejected)
		s.log.Warn("webhook rejected",
			zap.Error(err),
			zap.Int("payload_size", len(payload)),
			zap.Bool("signature_present", signature != ""))
		return err
	}

	log := s.log.With(zap.String("event_id", event.ID), zap.String("event_type", event.Type))

	if s.ledger.Seen(ctx, event.ID) {
		s.metrics.ObserveWebhook(event.Type, outcomeDuplicate)
		log.Debug("webhook event already handled")
		return nil
	}

	if !event.Settles() {
		s.metrics.ObserveWebhook(event.Type, outcomeIgnored)
		log.Debug("webhook event ignored")
		return nil
	}

	session := event.Session
	if session == nil || session.OrderID == "" {
		s.metrics.ObserveWebhook(event.Type, outcomeMissingOrder)
		log.Warn("checkout session carries no order id")
		s.remember(ctx, event, "", outcomeMissingOrder)
		return nil
	}
	log = log.With(zap.String("order_id", session.OrderID), zap.String("session_id", session.ID))

	if !session.Paid() {
		// async payment methods complete the session before funds arrive
		s.metrics.ObserveWebhook(event.Type, outcomeUnpaid)
		log.Info("checkout session not yet paid", zap.String("payment_status", session.PaymentStatus))
		return nil
	}

	_, applied, err := s.guard.MarkPaid(ctx, domain.Settlement{
		OrderID:           session.OrderID,
		ProviderReference: session.ID,
		ProviderStatus:    session.PaymentStatus,
		PayerEmail:        session.PayerEmail,
		Channel:           domain.ChannelWebhook,
	})
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			s.metrics.ObserveWebhook(event.Type, outcomeUnknownOrder)
			log.Warn("webhook references unknown order")
			s.remember(ctx, event, session.OrderID, outcomeUnknownOrder)
			return nil
		}
		s.metrics.ObserveWebhook(event.Type, outcomeRetry)
		log.Error("failed to settle order from webhook", zap.Error(err))
		return err
	}

	outcome := outcomeAlreadyPaid
	if applied {
		outcome = outcomePaid
	}
	s.metrics.ObserveWebhook(event.Type, outcome)
	s.remember(ctx, event, session.OrderID, outcome)
	log.Info("webhook processed", zap.String("outcome", outcome))
	return nil
}

func (s *Service) remember(ctx context.Context, event *domain.Event, orderID, outcome string) {
	s.ledger.Remember(ctx, domain.WebhookEvent{
		EventID:    event.ID,
		Type:       event.Type,
		OrderID:    orderID,
		Outcome:    outcome,
		ReceivedAt: s.clock.Now(ctx),
	})
}
