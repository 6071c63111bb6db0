package service

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/railzwaylabs/storefront/internal/clock"
	"github.com/railzwaylabs/storefront/internal/observability"
	orderdomain "github.com/railzwaylabs/storefront/internal/order/domain"
	"github.com/railzwaylabs/storefront/internal/payment/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type GuardParams struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	Orders  orderdomain.Repository
	GenID   *snowflake.Node
	Clock   clock.Clock
	Metrics *observability.Metrics `optional:"true"`
}

type Guard struct {
	db      *gorm.DB
	log     *zap.Logger
	orders  orderdomain.Repository
	genID   *snowflake.Node
	clock   clock.Clock
	metrics *observability.Metrics
}

func NewGuard(p GuardParams) domain.Guard {
	return &Guard{
		db:      p.DB,
		log:     p.Log.Named("payment.guard"),
		orders:  p.Orders,
		genID:   p.GenID,
		clock:   p.Clock,
		metrics: p.Metrics,
	}
}

type orderPaidPayload struct {
	OrderID           string `json:"orderId"`
	UserID            string `json:"userId"`
	Amount            string `json:"amount"`
	Currency          string `json:"currency"`
	ProviderReference string `json:"providerReference"`
	PayerEmail        string `json:"payerEmail,omitempty"`
	Channel           string `json:"channel"`
}

// MarkPaid applies the unpaid to paid transition at most once per order.
// The conditional update, the outbox row and the reload share one
// transaction, so a failure leaves the order untouched.
func (g *Guard) MarkPaid(ctx context.Context, s domain.Settlement) (*orderdomain.Order, bool, error) {
	orderID := strings.TrimSpace(s.OrderID)
	if orderID == "" {
		return nil, false, domain.ErrOrderNotFound
	}
	status := s.ProviderStatus
	if status == "" {
		status = domain.PaymentStatusPaid
	}

	now := g.clock.Now(ctx)
	var (
		order   *orderdomain.Order
		applied bool
	)
	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := g.orders.MarkPaid(ctx, tx, orderID, now, orderdomain.PaymentResult{
			Reference:  s.ProviderReference,
			Status:     status,
			UpdateTime: &now,
			PayerEmail: s.PayerEmail,
		})
		if err != nil {
			return err
		}
		applied = ok

		order, err = g.orders.FindByID(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return domain.ErrOrderNotFound
		}
		if !applied {
			return nil
		}

		payload, err := json.Marshal(orderPaidPayload{
			OrderID:           order.ID,
			UserID:            order.UserID,
			Amount:            order.Amount.StringFixed(domain.MinorUnitExponent(order.Currency)),
			Currency:          order.Currency,
			ProviderReference: s.ProviderReference,
			PayerEmail:        s.PayerEmail,
			Channel:           s.Channel,
		})
		if err != nil {
			return err
		}
		return g.orders.InsertEvent(ctx, tx, &orderdomain.Event{
			ID:        g.genID.Generate(),
			OrderID:   order.ID,
			Type:      orderdomain.EventTypeOrderPaid,
			Payload:   payload,
			Status:    orderdomain.EventStatusPending,
			CreatedAt: now,
		})
	})
	if err != nil {
		g.metrics.ObserveSettlement(s.Channel, "error")
		return nil, false, err
	}

	if applied {
		g.metrics.ObserveSettlement(s.Channel, "paid")
		g.log.Info("order marked paid",
			zap.String("order_id", orderID),
			zap.String("channel", s.Channel),
			zap.String("provider_reference", s.ProviderReference))
	} else {
		g.metrics.ObserveSettlement(s.Channel, "already_paid")
		g.log.Debug("order already paid",
			zap.String("order_id", orderID),
			zap.String("channel", s.Channel))
	}
	return order, applied, nil
}
