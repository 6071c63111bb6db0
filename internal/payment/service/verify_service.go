package service

import (
	"context"
	"strings"

	orderdomain "github.com/railzwaylabs/storefront/internal/order/domain"
	"github.com/railzwaylabs/storefront/internal/payment/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type VerifyServiceParams struct {
	fx.In

	Log      *zap.Logger
	Provider domain.ProviderClient
	Orders   orderdomain.Service
	Guard    domain.Guard
}

type VerifyService struct {
	log      *zap.Logger
	provider domain.ProviderClient
	orders   orderdomain.Service
	guard    domain.Guard
}

func NewVerifyService(p VerifyServiceParams) domain.VerifyService {
	return &VerifyService{
		log:      p.Log.Named("payment.verify"),
		provider: p.Provider,
		orders:   p.Orders,
		guard:    p.Guard,
	}
}

// Verify reconciles an order against the provider on the client's return
// from the hosted payment page.
func (s *VerifyService) Verify(ctx context.Context, req domain.VerifyRequest) (*domain.VerifyResult, error) {
	order, err := s.orders.Get(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}
	if order.IsPaid {
		return &domain.VerifyResult{IsPaid: true, Order: order}, nil
	}
	if !domain.Available(s.provider) {
		return nil, domain.ErrProviderUnavailable
	}

	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		sessionID = order.CheckoutSessionID
	}
	if sessionID == "" {
		return &domain.VerifyResult{IsPaid: false, Order: order}, nil
	}

	session, err := s.provider.RetrieveCheckoutSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.OrderID != order.ID {
		s.log.Warn("checkout session bound to a different order",
			zap.String("order_id", order.ID),
			zap.String("session_id", sessionID),
			zap.String("session_order_id", session.OrderID))
		return nil, domain.ErrOrderMismatch
	}
	if !session.Paid() {
		return &domain.VerifyResult{IsPaid: false, Order: order}, nil
	}

	updated, _, err := s.guard.MarkPaid(ctx, domain.Settlement{
		OrderID:           order.ID,
		ProviderReference: session.ID,
		ProviderStatus:    session.PaymentStatus,
		PayerEmail:        session.PayerEmail,
		Channel:           domain.ChannelPoll,
	})
	if err != nil {
		return nil, err
	}
	return &domain.VerifyResult{IsPaid: updated.IsPaid, Order: updated}, nil
}
