package service

import (
	"context"
	"net/url"
	"strings"

	"github.com/railzwaylabs/storefront/internal/config"
	orderdomain "github.com/railzwaylabs/storefront/internal/order/domain"
	"github.com/railzwaylabs/storefront/internal/payment/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const orderIDPlaceholder = "{orderId}"

type CheckoutServiceParams struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	Provider  domain.ProviderClient
	Orders    orderdomain.Service
	OrderRepo orderdomain.Repository
	Cfg       config.Config
}

type CheckoutService struct {
	db         *gorm.DB
	log        *zap.Logger
	provider   domain.ProviderClient
	orders     orderdomain.Service
	orderRepo  orderdomain.Repository
	successURL string
	cancelURL  string
	baseURL    string
}

func NewCheckoutService(p CheckoutServiceParams) domain.CheckoutService {
	return &CheckoutService{
		db:         p.DB,
		log:        p.Log.Named("payment.checkout"),
		provider:   p.Provider,
		orders:     p.Orders,
		orderRepo:  p.OrderRepo,
		successURL: p.Cfg.Checkout.SuccessURL,
		cancelURL:  p.Cfg.Checkout.CancelURL,
		baseURL:    strings.TrimRight(p.Cfg.App.BaseURL, "/"),
	}
}

func (s *CheckoutService) CreateSession(ctx context.Context, req domain.CheckoutRequest) (*domain.CheckoutResponse, error) {
	if !domain.Available(s.provider) {
		return nil, domain.ErrProviderUnavailable
	}
	if len(req.Items) == 0 {
		return nil, domain.ErrInvalidLineItem
	}

	order, err := s.orders.Get(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}
	if order.IsPaid {
		return nil, domain.ErrOrderAlreadyPaid
	}

	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = order.Currency
	}
	if currency != order.Currency {
		return nil, domain.ErrCurrencyMismatch
	}

	lineItems, total, err := s.buildLineItems(req.Items, currency)
	if err != nil {
		return nil, err
	}
	expected, err := domain.ToMinorUnits(order.Amount, currency)
	if err != nil {
		return nil, err
	}
	if !total.Equal(decimal.NewFromInt(expected)) {
		s.log.Warn("checkout items do not match order total",
			zap.String("order_id", order.ID),
			zap.String("items_total", total.String()),
			zap.Int64("order_total", expected))
		return nil, domain.ErrAmountMismatch
	}

	session, err := s.provider.CreateCheckoutSession(ctx, domain.SessionRequest{
		OrderID:    order.ID,
		Currency:   currency,
		LineItems:  lineItems,
		SuccessURL: expandOrderURL(s.successURL, order.ID),
		CancelURL:  expandOrderURL(s.cancelURL, order.ID),
	})
	if err != nil {
		return nil, err
	}

	// Verify falls back to this id when the client omits one.
	if err := s.orderRepo.AttachCheckoutSession(ctx, s.db, order.ID, session.ID); err != nil {
		s.log.Warn("failed to record checkout session on order",
			zap.String("order_id", order.ID),
			zap.String("session_id", session.ID),
			zap.Error(err))
	}

	s.log.Info("checkout session created",
		zap.String("order_id", order.ID),
		zap.String("session_id", session.ID))
	return &domain.CheckoutResponse{URL: session.URL, SessionID: session.ID}, nil
}

// buildLineItems returns the provider line items and their total in minor
// units. The total is summed in decimal so it cannot wrap.
func (s *CheckoutService) buildLineItems(items []domain.CheckoutItem, currency string) ([]domain.SessionLineItem, decimal.Decimal, error) {
	out := make([]domain.SessionLineItem, 0, len(items))
	total := decimal.Zero
	for _, item := range items {
		name := strings.TrimSpace(item.Name)
		if name == "" || item.Quantity < 1 || item.Quantity > orderdomain.MaxItemQuantity {
			return nil, decimal.Zero, domain.ErrInvalidLineItem
		}
		unit, err := domain.ToMinorUnits(item.UnitPrice, currency)
		if err != nil {
			return nil, decimal.Zero, err
		}
		out = append(out, domain.SessionLineItem{
			Name:       name,
			UnitAmount: unit,
			Quantity:   int64(item.Quantity),
			ImageURL:   s.imageURL(item.ImageRef),
		})
		total = total.Add(decimal.NewFromInt(unit).Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return out, total, nil
}

func (s *CheckoutService) imageURL(ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	if strings.HasPrefix(ref, "https://") || strings.HasPrefix(ref, "http://") {
		return ref
	}
	if s.baseURL == "" {
		return ""
	}
	return s.baseURL + "/" + strings.TrimLeft(ref, "/")
}

func expandOrderURL(template, orderID string) string {
	return strings.ReplaceAll(template, orderIDPlaceholder, url.PathEscape(orderID))
}
