package service

import (
	"context"
	"errors"
	"math"
	"testing"

	orderdomain "github.com/railzwaylabs/storefront/internal/order/domain"
	"github.com/railzwaylabs/storefront/internal/payment/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func (f *fixture) checkoutService(provider domain.ProviderClient) domain.CheckoutService {
	return NewCheckoutService(CheckoutServiceParams{
		DB:        f.db,
		Log:       zap.NewNop(),
		Provider:  provider,
		Orders:    f.orders,
		OrderRepo: f.orderRepo,
		Cfg:       f.cfg,
	})
}

func headphones() []domain.CheckoutItem {
	return []domain.CheckoutItem{
		{Name: "Headphones", UnitPrice: decimal.RequireFromString("89.99"), Quantity: 1, ImageRef: "/images/headphones.jpg"},
	}
}

func TestCreateSession_Success(t *testing.T) {
	f := newFixture(t)
	order := f.createOrder(t)
	provider := new(MockProvider)
	provider.On("CreateCheckoutSession", mock.Anything, mock.MatchedBy(func(req domain.SessionRequest) bool {
		return req.OrderID == order.ID &&
			req.Currency == "EUR" &&
			len(req.LineItems) == 1 &&
			req.LineItems[0].UnitAmount == 8999 &&
			req.LineItems[0].Quantity == 1 &&
			req.LineItems[0].ImageURL == "https://shop.example/images/headphones.jpg" &&
			req.SuccessURL == "https://shop.example/order/"+order.ID+"?paid=1" &&
			req.CancelURL == "https://shop.example/order/"+order.ID
	})).Return(&domain.ProviderSession{ID: "cs_1", URL: "https://checkout.stripe.com/c/pay/cs_1"}, nil).Once()

	resp, err := f.checkoutService(provider).CreateSession(asCustomer("u1"), domain.CheckoutRequest{
		OrderID: order.ID,
		Items:   headphones(),
	})
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.stripe.com/c/pay/cs_1", resp.URL)
	assert.Equal(t, "cs_1", resp.SessionID)
	assert.Equal(t, "cs_1", f.reload(t, order.ID).CheckoutSessionID)
	provider.AssertExpectations(t)
}

func TestCreateSession_ProviderUnconfigured(t *testing.T) {
	f := newFixture(t)
	order := f.createOrder(t)

	_, err := f.checkoutService(domain.Unconfigured{}).CreateSession(asCustomer("u1"), domain.CheckoutRequest{
		OrderID: order.ID,
		Items:   headphones(),
	})
	assert.ErrorIs(t, err, domain.ErrProviderUnavailable)
	assert.Empty(t, f.reload(t, order.ID).CheckoutSessionID)
}

func TestCreateSession_ProviderRejects(t *testing.T) {
	f := newFixture(t)
	order := f.createOrder(t)
	provider := new(MockProvider)
	provider.On("CreateCheckoutSession", mock.Anything, mock.Anything).
		Return(nil, &domain.ProviderRequestError{Message: "Invalid currency", StatusCode: 400}).Once()

	_, err := f.checkoutService(provider).CreateSession(asCustomer("u1"), domain.CheckoutRequest{
		OrderID: order.ID,
		Items:   headphones(),
	})
	assert.ErrorIs(t, err, domain.ErrProviderRequest)
	assert.Empty(t, f.reload(t, order.ID).CheckoutSessionID)
}

func TestCreateSession_Rejections(t *testing.T) {
	f := newFixture(t)
	order := f.createOrder(t)
	paid := f.createOrder(t)
	_, _, err := f.guard.MarkPaid(context.Background(), domain.Settlement{OrderID: paid.ID, ProviderReference: "cs_0", ProviderStatus: "paid", Channel: domain.ChannelWebhook})
	require.NoError(t, err)

	tests := []struct {
		name string
		ctx  context.Context
		req  domain.CheckoutRequest
		want error
	}{
		{"no items", asCustomer("u1"), domain.CheckoutRequest{OrderID: order.ID}, domain.ErrInvalidLineItem},
		{"unknown order", asCustomer("u1"), domain.CheckoutRequest{OrderID: "missing", Items: headphones()}, domain.ErrOrderNotFound},
		{"foreign order", asCustomer("u2"), domain.CheckoutRequest{OrderID: order.ID, Items: headphones()}, orderdomain.ErrForbidden},
		{"already paid", asCustomer("u1"), domain.CheckoutRequest{OrderID: paid.ID, Items: headphones()}, domain.ErrOrderAlreadyPaid},
		{"currency mismatch", asCustomer("u1"), domain.CheckoutRequest{OrderID: order.ID, Currency: "usd", Items: headphones()}, domain.ErrCurrencyMismatch},
		{"negative price", asCustomer("u1"), domain.CheckoutRequest{OrderID: order.ID, Items: []domain.CheckoutItem{{Name: "x", UnitPrice: decimal.NewFromInt(-1), Quantity: 1}}}, domain.ErrInvalidLineItem},
		{"zero quantity", asCustomer("u1"), domain.CheckoutRequest{OrderID: order.ID, Items: []domain.CheckoutItem{{Name: "x", UnitPrice: decimal.NewFromInt(1)}}}, domain.ErrInvalidLineItem},
		{"quantity over cap", asCustomer("u1"), domain.CheckoutRequest{OrderID: order.ID, Items: []domain.CheckoutItem{{Name: "x", UnitPrice: decimal.RequireFromString("0.01"), Quantity: orderdomain.MaxItemQuantity + 1}}}, domain.ErrInvalidLineItem},
		{"amount mismatch", asCustomer("u1"), domain.CheckoutRequest{OrderID: order.ID, Items: []domain.CheckoutItem{{Name: "Headphones", UnitPrice: decimal.RequireFromString("1.00"), Quantity: 1}}}, domain.ErrAmountMismatch},
	}

	provider := new(MockProvider)
	svc := f.checkoutService(provider)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateSession(tt.ctx, tt.req)
			assert.True(t, errors.Is(err, tt.want), "got %v, want %v", err, tt.want)
		})
	}
	provider.AssertNotCalled(t, "CreateCheckoutSession", mock.Anything, mock.Anything)
}

func TestCreateSession_TotalCannotWrap(t *testing.T) {
	f := newFixture(t)
	order := f.createOrder(t)
	provider := new(MockProvider)
	svc := f.checkoutService(provider)

	// 2*MaxInt + 9001 wraps to 8999 in int64 arithmetic.
	_, err := svc.CreateSession(asCustomer("u1"), domain.CheckoutRequest{
		OrderID: order.ID,
		Items: []domain.CheckoutItem{
			{Name: "A", UnitPrice: decimal.RequireFromString("0.02"), Quantity: math.MaxInt},
			{Name: "B", UnitPrice: decimal.RequireFromString("90.01"), Quantity: 1},
		},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidLineItem)

	// Within the quantity cap the decimal total still has to match.
	_, err = svc.CreateSession(asCustomer("u1"), domain.CheckoutRequest{
		OrderID: order.ID,
		Items: []domain.CheckoutItem{
			{Name: "A", UnitPrice: decimal.RequireFromString("99999.99"), Quantity: orderdomain.MaxItemQuantity},
			{Name: "B", UnitPrice: decimal.RequireFromString("89.99"), Quantity: 1},
		},
	})
	assert.ErrorIs(t, err, domain.ErrAmountMismatch)

	provider.AssertNotCalled(t, "CreateCheckoutSession", mock.Anything, mock.Anything)
	assert.Empty(t, f.reload(t, order.ID).CheckoutSessionID)
}

func TestCreateSession_SeveralLines(t *testing.T) {
	f := newFixture(t)
	order := f.createOrder(t)
	provider := new(MockProvider)
	provider.On("CreateCheckoutSession", mock.Anything, mock.MatchedBy(func(req domain.SessionRequest) bool {
		return len(req.LineItems) == 2 &&
			req.LineItems[0].UnitAmount == 2999 && req.LineItems[0].Quantity == 2 &&
			req.LineItems[1].UnitAmount == 3001 && req.LineItems[1].Quantity == 1
	})).Return(&domain.ProviderSession{ID: "cs_2", URL: "https://checkout.stripe.com/c/pay/cs_2"}, nil).Once()

	resp, err := f.checkoutService(provider).CreateSession(asCustomer("u1"), domain.CheckoutRequest{
		OrderID: order.ID,
		Items: []domain.CheckoutItem{
			{Name: "Cable", UnitPrice: decimal.RequireFromString("29.99"), Quantity: 2},
			{Name: "Case", UnitPrice: decimal.RequireFromString("30.01"), Quantity: 1},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "cs_2", resp.SessionID)
	provider.AssertExpectations(t)
}

func TestExpandOrderURL(t *testing.T) {
	assert.Equal(t, "https://shop.example/order/O1?s={CHECKOUT_SESSION_ID}", expandOrderURL("https://shop.example/order/{orderId}?s={CHECKOUT_SESSION_ID}", "O1"))
	assert.Equal(t, "https://shop.example/done", expandOrderURL("https://shop.example/done", "O1"))
}
