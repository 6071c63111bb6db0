package domain

import (
	"context"
)

// MetadataOrderID is the session metadata key binding a checkout session
// to a local order.
const MetadataOrderID = "orderId"

const (
	EventCheckoutSessionCompleted             = "checkout.session.completed"
	EventCheckoutSessionAsyncPaymentSucceeded = "checkout.session.async_payment_succeeded"
)

const (
	SessionStatusOpen     = "open"
	SessionStatusComplete = "complete"
	SessionStatusExpired  = "expired"

	PaymentStatusPaid              = "paid"
	PaymentStatusUnpaid            = "unpaid"
	PaymentStatusNoPaymentRequired = "no_payment_required"
)

// ProviderClient is the payment provider capability. It is built once from
// configuration and injected; Unconfigured stands in when credentials are
// missing.
type ProviderClient interface {
	CreateCheckoutSession(ctx context.Context, req SessionRequest) (*ProviderSession, error)
	RetrieveCheckoutSession(ctx context.Context, sessionID string) (*ProviderSession, error)
	// ConstructEvent verifies signature over the exact payload bytes and
	// decodes the event.
	ConstructEvent(payload []byte, signature string) (*Event, error)
}

type SessionRequest struct {
	OrderID    string
	Currency   string
	LineItems  []SessionLineItem
	SuccessURL string
	CancelURL  string
}

type SessionLineItem struct {
	Name       string
	UnitAmount int64 // minor units
	Quantity   int64
	ImageURL   string
}

type ProviderSession struct {
	ID            string
	URL           string
	Status        string
	PaymentStatus string
	OrderID       string
	PayerEmail    string
	AmountTotal   int64
	Currency      string
}

// Paid reports whether the provider considers the session settled.
func (s *ProviderSession) Paid() bool {
	if s == nil {
		return false
	}
	return s.PaymentStatus == PaymentStatusPaid || s.PaymentStatus == PaymentStatusNoPaymentRequired
}

type Event struct {
	ID      string
	Type    string
	Session *ProviderSession
}

// Settles reports whether the event type can drive an order to paid.
func (e *Event) Settles() bool {
	if e == nil {
		return false
	}
	switch e.Type {
	case EventCheckoutSessionCompleted, EventCheckoutSessionAsyncPaymentSucceeded:
		return true
	default:
		return false
	}
}

type Unconfigured struct{}

func (Unconfigured) CreateCheckoutSession(context.Context, SessionRequest) (*ProviderSession, error) {
	return nil, ErrProviderUnavailable
}

func (Unconfigured) RetrieveCheckoutSession(context.Context, string) (*ProviderSession, error) {
	return nil, ErrProviderUnavailable
}

func (Unconfigured) ConstructEvent([]byte, string) (*Event, error) {
	return nil, ErrProviderUnavailable
}

// Available reports whether p can reach a real provider.
func Available(p ProviderClient) bool {
	if p == nil {
		return false
	}
	_, unconfigured := p.(Unconfigured)
	return !unconfigured
}
