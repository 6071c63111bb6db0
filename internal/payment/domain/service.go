package domain

import (
	"context"
	"time"

	orderdomain "github.com/railzwaylabs/storefront/internal/order/domain"
	"github.com/shopspring/decimal"
)

const (
	ChannelWebhook = "webhook"
	ChannelPoll    = "poll"
)

// Settlement is one observation that an order has been paid.
type Settlement struct {
	OrderID           string
	ProviderReference string
	ProviderStatus    string
	PayerEmail        string
	Channel           string
}

// Guard is the only writer of an order's settlement fields.
type Guard interface {
	// MarkPaid returns the order and whether this call moved it to paid.
	MarkPaid(ctx context.Context, s Settlement) (*orderdomain.Order, bool, error)
}

type CheckoutService interface {
	CreateSession(ctx context.Context, req CheckoutRequest) (*CheckoutResponse, error)
}

type CheckoutRequest struct {
	OrderID  string         `json:"orderId"`
	Currency string         `json:"currency"`
	Items    []CheckoutItem `json:"items"`
}

type CheckoutItem struct {
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int             `json:"quantity"`
	ImageRef  string          `json:"imageRef,omitempty"`
}

type CheckoutResponse struct {
	URL       string `json:"url"`
	SessionID string `json:"sessionId"`
}

type VerifyService interface {
	Verify(ctx context.Context, req VerifyRequest) (*VerifyResult, error)
}

type VerifyRequest struct {
	OrderID   string `json:"orderId"`
	SessionID string `json:"sessionId"`
}

type VerifyResult struct {
	IsPaid bool
	Order  *orderdomain.Order
}

type WebhookService interface {
	Ingest(ctx context.Context, payload []byte, signature string) error
}

// WebhookEvent records a provider event id once it has been handled.
type WebhookEvent struct {
	EventID    string    `gorm:"primaryKey;type:varchar(255)"`
	Type       string    `gorm:"type:varchar(128);not null"`
	OrderID    string    `gorm:"type:varchar(26)"`
	Outcome    string    `gorm:"type:varchar(32);not null"`
	ReceivedAt time.Time `gorm:"not null"`
}

func (WebhookEvent) TableName() string { return "webhook_events" }
