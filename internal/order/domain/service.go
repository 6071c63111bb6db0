package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Order, error)
	// Get loads an order the caller is allowed to see.
	Get(ctx context.Context, id string) (*Order, error)
	ListMine(ctx context.Context) ([]Order, error)
}

type CreateRequest struct {
	Currency string      `json:"currency"`
	Items    []ItemInput `json:"items"`
}

type ItemInput struct {
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int             `json:"quantity"`
	ImageRef  string          `json:"imageRef,omitempty"`
}

type Response struct {
	ID            string                 `json:"id"`
	UserID        string                 `json:"userId"`
	Currency      string                 `json:"currency"`
	Amount        decimal.Decimal        `json:"amount"`
	Items         []ItemResponse         `json:"items"`
	IsPaid        bool                   `json:"isPaid"`
	PaidAt        *time.Time             `json:"paidAt,omitempty"`
	PaymentResult *PaymentResultResponse `json:"paymentResult,omitempty"`
	CreatedAt     time.Time              `json:"createdAt"`
}

type ItemResponse struct {
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int             `json:"quantity"`
	ImageRef  string          `json:"imageRef,omitempty"`
}

type PaymentResultResponse struct {
	ProviderReference string     `json:"providerReference"`
	Status            string     `json:"status"`
	UpdateTime        *time.Time `json:"updateTime,omitempty"`
	PayerEmail        string     `json:"payerEmail,omitempty"`
}

func ToResponse(o *Order) Response {
	items := make([]ItemResponse, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, ItemResponse{
			Name:      item.Name,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
			ImageRef:  item.ImageRef,
		})
	}

	resp := Response{
		ID:        o.ID,
		UserID:    o.UserID,
		Currency:  o.Currency,
		Amount:    o.Amount,
		Items:     items,
		IsPaid:    o.IsPaid,
		PaidAt:    o.PaidAt,
		CreatedAt: o.CreatedAt,
	}
	if o.IsPaid {
		resp.PaymentResult = &PaymentResultResponse{
			ProviderReference: o.PaymentResult.Reference,
			Status:            o.PaymentResult.Status,
			UpdateTime:        o.PaymentResult.UpdateTime,
			PayerEmail:        o.PaymentResult.PayerEmail,
		}
	}
	return resp
}

// MaxItemQuantity bounds a single line's quantity.
const MaxItemQuantity = 999_999

var (
	ErrNotFound        = errors.New("order_not_found")
	ErrForbidden       = errors.New("order_forbidden")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrInvalidID       = errors.New("invalid_order_id")
	ErrInvalidItems    = errors.New("invalid_order_items")
	ErrInvalidCurrency = errors.New("invalid_currency")
)
