package domain

import (
	"errors"
	"fmt"

	orderdomain "github.com/railzwaylabs/storefront/internal/order/domain"
)

var (
	ErrProviderUnavailable = errors.New("payment_provider_unavailable")
	ErrProviderRequest     = errors.New("payment_provider_request_rejected")
	ErrProviderFailure     = errors.New("payment_provider_failure")
	ErrSignatureInvalid    = errors.New("invalid_signature")
	ErrInvalidPayload      = errors.New("invalid_payload")
	ErrInvalidLineItem     = errors.New("invalid_line_item")
	ErrOrderMismatch       = errors.New("order_session_mismatch")
	ErrOrderAlreadyPaid    = errors.New("order_already_paid")
	ErrAmountMismatch      = errors.New("order_amount_mismatch")
	ErrCurrencyMismatch    = errors.New("order_currency_mismatch")
	ErrUnsupportedCurrency = errors.New("unsupported_currency")

	ErrOrderNotFound = orderdomain.ErrNotFound
)

// ProviderRequestError is returned when the provider rejects a request.
// Message is the provider's own explanation and is safe to show callers.
type ProviderRequestError struct {
	Message    string
	Code       string
	StatusCode int
}

func (e *ProviderRequestError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("payment provider rejected request (%s): %s", e.Code, e.Message)
	}
	return "payment provider rejected request: " + e.Message
}

func (e *ProviderRequestError) Is(target error) bool {
	return target == ErrProviderRequest
}
