package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/railzwaylabs/storefront/internal/auth"
	orderdomain "github.com/railzwaylabs/storefront/internal/order/domain"
	paymentdomain "github.com/railzwaylabs/storefront/internal/payment/domain"
)

var (
	ErrUnauthorized    = errors.New("unauthorized")
	ErrInvalidRequest  = errors.New("invalid_request")
	ErrInternal        = errors.New("internal_error")
	ErrPayloadTooLarge = errors.New("payload_too_large")
)

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type apiError struct {
	status  int
	code    string
	message string
}

// AbortWithError writes the JSON error envelope for err and stops the chain.
func AbortWithError(c *gin.Context, err error) {
	e := mapError(err)
	if e.status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(e.status, gin.H{"error": errorBody{Code: e.code, Message: e.message}})
}

func mapError(err error) apiError {
	var reqErr *paymentdomain.ProviderRequestError
	if errors.As(err, &reqErr) {
		return apiError{http.StatusInternalServerError, paymentdomain.ErrProviderRequest.Error(), reqErr.Message}
	}

	switch {
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, auth.ErrUnauthenticated),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, orderdomain.ErrUnauthenticated):
		return apiError{http.StatusUnauthorized, "unauthorized", "authentication required"}

	case errors.Is(err, orderdomain.ErrForbidden):
		return apiError{http.StatusForbidden, orderdomain.ErrForbidden.Error(), "not allowed to access this order"}

	case errors.Is(err, orderdomain.ErrNotFound):
		return apiError{http.StatusNotFound, orderdomain.ErrNotFound.Error(), "order not found"}

	case errors.Is(err, paymentdomain.ErrOrderAlreadyPaid):
		return apiError{http.StatusConflict, paymentdomain.ErrOrderAlreadyPaid.Error(), "order is already paid"}

	case errors.Is(err, paymentdomain.ErrSignatureInvalid):
		return apiError{http.StatusBadRequest, paymentdomain.ErrSignatureInvalid.Error(), "webhook signature verification failed"}

	case errors.Is(err, paymentdomain.ErrInvalidPayload):
		return apiError{http.StatusBadRequest, paymentdomain.ErrInvalidPayload.Error(), "webhook payload could not be parsed"}

	case errors.Is(err, paymentdomain.ErrOrderMismatch):
		return apiError{http.StatusBadRequest, paymentdomain.ErrOrderMismatch.Error(), "checkout session does not belong to this order"}

	case errors.Is(err, paymentdomain.ErrAmountMismatch):
		return apiError{http.StatusBadRequest, paymentdomain.ErrAmountMismatch.Error(), "items do not match the order total"}

	case errors.Is(err, paymentdomain.ErrCurrencyMismatch):
		return apiError{http.StatusBadRequest, paymentdomain.ErrCurrencyMismatch.Error(), "currency does not match the order"}

	case errors.Is(err, paymentdomain.ErrUnsupportedCurrency):
		return apiError{http.StatusBadRequest, paymentdomain.ErrUnsupportedCurrency.Error(), "currency is not supported"}

	case errors.Is(err, paymentdomain.ErrInvalidLineItem),
		errors.Is(err, orderdomain.ErrInvalidItems):
		return apiError{http.StatusBadRequest, "invalid_items", "items are invalid"}

	case errors.Is(err, orderdomain.ErrInvalidID):
		return apiError{http.StatusBadRequest, orderdomain.ErrInvalidID.Error(), "order id is invalid"}

	case errors.Is(err, orderdomain.ErrInvalidCurrency):
		return apiError{http.StatusBadRequest, orderdomain.ErrInvalidCurrency.Error(), "currency is invalid"}

	case errors.Is(err, ErrPayloadTooLarge):
		return apiError{http.StatusRequestEntityTooLarge, ErrPayloadTooLarge.Error(), "request body is too large"}

	case errors.Is(err, ErrInvalidRequest):
		return apiError{http.StatusBadRequest, ErrInvalidRequest.Error(), "request body is invalid"}

	case errors.Is(err, paymentdomain.ErrProviderUnavailable):
		return apiError{http.StatusServiceUnavailable, paymentdomain.ErrProviderUnavailable.Error(), "payment provider is not configured"}

	case errors.Is(err, paymentdomain.ErrProviderFailure):
		return apiError{http.StatusInternalServerError, paymentdomain.ErrProviderFailure.Error(), "payment provider request failed"}
	}

	return apiError{http.StatusInternalServerError, ErrInternal.Error(), "internal server error"}
}
