package server

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	orderdomain "github.com/railzwaylabs/storefront/internal/order/domain"
	"github.com/railzwaylabs/storefront/internal/payment/domain"
	"go.uber.org/zap"
)

const maxWebhookBodyBytes = 1 << 20

const HeaderStripeSignature = "Stripe-Signature"

// VerifyPayment
// POST /api/payments/verify
func (s *Server) VerifyPayment(c *gin.Context) {
	var req domain.VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	result, err := s.verifySvc.Verify(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"isPaid": result.IsPaid,
		"order":  orderdomain.ToResponse(result.Order),
	})
}

// HandlePaymentWebhook
// POST /api/payments/webhook
func (s *Server) HandlePaymentWebhook(c *gin.Context) {
	payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.log.Warn("webhook body too large", zap.Int64("limit", tooLarge.Limit))
			AbortWithError(c, ErrPayloadTooLarge)
			return
		}
		s.log.Warn("failed to read webhook body", zap.Error(err))
		AbortWithError(c, domain.ErrInvalidPayload)
		return
	}

	if err := s.webhookSvc.Ingest(c.Request.Context(), payload, c.GetHeader(HeaderStripeSignature)); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}

// GetPayPalConfig
// GET /api/config/paypal
func (s *Server) GetPayPalConfig(c *gin.Context) {
	c.JSON(http.StatusOK, s.paypal)
}
