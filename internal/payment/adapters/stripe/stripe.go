package stripe

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/railzwaylabs/storefront/internal/config"
	"github.com/railzwaylabs/storefront/internal/observability"
	paymentdomain "github.com/railzwaylabs/storefront/internal/payment/domain"
	stripego "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
	"github.com/stripe/stripe-go/v82/webhook"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const defaultTimeout = 10 * time.Second

type Params struct {
	fx.In

	Cfg     config.Config
	Log     *zap.Logger
	Metrics *observability.Metrics `optional:"true"`
}

// NewProvider returns the Stripe client, or paymentdomain.Unconfigured when
// no secret key is set.
func NewProvider(p Params) paymentdomain.ProviderClient {
	log := p.Log.Named("payment.stripe")
	if p.Cfg.Stripe.SecretKey == "" {
		log.Warn("stripe secret key not configured, payment endpoints will answer 503")
		return paymentdomain.Unconfigured{}
	}
	return NewAdapter(p.Cfg.Stripe, log, p.Metrics)
}

type Adapter struct {
	api           *client.API
	webhookSecret string
	timeout       time.Duration
	log           *zap.Logger
	metrics       *observability.Metrics
	tracer        trace.Tracer
}

func NewAdapter(cfg config.StripeConfig, log *zap.Logger, metrics *observability.Metrics) *Adapter {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	backendCfg := &stripego.BackendConfig{
		HTTPClient:        &http.Client{Timeout: timeout},
		MaxNetworkRetries: stripego.Int64(cfg.MaxNetworkRetries),
		LeveledLogger:     log.Sugar(),
	}
	if base := strings.TrimSpace(cfg.APIBase); base != "" {
		backendCfg.URL = stripego.String(base)
	}

	return &Adapter{
		api:           client.New(cfg.SecretKey, stripego.NewBackendsWithConfig(backendCfg)),
		webhookSecret: cfg.WebhookSecret,
		timeout:       timeout,
		log:           log,
		metrics:       metrics,
		tracer:        otel.Tracer("storefront/payment/stripe"),
	}
}

func (a *Adapter) CreateCheckoutSession(ctx context.Context, req paymentdomain.SessionRequest) (*paymentdomain.ProviderSession, error) {
	ctx, span := a.tracer.Start(ctx, "stripe.checkout_sessions.create",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("order.id", req.OrderID)))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	currency := strings.ToLower(req.Currency)
	params := &stripego.CheckoutSessionParams{
		Mode:              stripego.String(string(stripego.CheckoutSessionModePayment)),
		SuccessURL:        stripego.String(req.SuccessURL),
		CancelURL:         stripego.String(req.CancelURL),
		ClientReferenceID: stripego.String(req.OrderID),
		PaymentIntentData: &stripego.CheckoutSessionPaymentIntentDataParams{
			Metadata: map[string]string{paymentdomain.MetadataOrderID: req.OrderID},
		},
	}
	params.Context = ctx
	params.AddMetadata(paymentdomain.MetadataOrderID, req.OrderID)

	for _, item := range req.LineItems {
		product := &stripego.CheckoutSessionLineItemPriceDataProductDataParams{
			Name: stripego.String(item.Name),
		}
		if item.ImageURL != "" {
			product.Images = stripego.StringSlice([]string{item.ImageURL})
		}
		params.LineItems = append(params.LineItems, &stripego.CheckoutSessionLineItemParams{
			PriceData: &stripego.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripego.String(currency),
				UnitAmount:  stripego.Int64(item.UnitAmount),
				ProductData: product,
			},
			Quantity: stripego.Int64(item.Quantity),
		})
	}

	started := time.Now()
	session, err := a.api.CheckoutSessions.New(params)
	a.metrics.ObserveProviderCall("create_session", err, time.Since(started))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "create session failed")
		return nil, a.mapError("create checkout session", err)
	}

	span.SetAttributes(attribute.String("stripe.session_id", session.ID))
	return toProviderSession(session), nil
}

func (a *Adapter) RetrieveCheckoutSession(ctx context.Context, sessionID string) (*paymentdomain.ProviderSession, error) {
	ctx, span := a.tracer.Start(ctx, "stripe.checkout_sessions.get",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("stripe.session_id", sessionID)))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	params := &stripego.CheckoutSessionParams{}
	params.Context = ctx

	started := time.Now()
	session, err := a.api.CheckoutSessions.Get(sessionID, params)
	a.metrics.ObserveProviderCall("retrieve_session", err, time.Since(started))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "retrieve session failed")
		return nil, a.mapError("retrieve checkout session", err)
	}
	return toProviderSession(session), nil
}

func (a *Adapter) ConstructEvent(payload []byte, signature string) (*paymentdomain.Event, error) {
	if a.webhookSecret == "" {
		return nil, paymentdomain.ErrProviderUnavailable
	}

	event, err := webhook.ConstructEventWithOptions(payload, signature, a.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		switch {
		case errors.Is(err, webhook.ErrNotSigned),
			errors.Is(err, webhook.ErrInvalidHeader),
			errors.Is(err, webhook.ErrNoValidSignature),
			errors.Is(err, webhook.ErrTooOld):
			return nil, paymentdomain.ErrSignatureInvalid
		default:
			return nil, paymentdomain.ErrInvalidPayload
		}
	}

	out := &paymentdomain.Event{
		ID:   event.ID,
		Type: string(event.Type),
	}
	if !strings.HasPrefix(out.Type, "checkout.session.") || event.Data == nil {
		return out, nil
	}

	var session stripego.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return nil, paymentdomain.ErrInvalidPayload
	}
	out.Session = toProviderSession(&session)
	return out, nil
}

func (a *Adapter) mapError(op string, err error) error {
	var stripeErr *stripego.Error
	if errors.As(err, &stripeErr) {
		a.log.Warn("stripe rejected request",
			zap.String("op", op),
			zap.String("code", string(stripeErr.Code)),
			zap.Int("status", stripeErr.HTTPStatusCode),
			zap.String("request_id", stripeErr.RequestID))
		return &paymentdomain.ProviderRequestError{
			Message:    stripeErr.Msg,
			Code:       string(stripeErr.Code),
			StatusCode: stripeErr.HTTPStatusCode,
		}
	}
	a.log.Error("stripe request failed", zap.String("op", op), zap.Error(err))
	return errors.Join(paymentdomain.ErrProviderFailure, err)
}

func toProviderSession(s *stripego.CheckoutSession) *paymentdomain.ProviderSession {
	out := &paymentdomain.ProviderSession{
		ID:            s.ID,
		URL:           s.URL,
		Status:        string(s.Status),
		PaymentStatus: string(s.PaymentStatus),
		OrderID:       s.Metadata[paymentdomain.MetadataOrderID],
		PayerEmail:    s.CustomerEmail,
		AmountTotal:   s.AmountTotal,
		Currency:      strings.ToUpper(string(s.Currency)),
	}
	if s.CustomerDetails != nil && s.CustomerDetails.Email != "" {
		out.PayerEmail = s.CustomerDetails.Email
	}
	return out
}
