package payment

import (
	"github.com/railzwaylabs/storefront/internal/payment/adapters/stripe"
	"github.com/railzwaylabs/storefront/internal/payment/paypal"
	"github.com/railzwaylabs/storefront/internal/payment/repository"
	paymentservice "github.com/railzwaylabs/storefront/internal/payment/service"
	"github.com/railzwaylabs/storefront/internal/payment/webhook"
	"go.uber.org/fx"
)

var Module = fx.Module("payment.service",
	fx.Provide(repository.Provide),
	fx.Provide(stripe.NewProvider),
	fx.Provide(paymentservice.NewGuard),
	fx.Provide(paymentservice.NewCheckoutService),
	fx.Provide(paymentservice.NewVerifyService),
	fx.Provide(webhook.NewService),
	fx.Provide(paypal.NewConfig),
)
