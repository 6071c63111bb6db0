package order

import (
	"github.com/railzwaylabs/storefront/internal/order/repository"
	"github.com/railzwaylabs/storefront/internal/order/service"
	"go.uber.org/fx"
)

var Module = fx.Module("order.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
