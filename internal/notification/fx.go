package notification

import (
	"github.com/railzwaylabs/storefront/internal/notification/service"
	"go.uber.org/fx"
)

var Module = fx.Module("notification",
	fx.Provide(service.NewDispatcher),
	fx.Invoke(func(lc fx.Lifecycle, d *service.Dispatcher) {
		lc.Append(fx.Hook{
			OnStart: d.Start,
			OnStop:  d.Stop,
		})
	}),
)
