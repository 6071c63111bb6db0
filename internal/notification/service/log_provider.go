package service

import (
	"context"

	"github.com/railzwaylabs/storefront/internal/notification/domain"
	"go.uber.org/zap"
)

// LogProvider writes notifications to the log when no channel is configured.
type LogProvider struct {
	log *zap.Logger
}

func NewLogProvider(log *zap.Logger) *LogProvider {
	return &LogProvider{log: log.Named("notification.log")}
}

func (p *LogProvider) Name() string { return "log" }

func (p *LogProvider) Send(ctx context.Context, input domain.NotificationInput) error {
	p.log.Info("notification",
		zap.String("template", input.TemplateID),
		zap.String("order_id", input.OrderID),
		zap.String("event_id", input.EventID.String()),
		zap.Any("data", input.Data))
	return nil
}
