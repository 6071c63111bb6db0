package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

// Provider delivers a notification to one channel (Slack, log, ...).
type Provider interface {
	Name() string
	Send(ctx context.Context, input NotificationInput) error
}

type NotificationInput struct {
	EventID    snowflake.ID
	OrderID    string
	TemplateID string // e.g. "order.paid"
	Data       map[string]any
}
