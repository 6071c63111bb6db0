package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/railzwaylabs/storefront/internal/clock"
	"github.com/railzwaylabs/storefront/internal/config"
	"github.com/railzwaylabs/storefront/internal/notification/domain"
	"github.com/railzwaylabs/storefront/internal/notification/provider/slack"
	orderdomain "github.com/railzwaylabs/storefront/internal/order/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	DefaultBatchSize    = 50
	DefaultPollInterval = 5 * time.Second
	MaxAttempts         = 5
)

type Params struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	Orders orderdomain.Repository
	Clock  clock.Clock
	Cfg    config.Config
}

// Dispatcher drains the order outbox and fans each event out to the
// configured providers.
type Dispatcher struct {
	db        *gorm.DB
	log       *zap.Logger
	orders    orderdomain.Repository
	clock     clock.Clock
	providers []domain.Provider
	batchSize int
	interval  time.Duration

	stop chan struct{}
	done sync.WaitGroup
}

func NewDispatcher(p Params) *Dispatcher {
	log := p.Log.Named("notification.dispatcher")

	providers := []domain.Provider{NewLogProvider(p.Log)}
	if url := p.Cfg.Notification.SlackWebhookURL; url != "" {
		providers = append(providers, slack.NewProvider(url))
	}

	batch := p.Cfg.Notification.BatchSize
	if batch <= 0 {
		batch = DefaultBatchSize
	}
	interval := p.Cfg.Notification.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	return &Dispatcher{
		db:        p.DB,
		log:       log,
		orders:    p.Orders,
		clock:     p.Clock,
		providers: providers,
		batchSize: batch,
		interval:  interval,
	}
}

// WithProviders replaces the provider set.
func (d *Dispatcher) WithProviders(providers ...domain.Provider) *Dispatcher {
	d.providers = providers
	return d
}

// ProcessEvents dispatches one batch of pending events and returns how many
// were delivered.
func (d *Dispatcher) ProcessEvents(ctx context.Context) (int, error) {
	events, err := d.orders.ListPendingEvents(ctx, d.db, d.batchSize)
	if err != nil {
		return 0, err
	}

	delivered := 0
	for _, event := range events {
		if err := d.dispatch(ctx, event); err != nil {
			d.log.Warn("failed to dispatch event",
				zap.String("event_id", event.ID.String()),
				zap.Int("attempt", event.Attempts+1),
				zap.Error(err))
			if markErr := d.orders.MarkEventFailed(ctx, d.db, event.ID, err.Error(), MaxAttempts); markErr != nil {
				return delivered, markErr
			}
			continue
		}
		if err := d.orders.MarkEventDispatched(ctx, d.db, event.ID, d.clock.Now(ctx)); err != nil {
			return delivered, err
		}
		delivered++
	}
	return delivered, nil
}

func (d *Dispatcher) dispatch(ctx context.Context, event orderdomain.Event) error {
	var data map[string]any
	if len(event.Payload) > 0 {
		if err := json.Unmarshal(event.Payload, &data); err != nil {
			return err
		}
	}

	input := domain.NotificationInput{
		EventID:    event.ID,
		OrderID:    event.OrderID,
		TemplateID: event.Type,
		Data:       data,
	}

	var errs []error
	for _, p := range d.providers {
		if err := p.Send(ctx, input); err != nil {
			d.log.Warn("notification provider failed", zap.String("provider", p.Name()), zap.Error(err))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (d *Dispatcher) Start(context.Context) error {
	d.stop = make(chan struct{})
	d.done.Add(1)
	go d.loop()
	d.log.Info("notification dispatcher started", zap.Duration("interval", d.interval))
	return nil
}

func (d *Dispatcher) Stop(ctx context.Context) error {
	close(d.stop)
	finished := make(chan struct{})
	go func() {
		d.done.Wait()
		close(finished)
	}()
	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) loop() {
	defer d.done.Done()
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-d.stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), d.interval)
			if _, err := d.ProcessEvents(ctx); err != nil {
				d.log.Error("outbox poll failed", zap.Error(err))
			}
			cancel()
		}
	}
}
