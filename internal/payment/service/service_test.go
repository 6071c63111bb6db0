package service

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/railzwaylabs/storefront/internal/auth"
	"github.com/railzwaylabs/storefront/internal/clock"
	"github.com/railzwaylabs/storefront/internal/config"
	"github.com/railzwaylabs/storefront/internal/observability"
	orderdomain "github.com/railzwaylabs/storefront/internal/order/domain"
	orderrepo "github.com/railzwaylabs/storefront/internal/order/repository"
	orderservice "github.com/railzwaylabs/storefront/internal/order/service"
	"github.com/railzwaylabs/storefront/internal/payment/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) CreateCheckoutSession(ctx context.Context, req domain.SessionRequest) (*domain.ProviderSession, error) {
	args := m.Called(ctx, req)
	session, _ := args.Get(0).(*domain.ProviderSession)
	return session, args.Error(1)
}

func (m *MockProvider) RetrieveCheckoutSession(ctx context.Context, sessionID string) (*domain.ProviderSession, error) {
	args := m.Called(ctx, sessionID)
	session, _ := args.Get(0).(*domain.ProviderSession)
	return session, args.Error(1)
}

func (m *MockProvider) ConstructEvent(payload []byte, signature string) (*domain.Event, error) {
	args := m.Called(payload, signature)
	event, _ := args.Get(0).(*domain.Event)
	return event, args.Error(1)
}

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	db        *gorm.DB
	orderRepo orderdomain.Repository
	orders    orderdomain.Service
	guard     domain.Guard
	metrics   *observability.Metrics
	cfg       config.Config
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	name := strings.NewReplacer("/", "_", "=", "_", " ", "_").Replace(t.Name())
	return newFixtureOn(t, openDB(t, "file:"+name+"?mode=memory&cache=shared", 1))
}

// newFileFixture runs on a WAL sqlite file with several connections, so
// concurrent guard calls really race on the conditional update.
func newFileFixture(t *testing.T) *fixture {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "orders.db") +
		"?_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)"
	return newFixtureOn(t, openDB(t, dsn, 4))
}

func openDB(t *testing.T, dsn string, conns int) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&orderdomain.Order{}, &orderdomain.OrderItem{}, &orderdomain.Event{}))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(conns)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func newFixtureOn(t *testing.T, db *gorm.DB) *fixture {
	t.Helper()

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	authz, err := auth.NewAuthorizer()
	require.NoError(t, err)

	cfg := config.Config{
		App: config.AppConfig{BaseURL: "https://shop.example"},
		Checkout: config.CheckoutConfig{
			SuccessURL:      "https://shop.example/order/{orderId}?paid=1",
			CancelURL:       "https://shop.example/order/{orderId}",
			DefaultCurrency: "EUR",
		},
	}
	repo := orderrepo.Provide()
	metrics := observability.NewMetrics()
	fixedClock := clock.Fixed(fixedNow)

	return &fixture{
		db:        db,
		orderRepo: repo,
		orders: orderservice.New(orderservice.Params{
			DB: db, Log: zap.NewNop(), Repo: repo, GenID: node, Clock: fixedClock, Authorizer: authz, Cfg: cfg,
		}),
		guard: NewGuard(GuardParams{
			DB: db, Log: zap.NewNop(), Orders: repo, GenID: node, Clock: fixedClock, Metrics: metrics,
		}),
		metrics: metrics,
		cfg:     cfg,
	}
}

func asCustomer(userID string) context.Context {
	return auth.WithActor(context.Background(), auth.Actor{UserID: userID, Role: auth.RoleCustomer})
}

// createOrder seeds an unpaid 89.99 EUR order owned by u1.
func (f *fixture) createOrder(t *testing.T) *orderdomain.Order {
	t.Helper()
	order, err := f.orders.Create(asCustomer("u1"), orderdomain.CreateRequest{
		Currency: "EUR",
		Items: []orderdomain.ItemInput{
			{Name: "Headphones", UnitPrice: decimal.RequireFromString("89.99"), Quantity: 1},
		},
	})
	require.NoError(t, err)
	return order
}

func (f *fixture) reload(t *testing.T, id string) *orderdomain.Order {
	t.Helper()
	order, err := f.orderRepo.FindByID(context.Background(), f.db, id)
	require.NoError(t, err)
	require.NotNil(t, order)
	return order
}

func (f *fixture) pendingEvents(t *testing.T) []orderdomain.Event {
	t.Helper()
	events, err := f.orderRepo.ListPendingEvents(context.Background(), f.db, 100)
	require.NoError(t, err)
	return events
}

func concurrently(n int, fn func()) {
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn()
		}()
	}
	wg.Wait()
}

func settlementCount(t *testing.T, m *observability.Metrics, channel, outcome string) float64 {
	t.Helper()
	families, err := m.Registry.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != "storefront_settlement_transitions_total" {
			continue
		}
		for _, metric := range mf.GetMetric() {
			labels := map[string]string{}
			for _, lp := range metric.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			if labels["channel"] == channel && labels["outcome"] == outcome {
				return metric.GetCounter().GetValue()
			}
		}
	}
	return 0
}
