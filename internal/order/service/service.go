package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/oklog/ulid/v2"
	"github.com/railzwaylabs/storefront/internal/auth"
	"github.com/railzwaylabs/storefront/internal/clock"
	"github.com/railzwaylabs/storefront/internal/config"
	"github.com/railzwaylabs/storefront/internal/order/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const listLimit = 100

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	Repo       domain.Repository
	GenID      *snowflake.Node
	Clock      clock.Clock
	Authorizer *auth.Authorizer
	Cfg        config.Config
}

type Service struct {
	db              *gorm.DB
	log             *zap.Logger
	repo            domain.Repository
	genID           *snowflake.Node
	clock           clock.Clock
	authz           *auth.Authorizer
	defaultCurrency string
}

func New(p Params) domain.Service {
	return &Service{
		db:              p.DB,
		log:             p.Log.Named("order.service"),
		repo:            p.Repo,
		genID:           p.GenID,
		clock:           p.Clock,
		authz:           p.Authorizer,
		defaultCurrency: p.Cfg.Checkout.DefaultCurrency,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Order, error) {
	actor, ok := auth.ActorFromContext(ctx)
	if !ok {
		return nil, domain.ErrUnauthenticated
	}

	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = s.defaultCurrency
	}
	if !validCurrency(currency) {
		return nil, domain.ErrInvalidCurrency
	}
	if len(req.Items) == 0 {
		return nil, domain.ErrInvalidItems
	}

	now := s.clock.Now(ctx)
	order := &domain.Order{
		ID:        ulid.Make().String(),
		UserID:    actor.UserID,
		Currency:  currency,
		Amount:    decimal.Zero,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, in := range req.Items {
		name := strings.TrimSpace(in.Name)
		if name == "" || in.Quantity < 1 || in.Quantity > domain.MaxItemQuantity || in.UnitPrice.IsNegative() {
			return nil, domain.ErrInvalidItems
		}
		order.Items = append(order.Items, domain.OrderItem{
			ID:        s.genID.Generate(),
			Name:      name,
			UnitPrice: in.UnitPrice,
			Quantity:  in.Quantity,
			ImageRef:  strings.TrimSpace(in.ImageRef),
		})
		order.Amount = order.Amount.Add(in.UnitPrice.Mul(decimal.NewFromInt(int64(in.Quantity))))
	}

	if err := s.repo.Insert(ctx, s.db, order); err != nil {
		return nil, err
	}
	s.log.Info("order created",
		zap.String("order_id", order.ID),
		zap.String("user_id", order.UserID),
		zap.String("amount", order.Amount.StringFixed(2)),
		zap.String("currency", order.Currency))
	return order, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Order, error) {
	actor, ok := auth.ActorFromContext(ctx)
	if !ok {
		return nil, domain.ErrUnauthenticated
	}

	id = strings.TrimSpace(id)
	if id == "" {
		return nil, domain.ErrInvalidID
	}

	order, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, domain.ErrNotFound
	}
	if !s.authz.CanAccessOrder(actor, order.UserID) {
		return nil, domain.ErrForbidden
	}
	return order, nil
}

func (s *Service) ListMine(ctx context.Context) ([]domain.Order, error) {
	actor, ok := auth.ActorFromContext(ctx)
	if !ok {
		return nil, domain.ErrUnauthenticated
	}
	return s.repo.ListByUser(ctx, s.db, actor.UserID, listLimit)
}

func validCurrency(code string) bool {
	if len(code) != 3 {
		return false
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
