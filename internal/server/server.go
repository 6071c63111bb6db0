package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/railzwaylabs/storefront/internal/auth"
	"github.com/railzwaylabs/storefront/internal/config"
	"github.com/railzwaylabs/storefront/internal/observability"
	orderdomain "github.com/railzwaylabs/storefront/internal/order/domain"
	paymentdomain "github.com/railzwaylabs/storefront/internal/payment/domain"
	"github.com/railzwaylabs/storefront/internal/payment/paypal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("server",
	fx.Provide(NewServer),
	fx.Invoke(RunHTTP),
)

type Params struct {
	fx.In

	Cfg     config.Config
	Log     *zap.Logger
	DB      *gorm.DB
	Metrics *observability.Metrics `optional:"true"`
	Tokens  *auth.TokenManager

	OrderSvc    orderdomain.Service
	CheckoutSvc paymentdomain.CheckoutService
	VerifySvc   paymentdomain.VerifyService
	WebhookSvc  paymentdomain.WebhookService
	PayPal      paypal.Config
}

type Server struct {
	cfg     config.Config
	log     *zap.Logger
	db      *gorm.DB
	metrics *observability.Metrics
	tokens  *auth.TokenManager

	orderSvc    orderdomain.Service
	checkoutSvc paymentdomain.CheckoutService
	verifySvc   paymentdomain.VerifyService
	webhookSvc  paymentdomain.WebhookService
	paypal      paypal.Config

	engine *gin.Engine
}

func NewServer(p Params) *Server {
	if !p.Cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		cfg:         p.Cfg,
		log:         p.Log.Named("server"),
		db:          p.DB,
		metrics:     p.Metrics,
		tokens:      p.Tokens,
		orderSvc:    p.OrderSvc,
		checkoutSvc: p.CheckoutSvc,
		verifySvc:   p.VerifySvc,
		webhookSvc:  p.WebhookSvc,
		paypal:      p.PayPal,
	}

	s.engine = gin.New()
	s.engine.Use(s.Recovery(), s.RequestLogger(), s.HTTPMetrics())
	s.RegisterRoutes(s.engine)
	return s
}

func (s *Server) Handler() http.Handler { return s.engine }

// RegisterRoutes mounts the public API on r.
func (s *Server) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", s.Health)
	if s.metrics != nil && s.cfg.Observability.MetricsEnabled {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.metrics.Registry, promhttp.HandlerOpts{})))
	}

	api := r.Group("/api")

	// Provider-signed; must see the raw body.
	api.POST("/payments/webhook", s.HandlePaymentWebhook)
	api.GET("/config/paypal", s.GetPayPalConfig)

	authed := api.Group("", s.AuthRequired())
	authed.POST("/orders", s.CreateOrder)
	authed.GET("/orders/mine", s.ListMyOrders)
	authed.GET("/orders/:id", s.GetOrder)
	authed.POST("/checkout-sessions", s.CreateCheckoutSession)
	authed.POST("/payments/verify", s.VerifyPayment)
}

// Health
// GET /health
func (s *Server) Health(c *gin.Context) {
	status := "ok"
	code := http.StatusOK

	if s.db != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		sqlDB, err := s.db.DB()
		if err == nil {
			err = sqlDB.PingContext(ctx)
		}
		if err != nil {
			s.log.Warn("database ping failed", zap.Error(err))
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
	}

	c.JSON(code, gin.H{"status": status})
}

// RunHTTP binds the HTTP listener to the fx lifecycle.
func RunHTTP(lc fx.Lifecycle, s *Server, cfg config.Config, log *zap.Logger) {
	log = log.Named("server.http")
	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		MaxHeaderBytes:    1 << 20,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return err
			}
			log.Info("http server listening", zap.String("addr", ln.Addr().String()))
			go func() {
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			timeout := cfg.HTTP.ShutdownTimeout
			if timeout <= 0 {
				timeout = 10 * time.Second
			}
			shutdownCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}
