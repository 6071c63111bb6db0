package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "STOREFRONT"

type Config struct {
	App           AppConfig           `mapstructure:"app"`
	HTTP          HTTPConfig          `mapstructure:"http"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Redis         RedisConfig         `mapstructure:"redis"`
	Stripe        StripeConfig        `mapstructure:"stripe"`
	Checkout      CheckoutConfig      `mapstructure:"checkout"`
	PayPal        PayPalConfig        `mapstructure:"paypal"`
	Auth          AuthConfig          `mapstructure:"auth"`
	Notification  NotificationConfig  `mapstructure:"notification"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	BaseURL     string `mapstructure:"base_url"`
	NodeID      int64  `mapstructure:"node_id"`
}

type HTTPConfig struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"` // postgres, sqlite, mysql
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type StripeConfig struct {
	SecretKey         string        `mapstructure:"secret_key"`
	WebhookSecret     string        `mapstructure:"webhook_secret"`
	APIBase           string        `mapstructure:"api_base"`
	Timeout           time.Duration `mapstructure:"timeout"`
	MaxNetworkRetries int64         `mapstructure:"max_network_retries"`
}

// CheckoutConfig holds the redirect templates handed to the provider.
// "{orderId}" is replaced with the order id before the session is created.
type CheckoutConfig struct {
	SuccessURL      string `mapstructure:"success_url"`
	CancelURL       string `mapstructure:"cancel_url"`
	DefaultCurrency string `mapstructure:"default_currency"`
}

type PayPalConfig struct {
	ClientID    string `mapstructure:"client_id"`
	Environment string `mapstructure:"environment"` // sandbox, live
}

type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	Issuer    string        `mapstructure:"issuer"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

type NotificationConfig struct {
	SlackWebhookURL string        `mapstructure:"slack_webhook_url"`
	PollInterval    time.Duration `mapstructure:"poll_interval"`
	BatchSize       int           `mapstructure:"batch_size"`
}

type ObservabilityConfig struct {
	LogLevel       string `mapstructure:"log_level"`
	LogFormat      string `mapstructure:"log_format"` // json, console
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	MetricsEnabled bool   `mapstructure:"metrics_enabled"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "storefront")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.base_url", "http://localhost:8080")
	v.SetDefault("app.node_id", 1)

	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.read_timeout", 15*time.Second)
	v.SetDefault("http.write_timeout", 30*time.Second)
	v.SetDefault("http.shutdown_timeout", 20*time.Second)

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "file:storefront.db?_pragma=busy_timeout(5000)")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.conn_max_lifetime", time.Hour)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("stripe.secret_key", "")
	v.SetDefault("stripe.webhook_secret", "")
	v.SetDefault("stripe.api_base", "")
	v.SetDefault("stripe.timeout", 10*time.Second)
	v.SetDefault("stripe.max_network_retries", 2)

	v.SetDefault("checkout.success_url", "http://localhost:3000/order/{orderId}?session_id={CHECKOUT_SESSION_ID}")
	v.SetDefault("checkout.cancel_url", "http://localhost:3000/order/{orderId}")
	v.SetDefault("checkout.default_currency", "EUR")

	v.SetDefault("paypal.client_id", "")
	v.SetDefault("paypal.environment", "sandbox")

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.issuer", "storefront")
	v.SetDefault("auth.token_ttl", 24*time.Hour)

	v.SetDefault("notification.slack_webhook_url", "")
	v.SetDefault("notification.poll_interval", 5*time.Second)
	v.SetDefault("notification.batch_size", 50)

	v.SetDefault("observability.log_level", "info")
	v.SetDefault("observability.log_format", "json")
	v.SetDefault("observability.otlp_endpoint", "")
	v.SetDefault("observability.metrics_enabled", true)
}

// NewViper builds the viper instance backing Config. Values come from
// defaults, an optional storefront.yaml, .env and STOREFRONT_* variables,
// in increasing order of precedence.
func NewViper() (*viper.Viper, error) {
	// .env is optional outside development.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("storefront")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	if path := strings.TrimSpace(os.Getenv(envPrefix + "_CONFIG")); path != "" {
		v.SetConfigFile(path)
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return v, nil
}

func Load(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) normalize() {
	c.Database.Driver = strings.ToLower(strings.TrimSpace(c.Database.Driver))
	c.PayPal.Environment = strings.ToLower(strings.TrimSpace(c.PayPal.Environment))
	c.Checkout.DefaultCurrency = strings.ToUpper(strings.TrimSpace(c.Checkout.DefaultCurrency))
	c.Stripe.SecretKey = strings.TrimSpace(c.Stripe.SecretKey)
	c.Stripe.WebhookSecret = strings.TrimSpace(c.Stripe.WebhookSecret)
}

var (
	ErrUnsupportedDriver = errors.New("config: unsupported database driver")
	ErrMissingJWTSecret  = errors.New("config: auth.jwt_secret is required outside development")
)

func (c Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite", "mysql":
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedDriver, c.Database.Driver)
	}
	if c.Auth.JWTSecret == "" && !c.IsDevelopment() {
		return ErrMissingJWTSecret
	}
	return nil
}

func (c Config) IsDevelopment() bool {
	return strings.EqualFold(c.App.Environment, "development")
}

// PaymentsConfigured reports whether the payment provider has credentials.
// A missing key is a supported state: checkout and verify answer 503.
func (c Config) PaymentsConfigured() bool {
	return c.Stripe.SecretKey != ""
}
