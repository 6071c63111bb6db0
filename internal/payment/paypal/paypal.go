package paypal

import (
	"github.com/railzwaylabs/storefront/internal/config"
)

const (
	EnvironmentSandbox = "sandbox"
	EnvironmentLive    = "live"

	sandboxAPIBase = "https://api-m.sandbox.paypal.com"
	liveAPIBase    = "https://api-m.paypal.com"
)

// Config is the public PayPal client configuration handed to the storefront
// frontend. It never carries the client secret.
type Config struct {
	ClientID    string `json:"clientId"`
	Environment string `json:"environment"`
	APIBase     string `json:"apiBase"`
}

func NewConfig(cfg config.Config) Config {
	env := cfg.PayPal.Environment
	if env != EnvironmentLive {
		env = EnvironmentSandbox
	}
	return Config{
		ClientID:    cfg.PayPal.ClientID,
		Environment: env,
		APIBase:     APIBase(env),
	}
}

func APIBase(environment string) string {
	if environment == EnvironmentLive {
		return liveAPIBase
	}
	return sandboxAPIBase
}

func (c Config) Configured() bool {
	return c.ClientID != ""
}
