package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"

	"github.com/xenking/food-ordering/internal/domain/checkout"
	"github.com/xenking/food-ordering/internal/domain/payment"
)

const defaultAddr = "0.0.0.0:8080"

// Config holds the complete application configuration, loadable from
// environment variables (FOOD_ prefix), flags, or YAML config files.
type Config struct {
	Addr        string `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL string `usage:"PostgreSQL connection URL (FOOD_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	Auth        AuthConfig
	Checkout    CheckoutConfig
	Payment     PaymentConfig
	Session     SessionConfig
	RateLimit   RateLimitConfig
	Graceful    GracefulConfig
}

// AuthConfig controls bearer token signing.
type AuthConfig struct {
	Secret   string        `usage:"HMAC secret for signing access tokens (FOOD_AUTH_SECRET)" flag:"auth-secret"`
	TokenTTL time.Duration `default:"24h" usage:"Access token lifetime" flag:"token-ttl"`
}

// CheckoutConfig holds the pricing applied at checkout. Values are decimal
// strings so they are never rounded through float64.
type CheckoutConfig struct {
	DeliveryFee string `default:"49" usage:"Flat delivery fee added to every order" flag:"delivery-fee"`
	TaxRate     string `default:"0.08" usage:"Tax rate applied to the subtotal" flag:"tax-rate"`
}

// PaymentConfig selects the payment methods offered at checkout.
type PaymentConfig struct {
	Methods []string `default:"upi,card,cod" usage:"Enabled payment methods" flag:"payment-methods"`
}

// SessionConfig controls the in-memory session carts.
type SessionConfig struct {
	IdleTimeout time.Duration `default:"2h" usage:"Drop carts untouched for this long (0 disables)" flag:"session-idle-timeout"`
	MaxCarts    int           `default:"100000" usage:"Live cart count above which the liveness probe fails" flag:"session-max-carts"`
}

// RateLimitConfig controls the per-client sliding window rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, flags and YAML
// config files, then applies platform defaults and validates the result.
func LoadConfig() (*Config, error) {
	return loadConfig(aconfig.Config{
		EnvPrefix:  "FOOD",
		FlagPrefix: "",
		Files:      []string{"config.yaml", "/etc/food/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
}

func loadConfig(ac aconfig.Config) (*Config, error) {
	var cfg Config
	if err := aconfig.LoaderFor(&cfg, ac).Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided environment variables
// (DATABASE_URL, PORT) to the FOOD_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		c.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == defaultAddr {
		c.Addr = "0.0.0.0:" + port
	}
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return errors.New("database URL is required: set FOOD_DATABASE_URL or DATABASE_URL")
	}
	if len(c.Auth.Secret) < 16 {
		return errors.New("auth secret must be at least 16 bytes: set FOOD_AUTH_SECRET")
	}
	if _, err := c.Pricing(); err != nil {
		return err
	}
	if _, err := c.PaymentMethods(); err != nil {
		return err
	}
	return nil
}

// Pricing parses the checkout pricing.
func (c *Config) Pricing() (checkout.Pricing, error) {
	p, err := checkout.ParsePricing(c.Checkout.DeliveryFee, c.Checkout.TaxRate)
	if err != nil {
		return checkout.Pricing{}, errors.Wrap(err, "checkout pricing")
	}
	return p, nil
}

// PaymentMethods parses the enabled payment methods.
func (c *Config) PaymentMethods() ([]payment.Method, error) {
	if len(c.Payment.Methods) == 0 {
		return nil, errors.New("at least one payment method must be enabled")
	}
	methods := make([]payment.Method, 0, len(c.Payment.Methods))
	for _, s := range c.Payment.Methods {
		m, err := payment.ParseMethod(s)
		if err != nil {
			return nil, errors.Wrap(err, "payment methods")
		}
		methods = append(methods, m)
	}
	return methods, nil
}
