package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/order"
)

// Config holds the complete application configuration, loadable from
// environment variables (STORE_ prefix), flags, or YAML config files.
type Config struct {
	Addr         string `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL  string `usage:"PostgreSQL connection URL (STORE_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	ImageBaseURL string `default:"" usage:"Base URL for product images (e.g. https://cdn.example.com/images)" flag:"image-base-url"`
	APIKeyPepper string `usage:"HMAC pepper for API key hashing (STORE_API_KEY_PEPPER)" flag:"api-key-pepper"`
	Pricing      PricingConfig
	RateLimit    RateLimitConfig
	CORS         CORSConfig
	Graceful     GracefulConfig
}

// PricingConfig controls order-level pricing. The decimal values are loaded
// as strings so "4.99" round-trips exactly.
type PricingConfig struct {
	ShippingFee      string `default:"5"  usage:"Flat shipping fee added to each order" flag:"shipping-fee"`
	FreeShippingOver string `default:"50" usage:"Items subtotal at which shipping is free (0 disables)" flag:"free-shipping-over"`
}

// RateLimitConfig controls the per-client sliding window rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// OrderPricing converts the string pricing configuration into the order
// service's decimal form.
func (c *Config) OrderPricing() (order.Pricing, error) {
	fee, err := decimal.NewFromString(c.Pricing.ShippingFee)
	if err != nil {
		return order.Pricing{}, errors.Wrap(err, "parse shipping fee")
	}
	over, err := decimal.NewFromString(c.Pricing.FreeShippingOver)
	if err != nil {
		return order.Pricing{}, errors.Wrap(err, "parse free shipping threshold")
	}
	if fee.IsNegative() || over.IsNegative() {
		return order.Pricing{}, errors.New("pricing values must not be negative")
	}
	return order.Pricing{ShippingFee: fee, FreeShippingOver: over}, nil
}

// LoadConfig loads configuration from environment variables, YAML config files,
// and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "STORE",
		Files:     []string{"config.yaml", "/etc/storefront/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if cfg.DatabaseURL == "" {
		return nil, errors.New("database URL is required: set STORE_DATABASE_URL or DATABASE_URL")
	}

	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided environment variables (Railway,
// Render, etc.) that use standard names like DATABASE_URL and PORT to the
// application's STORE_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.DatabaseURL = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}
