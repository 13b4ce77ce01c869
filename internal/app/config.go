package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// Config holds the complete application configuration, loadable from
// environment variables (BOUTIQUE_ prefix), flags, or YAML config files.
type Config struct {
	Addr          string `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL   string `usage:"PostgreSQL connection URL (BOUTIQUE_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	PublicBaseURL string `default:"http://localhost:3000" usage:"Storefront base URL used for checkout redirects when the request has no Origin header" flag:"public-base-url"`
	SessionPepper string `usage:"HMAC pepper for session token hashing (BOUTIQUE_SESSION_PEPPER)" flag:"session-pepper"`
	Stripe        StripeConfig
	RateLimit     RateLimitConfig
	CORS          CORSConfig
	Graceful      GracefulConfig
}

// StripeConfig holds the payment provider credentials and checkout policy.
type StripeConfig struct {
	SecretKey        string   `usage:"Stripe API secret key (BOUTIQUE_STRIPE_SECRET_KEY)" flag:"stripe-secret-key"`
	WebhookSecret    string   `usage:"Stripe webhook endpoint signing secret (BOUTIQUE_STRIPE_WEBHOOK_SECRET)" flag:"stripe-webhook-secret"`
	Currency         string   `default:"eur" usage:"ISO currency code for checkout sessions"`
	AllowedCountries []string `default:"FR,BE,CH,LU,MC" usage:"Countries offered when Stripe collects the shipping address" flag:"allowed-countries"`
}

// RateLimitConfig controls the per-client fixed window rate limiter.
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

// LoadConfig loads configuration from environment variables, YAML config files,
// and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "BOUTIQUE",
		Files:     []string{"config.yaml", "/etc/boutique/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	switch {
	case cfg.DatabaseURL == "":
		return nil, errors.New("database URL is required: set BOUTIQUE_DATABASE_URL or DATABASE_URL")
	case cfg.Stripe.SecretKey == "":
		return nil, errors.New("Stripe secret key is required: set BOUTIQUE_STRIPE_SECRET_KEY")
	case cfg.Stripe.WebhookSecret == "":
		return nil, errors.New("Stripe webhook secret is required: set BOUTIQUE_STRIPE_WEBHOOK_SECRET")
	case cfg.SessionPepper == "":
		return nil, errors.New("session pepper is required: set BOUTIQUE_SESSION_PEPPER")
	}

	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided environment variables (Railway,
// Render, etc.) that use standard names like DATABASE_URL and PORT to the
// application's BOUTIQUE_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.DatabaseURL = v
		}
	}
	if c.Stripe.SecretKey == "" {
		if v := os.Getenv("STRIPE_SECRET_KEY"); v != "" {
			c.Stripe.SecretKey = v
		}
	}
	if c.Stripe.WebhookSecret == "" {
		if v := os.Getenv("STRIPE_WEBHOOK_SECRET"); v != "" {
			c.Stripe.WebhookSecret = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}
