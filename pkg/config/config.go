package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	ServiceName = "checkout-bridge"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	PersistenceModeDirect    = "direct"
	PersistenceModeProcedure = "procedure"
)

type Config struct {
	App      AppConfig
	DB       DBConfig
	Redis    RedisConfig
	Stripe   StripeConfig
	Frontend FrontendConfig
	Webhook  WebhookConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadDatabase reads only the app and database settings, for tools such as
// the migration CLI that never talk to Stripe or Redis.
func LoadDatabase() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg.App); err != nil {
		return nil, fmt.Errorf("parsing app config: %w", err)
	}
	if err := envconfig.Process(EnvPrefix, &cfg.DB); err != nil {
		return nil, fmt.Errorf("parsing db config: %w", err)
	}
	if err := cfg.DB.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"APP_ENV" default:"dev"`
	Port         string `envconfig:"PORT" default:"3001"`
	LogLevel     string `envconfig:"LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"LOG_WARN_STACK" default:"false"`
	AutoMigrate  bool   `envconfig:"AUTO_MIGRATE" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev) || strings.EqualFold(a.Env, "development")
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd) || strings.EqualFold(a.Env, "production")
}

type DBConfig struct {
	DSN             string        `envconfig:"DATABASE_URL" required:"true"`
	PersistenceMode string        `envconfig:"ORDER_PERSISTENCE_MODE" default:"direct"`
	MaxOpenConns    int           `envconfig:"DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// UsesProcedure reports whether orders are written through process_stripe_webhook.
func (d DBConfig) UsesProcedure() bool {
	return strings.EqualFold(strings.TrimSpace(d.PersistenceMode), PersistenceModeProcedure)
}

func (d DBConfig) validate() error {
	mode := strings.ToLower(strings.TrimSpace(d.PersistenceMode))
	switch mode {
	case "", PersistenceModeDirect, PersistenceModeProcedure:
		return nil
	default:
		return fmt.Errorf("%s must be %q or %q, got %q", EnvPersistenceMode, PersistenceModeDirect, PersistenceModeProcedure, d.PersistenceMode)
	}
}

// RedisConfig is optional; an empty URL disables the webhook idempotency guard.
type RedisConfig struct {
	URL          string        `envconfig:"REDIS_URL"`
	PoolSize     int           `envconfig:"REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"REDIS_READ_TIMEOUT" default:"3s"`
	WriteTimeout time.Duration `envconfig:"REDIS_WRITE_TIMEOUT" default:"3s"`
}

func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != ""
}

type StripeConfig struct {
	APIKey        string `envconfig:"STRIPE_SECRET_KEY" required:"true"`
	WebhookSecret string `envconfig:"STRIPE_WEBHOOK_SECRET" required:"true"`
	Env           string `envconfig:"STRIPE_ENV" default:"test"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type FrontendConfig struct {
	URL            string   `envconfig:"FRONTEND_URL"`
	AllowedOrigins []string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

// BaseURL returns the configured storefront URL without trailing slashes.
func (f FrontendConfig) BaseURL() string {
	return strings.TrimRight(strings.TrimSpace(f.URL), "/")
}

// Origins merges ALLOWED_ORIGINS with FRONTEND_URL, dropping blanks and duplicates.
func (f FrontendConfig) Origins() []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(f.AllowedOrigins)+1)
	add := func(origin string) {
		origin = strings.TrimRight(strings.TrimSpace(origin), "/")
		if origin == "" {
			return
		}
		if _, ok := seen[origin]; ok {
			return
		}
		seen[origin] = struct{}{}
		out = append(out, origin)
	}
	for _, origin := range f.AllowedOrigins {
		add(origin)
	}
	add(f.URL)
	return out
}

type WebhookConfig struct {
	IdempotencyTTL time.Duration `envconfig:"WEBHOOK_IDEMPOTENCY_TTL" default:"72h"`
}
