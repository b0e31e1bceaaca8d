package config

// EnvPrefix is empty so the storefront's existing variable names are read verbatim.
const EnvPrefix = ""

const (
	EnvAppEnv              = "APP_ENV"
	EnvPort                = "PORT"
	EnvLogLevel            = "LOG_LEVEL"
	EnvDBDSN               = "DATABASE_URL"
	EnvPersistenceMode     = "ORDER_PERSISTENCE_MODE"
	EnvRedisURL            = "REDIS_URL"
	EnvStripeSecretKey     = "STRIPE_SECRET_KEY"
	EnvStripeWebhookSecret = "STRIPE_WEBHOOK_SECRET"
	EnvStripeEnv           = "STRIPE_ENV"
	EnvFrontendURL         = "FRONTEND_URL"
	EnvAllowedOrigins      = "ALLOWED_ORIGINS"
)
