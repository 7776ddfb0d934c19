package config

const EnvPrefix = "STOREFRONT"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv = "STOREFRONT_APP_ENV"
	EnvPort   = "STOREFRONT_APP_PORT"

	EnvDBDSN  = "STOREFRONT_DB_DSN"
	EnvDBHost = "STOREFRONT_DB_HOST"
	EnvDBUser = "STOREFRONT_DB_USER"
	EnvDBName = "STOREFRONT_DB_NAME"

	EnvRedisURL  = "STOREFRONT_REDIS_URL"
	EnvRedisAddr = "STOREFRONT_REDIS_ADDR"

	EnvCartBackend     = "STOREFRONT_CART_BACKEND"
	EnvCartPersistTTL  = "STOREFRONT_CART_PERSIST_TTL"
	EnvCartMaxSessions = "STOREFRONT_CART_MAX_SESSIONS"
	EnvCartCurrency    = "STOREFRONT_CART_CURRENCY"

	EnvUseSQLite = "STOREFRONT_USE_SQLITE"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
