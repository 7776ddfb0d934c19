package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/angelmondragon/storefront-cart/pkg/enums"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Cart         CartConfig
	RateLimit    RateLimitConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validateBackend(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string   `envconfig:"STOREFRONT_APP_ENV" required:"true"`
	Port         string   `envconfig:"STOREFRONT_APP_PORT" required:"true"`
	LogLevel     string   `envconfig:"STOREFRONT_LOG_LEVEL" default:"info"`
	LogWarnStack bool     `envconfig:"STOREFRONT_LOG_WARN_STACK" default:"false"`
	LogFormat    string   `envconfig:"STOREFRONT_LOG_FORMAT" default:"json"`
	CORSOrigins  []string `envconfig:"STOREFRONT_CORS_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN string `envconfig:"STOREFRONT_DB_DSN"`

	LegacyHost     string `envconfig:"STOREFRONT_DB_HOST"`
	LegacyPort     int    `envconfig:"STOREFRONT_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"STOREFRONT_DB_USER"`
	LegacyPassword string `envconfig:"STOREFRONT_DB_PASSWORD"`
	LegacyName     string `envconfig:"STOREFRONT_DB_NAME"`
	LegacySSLMode  string `envconfig:"STOREFRONT_DB_SSLMODE" default:"disable"`

	SQLitePath string `envconfig:"STOREFRONT_SQLITE_PATH" default:"file:storefront.db?cache=shared"`

	MaxOpenConns    int           `envconfig:"STOREFRONT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"STOREFRONT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"STOREFRONT_REDIS_URL"`
	Address      string        `envconfig:"STOREFRONT_REDIS_ADDR"`
	Password     string        `envconfig:"STOREFRONT_REDIS_PASSWORD"`
	DB           int           `envconfig:"STOREFRONT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STOREFRONT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STOREFRONT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STOREFRONT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Configured reports whether enough connection data is present to dial Redis.
func (r RedisConfig) Configured() bool {
	return r.URL != "" || r.Address != ""
}

// CartConfig tunes the per-session cart registry and its persistence.
type CartConfig struct {
	Backend        string        `envconfig:"STOREFRONT_CART_BACKEND" default:"redis"`
	PersistTTL     time.Duration `envconfig:"STOREFRONT_CART_PERSIST_TTL" default:"720h"`
	MaxSessions    int           `envconfig:"STOREFRONT_CART_MAX_SESSIONS" default:"10000"`
	SessionIdleTTL time.Duration `envconfig:"STOREFRONT_CART_SESSION_IDLE_TTL" default:"30m"`
	Currency       string        `envconfig:"STOREFRONT_CART_CURRENCY" default:"EUR"`
	CookieSecure   bool          `envconfig:"STOREFRONT_CART_COOKIE_SECURE" default:"true"`
	CookieMaxAge   time.Duration `envconfig:"STOREFRONT_CART_COOKIE_MAX_AGE" default:"720h"`
	SweepInterval  time.Duration `envconfig:"STOREFRONT_CART_SWEEP_INTERVAL" default:"1m"`
	PurgeInterval  time.Duration `envconfig:"STOREFRONT_CART_PURGE_INTERVAL" default:"1h"`
}

// PersistenceBackend returns the parsed backend; unknown values fall back to memory.
func (c CartConfig) PersistenceBackend() enums.PersistenceBackend {
	backend, err := enums.ParsePersistenceBackend(strings.ToLower(strings.TrimSpace(c.Backend)))
	if err != nil {
		return enums.PersistenceBackendMemory
	}
	return backend
}

// DisplayCurrency returns the configured currency, defaulting to EUR.
func (c CartConfig) DisplayCurrency() enums.Currency {
	currency, err := enums.ParseCurrency(strings.ToUpper(strings.TrimSpace(c.Currency)))
	if err != nil {
		return enums.CurrencyEUR
	}
	return currency
}

type RateLimitConfig struct {
	Window       time.Duration `envconfig:"STOREFRONT_RATE_LIMIT_WINDOW" default:"1m"`
	IPLimit      int           `envconfig:"STOREFRONT_RATE_LIMIT_IP_LIMIT" default:"120"`
	SessionLimit int           `envconfig:"STOREFRONT_RATE_LIMIT_SESSION_LIMIT" default:"60"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"STOREFRONT_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"STOREFRONT_AUTO_MIGRATE" default:"false"`
}

func (c *Config) validateBackend() error {
	backend, err := enums.ParsePersistenceBackend(strings.ToLower(strings.TrimSpace(c.Cart.Backend)))
	if err != nil {
		return fmt.Errorf("%s: %w", EnvCartBackend, err)
	}
	switch backend {
	case enums.PersistenceBackendRedis:
		if !c.Redis.Configured() {
			return fmt.Errorf("either %s or %s is required for the redis cart backend", EnvRedisURL, EnvRedisAddr)
		}
	case enums.PersistenceBackendDB:
		if c.FeatureFlags.UseSQLite {
			return nil
		}
		return c.DB.EnsureDSN()
	}
	return nil
}

// EnsureDSN builds the Postgres DSN from the legacy host/user/name variables when no DSN is set.
func (db *DBConfig) EnsureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
