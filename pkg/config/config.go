package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "SHOPFRONT"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv          = "SHOPFRONT_APP_ENV"
	EnvPort            = "SHOPFRONT_APP_PORT"
	EnvDBDSN           = "SHOPFRONT_DB_DSN"
	EnvDBHost          = "SHOPFRONT_DB_HOST"
	EnvDBUser          = "SHOPFRONT_DB_USER"
	EnvDBName          = "SHOPFRONT_DB_NAME"
	EnvRedisURL        = "SHOPFRONT_REDIS_URL"
	EnvJWTSecret       = "SHOPFRONT_JWT_SECRET"
	EnvJWTIssuer       = "SHOPFRONT_JWT_ISSUER"
	EnvJWTExpMins      = "SHOPFRONT_JWT_EXPIRATION_MINUTES"
	EnvGCPProjectID    = "SHOPFRONT_GCP_PROJECT_ID"
	EnvPubSubEvents    = "SHOPFRONT_PUBSUB_EVENTS_TOPIC"
	EnvPubSubAnalytics = "SHOPFRONT_PUBSUB_ANALYTICS_SUBSCRIPTION"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App           AppConfig
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Eventing      EventingConfig
	Inventory     InventoryConfig
	Settings      SettingsConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
	BigQuery      BigQueryConfig
	Outbox        OutboxConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"SHOPFRONT_APP_ENV" required:"true"`
	Port         string `envconfig:"SHOPFRONT_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"SHOPFRONT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SHOPFRONT_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"SHOPFRONT_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"SHOPFRONT_DB_DSN"`
	Driver string `envconfig:"SHOPFRONT_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"SHOPFRONT_DB_HOST"`
	LegacyPort     int    `envconfig:"SHOPFRONT_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"SHOPFRONT_DB_USER"`
	LegacyPassword string `envconfig:"SHOPFRONT_DB_PASSWORD"`
	LegacyName     string `envconfig:"SHOPFRONT_DB_NAME"`
	LegacySSLMode  string `envconfig:"SHOPFRONT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SHOPFRONT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SHOPFRONT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SHOPFRONT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SHOPFRONT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SHOPFRONT_REDIS_URL" required:"true"`
	Address      string        `envconfig:"SHOPFRONT_REDIS_ADDR"`
	Password     string        `envconfig:"SHOPFRONT_REDIS_PASSWORD"`
	DB           int           `envconfig:"SHOPFRONT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SHOPFRONT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SHOPFRONT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SHOPFRONT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SHOPFRONT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SHOPFRONT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"SHOPFRONT_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"SHOPFRONT_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"SHOPFRONT_JWT_EXPIRATION_MINUTES" required:"true"`
	SessionTTLMinutes int    `envconfig:"SHOPFRONT_SESSION_TTL_MINUTES" default:"43200"`
}

// SessionTTL returns the server-side session TTL configured in minutes.
func (j JWTConfig) SessionTTL() time.Duration {
	if j.SessionTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.SessionTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"SHOPFRONT_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"SHOPFRONT_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"SHOPFRONT_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"SHOPFRONT_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"SHOPFRONT_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"SHOPFRONT_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"SHOPFRONT_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"SHOPFRONT_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"SHOPFRONT_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"SHOPFRONT_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"SHOPFRONT_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"SHOPFRONT_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"SHOPFRONT_AUTO_MIGRATE" default:"false"`
}

type EventingConfig struct {
	OutboxIdempotencyTTL time.Duration `envconfig:"SHOPFRONT_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
}

type InventoryConfig struct {
	LowStockThreshold int `envconfig:"SHOPFRONT_INVENTORY_LOW_STOCK_THRESHOLD" default:"5"`
}

type SettingsConfig struct {
	CacheTTL time.Duration `envconfig:"SHOPFRONT_SETTINGS_CACHE_TTL" default:"30s"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"SHOPFRONT_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"SHOPFRONT_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"SHOPFRONT_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	EventsTopic           string `envconfig:"SHOPFRONT_PUBSUB_EVENTS_TOPIC" required:"true"`
	AnalyticsSubscription string `envconfig:"SHOPFRONT_PUBSUB_ANALYTICS_SUBSCRIPTION" required:"true"`
}

type BigQueryConfig struct {
	Dataset            string `envconfig:"SHOPFRONT_BIGQUERY_DATASET" default:"shopfront"`
	OrderFactsTable    string `envconfig:"SHOPFRONT_BIGQUERY_ORDER_FACTS_TABLE" default:"order_facts"`
	MovementFactsTable string `envconfig:"SHOPFRONT_BIGQUERY_MOVEMENT_FACTS_TABLE" default:"stock_movement_facts"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"SHOPFRONT_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"SHOPFRONT_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"SHOPFRONT_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

func (db *DBConfig) ensureDSN() error {
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
