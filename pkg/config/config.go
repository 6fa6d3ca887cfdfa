package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	Payment      PaymentConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	Eventing     EventingConfig
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
	Env          string `envconfig:"TRADEROW_APP_ENV" required:"true"`
	Port         string `envconfig:"TRADEROW_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"TRADEROW_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"TRADEROW_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"TRADEROW_DB_DSN"`
	Driver string `envconfig:"TRADEROW_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"TRADEROW_DB_HOST"`
	LegacyPort     int    `envconfig:"TRADEROW_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"TRADEROW_DB_USER"`
	LegacyPassword string `envconfig:"TRADEROW_DB_PASSWORD"`
	LegacyName     string `envconfig:"TRADEROW_DB_NAME"`
	LegacySSLMode  string `envconfig:"TRADEROW_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"TRADEROW_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"TRADEROW_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"TRADEROW_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"TRADEROW_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"TRADEROW_REDIS_URL" required:"true"`
	Address      string        `envconfig:"TRADEROW_REDIS_ADDR"`
	Password     string        `envconfig:"TRADEROW_REDIS_PASSWORD"`
	DB           int           `envconfig:"TRADEROW_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"TRADEROW_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"TRADEROW_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"TRADEROW_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"TRADEROW_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"TRADEROW_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"TRADEROW_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"TRADEROW_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"TRADEROW_JWT_EXPIRATION_MINUTES" default:"60"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"TRADEROW_AUTO_MIGRATE" default:"false"`
}

// PaymentConfig bounds the external payment validator call. A validation that
// does not answer within Timeout is treated as rejected.
type PaymentConfig struct {
	AccessToken string        `envconfig:"TRADEROW_PAYMENT_ACCESS_TOKEN"`
	Environment string        `envconfig:"TRADEROW_PAYMENT_ENV" default:"sandbox"`
	LocationID  string        `envconfig:"TRADEROW_PAYMENT_LOCATION_ID"`
	Timeout     time.Duration `envconfig:"TRADEROW_PAYMENT_TIMEOUT" default:"10s"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"TRADEROW_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"TRADEROW_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"TRADEROW_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	OrdersTopic        string `envconfig:"TRADEROW_PUBSUB_ORDERS_TOPIC" required:"true"`
	OrdersSubscription string `envconfig:"TRADEROW_PUBSUB_ORDERS_SUBSCRIPTION" required:"true"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"TRADEROW_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"TRADEROW_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"TRADEROW_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type EventingConfig struct {
	ConsumerIdempotencyTTL time.Duration `envconfig:"TRADEROW_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
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
