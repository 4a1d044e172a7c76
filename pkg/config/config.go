package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	AuthRateLimit AuthRateLimitConfig
	Password      PasswordConfig
	Checkout      CheckoutConfig
	Notifications NotificationsConfig
	FeatureFlags  FeatureFlagsConfig
	Stripe        StripeConfig
	GCP           GCPConfig
	GCS           GCSConfig
	PubSub        PubSubConfig
	BigQuery      BigQueryConfig
	Outbox        OutboxConfig
	Cron          CronConfig
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
	Env            string   `envconfig:"TRADEPOST_APP_ENV" required:"true"`
	Port           string   `envconfig:"TRADEPOST_APP_PORT" default:"8080"`
	LogLevel       string   `envconfig:"TRADEPOST_LOG_LEVEL" default:"info"`
	LogWarnStack   bool     `envconfig:"TRADEPOST_LOG_WARN_STACK" default:"false"`
	AllowedOrigins []string `envconfig:"TRADEPOST_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"TRADEPOST_DB_DSN"`
	Driver string `envconfig:"TRADEPOST_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"TRADEPOST_DB_HOST"`
	Port     int    `envconfig:"TRADEPOST_DB_PORT" default:"5432"`
	User     string `envconfig:"TRADEPOST_DB_USER"`
	Password string `envconfig:"TRADEPOST_DB_PASSWORD"`
	Name     string `envconfig:"TRADEPOST_DB_NAME"`
	SSLMode  string `envconfig:"TRADEPOST_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"TRADEPOST_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"TRADEPOST_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"TRADEPOST_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"TRADEPOST_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"TRADEPOST_REDIS_URL" required:"true"`
	Address      string        `envconfig:"TRADEPOST_REDIS_ADDR"`
	Password     string        `envconfig:"TRADEPOST_REDIS_PASSWORD"`
	DB           int           `envconfig:"TRADEPOST_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"TRADEPOST_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"TRADEPOST_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"TRADEPOST_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"TRADEPOST_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"TRADEPOST_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"TRADEPOST_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"TRADEPOST_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"TRADEPOST_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"TRADEPOST_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"TRADEPOST_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"TRADEPOST_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"TRADEPOST_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"TRADEPOST_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"TRADEPOST_JWT_EXPIRATION_MINUTES" default:"60"`
	RefreshExpirationHours int    `envconfig:"TRADEPOST_JWT_REFRESH_EXPIRATION_HOURS" default:"720"`
}

// RefreshTokenTTL returns the configured refresh token lifetime.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	return time.Duration(j.RefreshExpirationHours) * time.Hour
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"TRADEPOST_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"TRADEPOST_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"TRADEPOST_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"TRADEPOST_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"TRADEPOST_ARGON_KEY_LEN" default:"32"`
}

type CheckoutConfig struct {
	LowStockThreshold   int           `envconfig:"TRADEPOST_LOW_STOCK_THRESHOLD" default:"5"`
	PendingCardOrderTTL time.Duration `envconfig:"TRADEPOST_PENDING_CARD_ORDER_TTL" default:"24h"`
}

type NotificationsConfig struct {
	RetentionDays int `envconfig:"TRADEPOST_NOTIFICATION_RETENTION_DAYS" default:"90"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"TRADEPOST_AUTO_MIGRATE" default:"false"`
}

type StripeConfig struct {
	APIKey string `envconfig:"TRADEPOST_STRIPE_API_KEY"`
	Env    string `envconfig:"TRADEPOST_STRIPE_ENV" default:"test"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type GCPConfig struct {
	ProjectID              string `envconfig:"TRADEPOST_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"TRADEPOST_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"TRADEPOST_GOOGLE_APPLICATION_CREDENTIALS"`
}

type GCSConfig struct {
	BucketName        string        `envconfig:"TRADEPOST_GCS_BUCKET_NAME"`
	UploadURLExpiry   time.Duration `envconfig:"TRADEPOST_GCS_UPLOAD_URL_EXPIRY" default:"15m"`
	DownloadURLExpiry time.Duration `envconfig:"TRADEPOST_GCS_DOWNLOAD_URL_EXPIRY" default:"1h"`
}

type PubSubConfig struct {
	OrdersTopic               string `envconfig:"TRADEPOST_PUBSUB_ORDERS_TOPIC" default:"tp-order-events"`
	NotificationsTopic        string `envconfig:"TRADEPOST_PUBSUB_NOTIFICATIONS_TOPIC" default:"tp-notification-events"`
	AnalyticsTopic            string `envconfig:"TRADEPOST_PUBSUB_ANALYTICS_TOPIC" default:"tp-analytics-events"`
	NotificationsSubscription string `envconfig:"TRADEPOST_PUBSUB_NOTIFICATIONS_SUBSCRIPTION"`
	AnalyticsSubscription     string `envconfig:"TRADEPOST_PUBSUB_ANALYTICS_SUBSCRIPTION"`
}

type BigQueryConfig struct {
	Dataset     string `envconfig:"TRADEPOST_BIGQUERY_DATASET" default:"tradepost"`
	EventsTable string `envconfig:"TRADEPOST_BIGQUERY_EVENTS_TABLE" default:"order_events"`
}

type OutboxConfig struct {
	BatchSize      int           `envconfig:"TRADEPOST_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int           `envconfig:"TRADEPOST_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int           `envconfig:"TRADEPOST_OUTBOX_MAX_ATTEMPTS" default:"10"`
	RetentionDays  int           `envconfig:"TRADEPOST_OUTBOX_RETENTION_DAYS" default:"30"`
	IdempotencyTTL time.Duration `envconfig:"TRADEPOST_OUTBOX_IDEMPOTENCY_TTL" default:"24h"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"TRADEPOST_CRON_INTERVAL" default:"1h"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	for name, value := range map[string]string{
		"TRADEPOST_DB_HOST": db.Host,
		"TRADEPOST_DB_USER": db.User,
		"TRADEPOST_DB_NAME": db.Name,
	} {
		if value == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("either TRADEPOST_DB_DSN or %s are required", strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
