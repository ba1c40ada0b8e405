package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"google.golang.org/api/option"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	FeatureFlags FeatureFlagsConfig
	Orders       OrdersConfig
	Eventing     EventingConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	BigQuery     BigQueryConfig
	Outbox       OutboxConfig
	Cron         CronConfig
	CORS         CORSConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if _, err := cfg.Orders.Location(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"PROCUREMENT_APP_ENV" required:"true"`
	Port         string `envconfig:"PROCUREMENT_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"PROCUREMENT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"PROCUREMENT_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"PROCUREMENT_SERVICE_KIND" default:"api"`
	// MetricsAddr is where workers expose /metrics. Blank disables it.
	MetricsAddr string `envconfig:"PROCUREMENT_WORKER_METRICS_ADDR"`
}

type DBConfig struct {
	DSN    string `envconfig:"PROCUREMENT_DB_DSN"`
	Driver string `envconfig:"PROCUREMENT_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"PROCUREMENT_DB_HOST"`
	LegacyPort     int    `envconfig:"PROCUREMENT_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"PROCUREMENT_DB_USER"`
	LegacyPassword string `envconfig:"PROCUREMENT_DB_PASSWORD"`
	LegacyName     string `envconfig:"PROCUREMENT_DB_NAME"`
	LegacySSLMode  string `envconfig:"PROCUREMENT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"PROCUREMENT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"PROCUREMENT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"PROCUREMENT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PROCUREMENT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"PROCUREMENT_REDIS_URL" required:"true"`
	Address      string        `envconfig:"PROCUREMENT_REDIS_ADDR"`
	Password     string        `envconfig:"PROCUREMENT_REDIS_PASSWORD"`
	DB           int           `envconfig:"PROCUREMENT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PROCUREMENT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PROCUREMENT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PROCUREMENT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PROCUREMENT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PROCUREMENT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type FeatureFlagsConfig struct {
	UseSQLite           bool `envconfig:"PROCUREMENT_USE_SQLITE" default:"false"`
	AutoMigrate         bool `envconfig:"PROCUREMENT_AUTO_MIGRATE" default:"false"`
	IdempotencyRequired bool `envconfig:"PROCUREMENT_IDEMPOTENCY_REQUIRED" default:"false"`
}

// OrdersConfig controls purchase order numbering and validation.
type OrdersConfig struct {
	Timezone     string `envconfig:"PROCUREMENT_ORDER_TIMEZONE" default:"America/Lima"`
	StrictTotals bool   `envconfig:"PROCUREMENT_ORDERS_STRICT_TOTALS" default:"true"`
}

// Location resolves the timezone used to derive the order numbering year.
func (o OrdersConfig) Location() (*time.Location, error) {
	name := strings.TrimSpace(o.Timezone)
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q: %w", EnvOrderTimezone, name, err)
	}
	return loc, nil
}

type EventingConfig struct {
	OutboxIdempotencyTTL time.Duration `envconfig:"PROCUREMENT_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"PROCUREMENT_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"PROCUREMENT_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"PROCUREMENT_GOOGLE_APPLICATION_CREDENTIALS"`
}

// ClientOptions picks explicit credentials for Google clients. Inline JSON
// wins over a file; neither falls back to application default credentials.
func (g GCPConfig) ClientOptions() []option.ClientOption {
	switch {
	case strings.TrimSpace(g.CredentialsJSON) != "":
		return []option.ClientOption{option.WithCredentialsJSON([]byte(g.CredentialsJSON))}
	case strings.TrimSpace(g.ApplicationCredentials) != "":
		return []option.ClientOption{option.WithCredentialsFile(strings.TrimSpace(g.ApplicationCredentials))}
	}
	return nil
}

type PubSubConfig struct {
	OrdersTopic        string `envconfig:"PROCUREMENT_PUBSUB_ORDERS_TOPIC" default:"procurement-order-events"`
	OrdersSubscription string `envconfig:"PROCUREMENT_PUBSUB_ORDERS_SUBSCRIPTION" default:"procurement-order-events-analytics"`
}

type BigQueryConfig struct {
	Dataset          string `envconfig:"PROCUREMENT_BIGQUERY_DATASET" default:"procurement"`
	OrderEventsTable string `envconfig:"PROCUREMENT_BIGQUERY_ORDER_EVENTS_TABLE" default:"order_events"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"PROCUREMENT_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"PROCUREMENT_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"PROCUREMENT_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type CronConfig struct {
	Interval            time.Duration `envconfig:"PROCUREMENT_CRON_INTERVAL" default:"1h"`
	ApprovalOverdueDays int           `envconfig:"PROCUREMENT_APPROVAL_OVERDUE_DAYS" default:"7"`
	OutboxRetention     time.Duration `envconfig:"PROCUREMENT_OUTBOX_RETENTION" default:"720h"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"PROCUREMENT_CORS_ALLOWED_ORIGINS" default:"*"`
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
