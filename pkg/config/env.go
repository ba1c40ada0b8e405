package config

const (
	EnvPrefix = "PROCUREMENT"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv   = "PROCUREMENT_APP_ENV"
	EnvPort     = "PROCUREMENT_APP_PORT"
	EnvLogLevel = "PROCUREMENT_LOG_LEVEL"

	EnvDBDSN      = "PROCUREMENT_DB_DSN"
	EnvDBHost     = "PROCUREMENT_DB_HOST"
	EnvDBPort     = "PROCUREMENT_DB_PORT"
	EnvDBUser     = "PROCUREMENT_DB_USER"
	EnvDBPassword = "PROCUREMENT_DB_PASSWORD"
	EnvDBName     = "PROCUREMENT_DB_NAME"

	EnvRedisURL     = "PROCUREMENT_REDIS_URL"
	EnvGCPProjectID = "PROCUREMENT_GCP_PROJECT_ID"

	EnvOrderTimezone = "PROCUREMENT_ORDER_TIMEZONE"
	EnvStrictTotals  = "PROCUREMENT_ORDERS_STRICT_TOTALS"

	EnvPubSubOrdersTopic = "PROCUREMENT_PUBSUB_ORDERS_TOPIC"
	EnvPubSubOrdersSub   = "PROCUREMENT_PUBSUB_ORDERS_SUBSCRIPTION"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
