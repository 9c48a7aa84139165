package config

const EnvPrefix = "SALESDESK"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"
	DefaultSQLiteDSN = "salesdesk.db"

	LogFormatJSON    = "json"
	LogFormatConsole = "console"

	SalesSourcePostgres = "postgres"
	SalesSourceBigQuery = "bigquery"
)

const (
	EnvAppEnv    = "SALESDESK_APP_ENV"
	EnvPort      = "SALESDESK_APP_PORT"
	EnvLogLevel  = "SALESDESK_LOG_LEVEL"
	EnvLogFormat = "SALESDESK_LOG_FORMAT"

	EnvDBDSN  = "SALESDESK_DB_DSN"
	EnvDBHost = "SALESDESK_DB_HOST"
	EnvDBUser = "SALESDESK_DB_USER"
	EnvDBName = "SALESDESK_DB_NAME"

	EnvUseSQLite = "SALESDESK_USE_SQLITE"

	EnvRedisURL = "SALESDESK_REDIS_URL"

	EnvJWTSecret              = "SALESDESK_JWT_SECRET"
	EnvJWTIssuer              = "SALESDESK_JWT_ISSUER"
	EnvJWTExpMins             = "SALESDESK_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "SALESDESK_REFRESH_TOKEN_TTL_MINUTES"

	EnvCORSAllowedOrigins = "SALESDESK_CORS_ALLOWED_ORIGINS"
	EnvQuotesLogoPath     = "SALESDESK_QUOTES_LOGO_PATH"
	EnvQuotesDraftTTL     = "SALESDESK_QUOTES_DRAFT_TTL"
	EnvSalesSource        = "SALESDESK_SALES_SOURCE"
	EnvSalesTarget        = "SALESDESK_SALES_TARGET_REVENUE"
	EnvSalesPageSize      = "SALESDESK_SALES_PAGE_SIZE"
	EnvSalesMaxRows       = "SALESDESK_SALES_MAX_ROWS"

	EnvGCPProjectID = "SALESDESK_GCP_PROJECT_ID"
)

var dsnPartEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
