package config

import (
	"fmt"
	"net"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"go.uber.org/multierr"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	CORS          CORSConfig
	Cache         CacheConfig
	Quotes        QuotesConfig
	Sales         SalesConfig
	GCP           GCPConfig
	BigQuery      BigQueryConfig
}

// Load reads the environment and reports every invalid setting at once.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.FeatureFlags.UseSQLite {
		cfg.DB.Driver = DBDriverSQLite
		if cfg.DB.DSN == "" {
			cfg.DB.DSN = DefaultSQLiteDSN
		}
	}

	err := multierr.Combine(
		cfg.App.check(),
		cfg.DB.resolveDSN(),
		cfg.Sales.check(cfg.GCP),
	)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"SALESDESK_APP_ENV" required:"true"`
	Port         string `envconfig:"SALESDESK_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"SALESDESK_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"SALESDESK_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"SALESDESK_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) check() error {
	switch strings.ToLower(a.LogFormat) {
	case LogFormatJSON, LogFormatConsole:
		return nil
	}
	return fmt.Errorf("%s must be %s or %s, got %q", EnvLogFormat, LogFormatJSON, LogFormatConsole, a.LogFormat)
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"SALESDESK_DB_DSN"`
	Driver string `envconfig:"SALESDESK_DB_DRIVER" default:"postgres"`

	// Used to build a postgres DSN when SALESDESK_DB_DSN is unset.
	Host     string `envconfig:"SALESDESK_DB_HOST"`
	Port     int    `envconfig:"SALESDESK_DB_PORT" default:"5432"`
	User     string `envconfig:"SALESDESK_DB_USER"`
	Password string `envconfig:"SALESDESK_DB_PASSWORD"`
	Name     string `envconfig:"SALESDESK_DB_NAME"`
	SSLMode  string `envconfig:"SALESDESK_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SALESDESK_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SALESDESK_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SALESDESK_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SALESDESK_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	SlowQueryThreshold time.Duration `envconfig:"SALESDESK_DB_SLOW_QUERY_THRESHOLD" default:"250ms"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SALESDESK_REDIS_URL" required:"true"`
	Address      string        `envconfig:"SALESDESK_REDIS_ADDR"`
	Password     string        `envconfig:"SALESDESK_REDIS_PASSWORD"`
	DB           int           `envconfig:"SALESDESK_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SALESDESK_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SALESDESK_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SALESDESK_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SALESDESK_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SALESDESK_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"SALESDESK_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"SALESDESK_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"SALESDESK_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"SALESDESK_REFRESH_TOKEN_TTL_MINUTES" default:"10080"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"SALESDESK_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"SALESDESK_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"SALESDESK_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"SALESDESK_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"SALESDESK_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"SALESDESK_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginUsernameLimit int           `envconfig:"SALESDESK_AUTH_RATE_LIMIT_LOGIN_USERNAME_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"SALESDESK_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"SALESDESK_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"SALESDESK_AUTO_MIGRATE" default:"false"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"SALESDESK_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

type CacheConfig struct {
	CatalogTTL time.Duration `envconfig:"SALESDESK_CACHE_CATALOG_TTL" default:"10m"`
	SalesTTL   time.Duration `envconfig:"SALESDESK_CACHE_SALES_TTL" default:"1h"`
}

type QuotesConfig struct {
	LogoPath    string        `envconfig:"SALESDESK_QUOTES_LOGO_PATH"`
	DraftTTL    time.Duration `envconfig:"SALESDESK_QUOTES_DRAFT_TTL" default:"12h"`
	SearchLimit int           `envconfig:"SALESDESK_QUOTES_SEARCH_LIMIT" default:"40"`
}

type SalesConfig struct {
	Source         string  `envconfig:"SALESDESK_SALES_SOURCE" default:"postgres"`
	TargetRevenue  float64 `envconfig:"SALESDESK_SALES_TARGET_REVENUE" default:"80000"`
	ExcludedMarker string  `envconfig:"SALESDESK_SALES_EXCLUDED_MARKER" default:"RAEE"`
	PageSize       int     `envconfig:"SALESDESK_SALES_PAGE_SIZE" default:"1000"`
	MaxRows        int     `envconfig:"SALESDESK_SALES_MAX_ROWS" default:"30000"`
}

// UsesBigQuery reports whether sales history is read from the warehouse.
func (s SalesConfig) UsesBigQuery() bool {
	return strings.EqualFold(strings.TrimSpace(s.Source), SalesSourceBigQuery)
}

func (s SalesConfig) check(gcp GCPConfig) error {
	var err error
	switch strings.ToLower(strings.TrimSpace(s.Source)) {
	case SalesSourcePostgres:
	case SalesSourceBigQuery:
		if gcp.ProjectID == "" {
			err = fmt.Errorf("%s is required when %s=%s", EnvGCPProjectID, EnvSalesSource, SalesSourceBigQuery)
		}
	default:
		err = fmt.Errorf("%s must be %s or %s, got %q", EnvSalesSource, SalesSourcePostgres, SalesSourceBigQuery, s.Source)
	}
	if s.PageSize <= 0 || s.MaxRows < s.PageSize {
		err = multierr.Append(err, fmt.Errorf("%s must be positive and not exceed %s", EnvSalesPageSize, EnvSalesMaxRows))
	}
	return err
}

type GCPConfig struct {
	ProjectID              string `envconfig:"SALESDESK_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"SALESDESK_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"SALESDESK_GOOGLE_APPLICATION_CREDENTIALS"`
}

type BigQueryConfig struct {
	Dataset        string `envconfig:"SALESDESK_BIGQUERY_DATASET" default:"salesdesk"`
	SalesTable     string `envconfig:"SALESDESK_BIGQUERY_SALES_TABLE" default:"sales_history"`
	MaxBytesBilled int64  `envconfig:"SALESDESK_BIGQUERY_MAX_BYTES_BILLED" default:"0"`
}

func (db *DBConfig) resolveDSN() error {
	if db.DSN != "" {
		return nil
	}

	var missing []string
	for env, value := range map[string]string{EnvDBHost: db.Host, EnvDBUser: db.User, EnvDBName: db.Name} {
		if value == "" {
			missing = append(missing, env)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("%s or all of %s required; missing %s", EnvDBDSN, strings.Join(dsnPartEnvVars, ", "), strings.Join(missing, ", "))
	}

	u := url.URL{
		Scheme: "postgres",
		User:   url.User(db.User),
		Host:   net.JoinHostPort(db.Host, strconv.Itoa(db.Port)),
		Path:   db.Name,
	}
	if db.Password != "" {
		u.User = url.UserPassword(db.User, db.Password)
	}
	if db.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": {db.SSLMode}}.Encode()
	}
	db.DSN = u.String()
	return nil
}
