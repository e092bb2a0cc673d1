package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Default credentials shipped with the service. They are rejected in production.
const (
	DefaultAPIKey    = "secret-many-many-very-very-key-for-api"
	DefaultJWTSecret = "SECRET"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Auth      AuthConfig
	Log       LogConfig
	HTTP      HTTPConfig
	Cache     CacheConfig
	Storage   StorageConfig
	Swagger   SwaggerConfig
	Telemetry TelemetryConfig
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name        string
	Title       string
	Description string
	Env         string
	Host        string
	Port        string
	APIKey      string
	SeedData    bool
}

// Addr returns the listen address of the HTTP server.
func (a AppConfig) Addr() string {
	return a.Host + ":" + a.Port
}

// Database drivers supported by the persistence layer.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Driver          string // postgres or sqlite
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	SQLitePath      string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// RedisConfig holds Redis connection settings.
// An empty Host disables Redis and the in-memory fallbacks are used.
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// Addr returns host:port of the Redis server.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// AuthConfig holds user authentication settings
type AuthConfig struct {
	Secret         string
	TokenLifetime  time.Duration
	TokenURL       string
	BackendName    string
	Issuer         string
	PasswordLength int
	AdminEmail     string
	AdminPassword  string
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int
	MaxBodySize       int64
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration
	LoginRateLimit    int // login attempts per client per RateLimitWindow
	CORSAllowOrigins  []string
	CORSAllowMethods  []string
	CORSAllowHeaders  []string
	TrustedProxies    []string
}

// CacheConfig holds read-model cache settings
type CacheConfig struct {
	ActivityTreeTTL time.Duration
}

// StorageConfig holds S3-compatible object storage settings used by snapshot exports
type StorageConfig struct {
	Enabled         bool
	Bucket          string
	Region          string
	Endpoint        string // optional, for MinIO and other S3-compatible servers
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
	Prefix          string

	// Daily snapshot export, requires Enabled
	ScheduleEnabled bool
	ScheduleHour    int // 0-23, server local time
	ScheduleTimeout time.Duration
}

// SwaggerConfig holds Swagger documentation endpoint configuration
type SwaggerConfig struct {
	Enabled     bool
	RequireAuth bool     // a bearer token is required to open the docs
	AllowedIPs  []string // IPs or CIDRs; empty allows everyone
}

// TelemetryConfig holds OpenTelemetry and profiling configuration
type TelemetryConfig struct {
	Enabled           bool    // Whether to enable OpenTelemetry
	CollectorEndpoint string  // OTEL Collector endpoint (e.g., "localhost:4317")
	SamplingRatio     float64 // Sampling ratio (0.0-1.0, 1.0 = 100%)
	ServiceName       string  // Service name for traces
	Insecure          bool    // Use insecure (non-TLS) connection (development only)
	MetricsEnabled    bool
	LogsEnabled       bool
	// Database tracing options
	DBTraceEnabled    bool          // Enable database query tracing (otelgorm)
	DBLogFullSQL      bool          // Log full SQL statements (dev only)
	DBSlowQueryThresh time.Duration // Slow query threshold for warnings
	// Continuous profiling
	ProfilingEnabled bool
	PyroscopeAddress string
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with DIR_ prefix (e.g., DIR_DATABASE_PASSWORD)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("DIR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetDefault("app.seed_data", true)
	v.SetDefault("swagger.enabled", true)
	v.SetDefault("storage.schedule_hour", 2)

	cfg := FromViper(v)
	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// FromViper builds a Config from an already populated viper instance without
// applying defaults or validation.
func FromViper(v *viper.Viper) *Config {
	return &Config{
		App: AppConfig{
			Name:        v.GetString("app.name"),
			Title:       v.GetString("app.title"),
			Description: v.GetString("app.description"),
			Env:         v.GetString("app.env"),
			Host:        v.GetString("app.host"),
			Port:        v.GetString("app.port"),
			APIKey:      v.GetString("app.api_key"),
			SeedData:    v.GetBool("app.seed_data"),
		},
		Database: DatabaseConfig{
			Driver:          v.GetString("database.driver"),
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			SQLitePath:      v.GetString("database.sqlite_path"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Auth: AuthConfig{
			Secret:         v.GetString("auth.secret"),
			TokenLifetime:  v.GetDuration("auth.token_lifetime"),
			TokenURL:       v.GetString("auth.token_url"),
			BackendName:    v.GetString("auth.backend_name"),
			Issuer:         v.GetString("auth.issuer"),
			PasswordLength: v.GetInt("auth.password_length"),
			AdminEmail:     v.GetString("auth.admin_email"),
			AdminPassword:  v.GetString("auth.admin_password"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:       v.GetDuration("http.read_timeout"),
			WriteTimeout:      v.GetDuration("http.write_timeout"),
			IdleTimeout:       v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes:    v.GetInt("http.max_header_bytes"),
			MaxBodySize:       v.GetInt64("http.max_body_size"),
			RateLimitEnabled:  v.GetBool("http.rate_limit_enabled"),
			RateLimitRequests: v.GetInt("http.rate_limit_requests"),
			RateLimitWindow:   v.GetDuration("http.rate_limit_window"),
			LoginRateLimit:    v.GetInt("http.login_rate_limit"),
			CORSAllowOrigins:  v.GetStringSlice("http.cors_allow_origins"),
			CORSAllowMethods:  v.GetStringSlice("http.cors_allow_methods"),
			CORSAllowHeaders:  v.GetStringSlice("http.cors_allow_headers"),
			TrustedProxies:    v.GetStringSlice("http.trusted_proxies"),
		},
		Cache: CacheConfig{
			ActivityTreeTTL: v.GetDuration("cache.activity_tree_ttl"),
		},
		Storage: StorageConfig{
			Enabled:         v.GetBool("storage.enabled"),
			Bucket:          v.GetString("storage.bucket"),
			Region:          v.GetString("storage.region"),
			Endpoint:        v.GetString("storage.endpoint"),
			AccessKeyID:     v.GetString("storage.access_key_id"),
			SecretAccessKey: v.GetString("storage.secret_access_key"),
			UsePathStyle:    v.GetBool("storage.use_path_style"),
			Prefix:          v.GetString("storage.prefix"),
			ScheduleEnabled: v.GetBool("storage.schedule_enabled"),
			ScheduleHour:    v.GetInt("storage.schedule_hour"),
			ScheduleTimeout: v.GetDuration("storage.schedule_timeout"),
		},
		Swagger: SwaggerConfig{
			Enabled:     v.GetBool("swagger.enabled"),
			RequireAuth: v.GetBool("swagger.require_auth"),
			AllowedIPs:  v.GetStringSlice("swagger.allowed_ips"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			MetricsEnabled:    v.GetBool("telemetry.metrics_enabled"),
			LogsEnabled:       v.GetBool("telemetry.logs_enabled"),
			DBTraceEnabled:    v.GetBool("telemetry.db_trace_enabled"),
			DBLogFullSQL:      v.GetBool("telemetry.db_log_full_sql"),
			DBSlowQueryThresh: v.GetDuration("telemetry.db_slow_query_threshold"),
			ProfilingEnabled:  v.GetBool("telemetry.profiling_enabled"),
			PyroscopeAddress:  v.GetString("telemetry.pyroscope_address"),
		},
	}
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "directory"
	}
	if cfg.App.Title == "" {
		cfg.App.Title = "Справочник"
	}
	if cfg.App.Description == "" {
		cfg.App.Description = "Справочник для Организаций и их деятельности"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Host == "" {
		cfg.App.Host = "0.0.0.0"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8000"
	}
	if cfg.App.APIKey == "" {
		cfg.App.APIKey = DefaultAPIKey
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = DriverPostgres
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "admin"
	}
	if cfg.Database.Password == "" && cfg.App.Env != "production" {
		cfg.Database.Password = "admin123"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "mydatabase"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "./directory.db"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Auth.Secret == "" {
		cfg.Auth.Secret = DefaultJWTSecret
	}
	if cfg.Auth.TokenLifetime == 0 {
		cfg.Auth.TokenLifetime = 3600 * time.Second
	}
	if cfg.Auth.TokenURL == "" {
		cfg.Auth.TokenURL = "auth/jwt/login"
	}
	if cfg.Auth.BackendName == "" {
		cfg.Auth.BackendName = "jwt"
	}
	if cfg.Auth.Issuer == "" {
		cfg.Auth.Issuer = cfg.App.Name
	}
	if cfg.Auth.PasswordLength == 0 {
		cfg.Auth.PasswordLength = 3
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 15 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 1 << 20 // 1MB
	}
	if cfg.HTTP.RateLimitRequests == 0 {
		cfg.HTTP.RateLimitRequests = 100
	}
	if cfg.HTTP.RateLimitWindow == 0 {
		cfg.HTTP.RateLimitWindow = time.Minute
	}
	if cfg.HTTP.LoginRateLimit == 0 {
		cfg.HTTP.LoginRateLimit = 10
	}
	if len(cfg.HTTP.CORSAllowMethods) == 0 {
		cfg.HTTP.CORSAllowMethods = []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"}
	}
	if len(cfg.HTTP.CORSAllowHeaders) == 0 {
		cfg.HTTP.CORSAllowHeaders = []string{"Content-Type", "Authorization", "X-Request-ID", "X-API-KEY"}
	}
	if cfg.Cache.ActivityTreeTTL == 0 {
		cfg.Cache.ActivityTreeTTL = 10 * time.Minute
	}
	if cfg.Storage.Region == "" {
		cfg.Storage.Region = "us-east-1"
	}
	if cfg.Storage.Prefix == "" {
		cfg.Storage.Prefix = "snapshots"
	}
	if cfg.Storage.ScheduleTimeout == 0 {
		cfg.Storage.ScheduleTimeout = 10 * time.Minute
	}
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = cfg.App.Name
	}
	if cfg.Telemetry.DBSlowQueryThresh == 0 {
		cfg.Telemetry.DBSlowQueryThresh = 200 * time.Millisecond
	}
	if cfg.Telemetry.PyroscopeAddress == "" {
		cfg.Telemetry.PyroscopeAddress = "http://localhost:4040"
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	switch c.Database.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("database.driver must be %q or %q, got %q", DriverPostgres, DriverSQLite, c.Database.Driver)
	}

	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}

	if c.Auth.PasswordLength < 1 {
		return fmt.Errorf("auth.password_length must be positive")
	}
	if c.Auth.TokenLifetime <= 0 {
		return fmt.Errorf("auth.token_lifetime must be positive")
	}
	if (c.Auth.AdminEmail == "") != (c.Auth.AdminPassword == "") {
		return fmt.Errorf("auth.admin_email and auth.admin_password must be set together")
	}

	if c.Storage.Enabled && c.Storage.Bucket == "" {
		return fmt.Errorf("storage.bucket is required when storage is enabled")
	}
	if c.Storage.ScheduleEnabled && !c.Storage.Enabled {
		return fmt.Errorf("storage.schedule_enabled requires storage.enabled")
	}
	if c.Storage.ScheduleHour < 0 || c.Storage.ScheduleHour > 23 {
		return fmt.Errorf("storage.schedule_hour must be between 0 and 23")
	}

	if c.IsProduction() {
		if c.Auth.Secret == DefaultJWTSecret || len(c.Auth.Secret) < 32 {
			return fmt.Errorf("auth.secret must be at least 32 characters and not the default in production")
		}
		if c.App.APIKey == DefaultAPIKey {
			return fmt.Errorf("app.api_key must be changed from the default in production")
		}
		if c.Database.Driver == DriverPostgres && c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return fmt.Errorf("cors_allow_origins cannot be '*' in production (use specific origins)")
			}
		}
		if c.Telemetry.DBLogFullSQL {
			return fmt.Errorf("telemetry.db_log_full_sql must be false in production")
		}
	}

	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}

	return nil
}

// IsProduction reports whether the service runs in the production environment.
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

// RedisEnabled reports whether a Redis server is configured.
func (c *Config) RedisEnabled() bool {
	return c.Redis.Host != ""
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	if d.Driver == DriverSQLite {
		return d.SQLitePath
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}
