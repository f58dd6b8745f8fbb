// File: internal/config/config.go
package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Application environments.
const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
	EnvTest        = "test"
)

// Process roles.
const (
	AppTypeAPI    = "api"
	AppTypeWorker = "worker"
)

// Config holds all configuration for the application. It is populated once at
// process start and treated as read-only afterwards.
type Config struct {
	// Server Configuration
	AppEnv     string `mapstructure:"APP_ENV"`
	AppType    string `mapstructure:"APP_TYPE"`
	ServerHost string `mapstructure:"SERVER_HOST"`
	ServerPort string `mapstructure:"SERVER_PORT"`

	ServerTimeout time.Duration `mapstructure:"SERVER_TIMEOUT_SECONDS"`

	// Security
	CORSOrigin string `mapstructure:"CORS_ORIGIN"`

	// Logging Configuration
	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`
	LogDir    string `mapstructure:"LOG_DIR"`

	// Database Configuration
	DBHost            string        `mapstructure:"DB_HOST"`
	DBPort            string        `mapstructure:"DB_PORT"`
	DBUser            string        `mapstructure:"DB_USER"`
	DBPassword        string        `mapstructure:"DB_PASSWORD"`
	DBName            string        `mapstructure:"DB_NAME"`
	DBSSLMode         string        `mapstructure:"DB_SSL_MODE"`
	DBTimezone        string        `mapstructure:"DB_TIMEZONE"`
	DBMaxIdleConns    int           `mapstructure:"DB_MAX_IDLE_CONNS"`
	DBMaxOpenConns    int           `mapstructure:"DB_MAX_OPEN_CONNS"`
	DBConnMaxLifetime time.Duration `mapstructure:"DB_CONN_MAX_LIFETIME_MINUTES"`

	// Redis Configuration
	RedisHost     string `mapstructure:"REDIS_HOST"`
	RedisPort     string `mapstructure:"REDIS_PORT"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	// Identity Provider Configuration
	AuthIssuerURL string `mapstructure:"AUTH_ISSUER_URL"`
	AuthAudience  string `mapstructure:"AUTH_AUDIENCE"`

	// Request pipeline limits
	RateLimitWindow      time.Duration `mapstructure:"RATE_LIMIT_WINDOW_SECONDS"`
	RateLimitMaxRequests int           `mapstructure:"RATE_LIMIT_MAX_REQUESTS"`
	BodyLimitBytes       int64         `mapstructure:"BODY_LIMIT_BYTES"`

	// Uploads
	UploadDir          string `mapstructure:"UPLOAD_DIR"`
	UploadMaxSizeBytes int64  `mapstructure:"UPLOAD_MAX_SIZE_BYTES"`

	// Webhooks
	StripeWebhookSecret string `mapstructure:"STRIPE_WEBHOOK_SECRET"`

	// Background jobs
	UserPurgeJobSchedule   string `mapstructure:"USER_PURGE_JOB_SCHEDULE"`
	UserPurgeRetentionDays int    `mapstructure:"USER_PURGE_RETENTION_DAYS"`
}

// IsProduction reports whether the process runs with production error masking.
func (c *Config) IsProduction() bool {
	return c.AppEnv == EnvProduction
}

// IsDevelopment reports whether stack traces may be exposed in responses.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == EnvDevelopment
}

// GORMDSN builds the parameter-style DSN used by the GORM postgres driver.
func (c *Config) GORMDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode, c.DBTimezone)
}

// RedisAddr returns the host:port address for the cache client.
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%s", c.RedisHost, c.RedisPort)
}

// Load attempts to load configuration from a .env file (if present) and
// environment variables. Invalid configuration is an error; main treats it as
// fatal and exits the process.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	v := viper.New()

	// Set default values
	v.SetDefault("APP_ENV", EnvDevelopment)
	v.SetDefault("APP_TYPE", AppTypeAPI)
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", "4000")
	v.SetDefault("SERVER_TIMEOUT_SECONDS", 30)

	v.SetDefault("CORS_ORIGIN", "")

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")
	v.SetDefault("LOG_DIR", "logs")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "password")
	v.SetDefault("DB_NAME", "engla_db")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_TIMEZONE", "UTC")
	v.SetDefault("DB_MAX_IDLE_CONNS", 10)
	v.SetDefault("DB_MAX_OPEN_CONNS", 100)
	v.SetDefault("DB_CONN_MAX_LIFETIME_MINUTES", 60)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("AUTH_ISSUER_URL", "")
	v.SetDefault("AUTH_AUDIENCE", "")

	v.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 60)
	v.SetDefault("RATE_LIMIT_MAX_REQUESTS", 100)
	v.SetDefault("BODY_LIMIT_BYTES", 1<<20) // 1 MiB

	v.SetDefault("UPLOAD_DIR", "uploads")
	v.SetDefault("UPLOAD_MAX_SIZE_BYTES", 5<<20) // 5 MiB

	v.SetDefault("STRIPE_WEBHOOK_SECRET", "")

	v.SetDefault("USER_PURGE_JOB_SCHEDULE", "@daily")
	v.SetDefault("USER_PURGE_RETENTION_DAYS", 30)

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling configuration: %w", err)
	}

	// Convert duration fields
	cfg.ServerTimeout = time.Duration(v.GetInt("SERVER_TIMEOUT_SECONDS")) * time.Second
	cfg.DBConnMaxLifetime = time.Duration(v.GetInt("DB_CONN_MAX_LIFETIME_MINUTES")) * time.Minute
	cfg.RateLimitWindow = time.Duration(v.GetInt("RATE_LIMIT_WINDOW_SECONDS")) * time.Second

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.AppEnv {
	case EnvDevelopment, EnvStaging, EnvProduction, EnvTest:
	default:
		return fmt.Errorf("APP_ENV must be one of development, staging, production, test; got %q", c.AppEnv)
	}

	switch c.AppType {
	case AppTypeAPI, AppTypeWorker:
	default:
		return fmt.Errorf("APP_TYPE must be either %q or %q; got %q", AppTypeAPI, AppTypeWorker, c.AppType)
	}

	if strings.TrimSpace(c.AuthIssuerURL) == "" {
		return fmt.Errorf("AUTH_ISSUER_URL is required for bearer token verification")
	}
	issuer, err := url.Parse(c.AuthIssuerURL)
	if err != nil || issuer.Scheme != "https" {
		return fmt.Errorf("AUTH_ISSUER_URL must be a valid https URL; got %q", c.AuthIssuerURL)
	}
	if strings.TrimSpace(c.AuthAudience) == "" {
		return fmt.Errorf("AUTH_AUDIENCE is required for bearer token verification")
	}

	if c.CORSOrigin == "" && c.IsProduction() {
		return fmt.Errorf("CORS_ORIGIN must be set in production")
	}

	if c.RateLimitMaxRequests <= 0 {
		return fmt.Errorf("RATE_LIMIT_MAX_REQUESTS must be positive; got %d", c.RateLimitMaxRequests)
	}
	if c.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW_SECONDS must be positive")
	}
	if c.BodyLimitBytes <= 0 {
		return fmt.Errorf("BODY_LIMIT_BYTES must be positive; got %d", c.BodyLimitBytes)
	}
	if c.UploadMaxSizeBytes <= 0 {
		return fmt.Errorf("UPLOAD_MAX_SIZE_BYTES must be positive; got %d", c.UploadMaxSizeBytes)
	}

	return nil
}
