// Package config provides centralized configuration for the classdata service
// and its CLI. Values come from environment variables (optionally seeded from a
// .env file by the caller) and are validated once at startup so a bad setting
// fails fast instead of surfacing on the first request.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig
	Data       DataConfig
	Database   DatabaseConfig
	Upload     UploadConfig
	Rate       RateLimitConfig
	Security   SecurityConfig
	Logging    LoggingConfig
	Pagination PaginationConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`
	Port int    `env:"SERVER_PORT" envAlt:"PORT" default:"5000"`

	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"30s"`
	IdleTimeout     time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"15s"`

	// RequestTimeout bounds a single request via chi's Timeout middleware.
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"30s"`
}

// DataConfig locates the flat files loaded into memory at startup.
// Both files must exist; a missing file prevents the service from starting.
type DataConfig struct {
	StudentsPath string `env:"DATA_STUDENTS_PATH" default:"data/students.csv"`
	CoffeePath   string `env:"DATA_COFFEE_PATH" default:"data/coffee.csv"`
}

// DatabaseConfig holds relational store settings.
type DatabaseConfig struct {
	// Driver selects the dialect: "sqlite" (embedded file) or "postgres".
	Driver string `env:"DB_DRIVER" default:"sqlite"`

	// URL is a file path for sqlite or a connection string for postgres.
	URL string `env:"DATABASE_URL" envAlt:"DB_URL" default:"data/catalog.db"`

	MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" default:"4"`
	ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" default:"30m"`

	// Seed controls whether the fixed reference data is inserted at startup.
	Seed bool `env:"DB_SEED" default:"true"`
}

// UploadConfig holds CSV ingestion settings.
type UploadConfig struct {
	// MaxFileSize is the maximum accepted request body in bytes (default: 5MB).
	MaxFileSize int64 `env:"UPLOAD_MAX_FILE_SIZE" default:"5242880"`

	// MaxConcurrent bounds uploads parsed at the same time.
	MaxConcurrent int `env:"UPLOAD_MAX_CONCURRENT" default:"5"`

	// MaxWait is how long an upload waits for a slot before a 503.
	MaxWait time.Duration `env:"UPLOAD_MAX_WAIT" default:"10s"`
}

// RateLimitConfig holds per-IP rate limiting settings.
type RateLimitConfig struct {
	Enabled           bool `env:"RATE_LIMIT_ENABLED" default:"true"`
	RequestsPerMinute int  `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"120"`
}

// SecurityConfig holds the shared-secret gate and proxy trust settings.
type SecurityConfig struct {
	// APIKey is the shared secret every protected route requires.
	APIKey string `env:"API_KEY" required:"true"`

	// APIKeyParam is the query parameter carrying the secret.
	APIKeyParam string `env:"API_KEY_PARAM" default:"api_key"`

	// PublicRoutes lists route patterns served without the shared secret.
	PublicRoutes []string `env:"SECURITY_PUBLIC_ROUTES" default:"/api/students/paginated,/students-view,/healthz"`

	// TrustedProxies is a comma-separated list of trusted proxy CIDRs.
	TrustedProxies []string `env:"TRUSTED_PROXIES"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `env:"LOG_LEVEL" default:"info"`
	Format string `env:"LOG_FORMAT" default:"text"`
}

// PaginationConfig holds defaults applied when a request omits them.
type PaginationConfig struct {
	DefaultLimit int `env:"PAGINATION_DEFAULT_LIMIT" default:"5"`
	DefaultTop   int `env:"STUDENTS_TOP_DEFAULT" default:"5"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}

// IsPublic reports whether pattern is configured to skip the shared-secret gate.
func (c *SecurityConfig) IsPublic(pattern string) bool {
	for _, p := range c.PublicRoutes {
		if p == pattern {
			return true
		}
	}
	return false
}
