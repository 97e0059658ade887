// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"net"
	"strconv"
	"time"
)

// Corpus sources.
const (
	SourceFS       = "fs"
	SourcePostgres = "postgres"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Corpus   CorpusConfig
	Database DatabaseConfig
	Cache    CacheConfig
	Export   ExportConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Metrics  MetricsConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" envAlt:"PORT" default:"8080"`

	ReadTimeout  time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"60s"`
	IdleTimeout  time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout bounds graceful shutdown, including draining exports (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 30s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"30s"`
}

// CorpusConfig selects where game documents come from.
type CorpusConfig struct {
	// Source is "fs" (a directory of .md/.mdx files) or "postgres"
	Source string `env:"CORPUS_SOURCE" default:"fs"`

	// Dir is the document directory for the fs source (default: content/games)
	Dir string `env:"CORPUS_DIR" default:"content/games"`

	// Validate runs the schema validator on every document (default: true)
	Validate bool `env:"CORPUS_VALIDATE" default:"true"`

	// LoadWorkers bounds parallel parsing during bulk loads (default: 8)
	LoadWorkers int `env:"CORPUS_LOAD_WORKERS" default:"8"`
}

// DatabaseConfig holds database connection settings.
// URL is only required when Corpus.Source is "postgres".
type DatabaseConfig struct {
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	MaxConns        int           `env:"DB_MAX_CONNS" default:"10"`
	MinConns        int           `env:"DB_MIN_CONNS" default:"1"`
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// CacheConfig holds the optional Redis document cache settings.
type CacheConfig struct {
	// RedisURL enables the cache when set (e.g. redis://localhost:6379/0)
	RedisURL string `env:"REDIS_URL"`

	// TTL is how long cached documents live (default: 10m)
	TTL time.Duration `env:"CACHE_TTL" default:"10m"`

	// Prefix namespaces cache keys (default: gamebook:)
	Prefix string `env:"CACHE_PREFIX" default:"gamebook:"`
}

// Enabled reports whether a Redis URL is configured.
func (c CacheConfig) Enabled() bool {
	return c.RedisURL != ""
}

// ExportConfig bounds concurrent exports.
type ExportConfig struct {
	// MaxConcurrent is the number of exports allowed at once (default: 4)
	MaxConcurrent int `env:"EXPORT_MAX_CONCURRENT" default:"4"`

	// MaxWaitTime is how long a request waits for a slot (default: 10s)
	MaxWaitTime time.Duration `env:"EXPORT_MAX_WAIT_TIME" default:"10s"`
}

// RateLimitConfig holds per-IP rate limiting settings.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the sustained rate per IP (default: 120)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"120"`

	// Burst is how many requests an IP may make at once (default: 20)
	Burst int `env:"RATE_LIMIT_BURST" default:"20"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	// Enabled serves /metrics and records request metrics (default: true)
	Enabled bool `env:"METRICS_ENABLED" default:"true"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
