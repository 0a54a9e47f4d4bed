package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Rate-limit failure policies. The policy decides what happens to a request
// when the limiter store errors at evaluation time.
const (
	FailOpen   = "open"
	FailClosed = "closed"
)

// Config holds all application configuration.
type Config struct {
	Server        ServerConfig
	Session       SessionConfig
	RateLimit     RateLimitConfig
	Store         StoreConfig
	Routes        RoutesConfig
	Observability ObservabilityConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// Health/metrics server (separate port for k8s probes)
	HealthPort string
}

// SessionConfig holds session cookie signing configuration.
type SessionConfig struct {
	// Secret signs session JWTs. Must be at least 32 bytes.
	Secret string
	TTL    time.Duration
	// Secure marks the session cookie Secure; disable only for local HTTP.
	Secure bool
}

// RateLimitConfig holds limiter store configuration.
type RateLimitConfig struct {
	// RedisURL is the limiter store address. Empty is a startup error unless
	// Disabled is set explicitly.
	RedisURL      string
	RedisPassword string
	RedisDB       int

	// Disabled turns rate limiting off entirely. It must be set explicitly;
	// a missing store never silently disables limiting.
	Disabled bool

	// FailurePolicy is "open" or "closed": whether requests pass or get 503
	// when the store errors at evaluation time.
	FailurePolicy string
}

// StoreConfig holds the document store configuration.
type StoreConfig struct {
	MongoURL      string
	MongoDatabase string
	MongoTimeout  time.Duration

	// UseMemory swaps in the in-memory store, for local development.
	UseMemory bool
}

// RoutesConfig points at an optional route-rules override file.
type RoutesConfig struct {
	// RulesFile is a YAML file overriding the built-in route rules. Empty
	// means defaults only.
	RulesFile string
}

// ObservabilityConfig holds logging and metrics settings.
type ObservabilityConfig struct {
	LogLevel       string
	MetricsEnabled bool
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnv("SITEGATE_HOST", "0.0.0.0"),
			Port:            getEnv("SITEGATE_PORT", "8080"),
			ReadTimeout:     getEnvDuration("SITEGATE_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvDuration("SITEGATE_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:     getEnvDuration("SITEGATE_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvDuration("SITEGATE_SHUTDOWN_TIMEOUT", 30*time.Second),
			HealthPort:      getEnv("SITEGATE_HEALTH_PORT", "9090"),
		},
		Session: SessionConfig{
			Secret: getEnv("SITEGATE_SESSION_SECRET", ""),
			TTL:    getEnvDuration("SITEGATE_SESSION_TTL", 24*time.Hour),
			Secure: getEnvBool("SITEGATE_SESSION_SECURE", true),
		},
		RateLimit: RateLimitConfig{
			RedisURL:      getEnv("SITEGATE_REDIS_URL", ""),
			RedisPassword: getEnv("SITEGATE_REDIS_PASSWORD", ""),
			RedisDB:       getEnvInt("SITEGATE_REDIS_DB", 0),
			Disabled:      getEnvBool("SITEGATE_RATELIMIT_DISABLED", false),
			FailurePolicy: strings.ToLower(getEnv("SITEGATE_RATELIMIT_FAILURE_POLICY", FailOpen)),
		},
		Store: StoreConfig{
			MongoURL:      getEnv("SITEGATE_MONGO_URL", ""),
			MongoDatabase: getEnv("SITEGATE_MONGO_DATABASE", "sitegate"),
			MongoTimeout:  getEnvDuration("SITEGATE_MONGO_TIMEOUT", 10*time.Second),
			UseMemory:     getEnvBool("SITEGATE_STORE_MEMORY", false),
		},
		Routes: RoutesConfig{
			RulesFile: getEnv("SITEGATE_ROUTE_RULES_FILE", ""),
		},
		Observability: ObservabilityConfig{
			LogLevel:       getEnv("SITEGATE_LOG_LEVEL", "info"),
			MetricsEnabled: getEnvBool("SITEGATE_METRICS_ENABLED", true),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Server.HealthPort == "" {
		return fmt.Errorf("health port is required")
	}
	if c.Server.Port == c.Server.HealthPort {
		return fmt.Errorf("server port and health port must be different")
	}

	if c.Session.Secret == "" {
		return fmt.Errorf("SITEGATE_SESSION_SECRET is required")
	}
	if len(c.Session.Secret) < 32 {
		return fmt.Errorf("SITEGATE_SESSION_SECRET must be at least 32 bytes")
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("session TTL must be positive")
	}

	// A missing limiter store is a startup error, not a silent disable.
	if c.RateLimit.RedisURL == "" && !c.RateLimit.Disabled {
		return fmt.Errorf("SITEGATE_REDIS_URL is required unless SITEGATE_RATELIMIT_DISABLED=true")
	}
	switch c.RateLimit.FailurePolicy {
	case FailOpen, FailClosed:
	default:
		return fmt.Errorf("invalid rate limit failure policy: %s (must be %q or %q)",
			c.RateLimit.FailurePolicy, FailOpen, FailClosed)
	}

	if c.Store.MongoURL == "" && !c.Store.UseMemory {
		return fmt.Errorf("SITEGATE_MONGO_URL is required unless SITEGATE_STORE_MEMORY=true")
	}

	return nil
}

// getEnv returns an environment variable value or a default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default.
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
