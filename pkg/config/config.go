package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/campushub/campushub/pkg/observability"
	"github.com/campushub/campushub/pkg/storage"
)

// Environment values recognized by the storage selector and cookies.
const (
	EnvProduction  = "production"
	EnvDevelopment = "development"
)

// Config holds all application configuration
type Config struct {
	// Environment is the deployment mode flag.
	Environment string

	// Server configuration
	Server ServerConfig

	// Storage configuration
	Storage storage.Config

	// Session configuration
	Session SessionConfig

	// Login (OIDC) configuration
	Login LoginConfig

	// Media defaults override file (YAML), optional.
	MediaDefaultsFile string

	// SettingsTTL is the settings cache time-to-live.
	SettingsTTL time.Duration

	// Observability configuration
	Observability ObservabilityConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// Health/metrics server (separate port for probes)
	HealthPort string
}

// SessionConfig selects and configures the session store.
type SessionConfig struct {
	// Backend is "sql" or "redis".
	Backend  string
	RedisURL string
}

// LoginConfig holds the OIDC login settings. Empty ClientID disables
// the login routes (credential verification happens elsewhere).
type LoginConfig struct {
	IssuerURL    string
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	LogLevel       observability.LogLevel
	MetricsEnabled bool

	OTelEnabled        bool
	OTelEndpoint       string
	OTelServiceName    string
	OTelServiceVersion string
	OTelInsecure       bool
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Environment:       getEnv("CAMPUSHUB_ENV", EnvDevelopment),
		Server:            loadServerConfig(),
		Storage:           loadStorageConfig(),
		Session:           loadSessionConfig(),
		Login:             loadLoginConfig(),
		MediaDefaultsFile: getEnv("CAMPUSHUB_MEDIA_DEFAULTS_FILE", ""),
		SettingsTTL:       getEnvDuration("CAMPUSHUB_SETTINGS_TTL", 5*time.Minute),
		Observability:     loadObservabilityConfig(),
	}

	cfg.Storage.Environment = cfg.Environment

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// DatabaseURL returns the PostgreSQL connection string.
func DatabaseURL() string {
	return getEnv("CAMPUSHUB_DATABASE_URL", "")
}

func loadServerConfig() ServerConfig {
	return ServerConfig{
		Host:            getEnv("CAMPUSHUB_HOST", "0.0.0.0"),
		Port:            getEnv("CAMPUSHUB_PORT", "8080"),
		ReadTimeout:     getEnvDuration("CAMPUSHUB_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:    getEnvDuration("CAMPUSHUB_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:     getEnvDuration("CAMPUSHUB_IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout: getEnvDuration("CAMPUSHUB_SHUTDOWN_TIMEOUT", 30*time.Second),
		HealthPort:      getEnv("CAMPUSHUB_HEALTH_PORT", "9090"),
	}
}

func loadStorageConfig() storage.Config {
	cfg := storage.DefaultConfig()

	if localRoot := getEnv("CAMPUSHUB_LOCAL_ROOT", ""); localRoot != "" {
		cfg.LocalRoot = localRoot
	}
	if s3Endpoint := getEnv("CAMPUSHUB_S3_ENDPOINT", ""); s3Endpoint != "" {
		cfg.S3Endpoint = s3Endpoint
	}
	if s3Region := getEnv("CAMPUSHUB_S3_REGION", ""); s3Region != "" {
		cfg.S3Region = s3Region
	}
	if s3Bucket := getEnv("CAMPUSHUB_S3_BUCKET", ""); s3Bucket != "" {
		cfg.S3Bucket = s3Bucket
	}
	if s3AccessKey := getEnv("CAMPUSHUB_S3_ACCESS_KEY", ""); s3AccessKey != "" {
		cfg.S3AccessKey = s3AccessKey
	}
	if s3SecretKey := getEnv("CAMPUSHUB_S3_SECRET_KEY", ""); s3SecretKey != "" {
		cfg.S3SecretKey = s3SecretKey
	}
	if usePathStyle := getEnv("CAMPUSHUB_S3_USE_PATH_STYLE", ""); usePathStyle != "" {
		cfg.S3UsePathStyle = strings.ToLower(usePathStyle) == "true"
	}
	if baseURL := getEnv("CAMPUSHUB_MEDIA_BASE_URL", ""); baseURL != "" {
		cfg.PublicBaseURL = baseURL
	}
	if timeout := getEnvDuration("CAMPUSHUB_REMOTE_TIMEOUT", 0); timeout > 0 {
		cfg.RemoteTimeout = timeout
	}

	return cfg
}

func loadSessionConfig() SessionConfig {
	return SessionConfig{
		Backend:  getEnv("CAMPUSHUB_SESSION_BACKEND", "sql"),
		RedisURL: getEnv("CAMPUSHUB_REDIS_URL", ""),
	}
}

func loadLoginConfig() LoginConfig {
	return LoginConfig{
		IssuerURL:    getEnv("CAMPUSHUB_OIDC_ISSUER", "https://accounts.google.com"),
		ClientID:     getEnv("CAMPUSHUB_OIDC_CLIENT_ID", ""),
		ClientSecret: getEnv("CAMPUSHUB_OIDC_CLIENT_SECRET", ""),
		RedirectURL:  getEnv("CAMPUSHUB_OIDC_REDIRECT_URL", "http://localhost:8080/auth/callback"),
	}
}

func loadObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		LogLevel:           parseLogLevel(getEnv("CAMPUSHUB_LOG_LEVEL", "info")),
		MetricsEnabled:     getEnvBool("CAMPUSHUB_METRICS_ENABLED", true),
		OTelEnabled:        getEnvBool("CAMPUSHUB_OTEL_ENABLED", false),
		OTelEndpoint:       getEnv("CAMPUSHUB_OTEL_ENDPOINT", "localhost:4317"),
		OTelServiceName:    getEnv("CAMPUSHUB_OTEL_SERVICE_NAME", "campushub"),
		OTelServiceVersion: getEnv("CAMPUSHUB_OTEL_SERVICE_VERSION", "1.0.0"),
		OTelInsecure:       getEnvBool("CAMPUSHUB_OTEL_INSECURE", true),
	}
}

// Validate checks if the configuration is valid. Missing remote
// storage credentials are not an error here; the storage selector
// degrades to local with a warning.
func (c *Config) Validate() error {
	if c.Environment != EnvProduction && c.Environment != EnvDevelopment {
		return fmt.Errorf("invalid environment: %s (must be production or development)", c.Environment)
	}

	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Server.HealthPort == "" {
		return fmt.Errorf("health port is required")
	}
	if c.Server.Port == c.Server.HealthPort {
		return fmt.Errorf("server port and health port must be different")
	}

	switch c.Session.Backend {
	case "sql":
	case "redis":
		if c.Session.RedisURL == "" {
			return fmt.Errorf("redis URL is required for the redis session backend")
		}
	default:
		return fmt.Errorf("invalid session backend: %s (must be sql or redis)", c.Session.Backend)
	}

	if c.Observability.OTelEnabled {
		if c.Observability.OTelEndpoint == "" {
			return fmt.Errorf("OpenTelemetry endpoint is required when OTel is enabled")
		}
		if c.Observability.OTelServiceName == "" {
			return fmt.Errorf("OpenTelemetry service name is required when OTel is enabled")
		}
	}

	return nil
}

// parseLogLevel parses a log level string
func parseLogLevel(level string) observability.LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return observability.DebugLevel
	case "info":
		return observability.InfoLevel
	case "warn", "warning":
		return observability.WarnLevel
	case "error":
		return observability.ErrorLevel
	default:
		return observability.InfoLevel
	}
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
