package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Queue    QueueConfig
	Quota    QuotaConfig
	Worker   WorkerConfig
	Backend  BackendConfig
	Auth     AuthConfig
	Metrics  MetricsConfig
	Tracing  TracingConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            int
	Host            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	SurfaceRPS      int
	SurfaceBurst    int
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	MaxConns int
	MinConns int
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// QueueConfig holds message queue configuration
type QueueConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Vhost    string
}

// QuotaConfig holds rate limiting configuration. Tier limits are requests
// per window; the window is shared by all tiers.
type QuotaConfig struct {
	Window         time.Duration
	FreeLimit      int
	BasicLimit     int
	ProLimit       int
	WhitelistMode  bool
	MaxPendingJobs int
}

// WorkerConfig holds background worker configuration
type WorkerConfig struct {
	Count      int
	JobTimeout time.Duration
}

// BackendConfig holds translation backend configuration
type BackendConfig struct {
	URL     string
	APIKey  string
	Model   string
	Timeout time.Duration
	RPS     int
	Burst   int
}

// AuthConfig holds admin authentication configuration
type AuthConfig struct {
	JWTSecret string
}

// MetricsConfig holds metrics server configuration
type MetricsConfig struct {
	Port int
}

// TracingConfig holds tracing configuration
type TracingConfig struct {
	Enabled        bool
	JaegerEndpoint string
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string
	Output string
}

// Load reads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")
	viper.AutomaticEnv()

	// Set defaults
	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	// Server defaults
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.readTimeout", "30s")
	viper.SetDefault("server.writeTimeout", "30s")
	viper.SetDefault("server.shutdownTimeout", "10s")
	viper.SetDefault("server.surfaceRPS", 20)
	viper.SetDefault("server.surfaceBurst", 40)

	// Database defaults
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "postgres")
	viper.SetDefault("database.dbname", "lingogate")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("database.maxConns", 25)
	viper.SetDefault("database.minConns", 5)

	// Redis defaults
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)

	// Queue defaults
	viper.SetDefault("queue.host", "localhost")
	viper.SetDefault("queue.port", 5672)
	viper.SetDefault("queue.user", "guest")
	viper.SetDefault("queue.password", "guest")
	viper.SetDefault("queue.vhost", "/")

	// Quota defaults
	viper.SetDefault("quota.window", "1h")
	viper.SetDefault("quota.freeLimit", 14)
	viper.SetDefault("quota.basicLimit", 50)
	viper.SetDefault("quota.proLimit", 200)
	viper.SetDefault("quota.whitelistMode", false)
	viper.SetDefault("quota.maxPendingJobs", 100)

	// Worker defaults. Count above 1 relaxes completion order to
	// roughly-FIFO; job claims stay safe either way.
	viper.SetDefault("worker.count", 1)
	viper.SetDefault("worker.jobTimeout", "60s")

	// Backend defaults
	viper.SetDefault("backend.url", "https://generativelanguage.googleapis.com/v1beta/openai/chat/completions")
	viper.SetDefault("backend.apiKey", "")
	viper.SetDefault("backend.model", "gemini-2.0-flash")
	viper.SetDefault("backend.timeout", "45s")
	viper.SetDefault("backend.rps", 2)
	viper.SetDefault("backend.burst", 4)

	// Auth defaults
	viper.SetDefault("auth.jwtSecret", "")

	// Metrics defaults
	viper.SetDefault("metrics.port", 9091)

	// Tracing defaults
	viper.SetDefault("tracing.enabled", false)
	viper.SetDefault("tracing.jaegerEndpoint", "http://localhost:14268/api/traces")

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.output", "stdout")
}
