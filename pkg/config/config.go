package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Timeout defaults and upper bounds
const (
	DefaultRequestTimeoutSeconds    = 10
	DefaultRideOperationTimeoutMs   = 5000
	DefaultRoutingTimeoutMs         = 2000
	DefaultDatabaseStatementTimeout = 5
	DefaultRideLockTTLMs            = 10000

	MaxRequestTimeoutSeconds  = 120
	MaxRideOperationTimeoutMs = 60000
	MaxRoutingTimeoutMs       = 30000
)

// Lock backends for per-ride serialization
const (
	LockBackendMemory = "memory"
	LockBackendRedis  = "redis"
)

// Config holds all application configuration
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	NATS       NATSConfig
	Routing    RoutingConfig
	Rides      RidesConfig
	Resilience ResilienceConfig
	Tracing    TracingConfig
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port                  string
	Environment           string
	ServiceName           string
	ReadTimeout           int
	WriteTimeout          int
	RequestTimeoutSeconds int
	CORSOrigins           string // Comma-separated list of allowed origins
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host                    string
	Port                    string
	User                    string
	Password                string
	DBName                  string
	SSLMode                 string
	MaxConns                int
	MinConns                int
	StatementTimeoutSeconds int
	MigrationsPath          string
	AutoMigrate             bool
	HistoryURL              string // read-side connection for transition history, defaults to URL()
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret         string
	InternalAPIKey string // shared secret for dispatcher-to-service calls
}

// NATSConfig holds event bus configuration
type NATSConfig struct {
	Enabled    bool
	URL        string
	StreamName string
}

// RoutingConfig points at the external distance/duration estimator
type RoutingConfig struct {
	ServiceURL string
	TimeoutMs  int
}

// RidesConfig tunes the ride lifecycle service
type RidesConfig struct {
	OperationTimeoutMs  int
	LockBackend         string
	LockTTLMs           int
	CacheEnabled        bool
	CacheTTLSeconds     int
	Currency            string
	CancellationFeeRate float64
}

// TracingConfig toggles OpenTelemetry export
type TracingConfig struct {
	Enabled      bool
	OTLPEndpoint string
	SampleRate   float64
}

// ResilienceConfig groups runtime resilience controls
type ResilienceConfig struct {
	CircuitBreaker CircuitBreakerConfig
}

// CircuitBreakerConfig captures default and per-service breaker tuning
type CircuitBreakerConfig struct {
	Enabled          bool
	FailureThreshold int
	SuccessThreshold int
	TimeoutSeconds   int
	IntervalSeconds  int
	ServiceOverrides map[string]CircuitBreakerSettings
}

// CircuitBreakerSettings overrides defaults for a specific upstream service
type CircuitBreakerSettings struct {
	FailureThreshold int `json:"failure_threshold"`
	SuccessThreshold int `json:"success_threshold"`
	TimeoutSeconds   int `json:"timeout_seconds"`
	IntervalSeconds  int `json:"interval_seconds"`
}

// Load loads configuration from environment variables
func Load(serviceName string) (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:                  getEnv("PORT", "8080"),
			Environment:           getEnv("ENVIRONMENT", "development"),
			ServiceName:           serviceName,
			ReadTimeout:           getEnvAsInt("READ_TIMEOUT", 10),
			WriteTimeout:          getEnvAsInt("WRITE_TIMEOUT", 10),
			RequestTimeoutSeconds: getEnvAsInt("REQUEST_TIMEOUT_SECONDS", DefaultRequestTimeoutSeconds),
			CORSOrigins:           getEnv("CORS_ORIGINS", "http://localhost:3000"),
		},
		Database: DatabaseConfig{
			Host:                    getEnv("DB_HOST", "localhost"),
			Port:                    getEnv("DB_PORT", "5432"),
			User:                    getEnv("DB_USER", "postgres"),
			Password:                getEnv("DB_PASSWORD", "postgres"),
			DBName:                  getEnv("DB_NAME", "ridelifecycle"),
			SSLMode:                 getEnv("DB_SSLMODE", "disable"),
			MaxConns:                getEnvAsInt("DB_MAX_CONNS", 25),
			MinConns:                getEnvAsInt("DB_MIN_CONNS", 5),
			StatementTimeoutSeconds: getEnvAsInt("DB_STATEMENT_TIMEOUT", DefaultDatabaseStatementTimeout),
			MigrationsPath:          getEnv("DB_MIGRATIONS_PATH", "file://db/migrations"),
			AutoMigrate:             getEnvAsBool("DB_AUTO_MIGRATE", false),
			HistoryURL:              getEnv("HISTORY_DATABASE_URL", ""),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret:         getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
			InternalAPIKey: getEnv("INTERNAL_API_KEY", ""),
		},
		NATS: NATSConfig{
			Enabled:    getEnvAsBool("NATS_ENABLED", false),
			URL:        getEnv("NATS_URL", "nats://127.0.0.1:4222"),
			StreamName: getEnv("NATS_STREAM", "RIDES"),
		},
		Routing: RoutingConfig{
			ServiceURL: getEnv("ROUTING_SERVICE_URL", ""),
			TimeoutMs:  getEnvAsInt("ROUTING_TIMEOUT_MS", DefaultRoutingTimeoutMs),
		},
		Rides: RidesConfig{
			OperationTimeoutMs:  getEnvAsInt("RIDE_OPERATION_TIMEOUT_MS", DefaultRideOperationTimeoutMs),
			LockBackend:         strings.ToLower(getEnv("RIDE_LOCK_BACKEND", LockBackendMemory)),
			LockTTLMs:           getEnvAsInt("RIDE_LOCK_TTL_MS", DefaultRideLockTTLMs),
			CacheEnabled:        getEnvAsBool("RIDE_CACHE_ENABLED", false),
			CacheTTLSeconds:     getEnvAsInt("RIDE_CACHE_TTL_SECONDS", 30),
			Currency:            strings.ToUpper(getEnv("FARE_CURRENCY", "BDT")),
			CancellationFeeRate: getEnvAsFloat("CANCELLATION_FEE_RATE", 1.0),
		},
		Tracing: TracingConfig{
			Enabled:      getEnvAsBool("OTEL_ENABLED", false),
			OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			SampleRate:   getEnvAsFloat("OTEL_TRACE_SAMPLE_RATE", 0),
		},
		Resilience: ResilienceConfig{
			CircuitBreaker: CircuitBreakerConfig{
				Enabled:          getEnvAsBool("CB_ENABLED", false),
				FailureThreshold: getEnvAsInt("CB_FAILURE_THRESHOLD", 5),
				SuccessThreshold: getEnvAsInt("CB_SUCCESS_THRESHOLD", 1),
				TimeoutSeconds:   getEnvAsInt("CB_TIMEOUT_SECONDS", 30),
				IntervalSeconds:  getEnvAsInt("CB_INTERVAL_SECONDS", 60),
			},
		},
	}

	if breakerOverrides := getEnv("CB_SERVICE_OVERRIDES", ""); breakerOverrides != "" {
		var serviceConfig map[string]CircuitBreakerSettings
		if err := json.Unmarshal([]byte(breakerOverrides), &serviceConfig); err != nil {
			return nil, fmt.Errorf("invalid CB_SERVICE_OVERRIDES value: %w", err)
		}
		cfg.Resilience.CircuitBreaker.ServiceOverrides = serviceConfig
	}

	if cfg.Resilience.CircuitBreaker.TimeoutSeconds <= 0 {
		cfg.Resilience.CircuitBreaker.TimeoutSeconds = 30
	}

	if cfg.Resilience.CircuitBreaker.IntervalSeconds <= 0 {
		cfg.Resilience.CircuitBreaker.IntervalSeconds = 60
	}

	if cfg.Resilience.CircuitBreaker.FailureThreshold <= 0 {
		cfg.Resilience.CircuitBreaker.FailureThreshold = 5
	}

	if cfg.Resilience.CircuitBreaker.SuccessThreshold <= 0 {
		cfg.Resilience.CircuitBreaker.SuccessThreshold = 1
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if err := checkRange("REQUEST_TIMEOUT_SECONDS", c.Server.RequestTimeoutSeconds, 1, MaxRequestTimeoutSeconds); err != nil {
		return err
	}
	if err := checkRange("RIDE_OPERATION_TIMEOUT_MS", c.Rides.OperationTimeoutMs, 1, MaxRideOperationTimeoutMs); err != nil {
		return err
	}
	if err := checkRange("ROUTING_TIMEOUT_MS", c.Routing.TimeoutMs, 1, MaxRoutingTimeoutMs); err != nil {
		return err
	}
	if c.Rides.LockTTLMs <= 0 {
		return fmt.Errorf("RIDE_LOCK_TTL_MS must be positive, got %d", c.Rides.LockTTLMs)
	}
	if c.Rides.LockBackend != LockBackendMemory && c.Rides.LockBackend != LockBackendRedis {
		return fmt.Errorf("RIDE_LOCK_BACKEND must be %q or %q, got %q", LockBackendMemory, LockBackendRedis, c.Rides.LockBackend)
	}
	if c.Rides.CancellationFeeRate < 0 {
		return fmt.Errorf("CANCELLATION_FEE_RATE must not be negative, got %v", c.Rides.CancellationFeeRate)
	}
	if len(c.Rides.Currency) != 3 {
		return fmt.Errorf("FARE_CURRENCY must be a 3-letter code, got %q", c.Rides.Currency)
	}
	return nil
}

func checkRange(key string, value, min, max int) error {
	if value < min || value > max {
		return fmt.Errorf("%s must be between %d and %d, got %d", key, min, max, value)
	}
	return nil
}

// SettingsFor returns effective breaker settings for a specific upstream service name
func (c CircuitBreakerConfig) SettingsFor(service string) CircuitBreakerSettings {
	settings := CircuitBreakerSettings{
		FailureThreshold: c.FailureThreshold,
		SuccessThreshold: c.SuccessThreshold,
		TimeoutSeconds:   c.TimeoutSeconds,
		IntervalSeconds:  c.IntervalSeconds,
	}

	if override, ok := c.ServiceOverrides[service]; ok {
		if override.FailureThreshold > 0 {
			settings.FailureThreshold = override.FailureThreshold
		}
		if override.SuccessThreshold > 0 {
			settings.SuccessThreshold = override.SuccessThreshold
		}
		if override.TimeoutSeconds > 0 {
			settings.TimeoutSeconds = override.TimeoutSeconds
		}
		if override.IntervalSeconds > 0 {
			settings.IntervalSeconds = override.IntervalSeconds
		}
	}

	if settings.SuccessThreshold <= 0 {
		settings.SuccessThreshold = 1
	}
	if settings.FailureThreshold <= 0 {
		settings.FailureThreshold = 5
	}
	if settings.TimeoutSeconds <= 0 {
		settings.TimeoutSeconds = 30
	}
	if settings.IntervalSeconds <= 0 {
		settings.IntervalSeconds = 60
	}

	return settings
}

// DSN returns the database connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// URL returns the database connection string in URL form, as golang-migrate
// and lib/pq expect it.
func (c *DatabaseConfig) URL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     c.Host + ":" + c.Port,
		Path:     c.DBName,
		RawQuery: "sslmode=" + url.QueryEscape(c.SSLMode),
	}
	return u.String()
}

// HistoryDSN returns the connection string for the history read side.
func (c *DatabaseConfig) HistoryDSN() string {
	if c.HistoryURL != "" {
		return c.HistoryURL
	}
	return c.URL()
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// OperationTimeout bounds every ride command end to end.
func (c RidesConfig) OperationTimeout() time.Duration {
	return time.Duration(c.OperationTimeoutMs) * time.Millisecond
}

// LockTTL is how long a distributed ride lock survives a crashed holder.
func (c RidesConfig) LockTTL() time.Duration {
	return time.Duration(c.LockTTLMs) * time.Millisecond
}

// CacheTTL is the lifetime of cached ride snapshots.
func (c RidesConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// Timeout returns the routing collaborator timeout.
func (c RoutingConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

// RequestTimeout returns the HTTP handler timeout.
func (c ServerConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}
