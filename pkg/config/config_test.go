package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	os.Clearenv()

	cfg, err := Load("rides-service")
	require.NoError(t, err)

	assert.Equal(t, "rides-service", cfg.Server.ServiceName)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, DefaultRequestTimeoutSeconds*time.Second, cfg.Server.RequestTimeout())
	assert.Equal(t, DefaultRideOperationTimeoutMs*time.Millisecond, cfg.Rides.OperationTimeout())
	assert.Equal(t, DefaultRoutingTimeoutMs*time.Millisecond, cfg.Routing.Timeout())
	assert.Equal(t, LockBackendMemory, cfg.Rides.LockBackend)
	assert.Equal(t, "BDT", cfg.Rides.Currency)
	assert.Equal(t, 1.0, cfg.Rides.CancellationFeeRate)
	assert.False(t, cfg.NATS.Enabled)
	assert.False(t, cfg.Rides.CacheEnabled)
}

func TestLoadCustomValues(t *testing.T) {
	os.Clearenv()
	t.Setenv("RIDE_OPERATION_TIMEOUT_MS", "750")
	t.Setenv("RIDE_LOCK_BACKEND", "Redis")
	t.Setenv("RIDE_LOCK_TTL_MS", "3000")
	t.Setenv("FARE_CURRENCY", "usd")
	t.Setenv("CANCELLATION_FEE_RATE", "0.5")
	t.Setenv("NATS_ENABLED", "true")

	cfg, err := Load("rides-service")
	require.NoError(t, err)

	assert.Equal(t, 750*time.Millisecond, cfg.Rides.OperationTimeout())
	assert.Equal(t, LockBackendRedis, cfg.Rides.LockBackend)
	assert.Equal(t, 3*time.Second, cfg.Rides.LockTTL())
	assert.Equal(t, "USD", cfg.Rides.Currency)
	assert.Equal(t, 0.5, cfg.Rides.CancellationFeeRate)
	assert.True(t, cfg.NATS.Enabled)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{name: "operation timeout above maximum", key: "RIDE_OPERATION_TIMEOUT_MS", val: "999999"},
		{name: "request timeout zero", key: "REQUEST_TIMEOUT_SECONDS", val: "0"},
		{name: "routing timeout above maximum", key: "ROUTING_TIMEOUT_MS", val: "60001"},
		{name: "unknown lock backend", key: "RIDE_LOCK_BACKEND", val: "etcd"},
		{name: "negative fee rate", key: "CANCELLATION_FEE_RATE", val: "-1"},
		{name: "bad currency", key: "FARE_CURRENCY", val: "TAKA"},
		{name: "malformed breaker overrides", key: "CB_SERVICE_OVERRIDES", val: "{not json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Clearenv()
			t.Setenv(tt.key, tt.val)

			_, err := Load("rides-service")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestCircuitBreakerSettingsFor(t *testing.T) {
	os.Clearenv()
	t.Setenv("CB_SERVICE_OVERRIDES", `{"routing-service":{"failure_threshold":2,"timeout_seconds":5}}`)

	cfg, err := Load("rides-service")
	require.NoError(t, err)

	routing := cfg.Resilience.CircuitBreaker.SettingsFor("routing-service")
	assert.Equal(t, 2, routing.FailureThreshold)
	assert.Equal(t, 5, routing.TimeoutSeconds)
	assert.Equal(t, 1, routing.SuccessThreshold)
	assert.Equal(t, 60, routing.IntervalSeconds)

	other := cfg.Resilience.CircuitBreaker.SettingsFor("unknown")
	assert.Equal(t, 5, other.FailureThreshold)
}

func TestDatabaseURLs(t *testing.T) {
	db := DatabaseConfig{Host: "db", Port: "5432", User: "rides", Password: "p@ss", DBName: "rides", SSLMode: "disable"}

	assert.Equal(t, "postgres://rides:p%40ss@db:5432/rides?sslmode=disable", db.URL())
	assert.Equal(t, db.URL(), db.HistoryDSN())

	db.HistoryURL = "postgres://reader@replica:5432/rides"
	assert.Equal(t, "postgres://reader@replica:5432/rides", db.HistoryDSN())
}
