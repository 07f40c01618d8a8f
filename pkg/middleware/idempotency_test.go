package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	mu   sync.Mutex
	data map[string]string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{data: make(map[string]string)}
}

func (m *memoryStore) SetWithExpiration(_ context.Context, key string, value interface{}, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch v := value.(type) {
	case []byte:
		m.data[key] = string(v)
	case string:
		m.data[key] = v
	}
	return nil
}

// SetIfNewer is not used by the middleware; it always writes.
func (m *memoryStore) SetIfNewer(ctx context.Context, key, value string, _ int64, ttl time.Duration) (bool, error) {
	return true, m.SetWithExpiration(ctx, key, value, ttl)
}

func (m *memoryStore) GetString(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return "", goredis.Nil
	}
	return v, nil
}

func (m *memoryStore) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func (m *memoryStore) Ping(context.Context) error { return nil }
func (m *memoryStore) Close() error               { return nil }

func setupIdempotencyRouter(store *memoryStore, calls *int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Idempotency(store))
	r.POST("/rides", func(c *gin.Context) {
		*calls++
		c.JSON(http.StatusCreated, gin.H{"ride": *calls})
	})
	return r
}

func postRide(r *gin.Engine, key, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/rides", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set(IdempotencyKeyHeader, key)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestIdempotency_ReplaysSameRequest(t *testing.T) {
	calls := 0
	r := setupIdempotencyRouter(newMemoryStore(), &calls)

	first := postRide(r, "key-1", `{"ride_type":"economy"}`)
	require.Equal(t, http.StatusCreated, first.Code)

	second := postRide(r, "key-1", `{"ride_type":"economy"}`)
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, "true", second.Header().Get("Idempotent-Replayed"))
	assert.JSONEq(t, first.Body.String(), second.Body.String())
	assert.Equal(t, 1, calls)
}

func TestIdempotency_RejectsDifferentBody(t *testing.T) {
	calls := 0
	r := setupIdempotencyRouter(newMemoryStore(), &calls)

	postRide(r, "key-1", `{"ride_type":"economy"}`)
	w := postRide(r, "key-1", `{"ride_type":"luxury"}`)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, 1, calls)
}

func TestIdempotency_NoKeyAlwaysExecutes(t *testing.T) {
	calls := 0
	r := setupIdempotencyRouter(newMemoryStore(), &calls)

	postRide(r, "", `{}`)
	postRide(r, "", `{}`)

	assert.Equal(t, 2, calls)
}
