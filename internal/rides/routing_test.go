package rides

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richxcame/ride-lifecycle/pkg/cache"
	"github.com/richxcame/ride-lifecycle/pkg/common"
	"github.com/richxcame/ride-lifecycle/pkg/models"
	redisclient "github.com/richxcame/ride-lifecycle/pkg/redis"
	"github.com/richxcame/ride-lifecycle/pkg/resilience"
)

var (
	dhakaA = models.Location{Address: "A", Longitude: 90.41, Latitude: 23.81}
	dhakaB = models.Location{Address: "B", Longitude: 90.42, Latitude: 23.79}
)

func newRoutingServer(t *testing.T, hits *int32, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPRouteEstimator_Success(t *testing.T) {
	var hits int32
	srv := newRoutingServer(t, &hits, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, routeEstimatePath, r.URL.Path)

		var req routeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, 23.81, req.Origin.Latitude)
		assert.Equal(t, 90.42, req.Destination.Longitude)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"distance_km": 5.234, "duration_min": 12.6}`))
	})

	estimator := NewHTTPRouteEstimator(srv.URL, time.Second, resilience.NewCircuitBreaker(resilience.Settings{Name: "routing-ok"}))
	route, err := estimator.Estimate(context.Background(), dhakaA, dhakaB)
	require.NoError(t, err)
	assert.Equal(t, 5.23, route.DistanceKm)
	assert.Equal(t, 13, route.DurationMin)
}

func TestHTTPRouteEstimator_RejectedLocationsAreInvalidInput(t *testing.T) {
	var hits int32
	srv := newRoutingServer(t, &hits, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	})

	breaker := resilience.NewCircuitBreaker(resilience.Settings{Name: "routing-4xx", FailureThreshold: 1, Timeout: time.Minute})
	estimator := NewHTTPRouteEstimator(srv.URL, time.Second, breaker)

	for i := 0; i < 3; i++ {
		_, err := estimator.Estimate(context.Background(), dhakaA, dhakaB)
		require.Error(t, err)
		assert.True(t, errors.Is(err, common.ErrInvalidInput))
	}
	assert.True(t, breaker.Allow(), "client rejections must not trip the breaker")
	assert.Equal(t, int32(3), atomic.LoadInt32(&hits))
}

func TestHTTPRouteEstimator_FailuresOpenTheBreaker(t *testing.T) {
	var hits int32
	srv := newRoutingServer(t, &hits, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	breaker := resilience.NewCircuitBreaker(resilience.Settings{Name: "routing-5xx", FailureThreshold: 1, Timeout: time.Minute})
	estimator := NewHTTPRouteEstimator(srv.URL, time.Second, breaker)

	_, err := estimator.Estimate(context.Background(), dhakaA, dhakaB)
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrUnavailable))
	served := atomic.LoadInt32(&hits)
	assert.Equal(t, int32(3), served, "5xx is retried within the breaker call")

	_, err = estimator.Estimate(context.Background(), dhakaA, dhakaB)
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrUnavailable))
	assert.True(t, errors.Is(err, resilience.ErrCircuitOpen))
	assert.Equal(t, served, atomic.LoadInt32(&hits))
}

func TestHTTPRouteEstimator_InvalidResponse(t *testing.T) {
	var hits int32
	srv := newRoutingServer(t, &hits, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"distance_km": -1, "duration_min": 3}`))
	})

	estimator := NewHTTPRouteEstimator(srv.URL, time.Second, nil)
	_, err := estimator.Estimate(context.Background(), dhakaA, dhakaB)
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrUnavailable))
}

func TestHaversineEstimator(t *testing.T) {
	route, err := HaversineEstimator{}.Estimate(context.Background(), dhakaA, dhakaB)
	require.NoError(t, err)
	assert.InDelta(t, 2.45, route.DistanceKm, 0.1)
	assert.Equal(t, 4, route.DurationMin)

	route, err = HaversineEstimator{}.Estimate(context.Background(), dhakaA, dhakaA)
	require.NoError(t, err)
	assert.Zero(t, route.DistanceKm)
}

type countingEstimator struct {
	calls int
	route Route
}

func (c *countingEstimator) Estimate(context.Context, models.Location, models.Location) (Route, error) {
	c.calls++
	return c.route, nil
}

func TestCachedRouteEstimator(t *testing.T) {
	db, mock := redismock.NewClientMock()
	manager := cache.NewManager(&redisclient.Client{Client: db})
	next := &countingEstimator{route: Route{DistanceKm: 5, DurationMin: 12}}
	estimator := NewCachedRouteEstimator(next, manager, time.Hour)

	key := cache.Keys.Route(dhakaA.Latitude, dhakaA.Longitude, dhakaB.Latitude, dhakaB.Longitude)
	cached := `{"distance_km":5,"duration_min":12}`

	mock.ExpectGet(key).RedisNil()
	mock.ExpectSet(key, cached, time.Hour).SetVal("OK")
	mock.ExpectGet(key).SetVal(cached)

	first, err := estimator.Estimate(context.Background(), dhakaA, dhakaB)
	require.NoError(t, err)
	second, err := estimator.Estimate(context.Background(), dhakaA, dhakaB)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, next.calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCachedRouteEstimator_RedisDownFallsThrough(t *testing.T) {
	db, mock := redismock.NewClientMock()
	manager := cache.NewManager(&redisclient.Client{Client: db})
	next := &countingEstimator{route: Route{DistanceKm: 5, DurationMin: 12}}
	estimator := NewCachedRouteEstimator(next, manager, time.Hour)

	key := cache.Keys.Route(dhakaA.Latitude, dhakaA.Longitude, dhakaB.Latitude, dhakaB.Longitude)
	mock.ExpectGet(key).SetErr(errors.New("connection refused"))
	mock.ExpectSet(key, `{"distance_km":5,"duration_min":12}`, time.Hour).SetErr(errors.New("connection refused"))

	route, err := estimator.Estimate(context.Background(), dhakaA, dhakaB)
	require.NoError(t, err)
	assert.Equal(t, 5.0, route.DistanceKm)
	assert.Equal(t, 1, next.calls)
}
