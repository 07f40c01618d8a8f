package rides

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/richxcame/ride-lifecycle/pkg/cache"
	"github.com/richxcame/ride-lifecycle/pkg/common"
	"github.com/richxcame/ride-lifecycle/pkg/geo"
	"github.com/richxcame/ride-lifecycle/pkg/httpclient"
	"github.com/richxcame/ride-lifecycle/pkg/logger"
	"github.com/richxcame/ride-lifecycle/pkg/models"
	"github.com/richxcame/ride-lifecycle/pkg/resilience"
	"github.com/richxcame/ride-lifecycle/pkg/tracing"
)

const routeEstimatePath = "/api/v1/routes/estimate"

// HaversineEstimator estimates straight-line distance at city speed. It is
// used when no routing service is configured.
type HaversineEstimator struct{}

// Estimate implements RouteEstimator
func (HaversineEstimator) Estimate(_ context.Context, from, to models.Location) (Route, error) {
	km := geo.Haversine(from.Latitude, from.Longitude, to.Latitude, to.Longitude)
	return Route{DistanceKm: km, DurationMin: geo.EstimateDuration(km)}, nil
}

type routePoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type routeRequest struct {
	Origin      routePoint `json:"origin"`
	Destination routePoint `json:"destination"`
}

type routeResponse struct {
	DistanceKm  float64 `json:"distance_km"`
	DurationMin float64 `json:"duration_min"`
}

// HTTPRouteEstimator calls the routing service through a circuit breaker
type HTTPRouteEstimator struct {
	client  *httpclient.Client
	breaker *resilience.CircuitBreaker
}

// NewHTTPRouteEstimator creates an estimator for the routing service at baseURL
func NewHTTPRouteEstimator(baseURL string, timeout time.Duration, breaker *resilience.CircuitBreaker) *HTTPRouteEstimator {
	return &HTTPRouteEstimator{
		client:  httpclient.NewClient(baseURL, timeout, httpclient.WithRetry(resilience.FastRetryConfig())),
		breaker: breaker,
	}
}

// Estimate implements RouteEstimator
func (e *HTTPRouteEstimator) Estimate(ctx context.Context, from, to models.Location) (Route, error) {
	req := routeRequest{
		Origin:      routePoint{Latitude: from.Latitude, Longitude: from.Longitude},
		Destination: routePoint{Latitude: to.Latitude, Longitude: to.Longitude},
	}

	var (
		resp      routeResponse
		rejection error
	)
	err := tracing.TraceExternalAPI(ctx, serviceTracer, "routing", "estimate", func(ctx context.Context) error {
		_, err := e.breaker.Execute(ctx, func(ctx context.Context) (interface{}, error) {
			err := e.client.PostJSON(ctx, routeEstimatePath, req, &resp)
			if isClientRejection(err) {
				// the upstream is healthy, it just has no route for us
				rejection = err
				return nil, nil
			}
			return nil, err
		})
		return err
	})
	if err != nil {
		return Route{}, common.NewUnavailableError("routing service unavailable", fmt.Errorf("estimate route: %w", err))
	}
	if rejection != nil {
		logger.DebugContext(ctx, "routing service rejected locations", zap.Error(rejection))
		return Route{}, common.NewInvalidInputError("route could not be estimated between the given locations")
	}

	if math.IsNaN(resp.DistanceKm) || math.IsInf(resp.DistanceKm, 0) || resp.DistanceKm < 0 || resp.DurationMin < 0 {
		return Route{}, common.NewUnavailableError("routing service returned an invalid estimate", nil)
	}
	return Route{
		DistanceKm:  math.Round(resp.DistanceKm*100) / 100,
		DurationMin: int(math.Round(resp.DurationMin)),
	}, nil
}

func isClientRejection(err error) bool {
	var httpErr *httpclient.HTTPError
	if !errors.As(err, &httpErr) {
		return false
	}
	return httpErr.StatusCode >= http.StatusBadRequest && httpErr.StatusCode < http.StatusInternalServerError &&
		httpErr.StatusCode != http.StatusTooManyRequests
}

// CachedRouteEstimator memoizes estimates in Redis. Cache failures fall
// through to the wrapped estimator.
type CachedRouteEstimator struct {
	next  RouteEstimator
	cache *cache.Manager
	ttl   time.Duration
}

// NewCachedRouteEstimator wraps next with a Redis cache
func NewCachedRouteEstimator(next RouteEstimator, manager *cache.Manager, ttl time.Duration) *CachedRouteEstimator {
	return &CachedRouteEstimator{next: next, cache: manager, ttl: ttl}
}

// Estimate implements RouteEstimator
func (c *CachedRouteEstimator) Estimate(ctx context.Context, from, to models.Location) (Route, error) {
	key := cache.Keys.Route(from.Latitude, from.Longitude, to.Latitude, to.Longitude)

	var route Route
	err := c.cache.Get(ctx, key, &route)
	if err == nil {
		return route, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		logger.DebugContext(ctx, "route cache read failed", zap.Error(err))
	}

	route, err = c.next.Estimate(ctx, from, to)
	if err != nil {
		return Route{}, err
	}
	if err := c.cache.Set(ctx, key, route, c.ttl); err != nil {
		logger.DebugContext(ctx, "route cache write failed", zap.Error(err))
	}
	return route, nil
}
