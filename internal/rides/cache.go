package rides

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/richxcame/ride-lifecycle/pkg/cache"
	"github.com/richxcame/ride-lifecycle/pkg/logger"
	"github.com/richxcame/ride-lifecycle/pkg/models"
)

// redisRideCache stores ride snapshots in Redis. Writes are versioned so a
// reader that loaded an older row can never replace a newer snapshot. Every
// read error is treated as a miss so the database stays the source of truth.
type redisRideCache struct {
	manager *cache.Manager
	ttl     time.Duration
}

// NewRedisRideCache creates a ride cache on top of the cache manager
func NewRedisRideCache(manager *cache.Manager, ttl time.Duration) RideCache {
	return &redisRideCache{manager: manager, ttl: ttl}
}

func (c *redisRideCache) Get(ctx context.Context, id uuid.UUID) (*models.Ride, bool) {
	var ride models.Ride
	if err := c.manager.Get(ctx, cache.Keys.Ride(id.String()), &ride); err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			logger.WarnContext(ctx, "ride cache read failed", zap.String("ride_id", id.String()), zap.Error(err))
		}
		return nil, false
	}
	return &ride, true
}

// Put drops the key when the versioned write fails, so a snapshot older
// than ride is never left behind.
func (c *redisRideCache) Put(ctx context.Context, ride *models.Ride) {
	key := cache.Keys.Ride(ride.ID.String())
	written, err := c.manager.SetVersioned(ctx, key, ride, ride.Version, c.ttl)
	if err == nil {
		if !written {
			logger.DebugContext(ctx, "newer ride snapshot already cached",
				zap.String("ride_id", ride.ID.String()), zap.Int64("version", ride.Version))
		}
		return
	}

	logger.WarnContext(ctx, "ride cache write failed", zap.String("ride_id", ride.ID.String()), zap.Error(err))
	if err := c.manager.Delete(ctx, key); err != nil {
		logger.WarnContext(ctx, "ride cache invalidation failed", zap.String("ride_id", ride.ID.String()), zap.Error(err))
	}
}

type noopCache struct{}

func (noopCache) Get(context.Context, uuid.UUID) (*models.Ride, bool) { return nil, false }
func (noopCache) Put(context.Context, *models.Ride)                   {}
