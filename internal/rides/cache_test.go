package rides

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richxcame/ride-lifecycle/pkg/cache"
	"github.com/richxcame/ride-lifecycle/pkg/models"
	redisclient "github.com/richxcame/ride-lifecycle/pkg/redis"
)

func cachedRide(version int64) *models.Ride {
	return &models.Ride{
		ID:       uuid.MustParse("44444444-4444-4444-4444-444444444444"),
		RiderID:  uuid.MustParse("55555555-5555-5555-5555-555555555555"),
		Status:   models.RideStatusRequested,
		RideType: models.RideTypeEconomy,
		Fare:     models.Fare{BaseFare: 150, TotalFare: 400, Currency: "BDT"},
		Version:  version,
	}
}

func TestRedisRideCache_ReadThrough(t *testing.T) {
	db, mock := redismock.NewClientMock()
	rc := NewRedisRideCache(cache.NewManager(&redisclient.Client{Client: db}), time.Minute)

	ride := cachedRide(1)
	payload, err := json.Marshal(ride)
	require.NoError(t, err)
	key := cache.Keys.Ride(ride.ID.String())

	mock.ExpectGet(key).RedisNil()
	mock.ExpectEval(redisclient.SetIfNewerScript, []string{key}, string(payload), int64(1), int64(60000)).SetVal(int64(1))
	mock.ExpectGet(key).SetVal(string(payload))

	_, ok := rc.Get(context.Background(), ride.ID)
	assert.False(t, ok)

	rc.Put(context.Background(), ride)

	got, ok := rc.Get(context.Background(), ride.ID)
	require.True(t, ok)
	assert.Equal(t, ride.ID, got.ID)
	assert.Equal(t, 400.0, got.Fare.TotalFare)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisRideCache_OlderSnapshotIsNotWritten(t *testing.T) {
	db, mock := redismock.NewClientMock()
	rc := NewRedisRideCache(cache.NewManager(&redisclient.Client{Client: db}), time.Minute)

	stale := cachedRide(1)
	payload, err := json.Marshal(stale)
	require.NoError(t, err)
	key := cache.Keys.Ride(stale.ID.String())

	mock.ExpectEval(redisclient.SetIfNewerScript, []string{key}, string(payload), int64(1), int64(60000)).SetVal(int64(0))

	rc.Put(context.Background(), stale)
	assert.NoError(t, mock.ExpectationsWereMet(), "a refused write must not fall back to a delete")
}

func TestRedisRideCache_FailedWriteDropsKey(t *testing.T) {
	db, mock := redismock.NewClientMock()
	rc := NewRedisRideCache(cache.NewManager(&redisclient.Client{Client: db}), time.Minute)

	ride := cachedRide(2)
	payload, err := json.Marshal(ride)
	require.NoError(t, err)
	key := cache.Keys.Ride(ride.ID.String())

	mock.ExpectEval(redisclient.SetIfNewerScript, []string{key}, string(payload), int64(2), int64(60000)).SetErr(errors.New("READONLY"))
	mock.ExpectDel(key).SetVal(1)

	rc.Put(context.Background(), ride)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisRideCache_ErrorsAreMisses(t *testing.T) {
	db, mock := redismock.NewClientMock()
	rc := NewRedisRideCache(cache.NewManager(&redisclient.Client{Client: db}), time.Minute)
	id := uuid.New()

	mock.ExpectGet(cache.Keys.Ride(id.String())).SetErr(errors.New("connection refused"))

	_, ok := rc.Get(context.Background(), id)
	assert.False(t, ok)
}
