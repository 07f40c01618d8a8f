package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	redisclient "github.com/richxcame/ride-lifecycle/pkg/redis"
)

type payload struct {
	ID    string  `json:"id"`
	Total float64 `json:"total"`
}

func newManager() (*Manager, redismock.ClientMock) {
	db, mock := redismock.NewClientMock()
	return NewManager(&redisclient.Client{Client: db}), mock
}

func TestManager_SetAndGet(t *testing.T) {
	m, mock := newManager()
	ctx := context.Background()

	mock.ExpectSet("ride:1", `{"id":"1","total":400}`, time.Minute).SetVal("OK")
	require.NoError(t, m.Set(ctx, "ride:1", payload{ID: "1", Total: 400}, time.Minute))

	mock.ExpectGet("ride:1").SetVal(`{"id":"1","total":400}`)
	var got payload
	require.NoError(t, m.Get(ctx, "ride:1", &got))
	assert.Equal(t, payload{ID: "1", Total: 400}, got)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestManager_GetMiss(t *testing.T) {
	m, mock := newManager()
	mock.ExpectGet("ride:missing").RedisNil()

	var got payload
	err := m.Get(context.Background(), "ride:missing", &got)
	assert.ErrorIs(t, err, ErrMiss)
}

func TestManager_GetError(t *testing.T) {
	m, mock := newManager()
	mock.ExpectGet("ride:1").SetErr(errors.New("connection refused"))

	var got payload
	err := m.Get(context.Background(), "ride:1", &got)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrMiss)
}

func TestManager_GetCorrupt(t *testing.T) {
	m, mock := newManager()
	mock.ExpectGet("ride:1").SetVal("not json")

	var got payload
	err := m.Get(context.Background(), "ride:1", &got)
	assert.ErrorContains(t, err, "unmarshal")
}

func TestManager_SetVersioned(t *testing.T) {
	m, mock := newManager()
	ctx := context.Background()
	value := `{"id":"1","version":3}`

	mock.ExpectEval(redisclient.SetIfNewerScript, []string{"ride:1"}, value, int64(3), int64(60000)).SetVal(int64(1))
	written, err := m.SetVersioned(ctx, "ride:1", map[string]interface{}{"id": "1", "version": 3}, 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, written)

	mock.ExpectEval(redisclient.SetIfNewerScript, []string{"ride:1"}, value, int64(3), int64(60000)).SetVal(int64(0))
	written, err = m.SetVersioned(ctx, "ride:1", map[string]interface{}{"id": "1", "version": 3}, 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, written, "an equal or newer cached version wins")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestManager_Delete(t *testing.T) {
	m, mock := newManager()
	mock.ExpectDel("ride:1", "ride:2").SetVal(2)

	require.NoError(t, m.Delete(context.Background(), "ride:1", "ride:2"))
	require.NoError(t, m.Delete(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "ride:abc", Keys.Ride("abc"))
	assert.Equal(t, "route:23.81000,90.41000:23.79000,90.42000", Keys.Route(23.81, 90.41, 23.79, 90.42))
}
