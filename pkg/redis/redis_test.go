package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_SetIfNewer(t *testing.T) {
	db, mock := redismock.NewClientMock()
	client := &Client{Client: db}
	ctx := context.Background()

	mock.ExpectEval(SetIfNewerScript, []string{"ride:1"}, `{"version":2}`, int64(2), int64(30000)).SetVal(int64(1))
	written, err := client.SetIfNewer(ctx, "ride:1", `{"version":2}`, 2, 30*time.Second)
	require.NoError(t, err)
	assert.True(t, written)

	mock.ExpectEval(SetIfNewerScript, []string{"ride:1"}, `{"version":1}`, int64(1), int64(30000)).SetVal(int64(0))
	written, err = client.SetIfNewer(ctx, "ride:1", `{"version":1}`, 1, 30*time.Second)
	require.NoError(t, err)
	assert.False(t, written)

	mock.ExpectEval(SetIfNewerScript, []string{"ride:1"}, `{"version":3}`, int64(3), int64(30000)).SetErr(errors.New("connection refused"))
	_, err = client.SetIfNewer(ctx, "ride:1", `{"version":3}`, 3, 30*time.Second)
	assert.Error(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}
