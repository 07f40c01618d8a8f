package tracing

import (
	"context"
	"errors"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

func withRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })
	return recorder
}

func TestInitTracer_Disabled(t *testing.T) {
	tp, err := InitTracer(Config{Enabled: false}, zap.NewNop())
	require.NoError(t, err)
	assert.Nil(t, tp)
	assert.NoError(t, Shutdown(context.Background()))
}

func TestTraceDBQuery_RecordsError(t *testing.T) {
	recorder := withRecorder(t)

	err := TraceDBQuery(context.Background(), "test", "update_ride", "UPDATE rides", func(context.Context) error {
		return errors.New("boom")
	})
	require.Error(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "db.update_ride", spans[0].Name())
	assert.Equal(t, codes.Error, spans[0].Status().Code)
}

func TestTraceRedisCommand_MissIsNotAnError(t *testing.T) {
	recorder := withRecorder(t)

	err := TraceRedisCommand(context.Background(), "test", "GET", "ride:1", func(context.Context) error {
		return redis.Nil
	})
	assert.ErrorIs(t, err, redis.Nil)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Ok, spans[0].Status().Code)
}

func TestRideAttributes_SkipsEmpty(t *testing.T) {
	attrs := RideAttributes("ride-1", "", "driver")
	require.Len(t, attrs, 2)
	assert.Equal(t, RideIDKey, attrs[0].Key)
	assert.Equal(t, ActorRoleKey, attrs[1].Key)
}

func TestSampler_ByEnvironment(t *testing.T) {
	assert.Contains(t, Sampler(Config{Environment: "production"}).Description(), "0.1")
	assert.Contains(t, Sampler(Config{SampleRate: 0.25}).Description(), "0.25")
}
