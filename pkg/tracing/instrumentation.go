package tracing

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Database span attributes
const (
	DBSystemKey    = attribute.Key("db.system")
	DBStatementKey = attribute.Key("db.statement")
	DBOperationKey = attribute.Key("db.operation")
)

// Redis span attributes
const (
	RedisCommandKey = attribute.Key("redis.command")
	RedisKeyKey     = attribute.Key("redis.key")
)

// Ride span attributes
const (
	RideIDKey     = attribute.Key("ride.id")
	RideStatusKey = attribute.Key("ride.status")
	RideTypeKey   = attribute.Key("ride.type")
	ActorIDKey    = attribute.Key("actor.id")
	ActorRoleKey  = attribute.Key("actor.role")
	DriverIDKey   = attribute.Key("driver.id")
	FareAmountKey = attribute.Key("fare.amount")
	DistanceKey   = attribute.Key("distance.km")
	EmergencyKey  = attribute.Key("cancellation.emergency")
)

// TraceDBQuery wraps a database call in a client span
func TraceDBQuery(ctx context.Context, tracerName, operation, query string, fn func(context.Context) error) error {
	ctx, span := StartSpan(ctx, tracerName, fmt.Sprintf("db.%s", operation),
		trace.WithSpanKind(trace.SpanKindClient),
	)
	defer span.End()

	span.SetAttributes(
		DBSystemKey.String("postgresql"),
		DBOperationKey.String(operation),
		DBStatementKey.String(query),
	)

	return finish(span, fn(ctx))
}

// TraceRedisCommand wraps a Redis command in a client span. redis.Nil is a
// cache miss, not a failure.
func TraceRedisCommand(ctx context.Context, tracerName, command, key string, fn func(context.Context) error) error {
	ctx, span := StartSpan(ctx, tracerName, fmt.Sprintf("redis.%s", command),
		trace.WithSpanKind(trace.SpanKindClient),
	)
	defer span.End()

	span.SetAttributes(
		DBSystemKey.String("redis"),
		RedisCommandKey.String(command),
		RedisKeyKey.String(key),
	)

	err := fn(ctx)
	if errors.Is(err, redis.Nil) {
		span.SetStatus(codes.Ok, "")
		return err
	}
	return finish(span, err)
}

// TraceExternalAPI wraps a call to another service
func TraceExternalAPI(ctx context.Context, tracerName, serviceName, operation string, fn func(context.Context) error) error {
	ctx, span := StartSpan(ctx, tracerName, fmt.Sprintf("%s.%s", serviceName, operation),
		trace.WithSpanKind(trace.SpanKindClient),
	)
	defer span.End()

	span.SetAttributes(
		attribute.String("external.service", serviceName),
		attribute.String("external.operation", operation),
	)

	return finish(span, fn(ctx))
}

// RideAttributes builds the attributes identifying a ride command
func RideAttributes(rideID, actorID, actorRole string) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 3)
	if rideID != "" {
		attrs = append(attrs, RideIDKey.String(rideID))
	}
	if actorID != "" {
		attrs = append(attrs, ActorIDKey.String(actorID))
	}
	if actorRole != "" {
		attrs = append(attrs, ActorRoleKey.String(actorRole))
	}
	return attrs
}

func finish(span trace.Span, err error) error {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	return err
}
