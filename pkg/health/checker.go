package health

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Checker is a health check function that returns an error if unhealthy
type Checker func() error

// CheckerConfig holds configuration for health checkers
type CheckerConfig struct {
	Timeout time.Duration
}

// DefaultCheckerConfig returns default configuration for health checkers
func DefaultCheckerConfig() CheckerConfig {
	return CheckerConfig{
		Timeout: 2 * time.Second,
	}
}

// Pinger is satisfied by *pgxpool.Pool and the redis client wrapper
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a method such as (*sql.DB).PingContext to Pinger
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// PingChecker returns a health check that pings the dependency
func PingChecker(name string, p Pinger) Checker {
	return PingCheckerWithConfig(name, p, DefaultCheckerConfig())
}

// PingCheckerWithConfig returns a ping health check with custom configuration
func PingCheckerWithConfig(name string, p Pinger, cfg CheckerConfig) Checker {
	return func() error {
		if p == nil {
			return fmt.Errorf("%s connection is nil", name)
		}

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
		defer cancel()

		if err := p.Ping(ctx); err != nil {
			return fmt.Errorf("%s ping failed: %w", name, err)
		}
		return nil
	}
}

// ConnectedChecker reports an error while the connection is down. The event
// bus reconnects on its own so this never blocks.
func ConnectedChecker(name string, connected func() bool) Checker {
	return func() error {
		if !connected() {
			return fmt.Errorf("%s is disconnected", name)
		}
		return nil
	}
}

// ErrBreakerOpen is reported for an upstream whose circuit breaker is open
var ErrBreakerOpen = errors.New("circuit breaker open")

// BreakerChecker fails while the breaker rejects requests
func BreakerChecker(allow func() bool) Checker {
	return func() error {
		if !allow() {
			return ErrBreakerOpen
		}
		return nil
	}
}

// AsyncChecker wraps a checker to run asynchronously with a timeout
func AsyncChecker(checker Checker, timeout time.Duration) Checker {
	return func() error {
		errChan := make(chan error, 1)
		go func() {
			errChan <- checker()
		}()

		select {
		case err := <-errChan:
			return err
		case <-time.After(timeout):
			return fmt.Errorf("health check timeout after %v", timeout)
		}
	}
}

// Checks collects named checkers for a readiness probe
type Checks map[string]Checker

// Add registers a checker under name
func (c Checks) Add(name string, checker Checker) Checks {
	c[name] = checker
	return c
}

// Funcs adapts the set to the plain function map the readiness probe takes
func (c Checks) Funcs() map[string]func() error {
	out := make(map[string]func() error, len(c))
	for name, checker := range c {
		out[name] = checker
	}
	return out
}
