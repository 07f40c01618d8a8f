package database

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/richxcame/ride-lifecycle/pkg/resilience"
)

// TxBeginner is satisfied by *pgxpool.Pool and pgx transactions
type TxBeginner interface {
	Begin(context.Context) (pgx.Tx, error)
}

// TransactionRetryConfig keeps retries inside a ride operation deadline
func TransactionRetryConfig() resilience.RetryConfig {
	config := resilience.FastRetryConfig()
	config.InitialBackoff = 20 * time.Millisecond
	config.MaxBackoff = 200 * time.Millisecond
	config.RetryableChecker = IsRetryable
	return config
}

// RetryableTransaction runs fn in a transaction, retrying serialization
// failures and dropped connections. fn must be safe to run more than once.
func RetryableTransaction(ctx context.Context, pool TxBeginner, fn func(pgx.Tx) error) error {
	_, err := resilience.Do(ctx, TransactionRetryConfig(), "database.transaction", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, runTransaction(ctx, pool, fn)
	})
	return err
}

func runTransaction(ctx context.Context, pool TxBeginner, fn func(pgx.Tx) error) (err error) {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// IsRetryable determines if a PostgreSQL error should be retried
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001": // serialization_failure
			return true
		case "40P01": // deadlock_detected
			return true
		case "55P03": // lock_not_available
			return true
		case "53300": // too_many_connections
			return true
		case "08000", "08003", "08006": // connection_exception
			return true
		case "57P01", "57P03": // admin_shutdown, cannot_connect_now
			return true
		}
		return false
	}

	errMsg := strings.ToLower(err.Error())
	for _, msg := range []string{
		"connection refused",
		"connection reset",
		"broken pipe",
		"server closed",
		"unexpected eof",
	} {
		if strings.Contains(errMsg, msg) {
			return true
		}
	}

	return false
}

// IsTimeout reports whether err is a deadline or a server-side statement
// or lock timeout.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "57014" || pgErr.Code == "55P03" // query_canceled, lock_not_available
	}
	return false
}
