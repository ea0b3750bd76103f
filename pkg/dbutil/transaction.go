package dbutil

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jelajah-lab/backend/pkg/xcontext"
	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"
)

// ErrConflict is returned by Transaction when every attempt ended with a
// concurrency conflict.
var ErrConflict = errors.New("transaction conflict")

var retryablePostgresCodes = map[string]bool{
	"40001": true, // serialization_failure
	"40P01": true, // deadlock_detected
	"55P03": true, // lock_not_available
}

var retryableMySQLNumbers = map[uint16]bool{
	1205: true, // ER_LOCK_WAIT_TIMEOUT
	1213: true, // ER_LOCK_DEADLOCK
}

// IsConflict reports whether err is a transient error caused by another
// transaction touching the same rows.
func IsConflict(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return retryablePostgresCodes[pgErr.Code]
	}

	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return retryableMySQLNumbers[mysqlErr.Number]
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked
	}

	return false
}

// Transaction runs fn in a database transaction. The transaction is committed
// if fn returns nil and rolled back otherwise. When fn or the commit fails
// because of a conflict, the whole transaction is retried with an exponential
// backoff, at most Engine.MaxRetries times.
func Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	cfg := xcontext.Configs(ctx).Engine

	b := backoff.NewExponentialBackOff()
	if cfg.InitialInterval > 0 {
		b.InitialInterval = cfg.InitialInterval
	}
	if cfg.MaxInterval > 0 {
		b.MaxInterval = cfg.MaxInterval
	}

	attempt := 0
	operation := func() (struct{}, error) {
		attempt++
		err := runOnce(ctx, fn)
		if err == nil {
			return struct{}{}, nil
		}

		if IsConflict(err) {
			xcontext.Logger(ctx).Warnf("Transaction conflict at attempt %d: %v", attempt, err)
			return struct{}{}, err
		}

		return struct{}{}, backoff.Permanent(err)
	}

	_, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(cfg.MaxRetries+1),
		backoff.WithMaxElapsedTime(time.Minute),
	)
	if err != nil && IsConflict(err) {
		return errors.Join(ErrConflict, err)
	}

	return err
}

func runOnce(ctx context.Context, fn func(ctx context.Context) error) error {
	ctx = xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(ctx)

	if err := fn(ctx); err != nil {
		return err
	}

	return xcontext.WithCommitDBTransaction(ctx)
}
