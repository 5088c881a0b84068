// internal/infrastructure/database/uow/uow.go
package uow

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Postgres SQLSTATE codes the unit of work reacts to.
const (
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeUniqueViolation      = "23505"
)

// Runner executes fn inside one database transaction. Every read and write
// made through tx commits or rolls back together.
type Runner interface {
	Do(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Options tunes isolation and retry behaviour.
type Options struct {
	Isolation sql.IsolationLevel
	// MaxRetries bounds the total number of attempts
	MaxRetries int
	// Backoff is the first wait; later waits grow exponentially with jitter
	Backoff    time.Duration
	MaxBackoff time.Duration
}

// ErrContention is returned when every attempt was aborted by concurrent
// writers. The last abort is wrapped alongside it.
var ErrContention = errors.New("transaction aborted by concurrent writers")

// UnitOfWork is the explicit transactional scope handed to domain services.
type UnitOfWork struct {
	db     *gorm.DB
	opts   Options
	logger logrus.FieldLogger
}

// New creates a unit of work bound to db.
func New(db *gorm.DB, opts Options, logger logrus.FieldLogger) *UnitOfWork {
	if opts.MaxRetries < 1 {
		opts.MaxRetries = 1
	}
	if opts.Backoff <= 0 {
		opts.Backoff = 10 * time.Millisecond
	}
	if opts.MaxBackoff < opts.Backoff {
		opts.MaxBackoff = 50 * opts.Backoff
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &UnitOfWork{db: db, opts: opts, logger: logger}
}

// IsolationFromString maps the DB_TX_ISOLATION setting.
func IsolationFromString(s string) sql.IsolationLevel {
	switch s {
	case "serializable":
		return sql.LevelSerializable
	case "repeatable_read":
		return sql.LevelRepeatableRead
	case "read_committed":
		return sql.LevelReadCommitted
	default:
		return sql.LevelDefault
	}
}

// Do runs fn in a transaction, retrying when Postgres aborts it with a
// serialization failure or deadlock. fn must be safe to re-run and must not
// perform network I/O.
func (u *UnitOfWork) Do(ctx context.Context, fn func(tx *gorm.DB) error) error {
	attempts := 0
	operation := func() error {
		attempts++
		err := u.db.WithContext(ctx).Transaction(fn, &sql.TxOptions{Isolation: u.opts.Isolation})
		if err != nil && !IsRetryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, wait time.Duration) {
		u.logger.WithFields(logrus.Fields{
			"attempt": attempts,
			"wait":    wait.String(),
			"error":   err.Error(),
		}).Warn("Transaction aborted by concurrent writer, retrying")
	}

	err := backoff.RetryNotify(operation, u.policy(ctx), notify)
	if err != nil && IsRetryable(err) {
		return fmt.Errorf("%w after %d attempts: %w", ErrContention, attempts, err)
	}
	return err
}

func (u *UnitOfWork) policy(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = u.opts.Backoff
	b.MaxInterval = u.opts.MaxBackoff
	b.RandomizationFactor = 0.5
	b.Multiplier = 2
	b.MaxElapsedTime = 0
	b.Reset()
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(u.opts.MaxRetries-1)), ctx)
}

// IsRetryable reports whether err is a transient concurrency abort.
func IsRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == codeSerializationFailure || pgErr.Code == codeDeadlockDetected
	}
	return false
}

// IsUniqueViolation reports whether err came from a unique index.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == codeUniqueViolation
	}
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
