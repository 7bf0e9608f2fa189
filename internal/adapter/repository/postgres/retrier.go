package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
)

// SQLSTATE codes after which the whole transaction can safely run again.
const (
	pgErrDeadlock             = "40P01"
	pgErrSerializationFailure = "40001"
	pgErrLockNotAvailable     = "55P03"
)

// Retrier implements usecase.Retrier. It reruns a transactional operation
// with exponential backoff when postgres aborted it for concurrency reasons;
// any other error is returned at once.
type Retrier struct {
	maxRetries      int
	initialInterval time.Duration
	maxInterval     time.Duration
	maxElapsedTime  time.Duration
	logger          zerolog.Logger
	onRetry         func(code string)
}

func NewRetrier() *Retrier {
	return &Retrier{
		maxRetries:      3,
		initialInterval: 50 * time.Millisecond,
		maxInterval:     time.Second,
		maxElapsedTime:  10 * time.Second,
		logger:          zerolog.Nop(),
		onRetry:         func(string) {},
	}
}

func (r *Retrier) WithLogger(l zerolog.Logger) *Retrier {
	r.logger = l
	return r
}

// WithMaxRetries caps the number of reruns after the first attempt.
func (r *Retrier) WithMaxRetries(n int) *Retrier {
	if n >= 0 {
		r.maxRetries = n
	}
	return r
}

// WithOnRetry registers a hook called with the SQLSTATE of every retried
// failure, typically a metrics counter.
func (r *Retrier) WithOnRetry(fn func(code string)) *Retrier {
	if fn != nil {
		r.onRetry = fn
	}
	return r
}

// Retry runs operation until it succeeds, fails permanently, or the retry
// budget is spent. An exhausted budget returns the last error annotated with
// the attempt count.
func (r *Retrier) Retry(ctx context.Context, operation func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.initialInterval
	b.MaxInterval = r.maxInterval
	b.MaxElapsedTime = r.maxElapsedTime

	attempts := 0
	exhausted := false
	err := backoff.Retry(func() error {
		attempts++
		err := operation()
		if err == nil {
			return nil
		}

		code, ok := retryableCode(err)
		if !ok {
			return backoff.Permanent(err)
		}
		if attempts > r.maxRetries {
			exhausted = true
			return backoff.Permanent(err)
		}

		r.onRetry(code)
		r.logger.Warn().Err(err).
			Str("sqlstate", code).
			Int("attempt", attempts).
			Msg("transaction aborted by postgres, retrying")
		return err
	}, backoff.WithContext(b, ctx))

	if err != nil && exhausted {
		return fmt.Errorf("gave up after %d attempts: %w", attempts, err)
	}
	return err
}

func isRetryableError(err error) bool {
	_, ok := retryableCode(err)
	return ok
}

// retryableCode finds the first retryable SQLSTATE in err's tree, including
// errors joined inside a batch failure.
func retryableCode(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return "", false
	}
	switch pgErr.Code {
	case pgErrDeadlock, pgErrSerializationFailure, pgErrLockNotAvailable:
		return pgErr.Code, true
	}
	return "", false
}
