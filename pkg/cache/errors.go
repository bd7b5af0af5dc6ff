package cache

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable is returned when a remote cache backend cannot be reached.
var ErrUnavailable = errors.New("cache backend unavailable")

// redisAttempts bounds tries per Redis command.
const redisAttempts = 3

// RetryableError marks a failure that may succeed when tried again, such as
// a dropped connection to Redis.
type RetryableError struct{ Err error }

// Retryable wraps err as a RetryableError. A nil err stays nil.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// IsRetryable reports whether err is wrapped in a RetryableError.
func IsRetryable(err error) bool {
	var re *RetryableError
	return errors.As(err, &re)
}

// retryWithBackoff runs fn up to attempts times, doubling delay between
// tries. Only RetryableErrors are retried; the cause of the last one is
// returned unwrapped once attempts run out.
func retryWithBackoff(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	for i := 0; ; i++ {
		err := fn()
		var re *RetryableError
		if err == nil || !errors.As(err, &re) {
			return err
		}
		if i == attempts-1 {
			return re.Err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
			delay *= 2
		}
	}
}
