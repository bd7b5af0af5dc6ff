package store

import (
	"context"
	"errors"
	"time"
)

// transientError marks a failure worth retrying, such as a database that
// is still starting up.
type transientError struct{ err error }

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

// retry runs fn up to attempts times, doubling delay after each failure.
// Only errors wrapped in transientError are retried. The last error is
// returned unwrapped, or ctx.Err() if ctx is cancelled while waiting.
func retry(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	attempts = max(attempts, 1)
	var last error
	for i := range attempts {
		err := fn()
		if err == nil {
			return nil
		}
		var te *transientError
		if !errors.As(err, &te) {
			return err
		}
		last = te.err

		if i < attempts-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
				delay *= 2
			}
		}
	}
	return last
}
