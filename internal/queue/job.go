// Package queue implements the durable background job queue: per-kind FIFO
// ordering with priority weights, claim-exactly-once dequeue, retry with
// exponential backoff, and bounded retention of finished jobs.
package queue

import (
	"errors"
	"fmt"
	"time"
)

// ErrJobNotFound is returned by status lookups for unknown job IDs.
var ErrJobNotFound = errors.New("job not found")

// ErrUnknownKind is returned when enqueueing a kind with no configuration.
var ErrUnknownKind = errors.New("unknown job kind")

// PermanentError marks a handler failure that retrying cannot fix: the
// owning entity is gone, or the compute payload has the wrong shape. The
// pool fails the job terminally without consuming the remaining attempts.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string {
	return fmt.Sprintf("permanent: %v", e.Err)
}

func (e *PermanentError) Unwrap() error {
	return e.Err
}

// Permanent wraps err so the retry machinery treats it as terminal.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// IsPermanent reports whether err carries a PermanentError anywhere in its
// chain.
func IsPermanent(err error) bool {
	var pe *PermanentError
	return errors.As(err, &pe)
}

// Backoff returns the delay before the given retry. The first retry waits
// base, each later one doubles it: base, 2*base, 4*base, ...
func Backoff(base time.Duration, retry int) time.Duration {
	if retry < 1 {
		retry = 1
	}
	return base << (retry - 1)
}
