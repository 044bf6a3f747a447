// Package ack implements the acknowledgement tracker: a queue of
// outbound publishes awaiting a terminal Ack/Nack frame, matched by
// msg_serial, plus the Future type used as the completion handle every
// suspending operation returns.
package ack

import (
	"context"
	"errors"
)

// ErrTimeout is returned by Future.Wait when ctx is done before the
// future resolves. The underlying commitment (e.g. a pending publish)
// is unaffected: cancellation of the handle does not retract the
// frame.
var ErrTimeout = errors.New("ack: operation timed out waiting for completion")

// Future is a one-shot completion handle. It resolves exactly once,
// with a nil error on success or a non-nil error naming the specific
// failure kind, never a generic one.
type Future struct {
	done chan error
}

// NewFuture returns an unresolved Future.
func NewFuture() *Future {
	return &Future{done: make(chan error, 1)}
}

// Resolve completes the future. Only the first call has effect.
func (f *Future) Resolve(err error) {
	select {
	case f.done <- err:
	default:
	}
}

// Wait blocks until the future resolves or ctx is done, whichever comes
// first. A context deadline never retracts the underlying operation;
// callers that time out may still see the future resolve later (there
// is nothing left to observe it).
func (f *Future) Wait(ctx context.Context) error {
	select {
	case err := <-f.done:
		return err
	case <-ctx.Done():
		return ErrTimeout
	}
}

// Done returns the underlying channel, for callers (e.g. the connection
// actor) that want to select across many futures without spawning a
// goroutine per Wait.
func (f *Future) Done() <-chan error {
	return f.done
}
