package paging

import (
	"context"
	"errors"
)

var (
	// ErrSuperseded finishes an append that a refresh replaced.
	ErrSuperseded = errors.New("paging: load superseded by refresh")
	// ErrClosed finishes loads that were in flight when the loader closed.
	ErrClosed = errors.New("paging: loader closed")
)

// Op is the handle for one loader call. Calls that were rejected as no-ops
// return an Op that is already done and reports Started() == false.
type Op struct {
	started bool
	done    chan struct{}
	err     error
}

func newOp() *Op {
	return &Op{started: true, done: make(chan struct{})}
}

func skippedOp(err error) *Op {
	op := &Op{done: make(chan struct{}), err: err}
	close(op.done)
	return op
}

func (o *Op) finish(err error) {
	o.err = err
	close(o.done)
}

// Started reports whether the call issued a network request.
func (o *Op) Started() bool { return o.started }

// Done is closed once the load has been committed or dropped.
func (o *Op) Done() <-chan struct{} { return o.done }

// Err is nil until Done is closed. After that it is nil on success, a
// *LoadError on failure, or ErrSuperseded/ErrClosed when the result was
// dropped.
func (o *Op) Err() error {
	select {
	case <-o.done:
		return o.err
	default:
		return nil
	}
}

// Wait blocks until the load settles or ctx is done.
func (o *Op) Wait(ctx context.Context) error {
	select {
	case <-o.done:
		return o.err
	case <-ctx.Done():
		return ctx.Err()
	}
}
