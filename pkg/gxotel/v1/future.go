package v1

import (
	"context"
	"fmt"
	"sync"

	gxoerrors "github.com/gxo-labs/gxotel/pkg/gxotel/v1/errors"
)

// Thenable is a pending result that accepts a continuation. Trace uses it to
// defer ending a span until an asynchronous result settles.
type Thenable interface {
	// Then registers fn to run once the result settles. fn receives the
	// settlement error (nil on success). Continuations run before any waiter
	// observes the settlement; if the result already settled, fn runs
	// immediately on the calling goroutine.
	Then(fn func(err error))
}

// Future is a result that settles exactly once.
type Future[T any] struct {
	mu      sync.Mutex
	settled bool
	value   T
	err     error
	thens   []func(error)
	done    chan struct{}
}

// NewFuture returns an unsettled future and the function that settles it.
// Only the first call to settle has any effect.
func NewFuture[T any]() (*Future[T], func(T, error)) {
	f := &Future[T]{done: make(chan struct{})}
	return f, f.settle
}

// Resolved returns a future already settled with value.
func Resolved[T any](value T) *Future[T] {
	f, settle := NewFuture[T]()
	settle(value, nil)
	return f
}

// Rejected returns a future already settled with err.
func Rejected[T any](err error) *Future[T] {
	f, settle := NewFuture[T]()
	var zero T
	settle(zero, err)
	return f
}

// Go runs fn on a new goroutine and returns a future for its result. A panic
// in fn rejects the future with a *errors.PanicError.
func Go[T any](ctx context.Context, fn func(ctx context.Context) (T, error)) *Future[T] {
	f, settle := NewFuture[T]()
	go func() {
		var (
			value T
			err   error
		)
		defer func() {
			if r := recover(); r != nil {
				var zero T
				settle(zero, gxoerrors.NewPanicError(r))
				return
			}
			settle(value, err)
		}()
		value, err = fn(ctx)
	}()
	return f
}

func (f *Future[T]) settle(value T, err error) {
	f.mu.Lock()
	if f.settled {
		f.mu.Unlock()
		return
	}
	f.settled = true
	f.value = value
	f.err = err
	thens := f.thens
	f.thens = nil
	f.mu.Unlock()

	for _, fn := range thens {
		fn(err)
	}
	close(f.done)
}

// Then implements Thenable. A nil future counts as settled successfully.
func (f *Future[T]) Then(fn func(err error)) {
	if fn == nil {
		return
	}
	if f == nil {
		fn(nil)
		return
	}
	f.mu.Lock()
	if !f.settled {
		f.thens = append(f.thens, fn)
		f.mu.Unlock()
		return
	}
	err := f.err
	f.mu.Unlock()
	fn(err)
}

// Done is closed once the future has settled and its continuations have run.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Await blocks until the future settles or ctx is done. Giving up on the
// wait does not cancel the underlying work.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Err returns the settlement error, or nil if unsettled or successful.
func (f *Future[T]) Err() error {
	select {
	case <-f.done:
		return f.err
	default:
		return nil
	}
}

// String describes the state of the future, for debugging.
func (f *Future[T]) String() string {
	select {
	case <-f.done:
		if f.err != nil {
			return fmt.Sprintf("Future(rejected: %v)", f.err)
		}
		return fmt.Sprintf("Future(resolved: %v)", f.value)
	default:
		return "Future(pending)"
	}
}

var _ Thenable = (*Future[struct{}])(nil)
