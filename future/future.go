// Package future provides asynchronously resolving values that can be fed
// to a pipeline as root inputs and awaited by the Resolve stage.
package future

import (
	"context"
	"time"
)

// Future is a value that becomes available later.
type Future interface {
	// Await blocks until the value is available or ctx is done.
	Await(ctx context.Context) (any, error)
}

// Func adapts a plain function to Future. The function runs on every Await.
type Func func(ctx context.Context) (any, error)

// Await calls f.
func (f Func) Await(ctx context.Context) (any, error) { return f(ctx) }

// Promise is a Future settled exactly once by a background goroutine.
type Promise struct {
	done chan struct{}
	val  any
	err  error
}

// Go starts fn on its own goroutine and returns a Promise for its result.
// fn runs with ctx; it is not cancelled when an Await gives up.
func Go(ctx context.Context, fn func(ctx context.Context) (any, error)) *Promise {
	p := &Promise{done: make(chan struct{})}
	go func() {
		defer close(p.done)
		p.val, p.err = fn(ctx)
	}()
	return p
}

// Await waits for the promise to settle.
func (p *Promise) Await(ctx context.Context) (any, error) {
	select {
	case <-p.done:
		return p.val, p.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Done returns a channel closed once the promise has settled.
func (p *Promise) Done() <-chan struct{} { return p.done }

// After returns a promise that resolves to v once d has elapsed.
// The timer starts immediately.
func After(d time.Duration, v any) *Promise {
	return Go(context.Background(), func(context.Context) (any, error) {
		time.Sleep(d)
		return v, nil
	})
}

// FailAfter returns a promise that rejects with err once d has elapsed.
func FailAfter(d time.Duration, err error) *Promise {
	return Go(context.Background(), func(context.Context) (any, error) {
		time.Sleep(d)
		return nil, err
	})
}

// Resolved returns an already settled future holding v.
func Resolved(v any) Future {
	return Func(func(context.Context) (any, error) { return v, nil })
}

// Failed returns an already settled future holding err.
func Failed(err error) Future {
	return Func(func(context.Context) (any, error) { return nil, err })
}

// Resolve awaits v if it is a Future, repeatedly, until a plain value is
// reached. Plain values are returned as they are.
func Resolve(ctx context.Context, v any) (any, error) {
	for {
		f, ok := v.(Future)
		if !ok {
			return v, nil
		}
		out, err := f.Await(ctx)
		if err != nil {
			return nil, err
		}
		v = out
	}
}
