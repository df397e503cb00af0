package pipeline

import "context"

// Iterator provides pull-based sequential access to root inputs or to the
// sub-values of a flattened element. The driver and Flatten stop pulling
// as soon as the active chain reports inactive, so values past that point
// are never produced.
type Iterator interface {
	// Next returns the next value. Returns (nil, false, nil) when exhausted.
	Next(ctx context.Context) (any, bool, error)
	// Close releases any resources held by the iterator.
	Close() error
}

// FromSlice returns an Iterator over items.
func FromSlice(items []any) Iterator {
	return &sliceIter{items: items}
}

// FromFunc returns an Iterator calling next until it reports exhaustion.
func FromFunc(next func(ctx context.Context) (any, bool, error)) Iterator {
	return &funcIter{next: next}
}

// FromChannel returns an Iterator draining ch until it is closed.
func FromChannel(ch <-chan any) Iterator {
	return &funcIter{next: func(ctx context.Context) (any, bool, error) {
		select {
		case v, open := <-ch:
			return v, open, nil
		case <-ctx.Done():
			return nil, false, ctx.Err()
		}
	}}
}

type sliceIter struct {
	items []any
	index int
}

func (it *sliceIter) Next(_ context.Context) (any, bool, error) {
	if it.index >= len(it.items) {
		return nil, false, nil
	}
	val := it.items[it.index]
	it.index++
	return val, true, nil
}

func (it *sliceIter) Close() error { return nil }

type funcIter struct {
	next func(ctx context.Context) (any, bool, error)
}

func (it *funcIter) Next(ctx context.Context) (any, bool, error) { return it.next(ctx) }

func (it *funcIter) Close() error { return nil }
