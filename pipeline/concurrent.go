package pipeline

import (
	"context"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/kbukum/lazylists/errors"
	"github.com/kbukum/lazylists/order"
	"github.com/kbukum/lazylists/stage"
)

type parallelStage struct {
	stage.Base
	limit   int
	mu      sync.Mutex
	pending []entry
}

// Parallel defers every accepted value and accepts immediately. At
// finalize the deferred forwards run concurrently, each on its own
// goroutine, and downstream sees them in completion order. Place Ordered
// after it to restore input order.
//
// The number of goroutines is bounded by WithMaxParallel, if set. The
// first failing forward cancels the context of the others and fails the
// batch.
func (p *Pipeline) Parallel() *Pipeline {
	return p.ParallelN(0)
}

// ParallelN is Parallel with at most n forwards running at once. n <= 0
// falls back to WithMaxParallel.
func (p *Pipeline) ParallelN(n int) *Pipeline {
	return p.Then(Operator{Name: "parallel", Factory: func(w stage.Wiring) stage.Stage {
		return &parallelStage{Base: stage.NewBase(w), limit: n}
	}})
}

func (s *parallelStage) Forward(_ context.Context, v any, ord order.Vector) (bool, error) {
	if !s.Active() {
		return false, nil
	}
	s.mu.Lock()
	s.pending = append(s.pending, entry{value: v, ord: ord})
	s.mu.Unlock()
	return true, nil
}

func (s *parallelStage) Finalize(ctx context.Context) error {
	s.mu.Lock()
	pending := s.pending
	s.pending = nil
	s.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	limit := s.limit
	if limit <= 0 {
		limit = maxParallelFrom(ctx)
	}
	if limit > 0 {
		g.SetLimit(limit)
	}
	for _, e := range pending {
		g.Go(func() (err error) {
			defer func() {
				if rec := recover(); rec != nil {
					err = errors.StagePanic(rec)
				}
			}()
			if gctx.Err() != nil || !s.Active() {
				return nil
			}
			_, err = s.Next(gctx, e.value, e.ord)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return s.Downstream(ctx)
}

type orderedStage struct {
	stage.Base
	mu      sync.Mutex
	buckets map[string][]any
	keys    []order.Vector
}

// Ordered buffers the batch and, at finalize, forwards it sorted by order
// vector. Values sharing an order keep their arrival order.
func (p *Pipeline) Ordered() *Pipeline {
	return p.Then(Operator{Name: "ordered", Factory: func(w stage.Wiring) stage.Stage {
		return &orderedStage{Base: stage.NewBase(w), buckets: map[string][]any{}}
	}})
}

func (s *orderedStage) Forward(_ context.Context, v any, ord order.Vector) (bool, error) {
	if !s.Active() {
		return false, nil
	}
	key := ord.Key()
	s.mu.Lock()
	if _, ok := s.buckets[key]; !ok {
		s.keys = append(s.keys, ord)
	}
	s.buckets[key] = append(s.buckets[key], v)
	s.mu.Unlock()
	return true, nil
}

func (s *orderedStage) Finalize(ctx context.Context) error {
	s.mu.Lock()
	buckets, keys := s.buckets, s.keys
	s.buckets, s.keys = map[string][]any{}, nil
	s.mu.Unlock()

	order.Sort(keys)
	var entries []entry
	for _, ord := range keys {
		for _, v := range buckets[ord.Key()] {
			entries = append(entries, entry{value: v, ord: ord})
		}
	}
	if err := replay(ctx, &s.Base, entries); err != nil {
		return err
	}
	return s.Downstream(ctx)
}

type bufferStage struct {
	stage.Base
	arrange func([]entry)
	mu      sync.Mutex
	buf     []entry
}

func (p *Pipeline) buffered(name string, arrange func([]entry)) *Pipeline {
	return p.Then(Operator{Name: name, Factory: func(w stage.Wiring) stage.Stage {
		return &bufferStage{Base: stage.NewBase(w), arrange: arrange}
	}})
}

func (s *bufferStage) Forward(_ context.Context, v any, ord order.Vector) (bool, error) {
	if !s.Active() {
		return false, nil
	}
	s.mu.Lock()
	s.buf = append(s.buf, entry{value: v, ord: ord})
	s.mu.Unlock()
	return true, nil
}

func (s *bufferStage) Finalize(ctx context.Context) error {
	s.mu.Lock()
	buf := s.buf
	s.buf = nil
	s.mu.Unlock()

	s.arrange(buf)
	if err := replay(ctx, &s.Base, buf); err != nil {
		return err
	}
	return s.Downstream(ctx)
}

// Sort buffers the batch and forwards it at finalize sorted by cmp.
// The sort is stable. A nil cmp uses Natural.
func (p *Pipeline) Sort(cmp Comparator) *Pipeline {
	if cmp == nil {
		cmp = Natural
	}
	return p.buffered("sort", func(buf []entry) {
		slices.SortStableFunc(buf, func(a, b entry) int { return cmp(a.value, b.value) })
	})
}

// Reverse buffers the batch and forwards it at finalize in reverse
// arrival order.
func (p *Pipeline) Reverse() *Pipeline {
	return p.buffered("reverse", slices.Reverse[[]entry])
}
