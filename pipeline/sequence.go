package pipeline

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/kbukum/lazylists/order"
	"github.com/kbukum/lazylists/stage"
)

type takeStage struct {
	stage.Base
	chain stage.Chain
	limit int64
	taken atomic.Int64
}

// Take forwards the first n accepted values of each batch. Once n values
// are taken the stage reports inactive, so upstream stops producing.
func (p *Pipeline) Take(n int) *Pipeline {
	return p.Then(Operator{Name: "take", Factory: func(w stage.Wiring) stage.Stage {
		s := &takeStage{Base: stage.NewBase(w), limit: int64(max(n, 0))}
		s.chain = w.Active.Extend("take", s.open)
		return s
	}})
}

func (s *takeStage) open() bool { return s.taken.Load() < s.limit }

func (s *takeStage) Chain() stage.Chain { return s.chain }

func (s *takeStage) Forward(ctx context.Context, v any, ord order.Vector) (bool, error) {
	if !s.Active() {
		return false, nil
	}
	if s.taken.Add(1) > s.limit {
		s.taken.Store(s.limit)
		return false, nil
	}
	ok, err := s.Next(ctx, v, ord)
	if err != nil {
		return false, err
	}
	return ok && s.chain.Active(), nil
}

func (s *takeStage) Finalize(ctx context.Context) error {
	s.taken.Store(0)
	return s.Downstream(ctx)
}

// latchStage forwards until its condition flips once, then stays closed
// for the rest of the batch.
type latchStage struct {
	stage.Base
	chain stage.Chain
	mu    sync.Mutex
	done  bool
	stop  func(v any) bool
}

func newLatch(name string, stop func(v any) bool) stage.Factory {
	return func(w stage.Wiring) stage.Stage {
		s := &latchStage{Base: stage.NewBase(w), stop: stop}
		s.chain = w.Active.Extend(name, s.open)
		return s
	}
}

func (s *latchStage) open() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.done
}

func (s *latchStage) Chain() stage.Chain { return s.chain }

func (s *latchStage) Forward(ctx context.Context, v any, ord order.Vector) (bool, error) {
	if !s.Active() {
		return false, nil
	}
	if s.closes(v) {
		return false, nil
	}
	ok, err := s.Next(ctx, v, ord)
	if err != nil {
		return false, err
	}
	return ok && s.chain.Active(), nil
}

// closes reports whether v finds the latch closed or closes it. The lock
// is released even when stop panics.
func (s *latchStage) closes(v any) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done || s.stop(v) {
		s.done = true
	}
	return s.done
}

func (s *latchStage) Finalize(ctx context.Context) error {
	s.mu.Lock()
	s.done = false
	s.mu.Unlock()
	return s.Downstream(ctx)
}

// TakeWhile forwards values while pred holds. The first value failing
// pred closes the stage for the rest of the batch.
func (p *Pipeline) TakeWhile(pred Predicate) *Pipeline {
	return p.Then(Operator{Name: "takeWhile", Factory: newLatch("takeWhile",
		func(v any) bool { return !pred(v) })})
}

// TakeUntil forwards values until pred first holds. That value is not
// forwarded and the stage stays closed for the rest of the batch.
func (p *Pipeline) TakeUntil(pred Predicate) *Pipeline {
	return p.Then(Operator{Name: "takeUntil", Factory: newLatch("takeUntil",
		func(v any) bool { return pred(v) })})
}

type entry struct {
	value any
	ord   order.Vector
}

type takeLastStage struct {
	stage.Base
	n   int
	mu  sync.Mutex
	buf []entry
}

// TakeLast forwards the last n values of each batch, in arrival order,
// when the batch is finalized.
func (p *Pipeline) TakeLast(n int) *Pipeline {
	return p.Then(Operator{Name: "takeLast", Factory: func(w stage.Wiring) stage.Stage {
		return &takeLastStage{Base: stage.NewBase(w), n: max(n, 0)}
	}})
}

func (s *takeLastStage) Forward(_ context.Context, v any, ord order.Vector) (bool, error) {
	if !s.Active() {
		return false, nil
	}
	if s.n == 0 {
		return true, nil
	}
	s.mu.Lock()
	s.buf = append(s.buf, entry{value: v, ord: ord})
	if len(s.buf) > s.n {
		s.buf = s.buf[len(s.buf)-s.n:]
	}
	s.mu.Unlock()
	return true, nil
}

func (s *takeLastStage) Finalize(ctx context.Context) error {
	s.mu.Lock()
	buf := s.buf
	s.buf = nil
	s.mu.Unlock()
	if err := replay(ctx, &s.Base, buf); err != nil {
		return err
	}
	return s.Downstream(ctx)
}

// replay forwards buffered entries in slice order, stopping at the first
// rejection or once downstream goes inactive.
func replay(ctx context.Context, b *stage.Base, entries []entry) error {
	for _, e := range entries {
		if !b.Active() {
			return nil
		}
		ok, err := b.Next(ctx, e.value, e.ord)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
	}
	return nil
}

type skipStage struct {
	stage.Base
	n       int64
	skipped atomic.Int64
}

// Skip drops the first n accepted values of each batch.
func (p *Pipeline) Skip(n int) *Pipeline {
	return p.Then(Operator{Name: "skip", Factory: func(w stage.Wiring) stage.Stage {
		return &skipStage{Base: stage.NewBase(w), n: int64(max(n, 0))}
	}})
}

func (s *skipStage) Forward(ctx context.Context, v any, ord order.Vector) (bool, error) {
	if !s.Active() {
		return false, nil
	}
	if s.skipped.Add(1) <= s.n {
		return true, nil
	}
	return s.Next(ctx, v, ord)
}

func (s *skipStage) Finalize(ctx context.Context) error {
	s.skipped.Store(0)
	return s.Downstream(ctx)
}

type skipWhileStage struct {
	stage.Base
	pred     Predicate
	mu       sync.Mutex
	skipping bool
}

// SkipWhile drops values while pred holds. The first value failing pred
// and everything after it are forwarded.
func (p *Pipeline) SkipWhile(pred Predicate) *Pipeline {
	return p.Then(Operator{Name: "skipWhile", Factory: func(w stage.Wiring) stage.Stage {
		return &skipWhileStage{Base: stage.NewBase(w), pred: pred, skipping: true}
	}})
}

func (s *skipWhileStage) Forward(ctx context.Context, v any, ord order.Vector) (bool, error) {
	if !s.Active() {
		return false, nil
	}
	if s.skips(v) {
		return true, nil
	}
	return s.Next(ctx, v, ord)
}

func (s *skipWhileStage) skips(v any) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.skipping && s.pred(v) {
		return true
	}
	s.skipping = false
	return false
}

func (s *skipWhileStage) Finalize(ctx context.Context) error {
	s.mu.Lock()
	s.skipping = true
	s.mu.Unlock()
	return s.Downstream(ctx)
}

type distinctStage struct {
	stage.Base
	key  KeyFunc
	mu   sync.Mutex
	seen map[string]struct{}
}

// Distinct forwards only the first occurrence of each value per batch.
func (p *Pipeline) Distinct() *Pipeline {
	return p.distinct("distinct", nil)
}

// DistinctBy forwards only the first value per batch for each key fn
// returns.
func (p *Pipeline) DistinctBy(fn KeyFunc) *Pipeline {
	return p.distinct("distinctBy", fn)
}

// DistinctByKey forwards only the first value per batch for each value of
// the field key.
func (p *Pipeline) DistinctByKey(key string) *Pipeline {
	return p.distinct("distinctBy", func(v any) (any, error) {
		f, _ := Field(v, key)
		return f, nil
	})
}

func (p *Pipeline) distinct(name string, fn KeyFunc) *Pipeline {
	return p.Then(Operator{Name: name, Factory: func(w stage.Wiring) stage.Stage {
		return &distinctStage{Base: stage.NewBase(w), key: fn, seen: map[string]struct{}{}}
	}})
}

func (s *distinctStage) Forward(ctx context.Context, v any, ord order.Vector) (bool, error) {
	if !s.Active() {
		return false, nil
	}
	k := v
	if s.key != nil {
		var err error
		if k, err = s.key(v); err != nil {
			return false, err
		}
	}
	key := Key(k)
	s.mu.Lock()
	if _, dup := s.seen[key]; dup {
		s.mu.Unlock()
		return true, nil
	}
	s.seen[key] = struct{}{}
	s.mu.Unlock()
	return s.Next(ctx, v, ord)
}

func (s *distinctStage) Finalize(ctx context.Context) error {
	s.mu.Lock()
	s.seen = map[string]struct{}{}
	s.mu.Unlock()
	return s.Downstream(ctx)
}

type defaultStage struct {
	stage.Base
	value     any
	forwarded atomic.Bool
}

// Default forwards value at finalize when nothing reached this stage
// during the batch.
func (p *Pipeline) Default(value any) *Pipeline {
	return p.Then(Operator{Name: "default", Factory: func(w stage.Wiring) stage.Stage {
		return &defaultStage{Base: stage.NewBase(w), value: value}
	}})
}

func (s *defaultStage) Forward(ctx context.Context, v any, ord order.Vector) (bool, error) {
	if !s.Active() {
		return false, nil
	}
	s.forwarded.Store(true)
	return s.Next(ctx, v, ord)
}

func (s *defaultStage) Finalize(ctx context.Context) error {
	if !s.forwarded.Swap(false) && s.Active() {
		if _, err := s.Next(ctx, s.value, order.Root(0)); err != nil {
			return err
		}
	}
	return s.Downstream(ctx)
}

type scanStage struct {
	stage.Base
	fn   ReduceFunc
	seed any
	mu   sync.Mutex
	acc  any
}

// Scan forwards the running accumulator after folding each value into it.
// Concurrent arrivals are serialized, so the accumulator advances in
// arrival order.
func (p *Pipeline) Scan(fn ReduceFunc, seed any) *Pipeline {
	return p.Then(Operator{Name: "scan", Factory: func(w stage.Wiring) stage.Stage {
		return &scanStage{Base: stage.NewBase(w), fn: fn, seed: seed, acc: seed}
	}})
}

func (s *scanStage) Forward(ctx context.Context, v any, ord order.Vector) (bool, error) {
	if !s.Active() {
		return false, nil
	}
	// Held across the forward: the next arrival waits for this one.
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := s.fn(s.acc, v)
	if err != nil {
		return false, err
	}
	s.acc = next
	return s.Next(ctx, next, ord)
}

func (s *scanStage) Finalize(ctx context.Context) error {
	s.mu.Lock()
	s.acc = s.seed
	s.mu.Unlock()
	return s.Downstream(ctx)
}
