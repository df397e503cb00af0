package pipeline

import (
	"context"
	"fmt"
	"sync"

	"github.com/kbukum/lazylists/errors"
	"github.com/kbukum/lazylists/order"
	"github.com/kbukum/lazylists/stage"
)

// aggregator is the per-batch state of an aggregate stage.
type aggregator interface {
	// add folds v in.
	add(v any) error
	// decided reports that no further value can change the result.
	decided() bool
	// result returns the value to forward at finalize, if any.
	result() (any, bool)
}

// aggStage buffers a batch into an aggregator and forwards its result
// once, with order [0], when the batch is finalized.
type aggStage struct {
	stage.Base
	chain stage.Chain
	fresh func() aggregator
	mu    sync.Mutex
	state aggregator
}

// aggregate appends an aggregate operator. Short-circuiting aggregates
// extend the active chain so upstream stops once the result is decided.
func (p *Pipeline) aggregate(name string, shortCircuit bool, fresh func() aggregator) *Pipeline {
	return p.Then(Operator{Name: name, Aggregate: true, Factory: func(w stage.Wiring) stage.Stage {
		s := &aggStage{Base: stage.NewBase(w), fresh: fresh, state: fresh()}
		s.chain = w.Active
		if shortCircuit {
			s.chain = w.Active.Extend(name, s.open)
		}
		return s
	}})
}

func (s *aggStage) open() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.state.decided()
}

func (s *aggStage) Chain() stage.Chain { return s.chain }

func (s *aggStage) Forward(_ context.Context, v any, _ order.Vector) (bool, error) {
	if !s.Active() {
		return false, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.decided() {
		return false, nil
	}
	if err := s.state.add(v); err != nil {
		return false, err
	}
	return !s.state.decided(), nil
}

func (s *aggStage) Finalize(ctx context.Context) error {
	s.mu.Lock()
	out, emit := s.state.result()
	s.state = s.fresh()
	s.mu.Unlock()
	if emit && s.Active() {
		if _, err := s.Next(ctx, out, order.Root(0)); err != nil {
			return err
		}
	}
	return s.Downstream(ctx)
}

// undecided is embedded by aggregators that consume the whole batch.
type undecided struct{}

func (undecided) decided() bool { return false }

type reduceAgg struct {
	undecided
	fn  ReduceFunc
	acc any
}

func (a *reduceAgg) add(v any) (err error) {
	a.acc, err = a.fn(a.acc, v)
	return err
}

func (a *reduceAgg) result() (any, bool) { return a.acc, true }

// Reduce folds every value of the batch into an accumulator starting at
// seed and forwards the accumulator at finalize.
func (p *Pipeline) Reduce(fn ReduceFunc, seed any) *Pipeline {
	return p.aggregate("reduce", false, func() aggregator {
		return &reduceAgg{fn: fn, acc: seed}
	})
}

type sumAgg struct {
	undecided
	i       int64
	f       float64
	isFloat bool
}

func (a *sumAgg) add(v any) error {
	if n, ok := toInt(v); ok && !a.isFloat {
		a.i += n
		return nil
	}
	f, ok := toFloat(v)
	if !ok {
		return errors.InvalidInput("sum", fmt.Sprintf("%T is not a number", v))
	}
	if !a.isFloat {
		a.isFloat = true
		a.f = float64(a.i)
	}
	a.f += f
	return nil
}

func (a *sumAgg) result() (any, bool) {
	if a.isFloat {
		return a.f, true
	}
	return int(a.i), true
}

// Sum adds the numbers of the batch. The result is an int while every
// value is an integer and a float64 otherwise.
func (p *Pipeline) Sum() *Pipeline {
	return p.aggregate("sum", false, func() aggregator { return &sumAgg{} })
}

type countAgg struct {
	undecided
	n int
}

func (a *countAgg) add(any) error {
	a.n++
	return nil
}

func (a *countAgg) result() (any, bool) { return a.n, true }

// Count forwards the number of values in the batch.
func (p *Pipeline) Count() *Pipeline {
	return p.aggregate("count", false, func() aggregator { return &countAgg{} })
}

type extremeAgg struct {
	undecided
	cmp  Comparator
	sign int
	v    any
	seen bool
}

func (a *extremeAgg) add(v any) error {
	if !a.seen || a.cmp(v, a.v)*a.sign > 0 {
		a.v, a.seen = v, true
	}
	return nil
}

func (a *extremeAgg) result() (any, bool) { return a.v, a.seen }

// Min forwards the smallest value of the batch by cmp, if there was one.
// The first of equal values wins. A nil cmp uses Natural.
func (p *Pipeline) Min(cmp Comparator) *Pipeline {
	if cmp == nil {
		cmp = Natural
	}
	return p.aggregate("min", false, func() aggregator { return &extremeAgg{cmp: cmp, sign: -1} })
}

// Max forwards the largest value of the batch by cmp, if there was one.
func (p *Pipeline) Max(cmp Comparator) *Pipeline {
	if cmp == nil {
		cmp = Natural
	}
	return p.aggregate("max", false, func() aggregator { return &extremeAgg{cmp: cmp, sign: 1} })
}

type someAgg struct {
	pred  Predicate
	found bool
}

func (a *someAgg) add(v any) error {
	if a.pred(v) {
		a.found = true
	}
	return nil
}

func (a *someAgg) decided() bool { return a.found }

func (a *someAgg) result() (any, bool) { return a.found, true }

// Some forwards whether pred held for any value. Upstream stops as soon as
// one value matches.
func (p *Pipeline) Some(pred Predicate) *Pipeline {
	return p.aggregate("some", true, func() aggregator { return &someAgg{pred: pred} })
}

type everyAgg struct {
	pred   Predicate
	failed bool
}

func (a *everyAgg) add(v any) error {
	if !a.pred(v) {
		a.failed = true
	}
	return nil
}

func (a *everyAgg) decided() bool { return a.failed }

func (a *everyAgg) result() (any, bool) { return !a.failed, true }

// Every forwards whether pred held for all values. Upstream stops as soon
// as one value fails.
func (p *Pipeline) Every(pred Predicate) *Pipeline {
	return p.aggregate("every", true, func() aggregator { return &everyAgg{pred: pred} })
}

type firstAgg struct {
	v    any
	seen bool
}

func (a *firstAgg) add(v any) error {
	a.v, a.seen = v, true
	return nil
}

func (a *firstAgg) decided() bool { return a.seen }

func (a *firstAgg) result() (any, bool) { return a.v, a.seen }

// First forwards the first value of the batch. Upstream stops once it has
// been captured.
func (p *Pipeline) First() *Pipeline {
	return p.aggregate("first", true, func() aggregator { return &firstAgg{} })
}

type arrayAgg struct {
	undecided
	values []any
}

func (a *arrayAgg) add(v any) error {
	a.values = append(a.values, v)
	return nil
}

func (a *arrayAgg) result() (any, bool) { return a.values, true }

// ToArray forwards the batch as a []any.
func (p *Pipeline) ToArray() *Pipeline {
	return p.aggregate("toArray", false, func() aggregator { return &arrayAgg{values: []any{}} })
}

type setAgg struct {
	undecided
	key KeyFunc
	set map[any]struct{}
}

func (a *setAgg) add(v any) error {
	k, err := keyOf(a.key, v)
	if err != nil {
		return err
	}
	if !hashable(k) {
		return notHashable("toSet", k)
	}
	a.set[k] = struct{}{}
	return nil
}

func (a *setAgg) result() (any, bool) { return a.set, true }

// ToSet forwards the set of fn(v) over the batch. A nil fn uses the value.
func (p *Pipeline) ToSet(fn KeyFunc) *Pipeline {
	return p.aggregate("toSet", false, func() aggregator {
		return &setAgg{key: fn, set: map[any]struct{}{}}
	})
}

type objectSetAgg struct {
	undecided
	key KeyFunc
	set map[string]bool
}

func (a *objectSetAgg) add(v any) error {
	k, err := keyOf(a.key, v)
	if err != nil {
		return err
	}
	a.set[groupKey(k)] = true
	return nil
}

func (a *objectSetAgg) result() (any, bool) { return a.set, true }

// ToObjectSet forwards a map[string]bool with an entry set to true for the
// string form of each fn(v).
func (p *Pipeline) ToObjectSet(fn KeyFunc) *Pipeline {
	return p.aggregate("toObjectSet", false, func() aggregator {
		return &objectSetAgg{key: fn, set: map[string]bool{}}
	})
}

type objectAgg struct {
	undecided
	entry EntryFunc
	obj   map[string]any
}

func (a *objectAgg) add(v any) error {
	k, val, err := entryOf(a.entry, v)
	if err != nil {
		return err
	}
	a.obj[groupKey(k)] = val
	return nil
}

func (a *objectAgg) result() (any, bool) { return a.obj, true }

// ToObject forwards a map[string]any built from the entries fn returns.
// A nil fn expects each value to be a [key, value] pair. Later entries
// overwrite earlier ones.
func (p *Pipeline) ToObject(fn EntryFunc) *Pipeline {
	return p.aggregate("toObject", false, func() aggregator {
		return &objectAgg{entry: fn, obj: map[string]any{}}
	})
}

type mapAgg struct {
	undecided
	entry EntryFunc
	m     map[any]any
}

func (a *mapAgg) add(v any) error {
	k, val, err := entryOf(a.entry, v)
	if err != nil {
		return err
	}
	if !hashable(k) {
		return notHashable("toMap", k)
	}
	a.m[k] = val
	return nil
}

func (a *mapAgg) result() (any, bool) { return a.m, true }

// ToMap forwards a map[any]any built from the entries fn returns. A nil fn
// expects each value to be a [key, value] pair.
func (p *Pipeline) ToMap(fn EntryFunc) *Pipeline {
	return p.aggregate("toMap", false, func() aggregator {
		return &mapAgg{entry: fn, m: map[any]any{}}
	})
}

type groupAgg struct {
	undecided
	key    KeyFunc
	groups map[string][]any
}

func (a *groupAgg) add(v any) error {
	k, err := keyOf(a.key, v)
	if err != nil {
		return err
	}
	gk := groupKey(k)
	a.groups[gk] = append(a.groups[gk], v)
	return nil
}

func (a *groupAgg) result() (any, bool) { return a.groups, true }

// GroupBy forwards a map from the string form of fn(v) to the values
// sharing it, in arrival order.
func (p *Pipeline) GroupBy(fn KeyFunc) *Pipeline {
	return p.aggregate("groupBy", false, func() aggregator {
		return &groupAgg{key: fn, groups: map[string][]any{}}
	})
}

// GroupByKey groups by the value of the field key.
func (p *Pipeline) GroupByKey(key string) *Pipeline {
	return p.GroupBy(func(v any) (any, error) {
		f, _ := Field(v, key)
		return f, nil
	})
}

func keyOf(fn KeyFunc, v any) (any, error) {
	if fn == nil {
		return v, nil
	}
	return fn(v)
}

func entryOf(fn EntryFunc, v any) (any, any, error) {
	if fn != nil {
		return fn(v)
	}
	pair := elements(v)
	if len(pair) != 2 {
		return nil, nil, errors.InvalidInput("entry", fmt.Sprintf("%T is not a [key, value] pair", v))
	}
	return pair[0], pair[1], nil
}
