package pipeline

import (
	"context"

	"github.com/kbukum/lazylists/errors"
	"github.com/kbukum/lazylists/future"
	"github.com/kbukum/lazylists/order"
	"github.com/kbukum/lazylists/stage"
)

// forwardStage is a stateless stage whose behaviour is one function.
type forwardStage struct {
	stage.Base
	fn func(s *forwardStage, ctx context.Context, v any, ord order.Vector) (bool, error)
}

func (s *forwardStage) Forward(ctx context.Context, v any, ord order.Vector) (bool, error) {
	if !s.Active() {
		return false, nil
	}
	return s.fn(s, ctx, v, ord)
}

func stateless(fn func(s *forwardStage, ctx context.Context, v any, ord order.Vector) (bool, error)) stage.Factory {
	return func(w stage.Wiring) stage.Stage {
		return &forwardStage{Base: stage.NewBase(w), fn: fn}
	}
}

// forwardThen forwards v and reports whether upstream may keep feeding.
func (s *forwardStage) forwardThen(ctx context.Context, v any, ord order.Vector) (bool, error) {
	ok, err := s.Next(ctx, v, ord)
	if err != nil {
		return false, err
	}
	return ok && s.Active(), nil
}

// Map forwards fn(v) with the same order.
func (p *Pipeline) Map(fn MapFunc) *Pipeline {
	return p.Then(Operator{Name: "map", Factory: stateless(
		func(s *forwardStage, ctx context.Context, v any, ord order.Vector) (bool, error) {
			out, err := fn(v)
			if err != nil {
				return false, err
			}
			return s.forwardThen(ctx, out, ord)
		})})
}

// Await forwards fn(ctx, v). fn may block, for example on I/O.
func (p *Pipeline) Await(fn AwaitFunc) *Pipeline {
	return p.Then(Operator{Name: "await", Factory: stateless(
		func(s *forwardStage, ctx context.Context, v any, ord order.Vector) (bool, error) {
			out, err := fn(ctx, v)
			if err != nil {
				return false, err
			}
			return s.forwardThen(ctx, out, ord)
		})})
}

// Resolve awaits values that are future.Future and forwards their result.
// Other values pass through. A failed future fails the run.
func (p *Pipeline) Resolve() *Pipeline {
	return p.Then(Operator{Name: "resolve", Factory: stateless(
		func(s *forwardStage, ctx context.Context, v any, ord order.Vector) (bool, error) {
			out, err := future.Resolve(ctx, v)
			if err != nil {
				return false, err
			}
			return s.forwardThen(ctx, out, ord)
		})})
}

// Filter forwards values for which pred holds. Dropped values still count
// as accepted.
func (p *Pipeline) Filter(pred Predicate) *Pipeline {
	return p.Then(Operator{Name: "filter", Factory: stateless(
		func(s *forwardStage, ctx context.Context, v any, ord order.Vector) (bool, error) {
			if !pred(v) {
				return true, nil
			}
			return s.forwardThen(ctx, v, ord)
		})})
}

// Reject forwards values for which pred does not hold.
func (p *Pipeline) Reject(pred Predicate) *Pipeline {
	return p.Then(Operator{Name: "reject", Factory: stateless(
		func(s *forwardStage, ctx context.Context, v any, ord order.Vector) (bool, error) {
			if pred(v) {
				return true, nil
			}
			return s.forwardThen(ctx, v, ord)
		})})
}

// FilterKey forwards values whose field key is truthy.
func (p *Pipeline) FilterKey(key string) *Pipeline {
	return p.Then(Operator{Name: "filterKey", Factory: stateless(
		func(s *forwardStage, ctx context.Context, v any, ord order.Vector) (bool, error) {
			if f, _ := Field(v, key); !Truthy(f) {
				return true, nil
			}
			return s.forwardThen(ctx, v, ord)
		})})
}

// Where forwards values whose fields equal every entry of matcher.
func (p *Pipeline) Where(matcher map[string]any) *Pipeline {
	return p.Then(Operator{Name: "where", Factory: stateless(
		func(s *forwardStage, ctx context.Context, v any, ord order.Vector) (bool, error) {
			for key, want := range matcher {
				got, ok := Field(v, key)
				if !ok || !Equal(got, want) {
					return true, nil
				}
			}
			return s.forwardThen(ctx, v, ord)
		})})
}

// Pick forwards a map holding only the listed fields that are present.
func (p *Pipeline) Pick(keys ...string) *Pipeline {
	return p.Then(Operator{Name: "pick", Factory: stateless(
		func(s *forwardStage, ctx context.Context, v any, ord order.Vector) (bool, error) {
			obj, ok := asObject(v)
			if !ok {
				return false, errors.InvalidInput("pick", "value is not an object")
			}
			out := make(map[string]any, len(keys))
			for _, k := range keys {
				if f, ok := obj[k]; ok {
					out[k] = f
				}
			}
			return s.forwardThen(ctx, out, ord)
		})})
}

// Omit forwards a map without the listed fields.
func (p *Pipeline) Omit(keys ...string) *Pipeline {
	return p.Then(Operator{Name: "omit", Factory: stateless(
		func(s *forwardStage, ctx context.Context, v any, ord order.Vector) (bool, error) {
			obj, ok := asObject(v)
			if !ok {
				return false, errors.InvalidInput("omit", "value is not an object")
			}
			for _, k := range keys {
				delete(obj, k)
			}
			return s.forwardThen(ctx, obj, ord)
		})})
}

// Peek calls fn with each value, then forwards it unchanged.
func (p *Pipeline) Peek(fn func(v any)) *Pipeline {
	return p.Then(Operator{Name: "peek", Factory: stateless(
		func(s *forwardStage, ctx context.Context, v any, ord order.Vector) (bool, error) {
			fn(v)
			return s.forwardThen(ctx, v, ord)
		})})
}

// Flatten forwards the elements of slice and array values one by one,
// each with its index appended to the order. Other values are forwarded
// as a single element.
func (p *Pipeline) Flatten() *Pipeline {
	return p.FlattenWith(nil)
}

// FlattenWith expands each value through fn. fn may return a slice, an
// array or an Iterator; an Iterator is only pulled while downstream keeps
// accepting. A nil fn expands the value itself.
func (p *Pipeline) FlattenWith(fn MapFunc) *Pipeline {
	return p.Then(Operator{Name: "flatten", Factory: stateless(
		func(s *forwardStage, ctx context.Context, v any, ord order.Vector) (bool, error) {
			if fn != nil {
				var err error
				if v, err = fn(v); err != nil {
					return false, err
				}
			}
			it, ok := v.(Iterator)
			if !ok {
				it = FromSlice(elements(v))
			}
			defer it.Close()
			for i := 0; ; i++ {
				if !s.Active() {
					return false, nil
				}
				sub, more, err := it.Next(ctx)
				if err != nil {
					return false, err
				}
				if !more {
					return true, nil
				}
				accepted, err := s.Next(ctx, sub, ord.Extend(i))
				if err != nil {
					return false, err
				}
				if !accepted {
					return false, nil
				}
			}
		})})
}
