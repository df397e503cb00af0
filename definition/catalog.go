package definition

import (
	"github.com/kbukum/lazylists/logger"
	"github.com/kbukum/lazylists/pipeline"
)

// paramNames maps each parameter to its YAML key.
var paramNames = []struct {
	p    params
	name string
}{
	{pFn, "fn"}, {pKey, "key"}, {pKeys, "keys"}, {pN, "n"},
	{pValue, "value"}, {pSeed, "seed"}, {pMatch, "match"}, {pDesc, "desc"},
}

// set reports which parameters s carries.
func (s Stage) set() params {
	var p params
	if s.Fn != "" {
		p |= pFn
	}
	if s.Key != "" {
		p |= pKey
	}
	if len(s.Keys) > 0 {
		p |= pKeys
	}
	if s.N != nil {
		p |= pN
	}
	if s.Value != nil {
		p |= pValue
	}
	if s.Seed != nil {
		p |= pSeed
	}
	if len(s.Match) > 0 {
		p |= pMatch
	}
	if s.Desc {
		p |= pDesc
	}
	return p
}

// paramSpec describes the parameters of an operator.
type paramSpec struct {
	requires params
	accepts  params
	// either lists parameters of which at most one may be set; with
	// needOne exactly one.
	either  params
	needOne bool
}

func (s paramSpec) allowed() params { return s.requires | s.accepts | s.either }

func op(s paramSpec, b Builder) operator {
	return operator{spec: s, build: b}
}

func plain(f func(p *pipeline.Pipeline) *pipeline.Pipeline) operator {
	return op(paramSpec{}, func(p *pipeline.Pipeline, _ Stage, _ *Registry) (*pipeline.Pipeline, error) {
		return f(p), nil
	})
}

func withPredicate(f func(p *pipeline.Pipeline, pred pipeline.Predicate) *pipeline.Pipeline) operator {
	return op(paramSpec{requires: pFn}, func(p *pipeline.Pipeline, s Stage, r *Registry) (*pipeline.Pipeline, error) {
		pred, err := r.Predicate(s.Fn)
		if err != nil {
			return nil, err
		}
		return f(p, pred), nil
	})
}

func withN(f func(p *pipeline.Pipeline, n int) *pipeline.Pipeline) operator {
	return op(paramSpec{requires: pN}, func(p *pipeline.Pipeline, s Stage, _ *Registry) (*pipeline.Pipeline, error) {
		return f(p, *s.N), nil
	})
}

func withReducer(f func(p *pipeline.Pipeline, fn pipeline.ReduceFunc, seed any) *pipeline.Pipeline) operator {
	return op(paramSpec{requires: pFn, accepts: pSeed}, func(p *pipeline.Pipeline, s Stage, r *Registry) (*pipeline.Pipeline, error) {
		fn, err := r.Reducer(s.Fn)
		if err != nil {
			return nil, err
		}
		return f(p, fn, s.Seed), nil
	})
}

func withComparator(f func(p *pipeline.Pipeline, cmp pipeline.Comparator) *pipeline.Pipeline) operator {
	return op(paramSpec{accepts: pFn | pDesc}, func(p *pipeline.Pipeline, s Stage, r *Registry) (*pipeline.Pipeline, error) {
		cmp := pipeline.Comparator(pipeline.Natural)
		if s.Fn != "" {
			var err error
			if cmp, err = r.Comparator(s.Fn); err != nil {
				return nil, err
			}
		}
		if s.Desc {
			cmp = pipeline.Descending(cmp)
		}
		return f(p, cmp), nil
	})
}

// withKey resolves fn as a key function, or key as a field lookup.
func withKey(needOne bool, f func(p *pipeline.Pipeline, fn pipeline.KeyFunc) *pipeline.Pipeline) operator {
	return op(paramSpec{either: pFn | pKey, needOne: needOne}, func(p *pipeline.Pipeline, s Stage, r *Registry) (*pipeline.Pipeline, error) {
		var fn pipeline.KeyFunc
		switch {
		case s.Fn != "":
			var err error
			if fn, err = r.Key(s.Fn); err != nil {
				return nil, err
			}
		case s.Key != "":
			key := s.Key
			fn = func(v any) (any, error) {
				f, _ := pipeline.Field(v, key)
				return f, nil
			}
		}
		return f(p, fn), nil
	})
}

func withEntry(f func(p *pipeline.Pipeline, fn pipeline.EntryFunc) *pipeline.Pipeline) operator {
	return op(paramSpec{accepts: pFn}, func(p *pipeline.Pipeline, s Stage, r *Registry) (*pipeline.Pipeline, error) {
		var fn pipeline.EntryFunc
		if s.Fn != "" {
			var err error
			if fn, err = r.Entry(s.Fn); err != nil {
				return nil, err
			}
		}
		return f(p, fn), nil
	})
}

// catalog returns the built-in operators by name.
func catalog() map[string]operator {
	return map[string]operator{
		"map": op(paramSpec{requires: pFn}, func(p *pipeline.Pipeline, s Stage, r *Registry) (*pipeline.Pipeline, error) {
			fn, err := r.Map(s.Fn)
			if err != nil {
				return nil, err
			}
			return p.Map(fn), nil
		}),
		"await": op(paramSpec{requires: pFn}, func(p *pipeline.Pipeline, s Stage, r *Registry) (*pipeline.Pipeline, error) {
			fn, err := r.Await(s.Fn)
			if err != nil {
				return nil, err
			}
			return p.Await(fn), nil
		}),
		"resolve": plain((*pipeline.Pipeline).Resolve),
		"filter":  withPredicate((*pipeline.Pipeline).Filter),
		"reject":  withPredicate((*pipeline.Pipeline).Reject),
		"filterKey": op(paramSpec{requires: pKey}, func(p *pipeline.Pipeline, s Stage, _ *Registry) (*pipeline.Pipeline, error) {
			return p.FilterKey(s.Key), nil
		}),
		"where": op(paramSpec{requires: pMatch}, func(p *pipeline.Pipeline, s Stage, _ *Registry) (*pipeline.Pipeline, error) {
			return p.Where(s.Match), nil
		}),
		"pick": op(paramSpec{requires: pKeys}, func(p *pipeline.Pipeline, s Stage, _ *Registry) (*pipeline.Pipeline, error) {
			return p.Pick(s.Keys...), nil
		}),
		"omit": op(paramSpec{requires: pKeys}, func(p *pipeline.Pipeline, s Stage, _ *Registry) (*pipeline.Pipeline, error) {
			return p.Omit(s.Keys...), nil
		}),
		"peek": op(paramSpec{accepts: pFn}, func(p *pipeline.Pipeline, s Stage, r *Registry) (*pipeline.Pipeline, error) {
			if s.Fn == "" {
				log := r.log
				return p.Peek(func(v any) {
					log.Debug("peek", logger.Fields("pipeline", p.Name(), "value", v))
				}), nil
			}
			fn, err := r.Map(s.Fn)
			if err != nil {
				return nil, err
			}
			return p.Peek(func(v any) { _, _ = fn(v) }), nil
		}),
		"flatten": op(paramSpec{accepts: pFn}, func(p *pipeline.Pipeline, s Stage, r *Registry) (*pipeline.Pipeline, error) {
			if s.Fn == "" {
				return p.Flatten(), nil
			}
			fn, err := r.Map(s.Fn)
			if err != nil {
				return nil, err
			}
			return p.FlattenWith(fn), nil
		}),
		"take":      withN((*pipeline.Pipeline).Take),
		"takeWhile": withPredicate((*pipeline.Pipeline).TakeWhile),
		"takeUntil": withPredicate((*pipeline.Pipeline).TakeUntil),
		"takeLast":  withN((*pipeline.Pipeline).TakeLast),
		"skip":      withN((*pipeline.Pipeline).Skip),
		"skipWhile": withPredicate((*pipeline.Pipeline).SkipWhile),
		"distinct":  plain((*pipeline.Pipeline).Distinct),
		"distinctBy": op(paramSpec{requires: pFn}, func(p *pipeline.Pipeline, s Stage, r *Registry) (*pipeline.Pipeline, error) {
			fn, err := r.Key(s.Fn)
			if err != nil {
				return nil, err
			}
			return p.DistinctBy(fn), nil
		}),
		"distinctByKey": op(paramSpec{requires: pKey}, func(p *pipeline.Pipeline, s Stage, _ *Registry) (*pipeline.Pipeline, error) {
			return p.DistinctByKey(s.Key), nil
		}),
		"default": op(paramSpec{requires: pValue}, func(p *pipeline.Pipeline, s Stage, _ *Registry) (*pipeline.Pipeline, error) {
			return p.Default(s.Value), nil
		}),
		"scan": withReducer((*pipeline.Pipeline).Scan),
		"parallel": op(paramSpec{accepts: pN}, func(p *pipeline.Pipeline, s Stage, _ *Registry) (*pipeline.Pipeline, error) {
			if s.N == nil {
				return p.Parallel(), nil
			}
			return p.ParallelN(*s.N), nil
		}),
		"ordered": plain((*pipeline.Pipeline).Ordered),
		"sort":    withComparator((*pipeline.Pipeline).Sort),
		"reverse": plain((*pipeline.Pipeline).Reverse),

		"reduce":      withReducer((*pipeline.Pipeline).Reduce),
		"sum":         plain((*pipeline.Pipeline).Sum),
		"count":       plain((*pipeline.Pipeline).Count),
		"min":         withComparator((*pipeline.Pipeline).Min),
		"max":         withComparator((*pipeline.Pipeline).Max),
		"some":        withPredicate((*pipeline.Pipeline).Some),
		"every":       withPredicate((*pipeline.Pipeline).Every),
		"first":       plain((*pipeline.Pipeline).First),
		"toArray":     plain((*pipeline.Pipeline).ToArray),
		"toSet":       withKey(false, (*pipeline.Pipeline).ToSet),
		"toObjectSet": withKey(false, (*pipeline.Pipeline).ToObjectSet),
		"toObject":    withEntry((*pipeline.Pipeline).ToObject),
		"toMap":       withEntry((*pipeline.Pipeline).ToMap),
		"groupBy":     withKey(true, (*pipeline.Pipeline).GroupBy),
	}
}
