package main

import (
	"fmt"
	"math"

	"github.com/kbukum/lazylists/definition"
	"github.com/kbukum/lazylists/errors"
	"github.com/kbukum/lazylists/pipeline"
)

// registerBuiltins adds the functions definitions run by lazyrun may name.
func registerBuiltins(reg *definition.Registry) {
	reg.RegisterFunc("identity", func(v any) (any, error) { return v, nil })
	reg.RegisterFunc("negate", func(v any) (any, error) {
		switch n := v.(type) {
		case int:
			return -n, nil
		case float64:
			return -n, nil
		}
		return nil, errors.InvalidInput("negate", fmt.Sprintf("%T is not a number", v))
	})
	reg.RegisterPredicate("truthy", pipeline.Truthy)
	reg.RegisterPredicate("falsy", func(v any) bool { return !pipeline.Truthy(v) })
	reg.RegisterPredicate("isNumber", func(v any) bool {
		_, ok := number(v)
		return ok
	})
	reg.RegisterComparator("asc", pipeline.Natural)
	reg.RegisterComparator("desc", pipeline.Descending(pipeline.Natural))
	reg.RegisterReducer("add", add)
}

// add sums two numbers, staying integral while both are ints. A nil
// accumulator, as reduce starts without a seed, takes the value.
func add(acc, v any) (any, error) {
	if acc == nil {
		return v, nil
	}
	a, aok := acc.(int)
	b, bok := v.(int)
	if aok && bok {
		return a + b, nil
	}
	x, xok := number(acc)
	y, yok := number(v)
	if !xok || !yok {
		return nil, errors.InvalidInput("add", fmt.Sprintf("cannot add %T and %T", acc, v))
	}
	return x + y, nil
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case float64:
		return n, !math.IsNaN(n)
	}
	return 0, false
}
