package pipeline

import (
	"cmp"
	"fmt"
	"reflect"
	"strings"

	"github.com/kbukum/lazylists/errors"
)

// Field returns the value stored under key in a map with string keys or
// an exported struct field named key. Pointers are followed.
func Field(v any, key string) (any, bool) {
	switch m := v.(type) {
	case map[string]any:
		f, ok := m[key]
		return f, ok
	case nil:
		return nil, false
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, false
		}
		f := rv.MapIndex(reflect.ValueOf(key).Convert(rv.Type().Key()))
		if !f.IsValid() {
			return nil, false
		}
		return f.Interface(), true
	case reflect.Struct:
		f := rv.FieldByName(key)
		if !f.IsValid() || !f.CanInterface() {
			return nil, false
		}
		return f.Interface(), true
	}
	return nil, false
}

// asObject returns a shallow copy of v as map[string]any.
func asObject(v any) (map[string]any, bool) {
	if m, ok := v.(map[string]any); ok {
		out := make(map[string]any, len(m))
		for k, f := range m {
			out[k] = f
		}
		return out, true
	}
	if v == nil {
		return nil, false
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, false
		}
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[iter.Key().String()] = iter.Value().Interface()
		}
		return out, true
	case reflect.Struct:
		t := rv.Type()
		out := make(map[string]any, t.NumField())
		for i := range t.NumField() {
			if t.Field(i).IsExported() {
				out[t.Field(i).Name] = rv.Field(i).Interface()
			}
		}
		return out, true
	}
	return nil, false
}

// Equal reports whether a and b hold the same value. Numbers compare by
// value across numeric types; everything else uses reflect.DeepEqual.
func Equal(a, b any) bool {
	fa, aok := toFloat(a)
	fb, bok := toFloat(b)
	if aok && bok {
		return fa == fb
	}
	return reflect.DeepEqual(a, b)
}

// Truthy reports whether v counts as true: non-nil, non-zero, non-empty.
func Truthy(v any) bool {
	if v == nil {
		return false
	}
	switch x := v.(type) {
	case bool:
		return x
	case string:
		return x != ""
	}
	if f, ok := toFloat(v); ok {
		return f != 0
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map:
		return !rv.IsNil()
	case reflect.Pointer, reflect.Interface, reflect.Chan, reflect.Func:
		return !rv.IsNil()
	}
	return true
}

// Key returns a canonical string for v, used for seen-sets and grouping.
// Numbers of different types holding the same value share a key.
func Key(v any) string {
	if s, ok := v.(string); ok {
		return "s:" + s
	}
	if f, ok := toFloat(v); ok {
		return fmt.Sprintf("n:%v", f)
	}
	return fmt.Sprintf("%T:%#v", v, v)
}

// groupKey renders a grouping key the way a JSON object key would read.
func groupKey(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func toInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return int64(n), true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		return int64(n), true
	}
	return 0, false
}

// Natural orders numbers numerically, strings lexically and bools false
// first. Values of unrelated kinds are ordered by their type name.
func Natural(a, b any) int {
	fa, aok := toFloat(a)
	fb, bok := toFloat(b)
	if aok && bok {
		return cmp.Compare(fa, fb)
	}
	sa, aok := a.(string)
	sb, bok := b.(string)
	if aok && bok {
		return strings.Compare(sa, sb)
	}
	ba, aok := a.(bool)
	bb, bok := b.(bool)
	if aok && bok {
		switch {
		case ba == bb:
			return 0
		case !ba:
			return -1
		default:
			return 1
		}
	}
	return strings.Compare(fmt.Sprintf("%T", a), fmt.Sprintf("%T", b))
}

// Descending reverses a comparator.
func Descending(c Comparator) Comparator {
	if c == nil {
		c = Natural
	}
	return func(a, b any) int { return c(b, a) }
}

// elements expands v into its sub-values. Slices and arrays expand by
// index; anything else, strings included, is a single element.
func elements(v any) []any {
	switch s := v.(type) {
	case []any:
		return s
	case nil:
		return []any{nil}
	case string:
		return []any{s}
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return []any{v}
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out
}

// hashable reports whether v can be used as a Go map key.
func hashable(v any) bool {
	if v == nil {
		return true
	}
	return reflect.ValueOf(v).Comparable()
}

func notHashable(op string, v any) error {
	return errors.InvalidInput(op, fmt.Sprintf("%T cannot be used as a key", v))
}
