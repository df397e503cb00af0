package pipeline

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/kbukum/lazylists/future"
)

func identity(v any) (any, error) { return v, nil }

func TestSequentialOrderIgnoresLatency(t *testing.T) {
	p := quiet("p").Resolve().Map(identity).Reduce(func(acc, v any) (any, error) {
		return append(acc.([]any), v), nil
	}, []any{})
	got := invoke(t, p,
		future.After(30*time.Millisecond, 30),
		future.After(20*time.Millisecond, 20),
	)
	if diff := cmp.Diff([]any{30, 20}, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestSequentialFeed_OneInputAtATime(t *testing.T) {
	var inFlight, peak atomic.Int32
	p := quiet("p").Await(func(_ context.Context, v any) (any, error) {
		if n := inFlight.Add(1); n > peak.Load() {
			peak.Store(n)
		}
		time.Sleep(2 * time.Millisecond)
		inFlight.Add(-1)
		return v, nil
	})
	invoke(t, p, ints(5)...)
	if n := peak.Load(); n != 1 {
		t.Errorf("peak in-flight inputs %d, want 1", n)
	}
}

func TestParallelOrderedRestoresInputOrder(t *testing.T) {
	obj := func(i int) map[string]any {
		return map[string]any{"a": i, "b": i * 10, "c": "dropped"}
	}
	inputs := []any{
		future.After(60*time.Millisecond, obj(0)),
		future.After(10*time.Millisecond, obj(1)),
		obj(2),
		future.After(45*time.Millisecond, obj(3)),
		future.After(0, obj(4)),
		future.After(25*time.Millisecond, obj(5)),
	}
	p := quiet("p").Parallel().Resolve().Pick("a", "b").Ordered().Reduce(func(acc, v any) (any, error) {
		return append(acc.([]any), v), nil
	}, []any{})

	want := make([]any, 6)
	for i := range want {
		want[i] = map[string]any{"a": i, "b": i * 10}
	}
	if diff := cmp.Diff(want, invoke(t, p, inputs...)); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestFlattenOneLevelPerApplication(t *testing.T) {
	inputs := []any{
		[]any{[]any{1, 2, 3}, []any{4, 3, 1}},
		[]any{[]any{3, 2, 1}, []any{2, 2, 2}},
	}
	once := invoke(t, quiet("p").Flatten().ToArray(), inputs...)
	wantOnce := []any{[]any{1, 2, 3}, []any{4, 3, 1}, []any{3, 2, 1}, []any{2, 2, 2}}
	if diff := cmp.Diff(wantOnce, once); diff != "" {
		t.Errorf("flatten once (-want +got):\n%s", diff)
	}
	twice := invoke(t, quiet("p").Flatten().Flatten().ToArray(), inputs...)
	wantTwice := []any{1, 2, 3, 4, 3, 1, 3, 2, 1, 2, 2, 2}
	if diff := cmp.Diff(wantTwice, twice); diff != "" {
		t.Errorf("flatten twice (-want +got):\n%s", diff)
	}
}

func TestSomeEveryStopConsuming(t *testing.T) {
	tests := []struct {
		name   string
		p      func(peek func(any)) *Pipeline
		want   bool
		peeked []any
	}{
		{"some", func(peek func(any)) *Pipeline {
			return quiet("p").Peek(peek).Some(func(v any) bool { return v == 2 })
		}, true, []any{1, 2}},
		{"every", func(peek func(any)) *Pipeline {
			return quiet("p").Peek(peek).Every(func(v any) bool { return v.(int) < 3 })
		}, false, []any{1, 2, 3}},
		{"some undecided", func(peek func(any)) *Pipeline {
			return quiet("p").Peek(peek).Some(func(v any) bool { return v == 9 })
		}, false, []any{1, 2, 3, 4, 5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var peeked []any
			got := invoke(t, tt.p(func(v any) { peeked = append(peeked, v) }), ints(5)...)
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
			if diff := cmp.Diff(tt.peeked, peeked); diff != "" {
				t.Errorf("peeked (-want +got):\n%s", diff)
			}
		})
	}
}
