package pipeline

import (
	"context"
	"slices"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/kbukum/lazylists/order"
)

func TestSequenceOperators(t *testing.T) {
	lessThan3 := func(v any) bool { return v.(int) < 3 }
	is3 := func(v any) bool { return v == 3 }
	add := func(acc, v any) (any, error) { return acc.(int) + v.(int), nil }

	tests := []struct {
		name   string
		p      *Pipeline
		inputs []any
		want   []any
	}{
		{"take", quiet("p").Take(2), ints(5), []any{1, 2}},
		{"take more than available", quiet("p").Take(9), ints(2), []any{1, 2}},
		{"take zero", quiet("p").Take(0), ints(2), []any{}},
		{"takeWhile", quiet("p").TakeWhile(lessThan3), []any{1, 2, 5, 1}, []any{1, 2}},
		{"takeUntil", quiet("p").TakeUntil(is3), []any{1, 2, 3, 4}, []any{1, 2}},
		{"takeUntil never", quiet("p").TakeUntil(is3), []any{1, 2}, []any{1, 2}},
		{"takeLast", quiet("p").TakeLast(2), ints(5), []any{4, 5}},
		{"takeLast more than available", quiet("p").TakeLast(9), ints(2), []any{1, 2}},
		{"skip", quiet("p").Skip(2), ints(4), []any{3, 4}},
		{"skipWhile", quiet("p").SkipWhile(lessThan3), []any{1, 2, 3, 1}, []any{3, 1}},
		{"distinct", quiet("p").Distinct(), []any{1, "1", 1, 1.0, "1"}, []any{1, "1"}},
		{"distinctBy", quiet("p").DistinctBy(func(v any) (any, error) { return v.(int) % 3, nil }),
			ints(6), []any{1, 2, 3}},
		{"distinctByKey", quiet("p").DistinctByKey("admin"), people, []any{people[0], people[1], people[2]}},
		{"default unused", quiet("p").Default(0), ints(2), []any{1, 2}},
		{"default used", quiet("p").Filter(func(any) bool { return false }).Default(0), ints(2), []any{0}},
		{"scan", quiet("p").Scan(add, 10), ints(3), []any{11, 13, 16}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, invoke(t, tt.p, tt.inputs...)); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestTake_StopsUpstream(t *testing.T) {
	var produced atomic.Int32
	p := quiet("p").Peek(func(any) { produced.Add(1) }).Map(double).Take(2)
	got := invoke(t, p, ints(10)...)
	if diff := cmp.Diff([]any{2, 4}, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
	if n := produced.Load(); n != 2 {
		t.Errorf("upstream saw %d values, want 2", n)
	}
}

func TestTake_ChainOwnership(t *testing.T) {
	s, _ := buildOne(t, quiet("p").Take(1))
	if diff := cmp.Diff([]string{"take"}, s.Chain().Owners()); diff != "" {
		t.Errorf("owners (-want +got):\n%s", diff)
	}
	ctx := context.Background()
	if ok, _ := s.Forward(ctx, 1, order.Root(0)); ok {
		t.Error("expected the quota-filling forward to report stop")
	}
	if diff := cmp.Diff([]string{"take"}, s.Chain().Inactive()); diff != "" {
		t.Errorf("inactive (-want +got):\n%s", diff)
	}
	if err := s.Finalize(ctx); err != nil {
		t.Fatal(err)
	}
	if !s.Chain().Active() {
		t.Error("expected finalize to reopen the chain")
	}
}

func TestTakeWhile_Monotonic(t *testing.T) {
	tests := []struct {
		name string
		p    *Pipeline
	}{
		{"takeWhile", quiet("p").TakeWhile(func(v any) bool { return v.(int) < 3 })},
		{"takeUntil", quiet("p").TakeUntil(func(v any) bool { return v.(int) >= 3 })},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, sink := buildOne(t, tt.p)
			ctx := context.Background()
			for i, v := range []int{1, 5, 2, 1} {
				ok, err := s.Forward(ctx, v, order.Root(i))
				if err != nil {
					t.Fatal(err)
				}
				if want := i == 0; ok != want {
					t.Errorf("Forward(%d) = %v, want %v", v, ok, want)
				}
			}
			if s.Chain().Active() {
				t.Error("expected the chain to stay inactive")
			}
			values, _ := sink.Drain()
			if diff := cmp.Diff([]any{1}, values); diff != "" {
				t.Errorf("forwarded (-want +got):\n%s", diff)
			}

			if err := s.Finalize(ctx); err != nil {
				t.Fatal(err)
			}
			if ok, _ := s.Forward(ctx, 2, order.Root(0)); !ok {
				t.Error("expected a new batch to forward again")
			}
		})
	}
}

func TestScan_SerializesConcurrentArrivals(t *testing.T) {
	add := func(acc, v any) (any, error) { return acc.(int) + v.(int), nil }
	got := invoke(t, quiet("p").Parallel().Scan(add, 0).ToArray(), ints(20)...).([]any)
	if len(got) != 20 {
		t.Fatalf("got %d values, want 20", len(got))
	}
	sums := make([]int, len(got))
	for i, v := range got {
		sums[i] = v.(int)
	}
	if !slices.IsSorted(sums) || sums[19] != 210 {
		t.Errorf("expected increasing running sums ending at 210, got %v", sums)
	}
}

func TestDefault_NotOnSecondBatchWhenFed(t *testing.T) {
	r := quiet("p").Default("none").Build()
	ctx := context.Background()
	got, _ := r.Batch(ctx)
	if diff := cmp.Diff([]any{"none"}, got); diff != "" {
		t.Errorf("empty batch (-want +got):\n%s", diff)
	}
	got, _ = r.Batch(ctx, "x")
	if diff := cmp.Diff([]any{"x"}, got); diff != "" {
		t.Errorf("fed batch (-want +got):\n%s", diff)
	}
}
