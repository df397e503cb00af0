package pipeline

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/kbukum/lazylists/errors"
	"github.com/kbukum/lazylists/future"
	"github.com/kbukum/lazylists/order"
)

var people = []any{
	map[string]any{"name": "ann", "age": 31, "admin": true},
	map[string]any{"name": "bob", "age": 17, "admin": false},
	map[string]any{"name": "cid", "age": 45},
}

func TestMap(t *testing.T) {
	got := invoke(t, quiet("p").Map(double), 1, 2, 3)
	if diff := cmp.Diff([]any{2, 4, 6}, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestAwait_ReceivesContext(t *testing.T) {
	type key struct{}
	ctx := context.WithValue(context.Background(), key{}, "x")
	p := quiet("p").Await(func(ctx context.Context, v any) (any, error) {
		return ctx.Value(key{}).(string) + v.(string), nil
	})
	got, err := p.Invoke(ctx, "a", "b")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]any{"xa", "xb"}, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestResolve(t *testing.T) {
	nested := future.Resolved(future.After(5*time.Millisecond, "deep"))
	got := invoke(t, quiet("p").Resolve(), future.Resolved(1), "plain", nested)
	if diff := cmp.Diff([]any{1, "plain", "deep"}, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestFilterReject(t *testing.T) {
	if diff := cmp.Diff([]any{1, 3, 5}, invoke(t, quiet("p").Filter(isOdd), ints(5)...)); diff != "" {
		t.Errorf("filter (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]any{2, 4}, invoke(t, quiet("p").Reject(isOdd), ints(5)...)); diff != "" {
		t.Errorf("reject (-want +got):\n%s", diff)
	}
}

func TestFilter_DroppedValueIsAccepted(t *testing.T) {
	s, sink := buildOne(t, quiet("p").Filter(isOdd))
	ok, err := s.Forward(context.Background(), 2, order.Root(0))
	if err != nil || !ok {
		t.Errorf("Forward(dropped) = %v, %v; want true, nil", ok, err)
	}
	if sink.Len() != 0 {
		t.Errorf("dropped value reached the sink")
	}
}

func TestFilterKey(t *testing.T) {
	got := invoke(t, quiet("p").FilterKey("admin").Pick("name"), people...)
	if diff := cmp.Diff([]any{map[string]any{"name": "ann"}}, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestWhere(t *testing.T) {
	type user struct {
		Name string
		Age  int
	}
	tests := []struct {
		name    string
		matcher map[string]any
		inputs  []any
		want    int
	}{
		{"map match", map[string]any{"age": 17}, people, 1},
		{"numeric types", map[string]any{"age": 31.0}, people, 1},
		{"missing key", map[string]any{"admin": nil}, people, 0},
		{"several keys", map[string]any{"name": "ann", "admin": true}, people, 1},
		{"empty matcher", map[string]any{}, people, 3},
		{"struct", map[string]any{"Name": "eve"}, []any{user{"eve", 3}, &user{"eve", 4}, user{"zed", 5}}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := invoke(t, quiet("p").Where(tt.matcher), tt.inputs...).([]any)
			if len(got) != tt.want {
				t.Errorf("got %d values, want %d: %v", len(got), tt.want, got)
			}
		})
	}
}

func TestPickOmit(t *testing.T) {
	got := invoke(t, quiet("p").Pick("name", "missing"), people[0])
	if diff := cmp.Diff([]any{map[string]any{"name": "ann"}}, got); diff != "" {
		t.Errorf("pick (-want +got):\n%s", diff)
	}
	got = invoke(t, quiet("p").Omit("admin", "age"), people[0])
	if diff := cmp.Diff([]any{map[string]any{"name": "ann"}}, got); diff != "" {
		t.Errorf("omit (-want +got):\n%s", diff)
	}
	if _, ok := people[0].(map[string]any)["admin"]; !ok {
		t.Error("omit mutated its input")
	}
}

func TestPick_StructAndTypedMap(t *testing.T) {
	type point struct{ X, Y, z int }
	got := invoke(t, quiet("p").Pick("X", "z"), point{1, 2, 3}, map[string]int{"X": 9})
	want := []any{map[string]any{"X": 1}, map[string]any{"X": 9}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestPick_NotAnObject(t *testing.T) {
	_, err := quiet("p").Pick("a").Invoke(context.Background(), 42)
	if !errors.HasCode(err, errors.ErrCodeInvalidInput) {
		t.Errorf("expected INVALID_INPUT, got %v", err)
	}
}

func TestPeek(t *testing.T) {
	var seen []any
	got := invoke(t, quiet("p").Peek(func(v any) { seen = append(seen, v) }).Map(double), 1, 2)
	if diff := cmp.Diff([]any{1, 2}, seen); diff != "" {
		t.Errorf("peeked (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]any{2, 4}, got); diff != "" {
		t.Errorf("output (-want +got):\n%s", diff)
	}
}

func TestFlatten_Orders(t *testing.T) {
	s, sink := buildOne(t, quiet("p").Flatten())
	ctx := context.Background()
	if _, err := s.Forward(ctx, []int{7, 8}, order.Root(2)); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Forward(ctx, "str", order.Root(3)); err != nil {
		t.Fatal(err)
	}
	values, orders := sink.Drain()
	if diff := cmp.Diff([]any{7, 8, "str"}, values); diff != "" {
		t.Errorf("values (-want +got):\n%s", diff)
	}
	want := []order.Vector{{2, 0}, {2, 1}, {3, 0}}
	if diff := cmp.Diff(want, orders); diff != "" {
		t.Errorf("orders (-want +got):\n%s", diff)
	}
}

func TestFlatten_StopsOnRejection(t *testing.T) {
	var expanded []any
	p := quiet("p").FlattenWith(func(v any) (any, error) {
		n := v.(int)
		return FromFunc(func(context.Context) (any, bool, error) {
			expanded = append(expanded, n)
			n++
			return n - 1, true, nil
		}), nil
	}).Take(3)
	got := invoke(t, p, 10)
	if diff := cmp.Diff([]any{10, 11, 12}, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
	if len(expanded) != 3 {
		t.Errorf("pulled %d sub-values from an infinite iterator, want 3", len(expanded))
	}
}

func TestFlattenWith(t *testing.T) {
	split := func(v any) (any, error) { return strings.Split(v.(string), ","), nil }
	got := invoke(t, quiet("p").FlattenWith(split), "a,b", "c")
	if diff := cmp.Diff([]any{"a", "b", "c"}, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}
