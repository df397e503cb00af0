package order

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCompare(t *testing.T) {
	tests := []struct {
		name string
		a, b Vector
		want int
	}{
		{"equal", Vector{1, 2}, Vector{1, 2}, 0},
		{"first segment", Vector{1}, Vector{2}, -1},
		{"numeric not lexical", Vector{10}, Vector{9}, 1},
		{"prefix is smaller", Vector{2}, Vector{2, 0}, -1},
		{"deeper segment", Vector{2, 0, 1}, Vector{2, 0, 0}, 1},
		{"empty vs root", Vector{}, Vector{0}, -1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Compare(tc.a, tc.b); got != tc.want {
				t.Errorf("Compare(%v, %v) = %d, want %d", tc.a, tc.b, got, tc.want)
			}
		})
	}
}

func TestExtend_DoesNotMutate(t *testing.T) {
	base := make(Vector, 1, 4)
	base[0] = 3
	a := base.Extend(0)
	b := base.Extend(1)
	if !a.Equal(Vector{3, 0}) || !b.Equal(Vector{3, 1}) {
		t.Fatalf("got %v and %v", a, b)
	}
	if len(base) != 1 {
		t.Errorf("base was mutated: %v", base)
	}
}

func TestKey_Unambiguous(t *testing.T) {
	keys := map[string]Vector{}
	for _, v := range []Vector{{1, 12}, {11, 2}, {1, 1, 2}, {112}, {}, {0}} {
		k := v.Key()
		if prev, ok := keys[k]; ok {
			t.Fatalf("key %q shared by %v and %v", k, prev, v)
		}
		keys[k] = v
	}
}

func TestParseKey_RoundTrip(t *testing.T) {
	v := Vector{4, 0, 17}
	got, err := ParseKey(v.Key())
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equal(v) {
		t.Errorf("got %v, want %v", got, v)
	}
	if _, err := ParseKey("1.x"); err == nil {
		t.Error("expected error for malformed key")
	}
}

func TestSort(t *testing.T) {
	vs := []Vector{{2, 1}, {0}, {2}, {1, 5}, {2, 0}, {10}}
	Sort(vs)
	want := []Vector{{0}, {1, 5}, {2}, {2, 0}, {2, 1}, {10}}
	if diff := cmp.Diff(want, vs); diff != "" {
		t.Errorf("sort mismatch (-want +got):\n%s", diff)
	}
}

func TestParent(t *testing.T) {
	if got := (Vector{1, 2, 3}).Parent(); !got.Equal(Vector{1, 2}) {
		t.Errorf("got %v", got)
	}
	if got := (Vector{}).Parent(); got != nil {
		t.Errorf("expected nil parent, got %v", got)
	}
	if s := (Vector{1, 2}).String(); s != "[1 2]" {
		t.Errorf("String() = %q", s)
	}
}
