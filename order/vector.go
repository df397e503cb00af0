package order

import (
	"slices"
	"strconv"
	"strings"
)

// Vector is an order vector. The zero value is the empty vector.
type Vector []int

// Root returns the vector of the i-th root input.
func Root(i int) Vector {
	return Vector{i}
}

// Extend returns a new vector with idx appended. The receiver is not modified.
func (v Vector) Extend(idx int) Vector {
	out := make(Vector, len(v), len(v)+1)
	copy(out, v)
	return append(out, idx)
}

// Parent returns the vector with its last segment removed.
func (v Vector) Parent() Vector {
	if len(v) == 0 {
		return nil
	}
	return slices.Clone(v[:len(v)-1])
}

// Depth returns the number of segments.
func (v Vector) Depth() int { return len(v) }

// Key returns the canonical encoding of v ("2.0.1"). Distinct vectors
// always have distinct keys, including vectors of different lengths.
func (v Vector) Key() string {
	if len(v) == 0 {
		return ""
	}
	var b strings.Builder
	for i, seg := range v {
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(strconv.Itoa(seg))
	}
	return b.String()
}

// String implements fmt.Stringer.
func (v Vector) String() string {
	return "[" + strings.ReplaceAll(v.Key(), ".", " ") + "]"
}

// Equal reports whether v and o hold the same segments.
func (v Vector) Equal(o Vector) bool {
	return slices.Equal(v, o)
}

// Less reports whether v sorts before o.
func (v Vector) Less(o Vector) bool {
	return Compare(v, o) < 0
}

// Compare returns -1, 0 or +1. Segments are compared numerically from the
// left; when one vector is a prefix of the other the shorter one is smaller.
func Compare(a, b Vector) int {
	return slices.Compare(a, b)
}

// ParseKey decodes a canonical key produced by Key.
func ParseKey(key string) (Vector, error) {
	if key == "" {
		return Vector{}, nil
	}
	parts := strings.Split(key, ".")
	out := make(Vector, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}

// Sort sorts vectors in place in ascending order.
func Sort(vs []Vector) {
	slices.SortFunc(vs, Compare)
}
