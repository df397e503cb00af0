// Package order provides order vectors: hierarchical position tags attached
// to every value flowing through a pipeline.
//
// The i-th root input carries [i]. A stage that derives several values from
// one input (Flatten, for instance) tags each child with the parent vector
// extended by the child's index, so [2] becomes [2 0], [2 1], ... Vectors are
// never mutated in place; Extend always returns a fresh slice.
//
// Compare orders vectors lexicographically, segment by segment, with the
// shorter vector first when one is a prefix of the other. Key returns a
// canonical string encoding suitable for map lookups.
package order
