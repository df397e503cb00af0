// Package pipeline builds and runs lazy, composable pipelines of stages.
//
// A Pipeline is an immutable list of operators. Build wires one stage per
// operator, from the terminal sink backwards, and returns a Runner that
// feeds root inputs into the head stage one at a time. Each stage may
// forward, transform, drop or buffer a value; buffering stages flush when
// the batch is finalized.
//
// Downstream stages tell upstream ones to stop through the active chain
// (see package stage): once Take has its quota, or Some has its answer, the
// driver stops pulling inputs and stages stop producing.
//
// # Operators
//
// Per value:
//
//   - Map, Await, Resolve: transform each value
//   - Filter, Reject, FilterKey, Where: drop values
//   - Pick, Omit: project map values
//   - Peek: side effect without altering the value
//   - Flatten, FlattenWith: expand a value into its elements
//
// Per batch:
//
//   - Take, TakeWhile, TakeUntil, TakeLast, Skip, SkipWhile
//   - Distinct, DistinctBy, DistinctByKey, Default, Scan
//   - Sort, Reverse, Ordered
//   - Parallel, ParallelN: defer forwards and run them concurrently
//
// Aggregates, forwarding one value per batch:
//
//   - Reduce, Sum, Count, Min, Max, Some, Every, First
//   - ToArray, ToSet, ToObject, ToMap, ToObjectSet, GroupBy, GroupByKey
//
// Custom stages plug in through Use and UseAggregate with any
// stage.Factory. Barrier splits a pipeline into phases: the outputs of one
// phase are the inputs of the next.
//
// # Usage
//
//	p := pipeline.New("adults").
//		Resolve().
//		Filter(func(v any) bool { return v.(map[string]any)["age"].(int) >= 18 }).
//		Pick("name").
//		Take(3).
//		ToArray()
//	names, err := p.Invoke(ctx, users...)
//
// Concurrent work with order restored:
//
//	p := pipeline.New("fetch").
//		Parallel().
//		Await(fetch).
//		Ordered().
//		ToArray()
//
// Stages after Parallel receive concurrent forwards. Every built-in stage
// is safe for that; custom stages placed there must be too.
package pipeline
