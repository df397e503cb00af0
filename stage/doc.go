// Package stage defines the contract every pipeline node implements.
//
// A Factory receives the downstream Wiring (the next stage's Forward and
// Finalize, plus the active chain composed by every downstream stage) and
// returns a Stage. Embedding Base gives pass-through defaults, so a stage
// only overrides the capabilities it needs:
//
//   - Forward(ctx, value, order) accepts one value. It returns true to let
//     the upstream producer keep feeding, false to ask it to stop.
//   - Finalize(ctx) flushes whatever the stage buffered for the current
//     batch, resets its state and cascades to the downstream Finalize.
//   - Chain() returns the active chain handed to the upstream stage,
//     usually the downstream chain extended with the stage's own condition.
//
// The active chain is how early termination travels toward the producer:
// Take(3) adds "taken < 3", and once that turns false every upstream stage
// and the driver stop doing work for the rest of the batch.
package stage
