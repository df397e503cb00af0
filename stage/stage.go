package stage

import (
	"context"

	"github.com/kbukum/lazylists/order"
)

// Forward pushes one value, tagged with its order vector, into a stage.
type Forward func(ctx context.Context, value any, ord order.Vector) (bool, error)

// FinalizeFunc completes the current batch of a stage.
type FinalizeFunc func(ctx context.Context) error

// Wiring is what a stage knows about its downstream neighbour.
type Wiring struct {
	// Next forwards a value to the downstream stage.
	Next Forward
	// Finalize cascades batch completion downstream.
	Finalize FinalizeFunc
	// Active is the chain composed by all downstream stages.
	Active Chain
}

// Stage is one pipeline node.
type Stage interface {
	Forward(ctx context.Context, value any, ord order.Vector) (bool, error)
	Finalize(ctx context.Context) error
	// Chain returns the active chain to hand to the upstream stage.
	Chain() Chain
}

// Factory creates a fresh Stage for one built pipeline.
type Factory func(w Wiring) Stage

// Base implements Stage by passing everything through to the downstream
// wiring. Stages embed it and override what they need.
type Base struct {
	W Wiring
}

// NewBase returns a pass-through stage bound to w.
func NewBase(w Wiring) Base {
	return Base{W: w}
}

// Forward passes the value to the next stage while the chain is active.
func (b *Base) Forward(ctx context.Context, value any, ord order.Vector) (bool, error) {
	if !b.W.Active.Active() {
		return false, nil
	}
	return b.Next(ctx, value, ord)
}

// Finalize delegates to the downstream finalize.
func (b *Base) Finalize(ctx context.Context) error {
	return b.Downstream(ctx)
}

// Chain returns the downstream chain unchanged.
func (b *Base) Chain() Chain { return b.W.Active }

// Active reports whether the downstream chain still wants input.
func (b *Base) Active() bool { return b.W.Active.Active() }

// Next calls the downstream forward; a nil Next accepts and discards.
func (b *Base) Next(ctx context.Context, value any, ord order.Vector) (bool, error) {
	if b.W.Next == nil {
		return true, nil
	}
	return b.W.Next(ctx, value, ord)
}

// Downstream calls the downstream finalize, if any.
func (b *Base) Downstream(ctx context.Context) error {
	if b.W.Finalize == nil {
		return nil
	}
	return b.W.Finalize(ctx)
}

// PassThrough is the identity stage factory.
func PassThrough() Factory {
	return func(w Wiring) Stage {
		b := NewBase(w)
		return &b
	}
}

// Wire turns a built Stage into the Wiring seen by its upstream neighbour.
func Wire(s Stage) Wiring {
	return Wiring{
		Next:     s.Forward,
		Finalize: s.Finalize,
		Active:   s.Chain(),
	}
}
