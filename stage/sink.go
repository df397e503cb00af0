package stage

import (
	"context"
	"sync"

	"github.com/kbukum/lazylists/order"
)

// Sink is the terminal stage. It collects every value the last stage
// forwards and hands them out once per batch through Drain.
type Sink struct {
	mu     sync.Mutex
	values []any
	orders []order.Vector
}

// NewSink returns an empty sink.
func NewSink() *Sink { return &Sink{} }

// Forward records the value. A sink never asks for the feed to stop.
func (s *Sink) Forward(_ context.Context, value any, ord order.Vector) (bool, error) {
	s.mu.Lock()
	s.values = append(s.values, value)
	s.orders = append(s.orders, ord)
	s.mu.Unlock()
	return true, nil
}

// Finalize ends the cascade.
func (s *Sink) Finalize(context.Context) error { return nil }

// Chain returns the empty, always active chain.
func (s *Sink) Chain() Chain { return Chain{} }

// Drain returns the values collected since the last Drain, with their
// order vectors, and resets the sink.
func (s *Sink) Drain() ([]any, []order.Vector) {
	s.mu.Lock()
	defer s.mu.Unlock()
	values, orders := s.values, s.orders
	s.values, s.orders = nil, nil
	return values, orders
}

// Len returns the number of values collected so far.
func (s *Sink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.values)
}
