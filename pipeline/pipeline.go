package pipeline

import (
	"context"
	"slices"

	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/lazylists/logger"
	"github.com/kbukum/lazylists/observability"
	"github.com/kbukum/lazylists/stage"
)

// Callback signatures accepted by the operator catalog. A callback that
// panics fails the run with a STAGE_PANIC error.
type (
	// MapFunc transforms one value.
	MapFunc func(v any) (any, error)
	// AwaitFunc transforms one value and may block on ctx.
	AwaitFunc func(ctx context.Context, v any) (any, error)
	// Predicate tests one value.
	Predicate func(v any) bool
	// KeyFunc derives a key from a value.
	KeyFunc func(v any) (any, error)
	// EntryFunc derives a key/value entry from a value.
	EntryFunc func(v any) (key, value any, err error)
	// ReduceFunc folds a value into an accumulator.
	ReduceFunc func(acc, v any) (any, error)
	// Comparator orders two values: negative, zero or positive.
	Comparator func(a, b any) int
)

// Operator is one declared stage: a factory plus how its output is shaped.
type Operator struct {
	Name    string
	Factory stage.Factory
	// Aggregate marks operators that forward a single value per batch.
	// Invoke returns that value directly when the last operator is one.
	Aggregate bool
}

// Pipeline is an immutable list of operators split into phases. Every
// builder method returns a new Pipeline, so a prefix can be shared by
// several branches.
type Pipeline struct {
	name   string
	phases [][]Operator
	opts   options
}

type options struct {
	log         *logger.Logger
	tracer      trace.Tracer
	metrics     *observability.Metrics
	maxParallel int
}

// Option configures a Pipeline.
type Option func(*options)

// WithLogger sets the logger used for run diagnostics.
func WithLogger(l *logger.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithTracer sets the tracer for run and phase spans.
func WithTracer(t trace.Tracer) Option {
	return func(o *options) { o.tracer = t }
}

// WithMetrics records run metrics on m.
func WithMetrics(m *observability.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithMaxParallel bounds the goroutines a Parallel stage runs at once.
// Zero or less means unbounded.
func WithMaxParallel(n int) Option {
	return func(o *options) { o.maxParallel = n }
}

// New returns an empty pipeline. An empty pipeline forwards its inputs
// unchanged.
func New(name string, opts ...Option) *Pipeline {
	p := &Pipeline{name: name, phases: [][]Operator{nil}}
	for _, opt := range opts {
		opt(&p.opts)
	}
	if p.opts.log == nil {
		p.opts.log = logger.Get("pipeline")
	}
	return p
}

// Name returns the pipeline name.
func (p *Pipeline) Name() string { return p.name }

// With returns a copy of p with additional options applied.
func (p *Pipeline) With(opts ...Option) *Pipeline {
	c := p.clone()
	for _, opt := range opts {
		opt(&c.opts)
	}
	return c
}

// Then appends op to the current phase.
func (p *Pipeline) Then(op Operator) *Pipeline {
	c := p.clone()
	last := len(c.phases) - 1
	c.phases[last] = append(c.phases[last], op)
	return c
}

// Use appends a custom stage factory.
func (p *Pipeline) Use(name string, f stage.Factory) *Pipeline {
	return p.Then(Operator{Name: name, Factory: f})
}

// UseAggregate appends a custom stage factory whose single output per
// batch is the result of Invoke.
func (p *Pipeline) UseAggregate(name string, f stage.Factory) *Pipeline {
	return p.Then(Operator{Name: name, Factory: f, Aggregate: true})
}

// Barrier closes the current phase. Everything the phase outputs after
// its finalize becomes the input of the next phase, with fresh root
// orders in output order.
func (p *Pipeline) Barrier() *Pipeline {
	c := p.clone()
	c.phases = append(c.phases, nil)
	return c
}

// Phases returns the operator names of each phase.
func (p *Pipeline) Phases() [][]string {
	out := make([][]string, len(p.phases))
	for i, ops := range p.phases {
		out[i] = operatorNames(ops)
	}
	return out
}

// Operators returns the names of all operators in declaration order.
func (p *Pipeline) Operators() []string {
	var names []string
	for _, ops := range p.phases {
		names = append(names, operatorNames(ops)...)
	}
	return names
}

// endsInAggregate reports whether the last declared operator is an aggregate.
func (p *Pipeline) endsInAggregate() bool {
	for i := len(p.phases) - 1; i >= 0; i-- {
		if ops := p.phases[i]; len(ops) > 0 {
			return ops[len(ops)-1].Aggregate
		}
	}
	return false
}

func (p *Pipeline) clone() *Pipeline {
	c := &Pipeline{name: p.name, opts: p.opts, phases: make([][]Operator, len(p.phases))}
	for i, ops := range p.phases {
		c.phases[i] = slices.Clone(ops)
	}
	return c
}

func operatorNames(ops []Operator) []string {
	names := make([]string, len(ops))
	for i, op := range ops {
		names[i] = op.Name
	}
	return names
}
