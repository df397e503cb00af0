package pipeline

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/codes"

	"github.com/kbukum/lazylists/errors"
	"github.com/kbukum/lazylists/logger"
	"github.com/kbukum/lazylists/observability"
	"github.com/kbukum/lazylists/order"
	"github.com/kbukum/lazylists/stage"
)

// Runner is a built pipeline: one wired stage chain per phase. Stage
// state lives as long as the Runner, and every stage resets it in
// Finalize, so one Runner can serve many batches in turn. Batches on the
// same Runner are serialized. A failed batch discards the built stages;
// the next batch rebuilds them from the pipeline's factories.
type Runner struct {
	p      *Pipeline
	mu     sync.Mutex
	phases []*phase
}

type phase struct {
	index int
	names []string
	head  stage.Stage
	sink  *stage.Sink
}

// Build instantiates every operator factory, from the sink backwards, so
// each stage is wired to its downstream neighbour and receives the active
// chain composed by all stages after it.
func (p *Pipeline) Build() *Runner {
	return &Runner{p: p, phases: p.buildPhases()}
}

func (p *Pipeline) buildPhases() []*phase {
	phases := make([]*phase, len(p.phases))
	for i, ops := range p.phases {
		sink := stage.NewSink()
		var s stage.Stage = sink
		for j := len(ops) - 1; j >= 0; j-- {
			s = ops[j].Factory(stage.Wire(s))
		}
		phases[i] = &phase{index: i, names: operatorNames(ops), head: s, sink: sink}
	}
	return phases
}

// Batch runs one batch over inputs, the i-th input tagged with order [i].
// It returns every value the last stage forwarded.
func (r *Runner) Batch(ctx context.Context, inputs ...any) ([]any, error) {
	return r.Feed(ctx, FromSlice(inputs))
}

// Feed runs one batch pulling root inputs from src. Inputs are fed strictly
// one at a time: the next input is not pulled until the previous forward
// has returned. Feeding stops early when the head stage reports inactive
// or rejects an input, and the batch is then finalized.
func (r *Runner) Feed(ctx context.Context, src Iterator) (out []any, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	defer src.Close()
	if r.phases == nil {
		r.phases = r.p.buildPhases()
	}

	runID := uuid.NewString()
	log := r.p.opts.log.WithRun(runID)
	rc := observability.NewRunContext(r.p.name, runID, r.p.opts.metrics)
	ctx, span := rc.Start(ctx, r.p.opts.tracer)
	ctx = withMaxParallel(ctx, r.p.opts.maxParallel)
	log = log.WithContext(ctx)

	fed := 0
	defer func() {
		if rec := recover(); rec != nil {
			out, err = nil, errors.StagePanic(rec)
		}
		if err != nil {
			r.discard()
			code := errorCode(err)
			log.Error("run failed", logger.MergeWithError(logger.Fields(
				logger.FieldPipeline, r.p.name,
				logger.FieldInputs, fed,
				"code", code,
			), err))
			rc.End(ctx, span, fed, 0, err, code)
			return
		}
		log.Debug("run finished", logger.Fields(
			logger.FieldPipeline, r.p.name,
			logger.FieldInputs, fed,
			logger.FieldOutputs, len(out),
			logger.FieldDuration, rc.Duration().Milliseconds(),
		))
		rc.End(ctx, span, fed, len(out), nil, "")
	}()

	log.Debug("run started", logger.Fields(
		logger.FieldPipeline, r.p.name,
		"phases", len(r.phases),
	))

	next := src
	for _, ph := range r.phases {
		n, values, err := r.runPhase(ctx, rc, log, ph, next)
		if ph.index == 0 {
			fed = n
		}
		if err != nil {
			return nil, err
		}
		out = values
		next = FromSlice(values)
	}
	return out, nil
}

func (r *Runner) runPhase(ctx context.Context, rc *observability.RunContext, log *logger.Logger, ph *phase, src Iterator) (fed int, out []any, err error) {
	ctx, span := rc.StartPhase(ctx, r.p.opts.tracer, ph.index, ph.names)
	start := time.Now()
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	for {
		if cerr := ctx.Err(); cerr != nil {
			return fed, nil, errors.Cancelled(cerr)
		}
		if !ph.head.Chain().Active() {
			log.Debug("feed stopped", logger.Fields(
				logger.FieldPhase, ph.index,
				logger.FieldInputs, fed,
				logger.FieldStage, ph.head.Chain().Inactive(),
			))
			break
		}
		v, ok, err := src.Next(ctx)
		if err != nil {
			return fed, nil, err
		}
		if !ok {
			break
		}
		ord := order.Root(fed)
		fed++
		accepted, err := ph.head.Forward(ctx, v, ord)
		if err != nil {
			return fed, nil, err
		}
		if !accepted {
			log.Debug("input rejected", logger.Fields(
				logger.FieldPhase, ph.index,
				logger.FieldOrder, ord.Key(),
			))
			break
		}
	}

	if err := ph.head.Finalize(ctx); err != nil {
		return fed, nil, err
	}
	out, _ = ph.sink.Drain()

	log.Debug("phase finished", logger.Fields(
		logger.FieldPhase, ph.index,
		logger.FieldInputs, fed,
		logger.FieldOutputs, len(out),
		logger.FieldDuration, time.Since(start).Milliseconds(),
	))
	return fed, out, nil
}

// discard drops the stages of a failed batch. Their Finalize may not have
// run, so counters, latches and buffers can hold partial state.
func (r *Runner) discard() {
	r.phases = nil
}

// Result shapes batch outputs the way Invoke does.
func (r *Runner) Result(out []any) any {
	return r.p.shape(out)
}

// Invoke builds the pipeline and runs one batch over inputs. When the last
// operator is an aggregate, the result is its single value (nil when it
// forwarded nothing); otherwise it is the []any of all outputs.
func (p *Pipeline) Invoke(ctx context.Context, inputs ...any) (any, error) {
	out, err := p.Build().Batch(ctx, inputs...)
	if err != nil {
		return nil, err
	}
	return p.shape(out), nil
}

// InvokeIter is Invoke with root inputs pulled from src.
func (p *Pipeline) InvokeIter(ctx context.Context, src Iterator) (any, error) {
	out, err := p.Build().Feed(ctx, src)
	if err != nil {
		return nil, err
	}
	return p.shape(out), nil
}

// Collect builds the pipeline, runs one batch and returns all outputs.
func (p *Pipeline) Collect(ctx context.Context, inputs ...any) ([]any, error) {
	out, err := p.Build().Batch(ctx, inputs...)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []any{}
	}
	return out, nil
}

// InvokeAs runs Invoke and asserts the result to T. A nil result yields
// the zero T.
func InvokeAs[T any](ctx context.Context, p *Pipeline, inputs ...any) (T, error) {
	var zero T
	v, err := p.Invoke(ctx, inputs...)
	if err != nil || v == nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, errors.InvalidInput("result", fmt.Sprintf("pipeline %q produced %T, not %T", p.name, v, zero))
	}
	return t, nil
}

func (p *Pipeline) shape(out []any) any {
	if p.endsInAggregate() {
		if len(out) == 0 {
			return nil
		}
		return out[0]
	}
	if out == nil {
		return []any{}
	}
	return out
}

func errorCode(err error) string {
	if appErr, ok := errors.AsAppError(err); ok {
		return string(appErr.Code)
	}
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return string(errors.ErrCodeCancelled)
	}
	return ""
}

type maxParallelKey struct{}

func withMaxParallel(ctx context.Context, n int) context.Context {
	if n <= 0 {
		return ctx
	}
	return context.WithValue(ctx, maxParallelKey{}, n)
}

func maxParallelFrom(ctx context.Context) int {
	n, _ := ctx.Value(maxParallelKey{}).(int)
	return n
}
