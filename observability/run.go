package observability

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Run statuses.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// RunContext holds observability state for one pipeline run.
type RunContext struct {
	Pipeline  string
	RunID     string
	StartTime time.Time
	Metrics   *Metrics
}

// NewRunContext creates a run context.
// If metrics is nil, metric recording is silently skipped.
func NewRunContext(pipeline, runID string, metrics *Metrics) *RunContext {
	return &RunContext{
		Pipeline:  pipeline,
		RunID:     runID,
		StartTime: time.Now(),
		Metrics:   metrics,
	}
}

type runContextKey struct{}

// WithRunContext stores a RunContext in the context.
func WithRunContext(ctx context.Context, rc *RunContext) context.Context {
	return context.WithValue(ctx, runContextKey{}, rc)
}

// RunContextFromContext retrieves the RunContext from context, or nil.
func RunContextFromContext(ctx context.Context) *RunContext {
	if rc, ok := ctx.Value(runContextKey{}).(*RunContext); ok {
		return rc
	}
	return nil
}

// Start opens the pipeline.invoke span on tracer and records the run start.
// A nil tracer falls back to the global provider.
func (rc *RunContext) Start(ctx context.Context, tracer trace.Tracer) (context.Context, trace.Span) {
	if tracer == nil {
		tracer = Tracer(DefaultTracerName)
	}
	ctx, span := tracer.Start(ctx, SpanInvoke, trace.WithAttributes(
		attribute.String(AttrPipeline, rc.Pipeline),
		attribute.String(AttrRunID, rc.RunID),
	))
	if rc.Metrics != nil {
		rc.Metrics.RecordRunStart(ctx, rc.Pipeline)
	}
	return WithRunContext(ctx, rc), span
}

// StartPhase opens a pipeline.phase span below the invoke span.
func (rc *RunContext) StartPhase(ctx context.Context, tracer trace.Tracer, index int, operators []string) (context.Context, trace.Span) {
	if tracer == nil {
		tracer = Tracer(DefaultTracerName)
	}
	return tracer.Start(ctx, SpanPhase, trace.WithAttributes(
		attribute.String(AttrRunID, rc.RunID),
		attribute.Int(AttrPhase, index),
		attribute.String(AttrOperators, strings.Join(operators, ",")),
	))
}

// End closes the span and records the outcome. code is the error code of
// err when known, empty otherwise.
func (rc *RunContext) End(ctx context.Context, span trace.Span, inputs, outputs int, err error, code string) {
	duration := time.Since(rc.StartTime)
	status := StatusOK

	if err != nil {
		status = StatusError
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if code != "" {
			span.SetAttributes(attribute.String(AttrErrorCode, code))
		}
	}

	span.SetAttributes(
		attribute.String(AttrStatus, status),
		attribute.Int(AttrInputs, inputs),
		attribute.Int(AttrOutputs, outputs),
		attribute.Int64(AttrDurationMs, duration.Milliseconds()),
	)
	span.End()

	if rc.Metrics != nil {
		rc.Metrics.RecordRunEnd(ctx, rc.Pipeline, status, duration, inputs, outputs)
		if err != nil {
			if code == "" {
				code = "UNKNOWN"
			}
			rc.Metrics.RecordError(ctx, rc.Pipeline, code)
		}
	}
}

// Duration returns the elapsed time since the run started.
func (rc *RunContext) Duration() time.Duration {
	return time.Since(rc.StartTime)
}
