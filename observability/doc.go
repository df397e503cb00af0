// Package observability provides OpenTelemetry tracing and metrics for
// pipeline runs.
//
// Tracing:
//
//	tp, err := observability.InitTracer(ctx, observability.DefaultTracerConfig("lazyrun"))
//	defer tp.Shutdown(ctx)
//
// Metrics:
//
//	mp, err := observability.InitMeter(ctx, observability.DefaultMeterConfig("lazyrun"))
//	defer mp.Shutdown(ctx)
//
//	metrics, err := observability.NewMetrics(observability.Meter("lazyrun"))
//
// Runs:
//
//	rc := observability.NewRunContext("adults", runID, metrics)
//	ctx, span := rc.Start(ctx, tracer)
//	...
//	rc.End(ctx, span, len(inputs), len(outputs), err, code)
//
// Without InitTracer/InitMeter the global OpenTelemetry providers are
// no-ops, so instrumentation costs next to nothing.
package observability
