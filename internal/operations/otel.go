package operations

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"posetl/internal/infrastructure"
)

const (
	TracerName = "posetl.operation"
)

// OperationTracer provides OpenTelemetry instrumentation for pipeline runs
type OperationTracer struct {
	tracer  trace.Tracer
	metrics *infrastructure.PipelineMetrics
}

// NewOperationTracer creates a new operation tracer. A nil tracer uses the
// global provider; nil metrics disables recording.
func NewOperationTracer(tracer trace.Tracer, metrics *infrastructure.PipelineMetrics) *OperationTracer {
	if tracer == nil {
		tracer = otel.Tracer(TracerName)
	}
	return &OperationTracer{tracer: tracer, metrics: metrics}
}

// TraceRun creates the root span for a pipeline run
func (pt *OperationTracer) TraceRun(ctx context.Context, runID string) (context.Context, trace.Span) {
	return pt.tracer.Start(ctx, "operation.run",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("operation.id", runID),
			attribute.String("trace_id", infrastructure.GetTraceID(ctx)),
		),
	)
}

// TraceStep creates a span for one step
func (pt *OperationTracer) TraceStep(ctx context.Context, runID, stepID string) (context.Context, trace.Span) {
	spanName := fmt.Sprintf("operation.step.%s", stepID)
	return pt.tracer.Start(ctx, spanName,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("operation.id", runID),
			attribute.String("step.id", stepID),
		),
	)
}

// RecordStepCompletion records the step duration and closes out the span
// status
func (pt *OperationTracer) RecordStepCompletion(ctx context.Context, span trace.Span, stepID string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "failure"
	}

	span.SetAttributes(
		attribute.String("step.status", status),
		attribute.Float64("step.duration_seconds", duration.Seconds()),
	)

	if pt.metrics != nil {
		pt.metrics.StepDuration.Record(ctx, duration.Seconds(),
			metric.WithAttributes(
				attribute.String("step", stepID),
				attribute.String("status", status),
			),
		)
	}

	infrastructure.AddSpanEvent(ctx, "step.completed", map[string]interface{}{
		"step_id":  stepID,
		"status":   status,
		"duration": duration.Seconds(),
	})

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	span.SetStatus(codes.Ok, "step completed")
}

// RecordRunCompletion adds the run's counters and sets the root span status
func (pt *OperationTracer) RecordRunCompletion(ctx context.Context, span trace.Span, state *OperationState) {
	status := string(state.GetStatus())
	span.SetAttributes(
		attribute.String("operation.status", status),
		attribute.Float64("operation.duration_seconds", state.Duration().Seconds()),
		attribute.Int("operation.files", len(state.Files)),
	)

	if pt.metrics != nil {
		pt.recordCounters(ctx, state)
	}

	if state.Error != nil {
		span.RecordError(state.Error)
		span.SetStatus(codes.Error, state.Error.Error())
		return
	}
	span.SetStatus(codes.Ok, "operation completed")
}

func (pt *OperationTracer) recordCounters(ctx context.Context, state *OperationState) {
	m := pt.metrics
	add := func(c metric.Int64Counter, n int) {
		if n > 0 {
			c.Add(ctx, int64(n))
		}
	}

	add(m.FilesDiscovered, len(state.Files))
	if state.Load != nil {
		add(m.FilesLoaded, len(state.Load.Loaded))
		add(m.FilesSkipped, len(state.Load.Skipped))
		add(m.RowsLoaded, state.Load.Rows())
	}
	add(m.RowsDropped, state.Features.Dropped())
	if out, ok := state.PrimaryOutput(); ok {
		add(m.RowsWritten, out.Rows)
	}
	add(m.PriceMisses, state.Costs.Misses())
}
