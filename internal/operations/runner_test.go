package operations_test

import (
	"context"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"posetl/internal/errors"
	"posetl/internal/files"
	"posetl/internal/infrastructure"
	"posetl/internal/operations"
	optestutil "posetl/internal/operations/testutil"
	"posetl/internal/shared/testutil"
)

func newTracedRunner(t *testing.T, steps ...operations.Step) (*operations.Runner, *tracetest.SpanRecorder, *testutil.BufferedSlogHandler) {
	t.Helper()

	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	logger, handler := testutil.NewTestLogger(t)
	tracer := operations.NewOperationTracer(tp.Tracer("test"), nil)
	return operations.NewRunner(logger, tracer, steps...), recorder, handler
}

func TestRunner_ExecutesStepsInOrder(t *testing.T) {
	var order []string
	record := func(id string) *optestutil.MockStage {
		s := optestutil.NewMockStage(id)
		s.ExecuteFunc = func(context.Context, *operations.OperationState) error {
			order = append(order, id)
			return nil
		}
		return s
	}

	a, b, c := record("a"), record("b"), record("c")
	runner, recorder, handler := newTracedRunner(t, a, b, c)
	state := operations.NewOperationState("run-1")

	require.NoError(t, runner.Run(context.Background(), state))

	assert.Equal(t, []string{"a", "b", "c"}, order)
	assert.Equal(t, operations.OperationStatusCompleted, state.GetStatus())
	for _, s := range []*optestutil.MockStage{a, b, c} {
		assert.Equal(t, 1, s.GetValidateCalls())
		assert.Equal(t, 1, s.GetExecuteCalls())
		assert.Equal(t, operations.StepStatusCompleted, state.GetStep(s.ID()).GetStatus())
	}

	spans := recorder.Ended()
	require.Len(t, spans, 4)
	assert.Equal(t, "operation.step.a", spans[0].Name())
	assert.Equal(t, "operation.run", spans[3].Name())
	for _, span := range spans {
		assert.Equal(t, codes.Ok, span.Status().Code)
	}
	assert.Equal(t, spans[3].SpanContext().SpanID(), spans[0].Parent().SpanID())

	testutil.AssertLogContains(t, handler, slog.LevelInfo, "Pipeline run completed")
	testutil.AssertLogAttr(t, handler, "component", "operations")
	testutil.AssertNoErrors(t, handler)
}

func TestRunner_StopsAtFirstFailure(t *testing.T) {
	first := optestutil.NewMockStage(operations.StepIDDiscover)
	failing := optestutil.FailingStage(operations.StepIDLoad, errors.NewEmptyResultError(2))
	never := optestutil.NewMockStage(operations.StepIDMerge)

	runner, recorder, handler := newTracedRunner(t, first, failing, never)
	state := operations.NewOperationState("run-2")

	err := runner.Run(context.Background(), state)
	require.Error(t, err)

	var opErr *operations.OperationError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, operations.ErrorTypeFatal, opErr.Type)
	assert.Equal(t, operations.StepIDLoad, opErr.Step)
	assert.ErrorIs(t, err, errors.ErrNoFilesLoaded)

	assert.Equal(t, 0, never.GetExecuteCalls())
	assert.Nil(t, state.GetStep(operations.StepIDMerge))
	assert.Equal(t, operations.OperationStatusFailed, state.GetStatus())
	assert.Equal(t, operations.StepStatusFailed, state.GetStep(operations.StepIDLoad).GetStatus())
	assert.Same(t, opErr, state.Error)

	spans := recorder.Ended()
	require.Len(t, spans, 3)
	assert.Equal(t, codes.Error, spans[1].Status().Code)
	assert.Equal(t, codes.Error, spans[2].Status().Code)

	testutil.AssertLogContains(t, handler, slog.LevelError, "Step execution failed")
	testutil.AssertLogAttr(t, handler, "error_type", "fatal")
}

func TestRunner_ValidationFailure(t *testing.T) {
	step := optestutil.NewMockStage(operations.StepIDMerge)
	step.ValidateFunc = func(*operations.OperationState) error {
		return errors.NewValidationError("no loaded tables to merge")
	}

	runner, _, _ := newTracedRunner(t, step)
	err := runner.Run(context.Background(), operations.NewOperationState("run-3"))

	assert.Equal(t, operations.ErrorTypeValidation, operations.GetErrorType(err))
	assert.Equal(t, errors.ErrTypeValidation, errors.TypeOf(err))
	assert.Equal(t, 0, step.GetExecuteCalls())
}

func TestRunner_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	first := optestutil.NewMockStage(operations.StepIDDiscover)
	first.ExecuteFunc = func(context.Context, *operations.OperationState) error {
		cancel()
		return nil
	}
	second := optestutil.NewMockStage(operations.StepIDLoad)

	runner, _, handler := newTracedRunner(t, first, second)
	state := operations.NewOperationState("run-4")

	err := runner.Run(ctx, state)
	assert.Equal(t, operations.ErrorTypeCancellation, operations.GetErrorType(err))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, operations.OperationStatusCancelled, state.GetStatus())
	assert.Equal(t, 0, second.GetExecuteCalls())
	assert.Equal(t, operations.StepStatusSkipped, state.GetStep(operations.StepIDLoad).GetStatus())
	testutil.AssertLogContains(t, handler, slog.LevelWarn, "Pipeline run cancelled")
}

func TestRunner_RecordsMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	metrics, err := infrastructure.CreatePipelineMetrics(mp.Meter("test"))
	require.NoError(t, err)

	discover := optestutil.NewMockStage(operations.StepIDDiscover)
	discover.ExecuteFunc = func(_ context.Context, state *operations.OperationState) error {
		state.Files = []files.FileInfo{{Path: "a.csv"}, {Path: "b.csv"}}
		return nil
	}
	failing := optestutil.FailingStage(operations.StepIDLoad, fmt.Errorf("boom"))

	runner := operations.NewRunner(nil, operations.NewOperationTracer(nil, metrics), discover, failing)
	require.Error(t, runner.Run(context.Background(), operations.NewOperationState("run-5")))

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	found := map[string]metricdata.Aggregation{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			found[m.Name] = m.Data
		}
	}

	discovered, ok := found["posetl_files_discovered"].(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, discovered.DataPoints, 1)
	assert.Equal(t, int64(2), discovered.DataPoints[0].Value)

	durations, ok := found["posetl_step_duration"].(metricdata.Histogram[float64])
	require.True(t, ok)
	assert.Len(t, durations.DataPoints, 2, "one series per step and status")
}
