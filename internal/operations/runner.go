package operations

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"posetl/internal/infrastructure"
)

// Runner executes pipeline steps one after another against a shared
// OperationState. The first failing step ends the run.
type Runner struct {
	steps  []Step
	tracer *OperationTracer
	logger *slog.Logger
}

// NewRunner creates a runner over steps. A nil tracer traces through the
// global provider without metrics.
func NewRunner(logger *slog.Logger, tracer *OperationTracer, steps ...Step) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	if tracer == nil {
		tracer = NewOperationTracer(nil, nil)
	}
	return &Runner{
		steps:  steps,
		tracer: tracer,
		logger: infrastructure.WithComponent(logger, "operations"),
	}
}

// Steps returns the steps in execution order
func (r *Runner) Steps() []Step {
	out := make([]Step, len(r.steps))
	copy(out, r.steps)
	return out
}

// Run executes every step. The returned error is an *OperationError naming
// the step that failed.
func (r *Runner) Run(ctx context.Context, state *OperationState) error {
	ctx, span := r.tracer.TraceRun(ctx, state.ID)
	defer span.End()

	state.Start()
	r.logger.InfoContext(ctx, "Pipeline run started",
		slog.String("run_id", state.ID),
		slog.Int("step_count", len(r.steps)))

	err := r.executeSequential(ctx, state)
	switch {
	case err == nil:
		state.Complete()
		r.logger.InfoContext(ctx, "Pipeline run completed",
			slog.String("run_id", state.ID),
			slog.Duration("duration", state.Duration()))
	case GetErrorType(err) == ErrorTypeCancellation:
		state.Cancel(err)
		r.logger.WarnContext(ctx, "Pipeline run cancelled",
			slog.String("run_id", state.ID),
			slog.String("error", err.Error()))
	default:
		state.Fail(err)
		r.logger.ErrorContext(ctx, "Pipeline run failed",
			slog.String("run_id", state.ID),
			slog.String("error", err.Error()))
	}

	r.tracer.RecordRunCompletion(ctx, span, state)
	return err
}

func (r *Runner) executeSequential(ctx context.Context, state *OperationState) error {
	for _, step := range r.steps {
		if err := ctx.Err(); err != nil {
			skipped := NewStepState(step.ID(), step.Name())
			skipped.Skip("run cancelled")
			state.AddStep(skipped)
			return NewCancellationError(step.ID(), err)
		}

		if err := r.executeStep(ctx, state, step); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) executeStep(ctx context.Context, state *OperationState, step Step) error {
	stepState := NewStepState(step.ID(), step.Name())
	state.AddStep(stepState)

	ctx, span := r.tracer.TraceStep(ctx, state.ID, step.ID())
	defer span.End()

	logger := r.logger.With(slog.String("step", step.ID()))
	logger.InfoContext(ctx, "Executing step",
		slog.String("step_name", step.Name()))

	stepState.Start()

	if err := step.Validate(state); err != nil {
		opErr := NewValidationError(step.ID(), "step cannot run")
		opErr.Cause = err
		return r.fail(ctx, span, logger, stepState, opErr)
	}

	if err := step.Execute(ctx, state); err != nil {
		return r.fail(ctx, span, logger, stepState, WrapError(step.ID(), err))
	}

	stepState.Complete()
	r.tracer.RecordStepCompletion(ctx, span, step.ID(), stepState.Duration(), nil)
	logger.InfoContext(ctx, "Step completed",
		slog.Duration("duration", stepState.Duration()))
	return nil
}

func (r *Runner) fail(ctx context.Context, span trace.Span, logger *slog.Logger, stepState *StepState, opErr *OperationError) error {
	stepState.Fail(opErr)
	r.tracer.RecordStepCompletion(ctx, span, stepState.ID, stepState.Duration(), opErr)
	logger.ErrorContext(ctx, "Step execution failed",
		slog.String("error_type", string(opErr.Type)),
		slog.String("error", opErr.Error()),
		slog.Duration("duration", stepState.Duration()))
	return opErr
}
