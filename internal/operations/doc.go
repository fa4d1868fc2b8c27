// Package operations runs the order pipeline as a fixed sequence of steps.
//
// A Runner executes each Step in turn against one OperationState. Steps
// hand their results on through the state's typed fields: the discovered
// files, the load result, the merged table, and the feature and pricing
// statistics. The first step to fail ends the run with an OperationError
// naming it; the write step is the exception and keeps going past failed
// extra sinks once the combined CSV is in place.
//
// Every run and step gets an OpenTelemetry span, step durations land in
// the posetl_step_duration histogram, and BuildManifest turns the final
// state into the JSON run manifest.
//
// Example usage:
//
//	steps, err := operations.NewPipeline(cfg, logger)
//	if err != nil {
//		return err
//	}
//	state := operations.NewOperationState(runID)
//	err = operations.NewRunner(logger, tracer, steps...).Run(ctx, state)
package operations
