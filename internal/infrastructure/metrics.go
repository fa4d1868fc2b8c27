package infrastructure

import (
	"go.opentelemetry.io/otel/metric"
)

// PipelineMetrics are the counters recorded over one pipeline run
type PipelineMetrics struct {
	FilesDiscovered metric.Int64Counter
	FilesLoaded     metric.Int64Counter
	FilesSkipped    metric.Int64Counter
	RowsLoaded      metric.Int64Counter
	RowsDropped     metric.Int64Counter
	RowsWritten     metric.Int64Counter
	PriceMisses     metric.Int64Counter
	StepDuration    metric.Float64Histogram
}

// CreatePipelineMetrics registers the pipeline instruments on meter
func CreatePipelineMetrics(meter metric.Meter) (*PipelineMetrics, error) {
	var (
		m   PipelineMetrics
		err error
	)

	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
	}{
		{&m.FilesDiscovered, "posetl_files_discovered", "Input files matched by the discovery pattern"},
		{&m.FilesLoaded, "posetl_files_loaded", "Input files read successfully"},
		{&m.FilesSkipped, "posetl_files_skipped", "Input files skipped after decode failures"},
		{&m.RowsLoaded, "posetl_rows_loaded", "Rows read from all input files"},
		{&m.RowsDropped, "posetl_rows_dropped", "Rows removed during feature derivation"},
		{&m.RowsWritten, "posetl_rows_written", "Rows written to the combined output"},
		{&m.PriceMisses, "posetl_price_lookup_misses", "Price lookups that fell back to zero"},
	}
	for _, c := range counters {
		*c.dst, err = meter.Int64Counter(c.name, metric.WithDescription(c.desc))
		if err != nil {
			return nil, err
		}
	}

	m.StepDuration, err = meter.Float64Histogram(
		"posetl_step_duration",
		metric.WithDescription("Pipeline step execution duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &m, nil
}
