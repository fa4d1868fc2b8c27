package exporter

import (
	"context"

	"posetl/internal/dataprocessing"
	"posetl/pkg/contracts/domain"
)

// SummarySink writes the per-item roll-up of the table instead of the rows
// themselves.
type SummarySink struct {
	path       string
	summarizer *dataprocessing.Summarizer
}

// NewSummarySink creates a summary sink. A nil summarizer uses the default
// configuration.
func NewSummarySink(path string, summarizer *dataprocessing.Summarizer) *SummarySink {
	if summarizer == nil {
		summarizer = dataprocessing.NewSummarizer(nil, dataprocessing.DefaultSummarizerConfig())
	}
	return &SummarySink{path: path, summarizer: summarizer}
}

// Name implements Sink
func (s *SummarySink) Name() string { return "summary" }

// Path implements Sink
func (s *SummarySink) Path() string { return s.path }

// Write implements Sink
func (s *SummarySink) Write(ctx context.Context, t *domain.Table) error {
	return s.summarizer.Write(ctx, s.path, s.summarizer.Summarize(ctx, t))
}
