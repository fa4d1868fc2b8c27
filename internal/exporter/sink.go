package exporter

import (
	"context"

	"posetl/pkg/contracts/domain"
)

// Sink is one destination for the finished table
type Sink interface {
	// Name identifies the sink in logs and the run manifest
	Name() string
	// Path is the file the sink writes
	Path() string
	// Write stores every column and row of t, replacing earlier content
	Write(ctx context.Context, t *domain.Table) error
}
