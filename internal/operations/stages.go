package operations

import (
	"context"
	"log/slog"

	"posetl/internal/dataprocessing"
	"posetl/internal/errors"
	"posetl/internal/exporter"
	"posetl/internal/files"
	"posetl/internal/pricing"
)

// DiscoverStage finds the input files
type DiscoverStage struct {
	BaseStage
	discovery *files.Discovery
	dir       string
	pattern   string
	exclude   []string
	logger    *slog.Logger
}

// NewDiscoverStage creates a discovery step over dir. Matches that resolve
// to one of the exclude paths are left out.
func NewDiscoverStage(dir, pattern string, exclude []string, logger *slog.Logger) *DiscoverStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &DiscoverStage{
		BaseStage: NewBaseStage(StepIDDiscover, StepNameDiscover),
		discovery: files.NewDiscovery(""),
		dir:       dir,
		pattern:   pattern,
		exclude:   exclude,
		logger:    logger.With(slog.String("step", StepIDDiscover)),
	}
}

// Execute globs for input files. No match is fatal.
func (s *DiscoverStage) Execute(ctx context.Context, state *OperationState) error {
	found, err := s.discovery.FindFilesByPattern(s.dir, s.pattern, s.exclude...)
	if err != nil {
		return errors.NewConfigError("invalid file pattern", err)
	}
	if len(found) == 0 {
		return errors.NewDiscoveryError(s.pattern).WithContext("dir", s.dir)
	}

	for _, f := range found {
		s.logger.DebugContext(ctx, "Found input file",
			slog.String("path", f.Path),
			slog.Int64("size", f.Size))
	}

	total := files.TotalSize(found)
	s.logger.InfoContext(ctx, "Discovered input files",
		slog.String("dir", s.dir),
		slog.String("pattern", s.pattern),
		slog.Int("file_count", len(found)),
		slog.Int64("total_bytes", total))

	state.Files = found
	state.SetStepMetadata(s.ID(), MetaFiles, len(found))
	state.SetStepMetadata(s.ID(), MetaBytes, total)
	return nil
}

// LoadStage reads every discovered file into a table
type LoadStage struct {
	BaseStage
	loader *dataprocessing.Loader
	logger *slog.Logger
}

// NewLoadStage creates a load step
func NewLoadStage(loader *dataprocessing.Loader, logger *slog.Logger) *LoadStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoadStage{
		BaseStage: NewBaseStage(StepIDLoad, StepNameLoad),
		loader:    loader,
		logger:    logger.With(slog.String("step", StepIDLoad)),
	}
}

// Validate requires discovered files
func (s *LoadStage) Validate(state *OperationState) error {
	if len(state.Files) == 0 {
		return errors.NewValidationError("no input files to load")
	}
	return nil
}

// Execute loads the files. Unreadable files are skipped by the loader; the
// step fails only when none could be read.
func (s *LoadStage) Execute(ctx context.Context, state *OperationState) error {
	paths := make([]string, len(state.Files))
	for i, f := range state.Files {
		paths[i] = f.Path
	}

	result, err := s.loader.LoadAll(ctx, paths)
	if result != nil {
		state.Load = result
		state.SetStepMetadata(s.ID(), MetaLoaded, len(result.Loaded))
		state.SetStepMetadata(s.ID(), MetaSkipped, len(result.Skipped))
		state.SetStepMetadata(s.ID(), MetaRows, result.Rows())
	}
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "Loaded input files",
		slog.Int("loaded", len(result.Loaded)),
		slog.Int("skipped", len(result.Skipped)),
		slog.Int("rows", result.Rows()))
	return nil
}

// MergeStage concatenates the loaded tables
type MergeStage struct {
	BaseStage
	logger *slog.Logger
}

// NewMergeStage creates a merge step
func NewMergeStage(logger *slog.Logger) *MergeStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &MergeStage{
		BaseStage: NewBaseStage(StepIDMerge, StepNameMerge),
		logger:    logger.With(slog.String("step", StepIDMerge)),
	}
}

// Validate requires at least one loaded table
func (s *MergeStage) Validate(state *OperationState) error {
	if state.Load == nil || len(state.Load.Tables) == 0 {
		return errors.NewValidationError("no loaded tables to merge")
	}
	return nil
}

// Execute merges in load order
func (s *MergeStage) Execute(ctx context.Context, state *OperationState) error {
	state.Table = dataprocessing.Merge(state.Load.Tables...)

	s.logger.InfoContext(ctx, "Merged tables",
		slog.Int("tables", len(state.Load.Tables)),
		slog.Int("rows", state.Table.Len()),
		slog.Int("columns", len(state.Table.Columns)))

	state.SetStepMetadata(s.ID(), MetaRows, state.Table.Len())
	state.SetStepMetadata(s.ID(), MetaColumns, len(state.Table.Columns))
	return nil
}

// DeriveStage filters rows by date and adds the feature columns
type DeriveStage struct {
	BaseStage
	deriver *dataprocessing.FeatureDeriver
}

// NewDeriveStage creates a feature derivation step
func NewDeriveStage(deriver *dataprocessing.FeatureDeriver) *DeriveStage {
	return &DeriveStage{
		BaseStage: NewBaseStage(StepIDDerive, StepNameDerive),
		deriver:   deriver,
	}
}

// Validate requires the merged table
func (s *DeriveStage) Validate(state *OperationState) error {
	if state.Table == nil {
		return errors.NewValidationError("no merged table")
	}
	return nil
}

// Execute derives the features in place
func (s *DeriveStage) Execute(ctx context.Context, state *OperationState) error {
	state.Features = s.deriver.Derive(ctx, state.Table)
	state.SetStepMetadata(s.ID(), MetaRows, state.Features.OutputRows)
	state.SetStepMetadata(s.ID(), MetaDropped, state.Features.Dropped())
	return ctx.Err()
}

// PriceStage adds the cost columns
type PriceStage struct {
	BaseStage
	calculator *pricing.Calculator
	logger     *slog.Logger
}

// NewPriceStage creates a pricing step
func NewPriceStage(calculator *pricing.Calculator, logger *slog.Logger) *PriceStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &PriceStage{
		BaseStage:  NewBaseStage(StepIDPrice, StepNamePrice),
		calculator: calculator,
		logger:     logger.With(slog.String("step", StepIDPrice)),
	}
}

// Validate requires the merged table
func (s *PriceStage) Validate(state *OperationState) error {
	if state.Table == nil {
		return errors.NewValidationError("no table to price")
	}
	return nil
}

// Execute prices every row
func (s *PriceStage) Execute(ctx context.Context, state *OperationState) error {
	state.Costs = s.calculator.Apply(ctx, state.Table)

	s.logger.InfoContext(ctx, "Priced rows",
		slog.Int("rows", state.Costs.Rows),
		slog.Int("base_misses", state.Costs.BaseMisses),
		slog.Int("modifier_misses", state.Costs.ModifierMisses),
		slog.String("total_cost", state.Costs.Total))

	state.SetStepMetadata(s.ID(), MetaPriceMisses, state.Costs.Misses())
	state.SetStepMetadata(s.ID(), MetaTotalCost, state.Costs.Total)
	return nil
}

// WriteStage writes the table to the combined CSV and then to any extra
// sinks
type WriteStage struct {
	BaseStage
	primary exporter.Sink
	extras  []exporter.Sink
	logger  *slog.Logger
}

// NewWriteStage creates an output step
func NewWriteStage(primary exporter.Sink, extras []exporter.Sink, logger *slog.Logger) *WriteStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &WriteStage{
		BaseStage: NewBaseStage(StepIDWrite, StepNameWrite),
		primary:   primary,
		extras:    extras,
		logger:    logger.With(slog.String("step", StepIDWrite)),
	}
}

// Validate requires the priced table
func (s *WriteStage) Validate(state *OperationState) error {
	if state.Table == nil {
		return errors.NewValidationError("no table to write")
	}
	return nil
}

// Execute writes the primary sink first; a failure there ends the step.
// Extra sinks are attempted regardless of each other and their failures
// are returned together.
func (s *WriteStage) Execute(ctx context.Context, state *OperationState) error {
	rows := state.Table.Len()

	out := SinkOutput{Sink: s.primary.Name(), Path: s.primary.Path(), Primary: true}
	if err := s.primary.Write(ctx, state.Table); err != nil {
		out.Error = err.Error()
		state.Outputs = append(state.Outputs, out)
		return err
	}
	out.Rows = rows
	state.Outputs = append(state.Outputs, out)

	var failed ErrorList
	for _, sink := range s.extras {
		if err := ctx.Err(); err != nil {
			return err
		}

		out := SinkOutput{Sink: sink.Name(), Path: sink.Path()}
		if err := sink.Write(ctx, state.Table); err != nil {
			s.logger.ErrorContext(ctx, "Sink write failed",
				slog.String("sink", sink.Name()),
				slog.String("path", sink.Path()),
				slog.String("error", err.Error()))
			out.Error = err.Error()

			opErr := NewExecutionError(s.ID(), err)
			opErr.Context = map[string]interface{}{"sink": sink.Name(), "path": sink.Path()}
			failed.Add(opErr)
		} else {
			out.Rows = rows
		}
		state.Outputs = append(state.Outputs, out)
	}

	state.SetStepMetadata(s.ID(), MetaSinks, 1+len(s.extras))
	state.SetStepMetadata(s.ID(), MetaFailedSinks, len(failed.Errors))
	return failed.ErrOrNil()
}
