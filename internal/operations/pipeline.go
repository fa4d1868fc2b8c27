package operations

import (
	"log/slog"

	"posetl/internal/config"
	"posetl/internal/dataprocessing"
	"posetl/internal/errors"
	"posetl/internal/exporter"
	"posetl/internal/files"
	"posetl/internal/pricing"
)

// NewPipeline assembles the standard steps from cfg: discover, load, merge,
// derive, price and write.
func NewPipeline(cfg *config.Config, logger *slog.Logger) ([]Step, error) {
	if logger == nil {
		logger = slog.Default()
	}

	catalog := pricing.DefaultCatalog()
	if cfg.Pipeline.PricesFile != "" {
		loaded, err := pricing.LoadCatalog(cfg.Pipeline.PricesFile)
		if err != nil {
			return nil, errors.NewConfigError("failed to load price catalog", err).
				WithContext("path", cfg.Pipeline.PricesFile)
		}
		catalog = loaded
		items, modifiers := catalog.Len()
		logger.Info("Loaded price catalog",
			slog.String("path", cfg.Pipeline.PricesFile),
			slog.Int("items", items),
			slog.Int("modifiers", modifiers))
	}

	loader, err := dataprocessing.NewLoader(cfg.Pipeline.FallbackEncoding, logger)
	if err != nil {
		return nil, err
	}

	manager := files.NewManager(logger)

	var csvOpts []exporter.CSVOption
	if cfg.Export.CSVBOM {
		csvOpts = append(csvOpts, exporter.WithBOM())
	}
	primary := exporter.NewCSVWriter(cfg.Pipeline.OutputFile, manager, logger, csvOpts...)

	var extras []exporter.Sink
	if cfg.Export.XLSXFile != "" {
		extras = append(extras, exporter.NewXLSXWriter(cfg.Export.XLSXFile, manager, logger))
	}
	if cfg.Export.SQLiteFile != "" {
		extras = append(extras, exporter.NewSQLiteWriter(cfg.Export.SQLiteFile, cfg.Export.SQLiteTable, manager, logger))
	}
	if cfg.Export.SummaryFile != "" {
		summarizer := dataprocessing.NewSummarizer(logger, dataprocessing.DefaultSummarizerConfig())
		extras = append(extras, exporter.NewSummarySink(cfg.Export.SummaryFile, summarizer))
	}

	return []Step{
		NewDiscoverStage(cfg.Pipeline.InputDir, cfg.Pipeline.Pattern, OutputPaths(cfg), logger),
		NewLoadStage(loader, logger),
		NewMergeStage(logger),
		NewDeriveStage(dataprocessing.NewFeatureDeriver(cfg.Pipeline.Strict, logger)),
		NewPriceStage(pricing.NewCalculator(catalog, logger), logger),
		NewWriteStage(primary, extras, logger),
	}, nil
}

// OutputPaths lists every file the run writes. Discovery skips them so a
// second run does not read the first run's output back in.
func OutputPaths(cfg *config.Config) []string {
	var paths []string
	for _, p := range []string{
		cfg.Pipeline.OutputFile,
		cfg.Export.XLSXFile,
		cfg.Export.SQLiteFile,
		cfg.Export.SummaryFile,
		cfg.Export.ManifestFile,
		cfg.Telemetry.MetricsTextfile,
	} {
		if p != "" {
			paths = append(paths, p)
		}
	}
	return paths
}

// ConfigSnapshot returns the settings recorded in the run manifest
func ConfigSnapshot(cfg *config.Config) map[string]interface{} {
	snap := map[string]interface{}{
		"input_dir":         cfg.Pipeline.InputDir,
		"pattern":           cfg.Pipeline.Pattern,
		"output_file":       cfg.Pipeline.OutputFile,
		"fallback_encoding": cfg.Pipeline.FallbackEncoding,
		"strict":            cfg.Pipeline.Strict,
	}
	if cfg.Pipeline.PricesFile != "" {
		snap["prices_file"] = cfg.Pipeline.PricesFile
	}
	return snap
}
