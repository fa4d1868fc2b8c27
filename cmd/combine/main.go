package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"posetl/internal/config"
	"posetl/internal/errors"
	"posetl/internal/infrastructure"
	"posetl/internal/operations"
	"posetl/pkg/contracts"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// flags holds the command line; only flags that were set override config
type flags struct {
	set map[string]bool

	version  bool
	config   string
	dir      string
	pattern  string
	out      string
	prices   string
	encoding string
	strict   bool
	xlsx     string
	sqlite   string
	summary  string
	manifest string
}

func parseFlags(args []string, stderr io.Writer) (*flags, error) {
	f := &flags{set: make(map[string]bool)}

	fs := flag.NewFlagSet("combine", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.BoolVar(&f.version, "version", false, "print version information and exit")
	fs.StringVar(&f.config, "config", "", "YAML config file (defaults to posetl.yaml or configs/posetl.yaml if present)")
	fs.StringVar(&f.dir, "dir", "", "directory searched for input files (default \".\")")
	fs.StringVar(&f.pattern, "pattern", "", "glob matched against file names in -dir (default \"*.csv\")")
	fs.StringVar(&f.out, "out", "", "combined output file (default \"Combinedata.csv\")")
	fs.StringVar(&f.prices, "prices", "", "YAML price catalog replacing the built-in menu")
	fs.StringVar(&f.encoding, "encoding", "", "fallback encoding for non-UTF-8 files: iso-8859-1 | latin1 | windows-1252 | none")
	fs.BoolVar(&f.strict, "strict", false, "also drop rows with a null date, item or modifier")
	fs.StringVar(&f.xlsx, "xlsx", "", "also write the table to this workbook")
	fs.StringVar(&f.sqlite, "sqlite", "", "also load the table into this SQLite database")
	fs.StringVar(&f.summary, "summary", "", "also write a per-item summary (.json for JSON, CSV otherwise)")
	fs.StringVar(&f.manifest, "manifest", "", "write a JSON run manifest to this path")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	fs.Visit(func(fl *flag.Flag) { f.set[fl.Name] = true })
	return f, nil
}

// apply overlays the flags that were given on cfg
func (f *flags) apply(cfg *config.Config) {
	overrides := map[string]func(){
		"dir":      func() { cfg.Pipeline.InputDir = f.dir },
		"pattern":  func() { cfg.Pipeline.Pattern = f.pattern },
		"out":      func() { cfg.Pipeline.OutputFile = f.out },
		"prices":   func() { cfg.Pipeline.PricesFile = f.prices },
		"encoding": func() { cfg.Pipeline.FallbackEncoding = f.encoding },
		"strict":   func() { cfg.Pipeline.Strict = f.strict },
		"xlsx":     func() { cfg.Export.XLSXFile = f.xlsx },
		"sqlite":   func() { cfg.Export.SQLiteFile = f.sqlite },
		"summary":  func() { cfg.Export.SummaryFile = f.summary },
		"manifest": func() { cfg.Export.ManifestFile = f.manifest },
	}
	for name, override := range overrides {
		if f.set[name] {
			override()
		}
	}
}

func loadConfig(f *flags) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if f.config != "" {
		cfg, err = config.LoadFrom(f.config)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	f.apply(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid flags: %w", err)
	}
	return cfg, nil
}

func run(args []string, stdout, stderr io.Writer) int {
	f, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if f.version {
		fmt.Fprintln(stdout, contracts.GetFullVersionString())
		return 0
	}

	cfg, err := loadConfig(f)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(stderr, "Error: failed to initialize logger: %v\n", err)
		return 1
	}
	defer infrastructure.CloseLogFile()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = infrastructure.EnsureTraceID(ctx)
	runID := infrastructure.GetTraceID(ctx)

	providers, err := infrastructure.InitializeOTel(infrastructure.OTelConfigFrom(cfg.Telemetry), logger)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to initialize telemetry", slog.String("error", err.Error()))
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Telemetry shutdown failed", slog.String("error", err.Error()))
		}
	}()

	metrics, err := infrastructure.CreatePipelineMetrics(providers.Meter)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to create metrics", slog.String("error", err.Error()))
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	logger.InfoContext(ctx, "Starting combine",
		slog.String("version", contracts.Version),
		slog.String("input_dir", cfg.Pipeline.InputDir),
		slog.String("pattern", cfg.Pipeline.Pattern),
		slog.String("output_file", cfg.Pipeline.OutputFile),
		slog.String("fallback_encoding", cfg.Pipeline.FallbackEncoding),
		slog.Bool("strict", cfg.Pipeline.Strict))

	steps, err := operations.NewPipeline(cfg, logger)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to set up pipeline", slog.String("error", err.Error()))
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	state := operations.NewOperationState(runID)
	tracer := operations.NewOperationTracer(providers.Tracer, metrics)
	runErr := operations.NewRunner(logger, tracer, steps...).Run(ctx, state)

	if out, ok := state.PrimaryOutput(); ok {
		fmt.Fprintf(stdout, "Data saved to %s\n", out.Path)
	}

	if cfg.Export.ManifestFile != "" {
		manifest := operations.BuildManifest(state, operations.ConfigSnapshot(cfg))
		if err := manifest.SaveToFile(cfg.Export.ManifestFile, nil); err != nil {
			logger.WarnContext(ctx, "Failed to write run manifest",
				slog.String("path", cfg.Export.ManifestFile),
				slog.String("error", err.Error()))
		}
	}

	if cfg.Telemetry.MetricsTextfile != "" {
		if err := providers.WriteMetricsTextfile(cfg.Telemetry.MetricsTextfile); err != nil {
			logger.WarnContext(ctx, "Failed to write metrics textfile",
				slog.String("path", cfg.Telemetry.MetricsTextfile),
				slog.String("error", err.Error()))
		}
	}

	if runErr != nil {
		fmt.Fprintf(stderr, "Error: %v\n", runErr)
		return 1
	}
	return 0
}
