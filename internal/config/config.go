package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix namespaces every environment variable read by Load.
const EnvPrefix = "POSETL"

// Config represents the complete application configuration
type Config struct {
	Pipeline  PipelineConfig  `yaml:"pipeline" envconfig:"PIPELINE"`
	Export    ExportConfig    `yaml:"export" envconfig:"EXPORT"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// PipelineConfig controls discovery, loading and transformation
type PipelineConfig struct {
	InputDir         string `yaml:"input_dir" envconfig:"INPUT_DIR" validate:"required"`
	Pattern          string `yaml:"pattern" envconfig:"PATTERN" validate:"required"`
	OutputFile       string `yaml:"output_file" envconfig:"OUTPUT_FILE" validate:"required"`
	FallbackEncoding string `yaml:"fallback_encoding" envconfig:"FALLBACK_ENCODING" validate:"oneof=iso-8859-1 latin1 windows-1252 none"`
	Strict           bool   `yaml:"strict" envconfig:"STRICT"`
	PricesFile       string `yaml:"prices_file" envconfig:"PRICES_FILE"`
}

// ExportConfig enables the optional sinks written next to the CSV
type ExportConfig struct {
	XLSXFile     string `yaml:"xlsx_file" envconfig:"XLSX_FILE"`
	SQLiteFile   string `yaml:"sqlite_file" envconfig:"SQLITE_FILE"`
	SQLiteTable  string `yaml:"sqlite_table" envconfig:"SQLITE_TABLE" validate:"required_with=SQLiteFile"`
	SummaryFile  string `yaml:"summary_file" envconfig:"SUMMARY_FILE"`
	ManifestFile string `yaml:"manifest_file" envconfig:"MANIFEST_FILE"`
	CSVBOM       bool   `yaml:"csv_bom" envconfig:"CSV_BOM"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn warning error"`
	Format   string `yaml:"format" envconfig:"FORMAT"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" validate:"required_unless=Output console"`
}

// TelemetryConfig contains tracing and metrics configuration
type TelemetryConfig struct {
	ServiceName     string  `yaml:"service_name" envconfig:"SERVICE_NAME"`
	TraceExporter   string  `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" validate:"oneof=stdout none"`
	SampleRatio     float64 `yaml:"sample_ratio" envconfig:"SAMPLE_RATIO" validate:"gte=0,lte=1"`
	MetricsTextfile string  `yaml:"metrics_textfile" envconfig:"METRICS_TEXTFILE"`
}

// Load builds configuration from defaults, the first config file found in
// the usual locations, and POSETL_* environment variables, in that order of
// increasing precedence.
func Load() (*Config, error) {
	return LoadFrom(getConfigFilePath())
}

// LoadFrom is Load with an explicit config file. An empty path skips the
// file layer.
func LoadFrom(configFile string) (*Config, error) {
	cfg := Default()

	if configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	// Fields without a matching variable are left untouched, so env only
	// overrides what it names.
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays the YAML file onto cfg
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// Validate normalises a few fields and checks the rest against their
// validate tags.
func (c *Config) Validate() error {
	c.Pipeline.FallbackEncoding = strings.ToLower(strings.TrimSpace(c.Pipeline.FallbackEncoding))
	c.Logging.Level = strings.ToLower(c.Logging.Level)
	c.Logging.Output = strings.ToLower(c.Logging.Output)

	// JSON is the only log format
	c.Logging.Format = "json"

	return validator.New().Struct(c)
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	locations := []string{
		"posetl.yaml",
		"configs/posetl.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // No config file found, use env vars only
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Pipeline: PipelineConfig{
			InputDir:         ".",
			Pattern:          "*.csv",
			OutputFile:       "Combinedata.csv",
			FallbackEncoding: "iso-8859-1",
		},
		Export: ExportConfig{
			SQLiteTable: "orders",
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: "logs/posetl.log",
		},
		Telemetry: TelemetryConfig{
			ServiceName:   "posetl",
			TraceExporter: "none",
			SampleRatio:   1.0,
		},
	}
}
