package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLoad tests the LoadFrom function with various scenarios
func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		env         map[string]string
		fileContent string
		wantErr     bool
		validateCfg func(*testing.T, *Config)
	}{
		{
			name: "defaults with no env vars or file",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, ".", cfg.Pipeline.InputDir)
				assert.Equal(t, "*.csv", cfg.Pipeline.Pattern)
				assert.Equal(t, "Combinedata.csv", cfg.Pipeline.OutputFile)
				assert.Equal(t, "iso-8859-1", cfg.Pipeline.FallbackEncoding)
				assert.False(t, cfg.Pipeline.Strict)
				assert.Empty(t, cfg.Pipeline.PricesFile)

				assert.Empty(t, cfg.Export.XLSXFile)
				assert.Empty(t, cfg.Export.SQLiteFile)
				assert.Equal(t, "orders", cfg.Export.SQLiteTable)

				assert.Equal(t, "info", cfg.Logging.Level)
				assert.Equal(t, "json", cfg.Logging.Format)
				assert.Equal(t, "console", cfg.Logging.Output)

				assert.Equal(t, "posetl", cfg.Telemetry.ServiceName)
				assert.Equal(t, "none", cfg.Telemetry.TraceExporter)
				assert.Equal(t, 1.0, cfg.Telemetry.SampleRatio)
			},
		},
		{
			name: "environment variables override defaults",
			env: map[string]string{
				"POSETL_PIPELINE_PATTERN":           "orders_*.csv",
				"POSETL_PIPELINE_STRICT":            "true",
				"POSETL_PIPELINE_FALLBACK_ENCODING": "Windows-1252",
				"POSETL_LOGGING_LEVEL":              "DEBUG",
				"POSETL_LOGGING_FORMAT":             "text",
			},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "orders_*.csv", cfg.Pipeline.Pattern)
				assert.True(t, cfg.Pipeline.Strict)
				assert.Equal(t, "windows-1252", cfg.Pipeline.FallbackEncoding)
				assert.Equal(t, "debug", cfg.Logging.Level)
				assert.Equal(t, "json", cfg.Logging.Format) // Validate forces json
				assert.Equal(t, "Combinedata.csv", cfg.Pipeline.OutputFile)
			},
		},
		{
			name: "config file with environment override",
			env: map[string]string{
				"POSETL_PIPELINE_OUTPUT_FILE": "from_env.csv",
			},
			fileContent: `
pipeline:
  input_dir: exports
  output_file: from_file.csv
  prices_file: prices.yaml
export:
  xlsx_file: combined.xlsx
  summary_file: items.json
  csv_bom: true
telemetry:
  trace_exporter: stdout
`,
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "exports", cfg.Pipeline.InputDir)
				assert.Equal(t, "from_env.csv", cfg.Pipeline.OutputFile)
				assert.Equal(t, "prices.yaml", cfg.Pipeline.PricesFile)
				assert.Equal(t, "*.csv", cfg.Pipeline.Pattern) // untouched default
				assert.Equal(t, "combined.xlsx", cfg.Export.XLSXFile)
				assert.Equal(t, "items.json", cfg.Export.SummaryFile)
				assert.True(t, cfg.Export.CSVBOM)
				assert.Equal(t, "stdout", cfg.Telemetry.TraceExporter)
			},
		},
		{
			name:    "unknown fallback encoding",
			env:     map[string]string{"POSETL_PIPELINE_FALLBACK_ENCODING": "ebcdic"},
			wantErr: true,
		},
		{
			name:    "invalid log level",
			env:     map[string]string{"POSETL_LOGGING_LEVEL": "verbose"},
			wantErr: true,
		},
		{
			name:    "invalid log output",
			env:     map[string]string{"POSETL_LOGGING_OUTPUT": "syslog"},
			wantErr: true,
		},
		{
			name:    "sample ratio out of range",
			env:     map[string]string{"POSETL_TELEMETRY_SAMPLE_RATIO": "1.5"},
			wantErr: true,
		},
		{
			name:    "malformed bool",
			env:     map[string]string{"POSETL_PIPELINE_STRICT": "maybe"},
			wantErr: true,
		},
		{
			name:        "malformed yaml",
			fileContent: "pipeline: [",
			wantErr:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			configFile := ""
			if tt.fileContent != "" {
				configFile = filepath.Join(t.TempDir(), "posetl.yaml")
				require.NoError(t, os.WriteFile(configFile, []byte(tt.fileContent), 0644))
			}

			cfg, err := LoadFrom(configFile)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, cfg)
			if tt.validateCfg != nil {
				tt.validateCfg(t, cfg)
			}
		})
	}
}

func TestLoadFrom_MissingFile(t *testing.T) {
	_, err := LoadFrom(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Run("empty pattern rejected", func(t *testing.T) {
		cfg := Default()
		cfg.Pipeline.Pattern = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("file output needs a path", func(t *testing.T) {
		cfg := Default()
		cfg.Logging.Output = "file"
		cfg.Logging.FilePath = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("sqlite sink needs a table", func(t *testing.T) {
		cfg := Default()
		cfg.Export.SQLiteFile = "out.db"
		cfg.Export.SQLiteTable = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("defaults are valid", func(t *testing.T) {
		assert.NoError(t, Default().Validate())
	})
}
