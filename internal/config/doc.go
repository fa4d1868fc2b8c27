// Package config provides centralized configuration management for posetl.
// It handles loading configuration from multiple sources, validation, and
// provides a type-safe API for accessing configuration values.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//	1. Environment variables (highest priority)
//	2. Configuration file (posetl.yaml or configs/posetl.yaml)
//	3. Default values (lowest priority)
//
// Command-line flags in cmd/combine are applied on top of the loaded Config.
//
// # Environment Variables
//
// All environment variables follow the pattern POSETL_<SECTION>_<FIELD>:
//
//	POSETL_PIPELINE_INPUT_DIR=./exports
//	POSETL_PIPELINE_PATTERN=*.csv
//	POSETL_PIPELINE_OUTPUT_FILE=Combinedata.csv
//	POSETL_PIPELINE_FALLBACK_ENCODING=iso-8859-1
//	POSETL_PIPELINE_STRICT=false
//	POSETL_EXPORT_XLSX_FILE=Combinedata.xlsx
//	POSETL_LOGGING_LEVEL=debug
//	POSETL_TELEMETRY_TRACE_EXPORTER=stdout
//
// # Validation
//
// Struct tags are checked with go-playground/validator. Unknown encodings,
// log levels and outputs are rejected at load time.
package config
