// Package exporter writes the finished order table to its sinks.
//
// This package contains three writers, all satisfying Sink:
//
// CSVWriter: the primary output. It replaces the target file through a temp
// file so a failed run never leaves a half-written CSV behind.
//
// XLSXWriter: an optional workbook copy with numeric columns stored as
// numbers.
//
// SQLiteWriter: an optional SQLite table, recreated on every run.
//
// Example usage:
//
//	sink := exporter.NewCSVWriter("Combinedata.csv", files.NewManager(logger), logger)
//	if err := sink.Write(ctx, table); err != nil {
//	    return err
//	}
package exporter
