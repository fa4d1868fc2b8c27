package exporter

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"

	"posetl/internal/errors"
	"posetl/internal/files"
	"posetl/pkg/contracts/domain"
)

// CSVWriter writes the table as delimited text with a header row and no
// index column. Nulls are written as empty fields.
type CSVWriter struct {
	path      string
	manager   *files.Manager
	logger    *slog.Logger
	bomPrefix bool
}

// CSVOption configures a CSVWriter
type CSVOption func(*CSVWriter)

// WithBOM prefixes the file with a UTF-8 BOM, which helps Excel recognise
// the encoding.
func WithBOM() CSVOption {
	return func(w *CSVWriter) { w.bomPrefix = true }
}

// NewCSVWriter creates a new CSV writer instance
func NewCSVWriter(path string, manager *files.Manager, logger *slog.Logger, opts ...CSVOption) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	if manager == nil {
		manager = files.NewManager(logger)
	}
	w := &CSVWriter{path: path, manager: manager, logger: logger}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Name implements Sink
func (w *CSVWriter) Name() string { return "csv" }

// Path implements Sink
func (w *CSVWriter) Path() string { return w.path }

// Write implements Sink. The existing file is only replaced once the new
// content has been written and flushed.
func (w *CSVWriter) Write(ctx context.Context, t *domain.Table) (err error) {
	w.logger.InfoContext(ctx, "Writing CSV file",
		slog.String("file_path", w.path),
		slog.Int("record_count", t.Len()),
		slog.Int("column_count", len(t.Columns)))

	tmp, err := w.manager.CreateTemp(w.path)
	if err != nil {
		return errors.NewStorageError("failed to create output file", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			w.manager.Discard(tmp.Name())
		}
	}()

	if w.bomPrefix {
		if _, err = tmp.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
			return errors.NewStorageError("failed to write BOM", err)
		}
	}

	writer := csv.NewWriter(tmp)
	if err = writer.Write(t.Columns); err != nil {
		return errors.NewStorageError("failed to write headers", err)
	}

	record := make([]string, len(t.Columns))
	for i, row := range t.Rows {
		if i%1000 == 0 {
			if err = ctx.Err(); err != nil {
				return err
			}
		}
		for j, col := range t.Columns {
			record[j], _ = row.Get(col)
		}
		if err = writer.Write(record); err != nil {
			return errors.NewStorageError(fmt.Sprintf("failed to write record %d", i), err)
		}
	}

	writer.Flush()
	if err = writer.Error(); err != nil {
		return errors.NewStorageError("failed to flush output", err)
	}
	if err = tmp.Sync(); err != nil {
		return errors.NewStorageError("failed to sync output", err)
	}
	if err = tmp.Close(); err != nil {
		return errors.NewStorageError("failed to close output", err)
	}

	if err = w.manager.ReplaceFile(tmp.Name(), w.path); err != nil {
		return errors.NewStorageError("failed to move output into place", err)
	}
	return nil
}
