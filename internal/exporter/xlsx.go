package exporter

import (
	"context"
	"log/slog"

	"github.com/xuri/excelize/v2"

	"posetl/internal/errors"
	"posetl/internal/files"
	"posetl/pkg/contracts/domain"
)

// DefaultSheetName is the worksheet the order table is written to
const DefaultSheetName = "Orders"

// XLSXWriter writes the table to a single-sheet workbook. Numeric derived
// columns are stored as numbers so they can be summed in a spreadsheet.
type XLSXWriter struct {
	path    string
	sheet   string
	manager *files.Manager
	logger  *slog.Logger
}

// NewXLSXWriter creates a workbook sink
func NewXLSXWriter(path string, manager *files.Manager, logger *slog.Logger) *XLSXWriter {
	if logger == nil {
		logger = slog.Default()
	}
	if manager == nil {
		manager = files.NewManager(logger)
	}
	return &XLSXWriter{path: path, sheet: DefaultSheetName, manager: manager, logger: logger}
}

// Name implements Sink
func (w *XLSXWriter) Name() string { return "xlsx" }

// Path implements Sink
func (w *XLSXWriter) Path() string { return w.path }

// Write implements Sink
func (w *XLSXWriter) Write(ctx context.Context, t *domain.Table) error {
	w.logger.InfoContext(ctx, "Writing workbook",
		slog.String("file_path", w.path),
		slog.String("sheet", w.sheet),
		slog.Int("record_count", t.Len()))

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", w.sheet); err != nil {
		return errors.NewStorageError("failed to name worksheet", err)
	}

	sw, err := f.NewStreamWriter(w.sheet)
	if err != nil {
		return errors.NewStorageError("failed to open worksheet stream", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return errors.NewStorageError("failed to create header style", err)
	}

	header := make([]interface{}, len(t.Columns))
	for i, col := range t.Columns {
		header[i] = col
	}
	if err := sw.SetRow("A1", header, excelize.RowOpts{StyleID: headerStyle}); err != nil {
		return errors.NewStorageError("failed to write header row", err)
	}

	for i, row := range t.Rows {
		if i%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}

		values := make([]interface{}, len(t.Columns))
		for j, col := range t.Columns {
			values[j] = cellValue(row, col)
		}

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return errors.NewStorageError("failed to address row", err)
		}
		if err := sw.SetRow(cell, values); err != nil {
			return errors.NewStorageError("failed to write row", err)
		}
	}

	if err := sw.Flush(); err != nil {
		return errors.NewStorageError("failed to flush worksheet", err)
	}

	if err := w.manager.EnsureParentDirectory(w.path); err != nil {
		return errors.NewStorageError("failed to create workbook directory", err)
	}
	if err := f.SaveAs(w.path); err != nil {
		return errors.NewStorageError("failed to save workbook", err)
	}
	return nil
}
