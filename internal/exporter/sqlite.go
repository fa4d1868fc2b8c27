package exporter

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"posetl/internal/errors"
	"posetl/internal/files"
	"posetl/pkg/contracts/domain"
)

// SQLiteWriter loads the table into a SQLite database. The target table is
// dropped and recreated on every write so it always mirrors the CSV.
type SQLiteWriter struct {
	path    string
	table   string
	manager *files.Manager
	logger  *slog.Logger
}

// NewSQLiteWriter creates a SQLite sink writing table into the database at
// path
func NewSQLiteWriter(path, table string, manager *files.Manager, logger *slog.Logger) *SQLiteWriter {
	if logger == nil {
		logger = slog.Default()
	}
	if manager == nil {
		manager = files.NewManager(logger)
	}
	if table == "" {
		table = "orders"
	}
	return &SQLiteWriter{path: path, table: table, manager: manager, logger: logger}
}

// Name implements Sink
func (w *SQLiteWriter) Name() string { return "sqlite" }

// Path implements Sink
func (w *SQLiteWriter) Path() string { return w.path }

// Table returns the name of the table written
func (w *SQLiteWriter) Table() string { return w.table }

// Write implements Sink
func (w *SQLiteWriter) Write(ctx context.Context, t *domain.Table) (err error) {
	w.logger.InfoContext(ctx, "Writing SQLite table",
		slog.String("file_path", w.path),
		slog.String("table", w.table),
		slog.Int("record_count", t.Len()))

	if len(t.Columns) == 0 {
		return errors.NewValidationError("cannot create a table without columns")
	}

	if err := w.manager.EnsureParentDirectory(w.path); err != nil {
		return errors.NewStorageError("failed to create database directory", err)
	}

	db, err := sqlx.Open("sqlite3", w.path+"?_busy_timeout=5000")
	if err != nil {
		return errors.NewStorageError("failed to open database", err)
	}
	defer db.Close()

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.NewStorageError("failed to begin transaction", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				w.logger.WarnContext(ctx, "Rollback failed",
					slog.String("table", w.table),
					slog.String("error", rbErr.Error()))
			}
		}
	}()

	for _, stmt := range []string{dropTableSQL(w.table), createTableSQL(w.table, t.Columns)} {
		if _, err = tx.ExecContext(ctx, stmt); err != nil {
			return errors.NewStorageError("failed to prepare table", err)
		}
	}

	insert, err := tx.PreparexContext(ctx, insertSQL(w.table, t.Columns))
	if err != nil {
		return errors.NewStorageError("failed to prepare insert", err)
	}
	defer insert.Close()

	args := make([]interface{}, len(t.Columns))
	for i, row := range t.Rows {
		for j, col := range t.Columns {
			args[j] = sqlValue(row, col)
		}
		if _, err = insert.ExecContext(ctx, args...); err != nil {
			return errors.NewStorageError(fmt.Sprintf("failed to insert row %d", i), err)
		}
	}

	if err = tx.Commit(); err != nil {
		return errors.NewStorageError("failed to commit", err)
	}
	return nil
}

// sqlValue stores numeric derived columns as REAL and everything else as
// TEXT, with null preserved.
func sqlValue(row domain.Row, col string) interface{} {
	v := cellValue(row, col)
	if v == nil {
		return sql.NullString{}
	}
	return v
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func dropTableSQL(table string) string {
	return "DROP TABLE IF EXISTS " + quoteIdent(table)
}

func createTableSQL(table string, columns []string) string {
	defs := make([]string, len(columns))
	for i, col := range columns {
		typ := "TEXT"
		if IsNumericColumn(col) {
			typ = "REAL"
		}
		defs[i] = quoteIdent(col) + " " + typ
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(table), strings.Join(defs, ", "))
}

func insertSQL(table string, columns []string) string {
	quoted := make([]string, len(columns))
	for i, col := range columns {
		quoted[i] = quoteIdent(col)
	}
	placeholders := strings.Repeat("?,", len(columns)-1) + "?"
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", quoteIdent(table), strings.Join(quoted, ", "), placeholders)
}
