package domain

import (
	"database/sql"
)

// Row is one order line keyed by column name. A missing key and an invalid
// NullString both mean null.
type Row map[string]sql.NullString

// Get returns the cell value and whether it is non-null
func (r Row) Get(column string) (string, bool) {
	v, ok := r[column]
	if !ok || !v.Valid {
		return "", false
	}
	return v.String, true
}

// Set stores a non-null value
func (r Row) Set(column, value string) {
	r[column] = sql.NullString{String: value, Valid: true}
}

// SetNull stores an explicit null
func (r Row) SetNull(column string) {
	r[column] = sql.NullString{}
}

// Table is an ordered set of rows sharing a column list. Rows built from
// files lacking some column simply hold no value for it.
type Table struct {
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`

	index map[string]struct{}
}

// NewTable creates an empty table with the given columns. Duplicate column
// names keep their first position.
func NewTable(columns ...string) *Table {
	t := &Table{}
	for _, c := range columns {
		t.AddColumn(c)
	}
	return t
}

// Len returns the number of rows
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// HasColumn reports whether name is part of the column list
func (t *Table) HasColumn(name string) bool {
	t.ensureIndex()
	_, ok := t.index[name]
	return ok
}

// AddColumn appends name to the column list unless already present
func (t *Table) AddColumn(name string) {
	t.ensureIndex()
	if _, ok := t.index[name]; ok {
		return
	}
	t.index[name] = struct{}{}
	t.Columns = append(t.Columns, name)
}

// Append adds a row at the end
func (t *Table) Append(row Row) {
	t.Rows = append(t.Rows, row)
}

// Filter keeps the rows for which keep returns true, preserving order, and
// returns how many rows were removed.
func (t *Table) Filter(keep func(Row) bool) int {
	kept := t.Rows[:0]
	for _, r := range t.Rows {
		if keep(r) {
			kept = append(kept, r)
		}
	}
	dropped := len(t.Rows) - len(kept)
	// release references held past the new length
	for i := len(kept); i < len(t.Rows); i++ {
		t.Rows[i] = nil
	}
	t.Rows = kept
	return dropped
}

// Records renders the rows in column order with nulls as empty strings
func (t *Table) Records() [][]string {
	records := make([][]string, 0, len(t.Rows))
	for _, r := range t.Rows {
		rec := make([]string, len(t.Columns))
		for i, c := range t.Columns {
			rec[i], _ = r.Get(c)
		}
		records = append(records, rec)
	}
	return records
}

func (t *Table) ensureIndex() {
	if t.index != nil && len(t.index) == len(t.Columns) {
		return
	}
	t.index = make(map[string]struct{}, len(t.Columns))
	for _, c := range t.Columns {
		t.index[c] = struct{}{}
	}
}
