package dataprocessing

import (
	"posetl/pkg/contracts/domain"
)

// Merge concatenates tables in order. The result's columns are the union of
// the inputs' columns in first-seen order; a row reads null for any column
// its source table did not have. Rows are shared with the inputs, not
// copied, and duplicates are kept.
func Merge(tables ...*domain.Table) *domain.Table {
	total := 0
	for _, t := range tables {
		total += t.Len()
	}

	merged := domain.NewTable()
	merged.Rows = make([]domain.Row, 0, total)

	for _, t := range tables {
		if t == nil {
			continue
		}
		for _, col := range t.Columns {
			merged.AddColumn(col)
		}
		merged.Rows = append(merged.Rows, t.Rows...)
	}

	return merged
}
