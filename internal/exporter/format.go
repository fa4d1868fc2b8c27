package exporter

import (
	"strconv"

	"posetl/pkg/contracts/domain"
)

// numericColumns are stored as numbers by sinks that have a number type
var numericColumns = map[string]bool{
	domain.ColItemCount:      true,
	domain.ColItemPercentage: true,
	domain.ColDayOfWeek:      true,
	domain.ColMonth:          true,
	domain.ColHourOfDay:      true,
	domain.ColBaseCost:       true,
	domain.ColModifierCost:   true,
	domain.ColTotalCost:      true,
}

// IsNumericColumn reports whether col holds derived numbers
func IsNumericColumn(col string) bool {
	return numericColumns[col]
}

// cellValue returns the typed value of a cell: nil for null, float64 for a
// parseable numeric column, the raw text otherwise.
func cellValue(row domain.Row, col string) interface{} {
	v, ok := row.Get(col)
	if !ok {
		return nil
	}
	if numericColumns[col] {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return v
}
