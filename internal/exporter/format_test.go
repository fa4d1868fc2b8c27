package exporter

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"posetl/pkg/contracts/domain"
)

func TestCellValue(t *testing.T) {
	row := domain.Row{}
	row.Set(domain.ColTotalCost, "10.98")
	row.Set(domain.ColHourOfDay, "7")
	row.Set(domain.ColItem, "Mac and Cheese")
	row.Set(domain.ColItemCount, "n/a")
	row.SetNull(domain.ColModifier)

	tests := []struct {
		name string
		col  string
		want interface{}
	}{
		{"decimal cost", domain.ColTotalCost, 10.98},
		{"integer field", domain.ColHourOfDay, 7.0},
		{"text column", domain.ColItem, "Mac and Cheese"},
		{"unparseable numeric falls back to text", domain.ColItemCount, "n/a"},
		{"null", domain.ColModifier, nil},
		{"absent", "Server", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cellValue(row, tt.col))
		})
	}
}

func TestIsNumericColumn(t *testing.T) {
	assert.True(t, IsNumericColumn(domain.ColBaseCost))
	assert.True(t, IsNumericColumn(domain.ColItemPercentage))
	assert.False(t, IsNumericColumn(domain.ColWeekdayName))
	assert.False(t, IsNumericColumn(domain.ColSentDate))
}
