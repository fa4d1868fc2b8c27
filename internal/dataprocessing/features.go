package dataprocessing

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"posetl/pkg/contracts/domain"
)

// FeatureStats summarises one derivation pass
type FeatureStats struct {
	InputRows       int `json:"input_rows"`
	DroppedRequired int `json:"dropped_required,omitempty"`
	DroppedDates    int `json:"dropped_dates"`
	OutputRows      int `json:"output_rows"`
	DistinctItems   int `json:"distinct_items"`
}

// Dropped returns the total number of rows removed
func (s FeatureStats) Dropped() int {
	return s.DroppedRequired + s.DroppedDates
}

// FeatureDeriver adds the analytical columns to a merged table
type FeatureDeriver struct {
	strict bool
	logger *slog.Logger
}

// NewFeatureDeriver creates a deriver. In strict mode rows with a null in
// any required source column are removed before anything else.
func NewFeatureDeriver(strict bool, logger *slog.Logger) *FeatureDeriver {
	if logger == nil {
		logger = slog.Default()
	}
	return &FeatureDeriver{strict: strict, logger: logger}
}

// Derive mutates t in place: it drops rows whose "Sent Date" cannot be
// parsed, rewrites the rest in canonical form, and appends the feature
// columns.
func (d *FeatureDeriver) Derive(ctx context.Context, t *domain.Table) FeatureStats {
	stats := FeatureStats{InputRows: t.Len()}

	if !t.HasColumn(domain.ColSentDate) {
		d.logger.WarnContext(ctx, "Merged table has no date column, every row will be dropped",
			slog.String("column", domain.ColSentDate))
	}

	if d.strict {
		stats.DroppedRequired = t.Filter(hasRequiredColumns)
	}

	stats.DroppedDates = t.Filter(func(row domain.Row) bool {
		raw, ok := row.Get(domain.ColSentDate)
		if !ok {
			return false
		}
		ts, ok := ParseSentDate(raw)
		if !ok {
			return false
		}
		row.Set(domain.ColSentDate, ts.Format(domain.SentDateLayout))
		return true
	})

	if stats.Dropped() > 0 {
		d.logger.InfoContext(ctx, "Dropped rows",
			slog.Int("unparsable_dates", stats.DroppedDates),
			slog.Int("missing_required", stats.DroppedRequired))
	}

	for _, col := range domain.FeatureColumns {
		t.AddColumn(col)
	}

	stats.DistinctItems = d.addItemFrequencies(t)
	for _, row := range t.Rows {
		addCalendarFields(row)
		row.Set(domain.ColCheeseCategory, string(CategorizeModifier(row)))
	}

	stats.OutputRows = t.Len()
	return stats
}

func hasRequiredColumns(row domain.Row) bool {
	for _, col := range domain.RequiredColumns {
		if _, ok := row.Get(col); !ok {
			return false
		}
	}
	return true
}

// addItemFrequencies broadcasts per-item count and percentage of the
// non-null item total onto every row. Rows without an item name get nulls.
func (d *FeatureDeriver) addItemFrequencies(t *domain.Table) int {
	counts := make(map[string]int)
	total := 0
	for _, row := range t.Rows {
		if item, ok := row.Get(domain.ColItem); ok {
			counts[item]++
			total++
		}
	}

	for _, row := range t.Rows {
		item, ok := row.Get(domain.ColItem)
		if !ok {
			row.SetNull(domain.ColItemCount)
			row.SetNull(domain.ColItemPercentage)
			continue
		}
		n := counts[item]
		row.Set(domain.ColItemCount, strconv.Itoa(n))
		row.Set(domain.ColItemPercentage, FormatPercentage(float64(n)/float64(total)*100))
	}

	return len(counts)
}

// FormatPercentage renders p with the fewest digits that round-trip
func FormatPercentage(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64)
}

// addCalendarFields expects a canonical "Sent Date" value
func addCalendarFields(row domain.Row) {
	raw, _ := row.Get(domain.ColSentDate)
	ts, err := time.Parse(domain.SentDateLayout, raw)
	if err != nil {
		return
	}

	// Monday is 0
	weekday := (int(ts.Weekday()) + 6) % 7

	row.Set(domain.ColDayOfWeek, strconv.Itoa(weekday))
	row.Set(domain.ColWeekdayName, ts.Weekday().String())
	row.Set(domain.ColMonth, strconv.Itoa(int(ts.Month())))
	row.Set(domain.ColMonthName, ts.Month().String())
	row.Set(domain.ColHourOfDay, strconv.Itoa(ts.Hour()))
}

// CategorizeModifier tags a row by the first cheese keyword its modifier
// contains. A null modifier matches nothing and lands in Other.
func CategorizeModifier(row domain.Row) domain.CheeseCategory {
	modifier, _ := row.Get(domain.ColModifier)
	return CategorizeText(modifier)
}

// CategorizeText applies the keyword priority to s. Matching is
// case-sensitive.
func CategorizeText(s string) domain.CheeseCategory {
	for _, category := range domain.CheesePriority {
		if strings.Contains(s, string(category)) {
			return category
		}
	}
	return domain.CheeseOther
}
