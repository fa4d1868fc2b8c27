package pricing

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"

	"posetl/pkg/contracts/domain"
)

// CostStats summarises one pricing pass
type CostStats struct {
	Rows           int      `json:"rows"`
	BaseMisses     int      `json:"base_misses"`
	ModifierMisses int      `json:"modifier_misses"`
	Total          string   `json:"total"`
	UnpricedItems  []string `json:"unpriced_items,omitempty"`
}

// Misses returns the number of non-null names absent from the catalog
func (s CostStats) Misses() int {
	return s.BaseMisses + s.ModifierMisses
}

// Calculator appends the Base Cost, Modifier Cost and Total Cost columns
type Calculator struct {
	catalog *Catalog
	logger  *slog.Logger
}

// NewCalculator creates a calculator over catalog. A nil catalog means the
// default menu.
func NewCalculator(catalog *Catalog, logger *slog.Logger) *Calculator {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Calculator{catalog: catalog, logger: logger}
}

// Apply prices every row of t in place. A null or unlisted name prices at
// zero; only non-null unlisted names are counted as misses.
func (c *Calculator) Apply(ctx context.Context, t *domain.Table) CostStats {
	for _, col := range domain.CostColumns {
		t.AddColumn(col)
	}

	stats := CostStats{Rows: t.Len()}
	grand := decimal.Zero
	seen := make(map[string]struct{})

	for _, row := range t.Rows {
		base := decimal.Zero
		if item, ok := row.Get(domain.ColItem); ok {
			if p, found := c.catalog.BasePrice(item); found {
				base = p
			} else {
				stats.BaseMisses++
				if _, dup := seen[item]; !dup {
					seen[item] = struct{}{}
					stats.UnpricedItems = append(stats.UnpricedItems, item)
					c.logger.DebugContext(ctx, "No base price for item", slog.String("item", item))
				}
			}
		}

		mod := decimal.Zero
		if name, ok := row.Get(domain.ColModifier); ok {
			if p, found := c.catalog.ModifierPrice(name); found {
				mod = p
			} else {
				stats.ModifierMisses++
				c.logger.DebugContext(ctx, "No price for modifier", slog.String("modifier", name))
			}
		}

		total := base.Add(mod)
		grand = grand.Add(total)

		row.Set(domain.ColBaseCost, base.String())
		row.Set(domain.ColModifierCost, mod.String())
		row.Set(domain.ColTotalCost, total.String())
	}

	stats.Total = grand.String()
	return stats
}
