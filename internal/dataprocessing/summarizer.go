package dataprocessing

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"posetl/internal/errors"
	"posetl/pkg/contracts/domain"
)

// Summarizer rolls a priced table up into one line per menu item.
type Summarizer struct {
	logger       *slog.Logger
	topModifiers int
}

// SummarizerConfig holds configuration options for the Summarizer.
type SummarizerConfig struct {
	TopModifiers int // How many of the most frequent modifiers to list per item
}

// ItemSummary is the roll-up of every row sharing one item name.
type ItemSummary struct {
	Item         string   `json:"item"`
	Orders       int      `json:"orders"`
	Percentage   float64  `json:"percentage"`
	Revenue      string   `json:"revenue"`
	AverageTotal string   `json:"average_total"`
	TopModifiers []string `json:"top_modifiers"`
	FirstSent    string   `json:"first_sent"`
	LastSent     string   `json:"last_sent"`
}

// NewSummarizer creates a new summarizer with the given configuration.
func NewSummarizer(logger *slog.Logger, config SummarizerConfig) *Summarizer {
	if logger == nil {
		logger = slog.Default()
	}
	if config.TopModifiers <= 0 {
		config.TopModifiers = 3
	}
	return &Summarizer{logger: logger, topModifiers: config.TopModifiers}
}

// DefaultSummarizerConfig returns the default summarizer configuration
func DefaultSummarizerConfig() SummarizerConfig {
	return SummarizerConfig{TopModifiers: 3}
}

type itemAccumulator struct {
	orders    int
	revenue   decimal.Decimal
	modifiers map[string]int
	first     string
	last      string
}

// Summarize groups t by item name. Rows without an item name are left out.
// The result is ordered by descending order count, then by name.
func (s *Summarizer) Summarize(ctx context.Context, t *domain.Table) []ItemSummary {
	acc := make(map[string]*itemAccumulator)
	total := 0

	for _, row := range t.Rows {
		item, ok := row.Get(domain.ColItem)
		if !ok {
			continue
		}
		total++

		a := acc[item]
		if a == nil {
			a = &itemAccumulator{modifiers: make(map[string]int)}
			acc[item] = a
		}
		a.orders++

		if raw, ok := row.Get(domain.ColTotalCost); ok {
			if v, err := decimal.NewFromString(raw); err == nil {
				a.revenue = a.revenue.Add(v)
			}
		}
		if mod, ok := row.Get(domain.ColModifier); ok {
			a.modifiers[mod]++
		}
		// canonical dates sort lexically
		if sent, ok := row.Get(domain.ColSentDate); ok {
			if a.first == "" || sent < a.first {
				a.first = sent
			}
			if sent > a.last {
				a.last = sent
			}
		}
	}

	summaries := make([]ItemSummary, 0, len(acc))
	for item, a := range acc {
		summaries = append(summaries, ItemSummary{
			Item:         item,
			Orders:       a.orders,
			Percentage:   float64(a.orders) / float64(total) * 100,
			Revenue:      a.revenue.StringFixed(2),
			AverageTotal: a.revenue.Div(decimal.NewFromInt(int64(a.orders))).StringFixed(2),
			TopModifiers: s.topOf(a.modifiers),
			FirstSent:    a.first,
			LastSent:     a.last,
		})
	}

	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].Orders != summaries[j].Orders {
			return summaries[i].Orders > summaries[j].Orders
		}
		return summaries[i].Item < summaries[j].Item
	})

	s.logger.DebugContext(ctx, "Summarized items",
		slog.Int("items", len(summaries)),
		slog.Int("rows", total))

	return summaries
}

func (s *Summarizer) topOf(counts map[string]int) []string {
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if counts[names[i]] != counts[names[j]] {
			return counts[names[i]] > counts[names[j]]
		}
		return names[i] < names[j]
	})
	if len(names) > s.topModifiers {
		names = names[:s.topModifiers]
	}
	return names
}

// Write picks the format from the file extension: ".json" writes JSON,
// anything else CSV.
func (s *Summarizer) Write(ctx context.Context, path string, summaries []ItemSummary) error {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return s.WriteJSON(ctx, path, summaries)
	}
	return s.WriteCSV(ctx, path, summaries)
}

// WriteCSV writes item summaries as CSV, one line per item.
func (s *Summarizer) WriteCSV(ctx context.Context, path string, summaries []ItemSummary) error {
	s.logger.InfoContext(ctx, "Writing item summary",
		slog.String("path", path),
		slog.Int("items", len(summaries)))

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.NewStorageError("failed to create directory for item summary", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return errors.NewStorageError("failed to create item summary file", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)

	header := []string{"Item", "Orders", "Percentage", "Revenue", "Average Total", "Top Modifiers", "First Sent", "Last Sent"}
	if err := writer.Write(header); err != nil {
		return errors.NewStorageError("failed to write item summary header", err)
	}

	for _, summary := range summaries {
		row := []string{
			summary.Item,
			strconv.Itoa(summary.Orders),
			strconv.FormatFloat(summary.Percentage, 'f', 2, 64),
			summary.Revenue,
			summary.AverageTotal,
			strings.Join(summary.TopModifiers, "; "),
			summary.FirstSent,
			summary.LastSent,
		}
		if err := writer.Write(row); err != nil {
			return errors.NewStorageError("failed to write item summary row", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return errors.NewStorageError("failed to flush item summary", err)
	}
	return nil
}

// WriteJSON writes item summaries as an indented JSON array.
func (s *Summarizer) WriteJSON(ctx context.Context, path string, summaries []ItemSummary) error {
	s.logger.InfoContext(ctx, "Writing item summary",
		slog.String("path", path),
		slog.Int("items", len(summaries)))

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.NewStorageError("failed to create directory for item summary", err)
	}

	data, err := json.MarshalIndent(summaries, "", "  ")
	if err != nil {
		return errors.NewStorageError("failed to marshal item summary", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.NewStorageError("failed to write item summary file", err)
	}
	return nil
}
