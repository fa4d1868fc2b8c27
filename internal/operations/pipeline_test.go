package operations_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"posetl/internal/config"
	"posetl/internal/dataprocessing"
	"posetl/internal/errors"
	"posetl/internal/exporter"
	"posetl/internal/operations"
	"posetl/internal/shared/testutil"
	"posetl/pkg/contracts/domain"
)

func pipelineConfig(dir string) *config.Config {
	cfg := config.Default()
	cfg.Pipeline.InputDir = dir
	cfg.Pipeline.OutputFile = filepath.Join(dir, "Combinedata.csv")
	return cfg
}

func runPipeline(t *testing.T, cfg *config.Config) (*operations.OperationState, error) {
	t.Helper()

	logger, _ := testutil.NewTestLogger(t)
	steps, err := operations.NewPipeline(cfg, logger)
	require.NoError(t, err)

	state := operations.NewOperationState("test-run")
	err = operations.NewRunner(logger, nil, steps...).Run(context.Background(), state)
	return state, err
}

// column returns the values of name in the written CSV, in row order
func column(t *testing.T, records [][]string, name string) []string {
	t.Helper()
	idx := -1
	for i, h := range records[0] {
		if h == name {
			idx = i
		}
	}
	require.GreaterOrEqual(t, idx, 0, "column %q missing", name)

	var out []string
	for _, r := range records[1:] {
		out = append(out, r[idx])
	}
	return out
}

func TestPipeline_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteCSV(t, dir, "a.csv", testutil.OrderHeader,
		[]string{"1", "2024-03-04 12:30:00", "Mac and Cheese", "Cheddar Mac"},
		[]string{"2", "not a date", "Mac and Cheese", "Cheddar Mac"},
		[]string{"3", "3/5/2024 1:15 PM", "Mystery Melt", "Pepper Jack Mac"},
	)
	testutil.WriteCSV(t, dir, "b.csv", []string{"Order #", "Sent Date", "Parent Menu Selection", "Modifier", "Server"},
		[]string{"4", "2024-03-06 09:00:00", "Grilled Cheese Sandwich", "", "Ana"},
	)

	cfg := pipelineConfig(dir)
	state, err := runPipeline(t, cfg)
	require.NoError(t, err)

	records := testutil.ReadCSV(t, cfg.Pipeline.OutputFile)

	// output rows = input rows minus unparsable dates
	require.Len(t, records, 1+4-1)

	wantHeader := append([]string{"Order #", "Sent Date", "Parent Menu Selection", "Modifier", "Server"}, domain.FeatureColumns...)
	wantHeader = append(wantHeader, domain.CostColumns...)
	assert.Equal(t, wantHeader, records[0])

	assert.Equal(t, []string{"1", "3", "4"}, column(t, records, "Order #"))
	assert.Equal(t, []string{"2024-03-04 12:30:00", "2024-03-05 13:15:00", "2024-03-06 09:00:00"}, column(t, records, domain.ColSentDate))
	assert.Equal(t, []string{"", "", "Ana"}, column(t, records, "Server"))

	assert.Equal(t, []string{"Cheddar", "Pepper Jack", "Other"}, column(t, records, domain.ColCheeseCategory))
	assert.Equal(t, []string{"8.99", "0", "8.99"}, column(t, records, domain.ColBaseCost))
	assert.Equal(t, []string{"1.99", "1.99", "0"}, column(t, records, domain.ColModifierCost))
	assert.Equal(t, []string{"10.98", "1.99", "8.99"}, column(t, records, domain.ColTotalCost))

	out, ok := state.PrimaryOutput()
	require.True(t, ok)
	assert.Equal(t, 3, out.Rows)
	assert.Equal(t, 1, state.Features.DroppedDates)
	assert.Equal(t, 1, state.Costs.BaseMisses)

	m := operations.BuildManifest(state, operations.ConfigSnapshot(cfg))
	assert.Equal(t, "completed", m.Status)
	assert.Equal(t, 4, m.Rows.Loaded)
	assert.Equal(t, 3, m.Rows.Written)
	require.Len(t, m.Stages, 6)
	for _, s := range m.Stages {
		assert.Equal(t, "completed", s.Status, s.StageID)
	}
}

func TestPipeline_AllMalformedFileContributesNothing(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteCSV(t, dir, "a.csv", testutil.OrderHeader,
		[]string{"1", "2024-03-04 12:30:00", "Mac and Cheese", "Cheddar Mac"},
		[]string{"2", "2024-03-04 12:45:00", "Mac and Cheese", "Alfredo Mac"},
	)
	testutil.WriteCSV(t, dir, "b.csv", testutil.OrderHeader,
		[]string{"3", "yesterday", "Mac and Cheese", "Cheddar Mac"},
		[]string{"4", "??", "Grilled Cheese Sandwich", ""},
	)

	cfg := pipelineConfig(dir)
	_, err := runPipeline(t, cfg)
	require.NoError(t, err)

	records := testutil.ReadCSV(t, cfg.Pipeline.OutputFile)
	assert.Equal(t, []string{"1", "2"}, column(t, records, "Order #"))
	assert.Equal(t, []string{"2", "2"}, column(t, records, domain.ColItemCount))
	assert.Equal(t, []string{"100", "100"}, column(t, records, domain.ColItemPercentage))
}

func TestPipeline_RerunIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteCSV(t, dir, "orders.csv", testutil.OrderHeader,
		[]string{"1", "2024-03-04 12:30:00", "Mac and Cheese", "Cheddar Mac"},
		[]string{"2", "2024-03-04 12:31:00", "Grilled Cheese Sandwich", "Pepper Jack"},
	)

	cfg := pipelineConfig(dir)
	cfg.Export.SummaryFile = filepath.Join(dir, "items.csv")

	_, err := runPipeline(t, cfg)
	require.NoError(t, err)
	first, err := os.ReadFile(cfg.Pipeline.OutputFile)
	require.NoError(t, err)

	state, err := runPipeline(t, cfg)
	require.NoError(t, err)
	second, err := os.ReadFile(cfg.Pipeline.OutputFile)
	require.NoError(t, err)

	assert.Equal(t, string(first), string(second))
	require.Len(t, state.Files, 1, "outputs matching the glob are not read back")
	assert.Equal(t, "orders.csv", state.Files[0].Name)
}

func TestPipeline_NoMatchingFiles(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteRaw(t, dir, "notes.txt", []byte("not an export"))

	cfg := pipelineConfig(dir)
	state, err := runPipeline(t, cfg)
	require.Error(t, err)

	assert.ErrorIs(t, err, errors.ErrNoMatchingFiles)
	assert.Equal(t, errors.ErrTypeDiscovery, errors.TypeOf(err))
	assert.Equal(t, operations.ErrorTypeFatal, operations.GetErrorType(err))
	assert.Equal(t, operations.OperationStatusFailed, state.GetStatus())

	assert.NoFileExists(t, cfg.Pipeline.OutputFile)
}

func TestPipeline_NoReadableFiles(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteLatin1CSV(t, dir, "legacy.csv", testutil.OrderHeader,
		[]string{"1", "2024-03-04 12:30:00", "Jalapeño Popper", ""},
	)

	cfg := pipelineConfig(dir)
	cfg.Pipeline.FallbackEncoding = dataprocessing.EncodingNone

	state, err := runPipeline(t, cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrNoFilesLoaded)
	assert.NoFileExists(t, cfg.Pipeline.OutputFile)

	require.NotNil(t, state.Load)
	require.Len(t, state.Load.Skipped, 1)
}

func TestPipeline_Latin1Fallback(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteLatin1CSV(t, dir, "legacy.csv", testutil.OrderHeader,
		[]string{"1", "2024-03-04 12:30:00", "Jalapeño Popper", ""},
	)

	cfg := pipelineConfig(dir)
	state, err := runPipeline(t, cfg)
	require.NoError(t, err)

	records := testutil.ReadCSV(t, cfg.Pipeline.OutputFile)
	assert.Equal(t, []string{"Jalapeño Popper"}, column(t, records, domain.ColItem))
	assert.Equal(t, dataprocessing.EncodingISO88591, state.Load.Loaded[0].Encoding)
}

func TestPipeline_StrictMode(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteCSV(t, dir, "a.csv", testutil.OrderHeader,
		[]string{"1", "2024-03-04 12:30:00", "Mac and Cheese", "Cheddar Mac"},
		[]string{"2", "2024-03-04 12:31:00", "Mac and Cheese", ""},
	)

	cfg := pipelineConfig(dir)
	cfg.Pipeline.Strict = true
	state, err := runPipeline(t, cfg)
	require.NoError(t, err)

	assert.Equal(t, 1, state.Features.DroppedRequired)
	records := testutil.ReadCSV(t, cfg.Pipeline.OutputFile)
	assert.Equal(t, []string{"1"}, column(t, records, "Order #"))
}

func TestPipeline_CustomPriceFile(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteCSV(t, dir, "a.csv", testutil.OrderHeader,
		[]string{"1", "2024-03-04 12:30:00", "Mac and Cheese", "Cheddar Mac"},
	)
	prices := filepath.Join(t.TempDir(), "prices.yaml")
	require.NoError(t, os.WriteFile(prices, []byte("items:\n  Mac and Cheese: \"9.49\"\nmodifiers:\n  Cheddar Mac: \"2.01\"\n"), 0644))

	cfg := pipelineConfig(dir)
	cfg.Pipeline.PricesFile = prices
	_, err := runPipeline(t, cfg)
	require.NoError(t, err)

	records := testutil.ReadCSV(t, cfg.Pipeline.OutputFile)
	assert.Equal(t, []string{"11.5"}, column(t, records, domain.ColTotalCost))
}

func TestNewPipeline_ConfigErrors(t *testing.T) {
	cfg := pipelineConfig(t.TempDir())
	cfg.Pipeline.PricesFile = filepath.Join(t.TempDir(), "missing.yaml")
	_, err := operations.NewPipeline(cfg, nil)
	assert.Equal(t, errors.ErrTypeConfig, errors.TypeOf(err))

	cfg = pipelineConfig(t.TempDir())
	cfg.Pipeline.FallbackEncoding = "ebcdic"
	_, err = operations.NewPipeline(cfg, nil)
	assert.Equal(t, errors.ErrTypeConfig, errors.TypeOf(err))
}

func TestPipeline_ExtraSinks(t *testing.T) {
	dir := t.TempDir()
	out := t.TempDir()
	testutil.WriteCSV(t, dir, "a.csv", testutil.OrderHeader,
		[]string{"1", "2024-03-04 12:30:00", "Mac and Cheese", "Cheddar Mac"},
		[]string{"2", "2024-03-04 12:31:00", "Mac and Cheese", "Cheddar Mac"},
		[]string{"3", "2024-03-04 12:32:00", "Grilled Cheese Sandwich", ""},
	)

	cfg := pipelineConfig(dir)
	cfg.Export.XLSXFile = filepath.Join(out, "orders.xlsx")
	cfg.Export.SQLiteFile = filepath.Join(out, "orders.db")
	cfg.Export.SummaryFile = filepath.Join(out, "items.json")

	state, err := runPipeline(t, cfg)
	require.NoError(t, err)

	require.Len(t, state.Outputs, 4)
	names := make([]string, len(state.Outputs))
	for i, o := range state.Outputs {
		names[i] = o.Sink
		assert.Empty(t, o.Error)
	}
	assert.Equal(t, []string{"csv", "xlsx", "sqlite", "summary"}, names)

	wb, err := excelize.OpenFile(cfg.Export.XLSXFile)
	require.NoError(t, err)
	rows, err := wb.GetRows(exporter.DefaultSheetName)
	require.NoError(t, err)
	assert.Len(t, rows, 4)
	require.NoError(t, wb.Close())

	db, err := sqlx.Open("sqlite3", cfg.Export.SQLiteFile)
	require.NoError(t, err)
	defer db.Close()
	var revenue float64
	require.NoError(t, db.Get(&revenue, `SELECT SUM("Total Cost") FROM "orders"`))
	assert.InDelta(t, 30.95, revenue, 1e-9)

	raw, err := os.ReadFile(cfg.Export.SummaryFile)
	require.NoError(t, err)
	var summaries []dataprocessing.ItemSummary
	require.NoError(t, json.Unmarshal(raw, &summaries))
	require.Len(t, summaries, 2)
	assert.Equal(t, "Mac and Cheese", summaries[0].Item)
	assert.Equal(t, 2, summaries[0].Orders)
	assert.Equal(t, "21.96", summaries[0].Revenue)
}

func TestPipeline_FailedExtraSinkKeepsCSV(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteCSV(t, dir, "a.csv", testutil.OrderHeader,
		[]string{"1", "2024-03-04 12:30:00", "Mac and Cheese", "Cheddar Mac"},
	)
	blocker := testutil.WriteRaw(t, t.TempDir(), "blocker", nil)

	cfg := pipelineConfig(dir)
	cfg.Export.SQLiteFile = filepath.Join(blocker, "orders.db")
	cfg.Export.SummaryFile = filepath.Join(t.TempDir(), "items.csv")

	state, err := runPipeline(t, cfg)
	require.Error(t, err)
	assert.Equal(t, operations.ErrorTypeExecution, operations.GetErrorType(err))
	assert.Equal(t, errors.ErrTypeStorage, errors.TypeOf(err))

	_, ok := state.PrimaryOutput()
	assert.True(t, ok)
	assert.FileExists(t, cfg.Pipeline.OutputFile)
	assert.FileExists(t, cfg.Export.SummaryFile, "later sinks still run")

	require.Len(t, state.Outputs, 3)
	assert.NotEmpty(t, state.Outputs[1].Error)
	assert.Empty(t, state.Outputs[2].Error)
}
