package dataprocessing

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"posetl/internal/errors"
	"posetl/pkg/contracts/domain"
)

// Encoding names accepted for the legacy fallback
const (
	EncodingUTF8        = "utf-8"
	EncodingISO88591    = "iso-8859-1"
	EncodingLatin1      = "latin1"
	EncodingWindows1252 = "windows-1252"
	EncodingNone        = "none"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// LoadedFile records one file that made it into the merge
type LoadedFile struct {
	Path     string `json:"path"`
	Encoding string `json:"encoding"`
	Rows     int    `json:"rows"`
	Columns  int    `json:"columns"`
}

// SkippedFile records one file that could not be read
type SkippedFile struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// LoadResult holds the tables read by LoadAll, in input order
type LoadResult struct {
	Tables  []*domain.Table `json:"-"`
	Loaded  []LoadedFile    `json:"loaded"`
	Skipped []SkippedFile   `json:"skipped,omitempty"`
}

// Rows returns the total row count over all loaded tables
func (r *LoadResult) Rows() int {
	n := 0
	for _, t := range r.Tables {
		n += t.Len()
	}
	return n
}

// Loader reads point-of-sale CSV exports. Each file is tried as UTF-8
// first and then, if the bytes are not valid UTF-8, with the fallback
// encoding.
type Loader struct {
	fallback     encoding.Encoding
	fallbackName string
	logger       *slog.Logger
}

// NewLoader creates a loader with the named fallback encoding. "none"
// disables the retry so non-UTF-8 files are skipped.
func NewLoader(fallbackEncoding string, logger *slog.Logger) (*Loader, error) {
	if logger == nil {
		logger = slog.Default()
	}

	name := strings.ToLower(strings.TrimSpace(fallbackEncoding))
	l := &Loader{logger: logger, fallbackName: name}

	switch name {
	case "", EncodingISO88591, EncodingLatin1:
		l.fallback = charmap.ISO8859_1
		l.fallbackName = EncodingISO88591
	case EncodingWindows1252:
		l.fallback = charmap.Windows1252
	case EncodingNone:
		l.fallback = nil
	default:
		return nil, errors.NewConfigError(fmt.Sprintf("unsupported fallback encoding %q", fallbackEncoding), nil)
	}

	return l, nil
}

// LoadAll reads every path in order. Files that cannot be decoded or parsed
// are logged and skipped. It fails only when no file at all could be read.
func (l *Loader) LoadAll(ctx context.Context, paths []string) (*LoadResult, error) {
	result := &LoadResult{}

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		table, enc, err := l.LoadFile(path)
		if err != nil {
			l.logger.WarnContext(ctx, "Skipping unreadable file",
				slog.String("path", path),
				slog.String("error", err.Error()))
			result.Skipped = append(result.Skipped, SkippedFile{Path: path, Reason: err.Error()})
			continue
		}

		l.logger.DebugContext(ctx, "Loaded file",
			slog.String("path", path),
			slog.String("encoding", enc),
			slog.Int("rows", table.Len()),
			slog.Int("columns", len(table.Columns)))

		result.Tables = append(result.Tables, table)
		result.Loaded = append(result.Loaded, LoadedFile{
			Path:     path,
			Encoding: enc,
			Rows:     table.Len(),
			Columns:  len(table.Columns),
		})
	}

	if len(result.Tables) == 0 {
		return result, errors.NewEmptyResultError(len(paths))
	}

	return result, nil
}

// LoadFile reads one file fully and returns its table together with the
// encoding that decoded it.
func (l *Loader) LoadFile(path string) (*domain.Table, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", errors.NewDecodeError(path, err)
	}

	text, enc, err := l.decode(data)
	if err != nil {
		return nil, "", errors.NewDecodeError(path, err)
	}

	table, err := parseCSV(bytes.NewReader(text))
	if err != nil {
		return nil, "", errors.NewDecodeError(path, err)
	}

	return table, enc, nil
}

func (l *Loader) decode(data []byte) ([]byte, string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return data, EncodingUTF8, nil
	}

	if l.fallback == nil {
		return nil, "", fmt.Errorf("content is not valid UTF-8")
	}

	decoded, _, err := transform.Bytes(l.fallback.NewDecoder(), data)
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode as %s: %w", l.fallbackName, err)
	}
	return decoded, l.fallbackName, nil
}

// nullTokens are the cell values read as null besides the empty string.
// These are the usual spreadsheet and export spellings of a missing value.
var nullTokens = map[string]struct{}{
	"#N/A": {}, "#N/A N/A": {}, "#NA": {}, "-1.#IND": {}, "-1.#QNAN": {},
	"-NaN": {}, "-nan": {}, "1.#IND": {}, "1.#QNAN": {}, "<NA>": {},
	"N/A": {}, "NA": {}, "NULL": {}, "NaN": {}, "None": {},
	"n/a": {}, "nan": {}, "null": {},
}

// isNullCell reports whether a raw CSV cell stands for a missing value
func isNullCell(v string) bool {
	if v == "" {
		return true
	}
	_, ok := nullTokens[v]
	return ok
}

// parseCSV reads a header row followed by data rows. Null cells (see
// isNullCell) and cells past the end of a short row are null. A row longer
// than the header is an error. Quotes inside an unquoted field are kept as
// text.
func parseCSV(r io.Reader) (*domain.Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("file has no header row")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	columns := uniqueColumns(header)
	table := domain.NewTable(columns...)

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read record: %w", err)
		}
		if len(record) > len(columns) {
			line, _ := reader.FieldPos(0)
			return nil, fmt.Errorf("line %d: expected %d fields, saw %d", line, len(columns), len(record))
		}

		row := make(domain.Row, len(columns))
		for i, col := range columns {
			if i < len(record) && !isNullCell(record[i]) {
				row.Set(col, record[i])
			} else {
				row.SetNull(col)
			}
		}
		table.Append(row)
	}

	return table, nil
}

// uniqueColumns renames repeated header names to "name.1", "name.2" and so
// on so that no cell is lost.
func uniqueColumns(header []string) []string {
	taken := make(map[string]bool, len(header))
	out := make([]string, len(header))
	for i, name := range header {
		candidate := name
		for n := 1; taken[candidate]; n++ {
			candidate = name + "." + strconv.Itoa(n)
		}
		taken[candidate] = true
		out[i] = candidate
	}
	return out
}
