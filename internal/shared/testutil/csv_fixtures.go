package testutil

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
)

// OrderHeader is the column layout of a typical point-of-sale export
var OrderHeader = []string{"Order #", "Sent Date", "Parent Menu Selection", "Modifier"}

// RenderCSV encodes header and rows as UTF-8 CSV text
func RenderCSV(t *testing.T, header []string, rows ...[]string) []byte {
	t.Helper()

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	require.NoError(t, w.Write(header))
	for _, r := range rows {
		require.NoError(t, w.Write(r))
	}
	w.Flush()
	require.NoError(t, w.Error())
	return buf.Bytes()
}

// WriteCSV writes a UTF-8 CSV fixture into dir and returns its path
func WriteCSV(t *testing.T, dir, name string, header []string, rows ...[]string) string {
	t.Helper()
	return WriteRaw(t, dir, name, RenderCSV(t, header, rows...))
}

// WriteLatin1CSV writes a CSV fixture encoded as ISO-8859-1, so any
// non-ASCII text makes the file invalid UTF-8.
func WriteLatin1CSV(t *testing.T, dir, name string, header []string, rows ...[]string) string {
	t.Helper()

	encoded, err := charmap.ISO8859_1.NewEncoder().Bytes(RenderCSV(t, header, rows...))
	require.NoError(t, err)
	return WriteRaw(t, dir, name, encoded)
}

// WriteRaw writes data verbatim into dir and returns its path
func WriteRaw(t *testing.T, dir, name string, data []byte) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

// ReadCSV reads a CSV file back as records, header included
func ReadCSV(t *testing.T, path string) [][]string {
	t.Helper()

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return records
}
