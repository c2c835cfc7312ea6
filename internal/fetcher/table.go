package fetcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// Table is a header row plus data rows read from one export file.
type Table struct {
	Header []string
	Rows   [][]string
}

// Index returns the position of column name in the header, or -1.
func (t *Table) Index(name string) int {
	for i, h := range t.Header {
		if h == name {
			return i
		}
	}
	return -1
}

// ReadTable reads a .csv, .tsv, or .xlsx export. Header names are
// normalized with HeaderKey. Short rows are padded to the header width.
func ReadTable(ctx context.Context, path string) (*Table, error) {
	var (
		raw [][]string
		err error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		raw, err = ReadXLSX(path, XLSXOptions{})
	case ".tsv":
		raw, err = readDelimited(ctx, path, '\t')
	case ".csv", ".txt", "":
		raw, err = readDelimited(ctx, path, ',')
	default:
		return nil, eris.Errorf("fetcher: unsupported file type %q", filepath.Ext(path))
	}
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, eris.Errorf("fetcher: %s has no header row", path)
	}

	t := &Table{Header: make([]string, len(raw[0]))}
	for i, h := range raw[0] {
		t.Header[i] = HeaderKey(h)
	}
	t.Rows = make([][]string, 0, len(raw)-1)
	for _, row := range raw[1:] {
		if len(row) < len(t.Header) {
			padded := make([]string, len(t.Header))
			copy(padded, row)
			row = padded
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// HeaderKey lowercases a column header and joins its words with
// underscores: "Full Name" → "full_name".
func HeaderKey(h string) string {
	return strings.Join(strings.Fields(strings.ToLower(h)), "_")
}

func readDelimited(ctx context.Context, path string, delim rune) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	rowCh, errCh := StreamCSV(ctx, f, CSVOptions{Delimiter: delim, LazyQuotes: true, TrimSpace: true})
	var rows [][]string
	for row := range rowCh {
		rows = append(rows, row)
	}
	if err := <-errCh; err != nil {
		return nil, err
	}
	return rows, nil
}
