// Package fetcher reads tabular customer exports (CSV, TSV, XLSX) into rows
// of strings.
package fetcher

import (
	"bufio"
	"context"
	"encoding/csv"
	"io"
	"strings"

	"github.com/rotisserie/eris"
)

// CSVOptions configures the streaming CSV parser.
type CSVOptions struct {
	Delimiter  rune            // default ','
	HasHeader  bool            // first row goes to HeaderCh instead of the row channel
	HeaderCh   chan<- []string // optional: receives the header row
	Comment    rune            // comment character (0 = none)
	LazyQuotes bool
	TrimSpace  bool
}

const utf8BOM = "\xef\xbb\xbf"

// StreamCSV reads CSV rows from r and sends them on the returned channel.
// A leading UTF-8 byte order mark, as written by spreadsheet exports, is
// dropped. The first error is sent on the error channel; both channels are
// closed when reading stops.
func StreamCSV(ctx context.Context, r io.Reader, opts CSVOptions) (<-chan []string, <-chan error) {
	rowCh := make(chan []string, 64)
	errCh := make(chan error, 1)

	go func() {
		defer close(rowCh)
		defer close(errCh)

		reader := csv.NewReader(skipBOM(r))
		if opts.Delimiter != 0 {
			reader.Comma = opts.Delimiter
		}
		reader.Comment = opts.Comment
		reader.LazyQuotes = opts.LazyQuotes
		reader.TrimLeadingSpace = opts.TrimSpace
		reader.FieldsPerRecord = -1

		header := opts.HasHeader
		for {
			if ctx.Err() != nil {
				errCh <- eris.Wrap(ctx.Err(), "csv: context cancelled")
				return
			}

			record, err := reader.Read()
			if err == io.EOF {
				return
			}
			if err != nil {
				errCh <- eris.Wrap(err, "csv: read row")
				return
			}
			if opts.TrimSpace {
				for i := range record {
					record[i] = strings.TrimSpace(record[i])
				}
			}

			if header {
				header = false
				if opts.HeaderCh == nil {
					continue
				}
				select {
				case opts.HeaderCh <- record:
				case <-ctx.Done():
					errCh <- eris.Wrap(ctx.Err(), "csv: context cancelled sending header")
					return
				}
				continue
			}

			select {
			case rowCh <- record:
			case <-ctx.Done():
				errCh <- eris.Wrap(ctx.Err(), "csv: context cancelled")
				return
			}
		}
	}()

	return rowCh, errCh
}

// skipBOM returns a reader positioned after a leading UTF-8 BOM, if any.
func skipBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	if b, err := br.Peek(len(utf8BOM)); err == nil && string(b) == utf8BOM {
		_, _ = br.Discard(len(utf8BOM))
	}
	return br
}
