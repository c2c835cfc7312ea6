package resolve

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/rotisserie/eris"

	"github.com/payasparab/addressmatcher/internal/model"
)

// Stitched output column names.
const (
	ColumnScore     = "score"
	ColumnTier      = "confidence_level"
	AddressSuffix   = "_addy_token"
	defaultLabelA   = "a"
	defaultLabelB   = "b"
	defaultIDColumn = "_id"
)

// StitchOptions names the two sides of the stitched table.
type StitchOptions struct {
	LabelA    string
	LabelB    string
	IDColumnA string
	IDColumnB string
	// NoName keeps name fields as ordinary source columns.
	NoName bool
}

func (o StitchOptions) withDefaults() StitchOptions {
	if o.LabelA == "" {
		o.LabelA = defaultLabelA
	}
	if o.LabelB == "" {
		o.LabelB = defaultLabelB
	}
	if o.IDColumnA == "" {
		o.IDColumnA = o.LabelA + defaultIDColumn
	}
	if o.IDColumnB == "" {
		o.IDColumnB = o.LabelB + defaultIDColumn
	}
	return o
}

// Table is a header plus string rows.
type Table struct {
	Header []string
	Rows   [][]string
}

// WriteCSV writes the table, header first.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Header); err != nil {
		return eris.Wrap(err, "resolve: write csv header")
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return eris.Wrap(err, "resolve: write csv rows")
	}
	return nil
}

// Stitch joins each scored candidate with its two source records. Columns
// are: score, confidence level, the two ID columns, every source column of
// A suffixed with _<LabelA>, every source column of B suffixed with
// _<LabelB>, and every matchable field of A suffixed with _addy_token.
// In no-name mode the name fields appear both as source columns and as
// tokens. Records without a candidate do not appear.
func Stitch(a, b []model.Record, cands []model.Candidate, opts StitchOptions) *Table {
	opts = opts.withDefaults()

	isSource := func(col string) bool {
		if !model.IsMatchable(col) {
			return true
		}
		return opts.NoName && model.IsNameField(col)
	}

	colsA := sourceColumns(a, opts.IDColumnA, isSource)
	colsB := sourceColumns(b, opts.IDColumnB, isSource)
	tokens := model.MatchableFields

	t := &Table{Header: []string{ColumnScore, ColumnTier, opts.IDColumnA, opts.IDColumnB}}
	for _, c := range colsA {
		t.Header = append(t.Header, c+"_"+opts.LabelA)
	}
	for _, c := range colsB {
		t.Header = append(t.Header, c+"_"+opts.LabelB)
	}
	for _, f := range tokens {
		t.Header = append(t.Header, f+AddressSuffix)
	}

	byA := byID(a)
	byB := byID(b)
	for _, c := range cands {
		if c.Failed() {
			continue
		}
		ra, rb := byA[c.IDA], byB[c.IDB]

		row := make([]string, 0, len(t.Header))
		row = append(row, strconv.FormatFloat(c.Score, 'f', 2, 64), c.Tier, c.IDA, c.IDB)
		for _, col := range colsA {
			row = append(row, ra.Get(col))
		}
		for _, col := range colsB {
			row = append(row, rb.Get(col))
		}
		for _, f := range tokens {
			row = append(row, ra.Get(f))
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// sourceColumns returns the union of record columns, in first-seen order,
// that keep is true for, excluding the ID column.
func sourceColumns(recs []model.Record, idColumn string, keep func(string) bool) []string {
	seen := map[string]bool{idColumn: true}
	var out []string
	for _, r := range recs {
		for _, col := range r.Columns {
			if seen[col] || !keep(col) {
				continue
			}
			seen[col] = true
			out = append(out, col)
		}
	}
	return out
}

func byID(recs []model.Record) map[string]model.Record {
	m := make(map[string]model.Record, len(recs))
	for _, r := range recs {
		if _, dup := m[r.ID]; !dup {
			m[r.ID] = r
		}
	}
	return m
}
