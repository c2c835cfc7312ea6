// Package source loads platform exports into normalized records.
package source

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/payasparab/addressmatcher/internal/fetcher"
	"github.com/payasparab/addressmatcher/internal/model"
	"github.com/payasparab/addressmatcher/internal/normalize"
)

// Kind identifies the export format of a source.
type Kind string

const (
	// KindStorefront is a storefront customers export (one row per customer).
	KindStorefront Kind = "storefront"
	// KindMarketplace is a marketplace orders export (one row per order).
	KindMarketplace Kind = "marketplace"
	// KindERP is an ERP sales-order export without reliable customer names.
	KindERP Kind = "erp"
)

// ParseKind validates a kind name. Platform names are accepted as aliases.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "storefront", "shopify":
		return KindStorefront, nil
	case "marketplace", "amazon":
		return KindMarketplace, nil
	case "erp", "netsuite":
		return KindERP, nil
	default:
		return "", eris.Errorf("source: unknown kind %q", s)
	}
}

// Drop reasons counted while loading.
const (
	DropNoAddress     = "no_address"
	DropMissingName   = "missing_name"
	DropMissingDate   = "missing_order_date"
	DropCountry       = "unmapped_country"
	DropInvalidState  = "invalid_state"
	DropInvalidPostal = "invalid_postal_code"
)

// Options customizes a load.
type Options struct {
	// Label is the suffix used for this source's columns in stitched output.
	// Defaults to the platform name of the kind.
	Label string
	// IDColumn names the column that carries the record ID in stitched output.
	// Defaults to "<label>_id".
	IDColumn string
	// Parser tokenizes address lines. Defaults to normalize.DefaultParser.
	Parser normalize.Parser
}

// Dataset is one loaded source.
type Dataset struct {
	Label    string
	Kind     Kind
	IDColumn string
	// NoName is set for sources without customer names; matching against
	// them uses the no-name weight table.
	NoName  bool
	Records []model.Record
	Rows    int
	Dropped map[string]int
}

// DefaultLabel returns the platform name used when no label is configured.
func DefaultLabel(k Kind) string {
	switch k {
	case KindStorefront:
		return "shopify"
	case KindMarketplace:
		return "amazon"
	case KindERP:
		return "netsuite"
	}
	return string(k)
}

// Load reads the export at path and normalizes it according to kind.
func Load(ctx context.Context, kind Kind, path string, opts Options) (*Dataset, error) {
	tbl, err := fetcher.ReadTable(ctx, path)
	if err != nil {
		return nil, eris.Wrapf(err, "source: read %s", path)
	}
	ds, err := FromTable(kind, tbl, opts)
	if err != nil {
		return nil, eris.Wrapf(err, "source: load %s", path)
	}

	zap.L().With(zap.String("component", "source")).Info("source loaded",
		zap.String("label", ds.Label),
		zap.String("kind", string(kind)),
		zap.String("path", path),
		zap.Int("rows", ds.Rows),
		zap.Int("records", len(ds.Records)),
		zap.Any("dropped", ds.Dropped),
	)
	return ds, nil
}

// FromTable normalizes an already-read table.
func FromTable(kind Kind, tbl *fetcher.Table, opts Options) (*Dataset, error) {
	if opts.Label == "" {
		opts.Label = DefaultLabel(kind)
	}
	if opts.IDColumn == "" {
		opts.IDColumn = opts.Label + "_id"
	}
	if opts.Parser == nil {
		opts.Parser = normalize.DefaultParser
	}

	ds := &Dataset{
		Label:    opts.Label,
		Kind:     kind,
		IDColumn: opts.IDColumn,
		Rows:     len(tbl.Rows),
		Dropped:  make(map[string]int),
	}

	var l rowLoader
	switch kind {
	case KindStorefront:
		l = storefront{}
	case KindMarketplace:
		l = marketplace{}
	case KindERP:
		l = erp{}
		ds.NoName = true
	default:
		return nil, eris.Errorf("source: unknown kind %q", kind)
	}

	header := l.header(tbl.Header)
	cols := columnIndex(header)
	for _, c := range l.required() {
		if _, ok := cols[c]; !ok {
			return nil, eris.Errorf("source: %s export missing required column %q", kind, c)
		}
	}

	for _, row := range tbl.Rows {
		rec := model.NewRecord("", header, row)
		if reason := l.normalize(&rec, opts.Parser); reason != "" {
			ds.Dropped[reason]++
			continue
		}
		if !rec.HasAddress() {
			ds.Dropped[DropNoAddress]++
			continue
		}
		rec.Set(opts.IDColumn, rec.ID)
		ds.Records = append(ds.Records, rec)
	}
	return ds, nil
}

// rowLoader normalizes the rows of one export format. normalize returns a
// drop reason, or "" to keep the row.
type rowLoader interface {
	header(in []string) []string
	required() []string
	normalize(rec *model.Record, p normalize.Parser) string
}

func columnIndex(header []string) map[string]int {
	m := make(map[string]int, len(header))
	for i, h := range header {
		m[h] = i
	}
	return m
}

func hasColumn(header []string, name string) bool {
	for _, h := range header {
		if h == name {
			return true
		}
	}
	return false
}

// setName splits full into the name fields of rec.
func setName(rec *model.Record, full string) {
	n := normalize.SplitName(full)
	rec.Set(model.FieldFirstName, n.First)
	rec.Set(model.FieldMiddleName, n.Middle)
	rec.Set(model.FieldMiddleInitial, n.MiddleInitial)
	rec.Set(model.FieldLastName, n.Last)
	rec.Set(model.FieldFullName, normalize.Upper(full))
}

// location carries the row-level fallbacks for address components the
// tokenizer did not find.
type location struct {
	city, state, stateCode, country, countryCode, zip string
}

// setAddress tokenizes line and writes every address field of rec.
// Components found in the line win over the row-level columns. Only US and
// Canadian addresses keep street type, unit, and region components.
func setAddress(rec *model.Record, p normalize.Parser, line string, loc location) {
	cc := normalize.Upper(loc.countryCode)
	domestic := cc == normalize.CountryUS || cc == normalize.CountryCA

	var a normalize.Address
	if strings.TrimSpace(line) != "" {
		a = p.Parse(line)
	}
	if !domestic {
		a.StreetType, a.UnitType, a.UnitNumber, a.State = "", "", "", ""
	}

	city := firstNonEmpty(a.City, normalize.Upper(loc.city))
	state := firstNonEmpty(a.State, normalize.Upper(loc.state))
	stateCode := firstNonEmpty(a.State, normalize.Upper(loc.stateCode))
	zip := firstNonEmpty(a.Zip, normalize.Upper(loc.zip))
	if !domestic {
		state, stateCode = "", ""
	}

	rec.Set(model.FieldAddressNumber, a.Number)
	rec.Set(model.FieldStreetName, a.StreetName)
	rec.Set(model.FieldStreetType, a.StreetType)
	rec.Set(model.FieldUnitType, a.UnitType)
	rec.Set(model.FieldUnitNumber, a.UnitNumber)
	rec.Set(model.FieldCity, city)
	rec.Set(model.FieldState, state)
	rec.Set(model.FieldStateCode, stateCode)
	rec.Set(model.FieldCountry, normalize.Upper(loc.country))
	rec.Set(model.FieldCountryCode, cc)
	rec.Set(model.FieldZip, zip)

	cleaned, _ := normalize.CleanZip(zip, cc)
	rec.Set(model.FieldZipCleaned, cleaned)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
