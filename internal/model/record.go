// Package model defines the records, candidates, and scoring tables shared by
// the loaders, the resolution engine, and the run store.
package model

// Matchable field names. Every loader populates all of them, using "" when a
// value is unknown.
const (
	FieldFirstName     = "first_name"
	FieldMiddleName    = "middle_name"
	FieldMiddleInitial = "middle_initial"
	FieldLastName      = "last_name"
	FieldFullName      = "full_name"
	FieldCity          = "city"
	FieldState         = "state"
	FieldStateCode     = "state_code"
	FieldCountry       = "country"
	FieldCountryCode   = "country_code"
	FieldZip           = "zip"
	FieldZipCleaned    = "zip_cleaned"
	FieldAddressNumber = "address_number"
	FieldStreetName    = "street_name"
	FieldStreetType    = "street_type"
	FieldUnitType      = "unit_type"
	FieldUnitNumber    = "unit_number"
)

// MatchableFields lists the normalized attributes used as scoring input, in
// the column order used for stitched output.
var MatchableFields = []string{
	FieldFirstName,
	FieldMiddleName,
	FieldMiddleInitial,
	FieldLastName,
	FieldFullName,
	FieldCity,
	FieldState,
	FieldStateCode,
	FieldCountry,
	FieldCountryCode,
	FieldZip,
	FieldZipCleaned,
	FieldAddressNumber,
	FieldStreetName,
	FieldStreetType,
	FieldUnitType,
	FieldUnitNumber,
}

// NameFields are the matchable fields dropped when a source has no reliable
// customer names (ERP exports).
var NameFields = []string{
	FieldFirstName,
	FieldMiddleName,
	FieldMiddleInitial,
	FieldLastName,
	FieldFullName,
}

// AddressFields are the tokenized address columns. A row with all of them
// empty carries nothing to match on.
var AddressFields = []string{
	FieldAddressNumber,
	FieldStreetName,
	FieldStreetType,
	FieldUnitType,
	FieldUnitNumber,
	FieldCity,
	FieldState,
	FieldStateCode,
	FieldCountry,
	FieldCountryCode,
	FieldZip,
	FieldZipCleaned,
}

// IsMatchable reports whether field is one of MatchableFields.
func IsMatchable(field string) bool {
	return matchableSet[field]
}

// IsNameField reports whether field is one of NameFields.
func IsNameField(field string) bool {
	return nameSet[field]
}

var matchableSet = toSet(MatchableFields)
var nameSet = toSet(NameFields)

func toSet(fields []string) map[string]bool {
	m := make(map[string]bool, len(fields))
	for _, f := range fields {
		m[f] = true
	}
	return m
}

// Record is one normalized source row. Fields holds every column of the
// original row plus the matchable fields; Columns preserves the source
// column order for stitched output. Records are treated as immutable once
// loaded.
type Record struct {
	ID      string            `json:"id"`
	Fields  map[string]string `json:"fields"`
	Columns []string          `json:"columns"`
}

// NewRecord builds a Record from an ordered set of columns and values.
// Columns beyond len(values) read as "".
func NewRecord(id string, columns, values []string) Record {
	r := Record{
		ID:      id,
		Fields:  make(map[string]string, len(columns)),
		Columns: make([]string, 0, len(columns)),
	}
	for i, col := range columns {
		v := ""
		if i < len(values) {
			v = values[i]
		}
		r.Set(col, v)
	}
	return r
}

// Get returns the value of field, or "" when the field is absent.
func (r Record) Get(field string) string {
	if r.Fields == nil {
		return ""
	}
	return r.Fields[field]
}

// Set assigns a field, appending it to Columns the first time it is seen.
// Only loaders call Set; the engine never does.
func (r *Record) Set(field, value string) {
	if r.Fields == nil {
		r.Fields = make(map[string]string)
	}
	if _, ok := r.Fields[field]; !ok {
		r.Columns = append(r.Columns, field)
	}
	r.Fields[field] = value
}

// BlockingKey returns the normalized postal code used for blocking.
func (r Record) BlockingKey() string {
	return r.Get(FieldZipCleaned)
}

// HasAddress reports whether any tokenized address field is non-empty.
func (r Record) HasAddress() bool {
	for _, f := range AddressFields {
		if r.Get(f) != "" {
			return true
		}
	}
	return false
}
