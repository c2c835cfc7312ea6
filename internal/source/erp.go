package source

import (
	"strings"

	"github.com/payasparab/addressmatcher/internal/model"
	"github.com/payasparab/addressmatcher/internal/normalize"
)

var erpColumns = []string{
	"internal_id",
	"date",
	"document_number",
	"order_name",
	"address_1",
	"address_2",
	"city",
	"state",
	"zip",
}

// erp loads a sales-order export. Its name column holds order names, not
// people, so no name fields are populated and the country comes from the
// state or province code.
type erp struct{}

func (erp) header(in []string) []string {
	if len(in) == len(erpColumns) && !hasColumn(in, "internal_id") {
		return erpColumns
	}
	return in
}

func (erp) required() []string {
	return []string{"internal_id", "address_1", "city", "state", "zip"}
}

func (erp) normalize(rec *model.Record, p normalize.Parser) string {
	for _, col := range rec.Columns {
		rec.Set(col, normalize.Blank(rec.Get(col)))
	}
	rec.ID = rec.Get("internal_id")

	for _, f := range model.NameFields {
		rec.Set(f, "")
	}

	state := rec.Get(model.FieldState)
	cc, _ := normalize.StateCountry(state)
	line := strings.Trim(rec.Get("address_1")+", "+rec.Get("address_2"), ", ")

	setAddress(rec, p, line, location{
		city:        rec.Get(model.FieldCity),
		state:       state,
		stateCode:   state,
		country:     cc,
		countryCode: cc,
		zip:         rec.Get(model.FieldZip),
	})
	return ""
}
