package resolve

import "github.com/payasparab/addressmatcher/internal/model"

// rec builds a record from alternating field/value pairs.
func rec(id string, kv ...string) model.Record {
	r := model.Record{ID: id}
	for i := 0; i+1 < len(kv); i += 2 {
		r.Set(kv[i], kv[i+1])
	}
	return r
}

// person returns a fully populated record at zip 78701.
func person(id string) model.Record {
	return rec(id,
		model.FieldFirstName, "JANE",
		model.FieldLastName, "DOE",
		model.FieldAddressNumber, "123",
		model.FieldStreetName, "MAIN",
		model.FieldStreetType, "ST",
		model.FieldUnitType, "APT",
		model.FieldUnitNumber, "4",
		model.FieldCity, "AUSTIN",
		model.FieldState, "TX",
		model.FieldZipCleaned, "78701",
	)
}

// with returns a copy of r with field set to value.
func with(r model.Record, field, value string) model.Record {
	out := model.Record{ID: r.ID}
	for _, c := range r.Columns {
		out.Set(c, r.Get(c))
	}
	out.Set(field, value)
	return out
}
