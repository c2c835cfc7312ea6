package source

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/payasparab/addressmatcher/internal/model"
	"github.com/payasparab/addressmatcher/internal/normalize"
)

// marketplaceColumns are the positional names of the raw orders export,
// whose own headers vary between report versions.
var marketplaceColumns = []string{
	"provider",
	"order_id",
	"order_date",
	"first_name",
	"last_name",
	"full_name",
	"email_amzn",
	"address",
	"city",
	"state",
	"zip",
	"country",
	"skus",
	"qty",
	"sku",
	"subtotals",
}

// marketplace loads an orders export. Orders carry no stable customer key,
// so the ID is derived from the buyer name, order date, and postal code.
type marketplace struct{}

func (marketplace) header(in []string) []string {
	if len(in) == len(marketplaceColumns) && !hasColumn(in, "full_name") {
		return marketplaceColumns
	}
	return in
}

func (marketplace) required() []string {
	return []string{"order_date", "full_name", "address", "city", "state", "zip", "country"}
}

func (marketplace) normalize(rec *model.Record, p normalize.Parser) string {
	fullName := normalize.Blank(rec.Get("full_name"))
	orderDate := normalize.Blank(rec.Get("order_date"))
	if fullName == "" {
		return DropMissingName
	}
	if orderDate == "" {
		return DropMissingDate
	}

	country := normalize.Blank(rec.Get(model.FieldCountry))
	cc, ok := normalize.CountryCode(country)
	if !ok {
		return DropCountry
	}

	state := normalize.Upper(normalize.Blank(rec.Get(model.FieldState)))
	if cc == normalize.CountryUS && !normalize.IsTwoLetter(state) {
		return DropInvalidState
	}

	zip := normalize.Blank(rec.Get(model.FieldZip))
	if cc == normalize.CountryCA {
		if _, ok := normalize.CleanZip(zip, cc); !ok {
			return DropInvalidPostal
		}
	}

	setName(rec, fullName)
	setAddress(rec, p, normalize.Blank(rec.Get("address")), location{
		city:        normalize.Blank(rec.Get(model.FieldCity)),
		state:       state,
		stateCode:   state,
		country:     country,
		countryCode: cc,
		zip:         zip,
	})
	rec.ID = marketplaceID(fullName, orderDate, rec.Get(model.FieldZipCleaned))
	return ""
}

// marketplaceID hashes the buyer, order date, and postal code into a stable
// hex ID.
func marketplaceID(fullName, orderDate, zipCleaned string) string {
	sum := sha256.Sum256([]byte(strings.Join([]string{fullName, orderDate, zipCleaned}, "_")))
	return hex.EncodeToString(sum[:])
}
