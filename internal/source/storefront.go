package source

import (
	"github.com/payasparab/addressmatcher/internal/model"
	"github.com/payasparab/addressmatcher/internal/normalize"
)

// storefrontDates are reformatted to ISO dates; unparseable values become "".
var storefrontDates = []string{
	"first_order_date",
	"latest_order_date",
	"latest_subscription_start_date",
	"latest_subscription_cancel_date",
}

// storefront loads a customers export keyed by customer_id with a one-line
// full_address.
type storefront struct{}

func (storefront) header(in []string) []string { return in }

func (storefront) required() []string {
	return []string{"customer_id", "full_name", "full_address"}
}

func (storefront) normalize(rec *model.Record, p normalize.Parser) string {
	rec.ID = normalize.Blank(rec.Get("customer_id"))

	for _, col := range storefrontDates {
		if _, ok := rec.Fields[col]; ok {
			rec.Set(col, isoDate(rec.Get(col)))
		}
	}

	setName(rec, normalize.Blank(rec.Get("full_name")))
	setAddress(rec, p, normalize.Blank(rec.Get("full_address")), location{
		city:        normalize.Blank(rec.Get(model.FieldCity)),
		state:       normalize.Blank(rec.Get(model.FieldState)),
		stateCode:   normalize.Blank(rec.Get(model.FieldStateCode)),
		country:     normalize.Blank(rec.Get(model.FieldCountry)),
		countryCode: normalize.Blank(rec.Get(model.FieldCountryCode)),
		zip:         firstNonEmpty(normalize.Blank(rec.Get(model.FieldZip)), normalize.Blank(rec.Get(model.FieldZipCleaned))),
	})
	return ""
}
