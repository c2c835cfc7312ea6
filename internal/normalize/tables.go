package normalize

import "strings"

// countryCodes maps the country names found in marketplace exports to
// ISO 3166 alpha-2 codes.
var countryCodes = map[string]string{
	"US":                                  "US",
	"UNITED STATES":                       "US",
	"UNITED STATES OF AMERICA":            "US",
	"USA":                                 "US",
	"CA":                                  "CA",
	"CANADA":                              "CA",
	"BRITISH COLUMBIA":                    "CA",
	"NEW ZEALAND":                         "NZ",
	"HONG KONG (SAR)":                     "HK",
	"HONG KONG":                           "HK",
	"UNITED ARAB EMIRATES":                "AE",
	"INDONESIA":                           "ID",
	"UNITED STATES MINOR OUTLYING ISLAND": "UM",
}

// CountryCode maps a country name or code to its two-letter code. ok is
// false for countries outside the table.
func CountryCode(name string) (string, bool) {
	code, ok := countryCodes[Upper(name)]
	return code, ok
}

var usStates = []string{
	"AL", "AK", "AZ", "AR", "CA", "CO", "CT", "DE", "FL", "GA",
	"HI", "ID", "IL", "IN", "IA", "KS", "KY", "LA", "ME", "MD",
	"MA", "MI", "MN", "MS", "MO", "MT", "NE", "NV", "NH", "NJ",
	"NM", "NY", "NC", "ND", "OH", "OK", "OR", "PA", "RI", "SC",
	"SD", "TN", "TX", "UT", "VT", "VA", "WA", "WV", "WI", "WY",
	"DC", "PR",
}

var caProvinces = []string{
	"AB", "BC", "MB", "NB", "NL", "NS", "NT", "NU", "ON", "PE", "QC", "SK", "YT",
	"NEWFOUNDLAND", "YUKON", "NOUVEAU-BRUNSWICK", "NORTHWEST TERRITORIES",
}

var stateCountry = func() map[string]string {
	m := make(map[string]string, len(usStates)+len(caProvinces))
	for _, s := range usStates {
		m[s] = CountryUS
	}
	for _, p := range caProvinces {
		m[p] = CountryCA
	}
	return m
}()

// StateCountry returns the country code of a US state or Canadian province
// code. "CA" is California.
func StateCountry(state string) (string, bool) {
	c, ok := stateCountry[Upper(state)]
	return c, ok
}

// IsStateCode reports whether s is a two-letter US or Canadian region code.
func IsStateCode(s string) bool {
	s = Upper(s)
	if len(s) != 2 {
		return false
	}
	_, ok := stateCountry[s]
	return ok
}

// IsTwoLetter reports whether s is exactly two ASCII letters.
func IsTwoLetter(s string) bool {
	s = strings.TrimSpace(s)
	if len(s) != 2 {
		return false
	}
	for i := 0; i < 2; i++ {
		c := s[i] | 0x20
		if c < 'a' || c > 'z' {
			return false
		}
	}
	return true
}
