package normalize

import (
	"strconv"
	"strings"
)

// streetTypes maps spelled-out and dotted street suffixes to their USPS
// abbreviations.
var streetTypes = map[string]string{
	"STREET":     "ST",
	"AVENUE":     "AVE",
	"BOULEVARD":  "BLVD",
	"ROAD":       "RD",
	"DRIVE":      "DR",
	"COURT":      "CT",
	"LANE":       "LN",
	"TERRACE":    "TER",
	"PLACE":      "PL",
	"SQUARE":     "SQ",
	"TRAIL":      "TRL",
	"PARKWAY":    "PKWY",
	"COMMONS":    "CMNS",
	"HIGHWAY":    "HWY",
	"CIRCLE":     "CIR",
	"EXPRESSWAY": "EXPY",
	"WAY":        "WAY",
	"AVE":        "AVE",
	"AV":         "AVE",
	"ST":         "ST",
	"BLVD":       "BLVD",
	"RD":         "RD",
	"DR":         "DR",
	"CT":         "CT",
	"LN":         "LN",
	"TER":        "TER",
	"PL":         "PL",
	"SQ":         "SQ",
	"TRL":        "TRL",
	"PKWY":       "PKWY",
	"CMNS":       "CMNS",
	"HWY":        "HWY",
	"CIR":        "CIR",
	"EXPY":       "EXPY",
}

// StreetType returns the standard abbreviation for a street suffix. Unknown
// suffixes are returned uppercased and unchanged.
func StreetType(s string) string {
	t := strings.TrimSuffix(Upper(s), ".")
	if abbr, ok := streetTypes[t]; ok {
		return abbr
	}
	return t
}

// IsStreetType reports whether s is a recognized street suffix.
func IsStreetType(s string) bool {
	_, ok := streetTypes[strings.TrimSuffix(Upper(s), ".")]
	return ok
}

// NormalizeHouseNumber removes spaces from a house number and drops the
// leading zeros of purely numeric values ("0042" → "42"). Mixed values such
// as "12B" are returned uppercased without spaces.
func NormalizeHouseNumber(s string) string {
	s = strings.ReplaceAll(Upper(s), " ", "")
	if s == "" || !isDigits(s) {
		return s
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return strings.TrimLeft(s, "0")
	}
	return strconv.FormatUint(n, 10)
}
