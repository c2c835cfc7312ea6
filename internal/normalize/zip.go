package normalize

import (
	"regexp"
	"strings"
)

// Country codes recognized by the blocking key.
const (
	CountryUS = "US"
	CountryCA = "CA"
)

var (
	usZipRe  = regexp.MustCompile(`^(\d{5})(?:\d{4})?$`)
	caPostRe = regexp.MustCompile(`^[A-Z]\d[A-Z]\d[A-Z]\d$`)
)

// CleanZip normalizes a postal code into the blocking key form. US codes
// become their first five digits (ZIP+4 and spreadsheet-stripped leading
// zeros are handled). Canadian codes become six alphanumerics with spaces
// and punctuation removed. Any other value, or a value that does not fit the
// country's form, yields ok=false.
//
// When countryCode is empty the form of the code itself decides.
func CleanZip(zip, countryCode string) (string, bool) {
	raw := strings.ToUpper(strings.TrimSpace(zip))
	if raw == "" {
		return "", false
	}
	compact := alnum(raw)

	switch strings.ToUpper(strings.TrimSpace(countryCode)) {
	case CountryUS:
		return cleanUS(compact)
	case CountryCA:
		return cleanCA(compact)
	case "":
		if z, ok := cleanUS(compact); ok {
			return z, true
		}
		return cleanCA(compact)
	default:
		return "", false
	}
}

func cleanUS(compact string) (string, bool) {
	// Spreadsheets drop the leading zero of New England codes.
	if len(compact) == 4 && isDigits(compact) {
		compact = "0" + compact
	}
	m := usZipRe.FindStringSubmatch(compact)
	if m == nil {
		return "", false
	}
	return m[1], true
}

func cleanCA(compact string) (string, bool) {
	if len(compact) != 6 {
		return "", false
	}
	if !caPostRe.MatchString(compact) {
		return "", false
	}
	return compact, true
}

func alnum(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
