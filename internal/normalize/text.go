// Package normalize cleans raw source values into the uppercase, accent-free
// tokens the resolution engine compares: postal codes, names, street types,
// house numbers, and country/state codes.
package normalize

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/mozillazg/go-unidecode"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var stripAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

var multiSpaceRe = regexp.MustCompile(`\s+`)

// Fold removes diacritics and transliterates any remaining non-ASCII runes.
func Fold(s string) string {
	out, _, err := transform.String(stripAccents, s)
	if err != nil {
		out = s
	}
	if isASCII(out) {
		return out
	}
	return unidecode.Unidecode(out)
}

// Upper folds, uppercases, trims, and collapses internal whitespace.
func Upper(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	s = strings.ToUpper(Fold(s))
	s = multiSpaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Blank maps export placeholders for missing values to "".
func Blank(s string) string {
	t := strings.TrimSpace(s)
	switch strings.ToLower(t) {
	case "(blank)", "nan", "none", "null", "n/a":
		return ""
	}
	return t
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8RuneSelf {
			return false
		}
	}
	return true
}

const utf8RuneSelf = 0x80
