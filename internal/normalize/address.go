package normalize

import (
	"regexp"
	"strings"
)

// Address is a tokenized street address. Empty fields were not found.
type Address struct {
	Number     string
	StreetName string
	StreetType string
	UnitType   string
	UnitNumber string
	City       string
	State      string
	Zip        string
}

// Empty reports whether no component was recognized.
func (a Address) Empty() bool {
	return a == Address{}
}

// Parser tokenizes a one-line address.
type Parser interface {
	Parse(line string) Address
}

// ParserFunc adapts a function to Parser.
type ParserFunc func(line string) Address

// Parse calls f(line).
func (f ParserFunc) Parse(line string) Address { return f(line) }

// DefaultParser is the heuristic US/CA tokenizer used by the loaders.
var DefaultParser Parser = ParserFunc(ParseAddress)

// unitTypes maps secondary-unit designators to their USPS abbreviations.
var unitTypes = map[string]string{
	"APT":       "APT",
	"APARTMENT": "APT",
	"UNIT":      "UNIT",
	"STE":       "STE",
	"SUITE":     "STE",
	"FL":        "FL",
	"FLOOR":     "FL",
	"RM":        "RM",
	"ROOM":      "RM",
	"BLDG":      "BLDG",
	"BUILDING":  "BLDG",
	"LOT":       "LOT",
	"SPC":       "SPC",
	"SPACE":     "SPC",
	"DEPT":      "DEPT",
	"TRLR":      "TRLR",
	"PH":        "PH",
}

var (
	zipTokenRe  = regexp.MustCompile(`^\d{5}(?:-?\d{4})?$`)
	caFSARe     = regexp.MustCompile(`^[A-Z]\d[A-Z]$`)
	caLDURe     = regexp.MustCompile(`^\d[A-Z]\d$`)
	caPostalRe  = regexp.MustCompile(`^[A-Z]\d[A-Z]-?\d[A-Z]\d$`)
	tokenTrimRe = regexp.MustCompile(`[^A-Z0-9#/\-']`)
)

// ParseAddress splits a US or Canadian address line into its components.
// Comma-separated segments are honored when present: the trailing segments
// carry the city, region, and postal code, and segments after the street
// line that start with a unit designator carry the unit. Unparseable input
// yields a partially or fully empty Address, never an error.
func ParseAddress(line string) Address {
	var a Address
	segments := splitSegments(Upper(line))
	if len(segments) == 0 {
		return a
	}

	// Postal code and region come off the end of the last segment.
	last := segments[len(segments)-1]
	last, a.Zip = popZip(last)
	if n := len(last); n > 0 && IsStateCode(last[n-1]) && (a.Zip != "" || (len(segments) > 1 && !isUnitStart(last))) {
		a.State = last[n-1]
		last = last[:n-1]
	}
	segments[len(segments)-1] = last
	segments = dropEmpty(segments)
	if len(segments) == 0 {
		return a
	}

	// A trailing segment without digits or a unit designator is the city.
	if len(segments) > 1 {
		tail := segments[len(segments)-1]
		if !hasDigit(tail) && !isUnitStart(tail) {
			a.City = strings.Join(tail, " ")
			segments = segments[:len(segments)-1]
		}
	}

	street := segments[0]
	for _, seg := range segments[1:] {
		if isUnitStart(seg) && a.UnitType == "" && a.UnitNumber == "" {
			a.UnitType, a.UnitNumber, _ = parseUnit(seg, true)
			continue
		}
		street = append(street, seg...)
	}

	parseStreetLine(&a, street)
	return a
}

func parseStreetLine(a *Address, tokens []string) {
	if len(tokens) == 0 {
		return
	}
	if startsWithDigit(tokens[0]) {
		a.Number = NormalizeHouseNumber(tokens[0])
		tokens = tokens[1:]
	}

	// A secondary unit designator splits the line. Tokens after the unit
	// are the city when a region or postal code was found.
	var trailing []string
	for i, t := range tokens {
		if isUnitToken(t) && i > 0 {
			kind, num, used := parseUnit(tokens[i:], false)
			if a.UnitType == "" && a.UnitNumber == "" {
				a.UnitType, a.UnitNumber = kind, num
			}
			trailing = tokens[i+used:]
			tokens = tokens[:i]
			break
		}
	}
	if len(trailing) > 0 && a.City == "" && (a.State != "" || a.Zip != "") {
		a.City = strings.Join(trailing, " ")
	}

	// The last street suffix ends the street name. Anything after it is the
	// city when the line carried no commas.
	typeAt := -1
	for i := len(tokens) - 1; i > 0; i-- {
		if IsStreetType(tokens[i]) {
			typeAt = i
			break
		}
	}
	if typeAt < 0 {
		a.StreetName = strings.Join(tokens, " ")
		return
	}
	a.StreetName = strings.Join(tokens[:typeAt], " ")
	a.StreetType = StreetType(tokens[typeAt])
	if rest := tokens[typeAt+1:]; len(rest) > 0 {
		if a.City == "" && (a.State != "" || a.Zip != "") && !hasDirectional(rest) {
			a.City = strings.Join(rest, " ")
		} else {
			a.StreetName = strings.TrimSpace(a.StreetName + " " + strings.Join(rest, " "))
		}
	}
}

// parseUnit reads a unit designator and its identifier from tokens. When
// whole is set every remaining token belongs to the identifier. It returns
// the number of tokens consumed.
func parseUnit(tokens []string, whole bool) (string, string, int) {
	if len(tokens) == 0 {
		return "", "", 0
	}
	head := tokens[0]
	if strings.HasPrefix(head, "#") {
		if num := strings.TrimPrefix(head, "#"); num != "" {
			return "", num, 1
		}
		if len(tokens) > 1 {
			return "", tokens[1], 2
		}
		return "", "", 1
	}
	kind := unitTypes[head]
	switch {
	case len(tokens) == 1:
		return kind, "", 1
	case whole:
		return kind, strings.TrimPrefix(strings.Join(tokens[1:], " "), "#"), len(tokens)
	default:
		return kind, strings.TrimPrefix(tokens[1], "#"), 2
	}
}

func popZip(tokens []string) ([]string, string) {
	n := len(tokens)
	if n == 0 {
		return tokens, ""
	}
	if zipTokenRe.MatchString(tokens[n-1]) || caPostalRe.MatchString(tokens[n-1]) {
		return tokens[:n-1], tokens[n-1]
	}
	if n >= 2 && caFSARe.MatchString(tokens[n-2]) && caLDURe.MatchString(tokens[n-1]) {
		return tokens[:n-2], tokens[n-2] + " " + tokens[n-1]
	}
	return tokens, ""
}

func splitSegments(s string) [][]string {
	var out [][]string
	for _, part := range strings.Split(s, ",") {
		var toks []string
		for _, f := range strings.Fields(part) {
			f = tokenTrimRe.ReplaceAllString(f, "")
			if f != "" {
				toks = append(toks, f)
			}
		}
		if len(toks) > 0 {
			out = append(out, toks)
		}
	}
	return out
}

func dropEmpty(segs [][]string) [][]string {
	out := segs[:0]
	for _, s := range segs {
		if len(s) > 0 {
			out = append(out, s)
		}
	}
	return out
}

func isUnitToken(t string) bool {
	if strings.HasPrefix(t, "#") {
		return true
	}
	_, ok := unitTypes[t]
	return ok
}

func isUnitStart(seg []string) bool {
	return len(seg) > 0 && isUnitToken(seg[0])
}

func hasDigit(seg []string) bool {
	for _, t := range seg {
		if strings.ContainsAny(t, "0123456789") {
			return true
		}
	}
	return false
}

func startsWithDigit(t string) bool {
	return t != "" && t[0] >= '0' && t[0] <= '9'
}

var directionals = map[string]bool{
	"N": true, "S": true, "E": true, "W": true,
	"NE": true, "NW": true, "SE": true, "SW": true,
	"NORTH": true, "SOUTH": true, "EAST": true, "WEST": true,
}

func hasDirectional(tokens []string) bool {
	return len(tokens) == 1 && directionals[tokens[0]]
}
