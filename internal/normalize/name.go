package normalize

import (
	"strings"
	"unicode"
)

// Name holds the parts of a split personal name, uppercased.
type Name struct {
	First         string
	Middle        string
	MiddleInitial string
	Last          string
}

// SplitName strips punctuation from full and splits it on whitespace:
// one part is a first name, two are first and last, three are first,
// middle, and last, and four or more keep the first and last parts with
// everything between them joined as the middle name.
func SplitName(full string) Name {
	parts := strings.Fields(stripPunct(Upper(full)))

	var n Name
	switch len(parts) {
	case 0:
		return n
	case 1:
		n.First = parts[0]
	case 2:
		n.First, n.Last = parts[0], parts[1]
	default:
		n.First = parts[0]
		n.Middle = strings.Join(parts[1:len(parts)-1], " ")
		n.Last = parts[len(parts)-1]
	}
	n.MiddleInitial = MiddleInitial(n.Middle)
	return n
}

// MiddleInitial returns the first letter of middle, or "".
func MiddleInitial(middle string) string {
	for _, r := range middle {
		return string(r)
	}
	return ""
}

func stripPunct(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsPunct(r) || unicode.IsSymbol(r) {
			return -1
		}
		return r
	}, s)
}
