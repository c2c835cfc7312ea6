// Package similarity computes per-field similarity in [0,1] between two
// normalized field values.
package similarity

import (
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"github.com/rotisserie/eris"
	"github.com/xrash/smetrics"

	"github.com/payasparab/addressmatcher/internal/model"
)

// Method selects the fuzzy ratio used for non-exact fields.
type Method string

const (
	// MethodIndel is the insert/delete edit ratio:
	// (len(a)+len(b)-indel(a,b)) / (len(a)+len(b)).
	MethodIndel Method = "indel"
	// MethodLevenshtein is 1 - levenshtein(a,b)/max(len(a),len(b)).
	MethodLevenshtein Method = "levenshtein"
	// MethodJaroWinkler is the Jaro-Winkler similarity.
	MethodJaroWinkler Method = "jaro_winkler"
)

// Jaro-Winkler parameters: boost applies above 0.7 over a 4-char prefix.
const (
	jwBoostThreshold = 0.7
	jwPrefixSize     = 4
)

// exactFields are compared by strict equality instead of a fuzzy ratio.
var exactFields = map[string]bool{
	model.FieldStreetType: true,
	model.FieldState:      true,
	model.FieldUnitType:   true,
}

// IsExact reports whether field is compared by strict equality.
func IsExact(field string) bool {
	return exactFields[field]
}

// Comparator computes field similarity with a fixed fuzzy method.
// It is stateless and safe for concurrent use.
type Comparator struct {
	method Method
	ratio  func(a, b string) float64
}

// New returns a Comparator for method. An empty method selects MethodIndel.
func New(method Method) (*Comparator, error) {
	switch method {
	case "", MethodIndel:
		return &Comparator{method: MethodIndel, ratio: IndelRatio}, nil
	case MethodLevenshtein:
		return &Comparator{method: method, ratio: LevenshteinRatio}, nil
	case MethodJaroWinkler:
		return &Comparator{method: method, ratio: JaroWinkler}, nil
	default:
		return nil, eris.Errorf("similarity: unknown method %q", method)
	}
}

// Default returns the indel Comparator.
func Default() *Comparator {
	return &Comparator{method: MethodIndel, ratio: IndelRatio}
}

// Method returns the fuzzy method in use.
func (c *Comparator) Method() Method {
	return c.method
}

// Field returns the similarity of two values of the named field.
// Exact fields score 1 or 0; all others use the comparator's ratio.
func (c *Comparator) Field(field, a, b string) float64 {
	if IsExact(field) {
		return Exact(a, b)
	}
	return c.ratio(a, b)
}

// Field compares two values with the default indel ratio.
func Field(field, a, b string) float64 {
	return Default().Field(field, a, b)
}

// Exact returns 1 when a and b are identical, 0 otherwise. Two empty values
// are identical.
func Exact(a, b string) float64 {
	if a == b {
		return 1
	}
	return 0
}

// IndelRatio returns the normalized insert/delete similarity of a and b.
// It is symmetric. Two empty strings score 1. Lengths are measured in
// bytes, matching the byte-wise edit distance.
func IndelRatio(a, b string) float64 {
	if a == b {
		return 1
	}
	total := len(a) + len(b)
	if total == 0 {
		return 1
	}
	// A substitution costs one delete plus one insert.
	dist := smetrics.WagnerFischer(a, b, 1, 1, 2)
	return clamp(float64(total-dist) / float64(total))
}

// LevenshteinRatio returns 1 - distance/max(len) over runes.
func LevenshteinRatio(a, b string) float64 {
	if a == b {
		return 1
	}
	longest := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if longest == 0 {
		return 1
	}
	dist := levenshtein.ComputeDistance(a, b)
	return clamp(1 - float64(dist)/float64(longest))
}

// JaroWinkler returns the Jaro-Winkler similarity of a and b. An empty
// value against a non-empty one scores 0.
func JaroWinkler(a, b string) float64 {
	if a == b {
		return 1
	}
	if a == "" || b == "" {
		return 0
	}
	return clamp(smetrics.JaroWinkler(a, b, jwBoostThreshold, jwPrefixSize))
}

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
