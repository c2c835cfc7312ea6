package model

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
)

// Confidence tier names.
const (
	TierNearExact = "near-exact"
	TierHigh      = "high"
	TierMedium    = "medium"
	TierLow       = "low"
)

// DefaultThreshold is the acceptance threshold. Pairs must score strictly
// above it to become candidates.
const DefaultThreshold = 60.0

// Tier is a named confidence bucket with an inclusive lower bound.
type Tier struct {
	Name string  `json:"name" yaml:"name" mapstructure:"name"`
	Min  float64 `json:"min" yaml:"min" mapstructure:"min"`
}

// TierTable is an ordered list of confidence tiers.
type TierTable []Tier

// DefaultTiers returns near-exact ≥ 90, high ≥ 80, medium ≥ 70, low ≥ 60.
func DefaultTiers() TierTable {
	return TierTable{
		{Name: TierNearExact, Min: 90},
		{Name: TierHigh, Min: 80},
		{Name: TierMedium, Min: 70},
		{Name: TierLow, Min: DefaultThreshold},
	}
}

// Sorted returns a copy ordered by descending minimum. Ties keep their
// original relative order.
func (t TierTable) Sorted() TierTable {
	out := make(TierTable, len(t))
	copy(out, t)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Min > out[j].Min
	})
	return out
}

// Classify maps score to the first tier, in descending minimum order, whose
// minimum is at or below score. ok is false when score is below every tier.
// A table already in descending order is read in place.
func (t TierTable) Classify(score float64) (name string, ok bool) {
	tiers := t
	if !t.descending() {
		tiers = t.Sorted()
	}
	for _, tier := range tiers {
		if score >= tier.Min {
			return tier.Name, true
		}
	}
	return "", false
}

func (t TierTable) descending() bool {
	for i := 1; i < len(t); i++ {
		if t[i].Min > t[i-1].Min {
			return false
		}
	}
	return true
}

// Names returns tier names in descending minimum order.
func (t TierTable) Names() []string {
	sorted := t.Sorted()
	out := make([]string, len(sorted))
	for i, tier := range sorted {
		out[i] = tier.Name
	}
	return out
}

// Lowest returns the smallest tier minimum, or 0 for an empty table.
func (t TierTable) Lowest() float64 {
	if len(t) == 0 {
		return 0
	}
	low := t[0].Min
	for _, tier := range t[1:] {
		if tier.Min < low {
			low = tier.Min
		}
	}
	return low
}

// Validate checks that the table is non-empty with unique, non-blank names.
func (t TierTable) Validate() error {
	if len(t) == 0 {
		return eris.New("model: tier table is empty")
	}
	var errs []string
	seen := make(map[string]bool, len(t))
	for _, tier := range t {
		if strings.TrimSpace(tier.Name) == "" {
			errs = append(errs, "blank tier name")
			continue
		}
		if seen[tier.Name] {
			errs = append(errs, fmt.Sprintf("duplicate tier %q", tier.Name))
		}
		seen[tier.Name] = true
		if tier.Min < 0 || tier.Min > 100 {
			errs = append(errs, fmt.Sprintf("tier %s minimum must be within [0, 100]", tier.Name))
		}
	}
	if len(errs) > 0 {
		return eris.Errorf("model: invalid tier table: %s", strings.Join(errs, "; "))
	}
	return nil
}
