package model

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
)

// FieldWeight assigns a non-negative weight to one matchable field.
type FieldWeight struct {
	Field  string  `json:"field" yaml:"field" mapstructure:"field"`
	Weight float64 `json:"weight" yaml:"weight" mapstructure:"weight"`
}

// WeightTable is an ordered list of field weights. Order is significant:
// scores are accumulated in table order so repeated runs produce identical
// floating-point results.
type WeightTable []FieldWeight

// DefaultWeights is the canonical table for sources with reliable names.
// The weights sum to 0.94; scores are normalized by the sum.
func DefaultWeights() WeightTable {
	return WeightTable{
		{Field: FieldLastName, Weight: 0.25},
		{Field: FieldUnitNumber, Weight: 0.18},
		{Field: FieldStreetName, Weight: 0.18},
		{Field: FieldAddressNumber, Weight: 0.15},
		{Field: FieldState, Weight: 0.05},
		{Field: FieldFirstName, Weight: 0.04},
		{Field: FieldCity, Weight: 0.03},
		{Field: FieldStreetType, Weight: 0.03},
		{Field: FieldUnitType, Weight: 0.03},
	}
}

// NoNameWeights is the canonical table for pairs where one side lacks
// reliable name data. Name weight is redistributed over the address fields.
func NoNameWeights() WeightTable {
	return WeightTable{
		{Field: FieldUnitNumber, Weight: 0.2381},
		{Field: FieldStreetName, Weight: 0.2381},
		{Field: FieldAddressNumber, Weight: 0.1905},
		{Field: FieldState, Weight: 0.0476},
		{Field: FieldCity, Weight: 0.0476},
		{Field: FieldStreetType, Weight: 0.0476},
		{Field: FieldUnitType, Weight: 0.0476},
	}
}

// SelectWeights returns NoNameWeights when noName is set, DefaultWeights
// otherwise.
func SelectWeights(noName bool) WeightTable {
	if noName {
		return NoNameWeights()
	}
	return DefaultWeights()
}

// Sum returns the total weight of the table.
func (t WeightTable) Sum() float64 {
	var sum float64
	for _, fw := range t {
		sum += fw.Weight
	}
	return sum
}

// Fields returns the field names in table order.
func (t WeightTable) Fields() []string {
	out := make([]string, len(t))
	for i, fw := range t {
		out[i] = fw.Field
	}
	return out
}

// Weight returns the weight assigned to field, or 0 when absent.
func (t WeightTable) Weight(field string) float64 {
	for _, fw := range t {
		if fw.Field == field {
			return fw.Weight
		}
	}
	return 0
}

// Clone returns an independent copy of the table.
func (t WeightTable) Clone() WeightTable {
	out := make(WeightTable, len(t))
	copy(out, t)
	return out
}

// Validate checks that the table is non-empty, has no duplicate or blank
// fields, no negative weights, and a positive sum.
func (t WeightTable) Validate() error {
	if len(t) == 0 {
		return eris.New("model: weight table is empty")
	}

	var errs []string
	seen := make(map[string]bool, len(t))
	for _, fw := range t {
		if strings.TrimSpace(fw.Field) == "" {
			errs = append(errs, "blank field name")
			continue
		}
		if seen[fw.Field] {
			errs = append(errs, fmt.Sprintf("duplicate field %q", fw.Field))
		}
		seen[fw.Field] = true
		if fw.Weight < 0 {
			errs = append(errs, fmt.Sprintf("%s weight must be >= 0", fw.Field))
		}
	}
	if t.Sum() <= 0 {
		errs = append(errs, "weight sum must be > 0")
	}

	if len(errs) > 0 {
		return eris.Errorf("model: invalid weight table: %s", strings.Join(errs, "; "))
	}
	return nil
}
