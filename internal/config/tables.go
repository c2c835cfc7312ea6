package config

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/payasparab/addressmatcher/internal/model"
)

// Tables overrides the built-in weight and tier tables. Unset sections keep
// their defaults.
type Tables struct {
	Weights       model.WeightTable `yaml:"weights"`
	NoNameWeights model.WeightTable `yaml:"no_name_weights"`
	Tiers         model.TierTable   `yaml:"tiers"`
}

// DefaultTables returns the built-in tables.
func DefaultTables() *Tables {
	return &Tables{
		Weights:       model.DefaultWeights(),
		NoNameWeights: model.NoNameWeights(),
		Tiers:         model.DefaultTiers(),
	}
}

// SelectWeights returns the no-name table when noName is set.
func (t *Tables) SelectWeights(noName bool) model.WeightTable {
	if noName {
		return t.NoNameWeights.Clone()
	}
	return t.Weights.Clone()
}

// LoadTables reads a YAML tables file. An empty path returns the defaults.
//
//	weights:
//	  - {field: last_name, weight: 0.25}
//	tiers:
//	  - {name: near-exact, min: 90}
func LoadTables(path string) (*Tables, error) {
	tables := DefaultTables()
	if path == "" {
		return tables, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "config: read tables %s", path)
	}

	var file Tables
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, eris.Wrapf(err, "config: parse tables %s", path)
	}

	if file.Weights != nil {
		tables.Weights = file.Weights
	}
	if file.NoNameWeights != nil {
		tables.NoNameWeights = file.NoNameWeights
	}
	if file.Tiers != nil {
		tables.Tiers = file.Tiers
	}

	if err := tables.Weights.Validate(); err != nil {
		return nil, eris.Wrap(err, "config: weights")
	}
	if err := tables.NoNameWeights.Validate(); err != nil {
		return nil, eris.Wrap(err, "config: no_name_weights")
	}
	if err := tables.Tiers.Validate(); err != nil {
		return nil, eris.Wrap(err, "config: tiers")
	}
	for _, table := range []model.WeightTable{tables.Weights, tables.NoNameWeights} {
		for _, fw := range table {
			if !model.IsMatchable(fw.Field) {
				return nil, eris.Errorf("config: weighted field %q is not matchable", fw.Field)
			}
		}
	}
	return tables, nil
}
