package resolve

import (
	"fmt"
	"math"

	"github.com/payasparab/addressmatcher/internal/model"
	"github.com/payasparab/addressmatcher/internal/similarity"
)

// DefaultVetoThreshold is the house-number indel ratio below which a pair
// scores 0 regardless of its other fields.
const DefaultVetoThreshold = 0.70

// Scorer computes the weighted similarity of two records on a 0–100 scale.
// It is immutable and safe for concurrent use.
type Scorer struct {
	weights model.WeightTable
	sum     float64
	invalid error
	cmp     *similarity.Comparator
	veto    float64
}

// ScorerOption configures a Scorer.
type ScorerOption func(*Scorer)

// WithComparator sets the comparator for the weighted fields. The default is
// the indel ratio. The house-number veto always uses the indel ratio.
func WithComparator(c *similarity.Comparator) ScorerOption {
	return func(s *Scorer) {
		if c != nil {
			s.cmp = c
		}
	}
}

// WithVetoThreshold sets the minimum house-number indel ratio.
func WithVetoThreshold(v float64) ScorerOption {
	return func(s *Scorer) { s.veto = v }
}

// NewScorer builds a Scorer over weights. An invalid table does not fail
// construction; every pair scored with it reports an invalid_weights failure.
func NewScorer(weights model.WeightTable, opts ...ScorerOption) *Scorer {
	s := &Scorer{
		weights: weights.Clone(),
		cmp:     similarity.Default(),
		veto:    DefaultVetoThreshold,
	}
	for _, o := range opts {
		o(s)
	}
	s.invalid = s.weights.Validate()
	s.sum = s.weights.Sum()
	return s
}

// Weights returns a copy of the active weight table.
func (s *Scorer) Weights() model.WeightTable {
	return s.weights.Clone()
}

// Score returns the match score of a and b, rounded to two decimals. A pair
// whose house numbers are less similar than the veto threshold scores
// exactly 0. Errors are always *model.Failure.
func (s *Scorer) Score(a, b model.Record) (score float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			score = 0
			err = &model.Failure{Reason: model.FailureScorerPanic, Detail: fmt.Sprint(r)}
		}
	}()

	if s.invalid != nil || s.sum <= 0 {
		detail := "weight sum must be > 0"
		if s.invalid != nil {
			detail = s.invalid.Error()
		}
		return 0, &model.Failure{Reason: model.FailureInvalidWeights, Detail: detail}
	}

	var total float64
	for _, fw := range s.weights {
		total += fw.Weight * s.cmp.Field(fw.Field, a.Get(fw.Field), b.Get(fw.Field))
	}

	if s.house(a, b) < s.veto {
		return 0, nil
	}
	return round2(total / s.sum * 100), nil
}

func (s *Scorer) house(a, b model.Record) float64 {
	return similarity.IndelRatio(a.Get(model.FieldAddressNumber), b.Get(model.FieldAddressNumber))
}

// FieldScore is one field's part of an Explanation.
type FieldScore struct {
	Field        string  `json:"field"`
	A            string  `json:"a"`
	B            string  `json:"b"`
	Similarity   float64 `json:"similarity"`
	Weight       float64 `json:"weight"`
	Contribution float64 `json:"contribution"`
}

// Explanation breaks a score down by field.
type Explanation struct {
	Fields     []FieldScore `json:"fields"`
	House      float64      `json:"house_similarity"`
	Vetoed     bool         `json:"vetoed"`
	Score      float64      `json:"score"`
	WeightsSum float64      `json:"weights_sum"`
}

// Explain returns the per-field breakdown behind Score. Contributions are on
// the 0–100 scale and sum to the unvetoed score.
func (s *Scorer) Explain(a, b model.Record) Explanation {
	e := Explanation{WeightsSum: s.sum, House: s.house(a, b)}
	for _, fw := range s.weights {
		va, vb := a.Get(fw.Field), b.Get(fw.Field)
		sim := s.cmp.Field(fw.Field, va, vb)
		fs := FieldScore{Field: fw.Field, A: va, B: vb, Similarity: sim, Weight: fw.Weight}
		if s.sum > 0 {
			fs.Contribution = fw.Weight * sim / s.sum * 100
		}
		e.Fields = append(e.Fields, fs)
	}
	e.Vetoed = e.House < s.veto
	e.Score, _ = s.Score(a, b)
	return e
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
